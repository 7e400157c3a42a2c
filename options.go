package shortcodes

// Options holds options for Process.
type Options struct {
	Policies Policies
}

// Option is a function that configures Options.
type Option func(*Options)

// WithPolicies replaces all error policies.
func WithPolicies(p Policies) Option {
	return func(opts *Options) {
		opts.Policies = p
	}
}

// WithPolicy sets the policy for one diagnostic kind. Kinds without a
// configurable policy are ignored.
func WithPolicy(kind Kind, p Policy) Option {
	return func(opts *Options) {
		switch kind {
		case KindMalformedArguments:
			opts.Policies.MalformedArguments = p
		case KindHandlerNotFound:
			opts.Policies.HandlerNotFound = p
		case KindHandlerExecutionFailure:
			opts.Policies.HandlerFailure = p
		}
	}
}

// WithStrict makes every configurable error fail the document.
func WithStrict() Option {
	return WithPolicies(Policies{
		MalformedArguments: PolicyHard,
		HandlerNotFound:    PolicyHard,
		HandlerFailure:     PolicyHard,
	})
}

// defaultOptions returns the default processing options.
func defaultOptions() *Options {
	return &Options{
		Policies: DefaultPolicies(),
	}
}

// applyOptions applies the given options to the default options.
func applyOptions(opts ...Option) *Options {
	options := defaultOptions()
	for _, opt := range opts {
		opt(options)
	}
	return options
}
