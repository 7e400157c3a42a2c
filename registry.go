package shortcodes

import (
	"sort"
	"sync/atomic"

	"github.com/pkg/errors"

	"github.com/riverfjs/shortcodes-go/internal/scan"
)

// Handler renders one shortcode invocation into replacement text.
//
// Handlers must be pure: the result may depend only on the invocation
// (name, arguments, body and the per-call Scratch). They must not touch
// files, the network or shared mutable state.
type Handler interface {
	Render(inv *Invocation) (string, error)
}

// BodyHandler is implemented by handlers that take a body. For their
// names the scanner looks for a matching close marker.
type BodyHandler interface {
	Handler
	HasBody() bool
}

// HandlerFunc adapts a function to an inline Handler.
type HandlerFunc func(inv *Invocation) (string, error)

// Render calls f(inv).
func (f HandlerFunc) Render(inv *Invocation) (string, error) {
	return f(inv)
}

// BlockFunc adapts a function to a Handler that takes a body.
type BlockFunc func(inv *Invocation) (string, error)

// Render calls f(inv).
func (f BlockFunc) Render(inv *Invocation) (string, error) {
	return f(inv)
}

// HasBody always returns true.
func (f BlockFunc) HasBody() bool {
	return true
}

// Registry maps shortcode names to handlers. Build it completely before the
// first Process call; it is sealed on first use and read-only afterwards,
// which makes one Registry safe to share between goroutines processing
// different documents.
type Registry struct {
	handlers map[string]Handler
	sealed   atomic.Bool
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]Handler)}
}

// Register binds name to h. Names are case-sensitive.
func (r *Registry) Register(name string, h Handler) error {
	if r.sealed.Load() {
		return errors.Wrapf(ErrSealed, "register %q", name)
	}
	if !scan.ValidName(name) {
		return errors.Wrapf(ErrInvalidName, "register %q", name)
	}
	if h == nil {
		return errors.Errorf("register %q: nil handler", name)
	}
	if _, ok := r.handlers[name]; ok {
		return errors.Wrapf(ErrDuplicateName, "register %q", name)
	}
	r.handlers[name] = h
	return nil
}

// MustRegister is like Register but panics on error.
func (r *Registry) MustRegister(name string, h Handler) {
	if err := r.Register(name, h); err != nil {
		panic(err)
	}
}

// Resolve returns the handler for name, or an error wrapping ErrNotFound.
func (r *Registry) Resolve(name string) (Handler, error) {
	h, ok := r.Lookup(name)
	if !ok {
		return nil, errors.Wrapf(ErrNotFound, "resolve %q", name)
	}
	return h, nil
}

// Lookup returns the handler for name.
func (r *Registry) Lookup(name string) (Handler, bool) {
	h, ok := r.handlers[name]
	return h, ok
}

// IsBlock reports whether the handler for name takes a body.
func (r *Registry) IsBlock(name string) bool {
	h, ok := r.handlers[name]
	if !ok {
		return false
	}
	b, ok := h.(BodyHandler)
	return ok && b.HasBody()
}

// Names returns the registered names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of registered handlers.
func (r *Registry) Len() int {
	return len(r.handlers)
}

// Sealed reports whether the registry has been used by Process.
func (r *Registry) Sealed() bool {
	return r.sealed.Load()
}

func (r *Registry) seal() {
	if !r.sealed.Load() {
		r.sealed.Store(true)
	}
}
