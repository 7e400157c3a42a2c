package shortcodes

// Document is one input to Process.
type Document struct {
	// ID identifies the document in diagnostics, usually its path.
	ID   string
	Text string
}

// Result is the outcome of processing one document.
type Result struct {
	DocumentID string
	// Output is the transformed text. It is empty when Process returns an error.
	Output      string
	Diagnostics []Diagnostic
}

// HasErrors reports whether any diagnostic has error severity.
func (r *Result) HasErrors() bool {
	for _, d := range r.Diagnostics {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Count returns the number of diagnostics of the given kind.
func (r *Result) Count(kind Kind) int {
	n := 0
	for _, d := range r.Diagnostics {
		if d.Kind == kind {
			n++
		}
	}
	return n
}
