package shortcodes

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

var (
	// ErrDuplicateName is returned by Register when the name is taken.
	ErrDuplicateName = errors.New("shortcode name already registered")
	// ErrNotFound is returned by Resolve for unknown names.
	ErrNotFound = errors.New("shortcode handler not found")
	// ErrSealed is returned by Register once the registry has been used.
	ErrSealed = errors.New("registry is sealed")
	// ErrInvalidName is returned by Register for names the scanner cannot match.
	ErrInvalidName = errors.New("invalid shortcode name")
)

// ProcessError reports a document whose substitution failed under a hard
// policy. It carries every diagnostic of the call, not only the fatal ones.
type ProcessError struct {
	DocumentID  string
	Diagnostics []Diagnostic
}

func (e *ProcessError) Error() string {
	var fatal []string
	for _, d := range e.Diagnostics {
		if d.Severity == SeverityError {
			fatal = append(fatal, d.String())
		}
	}
	id := e.DocumentID
	if id == "" {
		id = "<input>"
	}
	switch len(fatal) {
	case 0:
		return fmt.Sprintf("%s: shortcode processing failed", id)
	case 1:
		return "shortcode processing failed: " + fatal[0]
	}
	return fmt.Sprintf("shortcode processing failed with %d errors: %s", len(fatal), strings.Join(fatal, "; "))
}
