package shortcodes

import (
	"github.com/riverfjs/shortcodes-go/internal/types"
)

// 导出类型别名
type (
	Kind       = types.Kind
	Severity   = types.Severity
	Policy     = types.Policy
	Policies   = types.Policies
	Diagnostic = types.Diagnostic
)

// Diagnostic kinds.
const (
	KindUnterminatedShortcode   = types.KindUnterminatedShortcode
	KindMalformedArguments      = types.KindMalformedArguments
	KindHandlerNotFound         = types.KindHandlerNotFound
	KindHandlerExecutionFailure = types.KindHandlerExecutionFailure
	KindUnexpectedClose         = types.KindUnexpectedClose
)

const (
	SeverityWarning = types.SeverityWarning
	SeverityError   = types.SeverityError
)

const (
	// PolicySoft keeps the original marker text and records a warning.
	PolicySoft = types.PolicySoft
	// PolicyHard fails the whole document.
	PolicyHard = types.PolicyHard
)

// DefaultPolicies returns the default error policies: malformed arguments
// and unknown names are soft, handler failures are hard.
func DefaultPolicies() Policies {
	return types.DefaultPolicies()
}

// ParsePolicy parses "soft" or "hard".
func ParsePolicy(s string) (Policy, error) {
	return types.ParsePolicy(s)
}
