package types

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// Kind 诊断类别
type Kind int

const (
	// KindUnterminatedShortcode 开始标记没有对应的结束标记
	KindUnterminatedShortcode Kind = iota
	// KindMalformedArguments 参数无法解析（引号未闭合、重复的键、缺少名称等）
	KindMalformedArguments
	// KindHandlerNotFound 名称没有注册处理器
	KindHandlerNotFound
	// KindHandlerExecutionFailure 处理器返回了错误
	KindHandlerExecutionFailure
	// KindUnexpectedClose 结束标记没有对应的开始标记
	KindUnexpectedClose
)

// String returns the string representation of Kind.
func (k Kind) String() string {
	switch k {
	case KindUnterminatedShortcode:
		return "UnterminatedShortcode"
	case KindMalformedArguments:
		return "MalformedArguments"
	case KindHandlerNotFound:
		return "HandlerNotFound"
	case KindHandlerExecutionFailure:
		return "HandlerExecutionFailure"
	case KindUnexpectedClose:
		return "UnexpectedClose"
	default:
		return "unknown"
	}
}

// Severity 诊断严重程度
type Severity int

const (
	SeverityWarning Severity = iota
	SeverityError
)

func (s Severity) String() string {
	if s == SeverityError {
		return "error"
	}
	return "warning"
}

// Policy 决定一类错误是保留原文继续处理（Soft）还是使整个文档失败（Hard）
type Policy int

const (
	PolicySoft Policy = iota
	PolicyHard
)

func (p Policy) String() string {
	if p == PolicyHard {
		return "hard"
	}
	return "soft"
}

// ParsePolicy parses "soft"/"hard" (or the longer "fail-soft"/"fail-hard").
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "soft", "fail-soft", "":
		return PolicySoft, nil
	case "hard", "fail-hard":
		return PolicyHard, nil
	}
	return PolicySoft, errors.Errorf("unknown policy %q, want soft or hard", s)
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Policy) UnmarshalText(text []byte) error {
	v, err := ParsePolicy(string(text))
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (p Policy) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// Policies 每类可配置错误的处理策略
type Policies struct {
	MalformedArguments Policy `toml:"malformed-arguments" json:"malformed-arguments" mapstructure:"malformed-arguments"`
	HandlerNotFound    Policy `toml:"handler-not-found" json:"handler-not-found" mapstructure:"handler-not-found"`
	HandlerFailure     Policy `toml:"handler-failure" json:"handler-failure" mapstructure:"handler-failure"`
}

// DefaultPolicies 返回默认策略：参数错误和未知名称保留原文，处理器失败使文档失败
func DefaultPolicies() Policies {
	return Policies{
		MalformedArguments: PolicySoft,
		HandlerNotFound:    PolicySoft,
		HandlerFailure:     PolicyHard,
	}
}

// For returns the policy that applies to kind. Kinds without a
// configurable policy are always soft.
func (p Policies) For(kind Kind) Policy {
	switch kind {
	case KindMalformedArguments:
		return p.MalformedArguments
	case KindHandlerNotFound:
		return p.HandlerNotFound
	case KindHandlerExecutionFailure:
		return p.HandlerFailure
	}
	return PolicySoft
}

// Diagnostic 处理过程中记录的一条问题
type Diagnostic struct {
	Kind       Kind     `json:"kind"`
	Severity   Severity `json:"severity"`
	Message    string   `json:"message"`
	DocumentID string   `json:"document_id,omitempty"`
	Line       int      `json:"line"`
	Column     int      `json:"column"`
	Offset     int      `json:"offset"`
}

// String formats the diagnostic as "doc:line:col: kind: message".
func (d Diagnostic) String() string {
	id := d.DocumentID
	if id == "" {
		id = "<input>"
	}
	return fmt.Sprintf("%s:%d:%d: %s: %s", id, d.Line, d.Column, d.Kind, d.Message)
}
