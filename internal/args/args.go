// Package args parses the raw argument text of a shortcode marker.
//
// Grammar: whitespace-separated tokens. A token whose first unquoted '=' is
// preceded by a key is a named argument (key=value); any other token is
// positional. Single or double quotes group whitespace and '=' into a value;
// inside quotes a backslash escapes the quote character or a backslash.
package args

import (
	"fmt"
	"strings"
)

// Args holds the parsed arguments of one invocation.
type Args struct {
	Positional []string
	Named      map[string]string
	// Keys lists named keys in source order.
	Keys []string
}

// SyntaxError reports malformed argument text. Offset is the byte offset of
// the offending character within the parsed text.
type SyntaxError struct {
	Offset int
	Msg    string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("offset %d: %s", e.Offset, e.Msg)
}

// Parse parses raw into positional and named arguments.
func Parse(raw string) (*Args, error) {
	a := &Args{Named: map[string]string{}}
	p := parser{src: raw}
	for {
		p.skipSpace()
		if p.pos >= len(p.src) {
			return a, nil
		}
		start := p.pos
		tok, err := p.token()
		if err != nil {
			return nil, err
		}
		if !tok.named {
			a.Positional = append(a.Positional, tok.value)
			continue
		}
		if !ValidKey(tok.key) {
			return nil, &SyntaxError{Offset: start, Msg: fmt.Sprintf("invalid argument name %q", tok.key)}
		}
		if _, dup := a.Named[tok.key]; dup {
			return nil, &SyntaxError{Offset: start, Msg: fmt.Sprintf("duplicate argument %q", tok.key)}
		}
		a.Named[tok.key] = tok.value
		a.Keys = append(a.Keys, tok.key)
	}
}

type token struct {
	named bool
	key   string
	value string
}

type parser struct {
	src string
	pos int
}

func (p *parser) skipSpace() {
	for p.pos < len(p.src) && isSpace(p.src[p.pos]) {
		p.pos++
	}
}

// token reads one whitespace-delimited token. Quoted and unquoted runs
// concatenate, so `a"b c"` is the single value `ab c`.
func (p *parser) token() (token, error) {
	var (
		tok token
		b   strings.Builder
	)
	start := p.pos
	for p.pos < len(p.src) && !isSpace(p.src[p.pos]) {
		c := p.src[p.pos]
		switch {
		case c == '"' || c == '\'':
			if err := p.quoted(&b); err != nil {
				return tok, err
			}
		case c == '=' && !tok.named:
			if p.pos == start {
				return tok, &SyntaxError{Offset: p.pos, Msg: "missing argument name before '='"}
			}
			if b.Len() != p.pos-start {
				// key contained a quoted run
				return tok, &SyntaxError{Offset: start, Msg: "argument name must not be quoted"}
			}
			tok.named = true
			tok.key = b.String()
			b.Reset()
			p.pos++
		default:
			b.WriteByte(c)
			p.pos++
		}
	}
	tok.value = b.String()
	return tok, nil
}

func (p *parser) quoted(b *strings.Builder) error {
	quote := p.src[p.pos]
	open := p.pos
	p.pos++
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		switch {
		case c == '\\' && p.pos+1 < len(p.src) && (p.src[p.pos+1] == quote || p.src[p.pos+1] == '\\'):
			b.WriteByte(p.src[p.pos+1])
			p.pos += 2
		case c == quote:
			p.pos++
			return nil
		default:
			b.WriteByte(c)
			p.pos++
		}
	}
	return &SyntaxError{Offset: open, Msg: fmt.Sprintf("unmatched %c quote", quote)}
}

// ValidKey reports whether s can be used as a named argument key.
func ValidKey(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isLetter(c) || c == '_' || (i > 0 && (isDigit(c) || c == '-' || c == '.')) {
			continue
		}
		return false
	}
	return true
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
