package shortcodes

import (
	"strconv"

	"github.com/pkg/errors"
)

// Invocation is the resolved call a handler renders.
type Invocation struct {
	Name       string
	Positional []string
	Named      map[string]string
	// Keys lists the named argument keys in source order.
	Keys []string

	// Body is the block content with nested shortcodes already expanded.
	Body string
	// Block is true when the invocation had an open and a close marker.
	Block bool
	// Markdown is true for {{% %}} markers and false for {{< >}}.
	Markdown bool

	// Parent is the enclosing block invocation, or nil at the top level.
	Parent *Invocation
	// Ordinal is the zero-based position among the shortcodes sharing the
	// same parent.
	Ordinal int

	DocumentID string
	Line       int
	Column     int

	scratch *Scratch
}

// Get returns the named argument key, or "" when absent.
func (inv *Invocation) Get(key string) string {
	return inv.Named[key]
}

// Lookup returns the named argument key and whether it was given.
func (inv *Invocation) Lookup(key string) (string, bool) {
	v, ok := inv.Named[key]
	return v, ok
}

// Arg returns the i-th positional argument, or "" when out of range.
func (inv *Invocation) Arg(i int) string {
	if i < 0 || i >= len(inv.Positional) {
		return ""
	}
	return inv.Positional[i]
}

// GetOr returns the named argument key, falling back to the i-th positional
// argument and then to def.
func (inv *Invocation) GetOr(key string, i int, def string) string {
	if v, ok := inv.Named[key]; ok {
		return v
	}
	if i >= 0 && i < len(inv.Positional) {
		return inv.Positional[i]
	}
	return def
}

// Int parses the named argument key as an integer.
func (inv *Invocation) Int(key string, def int) (int, error) {
	v, ok := inv.Named[key]
	if !ok {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def, errors.Errorf("argument %q: %q is not an integer", key, v)
	}
	return n, nil
}

// Bool parses the named argument key as a boolean.
func (inv *Invocation) Bool(key string, def bool) (bool, error) {
	v, ok := inv.Named[key]
	if !ok {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def, errors.Errorf("argument %q: %q is not a boolean", key, v)
	}
	return b, nil
}

// Scratch returns the scratch-pad shared by all invocations of one Process
// call. It starts empty on every call.
func (inv *Invocation) Scratch() *Scratch {
	return inv.scratch
}

// Scratch holds per-call handler state such as counters.
type Scratch struct {
	counters map[string]int
	values   map[string]interface{}
}

func newScratch() *Scratch {
	return &Scratch{
		counters: make(map[string]int),
		values:   make(map[string]interface{}),
	}
}

// Next increments the counter name and returns its new value, starting at 1.
func (s *Scratch) Next(name string) int {
	s.counters[name]++
	return s.counters[name]
}

// Count returns the current value of the counter name.
func (s *Scratch) Count(name string) int {
	return s.counters[name]
}

// Set stores a value under key.
func (s *Scratch) Set(key string, v interface{}) {
	s.values[key] = v
}

// Get returns the value stored under key.
func (s *Scratch) Get(key string) (interface{}, bool) {
	v, ok := s.values[key]
	return v, ok
}
