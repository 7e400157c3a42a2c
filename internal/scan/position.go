package scan

import (
	"sort"
	"unicode/utf8"
)

// Locator converts byte offsets into 1-based line and column numbers.
// Columns count runes, not bytes.
type Locator struct {
	src        string
	lineStarts []int
}

// NewLocator builds the line start table for src.
func NewLocator(src string) *Locator {
	starts := []int{0}
	for i := 0; i < len(src); i++ {
		if src[i] == '\n' {
			starts = append(starts, i+1)
		}
	}
	return &Locator{src: src, lineStarts: starts}
}

// Position returns the line and column of offset. Offsets outside the
// source are clamped.
func (l *Locator) Position(offset int) (line, column int) {
	if offset < 0 {
		offset = 0
	}
	if offset > len(l.src) {
		offset = len(l.src)
	}
	// index of the last line start <= offset
	i := sort.Search(len(l.lineStarts), func(i int) bool { return l.lineStarts[i] > offset }) - 1
	start := l.lineStarts[i]
	return i + 1, utf8.RuneCountInString(l.src[start:offset]) + 1
}
