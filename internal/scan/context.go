package scan

import "strings"

// 代码上下文识别：围栏代码块和行内代码。两者内部的 shortcode 分隔符一律视为普通文本。

// atLineStart reports whether pos begins a line.
func atLineStart(src string, pos int) bool {
	return pos == 0 || src[pos-1] == '\n'
}

// lineEnd returns the offset just past the line containing pos (including
// its newline), bounded by limit.
func lineEnd(src string, pos, limit int) int {
	if i := strings.IndexByte(src[pos:limit], '\n'); i >= 0 {
		return pos + i + 1
	}
	return limit
}

// skipLinePrefix skips indentation and blockquote markers.
func skipLinePrefix(src string, pos, limit int) int {
	for pos < limit {
		switch src[pos] {
		case ' ', '\t', '>':
			pos++
		default:
			return pos
		}
	}
	return pos
}

// fenceRun reports the fence character and run length if the line at pos
// opens a fenced code block.
func fenceRun(src string, pos, limit int) (byte, int) {
	i := skipLinePrefix(src, pos, limit)
	if i >= limit {
		return 0, 0
	}
	c := src[i]
	if c != '`' && c != '~' {
		return 0, 0
	}
	n := 0
	for i+n < limit && src[i+n] == c {
		n++
	}
	if n < 3 {
		return 0, 0
	}
	if c == '`' {
		// backtick fence info strings must not contain backticks
		end := lineEnd(src, i+n, limit)
		if strings.IndexByte(src[i+n:end], '`') >= 0 {
			return 0, 0
		}
	}
	return c, n
}

// isFenceClose reports whether the line at pos closes a fence of c with at
// least n characters.
func isFenceClose(src string, pos, limit int, c byte, n int) bool {
	i := skipLinePrefix(src, pos, limit)
	run := 0
	for i < limit && src[i] == c {
		run++
		i++
	}
	if run < n {
		return false
	}
	end := lineEnd(src, i, limit)
	return strings.TrimSpace(src[i:end]) == ""
}

// skipFence returns the offset just past the fenced block opened on the
// line at pos. An unclosed fence runs to limit.
func skipFence(src string, pos, limit int, c byte, n int) int {
	i := lineEnd(src, pos, limit)
	for i < limit {
		if isFenceClose(src, i, limit, c, n) {
			return lineEnd(src, i, limit)
		}
		i = lineEnd(src, i, limit)
	}
	return limit
}

// backtickRun counts consecutive backticks at pos.
func backtickRun(src string, pos, limit int) int {
	n := 0
	for pos+n < limit && src[pos+n] == '`' {
		n++
	}
	return n
}

// spanFinder locates closing backtick runs for inline code spans. Failed
// searches are remembered per run length so repeated unmatched runs in one
// paragraph stay linear.
type spanFinder struct {
	src   string
	limit int
	// noMatchBefore[n] = end of a paragraph already known to hold no
	// further run of exactly n backticks
	noMatchBefore map[int]int

	// last computed paragraph, [paraFrom, paraTo)
	paraFrom, paraTo int
}

func newSpanFinder(src string, limit int) *spanFinder {
	return &spanFinder{src: src, limit: limit, noMatchBefore: map[int]int{}}
}

// paragraphEnd returns the offset where the inline run containing pos
// ends: a blank line, or a line that opens a fence or an ATX heading.
// A heading line is a run of its own.
func (f *spanFinder) paragraphEnd(pos int) int {
	if pos >= f.paraFrom && pos < f.paraTo {
		return f.paraTo
	}
	end := f.findParagraphEnd(pos)
	f.paraFrom, f.paraTo = pos, end
	return end
}

func (f *spanFinder) findParagraphEnd(pos int) int {
	if start := strings.LastIndexByte(f.src[:pos], '\n') + 1; isATXHeading(f.src, start, f.limit) {
		return lineEnd(f.src, pos, f.limit)
	}
	i := pos
	for i < f.limit {
		nl := strings.IndexByte(f.src[i:f.limit], '\n')
		if nl < 0 {
			return f.limit
		}
		next := i + nl + 1
		end := lineEnd(f.src, next, f.limit)
		if strings.TrimSpace(f.src[next:end]) == "" {
			return next
		}
		if _, n := fenceRun(f.src, next, f.limit); n > 0 || isATXHeading(f.src, next, f.limit) {
			return next
		}
		i = next
	}
	return f.limit
}

// isATXHeading reports whether the line at pos is an ATX heading: one to six
// '#' followed by whitespace or the end of the line.
func isATXHeading(src string, pos, limit int) bool {
	i := skipLinePrefix(src, pos, limit)
	n := 0
	for i+n < limit && src[i+n] == '#' {
		n++
	}
	if n == 0 || n > 6 {
		return false
	}
	i += n
	return i == limit || src[i] == ' ' || src[i] == '\t' || src[i] == '\n' || src[i] == '\r'
}

// closing returns the end offset of the code span opened by a run of n
// backticks ending at pos, or -1 when the run is unmatched.
func (f *spanFinder) closing(pos, n int) int {
	if stop, ok := f.noMatchBefore[n]; ok && pos < stop {
		return -1
	}
	para := f.paragraphEnd(pos)
	i := pos
	for i < para {
		j := strings.IndexByte(f.src[i:para], '`')
		if j < 0 {
			break
		}
		i += j
		run := backtickRun(f.src, i, para)
		if run == n {
			return i + run
		}
		i += run
	}
	f.noMatchBefore[n] = para
	return -1
}
