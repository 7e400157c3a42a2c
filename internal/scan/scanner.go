// Package scan 在 markdown 文本中识别 shortcode 标记
//
// 扫描器是一个显式的有限状态机，依次处理三种词法上下文：普通文本、围栏代码块和
// 行内代码。只有普通文本中的分隔符才会被识别为 shortcode。输出的 Segment 按文档
// 顺序排列、互不重叠并覆盖整个扫描区间。
package scan

import (
	"fmt"
	"strings"

	"github.com/riverfjs/shortcodes-go/internal/types"
)

// Options 扫描选项
type Options struct {
	// IsBlock reports whether a shortcode name takes a body. Names for which
	// it returns false (or every name, when nil) are scanned as inline.
	IsBlock func(name string) bool
}

// Scanner 在 [start, end) 区间上惰性地产生 Segment
type Scanner struct {
	src        string
	start, end int
	opts       Options

	pos      int
	pending  *Segment
	problems []Problem
	spans    *spanFinder

	// 当前 Literal 片段的累积状态
	litStart int
	copied   int
	lit      strings.Builder
	dirty    bool
}

// New 创建覆盖整个 src 的扫描器
func New(src string, opts Options) *Scanner {
	return NewRange(src, 0, len(src), opts)
}

// NewRange 创建只扫描 src[start:end] 的扫描器。偏移量仍相对于 src，
// 用于在文档坐标下扫描块级 shortcode 的 body。
func NewRange(src string, start, end int, opts Options) *Scanner {
	s := &Scanner{src: src, start: start, end: end, opts: opts}
	s.Reset()
	return s
}

// Reset rewinds the scanner to the start of its range and clears problems.
func (s *Scanner) Reset() {
	s.pos = s.start
	s.pending = nil
	s.problems = nil
	s.spans = newSpanFinder(s.src, s.end)
	s.resetLiteral(s.start)
}

// Problems returns the problems found so far.
func (s *Scanner) Problems() []Problem {
	return s.problems
}

// All drains the scanner and returns every remaining segment.
func (s *Scanner) All() []Segment {
	var segs []Segment
	for {
		seg, ok := s.Next()
		if !ok {
			return segs
		}
		segs = append(segs, seg)
	}
}

// Next returns the next segment, or false once the range is exhausted.
func (s *Scanner) Next() (Segment, bool) {
	if s.pending != nil {
		seg := *s.pending
		s.pending = nil
		return seg, true
	}
	for s.pos < s.end {
		if atLineStart(s.src, s.pos) {
			if c, n := fenceRun(s.src, s.pos, s.end); n > 0 {
				s.pos = skipFence(s.src, s.pos, s.end, c, n)
				continue
			}
		}

		switch s.src[s.pos] {
		case '\\':
			s.escape()
		case '`':
			s.codeSpan()
		case '{':
			if !openerAt(s.src, s.pos, s.end) {
				s.pos++
				continue
			}
			if seg, ok := s.marker(); ok {
				lit, hasLit := s.flushLiteral(seg.Start)
				s.resetLiteral(seg.End)
				if hasLit {
					s.pending = &seg
					return lit, true
				}
				return seg, true
			}
		default:
			s.pos++
		}
	}
	return s.flushLiteral(s.end)
}

// escape 处理反斜杠：\\ 成对跳过，\` 不开启行内代码，\{{% 输出不带反斜杠的分隔符
func (s *Scanner) escape() {
	next := s.pos + 1
	switch {
	case next < s.end && (s.src[next] == '\\' || s.src[next] == '`'):
		s.pos += 2
	case openerAt(s.src, next, s.end):
		s.strip(s.pos)
		s.pos = next + 3
	default:
		s.pos++
	}
}

func (s *Scanner) codeSpan() {
	n := backtickRun(s.src, s.pos, s.end)
	if end := s.spans.closing(s.pos+n, n); end >= 0 {
		s.pos = end
		return
	}
	s.pos += n
}

// marker 处理普通上下文中的开始分隔符。返回 false 表示该位置作为普通文本处理。
func (s *Scanner) marker() (Segment, bool) {
	at := s.pos
	if end, text, ok := commentEscape(s.src, at, s.end); ok {
		s.replace(at, end, text)
		s.pos = end
		return Segment{}, false
	}

	m, ok := parseMarker(s.src, at, s.end)
	if !ok {
		s.problem(types.KindUnterminatedShortcode, at, "opening delimiter %q has no closing delimiter", s.src[at:at+3])
		s.pos = at + 3
		return Segment{}, false
	}
	if m.close {
		s.problem(types.KindUnexpectedClose, at, "closing shortcode %q has no matching opening shortcode", m.name)
		s.pos = m.end
		return Segment{}, false
	}

	seg := Segment{
		Kind:        Shortcode,
		Start:       m.start,
		End:         m.end,
		Name:        m.name,
		Args:        m.args,
		ArgsStart:   m.argsStart,
		Markdown:    m.markdown,
		SelfClosing: m.selfClosing,
		argEscapes:  m.argEscapes,
	}
	if !m.selfClosing && ValidName(m.name) && s.opts.IsBlock != nil && s.opts.IsBlock(m.name) {
		bodyEnd, closeEnd, found := s.findClose(m)
		if !found {
			s.problem(types.KindUnterminatedShortcode, at, "shortcode %q has no matching %s/%s %s",
				m.name, s.src[at:at+3], m.name, closerFor(m.markdown))
			// 剩余部分全部按原文输出
			s.pos = s.end
			return Segment{}, false
		}
		seg.Block = true
		seg.BodyStart = m.end
		seg.BodyEnd = bodyEnd
		seg.End = closeEnd
	}
	s.pos = seg.End
	return seg, true
}

// findClose 从开始标记之后查找同名结束标记，同名嵌套按深度计数。
// 代码上下文中的标记不参与匹配。
func (s *Scanner) findClose(open marker) (bodyEnd, closeEnd int, ok bool) {
	depth := 1
	j := open.end
	for j < s.end {
		if atLineStart(s.src, j) {
			if c, n := fenceRun(s.src, j, s.end); n > 0 {
				j = skipFence(s.src, j, s.end, c, n)
				continue
			}
		}
		switch s.src[j] {
		case '\\':
			switch {
			case j+1 < s.end && (s.src[j+1] == '\\' || s.src[j+1] == '`'):
				j += 2
			case openerAt(s.src, j+1, s.end):
				j += 4
			default:
				j++
			}
		case '`':
			n := backtickRun(s.src, j, s.end)
			if end := s.spans.closing(j+n, n); end >= 0 {
				j = end
			} else {
				j += n
			}
		case '{':
			if !openerAt(s.src, j, s.end) {
				j++
				continue
			}
			if end, _, isComment := commentEscape(s.src, j, s.end); isComment {
				j = end
				continue
			}
			m, found := parseMarker(s.src, j, s.end)
			if !found {
				j += 3
				continue
			}
			if m.sameKind(open) {
				switch {
				case m.close:
					depth--
					if depth == 0 {
						return m.start, m.end, true
					}
				case !m.selfClosing:
					depth++
				}
			}
			j = m.end
		default:
			j++
		}
	}
	return 0, 0, false
}

func (s *Scanner) problem(kind types.Kind, offset int, format string, a ...interface{}) {
	s.problems = append(s.problems, Problem{Kind: kind, Offset: offset, Message: fmt.Sprintf(format, a...)})
}

// --- Literal 累积 ---

func (s *Scanner) resetLiteral(at int) {
	s.litStart = at
	s.copied = at
	s.lit.Reset()
	s.dirty = false
}

// strip drops the byte at offset from the literal text.
func (s *Scanner) strip(offset int) {
	s.replace(offset, offset+1, "")
}

// replace substitutes src[from:to] with text in the literal text.
func (s *Scanner) replace(from, to int, text string) {
	s.lit.WriteString(s.src[s.copied:from])
	s.lit.WriteString(text)
	s.copied = to
	s.dirty = true
}

// flushLiteral closes the current literal segment at end. ok is false when
// the segment would be empty.
func (s *Scanner) flushLiteral(end int) (Segment, bool) {
	if end <= s.litStart {
		return Segment{}, false
	}
	text := s.src[s.litStart:end]
	if s.dirty {
		text = s.lit.String() + s.src[s.copied:end]
	}
	seg := Segment{Kind: Literal, Start: s.litStart, End: end, Text: text}
	s.resetLiteral(end)
	return seg, true
}
