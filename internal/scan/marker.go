package scan

import "strings"

const escapeChar = '\\'

// marker 一个已识别的 {{% ... %}} 或 {{< ... >}} 标记
type marker struct {
	start, end  int
	markdown    bool
	close       bool
	selfClosing bool
	name        string
	args        string
	argsStart   int
	// escapes 去掉 \%}} 中反斜杠后，对应位置在 body 中的偏移（升序）
	escapes []int
	// argEscapes 同上，相对 args，只含 argsStart 之后的
	argEscapes []int
}

func (m marker) sameKind(o marker) bool {
	return m.name == o.name && m.markdown == o.markdown
}

// openerAt reports whether an opening delimiter starts at pos.
func openerAt(src string, pos, limit int) bool {
	return pos+3 <= limit && src[pos] == '{' && src[pos+1] == '{' && (src[pos+2] == '%' || src[pos+2] == '<')
}

func closerFor(markdown bool) string {
	if markdown {
		return "%}}"
	}
	return ">}}"
}

// commentEscape recognizes {{%/* ... */%}} at pos and returns its end and the
// literal text it stands for.
func commentEscape(src string, pos, limit int) (int, string, bool) {
	if !strings.HasPrefix(src[pos+3:limit], "/*") {
		return 0, "", false
	}
	markdown := src[pos+2] == '%'
	closing := "*/" + closerFor(markdown)
	i := strings.Index(src[pos+5:limit], closing)
	if i < 0 {
		return 0, "", false
	}
	inner := src[pos+5 : pos+5+i]
	end := pos + 5 + i + len(closing)
	return end, src[pos:pos+3] + inner + closerFor(markdown), true
}

// findCloser returns the offset of the closing delimiter for the marker
// opened at pos and the offsets of the backslashes dropped by \%}} escapes.
// With quotes set, closers inside "..." or '...' do not end the marker.
func findCloser(src string, pos, limit int, closer string, quotes bool) (int, []int, bool) {
	var (
		escapes []int
		quote   byte
	)
	j := pos + 3
	for j < limit {
		switch {
		case src[j] == escapeChar && strings.HasPrefix(src[j+1:limit], closer):
			escapes = append(escapes, j)
			j += 1 + len(closer)
		case quote != 0 && src[j] == escapeChar && j+1 < limit:
			j += 2
		case quote != 0 && src[j] == quote:
			quote = 0
			j++
		case quote == 0 && strings.HasPrefix(src[j:limit], closer):
			return j, escapes, true
		case openerAt(src, j, limit):
			return 0, nil, false
		case quotes && quote == 0 && (src[j] == '"' || src[j] == '\''):
			quote = src[j]
			j++
		default:
			j++
		}
	}
	return 0, nil, false
}

// parseMarker parses the marker whose opening delimiter starts at pos.
// ok is false when no closing delimiter precedes the next opening delimiter
// or limit. An unbalanced quote falls back to the first closer so the
// argument parser can report it.
func parseMarker(src string, pos, limit int) (marker, bool) {
	m := marker{start: pos, markdown: src[pos+2] == '%'}
	closer := closerFor(m.markdown)

	j, escapes, ok := findCloser(src, pos, limit, closer, true)
	if !ok {
		if j, escapes, ok = findCloser(src, pos, limit, closer, false); !ok {
			return m, false
		}
	}
	m.end = j + len(closer)

	body := src[pos+3 : j]
	if len(escapes) > 0 {
		var b strings.Builder
		copied := pos + 3
		for i, e := range escapes {
			b.WriteString(src[copied:e])
			copied = e + 1
			// 去掉反斜杠后在 body 中的位置
			m.escapes = append(m.escapes, e-(pos+3)-i)
		}
		b.WriteString(src[copied:j])
		body = b.String()
	}

	// 自闭合：结束分隔符前紧挨着 '/'
	if trimmed, ok := strings.CutSuffix(body, "/"); ok && strings.TrimSpace(trimmed) != "" {
		if isSpace(trimmed[len(trimmed)-1]) || len(strings.Fields(trimmed)) == 1 {
			m.selfClosing = true
			body = trimmed
		}
	}

	lead := 0
	for lead < len(body) && isSpace(body[lead]) {
		lead++
	}
	rest := body[lead:]
	if strings.HasPrefix(rest, "/") {
		m.close = true
		lead++
		rest = rest[1:]
		for lead < len(body) && isSpace(body[lead]) {
			lead++
			rest = rest[1:]
		}
	}
	nameLen := 0
	for nameLen < len(rest) && !isSpace(rest[nameLen]) {
		nameLen++
	}
	m.name = rest[:nameLen]
	m.args = rest[nameLen:]
	m.argsStart = m.sourceOffset(lead + nameLen)
	for _, e := range m.escapes {
		if r := e - (lead + nameLen); r > 0 {
			m.argEscapes = append(m.argEscapes, r)
		}
	}
	return m, true
}

// sourceOffset maps an offset into the escape-stripped body back to the
// document.
func (m marker) sourceOffset(i int) int {
	n := 0
	for _, e := range m.escapes {
		if e <= i {
			n++
		}
	}
	return m.start + 3 + i + n
}

// ValidName reports whether s is a valid shortcode name: an identifier with
// optional internal '/' separated path segments.
func ValidName(s string) bool {
	if s == "" || s[0] == '/' || s[len(s)-1] == '/' {
		return false
	}
	segStart := true
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '/':
			if segStart {
				return false
			}
			segStart = true
			continue
		case isLetter(c) || c == '_':
		case !segStart && (isDigit(c) || c == '-' || c == '.'):
		default:
			return false
		}
		segStart = false
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
