package scan

import "github.com/riverfjs/shortcodes-go/internal/types"

// SegmentKind 片段类型
type SegmentKind int

const (
	// Literal 原样输出的文本
	Literal SegmentKind = iota
	// Shortcode 需要替换的 shortcode 调用
	Shortcode
)

func (k SegmentKind) String() string {
	if k == Shortcode {
		return "shortcode"
	}
	return "literal"
}

// Segment 文档中的一段连续区间，字节偏移均相对于整个文档
type Segment struct {
	Kind  SegmentKind
	Start int // 源文本起始位置（字节）
	End   int // 源文本结束位置（字节，不含）

	// Text 是 Literal 片段输出的文本，已去掉转义字符
	Text string

	Name      string // shortcode 名称，未校验
	Args      string // 名称之后、结束分隔符之前的原始参数文本
	ArgsStart int    // Args 在文档中的起始位置
	Markdown  bool   // {{% %}} 风格为 true，{{< >}} 风格为 false

	// 块级 shortcode 的 body 区间；Block 为 false 时无意义
	Block       bool
	BodyStart   int
	BodyEnd     int
	SelfClosing bool

	// args 中被去掉的转义反斜杠位置，见 ArgOffset
	argEscapes []int
}

// ArgOffset maps an offset into Args to a document offset, accounting for
// the backslashes removed from \%}} escapes.
func (s Segment) ArgOffset(i int) int {
	n := 0
	for _, r := range s.argEscapes {
		if r <= i {
			n++
		}
	}
	return s.ArgsStart + i + n
}

// Raw returns the source text the segment covers.
func (s Segment) Raw(src string) string {
	return src[s.Start:s.End]
}

// Body returns the unprocessed body text of a block shortcode.
func (s Segment) Body(src string) string {
	if !s.Block {
		return ""
	}
	return src[s.BodyStart:s.BodyEnd]
}

// Problem 扫描过程中发现的问题
type Problem struct {
	Kind    types.Kind
	Offset  int
	Message string
}
