package shortcodes

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/riverfjs/shortcodes-go/internal/args"
	"github.com/riverfjs/shortcodes-go/internal/scan"
)

// engine 一次 Process 调用的全部状态；不在调用之间共享
type engine struct {
	doc     Document
	reg     *Registry
	opts    *Options
	loc     *scan.Locator
	scratch *Scratch

	diags  []Diagnostic
	failed bool
}

func newEngine(doc Document, reg *Registry, opts *Options) *engine {
	return &engine{
		doc:     doc,
		reg:     reg,
		opts:    opts,
		loc:     scan.NewLocator(doc.Text),
		scratch: newScratch(),
	}
}

// expand 替换 [start, end) 区间内的 shortcode。
//
// 步骤：
//  1. 扫描区间，一次性得到全部 Segment
//  2. Literal 原样写入
//  3. Shortcode 解析参数、查找处理器；块级 shortcode 先递归展开 body
//  4. 处理器输出直接写入，不再扫描
func (e *engine) expand(start, end int, parent *Invocation) string {
	sc := scan.NewRange(e.doc.Text, start, end, scan.Options{IsBlock: e.reg.IsBlock})
	segments := sc.All()
	for _, p := range sc.Problems() {
		e.report(p.Kind, p.Offset, "%s", p.Message)
	}

	var b strings.Builder
	b.Grow(end - start)
	ordinal := 0
	for _, seg := range segments {
		if seg.Kind == scan.Literal {
			b.WriteString(seg.Text)
			continue
		}
		b.WriteString(e.render(seg, parent, ordinal))
		ordinal++
	}
	return b.String()
}

// render 处理单个 shortcode，失败时返回原始标记文本
func (e *engine) render(seg scan.Segment, parent *Invocation, ordinal int) string {
	raw := seg.Raw(e.doc.Text)
	if !scan.ValidName(seg.Name) {
		if seg.Name == "" {
			e.report(KindMalformedArguments, seg.Start, "shortcode has no name")
		} else {
			e.report(KindMalformedArguments, seg.Start, "invalid shortcode name %q", seg.Name)
		}
		return raw
	}

	parsed, err := args.Parse(seg.Args)
	if err != nil {
		offset := seg.ArgsStart
		msg := err.Error()
		var se *args.SyntaxError
		if errors.As(err, &se) {
			offset = seg.ArgOffset(se.Offset)
			msg = se.Msg
		}
		e.report(KindMalformedArguments, offset, "shortcode %q: %s", seg.Name, msg)
		return raw
	}

	h, ok := e.reg.Lookup(seg.Name)
	if !ok {
		e.report(KindHandlerNotFound, seg.Start, "no handler registered for shortcode %q", seg.Name)
		return raw
	}

	line, col := e.loc.Position(seg.Start)
	inv := &Invocation{
		Name:       seg.Name,
		Positional: parsed.Positional,
		Named:      parsed.Named,
		Keys:       parsed.Keys,
		Block:      seg.Block,
		Markdown:   seg.Markdown,
		Parent:     parent,
		Ordinal:    ordinal,
		DocumentID: e.doc.ID,
		Line:       line,
		Column:     col,
		scratch:    e.scratch,
	}
	if seg.Block {
		inv.Body = e.expand(seg.BodyStart, seg.BodyEnd, inv)
	}

	out, err := invoke(h, inv)
	if err != nil {
		e.report(KindHandlerExecutionFailure, seg.Start, "shortcode %q: %v", seg.Name, err)
		return raw
	}
	return out
}

// invoke calls the handler, turning a panic into an error.
func invoke(h Handler, inv *Invocation) (out string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("handler panicked: %v", r)
		}
	}()
	return h.Render(inv)
}

func (e *engine) report(kind Kind, offset int, format string, a ...interface{}) {
	severity := SeverityWarning
	if e.opts.Policies.For(kind) == PolicyHard {
		severity = SeverityError
		e.failed = true
	}
	line, col := e.loc.Position(offset)
	e.diags = append(e.diags, Diagnostic{
		Kind:       kind,
		Severity:   severity,
		Message:    fmt.Sprintf(format, a...),
		DocumentID: e.doc.ID,
		Line:       line,
		Column:     col,
		Offset:     offset,
	})
}
