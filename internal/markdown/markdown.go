// Package markdown 把 shortcode body 渲染为 HTML
package markdown

import (
	"bytes"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
)

// StandardOptions goldmark 扩展配置
var StandardOptions = []goldmark.Option{
	goldmark.WithExtensions(
		extension.GFM,            // GitHub Flavored Markdown (tables, strikethrough, tasklists)
		extension.DefinitionList, // 定义列表
		extension.Footnote,       // 脚注
	),
	goldmark.WithParserOptions(
		parser.WithAutoHeadingID(), // 自动生成标题 ID
	),
	goldmark.WithRendererOptions(
		html.WithUnsafe(), // body 中的原始 HTML（通常来自内层 shortcode）原样保留
	),
}

var (
	mdOnce sync.Once
	md     goldmark.Markdown
)

// converter 返回共享的 goldmark 实例；goldmark.Markdown 可并发使用
func converter() goldmark.Markdown {
	mdOnce.Do(func() {
		md = goldmark.New(StandardOptions...)
	})
	return md
}

// Render 把 markdown 渲染为 HTML
func Render(source string) (string, error) {
	var buf bytes.Buffer
	if err := converter().Convert([]byte(source), &buf); err != nil {
		return "", errors.Wrap(err, "render markdown")
	}
	return buf.String(), nil
}

// RenderInline 渲染单段文本并去掉外层 <p>，用于标题等行内位置。
// 内容不止一个段落时返回完整 HTML。
func RenderInline(source string) (string, error) {
	doc := ParseAST(source)
	if doc.ChildCount() != 1 || doc.FirstChild().Kind() != ast.KindParagraph {
		return Render(source)
	}
	out, err := Render(source)
	if err != nil {
		return "", err
	}
	out = strings.TrimSuffix(strings.TrimSpace(out), "</p>")
	return strings.TrimPrefix(out, "<p>"), nil
}

// ParseAST 仅解析为 AST，不渲染
func ParseAST(source string) ast.Node {
	reader := text.NewReader([]byte(source))
	return converter().Parser().Parse(reader)
}
