package builtin

import (
	"fmt"
	"html"
	"strings"

	"github.com/pkg/errors"

	shortcodes "github.com/riverfjs/shortcodes-go"
	"github.com/riverfjs/shortcodes-go/internal/markdown"
)

// columns 按分隔行把 body 切成多栏。
// 每个 HTML 标签前后都留空行，下游渲染器才会继续按 markdown 解析栏内内容。
func newColumns(cfg Config) shortcodes.Handler {
	sep := cfg.Columns.Separator
	return shortcodes.BlockFunc(func(inv *shortcodes.Invocation) (string, error) {
		var b strings.Builder
		b.WriteString(`<div class="columns">` + "\n\n")
		for _, col := range splitColumns(inv.Body, sep) {
			b.WriteString(`<div class="column">` + "\n\n")
			if col = strings.Trim(col, "\r\n"); col != "" {
				b.WriteString(col)
				b.WriteString("\n\n")
			}
			b.WriteString("</div>\n\n")
		}
		b.WriteString("</div>")
		return b.String(), nil
	})
}

// splitColumns 在分隔行处切分，围栏代码块内的分隔行不算
func splitColumns(body, sep string) []string {
	var (
		cols  []string
		cur   strings.Builder
		fence string
	)
	for _, line := range strings.SplitAfter(body, "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case fence != "":
			if strings.HasPrefix(trimmed, fence) && strings.Trim(trimmed, fence[:1]) == "" {
				fence = ""
			}
		case strings.HasPrefix(trimmed, "```") || strings.HasPrefix(trimmed, "~~~"):
			fence = trimmed[:3]
		case trimmed == sep:
			cols = append(cols, cur.String())
			cur.Reset()
			continue
		}
		cur.WriteString(line)
	}
	return append(cols, cur.String())
}

// admonition 提示框：note、tip、info、warning、danger
func newAdmonition(kind string, cfg Config) shortcodes.Handler {
	def := cfg.Admonition.Titles[kind]
	if def == "" {
		def = defaultTitles[kind]
	}
	return shortcodes.BlockFunc(func(inv *shortcodes.Invocation) (string, error) {
		title := inv.GetOr("title", 0, def)
		var b strings.Builder
		fmt.Fprintf(&b, "<div class=\"admonition %s\">\n", kind)
		if title != "" {
			fmt.Fprintf(&b, "<p class=\"admonition-title\">%s</p>\n", html.EscapeString(title))
		}
		writeBody(&b, inv.Body)
		b.WriteString("</div>")
		return b.String(), nil
	})
}

func newDetails(Config) shortcodes.Handler {
	return shortcodes.BlockFunc(func(inv *shortcodes.Invocation) (string, error) {
		open, err := inv.Bool("open", false)
		if err != nil {
			return "", err
		}
		summary := inv.GetOr("summary", 0, "Details")

		var b strings.Builder
		b.WriteString("<details")
		if open {
			b.WriteString(" open")
		}
		fmt.Fprintf(&b, ">\n<summary>%s</summary>\n", html.EscapeString(summary))
		writeBody(&b, inv.Body)
		b.WriteString("</details>")
		return b.String(), nil
	})
}

// writeBody 写入被空行包围的 body
func writeBody(b *strings.Builder, body string) {
	b.WriteString("\n")
	if body = strings.Trim(body, "\r\n"); body != "" {
		b.WriteString(body)
		b.WriteString("\n\n")
	}
}

// figure 图片加可选标题；标题按文档顺序编号
func newFigure(cfg Config) shortcodes.Handler {
	label := cfg.Figure.Label
	return shortcodes.HandlerFunc(func(inv *shortcodes.Invocation) (string, error) {
		src := inv.GetOr("src", 0, "")
		if src == "" {
			return "", errors.New("figure: missing src")
		}
		alt := inv.GetOr("alt", 1, "")
		caption := inv.Get("caption")
		noNumber, err := inv.Bool("nonumber", false)
		if err != nil {
			return "", err
		}

		var b strings.Builder
		b.WriteString("<figure")
		if id := inv.Get("id"); id != "" {
			fmt.Fprintf(&b, " id=\"%s\"", html.EscapeString(id))
		}
		fmt.Fprintf(&b, "><img src=\"%s\" alt=\"%s\">", html.EscapeString(src), html.EscapeString(alt))

		prefix := ""
		if label != "" && !noNumber {
			prefix = fmt.Sprintf("%s %d", label, inv.Scratch().Next("figure"))
		}
		switch {
		case prefix != "" && caption != "":
			fmt.Fprintf(&b, "<figcaption>%s: %s</figcaption>", html.EscapeString(prefix), html.EscapeString(caption))
		case prefix != "":
			fmt.Fprintf(&b, "<figcaption>%s</figcaption>", html.EscapeString(prefix))
		case caption != "":
			fmt.Fprintf(&b, "<figcaption>%s</figcaption>", html.EscapeString(caption))
		}
		b.WriteString("</figure>")
		return b.String(), nil
	})
}

// markdown 用 goldmark 把 body 渲染为 HTML
func newMarkdown(Config) shortcodes.Handler {
	return shortcodes.BlockFunc(func(inv *shortcodes.Invocation) (string, error) {
		inline, err := inv.Bool("inline", false)
		if err != nil {
			return "", err
		}
		if inline {
			return markdown.RenderInline(inv.Body)
		}
		out, err := markdown.Render(inv.Body)
		if err != nil {
			return "", err
		}
		return strings.TrimRight(out, "\n"), nil
	})
}

// kbd 键盘按键：{{< kbd Ctrl Shift P >}}
func newKbd(Config) shortcodes.Handler {
	return shortcodes.HandlerFunc(func(inv *shortcodes.Invocation) (string, error) {
		if len(inv.Positional) == 0 {
			return "", errors.New("kbd: no keys given")
		}
		keys := make([]string, len(inv.Positional))
		for i, k := range inv.Positional {
			keys[i] = "<kbd>" + html.EscapeString(k) + "</kbd>"
		}
		return strings.Join(keys, "+"), nil
	})
}
