// Package shortcodes 在 markdown 文档中展开 shortcode 标记
//
// shortcode 是嵌入 markdown 的紧凑指令，形如 {{% name args %}} 或
// {{< name args >}}，块级形式以 {{% /name %}} 结束并把中间的内容作为 body
// 交给处理器。本包只处理字符串：扫描文档、解析参数、在 Registry 中查找处理器、
// 调用处理器并拼接结果。它不读写文件，也不向任何输出流写日志，所有问题都以
// Diagnostic 的形式返回。
//
// 核心保证：
//   - 围栏代码块和行内代码中的分隔符永远不会被当作 shortcode
//   - 处理器的输出按原样插入，不会再次扫描（单遍替换）
//   - 相同的输入和 Registry 总是得到逐字节相同的输出和诊断
//   - 没有 shortcode 的文档原样返回
//
// 示例：
//
//	reg := shortcodes.NewRegistry()
//	_ = reg.Register("note", shortcodes.BlockFunc(func(inv *shortcodes.Invocation) (string, error) {
//	    return "> NOTE: " + inv.Body, nil
//	}))
//
//	res, err := shortcodes.Process(shortcodes.Document{ID: "intro.md", Text: text}, reg)
//	if err != nil {
//	    // 文档失败，res.Diagnostics 包含全部诊断
//	}
//	for _, d := range res.Diagnostics {
//	    log.Println(d)
//	}
//	fmt.Print(res.Output)
package shortcodes

import (
	"sort"
)

// Process 展开 doc 中的全部 shortcode
//
// 参数：
//   - doc: 文档内容及其标识（标识仅用于诊断）
//   - reg: 处理器注册表，nil 视为空注册表；首次使用后被封存，不能再注册
//   - opts: 错误处理策略等选项
//
// 返回：
//   - *Result: 输出文本和按位置排序的全部诊断
//   - error: 有诊断触发 Hard 策略时返回 *ProcessError，此时 Result.Output 为空
func Process(doc Document, reg *Registry, opts ...Option) (*Result, error) {
	options := applyOptions(opts...)
	if reg == nil {
		reg = NewRegistry()
	}
	reg.seal()

	e := newEngine(doc, reg, options)
	output := e.expand(0, len(doc.Text), nil)

	sort.SliceStable(e.diags, func(i, j int) bool {
		return e.diags[i].Offset < e.diags[j].Offset
	})
	res := &Result{DocumentID: doc.ID, Diagnostics: e.diags}
	if e.failed {
		return res, &ProcessError{DocumentID: doc.ID, Diagnostics: e.diags}
	}
	res.Output = output
	return res, nil
}

// ProcessString is Process for an anonymous document.
func ProcessString(text string, reg *Registry, opts ...Option) (string, []Diagnostic, error) {
	res, err := Process(Document{Text: text}, reg, opts...)
	return res.Output, res.Diagnostics, err
}
