// Package mdbook 把 shortcodes 作为 mdbook 预处理器运行
//
// mdbook 通过 stdin 传入 JSON 数组 [context, book]，
// 预处理器把处理后的 book 以 JSON 写到 stdout。
package mdbook

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"runtime"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	shortcodes "github.com/riverfjs/shortcodes-go"
	"github.com/riverfjs/shortcodes-go/builtin"
)

// Preprocessor 用同一个 Registry 处理整本书
type Preprocessor struct {
	config   Config
	registry *shortcodes.Registry
	log      *zap.Logger
}

// New 按 cfg 创建预处理器并注册内置处理器；reg 为 nil 时新建
func New(cfg Config, reg *shortcodes.Registry) (*Preprocessor, error) {
	if reg == nil {
		reg = shortcodes.NewRegistry()
	}
	if err := builtin.Register(reg, cfg.Builtins()); err != nil {
		return nil, err
	}
	return &Preprocessor{config: cfg, registry: reg, log: Logger.With(zap.String("preprocessor", Name))}, nil
}

// Registry 返回预处理器使用的 Registry
func (p *Preprocessor) Registry() *shortcodes.Registry {
	return p.registry
}

// Supports 报告是否支持 renderer
func (p *Preprocessor) Supports(renderer string) bool {
	return p.config.Supports(renderer)
}

// chapterResult 单个章节的处理结果
type chapterResult struct {
	diagnostics int
	err         error
}

// ProcessBook 并行处理全部章节，结果原地写回。
// 任一章节触发 hard 策略时返回错误，错误指向书中第一个失败的章节，
// 此时其余章节的诊断仍会全部记录。
func (p *Preprocessor) ProcessBook(ctx context.Context, book *Book) error {
	chapters := book.Chapters()
	results := make([]chapterResult, len(chapters))
	opts := p.config.Options()

	workers := p.config.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	var total int
	for i, ch := range chapters {
		i, ch := i, ch
		total += len(ch.Content)
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := shortcodes.Process(shortcodes.Document{ID: ch.DocumentID(), Text: ch.Content}, p.registry, opts...)
			for _, d := range res.Diagnostics {
				LogDiagnostic(p.log, d)
			}
			results[i] = chapterResult{diagnostics: len(res.Diagnostics), err: err}
			if err == nil {
				ch.Content = res.Output
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	var diags int
	for i, r := range results {
		diags += r.diagnostics
		if r.err != nil {
			return errors.Wrapf(r.err, "chapter %q", chapters[i].Name)
		}
	}
	p.log.Info("processed book",
		zap.Int("chapters", len(chapters)),
		zap.String("size", humanize.Bytes(uint64(total))),
		zap.Int("diagnostics", diags),
	)
	return nil
}

// ReadInput 读取 mdbook 传入的 [context, book]
func ReadInput(r io.Reader) (*Context, *Book, error) {
	var input [2]json.RawMessage
	if err := json.NewDecoder(bufio.NewReader(r)).Decode(&input); err != nil {
		return nil, nil, errors.Wrap(err, "decode preprocessor input")
	}
	if input[0] == nil || input[1] == nil {
		return nil, nil, errors.New("decode preprocessor input: want [context, book]")
	}
	var (
		ctx  Context
		book Book
	)
	if err := json.Unmarshal(input[0], &ctx); err != nil {
		return nil, nil, errors.Wrap(err, "decode preprocessor context")
	}
	if err := json.Unmarshal(input[1], &book); err != nil {
		return nil, nil, errors.Wrap(err, "decode book")
	}
	return &ctx, &book, nil
}

// WriteBook 把 book 以 JSON 写入 w
func WriteBook(w io.Writer, book *Book) error {
	out, err := json.Marshal(book)
	if err != nil {
		return errors.Wrap(err, "encode book")
	}
	if _, err := w.Write(out); err != nil {
		return errors.Wrap(err, "write book")
	}
	return nil
}

// Run 执行一次完整的预处理：读取输入、按上下文中的配置处理、写出结果。
// reg 中已有的处理器与内置处理器一起使用。
func Run(ctx context.Context, r io.Reader, w io.Writer, reg *shortcodes.Registry) error {
	mctx, book, err := ReadInput(r)
	if err != nil {
		return err
	}
	cfg, err := ConfigFromContext(mctx)
	if err != nil {
		return err
	}
	p, err := New(cfg, reg)
	if err != nil {
		return err
	}
	if mctx.Renderer != "" && !p.Supports(mctx.Renderer) {
		p.log.Warn("renderer not supported, passing book through", zap.String("renderer", mctx.Renderer))
		return WriteBook(w, book)
	}
	if err := p.ProcessBook(ctx, book); err != nil {
		return err
	}
	return WriteBook(w, book)
}
