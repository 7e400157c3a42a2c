// Package builtin 提供内置的 shortcode 处理器
//
// 全部处理器都是纯函数：只依赖参数、body 和本次调用的 Scratch，
// 不访问文件或网络。
package builtin

import (
	"sort"

	"github.com/pkg/errors"

	shortcodes "github.com/riverfjs/shortcodes-go"
)

// Config 内置处理器配置
type Config struct {
	// Disable 不注册的内置处理器名称
	Disable    []string         `toml:"disable" json:"disable,omitempty" mapstructure:"disable"`
	Columns    ColumnsConfig    `toml:"columns" json:"columns" mapstructure:"columns"`
	Admonition AdmonitionConfig `toml:"admonition" json:"admonition" mapstructure:"admonition"`
	Figure     FigureConfig     `toml:"figure" json:"figure" mapstructure:"figure"`
}

// ColumnsConfig columns 处理器配置
type ColumnsConfig struct {
	// Separator 分栏分隔行
	Separator string `toml:"separator" json:"separator" mapstructure:"separator"`
}

// AdmonitionConfig 提示框配置
type AdmonitionConfig struct {
	// Titles 每种提示框的默认标题，键为处理器名称
	Titles map[string]string `toml:"titles" json:"titles,omitempty" mapstructure:"titles"`
}

// FigureConfig figure 处理器配置
type FigureConfig struct {
	// Label 编号前缀，如 "Figure" 生成 "Figure 1: ..."；为空时不编号
	Label string `toml:"label" json:"label" mapstructure:"label"`
}

// DefaultSeparator columns 默认分隔行
const DefaultSeparator = "+++"

var defaultTitles = map[string]string{
	"note":    "Note",
	"tip":     "Tip",
	"info":    "Info",
	"warning": "Warning",
	"danger":  "Danger",
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	titles := make(map[string]string, len(defaultTitles))
	for k, v := range defaultTitles {
		titles[k] = v
	}
	return Config{
		Columns:    ColumnsConfig{Separator: DefaultSeparator},
		Admonition: AdmonitionConfig{Titles: titles},
		Figure:     FigureConfig{Label: "Figure"},
	}
}

// Info 描述一个内置处理器
type Info struct {
	Name  string
	Block bool
	Usage string
}

type builtinDef struct {
	Info
	build func(cfg Config) shortcodes.Handler
}

func definitions() []builtinDef {
	defs := []builtinDef{
		{Info{"columns", true, "{{% columns %}}left\n+++\nright{{% /columns %}}"}, newColumns},
		{Info{"details", true, `{{% details "Summary" open=true %}}...{{% /details %}}`}, newDetails},
		{Info{"figure", false, `{{< figure src="img.png" alt="..." caption="..." >}}`}, newFigure},
		{Info{"kbd", false, "{{< kbd Ctrl C >}}"}, newKbd},
		{Info{"markdown", true, "{{< markdown >}}*text*{{< /markdown >}}"}, newMarkdown},
	}
	for kind := range defaultTitles {
		kind := kind
		defs = append(defs, builtinDef{
			Info{kind, true, `{{% ` + kind + ` "Title" %}}...{{% /` + kind + ` %}}`},
			func(cfg Config) shortcodes.Handler { return newAdmonition(kind, cfg) },
		})
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].Name < defs[j].Name })
	return defs
}

// List 返回全部内置处理器，按名称排序
func List() []Info {
	defs := definitions()
	infos := make([]Info, len(defs))
	for i, d := range defs {
		infos[i] = d.Info
	}
	return infos
}

// Register 把未被禁用的内置处理器注册到 reg
func Register(reg *shortcodes.Registry, cfg Config) error {
	if cfg.Columns.Separator == "" {
		cfg.Columns.Separator = DefaultSeparator
	}

	defs := definitions()
	known := make(map[string]bool, len(defs))
	for _, d := range defs {
		known[d.Name] = true
	}
	disabled := make(map[string]bool, len(cfg.Disable))
	for _, name := range cfg.Disable {
		if !known[name] {
			return errors.Errorf("disable: unknown built-in shortcode %q", name)
		}
		disabled[name] = true
	}

	for _, d := range defs {
		if disabled[d.Name] {
			continue
		}
		if err := reg.Register(d.Name, d.build(cfg)); err != nil {
			return errors.Wrap(err, "register built-in")
		}
	}
	return nil
}

// NewRegistry 返回注册了内置处理器的 Registry
func NewRegistry(cfg Config) (*shortcodes.Registry, error) {
	reg := shortcodes.NewRegistry()
	if err := Register(reg, cfg); err != nil {
		return nil, err
	}
	return reg, nil
}
