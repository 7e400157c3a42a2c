package mdbook

import (
	"bytes"
	"encoding"
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/ghodss/yaml"
	"github.com/mitchellh/copystructure"
	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"

	shortcodes "github.com/riverfjs/shortcodes-go"
	"github.com/riverfjs/shortcodes-go/builtin"
)

// Name 预处理器名称，对应 book.toml 中的 [preprocessor.shortcodes]
const Name = "shortcodes"

// Config 预处理器配置
//
// book.toml 示例：
//
//	[preprocessor.shortcodes]
//	renderers = ["html"]
//	disable = ["kbd"]
//
//	[preprocessor.shortcodes.policies]
//	handler-not-found = "hard"
//
//	[preprocessor.shortcodes.figure]
//	label = "Abbildung"
type Config struct {
	// 以下字段由 mdbook 自身使用，这里只是接受它们
	Command  string   `toml:"command" json:"command,omitempty" mapstructure:"command"`
	Before   []string `toml:"before" json:"before,omitempty" mapstructure:"before"`
	After    []string `toml:"after" json:"after,omitempty" mapstructure:"after"`
	Optional bool     `toml:"optional" json:"optional,omitempty" mapstructure:"optional"`

	// Renderers 支持的渲染器
	Renderers []string `toml:"renderers" json:"renderers" mapstructure:"renderers"`
	// Policies 每类错误的处理策略
	Policies shortcodes.Policies `toml:"policies" json:"policies" mapstructure:"policies"`
	// Strict 把所有可配置错误都视为 hard
	Strict bool `toml:"strict" json:"strict" mapstructure:"strict"`
	// Workers 并行处理章节的协程数，0 表示 GOMAXPROCS
	Workers int `toml:"workers" json:"workers" mapstructure:"workers"`

	Disable    []string                 `toml:"disable" json:"disable,omitempty" mapstructure:"disable"`
	Columns    builtin.ColumnsConfig    `toml:"columns" json:"columns" mapstructure:"columns"`
	Admonition builtin.AdmonitionConfig `toml:"admonition" json:"admonition" mapstructure:"admonition"`
	Figure     builtin.FigureConfig     `toml:"figure" json:"figure" mapstructure:"figure"`
}

var (
	defaultConfig     *Config
	defaultConfigOnce sync.Once
)

// DefaultConfig returns a copy of the default configuration (singleton).
func DefaultConfig() Config {
	defaultConfigOnce.Do(func() {
		b := builtin.DefaultConfig()
		defaultConfig = &Config{
			Renderers:  []string{"html"},
			Policies:   shortcodes.DefaultPolicies(),
			Columns:    b.Columns,
			Admonition: b.Admonition,
			Figure:     b.Figure,
		}
	})
	return copystructure.Must(copystructure.Copy(*defaultConfig)).(Config)
}

// Builtins 返回内置处理器配置
func (c Config) Builtins() builtin.Config {
	return builtin.Config{
		Disable:    c.Disable,
		Columns:    c.Columns,
		Admonition: c.Admonition,
		Figure:     c.Figure,
	}
}

// Options 返回 Process 选项
func (c Config) Options() []shortcodes.Option {
	if c.Strict {
		return []shortcodes.Option{shortcodes.WithStrict()}
	}
	return []shortcodes.Option{shortcodes.WithPolicies(c.Policies)}
}

// Supports 报告是否支持 renderer
func (c Config) Supports(renderer string) bool {
	for _, r := range c.Renderers {
		if r == renderer {
			return true
		}
	}
	return false
}

// LoadConfig 读取配置文件：.yaml/.yml 和 .json 按扩展名解析，其余按 TOML。
// 未出现的键保留默认值，未知的键报错。
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	switch ext := filepath.Ext(path); ext {
	case ".yaml", ".yml", ".json":
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, errors.Wrapf(err, "load config %s", path)
		}
		if ext != ".json" {
			if data, err = yaml.YAMLToJSON(data); err != nil {
				return Config{}, errors.Wrapf(err, "failed to unmarshal yaml config file %q", path)
			}
		}
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&cfg); err != nil {
			return Config{}, errors.Wrapf(err, "failed to unmarshal config file %q", path)
		}
		return cfg, nil
	}

	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, errors.Wrapf(err, "load config %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		sort.Strings(keys)
		return Config{}, errors.Errorf("load config %s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	return cfg, nil
}

// ConfigFromContext 从 context.config.preprocessor.shortcodes 读取配置
func ConfigFromContext(ctx *Context) (Config, error) {
	cfg := DefaultConfig()
	table := ctx.PreprocessorConfig(Name)
	if table == nil {
		return cfg, nil
	}
	if err := decodeOptions(table, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func decodeOptions(options map[string]interface{}, c interface{}) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		ErrorUnused: true,
		Result:      c,
		DecodeHook:  decodeStringToTextUnmarshaler,
	})
	if err != nil {
		return errors.Wrap(err, "failed to initialize mapstructure decoder")
	}
	if err := dec.Decode(options); err != nil {
		return errors.Wrapf(err, "failed to decode options into %T", c)
	}
	return nil
}

var textUnmarshalerType = reflect.TypeOf((*encoding.TextUnmarshaler)(nil)).Elem()

// decodeStringToTextUnmarshaler decodes a string into any type implementing
// encoding.TextUnmarshaler, such as shortcodes.Policy.
func decodeStringToTextUnmarshaler(f, t reflect.Type, data interface{}) (interface{}, error) {
	if f.Kind() != reflect.String {
		return data, nil
	}
	isPtr := true
	if t.Kind() != reflect.Ptr {
		isPtr = false
		t = reflect.PtrTo(t)
	}
	if !t.Implements(textUnmarshalerType) {
		return data, nil
	}
	value := reflect.New(t.Elem())
	tum := value.Interface().(encoding.TextUnmarshaler)
	if err := tum.UnmarshalText([]byte(data.(string))); err != nil {
		return nil, err
	}
	if isPtr {
		return value.Interface(), nil
	}
	return reflect.Indirect(value).Interface(), nil
}
