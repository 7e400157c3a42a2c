package mdbook

import (
	"bytes"
	"encoding/json"

	"github.com/pkg/errors"
)

// Context 是 mdbook 传给预处理器的上下文
type Context struct {
	Root          string                 `json:"root"`
	Config        map[string]interface{} `json:"config"`
	Renderer      string                 `json:"renderer"`
	MdbookVersion string                 `json:"mdbook_version"`
}

// PreprocessorConfig 返回 config.preprocessor.<name> 表，不存在时返回 nil
func (c *Context) PreprocessorConfig(name string) map[string]interface{} {
	pre, _ := c.Config["preprocessor"].(map[string]interface{})
	table, _ := pre[name].(map[string]interface{})
	return table
}

// Book mdbook 书籍结构；未识别的字段原样保留
type Book struct {
	Sections []BookItem

	extra map[string]json.RawMessage
}

func (b *Book) UnmarshalJSON(data []byte) error {
	fields, err := splitFields(data)
	if err != nil {
		return errors.Wrap(err, "book")
	}
	if raw, ok := fields["sections"]; ok {
		if err := json.Unmarshal(raw, &b.Sections); err != nil {
			return errors.Wrap(err, "book sections")
		}
		delete(fields, "sections")
	}
	b.extra = fields
	return nil
}

func (b Book) MarshalJSON() ([]byte, error) {
	sections := b.Sections
	if sections == nil {
		sections = []BookItem{}
	}
	return joinFields(b.extra, map[string]interface{}{"sections": sections})
}

// Chapters 按深度优先顺序返回全部章节
func (b *Book) Chapters() []*Chapter {
	var out []*Chapter
	var walk func(items []BookItem)
	walk = func(items []BookItem) {
		for i := range items {
			if ch := items[i].Chapter; ch != nil {
				out = append(out, ch)
				walk(ch.SubItems)
			}
		}
	}
	walk(b.Sections)
	return out
}

// ItemKind BookItem 的类别
type ItemKind int

const (
	ItemChapter ItemKind = iota
	ItemSeparator
	ItemPartTitle
)

// BookItem 是章节、分隔线或部分标题之一
type BookItem struct {
	Kind      ItemKind
	Chapter   *Chapter
	PartTitle string
}

func (it *BookItem) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s != "Separator" {
			return errors.Errorf("unknown book item %q", s)
		}
		*it = BookItem{Kind: ItemSeparator}
		return nil
	}

	var v struct {
		Chapter   *Chapter `json:"Chapter"`
		PartTitle *string  `json:"PartTitle"`
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return errors.Wrap(err, "book item")
	}
	switch {
	case v.Chapter != nil:
		*it = BookItem{Kind: ItemChapter, Chapter: v.Chapter}
	case v.PartTitle != nil:
		*it = BookItem{Kind: ItemPartTitle, PartTitle: *v.PartTitle}
	default:
		return errors.Errorf("unknown book item %s", data)
	}
	return nil
}

func (it BookItem) MarshalJSON() ([]byte, error) {
	switch it.Kind {
	case ItemSeparator:
		return []byte(`"Separator"`), nil
	case ItemPartTitle:
		return json.Marshal(map[string]string{"PartTitle": it.PartTitle})
	}
	if it.Chapter == nil {
		return nil, errors.New("chapter item without chapter")
	}
	return json.Marshal(map[string]*Chapter{"Chapter": it.Chapter})
}

// Chapter 一个章节
type Chapter struct {
	Name        string
	Content     string
	Number      []int
	SubItems    []BookItem
	Path        *string
	SourcePath  *string
	ParentNames []string

	extra map[string]json.RawMessage
}

type chapterFields struct {
	Name        string     `json:"name"`
	Content     string     `json:"content"`
	Number      []int      `json:"number"`
	SubItems    []BookItem `json:"sub_items"`
	Path        *string    `json:"path"`
	SourcePath  *string    `json:"source_path"`
	ParentNames []string   `json:"parent_names"`
}

var chapterKeys = []string{"name", "content", "number", "sub_items", "path", "source_path", "parent_names"}

func (c *Chapter) UnmarshalJSON(data []byte) error {
	var f chapterFields
	if err := json.Unmarshal(data, &f); err != nil {
		return errors.Wrap(err, "chapter")
	}
	fields, err := splitFields(data)
	if err != nil {
		return errors.Wrap(err, "chapter")
	}
	for _, k := range chapterKeys {
		delete(fields, k)
	}
	*c = Chapter{
		Name:        f.Name,
		Content:     f.Content,
		Number:      f.Number,
		SubItems:    f.SubItems,
		Path:        f.Path,
		SourcePath:  f.SourcePath,
		ParentNames: f.ParentNames,
		extra:       fields,
	}
	return nil
}

func (c Chapter) MarshalJSON() ([]byte, error) {
	f := chapterFields{
		Name:        c.Name,
		Content:     c.Content,
		Number:      c.Number,
		SubItems:    c.SubItems,
		Path:        c.Path,
		SourcePath:  c.SourcePath,
		ParentNames: c.ParentNames,
	}
	if f.SubItems == nil {
		f.SubItems = []BookItem{}
	}
	if f.ParentNames == nil {
		f.ParentNames = []string{}
	}
	raw, err := json.Marshal(f)
	if err != nil {
		return nil, err
	}
	known, err := splitFields(raw)
	if err != nil {
		return nil, err
	}
	return joinFields(c.extra, known)
}

// DocumentID 诊断中使用的章节标识：source_path，其次 path，最后章节名
func (c *Chapter) DocumentID() string {
	if c.SourcePath != nil && *c.SourcePath != "" {
		return *c.SourcePath
	}
	if c.Path != nil && *c.Path != "" {
		return *c.Path
	}
	return c.Name
}

// IsDraft 草稿章节没有 path
func (c *Chapter) IsDraft() bool {
	return c.Path == nil
}

func splitFields(data []byte) (map[string]json.RawMessage, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, err
	}
	if fields == nil {
		return nil, errors.New("expected a JSON object")
	}
	return fields, nil
}

// joinFields 合并保留字段和已知字段；encoding/json 对 map 按键排序，输出稳定
func joinFields(extra map[string]json.RawMessage, known interface{}) ([]byte, error) {
	out := make(map[string]interface{}, len(extra)+len(chapterKeys))
	for k, v := range extra {
		out[k] = v
	}
	switch m := known.(type) {
	case map[string]json.RawMessage:
		for k, v := range m {
			out[k] = v
		}
	case map[string]interface{}:
		for k, v := range m {
			out[k] = v
		}
	}
	return json.Marshal(out)
}
