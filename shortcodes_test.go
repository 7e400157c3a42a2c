package shortcodes

import (
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestRegistry 注册测试用的处理器
func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	reg := NewRegistry()
	require.NoError(t, reg.Register("note", BlockFunc(func(inv *Invocation) (string, error) {
		return "> NOTE: " + inv.Body, nil
	})))
	require.NoError(t, reg.Register("upper", BlockFunc(func(inv *Invocation) (string, error) {
		return strings.ToUpper(inv.Body), nil
	})))
	require.NoError(t, reg.Register("echo", HandlerFunc(func(inv *Invocation) (string, error) {
		parts := append([]string(nil), inv.Positional...)
		for _, k := range inv.Keys {
			parts = append(parts, k+"="+inv.Named[k])
		}
		return "[" + strings.Join(parts, ",") + "]", nil
	})))
	require.NoError(t, reg.Register("fig", HandlerFunc(func(inv *Invocation) (string, error) {
		return fmt.Sprintf("Figure %d", inv.Scratch().Next("fig")), nil
	})))
	require.NoError(t, reg.Register("fail", HandlerFunc(func(inv *Invocation) (string, error) {
		return "", errors.New("boom")
	})))
	require.NoError(t, reg.Register("panic", HandlerFunc(func(inv *Invocation) (string, error) {
		panic("oops")
	})))
	require.NoError(t, reg.Register("trap", HandlerFunc(func(inv *Invocation) (string, error) {
		return "{{% echo nested %}}", nil
	})))
	return reg
}

func TestProcess_RoundTrip(t *testing.T) {
	docs := []string{
		"",
		"# Title\n\nplain text with {braces} and {{ go templates }}\n",
		"tabs\tand\r\nCRLF\r\n",
		"unicode 你好 🌟",
	}
	for _, doc := range docs {
		out, diags, err := ProcessString(doc, NewRegistry())
		require.NoError(t, err)
		assert.Equal(t, doc, out)
		assert.Empty(t, diags)
	}
}

func TestProcess_Substitution(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "block handler",
			in:   "x {{% note %}}hello{{% /note %}} y",
			want: "x > NOTE: hello y",
		},
		{
			name: "angle delimiters",
			in:   "x {{< note >}}hello{{< /note >}} y",
			want: "x > NOTE: hello y",
		},
		{
			name: "arguments",
			in:   `{{% echo key1=value1 "quoted val" key2='another one' %}}`,
			want: "[quoted val,key1=value1,key2=another one]",
		},
		{
			name: "no arguments",
			in:   "a{{% echo %}}b",
			want: "a[]b",
		},
		{
			name: "nested shortcodes expand inside body",
			in:   "{{% upper %}}a {{% echo b %}} c{{% /upper %}}",
			want: "A [B] C",
		},
		{
			name: "nested same name",
			in:   "{{% upper %}}a{{% upper %}}b{{% /upper %}}c{{% /upper %}}",
			want: "ABC",
		},
		{
			name: "handler output is not rescanned",
			in:   "{{% trap %}}",
			want: "{{% echo nested %}}",
		},
		{
			name: "code fence untouched",
			in:   "```\n{{% echo x %}}\n```\n{{% echo y %}}",
			want: "```\n{{% echo x %}}\n```\n[y]",
		},
		{
			name: "inline code untouched",
			in:   "`{{% echo x %}}` {{% echo y %}}",
			want: "`{{% echo x %}}` [y]",
		},
		{
			name: "escaped marker",
			in:   `\{{% echo x %}}`,
			want: "{{% echo x %}}",
		},
		{
			name: "self closing block",
			in:   "{{% note /%}}!",
			want: "> NOTE: !",
		},
		{
			name: "stateful counter per call",
			in:   "{{% fig %}}, {{% fig %}}",
			want: "Figure 1, Figure 2",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, diags, err := ProcessString(tt.in, newTestRegistry(t))
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
			assert.Empty(t, diags)
		})
	}
}

func TestProcess_CodeContextPrecedence(t *testing.T) {
	doc := "```\n{{% foo %}}\n```"
	out, diags, err := ProcessString(doc, NewRegistry())
	require.NoError(t, err)
	assert.Equal(t, doc, out)
	assert.Empty(t, diags)
}

func TestProcess_Unterminated(t *testing.T) {
	out, diags, err := ProcessString("before {{% foo", NewRegistry())
	require.NoError(t, err)
	assert.Equal(t, "before {{% foo", out)
	require.Len(t, diags, 1)
	assert.Equal(t, KindUnterminatedShortcode, diags[0].Kind)
	assert.Equal(t, SeverityWarning, diags[0].Severity)
	assert.Equal(t, 1, diags[0].Line)
	assert.Equal(t, 8, diags[0].Column)
}

func TestProcess_UnterminatedBlockKeepsRemainder(t *testing.T) {
	in := "a {{% note %}}body {{% echo x %}} tail"
	out, diags, err := ProcessString(in, newTestRegistry(t))
	require.NoError(t, err)
	assert.Equal(t, in, out)
	require.Len(t, diags, 1)
	assert.Equal(t, KindUnterminatedShortcode, diags[0].Kind)
}

func TestProcess_UnknownHandlerFailSoft(t *testing.T) {
	out, diags, err := ProcessString("{{% missing %}}", NewRegistry())
	require.NoError(t, err)
	assert.Equal(t, "{{% missing %}}", out)
	require.Len(t, diags, 1)
	assert.Equal(t, KindHandlerNotFound, diags[0].Kind)
}

func TestProcess_MalformedArgumentsFailSoft(t *testing.T) {
	in := "line1\n{{% echo \"open %}} after"
	out, diags, err := ProcessString(in, newTestRegistry(t))
	require.NoError(t, err)
	assert.Equal(t, in, out)
	require.Len(t, diags, 1)
	d := diags[0]
	assert.Equal(t, KindMalformedArguments, d.Kind)
	assert.Equal(t, 2, d.Line)
	assert.Equal(t, strings.Index(in, `"`), d.Offset)
}

func TestProcess_MalformedArgumentsOffsetAfterEscape(t *testing.T) {
	in := "line1\n{{% echo a\\%}}b \"open %}}"
	_, diags, err := ProcessString(in, newTestRegistry(t))
	require.NoError(t, err)
	require.Len(t, diags, 1)
	d := diags[0]
	assert.Equal(t, KindMalformedArguments, d.Kind)
	assert.Equal(t, strings.Index(in, `"`), d.Offset)
	assert.Equal(t, 2, d.Line)
	assert.Equal(t, strings.Index(in, `"`)-strings.Index(in, "{{%")+1, d.Column)
}

func TestProcess_CloserInsideQuotedArgument(t *testing.T) {
	out, diags, err := ProcessString(`{{% echo caption="a %}} b" %}}`, newTestRegistry(t))
	require.NoError(t, err)
	assert.Empty(t, diags)
	assert.Equal(t, "[caption=a %}} b]", out)
}

func TestProcess_CodeSpanDoesNotCrossBlocks(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "a `x\n```\nz\n```\n{{% echo %}} `\n", want: "a `x\n```\nz\n```\n[] `\n"},
		{in: "# a `b\n{{% echo %}} `\n", want: "# a `b\n[] `\n"},
	}
	for _, tt := range tests {
		out, diags, err := ProcessString(tt.in, newTestRegistry(t))
		require.NoError(t, err)
		assert.Empty(t, diags)
		assert.Equal(t, tt.want, out, "input %q", tt.in)
	}
}

func TestProcess_MissingName(t *testing.T) {
	out, diags, err := ProcessString("a {{%  %}} b", newTestRegistry(t))
	require.NoError(t, err)
	assert.Equal(t, "a {{%  %}} b", out)
	require.Len(t, diags, 1)
	assert.Equal(t, KindMalformedArguments, diags[0].Kind)
}

func TestProcess_DuplicateKey(t *testing.T) {
	_, diags, err := ProcessString("{{% echo a=1 a=2 %}}", newTestRegistry(t))
	require.NoError(t, err)
	require.Len(t, diags, 1)
	assert.Equal(t, KindMalformedArguments, diags[0].Kind)
	assert.Contains(t, diags[0].Message, "duplicate")
}

func TestProcess_HandlerFailureIsHardByDefault(t *testing.T) {
	res, err := Process(Document{ID: "ch1.md", Text: "ok {{% echo x %}} {{% fail %}} {{% missing %}}"}, newTestRegistry(t))
	require.Error(t, err)

	var pe *ProcessError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "ch1.md", pe.DocumentID)
	assert.Empty(t, res.Output)
	assert.True(t, res.HasErrors())
	// 全部诊断一起返回，而不只是第一个
	require.Len(t, res.Diagnostics, 2)
	assert.Equal(t, KindHandlerExecutionFailure, res.Diagnostics[0].Kind)
	assert.Equal(t, SeverityError, res.Diagnostics[0].Severity)
	assert.Equal(t, KindHandlerNotFound, res.Diagnostics[1].Kind)
	assert.Contains(t, err.Error(), "ch1.md")
	assert.Contains(t, err.Error(), "boom")
}

func TestProcess_HandlerFailureDowngraded(t *testing.T) {
	in := "{{% fail a %}} and {{% panic %}}"
	out, diags, err := ProcessString(in, newTestRegistry(t), WithPolicy(KindHandlerExecutionFailure, PolicySoft))
	require.NoError(t, err)
	assert.Equal(t, in, out)
	require.Len(t, diags, 2)
	assert.Equal(t, KindHandlerExecutionFailure, diags[0].Kind)
	assert.Contains(t, diags[1].Message, "panicked")
}

func TestProcess_StrictPolicies(t *testing.T) {
	tests := []struct {
		name string
		in   string
		kind Kind
	}{
		{name: "not found", in: "{{% missing %}}", kind: KindHandlerNotFound},
		{name: "malformed", in: `{{% echo 'x %}}`, kind: KindMalformedArguments},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Process(Document{Text: tt.in}, newTestRegistry(t), WithStrict())
			require.Error(t, err)
			assert.Empty(t, res.Output)
			require.Len(t, res.Diagnostics, 1)
			assert.Equal(t, tt.kind, res.Diagnostics[0].Kind)
			assert.Equal(t, SeverityError, res.Diagnostics[0].Severity)
		})
	}
}

func TestProcess_UnterminatedIsAlwaysSoft(t *testing.T) {
	out, diags, err := ProcessString("x {{% echo", newTestRegistry(t), WithStrict())
	require.NoError(t, err)
	assert.Equal(t, "x {{% echo", out)
	require.Len(t, diags, 1)
}

func TestProcess_NestedDiagnosticsInDocumentOrder(t *testing.T) {
	in := "{{% missing1 %}}\n{{% upper %}}\n{{% missing2 %}}\n{{% /upper %}}\n{{% missing3 %}}"
	res, err := Process(Document{ID: "doc", Text: in}, newTestRegistry(t))
	require.NoError(t, err)
	var lines []int
	for _, d := range res.Diagnostics {
		assert.Equal(t, "doc", d.DocumentID)
		lines = append(lines, d.Line)
	}
	assert.Equal(t, []int{1, 3, 5}, lines)
	assert.Equal(t, 3, res.Count(KindHandlerNotFound))
}

func TestProcess_InvocationContext(t *testing.T) {
	var seen []*Invocation
	reg := NewRegistry()
	require.NoError(t, reg.Register("outer", BlockFunc(func(inv *Invocation) (string, error) {
		seen = append(seen, inv)
		return inv.Body, nil
	})))
	require.NoError(t, reg.Register("inner", HandlerFunc(func(inv *Invocation) (string, error) {
		seen = append(seen, inv)
		return "", nil
	})))

	_, _, err := ProcessString("x\n  {{< outer a=1 >}}{{< inner >}}{{< inner >}}{{< /outer >}}", reg)
	require.NoError(t, err)
	require.Len(t, seen, 3)

	inner0, inner1, outer := seen[0], seen[1], seen[2]
	assert.Equal(t, "outer", outer.Name)
	assert.True(t, outer.Block)
	assert.False(t, outer.Markdown)
	assert.Equal(t, 2, outer.Line)
	assert.Equal(t, 3, outer.Column)
	assert.Nil(t, outer.Parent)
	assert.Same(t, outer, inner0.Parent)
	assert.Equal(t, 0, inner0.Ordinal)
	assert.Equal(t, 1, inner1.Ordinal)
	assert.Equal(t, "1", outer.Get("a"))
}

func TestProcess_Deterministic(t *testing.T) {
	reg := newTestRegistry(t)
	in := "{{% fig %}} {{% missing %}} {{% note %}}{{% fig %}}{{% /note %}} {{% echo 'x %}} {{% fig"
	res1, err1 := Process(Document{ID: "a", Text: in}, reg)
	res2, err2 := Process(Document{ID: "a", Text: in}, reg)
	require.NoError(t, err1)
	require.NoError(t, err2)
	if diff := cmp.Diff(res1, res2); diff != "" {
		t.Errorf("Process() not deterministic (-first +second):\n%s", diff)
	}
	assert.Contains(t, res1.Output, "Figure 1 ")
	assert.Contains(t, res1.Output, "> NOTE: Figure 2")
}

func TestProcess_ConcurrentDocumentsShareRegistry(t *testing.T) {
	reg := newTestRegistry(t)
	var wg sync.WaitGroup
	outs := make([]string, 16)
	for i := range outs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			out, _, err := ProcessString(fmt.Sprintf("{{%% fig %%}} {{%% echo %d %%}}", i), reg)
			assert.NoError(t, err)
			outs[i] = out
		}(i)
	}
	wg.Wait()
	for i, out := range outs {
		assert.Equal(t, fmt.Sprintf("Figure 1 [%d]", i), out)
	}
}

func TestProcess_NilRegistry(t *testing.T) {
	out, diags, err := ProcessString("a {{% x %}}", nil)
	require.NoError(t, err)
	assert.Equal(t, "a {{% x %}}", out)
	assert.Len(t, diags, 1)
}

// 去掉 shortcode 片段后，Literal 片段拼接起来就是标记之外的原文
func TestProcess_LiteralPreservation(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register("x", HandlerFunc(func(*Invocation) (string, error) { return "", nil })))
	require.NoError(t, reg.Register("b", BlockFunc(func(*Invocation) (string, error) { return "", nil })))

	in := "head {{% x 1 %}} middle `{{% x %}}` {{< b >}}body{{< /b >}} tail"
	out, _, err := ProcessString(in, reg)
	require.NoError(t, err)
	assert.Equal(t, "head  middle `{{% x %}}`  tail", out)
}
