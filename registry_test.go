package shortcodes

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func nopHandler(*Invocation) (string, error) { return "", nil }

func TestRegistry_Register(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register("note", BlockFunc(nopHandler)))
	require.NoError(t, reg.Register("Note", HandlerFunc(nopHandler)))
	require.NoError(t, reg.Register("ui/button", HandlerFunc(nopHandler)))

	err := reg.Register("note", HandlerFunc(nopHandler))
	assert.True(t, errors.Is(err, ErrDuplicateName), "Register() duplicate = %v", err)

	for _, name := range []string{"", "1st", "a b", "/x", "x/", "x//y", "{{"} {
		err := reg.Register(name, HandlerFunc(nopHandler))
		assert.True(t, errors.Is(err, ErrInvalidName), "Register(%q) = %v, want ErrInvalidName", name, err)
	}
	assert.Error(t, reg.Register("nilh", nil))

	assert.Equal(t, []string{"Note", "note", "ui/button"}, reg.Names())
	assert.Equal(t, 3, reg.Len())
}

func TestRegistry_Resolve(t *testing.T) {
	reg := NewRegistry()
	reg.MustRegister("kbd", HandlerFunc(nopHandler))

	h, err := reg.Resolve("kbd")
	require.NoError(t, err)
	assert.NotNil(t, h)

	_, err = reg.Resolve("KBD")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestRegistry_IsBlock(t *testing.T) {
	reg := NewRegistry()
	reg.MustRegister("block", BlockFunc(nopHandler))
	reg.MustRegister("inline", HandlerFunc(nopHandler))
	reg.MustRegister("custom", bodyToggle(false))

	assert.True(t, reg.IsBlock("block"))
	assert.False(t, reg.IsBlock("inline"))
	assert.False(t, reg.IsBlock("custom"))
	assert.False(t, reg.IsBlock("missing"))
}

func TestRegistry_SealedAfterProcess(t *testing.T) {
	reg := NewRegistry()
	reg.MustRegister("a", HandlerFunc(nopHandler))
	assert.False(t, reg.Sealed())

	_, _, err := ProcessString("text", reg)
	require.NoError(t, err)
	assert.True(t, reg.Sealed())

	err = reg.Register("b", HandlerFunc(nopHandler))
	assert.True(t, errors.Is(err, ErrSealed))
	assert.Panics(t, func() { reg.MustRegister("c", HandlerFunc(nopHandler)) })
}

func TestInvocation_Accessors(t *testing.T) {
	inv := &Invocation{
		Positional: []string{"first", "second"},
		Named:      map[string]string{"n": "3", "flag": "true", "bad": "x"},
	}
	assert.Equal(t, "first", inv.Arg(0))
	assert.Equal(t, "", inv.Arg(5))
	assert.Equal(t, "", inv.Arg(-1))
	assert.Equal(t, "3", inv.GetOr("n", 0, "def"))
	assert.Equal(t, "second", inv.GetOr("title", 1, "def"))
	assert.Equal(t, "def", inv.GetOr("title", 2, "def"))

	n, err := inv.Int("n", 0)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	n, err = inv.Int("missing", 7)
	require.NoError(t, err)
	assert.Equal(t, 7, n)
	_, err = inv.Int("bad", 0)
	assert.Error(t, err)

	b, err := inv.Bool("flag", false)
	require.NoError(t, err)
	assert.True(t, b)
	_, err = inv.Bool("bad", false)
	assert.Error(t, err)

	_, ok := inv.Lookup("missing")
	assert.False(t, ok)
}

func TestScratch(t *testing.T) {
	s := newScratch()
	assert.Equal(t, 0, s.Count("fig"))
	assert.Equal(t, 1, s.Next("fig"))
	assert.Equal(t, 2, s.Next("fig"))
	assert.Equal(t, 1, s.Next("table"))
	assert.Equal(t, 2, s.Count("fig"))

	s.Set("k", "v")
	v, ok := s.Get("k")
	assert.True(t, ok)
	assert.Equal(t, "v", v)
}

func TestParsePolicy(t *testing.T) {
	tests := []struct {
		in      string
		want    Policy
		wantErr bool
	}{
		{in: "", want: PolicySoft},
		{in: "soft", want: PolicySoft},
		{in: "fail-soft", want: PolicySoft},
		{in: "HARD", want: PolicyHard},
		{in: "fail-hard", want: PolicyHard},
		{in: "maybe", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParsePolicy(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

type bodyToggle bool

func (b bodyToggle) Render(*Invocation) (string, error) { return "", nil }
func (b bodyToggle) HasBody() bool                      { return bool(b) }
