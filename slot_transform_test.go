package slots

import (
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type console struct {
	Base
	greeting string
}

func newGreeting(t *testing.T, preSet, postGet Transform[string]) *Slot[string] {
	t.Helper()
	s, err := New[string]("greeting",
		WithTransform(preSet, postGet),
		WithGetter(func(o Owner) (string, error) {
			return o.(*console).greeting, nil
		}),
		WithSetter[string](func(o Owner, v string) error {
			o.(*console).greeting = v
			return nil
		}),
	)
	require.NoError(t, err)
	require.NoError(t, s.Bind((*console)(nil)))
	return s
}

func TestTransformPreSetRewritesWrites(t *testing.T) {
	s := newGreeting(t, func(_ Owner, v string) (string, error) {
		return strings.ToUpper(v), nil
	}, nil)
	c := &console{}

	require.NoError(t, s.Set(c, "hello"))
	assert.Equal(t, "HELLO", c.greeting)
}

func TestTransformPostGetRewritesReads(t *testing.T) {
	s := newGreeting(t, nil, func(_ Owner, v string) (string, error) {
		return strings.TrimSpace(v), nil
	})
	c := &console{greeting: "  hi  "}

	v, err := s.Get(c)
	require.NoError(t, err)
	assert.Equal(t, "hi", v)
	assert.Equal(t, "  hi  ", c.greeting)
}

func TestTransformErrorAbortsAccess(t *testing.T) {
	boom := errors.New("not ascii")
	s := newGreeting(t, func(_ Owner, v string) (string, error) {
		return "", boom
	}, nil)
	c := &console{greeting: "before"}
	rec := &recorder{}
	c.SetLogger(rec)

	err := s.Set(c, "héllo")
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, "before", c.greeting)
	assert.Contains(t, rec.all()[0], "while transforming")
}

func TestTransformSwappedPerInstance(t *testing.T) {
	s := newGreeting(t, func(_ Owner, v string) (string, error) {
		return strings.ToUpper(v), nil
	}, nil)
	loud := &console{}
	quiet := &console{}
	require.NoError(t, s.ConfigSet(quiet, "pre_set", Transform[string](
		func(_ Owner, v string) (string, error) {
			return strings.ToLower(v), nil
		},
	)))

	require.NoError(t, s.Set(loud, "Hey"))
	require.NoError(t, s.Set(quiet, "Hey"))
	assert.Equal(t, "HEY", loud.greeting)
	assert.Equal(t, "hey", quiet.greeting)
}
