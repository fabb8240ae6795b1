package slots

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-slots/pkg/observe"
)

type relay struct {
	Base
	channels map[any]bool
	gets     map[any]int
}

func newOutputs(t *testing.T, domain KeyDomain, itemOpts ...SlotOption[bool]) *DictSlot[bool] {
	t.Helper()
	d, err := NewDict[bool]("output", domain,
		WithItemOptions(itemOpts...),
		WithItemGetter(func(o Owner, key any) (bool, error) {
			r := o.(*relay)
			if r.gets != nil {
				r.gets[key]++
			}
			return r.channels[key], nil
		}),
		WithItemSetter[bool](func(o Owner, key any, on bool) error {
			o.(*relay).channels[key] = on
			return nil
		}),
	)
	require.NoError(t, err)
	require.NoError(t, d.Bind((*relay)(nil)))
	return d
}

func newRelay() *relay {
	return &relay{channels: make(map[any]bool), gets: make(map[any]int)}
}

func TestDictSlotKeySet(t *testing.T) {
	d := newOutputs(t, KeySet{1, 2, 3})
	r := newRelay()

	require.NoError(t, d.SetItem(r, 1, true))
	on, err := d.GetItem(r, 1)
	require.NoError(t, err)
	assert.True(t, on)

	_, err = d.GetItem(r, 4)
	var keyErr *KeyError
	require.ErrorAs(t, err, &keyErr)
	assert.Equal(t, 4, keyErr.Key)
	assert.EqualError(t, err, "slots: 4 is not a valid key for output, should be in [1 2 3]")
}

func TestDictSlotKeyMapTranslation(t *testing.T) {
	d := newOutputs(t, KeyMap{"x": 1, 2: "y"})
	r := newRelay()

	// External key "x" stores under internal key 1.
	require.NoError(t, d.SetItem(r, "x", true))
	assert.Equal(t, map[any]bool{1: true}, r.channels)

	on, err := d.GetItem(r, "x")
	require.NoError(t, err)
	assert.True(t, on)

	// The internal key is not part of the external domain.
	_, err = d.GetItem(r, 1)
	var keyErr *KeyError
	require.ErrorAs(t, err, &keyErr)

	// External key 2 translates to internal "y".
	require.NoError(t, d.SetItem(r, 2, true))
	assert.True(t, r.channels["y"])
}

func TestDictSlotUnboundedDomain(t *testing.T) {
	d := newOutputs(t, nil)
	r := newRelay()

	require.NoError(t, d.SetItem(r, "anything", true))
	on, err := d.GetItem(r, "anything")
	require.NoError(t, err)
	assert.True(t, on)

	_, err = d.Get(r)
	assert.ErrorContains(t, err, "requires a bounded key domain")
}

func TestDictSlotWholeGetSet(t *testing.T) {
	d := newOutputs(t, KeySet{1, 2})
	r := newRelay()

	require.NoError(t, d.Set(r, map[any]bool{1: true, 2: false}))
	values, err := d.Get(r)
	require.NoError(t, err)
	assert.Equal(t, map[any]bool{1: true, 2: false}, values)
}

func TestDictSlotIsPermanent(t *testing.T) {
	d := newOutputs(t, KeySet{1})
	err := d.Delete(newRelay())
	var accessErr *AccessError
	require.ErrorAs(t, err, &accessErr)
	assert.Equal(t, "delete", accessErr.Op)
}

func TestDictSlotPerKeyCaching(t *testing.T) {
	d := newOutputs(t, KeySet{1, 2}, WithReadOnce[bool]())
	r := newRelay()

	for i := 0; i < 3; i++ {
		_, err := d.GetItem(r, 1)
		require.NoError(t, err)
	}
	_, err := d.GetItem(r, 2)
	require.NoError(t, err)

	assert.Equal(t, 1, r.gets[1])
	assert.Equal(t, 1, r.gets[2])

	cached := d.Recall(r)
	assert.Len(t, cached, 2)

	d.Invalidate(r)
	assert.Empty(t, d.Recall(r))
}

func TestDictSlotPerKeyStats(t *testing.T) {
	d := newOutputs(t, KeySet{1, 2}, WithStats[bool]())
	r := newRelay()

	_, err := d.GetItem(r, 1)
	require.NoError(t, err)
	_, err = d.GetItem(r, 1)
	require.NoError(t, err)
	_, err = d.GetItem(r, 2)
	require.NoError(t, err)

	sub1, err := d.Sub(1)
	require.NoError(t, err)
	sub2, err := d.Sub(2)
	require.NoError(t, err)
	assert.EqualValues(t, 2, sub1.Stats(r, "get").Count)
	assert.EqualValues(t, 1, sub2.Stats(r, "get").Count)
}

func TestDictSlotChangeEventsCarryKey(t *testing.T) {
	d := newOutputs(t, KeyMap{"main": 1}, WithObservable[bool]())
	r := newRelay()

	hub, ok := r.Signals().Hub("output")
	require.True(t, ok)
	var changes []observe.Change
	cancel := hub.Subscribe(func(c observe.Change) {
		changes = append(changes, c)
	})
	defer cancel()

	require.NoError(t, d.SetItem(r, "main", true))
	require.NoError(t, d.SetItem(r, "main", true)) // deduplicated
	require.NoError(t, d.SetItem(r, "main", false))

	require.Len(t, changes, 2)
	assert.Equal(t, "output[1]", changes[0].Name)
	assert.Equal(t, 1, changes[0].Key)
	assert.Equal(t, true, changes[0].New)
	assert.Equal(t, false, changes[1].New)
	assert.Equal(t, true, changes[1].Old)
}

func TestDictSlotTemplateErrorSurfacesAtConstruction(t *testing.T) {
	_, err := NewDict[bool]("output", KeySet{1},
		WithItemOptions(
			WithReadOnce[bool](ConfigValues{"read_once": "sometimes"}),
		),
	)
	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
}

func TestDictSlotSubSlotsShareTemplateNotState(t *testing.T) {
	d := newOutputs(t, KeySet{1, 2}, WithReadOnce[bool]())
	r := newRelay()

	sub1, err := d.Sub(1)
	require.NoError(t, err)
	require.NoError(t, sub1.ConfigSet(r, "read_once", false))

	for i := 0; i < 2; i++ {
		_, err := d.GetItem(r, 1)
		require.NoError(t, err)
		_, err = d.GetItem(r, 2)
		require.NoError(t, err)
	}
	assert.Equal(t, 2, r.gets[1])
	assert.Equal(t, 1, r.gets[2])
}
