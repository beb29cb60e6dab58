package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestElemIDStringAndParseRoundTrip(t *testing.T) {
	actor := NewActorID()
	id := ElemID{Actor: actor, Counter: 7}

	s := id.String()
	assert.Equal(t, string(actor)+":7", s)

	parsed, err := ParseElemID(s)
	require.NoError(t, err)
	assert.Equal(t, id, parsed)
}

func TestElemIDHeadSentinel(t *testing.T) {
	assert.Equal(t, ListHeadSentinel, ElemID{}.String())

	parsed, err := ParseElemID(ListHeadSentinel)
	require.NoError(t, err)
	assert.True(t, parsed.IsHead())
}

func TestElemIDCompareOrdersByCounterThenActor(t *testing.T) {
	a := ElemID{Actor: "aaaaaaaa-0000-0000-0000-000000000000", Counter: 1}
	b := ElemID{Actor: "bbbbbbbb-0000-0000-0000-000000000000", Counter: 1}
	c := ElemID{Actor: "aaaaaaaa-0000-0000-0000-000000000000", Counter: 2}

	assert.Equal(t, -1, a.Compare(b))
	assert.Equal(t, 1, b.Compare(a))
	assert.Equal(t, -1, a.Compare(c), "lower counter sorts first regardless of actor")
	assert.Equal(t, 0, a.Compare(a))
}

func TestObjectIDRoot(t *testing.T) {
	assert.True(t, RootID.IsRoot())
	assert.False(t, NewObjectID().IsRoot())
}

func TestClockWithNeverDecreases(t *testing.T) {
	actor := NewActorID()
	c := Clock{}
	c = c.With(actor, 5)
	assert.Equal(t, uint64(5), c.Get(actor))

	lower := c.With(actor, 3)
	assert.Equal(t, uint64(5), lower.Get(actor), "clock components must never decrease")

	higher := c.With(actor, 9)
	assert.Equal(t, uint64(9), higher.Get(actor))
	assert.Equal(t, uint64(5), c.Get(actor), "original clock is untouched")
}

func TestClockWithoutRemovesSelfDependency(t *testing.T) {
	a, b := NewActorID(), NewActorID()
	c := Clock{a: 4, b: 11}

	without := c.Without(a)
	assert.Equal(t, uint64(0), without.Get(a))
	assert.Equal(t, uint64(11), without.Get(b))
	assert.Equal(t, uint64(4), c.Get(a), "original clock is untouched")
}

func TestClockMergeTakesComponentWiseMax(t *testing.T) {
	a, b := NewActorID(), NewActorID()
	left := Clock{a: 4, b: 1}
	right := Clock{a: 2, b: 9}

	merged := left.Merge(right)
	assert.Equal(t, uint64(4), merged.Get(a))
	assert.Equal(t, uint64(9), merged.Get(b))
}

func TestClockEqual(t *testing.T) {
	a := NewActorID()
	assert.True(t, Clock{a: 1}.Equal(Clock{a: 1}))
	assert.False(t, Clock{a: 1}.Equal(Clock{a: 2}))
	assert.False(t, Clock{a: 1}.Equal(Clock{}))
}

func TestParseActorIDRejectsGarbage(t *testing.T) {
	_, err := ParseActorID("not-a-uuid")
	require.Error(t, err)
}
