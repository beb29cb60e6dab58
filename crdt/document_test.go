package crdt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luvjson/crdtfront/common"
)

func TestInitCreatesEmptyRootMap(t *testing.T) {
	doc := Init(nil)

	_, ok := doc.ActorID()
	assert.False(t, ok, "actor id should be deferred")

	root, err := doc.GetNode(doc.Root())
	require.NoError(t, err)
	mapNode, ok := root.(*MapNode)
	require.True(t, ok)
	assert.Equal(t, 0, mapNode.Len())

	view, err := doc.View()
	require.NoError(t, err)
	assert.Equal(t, map[string]any{}, view)
}

func TestWithActorIDIsImmutable(t *testing.T) {
	doc := Init(nil)
	actor := common.NewActorID()

	doc2 := doc.WithActorID(actor)

	_, ok := doc.ActorID()
	assert.False(t, ok, "original document must be untouched")

	got, ok := doc2.ActorID()
	require.True(t, ok)
	assert.Equal(t, actor, got)
}

func TestCacheStructuralSharingAcrossPut(t *testing.T) {
	doc := Init(nil)
	childA := NewMapNode(common.NewObjectID())
	childB := NewMapNode(common.NewObjectID())

	cache := doc.Cache().Put(childA.Oid, childA).Put(childB.Oid, childB)
	doc = doc.WithCache(cache)

	// Touch only childA; childB must remain the exact same pointer.
	updatedA := childA.WithField("x", NewPrimitive(int64(1)))
	newCache := doc.Cache().Put(childA.Oid, updatedA)

	gotB, err := newCache.Get(childB.Oid)
	require.NoError(t, err)
	assert.Same(t, childB, gotB, "untouched sibling must be referentially identical")

	gotA, err := newCache.Get(childA.Oid)
	require.NoError(t, err)
	assert.NotSame(t, childA, gotA)
}

func TestMapNodeWithFieldIsImmutable(t *testing.T) {
	m := NewMapNode(common.NewObjectID())
	m2 := m.WithField("a", NewPrimitive(int64(1)))

	assert.Equal(t, 0, m.Len(), "original node untouched")
	v, ok := m2.Get("a")
	require.True(t, ok)
	assert.Equal(t, int64(1), v.Render())
}

func TestMapNodeWithoutFieldNoopReturnsSameNode(t *testing.T) {
	m := NewMapNode(common.NewObjectID()).WithField("a", NewPrimitive(int64(1)))
	same := m.WithoutField("missing")
	assert.Same(t, m, same)

	removed := m.WithoutField("a")
	assert.NotSame(t, m, removed)
	_, ok := removed.Get("a")
	assert.False(t, ok)
}

func TestListNodeInsertAtSplicesAtIndex(t *testing.T) {
	list := NewListNode(common.NewObjectID())
	actor := common.NewActorID()

	id1 := common.ElemID{Actor: actor, Counter: 1}
	list, err := list.InsertAt(0, id1, NewPrimitive("chaffinch"))
	require.NoError(t, err)

	id2 := common.ElemID{Actor: actor, Counter: 2}
	list, err = list.InsertAt(0, id2, NewPrimitive("wren"))
	require.NoError(t, err)

	assert.Equal(t, 2, list.Len())
	v0, _, _ := list.At(0)
	v1, _, _ := list.At(1)
	assert.Equal(t, "wren", v0.Render())
	assert.Equal(t, "chaffinch", v1.Render())
}

func TestListNodeInsertByElemIDOrdersByCounterThenActor(t *testing.T) {
	list := NewListNode(common.NewObjectID())
	a, b := common.ActorID("aaaaaaaa-0000-0000-0000-000000000000"), common.ActorID("bbbbbbbb-0000-0000-0000-000000000000")

	list = list.InsertByElemID(common.ElemID{Actor: a, Counter: 2}, NewPrimitive("second"))
	list = list.InsertByElemID(common.ElemID{Actor: b, Counter: 1}, NewPrimitive("first-b"))
	list = list.InsertByElemID(common.ElemID{Actor: a, Counter: 1}, NewPrimitive("first-a"))

	require.Equal(t, 3, list.Len())
	v0, id0, _ := list.At(0)
	v1, id1, _ := list.At(1)
	v2, _, _ := list.At(2)

	// Counter 1 entries sort before counter 2, and among counter-1 entries
	// actor "a" sorts before actor "b" lexicographically.
	assert.Equal(t, "first-a", v0.Render())
	assert.Equal(t, a, id0.Actor)
	assert.Equal(t, "first-b", v1.Render())
	assert.Equal(t, b, id1.Actor)
	assert.Equal(t, "second", v2.Render())
}

func TestViewMaterialisesNestedObjects(t *testing.T) {
	doc := Init(nil)
	birdsID := common.NewObjectID()
	birds := NewMapNode(birdsID).WithField("wrens", NewCounter(3))

	root, err := doc.Cache().MapAt(doc.Root())
	require.NoError(t, err)
	root = root.WithField("birds", NewObjectRef(birdsID))

	cache := doc.Cache().Put(doc.Root(), root).Put(birdsID, birds)
	doc = doc.WithCache(cache)

	view, err := doc.View()
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"birds": map[string]any{"wrens": int64(3)},
	}, view)
}

func TestGetConflictsReturnsRecordedBucket(t *testing.T) {
	doc := Init(nil)
	other := common.NewActorID()
	bucket := FieldConflicts{other: NewPrimitive("sparrow")}
	doc = doc.WithConflicts(doc.Conflicts().With(doc.Root(), "bird", bucket))

	got, ok := doc.GetConflicts(doc.Root(), "bird")
	require.True(t, ok)
	assert.Equal(t, bucket, got)

	_, ok = doc.GetConflicts(doc.Root(), "missing")
	assert.False(t, ok)
}
