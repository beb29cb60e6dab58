package crdtedit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luvjson/crdtfront/common"
	"github.com/luvjson/crdtfront/crdt"
)

func TestEmptyChangeAdvancesSeqWithoutMutatingView(t *testing.T) {
	actor := common.NewActorID()
	doc := Init(WithActorID(actor))

	doc2, change := doc.EmptyChange("heartbeat")
	require.NotNil(t, change)
	assert.EqualValues(t, 1, change.Seq)
	assert.Empty(t, change.Ops)
	assert.Equal(t, 1, doc2.inner.Requests().Len())

	view, err := doc2.View()
	require.NoError(t, err)
	assert.Equal(t, map[string]any{}, view)
}

func TestGetCounterReturnsReadOnlySnapshot(t *testing.T) {
	actor := common.NewActorID()
	doc := Init(WithActorID(actor))
	doc, _, err := doc.Change("seed", func(root *Proxy) error {
		return root.Set("wrens", crdt.NewCounter(7))
	})
	require.NoError(t, err)

	ro, err := doc.GetCounter(common.RootID, "wrens")
	require.NoError(t, err)
	assert.EqualValues(t, 7, ro.Value())

	err = ro.Increment(1)
	assert.IsType(t, common.ErrCounterReadOnly{}, err)
}

func TestCounterHandleUsedAfterChangeClosesFails(t *testing.T) {
	actor := common.NewActorID()
	doc := Init(WithActorID(actor))
	var escaped *CounterHandle

	_, _, err := doc.Change("seed", func(root *Proxy) error {
		if err := root.Set("wrens", crdt.NewCounter(1)); err != nil {
			return err
		}
		v, err := root.Get("wrens")
		if err != nil {
			return err
		}
		escaped = v.(*CounterHandle)
		return nil
	})
	require.NoError(t, err)

	err = escaped.Increment(1)
	assert.IsType(t, common.ErrReadOutsideChange{}, err)
}

func TestUndoRedoWithoutBackendStateFails(t *testing.T) {
	doc := Init(WithActorID(common.NewActorID()))
	assert.False(t, doc.CanUndo())
	assert.False(t, doc.CanRedo())
	assert.IsType(t, common.ErrNoBackendState{}, doc.Undo())
	assert.IsType(t, common.ErrNoBackendState{}, doc.Redo())
}

type fakeBackend struct {
	canUndo, canRedo   bool
	undoErr, redoErr   error
	undoneOnce, redone bool
}

func (f *fakeBackend) CanUndo() bool { return f.canUndo }
func (f *fakeBackend) CanRedo() bool { return f.canRedo }
func (f *fakeBackend) RequestUndo() error {
	f.undoneOnce = true
	return f.undoErr
}
func (f *fakeBackend) RequestRedo() error {
	f.redone = true
	return f.redoErr
}

func TestUndoRedoForwardsToBackendState(t *testing.T) {
	backend := &fakeBackend{canUndo: true}
	doc := Init(WithActorID(common.NewActorID()), WithBackendState(backend))

	assert.True(t, doc.CanUndo())
	require.NoError(t, doc.Undo())
	assert.True(t, backend.undoneOnce)

	assert.False(t, doc.CanRedo())
	require.NoError(t, doc.Redo())
	assert.True(t, backend.redone)
	assert.Same(t, backend, doc.GetBackendState())
}

func TestGetObjectIDReturnsProxyTarget(t *testing.T) {
	actor := common.NewActorID()
	doc := Init(WithActorID(actor))
	doc, _, err := doc.Change("add birds", func(root *Proxy) error {
		return root.Set("birds", map[string]any{"wrens": "many"})
	})
	require.NoError(t, err)

	var birds *Proxy
	_, _, err = doc.Change("noop read", func(root *Proxy) error {
		v, err := root.Get("birds")
		if err != nil {
			return err
		}
		birds = v.(*Proxy)
		return nil
	})
	require.NoError(t, err)
	assert.NotEmpty(t, doc.GetObjectID(birds))
}
