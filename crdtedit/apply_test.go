package crdtedit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luvjson/crdtfront/common"
	"github.com/luvjson/crdtfront/crdt"
	"github.com/luvjson/crdtfront/crdtpatch"
)

func seq(n uint64) *uint64 { return &n }

func TestApplyPatchAcknowledgesLocalChangeAndPopsQueue(t *testing.T) {
	actor := common.NewActorID()
	doc := Init(WithActorID(actor))

	doc, change, err := doc.Change("set name", func(root *Proxy) error {
		return root.Set("name", "magpie")
	})
	require.NoError(t, err)
	assert.Equal(t, 1, doc.inner.Requests().Len())

	acked, err := doc.ApplyPatch(crdtpatch.Patch{
		Actor: &actor,
		Seq:   &change.Seq,
		Diffs: []crdtpatch.Diff{
			{Action: crdtpatch.DiffActionSet, Obj: common.RootID, Key: "name", Value: "magpie"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 0, acked.inner.Requests().Len())

	view, err := acked.View()
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"name": "magpie"}, view)
}

func TestApplyPatchMismatchedSequenceRejected(t *testing.T) {
	actor := common.NewActorID()
	doc := Init(WithActorID(actor))
	doc, _, err := doc.Change("set name", func(root *Proxy) error {
		return root.Set("name", "magpie")
	})
	require.NoError(t, err)

	_, err = doc.ApplyPatch(crdtpatch.Patch{Actor: &actor, Seq: seq(99)})
	require.Error(t, err)
	var mismatch common.ErrMismatchedSequence
	assert.ErrorAs(t, err, &mismatch)
}

func TestApplyPatchFromRemoteActorMergesWithoutTouchingQueue(t *testing.T) {
	actor := common.NewActorID()
	remote := common.NewActorID()
	doc := Init(WithActorID(actor))

	doc, _, err := doc.Change("local edit", func(root *Proxy) error {
		return root.Set("name", "magpie")
	})
	require.NoError(t, err)
	require.Equal(t, 1, doc.inner.Requests().Len())

	doc, err = doc.ApplyPatch(crdtpatch.Patch{
		Clock: common.Clock{remote: 1},
		Diffs: []crdtpatch.Diff{
			{Action: crdtpatch.DiffActionSet, Obj: common.RootID, Key: "habitat", Value: "wetland"},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, doc.inner.Requests().Len(), "unacknowledged remote patch does not touch the local queue")
	view, err := doc.View()
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"name":    "magpie",
		"habitat": "wetland",
	}, view, "the optimistic local edit survives folding an unrelated remote diff")
}

func TestApplyPatchRecordsConflictBucket(t *testing.T) {
	doc := Init(WithActorID(common.NewActorID()))
	other := common.NewActorID()

	doc, err := doc.ApplyPatch(crdtpatch.Patch{
		Diffs: []crdtpatch.Diff{
			{
				Action: crdtpatch.DiffActionSet,
				Obj:    common.RootID,
				Key:    "name",
				Value:  "robin",
				Conflicts: []crdtpatch.ConflictCandidate{
					{Actor: other, Value: "wren"},
				},
			},
		},
	})
	require.NoError(t, err)

	bucket, ok := doc.GetConflicts(common.RootID, "name")
	require.True(t, ok)
	assert.Equal(t, crdt.NewPrimitive("wren"), bucket[other])

	view, err := doc.View()
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"name": "robin"}, view, "the winning value is what renders")
}

func TestApplyPatchCreateThenInsertOrdersByElemID(t *testing.T) {
	doc := Init(WithActorID(common.NewActorID()))
	listID := common.NewObjectID()
	a := common.ActorID("aaaaaaaa-0000-0000-0000-000000000000")
	b := common.ActorID("bbbbbbbb-0000-0000-0000-000000000000")

	doc, err := doc.ApplyPatch(crdtpatch.Patch{
		Diffs: []crdtpatch.Diff{
			{Action: crdtpatch.DiffActionCreate, Obj: listID, Type: crdtpatch.DiffTargetList},
			{Action: crdtpatch.DiffActionSet, Obj: common.RootID, Key: "tags", Link: listID},
		},
	})
	require.NoError(t, err)

	doc, err = doc.ApplyPatch(crdtpatch.Patch{
		Diffs: []crdtpatch.Diff{
			{Action: crdtpatch.DiffActionInsert, Obj: listID, Index: intp(0), ElemID: (common.ElemID{Actor: a, Counter: 2}).String(), Value: "second"},
		},
	})
	require.NoError(t, err)
	doc, err = doc.ApplyPatch(crdtpatch.Patch{
		Diffs: []crdtpatch.Diff{
			{Action: crdtpatch.DiffActionInsert, Obj: listID, Index: intp(0), ElemID: (common.ElemID{Actor: b, Counter: 1}).String(), Value: "first"},
		},
	})
	require.NoError(t, err)

	view, err := doc.View()
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"tags": []any{"first", "second"}}, view)
}

func intp(i int) *int { return &i }

func TestApplyPatchDepsTrackPatchDepsNotClock(t *testing.T) {
	local := common.ActorID("local")
	remote1 := common.ActorID("remote1")
	remote2 := common.ActorID("remote2")
	doc := Init(WithActorID(local))

	doc, err := doc.ApplyPatch(crdtpatch.Patch{
		Clock: common.Clock{local: 4, remote1: 11, remote2: 41},
		Deps:  common.Clock{local: 4, remote2: 41},
	})
	require.NoError(t, err)

	_, change, err := doc.Change("local edit", func(root *Proxy) error {
		return root.Set("name", "wren")
	})
	require.NoError(t, err)
	assert.Equal(t, common.Clock{remote2: 41}, change.Deps,
		"remote1 appears only in clock, not deps, and must not leak into the document's causal deps")
}
