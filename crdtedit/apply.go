package crdtedit

import (
	"go.uber.org/zap"

	"github.com/luvjson/crdtfront/common"
	"github.com/luvjson/crdtfront/crdt"
	"github.com/luvjson/crdtfront/crdtpatch"
)

// authoritativeBase returns the document state as it was before any
// pending local request was optimistically applied: the snapshot carried
// by the oldest entry in the request queue, or the document itself if the
// queue is empty. Folding a patch's diffs onto this base (rather than onto
// the live, optimistic doc) keeps the authoritative and rendered views
// distinct without needing a second cache field on Document.
func authoritativeBase(doc *crdt.Document) *crdt.Document {
	if head, ok := doc.Requests().Head(); ok {
		return head.Before
	}
	return doc
}

// applyPatch reconciles patch against doc: if it acknowledges the head of
// doc's pending request queue, that request is popped and its diffs become
// authoritative; otherwise the diffs describe a concurrent remote change.
// Either way, the authoritative base is updated and every request still in
// the queue is replayed on top to produce the new rendered document.
func applyPatch(doc *crdt.Document, patch crdtpatch.Patch, logger *zap.Logger) (*crdt.Document, error) {
	actor, hasActor := doc.ActorID()
	requests := doc.Requests()

	if hasActor && patch.AcknowledgesActor(actor) {
		head, ok := requests.Head()
		if !ok {
			return doc, common.ErrMismatchedSequence{Expected: 0, Got: *patch.Seq}
		}
		if head.Change.Seq != *patch.Seq {
			return doc, common.ErrMismatchedSequence{Expected: head.Change.Seq, Got: *patch.Seq}
		}
		requests = requests.PopFront()
		logger.Debug("acknowledged local change", zap.Uint64("seq", *patch.Seq))
	}

	base := authoritativeBase(doc)
	folded, err := foldDiffs(base, patch.Diffs)
	if err != nil {
		return doc, err
	}

	// A patch's deps is the causal frontier the backend wants the document
	// to track going forward; clock is its own broader view of every actor
	// it has seen and is not a substitute for deps (clock entries like a
	// third actor relayed through the backend but not itself a dependency
	// of this patch must not leak into the document's causal deps). Only
	// fall back to clock when the patch carries no deps of its own.
	newDeps := patch.Deps
	if len(newDeps) == 0 {
		newDeps = patch.Clock
	}
	deps := doc.Deps().Merge(newDeps)

	rendered := folded
	for _, req := range requests {
		rendered, err = replayOps(rendered, req.Change.Actor, req.Change.Ops)
		if err != nil {
			return doc, err
		}
	}

	// The folded state becomes the new authoritative base: it replaces the
	// head request's Before, so the next patch folds on top of it.
	if len(requests) > 0 {
		requests = append(crdt.Queue{}, requests...)
		requests[0].Before = folded
	}

	// seq and maxElem count what this actor has already minted, so they are
	// carried over from doc rather than taken from the base snapshot.
	return rendered.WithRequests(requests).WithDeps(deps).WithSeqAndMaxElem(doc.Seq(), doc.MaxElemMap()), nil
}

func foldDiffs(doc *crdt.Document, diffs []crdtpatch.Diff) (*crdt.Document, error) {
	var err error
	for _, d := range diffs {
		doc, err = foldDiff(doc, d)
		if err != nil {
			return doc, err
		}
	}
	return doc, nil
}

func foldDiff(doc *crdt.Document, d crdtpatch.Diff) (*crdt.Document, error) {
	switch d.Action {
	case crdtpatch.DiffActionCreate:
		return foldCreateDiff(doc, d)
	case crdtpatch.DiffActionSet:
		return foldSetDiff(doc, d)
	case crdtpatch.DiffActionInsert:
		return foldInsertDiff(doc, d)
	case crdtpatch.DiffActionRemove:
		return foldRemoveDiff(doc, d)
	default:
		return doc, common.ErrMalformedPatch{Reason: "unknown diff action: " + string(d.Action)}
	}
}

func foldCreateDiff(doc *crdt.Document, d crdtpatch.Diff) (*crdt.Document, error) {
	var node crdt.Node
	switch d.Type {
	case crdtpatch.DiffTargetMap:
		node = crdt.NewMapNode(d.Obj)
	case crdtpatch.DiffTargetList:
		node = crdt.NewListNode(d.Obj)
	default:
		return doc, common.ErrMalformedPatch{Reason: "create diff with unknown type"}
	}
	return doc.WithCache(doc.Cache().Put(d.Obj, node)), nil
}

func diffValue(d crdtpatch.Diff) (crdt.Value, error) {
	if d.Link != "" {
		return crdt.NewObjectRef(d.Link), nil
	}
	return valueFromOp(d.Value, d.Datatype)
}

func foldSetDiff(doc *crdt.Document, d crdtpatch.Diff) (*crdt.Document, error) {
	value, err := diffValue(d)
	if err != nil {
		return doc, err
	}

	key := d.Key
	if d.Index != nil {
		list, err := doc.Cache().ListAt(d.Obj)
		if err != nil {
			return doc, err
		}
		_, elemID, err := list.At(*d.Index)
		if err != nil {
			return doc, err
		}
		key = elemID.String()
	}

	newCache, err := setValueAt(doc.Cache(), d.Obj, key, value)
	if err != nil {
		return doc, err
	}
	doc = doc.WithCache(newCache)

	if d.Link != "" {
		doc = doc.WithInbound(doc.Inbound().With(d.Link, crdt.InboundRef{Parent: d.Obj, Key: key}))
	}

	return foldConflicts(doc, d.Obj, key, d.Conflicts), nil
}

func foldInsertDiff(doc *crdt.Document, d crdtpatch.Diff) (*crdt.Document, error) {
	value, err := diffValue(d)
	if err != nil {
		return doc, err
	}
	elemID, err := common.ParseElemID(d.ElemID)
	if err != nil {
		return doc, err
	}
	list, err := doc.Cache().ListAt(d.Obj)
	if err != nil {
		return doc, err
	}

	// Concurrent inserts converge on ElemID total order rather than the
	// arrival order the backend happened to deliver diffs in.
	newList := list.InsertByElemID(elemID, value)
	doc = doc.WithCache(doc.Cache().Put(d.Obj, newList))

	if d.Link != "" {
		doc = doc.WithInbound(doc.Inbound().With(d.Link, crdt.InboundRef{Parent: d.Obj, Key: elemID.String()}))
	}

	return foldConflicts(doc, d.Obj, elemID.String(), d.Conflicts), nil
}

func foldRemoveDiff(doc *crdt.Document, d crdtpatch.Diff) (*crdt.Document, error) {
	key := d.Key
	if d.Index != nil {
		list, err := doc.Cache().ListAt(d.Obj)
		if err != nil {
			return doc, err
		}
		_, elemID, err := list.At(*d.Index)
		if err != nil {
			return doc, err
		}
		key = elemID.String()
	}

	newCache, removedChild, isRef, err := deleteValueAt(doc.Cache(), d.Obj, key)
	if err != nil {
		return doc, err
	}
	doc = doc.WithCache(newCache)
	if isRef {
		doc = doc.WithInbound(doc.Inbound().Without(removedChild))
	}
	return doc, nil
}

// foldConflicts records or clears the conflict bucket for obj.key. An empty
// candidate list clears a stale bucket left by an earlier race that has
// since resolved.
func foldConflicts(doc *crdt.Document, obj common.ObjectID, key string, candidates []crdtpatch.ConflictCandidate) *crdt.Document {
	if len(candidates) == 0 {
		if _, ok := doc.Conflicts().Get(obj, key); ok {
			return doc.WithConflicts(doc.Conflicts().With(obj, key, nil))
		}
		return doc
	}
	bucket := make(crdt.FieldConflicts, len(candidates))
	for _, c := range candidates {
		if c.Link != "" {
			bucket[c.Actor] = crdt.NewObjectRef(c.Link)
			continue
		}
		bucket[c.Actor] = crdt.NewPrimitive(c.Value)
	}
	return doc.WithConflicts(doc.Conflicts().With(obj, key, bucket))
}

func replayOps(doc *crdt.Document, actor common.ActorID, ops []crdtpatch.Op) (*crdt.Document, error) {
	var err error
	for _, op := range ops {
		doc, err = applyOp(doc, actor, op)
		if err != nil {
			return doc, err
		}
	}
	return doc, nil
}

// applyOp replays a single already-committed op verbatim against doc. It
// performs no coalescing: that happened once, at emission time, in
// ChangeContext.
func applyOp(doc *crdt.Document, actor common.ActorID, op crdtpatch.Op) (*crdt.Document, error) {
	switch op.Action {
	case crdtpatch.ActionMakeMap:
		return doc.WithCache(doc.Cache().Put(op.Obj, crdt.NewMapNode(op.Obj))), nil
	case crdtpatch.ActionMakeList:
		return doc.WithCache(doc.Cache().Put(op.Obj, crdt.NewListNode(op.Obj))), nil
	case crdtpatch.ActionLink:
		return applyLinkOp(doc, op)
	case crdtpatch.ActionSet:
		return applySetOp(doc, op)
	case crdtpatch.ActionDel:
		return applyDelOp(doc, op)
	case crdtpatch.ActionIns:
		return applyInsOp(doc, actor, op)
	case crdtpatch.ActionInc:
		return applyIncOp(doc, op)
	default:
		return doc, common.ErrMalformedPatch{Reason: "unknown op action: " + string(op.Action)}
	}
}

func childIDFromOpValue(v any) (common.ObjectID, error) {
	switch id := v.(type) {
	case common.ObjectID:
		return id, nil
	case string:
		return common.ObjectID(id), nil
	default:
		return "", common.ErrMalformedPatch{Reason: "link op value is not an object id"}
	}
}

func applyLinkOp(doc *crdt.Document, op crdtpatch.Op) (*crdt.Document, error) {
	childID, err := childIDFromOpValue(op.Value)
	if err != nil {
		return doc, err
	}
	newCache, err := setValueAt(doc.Cache(), op.Obj, op.Key, crdt.NewObjectRef(childID))
	if err != nil {
		return doc, err
	}
	return doc.WithCache(newCache).WithInbound(doc.Inbound().With(childID, crdt.InboundRef{Parent: op.Obj, Key: op.Key})), nil
}

func applySetOp(doc *crdt.Document, op crdtpatch.Op) (*crdt.Document, error) {
	value, err := valueFromOp(op.Value, op.Datatype)
	if err != nil {
		return doc, err
	}
	newCache, err := setValueAt(doc.Cache(), op.Obj, op.Key, value)
	if err != nil {
		return doc, err
	}
	return doc.WithCache(newCache), nil
}

func applyDelOp(doc *crdt.Document, op crdtpatch.Op) (*crdt.Document, error) {
	newCache, removedChild, isRef, err := deleteValueAt(doc.Cache(), op.Obj, op.Key)
	if err != nil {
		return doc, err
	}
	doc = doc.WithCache(newCache)
	if isRef {
		doc = doc.WithInbound(doc.Inbound().Without(removedChild))
	}
	return doc, nil
}

func applyInsOp(doc *crdt.Document, actor common.ActorID, op crdtpatch.Op) (*crdt.Document, error) {
	list, err := doc.Cache().ListAt(op.Obj)
	if err != nil {
		return doc, err
	}
	predecessor, err := common.ParseElemID(op.Key)
	if err != nil {
		return doc, err
	}

	idx := 0
	if !predecessor.IsHead() {
		pidx, ok := list.IndexOf(predecessor)
		if !ok {
			return doc, common.ErrIndexOutOfRange{ID: op.Obj, Index: -1, Len: list.Len()}
		}
		idx = pidx + 1
	}

	newID := common.ElemID{Actor: actor, Counter: op.Elem}
	newList, err := list.InsertAt(idx, newID, crdt.NewPrimitive(nil))
	if err != nil {
		return doc, err
	}
	return doc.WithCache(doc.Cache().Put(op.Obj, newList)), nil
}

func applyIncOp(doc *crdt.Document, op crdtpatch.Op) (*crdt.Document, error) {
	delta, err := toInt64(op.Value)
	if err != nil {
		return doc, err
	}
	cur, err := getValueAt(doc.Cache(), op.Obj, op.Key)
	if err != nil {
		return doc, err
	}
	cnt, ok := cur.(crdt.Counter)
	if !ok {
		return doc, common.ErrWrongNodeType{ID: op.Obj, Expected: "counter", Got: "other"}
	}
	newCache, err := setValueAt(doc.Cache(), op.Obj, op.Key, cnt.Add(delta))
	if err != nil {
		return doc, err
	}
	return doc.WithCache(newCache), nil
}
