package crdtedit

import (
	"fmt"
	"sort"
	"time"

	"github.com/pkg/errors"

	"github.com/luvjson/crdtfront/common"
	"github.com/luvjson/crdtfront/crdt"
	"github.com/luvjson/crdtfront/crdtpatch"
)

// opKey identifies a coalescable (obj, key) target within a single change.
type opKey struct {
	obj common.ObjectID
	key string
}

// ChangeContext is the scratch space a single Change callback runs against:
// a live *crdt.Document overlay that reflects every write made so far (so a
// later read in the same callback sees earlier writes), plus the minimal,
// coalesced op list that will become the committed Change.
//
// This stands in for the transparent Proxy of a dynamic-language frontend:
// Go has no metaprogramming hook to intercept `doc.birds.wrens = 3`, so
// mutations go through explicit Proxy methods instead, and ChangeContext is
// the state those methods thread through.
type ChangeContext struct {
	doc     *crdt.Document
	actor   common.ActorID
	ops     []crdtpatch.Op
	opIndex map[opKey]int
	maxElem map[common.ObjectID]uint64
	closed  bool
}

func newChangeContext(doc *crdt.Document, actor common.ActorID) *ChangeContext {
	return &ChangeContext{
		doc:     doc,
		actor:   actor,
		opIndex: map[opKey]int{},
		maxElem: doc.MaxElemMap(),
	}
}

// Root returns a Proxy over the document's root map.
func (ctx *ChangeContext) Root() *Proxy {
	return &Proxy{ctx: ctx, id: ctx.doc.Root()}
}

// recordSet appends or, if a prior set/inc op at the same (obj, key)
// already exists, overwrites it in place: repeated writes to the same key
// within one change keep only the last value (coalescing rule 3).
func (ctx *ChangeContext) recordSet(obj common.ObjectID, key string, value any, datatype crdtpatch.Datatype) {
	k := opKey{obj, key}
	op := crdtpatch.Op{Action: crdtpatch.ActionSet, Obj: obj, Key: key, Value: value, Datatype: datatype}
	if idx, ok := ctx.opIndex[k]; ok {
		ctx.ops[idx] = op
		return
	}
	ctx.ops = append(ctx.ops, op)
	ctx.opIndex[k] = len(ctx.ops) - 1
}

// recordInc folds delta into the pending op for (obj, key): if the prior op
// was a set carrying a counter value, the two collapse into a single set
// with the summed value (rule 1); if it was an earlier inc in the same
// change, the deltas sum into one inc (rule 2); otherwise a fresh inc op is
// appended.
func (ctx *ChangeContext) recordInc(obj common.ObjectID, key string, delta int64) error {
	k := opKey{obj, key}
	if idx, ok := ctx.opIndex[k]; ok {
		switch ctx.ops[idx].Action {
		case crdtpatch.ActionSet:
			// Only a counter-tagged set can precede an inc on the same key
			// (rejectCounterOverwrite guarantees any other set would have
			// been rejected before a CounterHandle could exist for it), but
			// the collapsed op still emits as a plain set: the datatype tag
			// is dropped along with the value's provenance.
			cur, err := toInt64(ctx.ops[idx].Value)
			if err != nil {
				return err
			}
			ctx.ops[idx].Value = cur + delta
			ctx.ops[idx].Datatype = ""
			return nil
		case crdtpatch.ActionInc:
			cur, err := toInt64(ctx.ops[idx].Value)
			if err != nil {
				return err
			}
			ctx.ops[idx].Value = cur + delta
			return nil
		}
	}
	ctx.ops = append(ctx.ops, crdtpatch.Op{Action: crdtpatch.ActionInc, Obj: obj, Key: key, Value: delta})
	ctx.opIndex[k] = len(ctx.ops) - 1
	return nil
}

// clearCoalesce drops any coalescable op recorded for (obj, key): once the
// key is deleted or relinked to a fresh object, a later set must not merge
// with whatever used to live there.
func (ctx *ChangeContext) clearCoalesce(obj common.ObjectID, key string) {
	delete(ctx.opIndex, opKey{obj, key})
}

func (ctx *ChangeContext) currentValue(obj common.ObjectID, key string) (crdt.Value, bool) {
	v, err := getValueAt(ctx.doc.Cache(), obj, key)
	if err != nil {
		return nil, false
	}
	return v, true
}

func (ctx *ChangeContext) nextElemCounter(listID common.ObjectID) uint64 {
	c := ctx.maxElem[listID] + 1
	ctx.maxElem[listID] = c
	return c
}

// link records a "link" op pointing obj.key at childID and updates the
// scratch overlay's cache and inbound map to match.
func (ctx *ChangeContext) link(obj common.ObjectID, key string, childID common.ObjectID) error {
	ctx.ops = append(ctx.ops, crdtpatch.Op{Action: crdtpatch.ActionLink, Obj: obj, Key: key, Value: childID})
	newCache, err := setValueAt(ctx.doc.Cache(), obj, key, crdt.NewObjectRef(childID))
	if err != nil {
		return errors.Wrap(err, "linking child object")
	}
	ctx.doc = ctx.doc.WithCache(newCache).WithInbound(ctx.doc.Inbound().With(childID, crdt.InboundRef{Parent: obj, Key: key}))
	ctx.clearCoalesce(obj, key)
	return nil
}

// assign dispatches a raw Go value assigned to obj.key to the op-emission
// path appropriate for its shape: a nested literal mints a child object, a
// time.Time or crdt.Counter gets its datatype tag, everything else is a
// plain set.
func (ctx *ChangeContext) assign(obj common.ObjectID, key string, raw any) error {
	switch v := raw.(type) {
	case map[string]any:
		return ctx.assignMapLiteral(obj, key, v)
	case []any:
		return ctx.assignListLiteral(obj, key, v)
	case crdt.Counter:
		return ctx.assignCounter(obj, key, v.Int64())
	case time.Time:
		return ctx.assignTimestamp(obj, key, v)
	case *Proxy:
		return common.ErrUnsupportedValue{Kind: "proxy reference (cyclic assignment is not supported)"}
	case nil, bool, string,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return ctx.assignPrimitive(obj, key, v)
	default:
		return common.ErrUnsupportedValue{Kind: fmt.Sprintf("%T", raw)}
	}
}

func (ctx *ChangeContext) rejectCounterOverwrite(obj common.ObjectID, key string) error {
	if cur, ok := ctx.currentValue(obj, key); ok {
		if _, isCounter := cur.(crdt.Counter); isCounter {
			return common.ErrCannotOverwriteCounter{Obj: obj, Key: key}
		}
	}
	return nil
}

func (ctx *ChangeContext) assignPrimitive(obj common.ObjectID, key string, val any) error {
	if err := ctx.rejectCounterOverwrite(obj, key); err != nil {
		return err
	}
	newCache, err := setValueAt(ctx.doc.Cache(), obj, key, crdt.NewPrimitive(val))
	if err != nil {
		return errors.Wrap(err, "assigning value")
	}
	ctx.doc = ctx.doc.WithCache(newCache)
	ctx.recordSet(obj, key, val, "")
	return nil
}

func (ctx *ChangeContext) assignTimestamp(obj common.ObjectID, key string, t time.Time) error {
	if err := ctx.rejectCounterOverwrite(obj, key); err != nil {
		return err
	}
	ts := crdt.NewTimestamp(t)
	newCache, err := setValueAt(ctx.doc.Cache(), obj, key, ts)
	if err != nil {
		return errors.Wrap(err, "assigning timestamp")
	}
	ctx.doc = ctx.doc.WithCache(newCache)
	ctx.recordSet(obj, key, ts.Millis(), crdtpatch.DatatypeTimestamp)
	return nil
}

func (ctx *ChangeContext) assignCounter(obj common.ObjectID, key string, n int64) error {
	if err := ctx.rejectCounterOverwrite(obj, key); err != nil {
		return err
	}
	newCache, err := setValueAt(ctx.doc.Cache(), obj, key, crdt.NewCounter(n))
	if err != nil {
		return errors.Wrap(err, "assigning counter")
	}
	ctx.doc = ctx.doc.WithCache(newCache)
	ctx.recordSet(obj, key, n, crdtpatch.DatatypeCounter)
	return nil
}

func (ctx *ChangeContext) assignMapLiteral(obj common.ObjectID, key string, fields map[string]any) error {
	if err := ctx.rejectCounterOverwrite(obj, key); err != nil {
		return err
	}
	childID := common.NewObjectID()
	ctx.ops = append(ctx.ops, crdtpatch.Op{Action: crdtpatch.ActionMakeMap, Obj: childID})
	ctx.doc = ctx.doc.WithCache(ctx.doc.Cache().Put(childID, crdt.NewMapNode(childID)))

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := ctx.assign(childID, k, fields[k]); err != nil {
			return err
		}
	}
	return ctx.link(obj, key, childID)
}

func (ctx *ChangeContext) assignListLiteral(obj common.ObjectID, key string, elems []any) error {
	if err := ctx.rejectCounterOverwrite(obj, key); err != nil {
		return err
	}
	childID := common.NewObjectID()
	ctx.ops = append(ctx.ops, crdtpatch.Op{Action: crdtpatch.ActionMakeList, Obj: childID})
	ctx.doc = ctx.doc.WithCache(ctx.doc.Cache().Put(childID, crdt.NewListNode(childID)))

	if len(elems) > 0 {
		if err := ctx.insertAt(childID, 0, elems...); err != nil {
			return err
		}
	}
	return ctx.link(obj, key, childID)
}

// insertAt allocates one ElemID per value, emits the ins/set (or
// ins/makeMap.../link) pair for each, and splices the placeholder into the
// scratch overlay list immediately so index (pos) tracks the growing list.
func (ctx *ChangeContext) insertAt(listID common.ObjectID, index int, values ...any) error {
	pos := index
	for _, raw := range values {
		list, err := ctx.doc.Cache().ListAt(listID)
		if err != nil {
			return err
		}
		var predKey string
		if pos == 0 {
			predKey = common.ListHeadSentinel
		} else {
			_, predID, err := list.At(pos - 1)
			if err != nil {
				return err
			}
			predKey = predID.String()
		}

		counter := ctx.nextElemCounter(listID)
		newID := common.ElemID{Actor: ctx.actor, Counter: counter}
		ctx.ops = append(ctx.ops, crdtpatch.Op{Action: crdtpatch.ActionIns, Obj: listID, Key: predKey, Elem: counter})

		newList, err := list.InsertAt(pos, newID, crdt.NewPrimitive(nil))
		if err != nil {
			return err
		}
		ctx.doc = ctx.doc.WithCache(ctx.doc.Cache().Put(listID, newList))

		if err := ctx.assign(listID, newID.String(), raw); err != nil {
			return err
		}
		pos++
	}
	return nil
}
