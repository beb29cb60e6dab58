package crdt

import (
	"fmt"

	"github.com/luvjson/crdtfront/common"
)

// Document is the immutable tuple of spec.md §3. Every mutator returns a
// new *Document; the receiver is never modified, and unchanged Cache
// entries remain referentially shared with the returned copy.
type Document struct {
	actorID *common.ActorID
	seq     uint64
	deps    common.Clock
	cache   Cache
	root    common.ObjectID
	requests Queue
	conflicts ConflictMap
	inbound   InboundMap

	// maxElem is the highest list-element counter this actor has minted
	// per list, keyed by the list's ObjectID.
	maxElem map[common.ObjectID]uint64
}

// Init creates a new document with an empty root map. actor may be nil to
// defer actor-id assignment (spec.md §3's `actorId: Option<ActorId>`); any
// change() attempted before SetActorID then fails with ErrActorIDUnset.
func Init(actor *common.ActorID) *Document {
	root := common.RootID
	cache := NewCache().Put(root, NewMapNode(root))
	return &Document{
		actorID:   actor,
		seq:       0,
		deps:      common.Clock{},
		cache:     cache,
		root:      root,
		conflicts: ConflictMap{},
		inbound:   InboundMap{},
		maxElem:   map[common.ObjectID]uint64{},
	}
}

// ActorID returns the document's actor id, if set.
func (d *Document) ActorID() (common.ActorID, bool) {
	if d.actorID == nil {
		return "", false
	}
	return *d.actorID, true
}

// WithActorID returns a new document with actor bound.
func (d *Document) WithActorID(actor common.ActorID) *Document {
	nd := d.clone()
	nd.actorID = &actor
	return nd
}

// Seq returns the highest local sequence number assigned so far.
func (d *Document) Seq() uint64 { return d.seq }

// Deps returns the dependency clock reflecting the latest authoritative
// state.
func (d *Document) Deps() common.Clock { return d.deps }

// Root returns the reserved root object id.
func (d *Document) Root() common.ObjectID { return d.root }

// Cache returns the materialised object store.
func (d *Document) Cache() Cache { return d.cache }

// Requests returns the pending, un-acknowledged local request queue.
func (d *Document) Requests() Queue { return d.requests }

// Conflicts returns the per-field conflict bucket map.
func (d *Document) Conflicts() ConflictMap { return d.conflicts }

// GetConflicts returns the conflict bucket for obj.key, if any.
func (d *Document) GetConflicts(obj common.ObjectID, key string) (FieldConflicts, bool) {
	return d.conflicts.Get(obj, key)
}

// Inbound returns the reverse-pointer map used for path construction.
func (d *Document) Inbound() InboundMap { return d.inbound }

// GetNode returns the node stored under id.
func (d *Document) GetNode(id common.ObjectID) (Node, error) {
	return d.cache.Get(id)
}

// MaxElem returns the highest counter this document's actor has minted in
// list obj so far.
func (d *Document) MaxElem(obj common.ObjectID) uint64 {
	return d.maxElem[obj]
}

// MaxElemMap returns a copy of the per-list max-counter map, for callers
// that need to carry it forward unchanged (crdtedit's EmptyChange).
func (d *Document) MaxElemMap() map[common.ObjectID]uint64 {
	next := make(map[common.ObjectID]uint64, len(d.maxElem))
	for k, v := range d.maxElem {
		next[k] = v
	}
	return next
}

// clone returns a shallow copy of d: a new *Document, same field values
// (maps/slices shared until a With* method replaces them).
func (d *Document) clone() *Document {
	nd := *d
	return &nd
}

// WithCache returns a new document with its cache replaced.
func (d *Document) WithCache(c Cache) *Document {
	nd := d.clone()
	nd.cache = c
	return nd
}

// WithConflicts returns a new document with its conflict map replaced.
func (d *Document) WithConflicts(c ConflictMap) *Document {
	nd := d.clone()
	nd.conflicts = c
	return nd
}

// WithInbound returns a new document with its inbound map replaced.
func (d *Document) WithInbound(m InboundMap) *Document {
	nd := d.clone()
	nd.inbound = m
	return nd
}

// WithRequests returns a new document with its request queue replaced.
func (d *Document) WithRequests(q Queue) *Document {
	nd := d.clone()
	nd.requests = q
	return nd
}

// WithDeps returns a new document with its dependency clock replaced.
func (d *Document) WithDeps(c common.Clock) *Document {
	nd := d.clone()
	nd.deps = c
	return nd
}

// WithSeqAndMaxElem returns a new document with seq advanced and the given
// per-list max-counter map installed; used by crdtedit at commit time.
func (d *Document) WithSeqAndMaxElem(seq uint64, maxElem map[common.ObjectID]uint64) *Document {
	nd := d.clone()
	nd.seq = seq
	nd.maxElem = maxElem
	return nd
}

// View materialises the document into a plain Go value (map[string]any,
// []any, or a scalar), recursively resolving ObjectRefs.
func (d *Document) View() (any, error) {
	return d.render(d.root, map[common.ObjectID]bool{})
}

func (d *Document) render(id common.ObjectID, seen map[common.ObjectID]bool) (any, error) {
	if seen[id] {
		return nil, fmt.Errorf("cycle detected rendering object %s", id)
	}
	seen[id] = true

	node, err := d.cache.Get(id)
	if err != nil {
		return nil, err
	}

	switch n := node.(type) {
	case *MapNode:
		out := make(map[string]any, n.Len())
		for _, key := range n.Keys() {
			v, _ := n.Get(key)
			rendered, err := d.renderValue(v, seen)
			if err != nil {
				return nil, err
			}
			out[key] = rendered
		}
		return out, nil
	case *ListNode:
		out := make([]any, n.Len())
		for i, v := range n.Elements {
			rendered, err := d.renderValue(v, seen)
			if err != nil {
				return nil, err
			}
			out[i] = rendered
		}
		return out, nil
	default:
		return nil, common.ErrWrongNodeType{ID: id, Expected: "map or list", Got: string(node.Kind())}
	}
}

func (d *Document) renderValue(v Value, seen map[common.ObjectID]bool) (any, error) {
	ref, ok := v.(ObjectRef)
	if !ok {
		return v.Render(), nil
	}
	// seen is per-branch; siblings may legally share no state here since
	// the tree has no DAG sharing above the Cache level.
	branch := make(map[common.ObjectID]bool, len(seen))
	for k := range seen {
		branch[k] = true
	}
	return d.render(ref.ID, branch)
}
