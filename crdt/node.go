package crdt

import (
	"sort"

	"github.com/luvjson/crdtfront/common"
)

// NodeKind distinguishes the two node shapes a materialised object can take.
type NodeKind string

const (
	NodeKindMap  NodeKind = "map"
	NodeKindList NodeKind = "list"
)

// Node is an immutable materialised object in the document tree. Every
// mutator on a concrete node type returns a new node; the receiver is
// never modified, which is what lets Cache share untouched siblings by
// pointer across document generations (spec.md §4.1).
type Node interface {
	ID() common.ObjectID
	Kind() NodeKind
}

// MapNode is an immutable LWW-style map of fields to Values.
type MapNode struct {
	Oid    common.ObjectID
	Fields map[string]Value
}

// NewMapNode creates an empty map node with the given id.
func NewMapNode(id common.ObjectID) *MapNode {
	return &MapNode{Oid: id, Fields: map[string]Value{}}
}

func (n *MapNode) ID() common.ObjectID { return n.Oid }
func (n *MapNode) Kind() NodeKind      { return NodeKindMap }

// Get returns the value at key, if present.
func (n *MapNode) Get(key string) (Value, bool) {
	v, ok := n.Fields[key]
	return v, ok
}

// Keys returns the field names in sorted order for deterministic iteration.
func (n *MapNode) Keys() []string {
	keys := make([]string, 0, len(n.Fields))
	for k := range n.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Len returns the number of fields.
func (n *MapNode) Len() int { return len(n.Fields) }

// WithField returns a new MapNode with key set to v, sharing every other
// field's value and leaving n untouched.
func (n *MapNode) WithField(key string, v Value) *MapNode {
	next := make(map[string]Value, len(n.Fields)+1)
	for k, vv := range n.Fields {
		next[k] = vv
	}
	next[key] = v
	return &MapNode{Oid: n.Oid, Fields: next}
}

// WithoutField returns a new MapNode with key removed. If key is absent, n
// itself is returned unchanged (no-op edits must not allocate).
func (n *MapNode) WithoutField(key string) *MapNode {
	if _, ok := n.Fields[key]; !ok {
		return n
	}
	next := make(map[string]Value, len(n.Fields))
	for k, vv := range n.Fields {
		if k != key {
			next[k] = vv
		}
	}
	return &MapNode{Oid: n.Oid, Fields: next}
}

// ListNode is an immutable RGA-ordered list of Values, each tagged with the
// ElemID that identifies its position.
type ListNode struct {
	Oid      common.ObjectID
	Elements []Value
	ElemIDs  []common.ElemID
}

// NewListNode creates an empty list node with the given id.
func NewListNode(id common.ObjectID) *ListNode {
	return &ListNode{Oid: id}
}

func (n *ListNode) ID() common.ObjectID { return n.Oid }
func (n *ListNode) Kind() NodeKind      { return NodeKindList }

// Len returns the number of elements.
func (n *ListNode) Len() int { return len(n.Elements) }

// At returns the value and ElemID at the given visual index.
func (n *ListNode) At(index int) (Value, common.ElemID, error) {
	if index < 0 || index >= len(n.Elements) {
		return nil, common.ElemID{}, common.ErrIndexOutOfRange{ID: n.Oid, Index: index, Len: len(n.Elements)}
	}
	return n.Elements[index], n.ElemIDs[index], nil
}

// IndexOf returns the visual index of id, if present.
func (n *ListNode) IndexOf(id common.ElemID) (int, bool) {
	for i, e := range n.ElemIDs {
		if e == id {
			return i, true
		}
	}
	return 0, false
}

// InsertAt splices (id, v) into the list at the given visual index. This is
// how a local change applies its own insertAt(i, ...) call: the caller
// picked the index, and the local view must reflect it immediately.
func (n *ListNode) InsertAt(index int, id common.ElemID, v Value) (*ListNode, error) {
	if index < 0 || index > len(n.Elements) {
		return nil, common.ErrIndexOutOfRange{ID: n.Oid, Index: index, Len: len(n.Elements)}
	}
	elems := make([]Value, 0, len(n.Elements)+1)
	elems = append(elems, n.Elements[:index]...)
	elems = append(elems, v)
	elems = append(elems, n.Elements[index:]...)

	ids := make([]common.ElemID, 0, len(n.ElemIDs)+1)
	ids = append(ids, n.ElemIDs[:index]...)
	ids = append(ids, id)
	ids = append(ids, n.ElemIDs[index:]...)

	return &ListNode{Oid: n.Oid, Elements: elems, ElemIDs: ids}, nil
}

// InsertByElemID inserts (id, v) at the position that keeps ElemIDs in
// total order (counter, then actor). This is the ordering the patch
// applier uses when folding a remote "insert" diff, so that concurrent
// inserts from different actors converge on the same list shape regardless
// of arrival order (spec.md §9's open question, resolved in SPEC_FULL.md §10).
func (n *ListNode) InsertByElemID(id common.ElemID, v Value) *ListNode {
	pos := sort.Search(len(n.ElemIDs), func(i int) bool {
		return n.ElemIDs[i].Compare(id) > 0
	})
	elems := make([]Value, 0, len(n.Elements)+1)
	elems = append(elems, n.Elements[:pos]...)
	elems = append(elems, v)
	elems = append(elems, n.Elements[pos:]...)

	ids := make([]common.ElemID, 0, len(n.ElemIDs)+1)
	ids = append(ids, n.ElemIDs[:pos]...)
	ids = append(ids, id)
	ids = append(ids, n.ElemIDs[pos:]...)

	return &ListNode{Oid: n.Oid, Elements: elems, ElemIDs: ids}
}

// WithElementAt returns a new ListNode with the value at index replaced.
func (n *ListNode) WithElementAt(index int, v Value) (*ListNode, error) {
	if index < 0 || index >= len(n.Elements) {
		return nil, common.ErrIndexOutOfRange{ID: n.Oid, Index: index, Len: len(n.Elements)}
	}
	elems := make([]Value, len(n.Elements))
	copy(elems, n.Elements)
	elems[index] = v
	ids := make([]common.ElemID, len(n.ElemIDs))
	copy(ids, n.ElemIDs)
	return &ListNode{Oid: n.Oid, Elements: elems, ElemIDs: ids}, nil
}

// WithoutElementAt returns a new ListNode with the element at index removed.
func (n *ListNode) WithoutElementAt(index int) (*ListNode, error) {
	if index < 0 || index >= len(n.Elements) {
		return nil, common.ErrIndexOutOfRange{ID: n.Oid, Index: index, Len: len(n.Elements)}
	}
	elems := make([]Value, 0, len(n.Elements)-1)
	elems = append(elems, n.Elements[:index]...)
	elems = append(elems, n.Elements[index+1:]...)

	ids := make([]common.ElemID, 0, len(n.ElemIDs)-1)
	ids = append(ids, n.ElemIDs[:index]...)
	ids = append(ids, n.ElemIDs[index+1:]...)

	return &ListNode{Oid: n.Oid, Elements: elems, ElemIDs: ids}, nil
}
