package crdt

import "github.com/luvjson/crdtfront/common"

// Cache is the immutable tree store of spec.md §4.1: a snapshot of every
// object reachable from the document root, keyed by ObjectID. Put performs
// a shallow copy-on-write clone of the map header only — every untouched
// Node pointer carries over unchanged, so a sibling never touched by a
// Put remains referentially identical (==) across generations. This is
// the "copy-on-write with immutability discipline" spec.md §9 explicitly
// allows in place of a full persistent HAMT (see DESIGN.md for why no
// third-party persistent-map library from the retrieval pack fit here).
type Cache map[common.ObjectID]Node

// NewCache returns an empty cache.
func NewCache() Cache {
	return Cache{}
}

// Get returns the node stored under id.
func (c Cache) Get(id common.ObjectID) (Node, error) {
	n, ok := c[id]
	if !ok {
		return nil, common.ErrNodeNotFound{ID: id}
	}
	return n, nil
}

// Put returns a new Cache with id bound to node; c itself is left intact.
func (c Cache) Put(id common.ObjectID, node Node) Cache {
	next := c.Clone()
	next[id] = node
	return next
}

// Delete returns a new Cache with id removed.
func (c Cache) Delete(id common.ObjectID) Cache {
	if _, ok := c[id]; !ok {
		return c
	}
	next := c.Clone()
	delete(next, id)
	return next
}

// Clone returns a shallow copy of c: a new map header, same Node pointers.
func (c Cache) Clone() Cache {
	next := make(Cache, len(c)+1)
	for k, v := range c {
		next[k] = v
	}
	return next
}

// MapAt is a typed convenience wrapper over Get for callers that know the
// node must be a map.
func (c Cache) MapAt(id common.ObjectID) (*MapNode, error) {
	n, err := c.Get(id)
	if err != nil {
		return nil, err
	}
	m, ok := n.(*MapNode)
	if !ok {
		return nil, common.ErrWrongNodeType{ID: id, Expected: "map", Got: string(n.Kind())}
	}
	return m, nil
}

// ListAt is a typed convenience wrapper over Get for callers that know the
// node must be a list.
func (c Cache) ListAt(id common.ObjectID) (*ListNode, error) {
	n, err := c.Get(id)
	if err != nil {
		return nil, err
	}
	l, ok := n.(*ListNode)
	if !ok {
		return nil, common.ErrWrongNodeType{ID: id, Expected: "list", Got: string(n.Kind())}
	}
	return l, nil
}
