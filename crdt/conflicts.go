package crdt

import "github.com/luvjson/crdtfront/common"

// FieldConflicts is the bucket of losing values recorded for one field
// after a concurrent write (spec.md §4.3's "Conflicts").
type FieldConflicts map[common.ActorID]Value

// ConflictMap is the per-object, per-field conflict bucket set carried by
// a Document (spec.md §3's `conflicts`).
type ConflictMap map[common.ObjectID]map[string]FieldConflicts

// Get returns the conflict bucket for obj.key, if one exists.
func (c ConflictMap) Get(obj common.ObjectID, key string) (FieldConflicts, bool) {
	byKey, ok := c[obj]
	if !ok {
		return nil, false
	}
	bucket, ok := byKey[key]
	if !ok || len(bucket) == 0 {
		return nil, false
	}
	return bucket, true
}

// With returns a new ConflictMap with obj.key's bucket replaced by bucket.
func (c ConflictMap) With(obj common.ObjectID, key string, bucket FieldConflicts) ConflictMap {
	next := make(ConflictMap, len(c)+1)
	for k, v := range c {
		next[k] = v
	}
	byKey := make(map[string]FieldConflicts, len(next[obj])+1)
	for k, v := range next[obj] {
		byKey[k] = v
	}
	byKey[key] = bucket
	next[obj] = byKey
	return next
}

// InboundRef is the reverse pointer used for path construction: the parent
// object and field/elem key that currently links to a node.
type InboundRef struct {
	Parent common.ObjectID
	Key    string
}

// InboundMap is the exact inverse of parent-to-child links in the current
// materialised view (spec.md invariant 2).
type InboundMap map[common.ObjectID]InboundRef

// With returns a new InboundMap with child pointing back to ref.
func (m InboundMap) With(child common.ObjectID, ref InboundRef) InboundMap {
	next := make(InboundMap, len(m)+1)
	for k, v := range m {
		next[k] = v
	}
	next[child] = ref
	return next
}

// Without returns a new InboundMap with child's entry removed.
func (m InboundMap) Without(child common.ObjectID) InboundMap {
	if _, ok := m[child]; !ok {
		return m
	}
	next := make(InboundMap, len(m))
	for k, v := range m {
		if k != child {
			next[k] = v
		}
	}
	return next
}
