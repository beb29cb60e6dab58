package crdtpatch

import "github.com/luvjson/crdtfront/common"

// DiffAction enumerates the actions a backend-produced Diff may carry
// (spec.md §4.3's table).
type DiffAction string

const (
	DiffActionCreate DiffAction = "create"
	DiffActionSet    DiffAction = "set"
	DiffActionInsert DiffAction = "insert"
	DiffActionRemove DiffAction = "remove"
)

// DiffTargetType says what kind of node a "create" diff should allocate.
type DiffTargetType string

const (
	DiffTargetMap  DiffTargetType = "map"
	DiffTargetList DiffTargetType = "list"
)

// ConflictCandidate is one losing value recorded alongside a diff's winning
// value when concurrent writes raced on the same field.
type ConflictCandidate struct {
	Actor common.ActorID `json:"actor"`
	Value any            `json:"value,omitempty"`
	Link  common.ObjectID `json:"link,omitempty"`
}

// Diff is one entry in a Patch's diff list (spec.md §4.3).
type Diff struct {
	Action DiffAction     `json:"action"`
	Type   DiffTargetType `json:"type,omitempty"`
	Obj    common.ObjectID `json:"obj"`

	// Key addresses a map field.
	Key string `json:"key,omitempty"`
	// Index addresses a list position; for "set"/"remove" it overwrites/
	// removes the element at Index. For "insert" Validate requires it, but
	// crdtedit's patch applier places the element by ElemID order, not at
	// Index.
	Index *int `json:"index,omitempty"`

	// Value is the winning value for "set"/"insert". If Link is non-empty,
	// Value is ignored and the field becomes an ObjectRef to Link.
	Value any             `json:"value,omitempty"`
	Link  common.ObjectID `json:"link,omitempty"`

	// ElemID is the list element identity minted for an "insert" diff.
	ElemID string `json:"elemId,omitempty"`

	// Datatype annotates Value as a timestamp or counter.
	Datatype Datatype `json:"datatype,omitempty"`

	// Conflicts carries every losing candidate when this diff's obj/key
	// saw concurrent writes.
	Conflicts []ConflictCandidate `json:"conflicts,omitempty"`
}

// Patch is a backend-computed diff set plus causal metadata (spec.md §4.3).
type Patch struct {
	// Actor and Seq are present iff this patch acknowledges a local
	// request.
	Actor *common.ActorID `json:"actor,omitempty"`
	Seq   *uint64         `json:"seq,omitempty"`

	Clock common.Clock `json:"clock,omitempty"`
	Deps  common.Clock `json:"deps,omitempty"`

	CanUndo *bool `json:"canUndo,omitempty"`
	CanRedo *bool `json:"canRedo,omitempty"`

	Diffs []Diff `json:"diffs"`
}

// AcknowledgesActor reports whether this patch acknowledges a local
// request from actor: it must carry a matching actor and a seq.
func (p Patch) AcknowledgesActor(actor common.ActorID) bool {
	return p.Actor != nil && *p.Actor == actor && p.Seq != nil
}
