// Package crdtpatch defines the wire format exchanged with the backend:
// the Change a frontend change produces, and the Patch a backend diff
// arrives as. Types here are intentionally backend-agnostic — they carry
// plain JSON-shaped values, not crdt.Value — so this package has no
// dependency on package crdt and can be marshalled straight onto a wire.
package crdtpatch

import "github.com/luvjson/crdtfront/common"

// Action enumerates the operations a Change's op list may contain. The
// ins/insert naming split of spec.md §6 is deliberate: "ins" is a frontend
// op, "insert" (see Diff) is a backend diff action — they are never
// confused.
type Action string

const (
	ActionMakeMap Action = "makeMap"
	ActionMakeList Action = "makeList"
	ActionSet     Action = "set"
	ActionDel     Action = "del"
	ActionLink    Action = "link"
	ActionIns     Action = "ins"
	ActionInc     Action = "inc"
)

// Datatype annotates a Set op's value when it is not a plain JSON
// primitive.
type Datatype string

const (
	DatatypeTimestamp Datatype = "timestamp"
	DatatypeCounter   Datatype = "counter"
)

// Op is one entry in a Change's op list (spec.md §6 wire format).
type Op struct {
	Action Action `json:"action"`

	// Obj is the object the op applies to.
	Obj common.ObjectID `json:"obj"`

	// Key is a map field name, or (for list ops) an ElemID string — the
	// predecessor for "ins", the target element for "set"/"del"/"inc".
	Key string `json:"key,omitempty"`

	// Value carries the op's payload for "set"/"inc"; for "link" it is the
	// linked ObjectID.
	Value any `json:"value,omitempty"`

	// Elem is the counter minted for a new list element by "ins".
	Elem uint64 `json:"elem,omitempty"`

	// Datatype annotates Value when it is a timestamp or counter rather
	// than a plain JSON primitive.
	Datatype Datatype `json:"datatype,omitempty"`
}
