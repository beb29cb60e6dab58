package crdtpatch

import "github.com/luvjson/crdtfront/common"

// RequestType distinguishes a plain change from an undo/redo request.
type RequestType string

const (
	RequestTypeChange RequestType = "change"
	RequestTypeUndo   RequestType = "undo"
	RequestTypeRedo   RequestType = "redo"
)

// Change is the causally-dated batch of ops one actor produces in a single
// change() call, the exact wire shape of spec.md §6.
type Change struct {
	RequestType RequestType    `json:"requestType"`
	Actor       common.ActorID `json:"actor"`
	Seq         uint64         `json:"seq"`
	Deps        common.Clock   `json:"deps"`
	Message     string         `json:"message,omitempty"`
	Ops         []Op           `json:"ops"`
}
