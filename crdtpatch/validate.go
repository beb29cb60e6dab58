package crdtpatch

import (
	"strconv"

	"github.com/luvjson/crdtfront/common"
)

// Validate checks that d carries the fields its action requires, returning
// common.ErrMalformedPatch otherwise.
func (d Diff) Validate() error {
	if d.Obj == "" {
		return common.ErrMalformedPatch{Reason: "diff missing obj"}
	}
	switch d.Action {
	case DiffActionCreate:
		if d.Type != DiffTargetMap && d.Type != DiffTargetList {
			return common.ErrMalformedPatch{Reason: "create diff missing a valid type"}
		}
	case DiffActionSet:
		if d.Key == "" && d.Index == nil {
			return common.ErrMalformedPatch{Reason: "set diff missing key or index"}
		}
	case DiffActionInsert:
		if d.Index == nil {
			return common.ErrMalformedPatch{Reason: "insert diff missing index"}
		}
		if d.ElemID == "" {
			return common.ErrMalformedPatch{Reason: "insert diff missing elemId"}
		}
	case DiffActionRemove:
		if d.Key == "" && d.Index == nil {
			return common.ErrMalformedPatch{Reason: "remove diff missing key or index"}
		}
	default:
		return common.ErrMalformedPatch{Reason: "unknown diff action: " + string(d.Action)}
	}
	return nil
}

// Validate checks every diff in p in order.
func (p Patch) Validate() error {
	for i, d := range p.Diffs {
		if err := d.Validate(); err != nil {
			return common.ErrMalformedPatch{Reason: err.Error() + " at index " + strconv.Itoa(i)}
		}
	}
	return nil
}
