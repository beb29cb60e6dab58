package common

import "fmt"

// ErrActorIDUnset is returned when a change is attempted before the
// document's actor id has been set via SetActorID.
type ErrActorIDUnset struct{}

func (e ErrActorIDUnset) Error() string {
	return "actor id is unset: call SetActorID before making changes"
}

// ErrCannotOverwriteCounter is returned when a change assigns a plain value
// to a key that currently holds a Counter. Counters are never silently
// overwritten by assignment.
type ErrCannotOverwriteCounter struct {
	Obj ObjectID
	Key string
}

func (e ErrCannotOverwriteCounter) Error() string {
	return fmt.Sprintf("cannot overwrite counter at %s.%s with a plain assignment", e.Obj, e.Key)
}

// ErrUnsupportedValue is returned when a value has no CRDT representation
// (functions, channels, cyclic references not routed through the document).
type ErrUnsupportedValue struct {
	Kind string
}

func (e ErrUnsupportedValue) Error() string {
	return fmt.Sprintf("unsupported value of kind %s", e.Kind)
}

// ErrMismatchedSequence is returned when a patch's seq does not match the
// head of the pending request queue.
type ErrMismatchedSequence struct {
	Expected uint64
	Got      uint64
}

func (e ErrMismatchedSequence) Error() string {
	return fmt.Sprintf("mismatched sequence: expected %d, got %d", e.Expected, e.Got)
}

// ErrReadOutsideChange is returned when a counter mutation is attempted
// outside of a change callback.
type ErrReadOutsideChange struct{}

func (e ErrReadOutsideChange) Error() string {
	return "counter mutation attempted outside of a change block"
}

// ErrCounterReadOnly is returned when increment/decrement is called on a
// Counter view obtained outside of a change block.
type ErrCounterReadOnly struct{}

func (e ErrCounterReadOnly) Error() string {
	return "counter is read-only outside of a change block"
}

// ErrMalformedPatch is returned when a patch is missing required diff
// fields or carries an unknown action.
type ErrMalformedPatch struct {
	Reason string
}

func (e ErrMalformedPatch) Error() string {
	return fmt.Sprintf("malformed patch: %s", e.Reason)
}

// ErrNoBackendState is returned by Undo/Redo when no BackendState has been
// attached to the document (undo/redo logs are an out-of-scope backend
// concern; the frontend only forwards to whatever is attached).
type ErrNoBackendState struct{}

func (e ErrNoBackendState) Error() string {
	return "no backend state attached: undo/redo require a BackendState"
}

// ErrNodeNotFound is returned when an ObjectID has no entry in the cache.
type ErrNodeNotFound struct {
	ID ObjectID
}

func (e ErrNodeNotFound) Error() string {
	return fmt.Sprintf("node not found: %s", e.ID)
}

// ErrFieldNotFound is returned when a map node exists but has no entry for
// the requested key, as distinct from ErrNodeNotFound's missing-object case.
type ErrFieldNotFound struct {
	Obj ObjectID
	Key string
}

func (e ErrFieldNotFound) Error() string {
	return fmt.Sprintf("field %q not found on %s", e.Key, e.Obj)
}

// ErrWrongNodeType is returned when an operation expects a map and finds a
// list, or vice versa.
type ErrWrongNodeType struct {
	ID       ObjectID
	Expected string
	Got      string
}

func (e ErrWrongNodeType) Error() string {
	return fmt.Sprintf("node %s is a %s, expected %s", e.ID, e.Got, e.Expected)
}

// ErrIndexOutOfRange is returned by list operations on an out-of-range index.
type ErrIndexOutOfRange struct {
	ID    ObjectID
	Index int
	Len   int
}

func (e ErrIndexOutOfRange) Error() string {
	return fmt.Sprintf("index %d out of range for list %s of length %d", e.Index, e.ID, e.Len)
}
