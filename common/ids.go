// Package common holds the identifier, clock and error primitives shared
// by the crdt, crdtpatch and crdtedit packages.
package common

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// ActorID is a 128-bit UUID identifying a replica that mints operations.
type ActorID string

// NewActorID mints a fresh random ActorID.
func NewActorID() ActorID {
	return ActorID(uuid.NewString())
}

// ParseActorID validates that s is a well-formed UUID and returns it as an ActorID.
func ParseActorID(s string) (ActorID, error) {
	if _, err := uuid.Parse(s); err != nil {
		return "", errInvalidActorID{raw: s, cause: err}
	}
	return ActorID(s), nil
}

// String returns the textual UUID.
func (a ActorID) String() string { return string(a) }

type errInvalidActorID struct {
	raw   string
	cause error
}

func (e errInvalidActorID) Error() string {
	return fmt.Sprintf("invalid actor id %q: %v", e.raw, e.cause)
}

func (e errInvalidActorID) Unwrap() error { return e.cause }

// ObjectID identifies a node (map or list) in the materialised tree.
// It is either RootID or a UUID minted when the node was created.
type ObjectID string

// RootID is the reserved object id of the document's root map.
const RootID ObjectID = "00000000-0000-0000-0000-000000000000"

// NewObjectID mints a fresh random ObjectID.
func NewObjectID() ObjectID {
	return ObjectID(uuid.NewString())
}

// String returns the textual object id.
func (o ObjectID) String() string { return string(o) }

// IsRoot reports whether o is the reserved root object id.
func (o ObjectID) IsRoot() bool { return o == RootID }

// ListHeadSentinel is the key used by an "ins" op to insert at the head of a list.
const ListHeadSentinel = "_head"

// ElemID identifies a position in a list CRDT: the pair (actor, counter),
// serialised as "<actor>:<counter>" and totally ordered by (counter, actor).
type ElemID struct {
	Actor   ActorID
	Counter uint64
}

// HeadElemID is the virtual predecessor of every list's first element.
var HeadElemID = ElemID{}

// String renders the elemId in "<actor>:<counter>" wire form.
func (e ElemID) String() string {
	if e == (ElemID{}) {
		return ListHeadSentinel
	}
	return fmt.Sprintf("%s:%d", e.Actor, e.Counter)
}

// ParseElemID parses the "<actor>:<counter>" wire form, or the head sentinel.
func ParseElemID(s string) (ElemID, error) {
	if s == ListHeadSentinel || s == "" {
		return ElemID{}, nil
	}
	idx := strings.LastIndexByte(s, ':')
	if idx < 0 {
		return ElemID{}, errMalformedElemID{raw: s}
	}
	actor, counterStr := s[:idx], s[idx+1:]
	counter, err := strconv.ParseUint(counterStr, 10, 64)
	if err != nil {
		return ElemID{}, errMalformedElemID{raw: s}
	}
	return ElemID{Actor: ActorID(actor), Counter: counter}, nil
}

type errMalformedElemID struct{ raw string }

func (e errMalformedElemID) Error() string { return fmt.Sprintf("malformed elem id: %q", e.raw) }

// Compare totally orders ElemIDs by (Counter, Actor) as required by spec:
// concurrent inserts are placed in ElemID order, not arrival order.
func (e ElemID) Compare(other ElemID) int {
	if e.Counter != other.Counter {
		if e.Counter < other.Counter {
			return -1
		}
		return 1
	}
	if e.Actor == other.Actor {
		return 0
	}
	if e.Actor < other.Actor {
		return -1
	}
	return 1
}

// IsHead reports whether e is the virtual head sentinel.
func (e ElemID) IsHead() bool { return e == (ElemID{}) }
