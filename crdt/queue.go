package crdt

import "github.com/luvjson/crdtfront/crdtpatch"

// PendingRequest is an optimistic, un-acknowledged local change sitting in
// the document's request queue (spec.md §3/§4.2). Before starts as the
// document snapshot the change was built against; while the request is at
// the head of the queue, crdtedit's patch applier replaces it with the
// authoritative state after each folded patch. Either way it holds the
// state without this or any later pending request, which a caller could
// roll back to if the request were rejected. Diffs is the locally-computed
// optimistic diff set recorded at commit time.
type PendingRequest struct {
	Change crdtpatch.Change
	Before *Document
	Diffs  []crdtpatch.Diff
}

// Queue is the ordered, append-only list of pending requests: the head
// always carries the smallest seq, and there are no gaps (spec.md
// invariant 5).
type Queue []PendingRequest

// Head returns the first pending request, if any.
func (q Queue) Head() (PendingRequest, bool) {
	if len(q) == 0 {
		return PendingRequest{}, false
	}
	return q[0], true
}

// Push returns a new Queue with req appended.
func (q Queue) Push(req PendingRequest) Queue {
	next := make(Queue, len(q), len(q)+1)
	copy(next, q)
	return append(next, req)
}

// PopFront returns a new Queue with the head request removed.
func (q Queue) PopFront() Queue {
	if len(q) == 0 {
		return q
	}
	next := make(Queue, len(q)-1)
	copy(next, q[1:])
	return next
}

// Len returns the number of pending requests.
func (q Queue) Len() int { return len(q) }
