package crdtedit

import (
	"github.com/pkg/errors"

	"github.com/luvjson/crdtfront/common"
	"github.com/luvjson/crdtfront/crdt"
)

// CounterHandle is a live, mutable view over a Counter field, valid only
// for the lifetime of the ChangeContext it was obtained from. Holding onto
// one past the end of its Change callback and calling Increment/Decrement
// returns ErrReadOutsideChange.
type CounterHandle struct {
	ctx *ChangeContext
	obj common.ObjectID
	key string
}

// Value returns the counter's current value.
func (c *CounterHandle) Value() (int64, error) {
	v, err := getValueAt(c.ctx.doc.Cache(), c.obj, c.key)
	if err != nil {
		return 0, err
	}
	cnt, ok := v.(crdt.Counter)
	if !ok {
		return 0, common.ErrWrongNodeType{ID: c.obj, Expected: "counter", Got: "other"}
	}
	return cnt.Int64(), nil
}

// Increment adds delta to the counter.
func (c *CounterHandle) Increment(delta int64) error {
	return c.apply(delta)
}

// Decrement subtracts delta from the counter.
func (c *CounterHandle) Decrement(delta int64) error {
	return c.apply(-delta)
}

func (c *CounterHandle) apply(delta int64) error {
	if c.ctx.closed {
		return common.ErrReadOutsideChange{}
	}
	cur, err := getValueAt(c.ctx.doc.Cache(), c.obj, c.key)
	if err != nil {
		return err
	}
	cnt, ok := cur.(crdt.Counter)
	if !ok {
		return common.ErrWrongNodeType{ID: c.obj, Expected: "counter", Got: "other"}
	}
	newCnt := cnt.Add(delta)
	newCache, err := setValueAt(c.ctx.doc.Cache(), c.obj, c.key, newCnt)
	if err != nil {
		return errors.Wrap(err, "incrementing counter")
	}
	c.ctx.doc = c.ctx.doc.WithCache(newCache)
	return c.ctx.recordInc(c.obj, c.key, delta)
}

// ReadOnlyCounter is a snapshot of a counter's value obtained outside of a
// change. It can be read freely; Increment/Decrement always fail with
// ErrCounterReadOnly, since counter mutation is only legal inside a Change.
type ReadOnlyCounter struct {
	n int64
}

// Value returns the snapshotted counter value.
func (c ReadOnlyCounter) Value() int64 { return c.n }

// Increment always fails: a ReadOnlyCounter cannot be mutated.
func (c ReadOnlyCounter) Increment(int64) error { return common.ErrCounterReadOnly{} }

// Decrement always fails: a ReadOnlyCounter cannot be mutated.
func (c ReadOnlyCounter) Decrement(int64) error { return common.ErrCounterReadOnly{} }
