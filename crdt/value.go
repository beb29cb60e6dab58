package crdt

import (
	"time"

	"github.com/luvjson/crdtfront/common"
)

// Value is the tagged sum of everything a field or list element can hold:
// a JSON primitive, a timestamp, a counter, or a reference to another node.
type Value interface {
	// Render returns the plain Go value an application sees when it reads
	// this field — the materialised-view projection of spec.md §4.5.
	Render() any
	isValue()
}

// Primitive wraps null, bool, int64, float64 or string.
type Primitive struct {
	V any
}

// NewPrimitive wraps v as a Primitive value.
func NewPrimitive(v any) Primitive { return Primitive{V: v} }

func (p Primitive) Render() any { return p.V }
func (Primitive) isValue()      {}

// Timestamp stores a millisecond-precision instant. Reading it back
// preserves the millisecond count exactly, as spec.md §4.5 requires.
type Timestamp struct {
	millis int64
}

// NewTimestamp truncates t to millisecond precision.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{millis: t.UnixMilli()}
}

// TimestampFromMillis builds a Timestamp from a raw millisecond count.
func TimestampFromMillis(ms int64) Timestamp { return Timestamp{millis: ms} }

// Millis returns the wrapped millisecond count.
func (t Timestamp) Millis() int64 { return t.millis }

// Time returns the host language's native time value.
func (t Timestamp) Time() time.Time { return time.UnixMilli(t.millis).UTC() }

func (t Timestamp) Render() any { return t.Time() }
func (Timestamp) isValue()      {}

// Counter is a numeric CRDT counter. It behaves as a number under
// arithmetic (Int64, Add) but is a distinct Go type from int64/float64, so
// reflect.DeepEqual(counter, int64(n)) is false even when the payloads
// match — spec.md §4.5's "structurally distinguishable" requirement.
type Counter struct {
	n int64
}

// NewCounter wraps n as a fresh Counter value.
func NewCounter(n int64) Counter { return Counter{n: n} }

// Int64 returns the counter's current value.
func (c Counter) Int64() int64 { return c.n }

// Add returns a new Counter with delta applied; Counter is immutable like
// every other Value, mutation happens through crdtedit's live handle.
func (c Counter) Add(delta int64) Counter { return Counter{n: c.n + delta} }

func (c Counter) Render() any { return c.n }
func (Counter) isValue()      {}

// ObjectRef links a field or list element to a nested map/list node.
type ObjectRef struct {
	ID common.ObjectID
}

// NewObjectRef wraps id as an ObjectRef value.
func NewObjectRef(id common.ObjectID) ObjectRef { return ObjectRef{ID: id} }

func (r ObjectRef) Render() any { return r.ID }
func (ObjectRef) isValue()      {}
