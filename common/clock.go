package common

// Clock is a vector clock mapping actor to the highest sequence number
// observed from that actor. Clocks are immutable; every mutator returns
// a new Clock value.
type Clock map[ActorID]uint64

// Get returns the component for actor, or 0 if absent.
func (c Clock) Get(actor ActorID) uint64 {
	return c[actor]
}

// With returns a copy of c with actor's component set to seq, unless seq is
// lower than the current value (clocks never decrease in any component).
func (c Clock) With(actor ActorID, seq uint64) Clock {
	if existing, ok := c[actor]; ok && existing >= seq {
		return c
	}
	next := c.Clone()
	next[actor] = seq
	return next
}

// Without returns a copy of c with actor's entry removed, used when
// building the deps of a new change (the actor's own self-dependency is
// implicit in seq, not carried in deps).
func (c Clock) Without(actor ActorID) Clock {
	if _, ok := c[actor]; !ok {
		return c
	}
	next := make(Clock, len(c))
	for k, v := range c {
		if k == actor {
			continue
		}
		next[k] = v
	}
	return next
}

// Merge returns the component-wise max of c and other. Neither argument is
// mutated.
func (c Clock) Merge(other Clock) Clock {
	if len(other) == 0 {
		return c
	}
	next := c.Clone()
	for actor, seq := range other {
		if existing, ok := next[actor]; !ok || seq > existing {
			next[actor] = seq
		}
	}
	return next
}

// Clone returns a shallow copy of c.
func (c Clock) Clone() Clock {
	next := make(Clock, len(c))
	for k, v := range c {
		next[k] = v
	}
	return next
}

// Equal reports whether c and other carry the same components.
func (c Clock) Equal(other Clock) bool {
	if len(c) != len(other) {
		return false
	}
	for k, v := range c {
		if other[k] != v {
			return false
		}
	}
	return true
}
