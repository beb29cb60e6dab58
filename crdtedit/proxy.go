package crdtedit

import (
	"github.com/pkg/errors"

	"github.com/luvjson/crdtfront/common"
	"github.com/luvjson/crdtfront/crdt"
)

// Proxy is a live, write-through view over one object in the document being
// edited inside a Change callback. Every mutator both updates the scratch
// overlay (so later reads in the same callback see it) and appends the
// corresponding op(s) to the enclosing ChangeContext.
type Proxy struct {
	ctx *ChangeContext
	id  common.ObjectID
}

// ObjectID returns the object this proxy views.
func (p *Proxy) ObjectID() common.ObjectID { return p.id }

// wrap turns a stored crdt.Value into the shape application code sees:
// nested objects become Proxies, counters become live CounterHandles,
// everything else renders to its plain Go value.
func (ctx *ChangeContext) wrap(obj common.ObjectID, key string, v crdt.Value) any {
	switch val := v.(type) {
	case crdt.ObjectRef:
		return &Proxy{ctx: ctx, id: val.ID}
	case crdt.Counter:
		return &CounterHandle{ctx: ctx, obj: obj, key: key}
	default:
		return val.Render()
	}
}

// Get reads a map field. A nil, nil return means the field is absent.
func (p *Proxy) Get(key string) (any, error) {
	m, err := p.ctx.doc.Cache().MapAt(p.id)
	if err != nil {
		return nil, err
	}
	v, ok := m.Get(key)
	if !ok {
		return nil, nil
	}
	return p.ctx.wrap(p.id, key, v), nil
}

// Keys returns the map's field names in sorted order.
func (p *Proxy) Keys() ([]string, error) {
	m, err := p.ctx.doc.Cache().MapAt(p.id)
	if err != nil {
		return nil, err
	}
	return m.Keys(), nil
}

// Set assigns value to a map field, emitting whatever op shape the value
// requires (set, or makeMap/makeList + link for a nested literal).
func (p *Proxy) Set(key string, value any) error {
	return p.ctx.assign(p.id, key, value)
}

// Delete removes a map field, emitting a "del" op.
func (p *Proxy) Delete(key string) error {
	m, err := p.ctx.doc.Cache().MapAt(p.id)
	if err != nil {
		return err
	}
	if _, ok := m.Get(key); !ok {
		return nil
	}
	p.ctx.ops = append(p.ctx.ops, opDel(p.id, key))
	newCache, removedChild, isRef, err := deleteValueAt(p.ctx.doc.Cache(), p.id, key)
	if err != nil {
		return errors.Wrap(err, "deleting field")
	}
	p.ctx.doc = p.ctx.doc.WithCache(newCache)
	if isRef {
		p.ctx.doc = p.ctx.doc.WithInbound(p.ctx.doc.Inbound().Without(removedChild))
	}
	p.ctx.clearCoalesce(p.id, key)
	return nil
}

// Len returns a list's element count.
func (p *Proxy) Len() (int, error) {
	l, err := p.ctx.doc.Cache().ListAt(p.id)
	if err != nil {
		return 0, err
	}
	return l.Len(), nil
}

// Index reads the list element at i.
func (p *Proxy) Index(i int) (any, error) {
	l, err := p.ctx.doc.Cache().ListAt(p.id)
	if err != nil {
		return nil, err
	}
	v, elemID, err := l.At(i)
	if err != nil {
		return nil, err
	}
	return p.ctx.wrap(p.id, elemID.String(), v), nil
}

// SetIndex overwrites the list element at i.
func (p *Proxy) SetIndex(i int, value any) error {
	l, err := p.ctx.doc.Cache().ListAt(p.id)
	if err != nil {
		return err
	}
	_, elemID, err := l.At(i)
	if err != nil {
		return err
	}
	return p.ctx.assign(p.id, elemID.String(), value)
}

// InsertAt splices values into the list starting at index i.
func (p *Proxy) InsertAt(i int, values ...any) error {
	if _, err := p.ctx.doc.Cache().ListAt(p.id); err != nil {
		return err
	}
	return p.ctx.insertAt(p.id, i, values...)
}

// Append inserts values at the end of the list.
func (p *Proxy) Append(values ...any) error {
	l, err := p.ctx.doc.Cache().ListAt(p.id)
	if err != nil {
		return err
	}
	return p.ctx.insertAt(p.id, l.Len(), values...)
}

// DeleteAt removes the list element at i, emitting a "del" op.
func (p *Proxy) DeleteAt(i int) error {
	l, err := p.ctx.doc.Cache().ListAt(p.id)
	if err != nil {
		return err
	}
	_, elemID, err := l.At(i)
	if err != nil {
		return err
	}
	key := elemID.String()
	p.ctx.ops = append(p.ctx.ops, opDel(p.id, key))
	newCache, removedChild, isRef, err := deleteValueAt(p.ctx.doc.Cache(), p.id, key)
	if err != nil {
		return errors.Wrap(err, "deleting element")
	}
	p.ctx.doc = p.ctx.doc.WithCache(newCache)
	if isRef {
		p.ctx.doc = p.ctx.doc.WithInbound(p.ctx.doc.Inbound().Without(removedChild))
	}
	p.ctx.clearCoalesce(p.id, key)
	return nil
}
