// Package crdtedit is the top-level editing API: the mutation proxy that
// captures local writes as a minimal op list, and the patch applier that
// folds backend-authoritative diffs back into the materialised view.
package crdtedit

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/luvjson/crdtfront/common"
	"github.com/luvjson/crdtfront/crdt"
	"github.com/luvjson/crdtfront/crdtpatch"
)

// BackendState is the undo/redo log a document defers to. The frontend
// never implements undo/redo itself (spec Non-goals place the backend CRDT
// engine and its history log out of scope); Doc only forwards to whatever
// is attached via WithBackendState.
type BackendState interface {
	CanUndo() bool
	CanRedo() bool
	RequestUndo() error
	RequestRedo() error
}

// Option configures a Doc at Init time.
type Option func(*docOptions)

type docOptions struct {
	actor   *common.ActorID
	logger  *zap.Logger
	backend BackendState
}

// WithActorID binds actor at creation instead of calling SetActorID later.
func WithActorID(actor common.ActorID) Option {
	return func(o *docOptions) { o.actor = &actor }
}

// WithLogger attaches a zap logger used for reconciliation diagnostics.
// Without this option, Doc logs nothing.
func WithLogger(l *zap.Logger) Option {
	return func(o *docOptions) { o.logger = l }
}

// WithBackendState attaches the undo/redo log Undo/Redo/CanUndo/CanRedo
// delegate to.
func WithBackendState(b BackendState) Option {
	return func(o *docOptions) { o.backend = b }
}

// Doc is the document handle applications hold: an immutable snapshot plus
// the options fixed at Init (logger, backend). Every mutating method
// returns a new *Doc; the receiver is left untouched.
type Doc struct {
	inner   *crdt.Document
	logger  *zap.Logger
	backend BackendState
}

// Init creates a new, empty document. Pass WithActorID to bind an actor
// immediately, or call SetActorID before the first Change.
func Init(opts ...Option) *Doc {
	var o docOptions
	for _, opt := range opts {
		opt(&o)
	}
	logger := o.logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Doc{inner: crdt.Init(o.actor), logger: logger, backend: o.backend}
}

func (d *Doc) with(inner *crdt.Document) *Doc {
	return &Doc{inner: inner, logger: d.logger, backend: d.backend}
}

// SetActorID returns a new Doc bound to actor.
func (d *Doc) SetActorID(actor common.ActorID) *Doc {
	return d.with(d.inner.WithActorID(actor))
}

// GetActorID returns the document's actor id, if bound.
func (d *Doc) GetActorID() (common.ActorID, bool) {
	return d.inner.ActorID()
}

// View materialises the document into plain Go values.
func (d *Doc) View() (any, error) {
	return d.inner.View()
}

// GetObjectID returns the object id a proxy is backed by.
func (d *Doc) GetObjectID(p *Proxy) common.ObjectID {
	return p.id
}

// GetConflicts returns the recorded losing values for obj.key, if the most
// recent write there raced with a concurrent write.
func (d *Doc) GetConflicts(obj common.ObjectID, key string) (map[common.ActorID]crdt.Value, bool) {
	bucket, ok := d.inner.GetConflicts(obj, key)
	if !ok {
		return nil, false
	}
	return bucket, true
}

// GetCounter returns a read-only snapshot of the counter at obj.key.
// Mutating it requires a live handle obtained inside a Change.
func (d *Doc) GetCounter(obj common.ObjectID, key string) (ReadOnlyCounter, error) {
	v, err := getValueAt(d.inner.Cache(), obj, key)
	if err != nil {
		return ReadOnlyCounter{}, err
	}
	cnt, ok := v.(crdt.Counter)
	if !ok {
		return ReadOnlyCounter{}, common.ErrWrongNodeType{ID: obj, Expected: "counter", Got: "other"}
	}
	return ReadOnlyCounter{n: cnt.Int64()}, nil
}

// Change runs cb against a fresh ChangeContext rooted at the document, and
// commits the resulting op list as a new local request. If cb returns an
// error, the document is returned unmodified. If cb makes no mutating
// calls, Change returns (d, nil, nil): the receiver itself, unchanged.
func (d *Doc) Change(message string, cb func(root *Proxy) error) (*Doc, *crdtpatch.Change, error) {
	actor, ok := d.inner.ActorID()
	if !ok {
		return d, nil, common.ErrActorIDUnset{}
	}

	ctx := newChangeContext(d.inner, actor)
	if err := cb(ctx.Root()); err != nil {
		ctx.closed = true
		return d, nil, err
	}
	ctx.closed = true

	if len(ctx.ops) == 0 {
		return d, nil, nil
	}

	seq := d.inner.Seq() + 1
	deps := d.inner.Deps().Without(actor)
	change := crdtpatch.Change{
		RequestType: crdtpatch.RequestTypeChange,
		Actor:       actor,
		Seq:         seq,
		Deps:        deps,
		Message:     message,
		Ops:         ctx.ops,
	}

	req := crdt.PendingRequest{Change: change, Before: d.inner}
	finalDoc := ctx.doc.
		WithSeqAndMaxElem(seq, ctx.maxElem).
		WithRequests(d.inner.Requests().Push(req)).
		WithDeps(d.inner.Deps())

	d.logger.Debug("committed local change",
		zap.String("actor", string(actor)),
		zap.Uint64("seq", seq),
		zap.Int("ops", len(ctx.ops)),
	)

	return d.with(finalDoc), &change, nil
}

// EmptyChange commits a change with zero ops: a deliberate heartbeat that
// still advances seq and claims a slot in the request queue, distinct from
// a no-op callback (which leaves the document untouched).
func (d *Doc) EmptyChange(message string) (*Doc, *crdtpatch.Change) {
	actor, ok := d.inner.ActorID()
	if !ok {
		return d, nil
	}
	seq := d.inner.Seq() + 1
	deps := d.inner.Deps().Without(actor)
	change := crdtpatch.Change{
		RequestType: crdtpatch.RequestTypeChange,
		Actor:       actor,
		Seq:         seq,
		Deps:        deps,
		Message:     message,
	}
	req := crdt.PendingRequest{Change: change, Before: d.inner}
	finalDoc := d.inner.
		WithSeqAndMaxElem(seq, d.inner.MaxElemMap()).
		WithRequests(d.inner.Requests().Push(req))
	return d.with(finalDoc), &change
}

// ApplyPatch folds a backend-authoritative patch into the document,
// reconciling it against any pending local requests.
func (d *Doc) ApplyPatch(patch crdtpatch.Patch) (*Doc, error) {
	if err := patch.Validate(); err != nil {
		return d, err
	}
	newInner, err := applyPatch(d.inner, patch, d.logger)
	if err != nil {
		return d, errors.Wrap(err, "applying patch")
	}
	return d.with(newInner), nil
}

// CanUndo reports whether the attached BackendState has undo history.
func (d *Doc) CanUndo() bool { return d.backend != nil && d.backend.CanUndo() }

// CanRedo reports whether the attached BackendState has redo history.
func (d *Doc) CanRedo() bool { return d.backend != nil && d.backend.CanRedo() }

// Undo requests an undo from the attached BackendState.
func (d *Doc) Undo() error {
	if d.backend == nil {
		return common.ErrNoBackendState{}
	}
	return d.backend.RequestUndo()
}

// Redo requests a redo from the attached BackendState.
func (d *Doc) Redo() error {
	if d.backend == nil {
		return common.ErrNoBackendState{}
	}
	return d.backend.RequestRedo()
}

// GetBackendState returns the attached BackendState, or nil.
func (d *Doc) GetBackendState() BackendState { return d.backend }
