package lifecycle

import (
	"context"
	"sync"
)

// Scope is the cancellation boundary of one owning component. Everything
// started from its context is cancelled when the scope closes.
type Scope struct {
	ctx    context.Context
	cancel context.CancelFunc
}

func NewScope(parent context.Context) *Scope {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)
	return &Scope{ctx: ctx, cancel: cancel}
}

func (s *Scope) Context() context.Context {
	return s.ctx
}

func (s *Scope) Close() {
	s.cancel()
}

// Bind derives a context from ctx that is also cancelled when the scope
// closes. The returned cancel func must be called.
func (s *Scope) Bind(ctx context.Context) (context.Context, context.CancelFunc) {
	bound, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(s.ctx, cancel)
	return bound, func() {
		stop()
		cancel()
	}
}

// Slot enforces last-request-wins for one purpose: starting a new operation
// cancels the outstanding one, and only the newest operation may publish.
type Slot struct {
	mu         sync.Mutex
	generation uint64
	cancel     context.CancelFunc
}

// Ticket identifies one operation started on a Slot.
type Ticket struct {
	slot       *Slot
	generation uint64
	ctx        context.Context
	cancel     context.CancelFunc
}

// Start cancels any operation still running on the slot and returns a ticket
// whose context is derived from parent.
func (s *Slot) Start(parent context.Context) *Ticket {
	ctx, cancel := context.WithCancel(parent)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
	}
	s.generation++
	s.cancel = cancel

	return &Ticket{
		slot:       s,
		generation: s.generation,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Cancel stops the outstanding operation, if any. Its result will be
// discarded by Commit.
func (s *Slot) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.generation++
}

func (t *Ticket) Context() context.Context {
	return t.ctx
}

// Commit runs publish only if the ticket is still the newest on its slot and
// was not cancelled. The check and publish happen under the slot lock so a
// concurrent Start cannot interleave. It reports whether publish ran.
func (t *Ticket) Commit(publish func()) bool {
	s := t.slot
	s.mu.Lock()
	defer s.mu.Unlock()
	defer t.cancel()

	if s.generation != t.generation || t.ctx.Err() != nil {
		return false
	}
	s.cancel = nil
	if publish != nil {
		publish()
	}
	return true
}

// Abandon is called when the ticket ends without publishing. onCancel runs
// under the slot lock only if no newer operation has started, so it can
// reset shared state without clobbering a successor.
func (t *Ticket) Abandon(onCancel func()) {
	s := t.slot
	s.mu.Lock()
	defer s.mu.Unlock()
	defer t.cancel()

	if s.generation != t.generation {
		return
	}
	s.cancel = nil
	if onCancel != nil {
		onCancel()
	}
}

// Current reports whether the ticket is still the newest operation.
func (t *Ticket) Current() bool {
	s := t.slot
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation == t.generation && t.ctx.Err() == nil
}
