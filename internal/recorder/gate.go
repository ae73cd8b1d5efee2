package recorder

import (
	"context"

	"github.com/systemsculpt/scribe/internal/lifecycle"
)

// The session-completion gate is a single-slot channel representing "the
// current end-to-end session has fully settled". It is created when a session
// begins, closed exactly once when the session settles, and nil otherwise.

// beginSessionLifecycleLocked creates the gate if absent. Callers hold o.mu.
// A session begun while the previous session's transcription is still in
// flight joins that open gate; resolution re-arms the slot for it.
func (o *Orchestrator) beginSessionLifecycleLocked() {
	if o.settled == nil {
		o.settled = make(chan struct{})
	}
}

// resolveSessionLifecycle signals the gate and clears the slot. Resolving an
// already-settled lifecycle is a no-op, so the error funnel and completion
// handler can both settle defensively. When a later session joined the gate
// before the earlier one's transcription settled, the slot is re-armed so the
// later session's own settlement still has a gate to resolve.
func (o *Orchestrator) resolveSessionLifecycle() {
	o.mu.Lock()
	ch := o.settled
	o.settled = nil
	if o.session != nil || o.state != lifecycle.StateIdle {
		o.settled = make(chan struct{})
	}
	o.mu.Unlock()

	if ch != nil {
		close(ch)
	}
}

// WaitForSessionSettled blocks until the in-flight session fully settles,
// returning immediately when no session is pending.
func (o *Orchestrator) WaitForSessionSettled(ctx context.Context) error {
	o.mu.Lock()
	ch := o.settled
	o.mu.Unlock()

	if ch == nil {
		return nil
	}
	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
