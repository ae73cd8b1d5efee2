package recorder

import "sort"

// OnToggle subscribes a listener to recording-state changes and returns its
// unsubscribe handle. Removing a listener mid-fan-out does not affect delivery
// to the others.
func (o *Orchestrator) OnToggle(listener func(recording bool)) func() {
	o.mu.Lock()
	id := o.nextListener
	o.nextListener++
	o.listeners[id] = listener
	o.mu.Unlock()

	return func() {
		o.mu.Lock()
		delete(o.listeners, id)
		o.mu.Unlock()
	}
}

// notifyListeners fans the current recording flag out to a snapshot of the
// listener set, in registration order. A panicking listener is isolated so the
// remaining listeners still receive the notification.
func (o *Orchestrator) notifyListeners(recording bool) {
	o.mu.Lock()
	ids := make([]int, 0, len(o.listeners))
	for id := range o.listeners {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	snapshot := make([]func(bool), 0, len(ids))
	for _, id := range ids {
		snapshot = append(snapshot, o.listeners[id])
	}
	o.mu.Unlock()

	for _, listener := range snapshot {
		func() {
			defer func() {
				if r := recover(); r != nil {
					o.logger.Warn("toggle listener panicked", "panic", r)
				}
			}()
			listener(recording)
		}()
	}
}
