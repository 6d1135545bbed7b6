package events

import "sync"

// Event represents a structured state change emitted by the ledger.
type Event interface {
	EventType() string
}

// Emitter broadcasts events to downstream subscribers (e.g. RPC, indexers).
type Emitter interface {
	Emit(Event)
}

// NoopEmitter is a helper that satisfies the Emitter interface while discarding
// all events. It is useful when a component wants to optionally expose events.
type NoopEmitter struct{}

// Emit implements the Emitter interface.
func (NoopEmitter) Emit(Event) {}

// Recorder buffers events emitted while a state transition is in flight so
// they can be published only once the transition commits. A transition that
// aborts discards its buffered events alongside its state mutations.
type Recorder struct {
	mu      sync.Mutex
	pending []Event
}

// Emit implements the Emitter interface by appending to the pending buffer.
func (r *Recorder) Emit(e Event) {
	if r == nil || e == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pending = append(r.pending, e)
}

// Drain returns the buffered events and clears the buffer.
func (r *Recorder) Drain() []Event {
	if r == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	drained := r.pending
	r.pending = nil
	return drained
}

// Discard drops any buffered events without publishing them.
func (r *Recorder) Discard() {
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pending = nil
}

// Hub fans events out to every registered subscriber.
type Hub struct {
	mu   sync.RWMutex
	subs []Emitter
}

// Subscribe registers an additional downstream emitter. Nil subscribers are
// ignored.
func (h *Hub) Subscribe(e Emitter) {
	if h == nil || e == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.subs = append(h.subs, e)
}

// Emit implements the Emitter interface by forwarding to every subscriber.
func (h *Hub) Emit(e Event) {
	if h == nil || e == nil {
		return
	}
	h.mu.RLock()
	subs := make([]Emitter, len(h.subs))
	copy(subs, h.subs)
	h.mu.RUnlock()
	for _, sub := range subs {
		sub.Emit(e)
	}
}
