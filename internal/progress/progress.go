// Package progress tracks generation progress per stream and fans updates
// out to live subscribers. Trackers are handed out by a Registry keyed by
// request fingerprint rather than held in a process-wide global, so
// concurrent jobs do not interfere with each other's totals.
package progress

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/climateview/mapgen/internal/logger"
)

// DefaultStream is the stream used for progress events that carry no request
// fingerprint. The broker wire format does not require one.
const DefaultStream = "global"

// subscriberBuffer is the per-subscriber channel capacity. A subscriber that
// falls this far behind starts losing updates instead of blocking the
// broadcast.
const subscriberBuffer = 16

// Update is one broadcast progress event.
type Update struct {
	// Total is the running cumulative total. The JSON field is named
	// "increment" for compatibility with existing stream consumers.
	Total     int       `json:"increment"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// Tracker accumulates increments for one stream and broadcasts the running
// total to every subscriber. Late subscribers receive only future updates.
type Tracker struct {
	mu    sync.Mutex
	total int
	subs  map[uuid.UUID]chan Update
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{subs: make(map[uuid.UUID]chan Update)}
}

// Subscribe registers a new subscriber and returns its ID and update channel.
// The channel is closed on Reset or Unsubscribe.
func (t *Tracker) Subscribe() (uuid.UUID, <-chan Update) {
	t.mu.Lock()
	defer t.mu.Unlock()

	id := uuid.New()
	ch := make(chan Update, subscriberBuffer)
	t.subs[id] = ch
	return id, ch
}

// Unsubscribe removes a subscriber and closes its channel.
func (t *Tracker) Unsubscribe(id uuid.UUID) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if ch, ok := t.subs[id]; ok {
		delete(t.subs, id)
		close(ch)
	}
}

// Apply validates the increment, adds it to the running total and broadcasts
// the new total. An out-of-range increment is logged and discarded: no state
// change, no broadcast. Returns whether the increment was applied.
func (t *Tracker) Apply(delta int, message string) bool {
	if delta < 0 || delta > 100 {
		logger.Warnf("Discarding out-of-range progress increment: %d", delta)
		return false
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.total += delta
	t.broadcastLocked(message)
	return true
}

// Complete forces the running total to 100 and broadcasts. The done-event
// handler calls this so clients see completion even if increments were lost.
func (t *Tracker) Complete(message string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.total = 100
	t.broadcastLocked(message)
}

// Total returns the current running total.
func (t *Tracker) Total() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.total
}

// Reset zeroes the total and completes the stream for existing subscribers
// by closing their channels. New subscribers start from a clean state.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.total = 0
	for id, ch := range t.subs {
		delete(t.subs, id)
		close(ch)
	}
}

func (t *Tracker) broadcastLocked(message string) {
	update := Update{
		Total:     t.total,
		Message:   message,
		Timestamp: time.Now().UTC(),
	}
	for id, ch := range t.subs {
		select {
		case ch <- update:
		default:
			logger.Warnf("Progress subscriber %s is not keeping up, dropping update", id)
		}
	}
}

// Registry hands out trackers keyed by stream name, creating them on demand.
type Registry struct {
	mu       sync.Mutex
	trackers map[string]*Tracker
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{trackers: make(map[string]*Tracker)}
}

// Get returns the tracker for the given stream, creating it if necessary.
// An empty stream name maps to DefaultStream.
func (r *Registry) Get(stream string) *Tracker {
	if stream == "" {
		stream = DefaultStream
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.trackers[stream]
	if !ok {
		t = NewTracker()
		r.trackers[stream] = t
	}
	return t
}

// Remove resets and drops the tracker for the given stream.
func (r *Registry) Remove(stream string) {
	r.mu.Lock()
	t, ok := r.trackers[stream]
	delete(r.trackers, stream)
	r.mu.Unlock()

	if ok {
		t.Reset()
	}
}
