package progress

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTracker_AccumulatesIncrements(t *testing.T) {
	tracker := NewTracker()
	id, updates := tracker.Subscribe()
	defer tracker.Unsubscribe(id)

	require.True(t, tracker.Apply(10, "reading data"))
	require.True(t, tracker.Apply(25, "rendering"))
	require.True(t, tracker.Apply(15, "encoding"))

	var totals []int
	for i := 0; i < 3; i++ {
		update := <-updates
		totals = append(totals, update.Total)
	}
	require.Equal(t, []int{10, 35, 50}, totals)
	require.Equal(t, 50, tracker.Total())
}

func TestTracker_RejectsOutOfRangeIncrements(t *testing.T) {
	tracker := NewTracker()
	id, updates := tracker.Subscribe()
	defer tracker.Unsubscribe(id)

	require.False(t, tracker.Apply(-5, "negative"))
	require.False(t, tracker.Apply(150, "too large"))

	require.Equal(t, 0, tracker.Total())
	select {
	case update := <-updates:
		t.Fatalf("unexpected broadcast: %+v", update)
	default:
	}
}

func TestTracker_CompleteForcesTotal(t *testing.T) {
	tracker := NewTracker()
	id, updates := tracker.Subscribe()
	defer tracker.Unsubscribe(id)

	tracker.Apply(30, "working")
	tracker.Complete("done")

	<-updates
	update := <-updates
	require.Equal(t, 100, update.Total)
	require.Equal(t, "done", update.Message)
}

func TestTracker_ResetClosesSubscribers(t *testing.T) {
	tracker := NewTracker()
	_, updates := tracker.Subscribe()

	tracker.Apply(40, "working")
	tracker.Reset()

	// Drain the pending update, then observe the close.
	<-updates
	_, open := <-updates
	require.False(t, open)
	require.Equal(t, 0, tracker.Total())
}

func TestTracker_LateSubscriberSeesOnlyFutureUpdates(t *testing.T) {
	tracker := NewTracker()
	tracker.Apply(10, "early")

	id, updates := tracker.Subscribe()
	defer tracker.Unsubscribe(id)

	tracker.Apply(20, "late")

	update := <-updates
	// The late subscriber never saw the first broadcast, but the total still
	// reflects it.
	require.Equal(t, 30, update.Total)
	select {
	case <-updates:
		t.Fatal("expected exactly one pending update")
	default:
	}
}

func TestRegistry_SeparatesStreams(t *testing.T) {
	registry := NewRegistry()

	a := registry.Get("fingerprint-a")
	b := registry.Get("fingerprint-b")
	require.NotSame(t, a, b)

	a.Apply(40, "a")
	require.Equal(t, 40, a.Total())
	require.Equal(t, 0, b.Total())

	// Same key yields the same tracker.
	require.Same(t, a, registry.Get("fingerprint-a"))

	// Empty key maps to the shared default stream.
	require.Same(t, registry.Get(""), registry.Get(DefaultStream))
}

func TestRegistry_RemoveResetsTracker(t *testing.T) {
	registry := NewRegistry()
	tracker := registry.Get("fp")
	_, updates := tracker.Subscribe()

	registry.Remove("fp")

	_, open := <-updates
	require.False(t, open)
	require.NotSame(t, tracker, registry.Get("fp"))
}
