package broadcast

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/persona-chat/internal/types"
)

func recvEvent(t *testing.T, sub *Subscriber) types.LogEvent {
	t.Helper()
	select {
	case event, ok := <-sub.C:
		require.True(t, ok, "channel closed before event arrived")
		return event
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return types.LogEvent{}
	}
}

func TestHub_Subscribe_DeliversConnectedEvent(t *testing.T) {
	hub := NewHub()
	defer hub.Close()

	sub := hub.Subscribe()
	event := recvEvent(t, sub)

	assert.Equal(t, types.EventInfo, event.Kind)
	assert.Equal(t, "Connected to log stream", event.Message)
	assert.Equal(t, 1, hub.Count())
}

func TestHub_Publish_FanOutInOrder(t *testing.T) {
	hub := NewHub()
	defer hub.Close()

	a := hub.Subscribe()
	b := hub.Subscribe()
	recvEvent(t, a)
	recvEvent(t, b)

	hub.Logf("first")
	hub.Infof("second")
	hub.Errorf("third")

	for _, sub := range []*Subscriber{a, b} {
		assert.Equal(t, "first", recvEvent(t, sub).Message)
		assert.Equal(t, "second", recvEvent(t, sub).Message)
		third := recvEvent(t, sub)
		assert.Equal(t, "third", third.Message)
		assert.Equal(t, types.EventError, third.Kind)
	}
}

func TestHub_Unsubscribe_StopsDelivery(t *testing.T) {
	hub := NewHub()
	defer hub.Close()

	sub := hub.Subscribe()
	recvEvent(t, sub)

	hub.Unsubscribe(sub)
	assert.Equal(t, 0, hub.Count())

	// Channel is closed; receive returns immediately
	_, ok := <-sub.C
	assert.False(t, ok)

	// Publishing after unsubscribe must not panic
	hub.Logf("into the void")
}

func TestHub_Unsubscribe_Idempotent(t *testing.T) {
	hub := NewHub()
	defer hub.Close()

	sub := hub.Subscribe()
	hub.Unsubscribe(sub)
	hub.Unsubscribe(sub)
	hub.Unsubscribe(nil)
}

func TestHub_Publish_DropsSlowSubscriber(t *testing.T) {
	hub := NewHub()
	defer hub.Close()

	slow := hub.Subscribe()
	fast := hub.Subscribe()
	recvEvent(t, fast)

	// The slow subscriber never reads, so the connected event still occupies
	// one buffer slot and the hub drops it one publish before the fast one
	// would overflow.
	for i := 0; i < subscriberBuffer; i++ {
		hub.Logf("event %d", i)
	}

	assert.Equal(t, 1, hub.Count())

	// The fast subscriber still gets everything published before the drop
	assert.Equal(t, "event 0", recvEvent(t, fast).Message)

	// The dropped subscriber's channel ends after its buffered events
	count := 0
	for range slow.C {
		count++
	}
	assert.Equal(t, subscriberBuffer, count)
}

func TestHub_Close_ShutsDownSubscribers(t *testing.T) {
	hub := NewHub()
	sub := hub.Subscribe()
	recvEvent(t, sub)

	hub.Close()

	_, ok := <-sub.C
	assert.False(t, ok)
	assert.Equal(t, 0, hub.Count())

	// Subscribing to a closed hub yields an already-closed channel
	late := hub.Subscribe()
	_, ok = <-late.C
	assert.False(t, ok)

	hub.Publish(types.NewLogEvent(types.EventLog, "dropped"))
	hub.Close()
}
