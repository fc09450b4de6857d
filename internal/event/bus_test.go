package event

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSubscribePublishSync(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	var got []Event
	bus.Subscribe(VersionCreated, func(e Event) {
		got = append(got, e)
	})

	bus.PublishSync(Event{Type: VersionCreated, Data: VersionData{SessionID: "s1", Version: 2}})
	bus.PublishSync(Event{Type: SessionCompleted, Data: SessionData{SessionID: "s1"}})

	assert.Len(t, got, 1)
	assert.Equal(t, VersionCreated, got[0].Type)
}

func TestSubscribeAll(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	var mu sync.Mutex
	count := 0
	bus.SubscribeAll(func(e Event) {
		mu.Lock()
		count++
		mu.Unlock()
	})

	bus.PublishSync(Event{Type: SessionCreated})
	bus.PublishSync(Event{Type: GeneratorFallback})

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 2, count)
}

func TestUnsubscribe(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	count := 0
	unsub := bus.Subscribe(SessionCreated, func(e Event) { count++ })

	bus.PublishSync(Event{Type: SessionCreated})
	unsub()
	bus.PublishSync(Event{Type: SessionCreated})

	assert.Equal(t, 1, count)
}

func TestPublishAsync(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	done := make(chan struct{})
	bus.Subscribe(VersionCompressed, func(e Event) {
		close(done)
	})

	bus.Publish(Event{Type: VersionCompressed, Data: VersionData{SessionID: "s1", Version: 1}})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("subscriber was not invoked")
	}
}

func TestClosedBusDropsEvents(t *testing.T) {
	bus := NewBus()
	bus.Close()

	count := 0
	bus.Subscribe(SessionCreated, func(e Event) { count++ })
	bus.PublishSync(Event{Type: SessionCreated})

	assert.Equal(t, 0, count)
}
