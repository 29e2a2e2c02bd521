package handlers

import (
	"encoding/json"
	"errors"
	"net"
	"sync"
	"testing"
	"time"

	fastws "github.com/fasthttp/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeSubscriber struct {
	mu       sync.Mutex
	messages [][]byte
	fail     bool
	closed   bool
	block    chan struct{} // when set, WriteMessage waits on it
}

func (f *fakeSubscriber) WriteMessage(_ int, data []byte) error {
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.New("connection closed")
	}
	f.messages = append(f.messages, data)
	return nil
}

func (f *fakeSubscriber) SetWriteDeadline(time.Time) error { return nil }

func (f *fakeSubscriber) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeSubscriber) received() [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]byte(nil), f.messages...)
}

func (f *fakeSubscriber) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

const waitFor, tick = 2 * time.Second, 5 * time.Millisecond

func TestHub_BroadcastReachesOwnerRoomOnly(t *testing.T) {
	hub := NewHub(zap.NewNop())
	owner, other := uuid.New(), uuid.New()

	mine, theirs := &fakeSubscriber{}, &fakeSubscriber{}
	hub.register(owner, mine)
	hub.register(other, theirs)

	hub.Broadcast(owner, HabitEvent{Type: EventHabitDeleted, OwnerID: owner.String(), HabitID: "h1"})

	require.Eventually(t, func() bool { return len(mine.received()) == 1 }, waitFor, tick)
	assert.Empty(t, theirs.received())

	var event HabitEvent
	require.NoError(t, json.Unmarshal(mine.received()[0], &event))
	assert.Equal(t, EventHabitDeleted, event.Type)
	assert.Equal(t, "h1", event.HabitID)
	assert.Nil(t, event.Data)
}

func TestHub_StalledSocketDoesNotBlockOtherOwners(t *testing.T) {
	hub := NewHub(zap.NewNop())
	stalledOwner, healthyOwner := uuid.New(), uuid.New()

	release := make(chan struct{})
	defer close(release)
	stalled, healthy := &fakeSubscriber{block: release}, &fakeSubscriber{}
	hub.register(stalledOwner, stalled)
	hub.register(healthyOwner, healthy)

	finished := make(chan struct{})
	go func() {
		hub.Broadcast(stalledOwner, HabitEvent{Type: EventHabitUpdated})
		hub.Broadcast(stalledOwner, HabitEvent{Type: EventHabitUpdated})
		hub.Broadcast(healthyOwner, HabitEvent{Type: EventHabitCreated})
		finished <- struct{}{}
	}()

	select {
	case <-finished:
	case <-time.After(waitFor):
		t.Fatal("broadcast blocked behind a socket that never finishes writing")
	}
	assert.Eventually(t, func() bool { return len(healthy.received()) == 1 }, waitFor, tick)
}

func TestHub_DropsClientWhoseQueueIsFull(t *testing.T) {
	hub := NewHub(zap.NewNop())
	owner := uuid.New()

	release := make(chan struct{})
	defer close(release)
	slow := &fakeSubscriber{block: release}
	hub.register(owner, slow)

	for i := 0; i < sendBuffer+2; i++ {
		hub.Broadcast(owner, HabitEvent{Type: EventHabitUpdated})
	}

	assert.Equal(t, 0, hub.Subscribers(owner))
}

func TestHub_FailedWriteDropsOnlyThatClient(t *testing.T) {
	hub := NewHub(zap.NewNop())
	owner := uuid.New()

	broken, ok := &fakeSubscriber{fail: true}, &fakeSubscriber{}
	hub.register(owner, broken)
	hub.register(owner, ok)

	hub.Broadcast(owner, HabitEvent{Type: EventHabitCreated})

	assert.Eventually(t, func() bool { return len(ok.received()) == 1 }, waitFor, tick)
	assert.Eventually(t, broken.isClosed, waitFor, tick)
	assert.Eventually(t, func() bool { return hub.Subscribers(owner) == 1 }, waitFor, tick)
}

func TestHub_UnregisterStopsWriterAndClosesConnection(t *testing.T) {
	hub := NewHub(zap.NewNop())
	owner := uuid.New()
	sub := &fakeSubscriber{}

	c := hub.register(owner, sub)
	assert.Equal(t, 1, hub.Subscribers(owner))

	hub.unregister(owner, c)
	hub.unregister(owner, c)

	select {
	case <-c.stopped:
	case <-time.After(waitFor):
		t.Fatal("write loop did not stop")
	}
	assert.True(t, sub.isClosed())
	assert.Equal(t, 0, hub.Subscribers(owner))
	assert.NotContains(t, hub.rooms, owner)

	hub.Broadcast(owner, HabitEvent{Type: EventHabitUpdated})
	assert.Empty(t, sub.received())
}

func TestHub_NilIsSafe(t *testing.T) {
	var hub *Hub
	assert.NotPanics(t, func() {
		hub.Broadcast(uuid.New(), HabitEvent{Type: EventHabitCreated})
	})
	assert.Zero(t, hub.Subscribers(uuid.New()))
}

// serveHub listens on a loopback port and returns the ws:// base URL.
func serveHub(t *testing.T, hub *Hub) string {
	t.Helper()
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	app.Use("/ws", hub.Upgrade())
	app.Get("/ws/habits/:ownerId", websocket.New(hub.Handle))

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = app.Listener(ln) }()
	t.Cleanup(func() { _ = app.Shutdown() })

	return "ws://" + ln.Addr().String()
}

func TestHub_HandleDeliversEventsToOwner(t *testing.T) {
	hub := NewHub(zap.NewNop())
	base := serveHub(t, hub)
	owner := uuid.New()

	conn, _, err := fastws.DefaultDialer.Dial(base+"/ws/habits/"+owner.String(), nil)
	require.NoError(t, err)

	require.Eventually(t, func() bool { return hub.Subscribers(owner) == 1 }, waitFor, tick)
	hub.Broadcast(owner, HabitEvent{Type: EventHabitCreated, OwnerID: owner.String(), HabitID: "h1"})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(waitFor)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var event HabitEvent
	require.NoError(t, json.Unmarshal(data, &event))
	assert.Equal(t, EventHabitCreated, event.Type)
	assert.Equal(t, "h1", event.HabitID)

	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool { return hub.Subscribers(owner) == 0 }, waitFor, tick)
}

func TestHub_HandleClosesInvalidOwner(t *testing.T) {
	hub := NewHub(zap.NewNop())
	base := serveHub(t, hub)

	conn, _, err := fastws.DefaultDialer.Dial(base+"/ws/habits/not-a-uuid", nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(waitFor)))
	_, _, err = conn.ReadMessage()
	assert.True(t, fastws.IsCloseError(err, fastws.CloseUnsupportedData), "got %v", err)
}
