package realtime

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/speechsmith/speechsmith-backend/internal/platform/logger"
)

func mustTestLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	t.Cleanup(log.Sync)
	return log
}

func recvMessage(t *testing.T, ch <-chan SSEMessage, timeout time.Duration) SSEMessage {
	t.Helper()
	select {
	case msg := <-ch:
		return msg
	case <-time.After(timeout):
		t.Fatalf("timed out waiting for SSE message")
	}
	return SSEMessage{}
}

func TestSSEHubReconnectAndOrdering(t *testing.T) {
	hub := NewSSEHub(mustTestLogger(t))
	userID := uuid.New()
	channel := UserChannel(userID)

	clientA := hub.NewSSEClient(userID)
	hub.AddChannel(clientA, channel)

	first := SSEMessage{Channel: channel, Event: SSEEventHumanizeProgress, Data: map[string]any{"seq": 1}}
	second := SSEMessage{Channel: channel, Event: SSEEventHumanizeProgress, Data: map[string]any{"seq": 2}}
	hub.Broadcast(first)
	hub.Broadcast(second)

	gotFirst := recvMessage(t, clientA.Outbound, time.Second)
	gotSecond := recvMessage(t, clientA.Outbound, time.Second)
	if gotFirst.Data.(map[string]any)["seq"] != 1 {
		t.Fatalf("first message out of order: %+v", gotFirst)
	}
	if gotSecond.Data.(map[string]any)["seq"] != 2 {
		t.Fatalf("second message out of order: %+v", gotSecond)
	}

	hub.CloseClient(clientA)
	select {
	case _, ok := <-clientA.Outbound:
		if ok {
			t.Fatalf("clientA outbound should be closed after disconnect")
		}
	case <-time.After(500 * time.Millisecond):
		t.Fatalf("timed out waiting for clientA channel close")
	}

	clientB := hub.NewSSEClient(userID)
	hub.AddChannel(clientB, channel)
	reconnect := SSEMessage{Channel: channel, Event: SSEEventHumanizeCompleted, Data: map[string]any{"seq": 3}}
	hub.Broadcast(reconnect)
	gotReconnect := recvMessage(t, clientB.Outbound, time.Second)
	if gotReconnect.Event != SSEEventHumanizeCompleted {
		t.Fatalf("reconnect event: want=%s got=%s", SSEEventHumanizeCompleted, gotReconnect.Event)
	}
}

func TestSSEHubChannelIsolation(t *testing.T) {
	hub := NewSSEHub(mustTestLogger(t))
	userA := uuid.New()
	userB := uuid.New()

	clientA := hub.NewSSEClient(userA)
	hub.AddChannel(clientA, UserChannel(userA))
	clientB := hub.NewSSEClient(userB)
	hub.AddChannel(clientB, UserChannel(userB))

	hub.Broadcast(SSEMessage{Channel: UserChannel(userA), Event: SSEEventAnalysisCompleted})

	recvMessage(t, clientA.Outbound, time.Second)
	select {
	case msg := <-clientB.Outbound:
		t.Fatalf("clientB received another user's event: %+v", msg)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestSSEHubBoundedOutboundDrops(t *testing.T) {
	hub := NewSSEHub(mustTestLogger(t))
	userID := uuid.New()
	channel := UserChannel(userID)
	client := hub.NewSSEClient(userID)
	hub.AddChannel(client, channel)

	// Nothing drains Outbound; messages beyond the buffer are dropped, not
	// blocking the broadcaster.
	for i := 0; i < 50; i++ {
		hub.Broadcast(SSEMessage{Channel: channel, Event: SSEEventHumanizeProgress, Data: map[string]any{"seq": i}})
	}
	if got := len(client.Outbound); got != cap(client.Outbound) {
		t.Fatalf("outbound length: got %d want %d", got, cap(client.Outbound))
	}
}
