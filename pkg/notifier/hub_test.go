package notifier

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/arvanplay/gamecore/pkg/games/types"
)

func TestHubJoinAndLeave(t *testing.T) {
	hub := NewHub()
	gameID := uuid.New()
	playerA := uuid.New()
	playerB := uuid.New()

	connA1 := &websocket.Conn{}
	connA2 := &websocket.Conn{}
	connB := &websocket.Conn{}

	leaveA1 := hub.Join(gameID, playerA, connA1)
	leaveA2 := hub.Join(gameID, playerA, connA2)
	leaveB := hub.Join(gameID, playerB, connB)

	hub.mu.RLock()
	assert.Len(t, hub.games[gameID][playerA], 2)
	assert.Len(t, hub.games[gameID][playerB], 1)
	hub.mu.RUnlock()

	leaveA1()
	hub.mu.RLock()
	require.Len(t, hub.games[gameID][playerA], 1)
	assert.Same(t, connA2, hub.games[gameID][playerA][0])
	hub.mu.RUnlock()

	// Leaving twice is harmless.
	leaveA1()
	leaveA2()
	leaveB()

	hub.mu.RLock()
	assert.Empty(t, hub.games, "empty games are removed from the hub")
	hub.mu.RUnlock()
}

// dialJoined connects a WebSocket client whose server end is registered
// with the hub, and returns the client connection for reading.
func dialJoined(t *testing.T, ctx context.Context, hub *Hub, gameID uuid.UUID, playerID uuid.UUID) *websocket.Conn {
	t.Helper()

	joined := make(chan struct{})
	stop := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		leave := hub.Join(gameID, playerID, conn)
		defer leave()
		close(joined)
		<-stop
		conn.Close(websocket.StatusNormalClosure, "")
	}))
	t.Cleanup(func() {
		close(stop)
		srv.Close()
	})

	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close(websocket.StatusNormalClosure, "") })

	<-joined
	return conn
}

func TestHubBroadcastDelivers(t *testing.T) {
	hub := NewHub()
	gameID := uuid.New()
	playerID := uuid.New()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	conn := dialJoined(t, ctx, hub, gameID, playerID)

	hub.Broadcast(ctx, gameID, types.Event{
		Type: types.EventTypeMultiplierUpdate,
		Data: types.MultiplierUpdateEvent{Multiplier: 1.5},
	})

	var event types.Event
	require.NoError(t, wsjson.Read(ctx, conn, &event))
	assert.Equal(t, types.EventTypeMultiplierUpdate, event.Type)
}

func TestHubNotifyTargetsOnePlayer(t *testing.T) {
	hub := NewHub()
	gameID := uuid.New()
	playerID := uuid.New()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	conn := dialJoined(t, ctx, hub, gameID, playerID)

	// An event for another player must not reach this connection; the
	// first read should see the event addressed to this player.
	hub.Notify(ctx, gameID, uuid.New(), types.Event{
		Type: types.EventTypeYourTurn,
		Data: types.YourTurnEvent{},
	})
	hub.Notify(ctx, gameID, playerID, types.Event{
		Type: types.EventTypeMultiplierUpdate,
		Data: types.MultiplierUpdateEvent{Multiplier: 2.0},
	})

	var event types.Event
	require.NoError(t, wsjson.Read(ctx, conn, &event))
	assert.Equal(t, types.EventTypeMultiplierUpdate, event.Type)
}
