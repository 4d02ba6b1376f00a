package notifier

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/arvanplay/gamecore/pkg/games/types"
	"github.com/arvanplay/gamecore/pkg/log"
)

const defaultWriteTimeout = 2 * time.Second

// Hub fans out game events over WebSocket connections. Connections are
// registered per game and player; a player may hold several connections.
type Hub struct {
	mu           sync.RWMutex
	games        map[uuid.UUID]map[uuid.UUID][]*websocket.Conn
	writeTimeout time.Duration
}

func NewHub() *Hub {
	return &Hub{
		games:        make(map[uuid.UUID]map[uuid.UUID][]*websocket.Conn),
		writeTimeout: defaultWriteTimeout,
	}
}

// Join registers a connection for a player in a game and returns a
// function that removes it again.
func (h *Hub) Join(gameID uuid.UUID, playerID uuid.UUID, conn *websocket.Conn) func() {
	h.mu.Lock()
	defer h.mu.Unlock()

	players, ok := h.games[gameID]
	if !ok {
		players = make(map[uuid.UUID][]*websocket.Conn)
		h.games[gameID] = players
	}
	players[playerID] = append(players[playerID], conn)

	return func() {
		h.remove(gameID, playerID, conn)
	}
}

func (h *Hub) remove(gameID uuid.UUID, playerID uuid.UUID, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	players, ok := h.games[gameID]
	if !ok {
		return
	}
	conns := players[playerID]
	for i, c := range conns {
		if c == conn {
			players[playerID] = append(conns[:i], conns[i+1:]...)
			break
		}
	}
	if len(players[playerID]) == 0 {
		delete(players, playerID)
	}
	if len(players) == 0 {
		delete(h.games, gameID)
	}
}

func (h *Hub) Broadcast(ctx context.Context, gameID uuid.UUID, event types.Event) {
	h.mu.RLock()
	var conns []*websocket.Conn
	for _, playerConns := range h.games[gameID] {
		conns = append(conns, playerConns...)
	}
	h.mu.RUnlock()

	for _, conn := range conns {
		go h.send(ctx, gameID, conn, event)
	}
}

func (h *Hub) Notify(ctx context.Context, gameID uuid.UUID, playerID uuid.UUID, event types.Event) {
	h.mu.RLock()
	conns := append([]*websocket.Conn(nil), h.games[gameID][playerID]...)
	h.mu.RUnlock()

	for _, conn := range conns {
		go h.send(ctx, gameID, conn, event)
	}
}

// send writes one event with a deadline. A subscriber that cannot keep
// up within the deadline is dropped.
func (h *Hub) send(ctx context.Context, gameID uuid.UUID, conn *websocket.Conn, event types.Event) {
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), h.writeTimeout)
	defer cancel()

	if err := wsjson.Write(writeCtx, conn, event); err != nil {
		log.Debug("Dropping subscriber for game %s: %v", gameID, err)
		conn.Close(websocket.StatusPolicyViolation, "subscriber too slow")
	}
}
