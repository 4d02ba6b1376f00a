package notifier

import (
	"context"

	"github.com/google/uuid"

	"github.com/arvanplay/gamecore/pkg/games/types"
)

// Notifier delivers game events to clients. Delivery is best-effort and
// bounded: a slow or disconnected subscriber is skipped, never allowed
// to stall a running game.
type Notifier interface {
	// Broadcast delivers an event to every participant of a game.
	Broadcast(ctx context.Context, gameID uuid.UUID, event types.Event)
	// Notify delivers an event to a single participant.
	Notify(ctx context.Context, gameID uuid.UUID, playerID uuid.UUID, event types.Event)
}
