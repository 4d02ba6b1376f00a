package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/arvanplay/gamecore/pkg/games/types"
)

type Repository interface {
	Close(ctx context.Context) error
	// CreateGame inserts a game and its roster.
	CreateGame(ctx context.Context, game *types.Game, roster []types.Participant) error
	LoadGame(ctx context.Context, gameID uuid.UUID) (*types.Game, error)
	// LoadRoster returns the game's participants ordered by position.
	LoadRoster(ctx context.Context, gameID uuid.UUID) ([]types.Participant, error)
	MarkGameStarted(ctx context.Context, gameID uuid.UUID, startedAt time.Time) error
	MarkGameAborted(ctx context.Context, gameID uuid.UUID, abortedAt time.Time) error
	// PersistSettlement records the winner, prize pool, per-player credit
	// deltas and wallet balances in a single transaction. It either fully
	// applies or leaves the game untouched.
	PersistSettlement(ctx context.Context, gameID uuid.UUID, winner *uuid.UUID, prizes map[uuid.UUID]int64) error
	// SaveRoundHistory stores the compressed round-by-round archive of a
	// completed game.
	SaveRoundHistory(ctx context.Context, gameID uuid.UUID, history []byte) error
}
