package games

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/arvanplay/gamecore/pkg/games/types"
	"github.com/arvanplay/gamecore/pkg/repositories"
)

// Creator builds a session for a loaded game and roster.
type Creator func(deps Deps, game *types.Game, roster []types.Participant) (Session, error)

// Factory creates sessions by game variant. New variants register a
// Creator; the dispatch logic never changes.
type Factory struct {
	deps     Deps
	creators map[types.GameVariant]Creator
}

func NewFactory(deps Deps) *Factory {
	return &Factory{
		deps:     deps,
		creators: make(map[types.GameVariant]Creator),
	}
}

func (f *Factory) Register(variant types.GameVariant, creator Creator) {
	f.creators[variant] = creator
}

// Create loads the game and its roster from the repository and builds
// the matching session.
func (f *Factory) Create(ctx context.Context, gameID uuid.UUID) (Session, error) {
	game, err := f.deps.Repository.LoadGame(ctx, gameID)
	if err != nil {
		if repositories.IsNotFound(err) {
			return nil, &ErrGameNotFound{GameID: gameID}
		}
		return nil, fmt.Errorf("failed to load game: %v", err)
	}

	creator, ok := f.creators[game.Variant]
	if !ok {
		return nil, &ErrUnsupportedGameType{Variant: game.Variant}
	}

	roster, err := f.deps.Repository.LoadRoster(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to load roster: %v", err)
	}

	return creator(f.deps, game, roster)
}
