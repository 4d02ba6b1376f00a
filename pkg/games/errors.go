package games

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/arvanplay/gamecore/pkg/games/types"
)

// ErrGameNotFound is returned when no game exists for the requested id.
type ErrGameNotFound struct {
	GameID uuid.UUID
}

func (e *ErrGameNotFound) Error() string {
	return fmt.Sprintf("game %s not found", e.GameID)
}

func IsGameNotFound(err error) bool {
	_, ok := err.(*ErrGameNotFound)
	return ok
}

// ErrPlayerNotInGame is returned when an action arrives from a player
// that is not part of the game's roster.
type ErrPlayerNotInGame struct {
	PlayerID uuid.UUID
}

func (e *ErrPlayerNotInGame) Error() string {
	return fmt.Sprintf("player %s is not part of this game", e.PlayerID)
}

func IsPlayerNotInGame(err error) bool {
	_, ok := err.(*ErrPlayerNotInGame)
	return ok
}

// ErrInvalidState is returned when a lifecycle operation is attempted
// from the wrong game state, e.g. starting an already active game or
// starting with an incomplete roster.
type ErrInvalidState struct {
	Reason string
}

func (e *ErrInvalidState) Error() string {
	return fmt.Sprintf("invalid game state: %s", e.Reason)
}

func IsInvalidState(err error) bool {
	_, ok := err.(*ErrInvalidState)
	return ok
}

// ErrInvalidAction is returned when an action is malformed or not valid
// for the current phase. Validation happens before any mutation, so an
// ErrInvalidAction never leaves round state inconsistent.
type ErrInvalidAction struct {
	Reason string
}

func (e *ErrInvalidAction) Error() string {
	return fmt.Sprintf("invalid action: %s", e.Reason)
}

func IsInvalidAction(err error) bool {
	_, ok := err.(*ErrInvalidAction)
	return ok
}

// ErrUnsupportedGameType is returned by the factory for variants that
// have no registered session constructor.
type ErrUnsupportedGameType struct {
	Variant types.GameVariant
}

func (e *ErrUnsupportedGameType) Error() string {
	return fmt.Sprintf("unsupported game type: %s", e.Variant)
}

func IsUnsupportedGameType(err error) bool {
	_, ok := err.(*ErrUnsupportedGameType)
	return ok
}
