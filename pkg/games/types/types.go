package types

import (
	"time"

	"github.com/google/uuid"
)

// GameVariant identifies a concrete game engine.
type GameVariant string

const (
	GameVariantCrash GameVariant = "crash"
	GameVariantHokm  GameVariant = "hokm"
)

// GameStatus is the lifecycle state of a game.
// Transitions only move forward: Waiting -> Active -> Completed or Aborted.
type GameStatus string

const (
	GameStatusWaiting   GameStatus = "waiting"
	GameStatusActive    GameStatus = "active"
	GameStatusCompleted GameStatus = "completed"
	GameStatusAborted   GameStatus = "aborted"
)

// Game is the persistent record of a game.
type Game struct {
	ID          uuid.UUID
	Variant     GameVariant
	Status      GameStatus
	Stake       int64
	CreatedAt   time.Time
	StartedAt   *time.Time
	CompletedAt *time.Time
	Winner      *uuid.UUID
	PrizePool   int64
}

// Participant is a seat in a game's roster. The roster is owned by the
// repository; sessions only hold references.
type Participant struct {
	PlayerID uuid.UUID
	Position int
}
