package games

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"

	"github.com/arvanplay/gamecore/pkg/games/types"
	"github.com/arvanplay/gamecore/pkg/notifier"
	"github.com/arvanplay/gamecore/pkg/repositories"
)

// Session is the contract every game engine implements. A session owns
// the authoritative round state for one game id; callers must serialize
// Start, HandleAction, Tick and End per game.
type Session interface {
	ID() uuid.UUID
	Variant() types.GameVariant
	// Start transitions the game from Waiting to Active and performs
	// game-specific setup.
	Start(ctx context.Context) error
	// HandleAction validates and applies a player-submitted action.
	// Validation fully precedes mutation.
	HandleAction(ctx context.Context, playerID uuid.UUID, action types.Action) error
	// Tick advances timed phases. Turn-based games may treat it as a no-op.
	Tick(ctx context.Context, now time.Time) error
	// End computes the settlement, persists it atomically and broadcasts
	// the result. Status does not advance unless persistence succeeds.
	End(ctx context.Context) error
	// Abort cancels the game, releasing any pending stakes with no
	// partial settlement.
	Abort(ctx context.Context, reason string) error
	// Done reports whether the session has reached a terminal status.
	Done() bool
}

// Deps are the collaborators injected into every session. Passing them
// explicitly keeps sessions testable without network or storage fixtures.
type Deps struct {
	Repository repositories.Repository
	Notifier   notifier.Notifier
	Clock      clock.Clock
	// Rand is only read during Start, which callers already serialize;
	// it must not be touched from concurrent sessions afterwards.
	Rand *rand.Rand
}

// Base carries the state and helpers shared by all session implementations.
type Base struct {
	Game   *types.Game
	Roster []types.Participant
	Deps   Deps
}

func NewBase(deps Deps, game *types.Game, roster []types.Participant) Base {
	return Base{
		Game:   game,
		Roster: roster,
		Deps:   deps,
	}
}

func (b *Base) ID() uuid.UUID {
	return b.Game.ID
}

func (b *Base) Variant() types.GameVariant {
	return b.Game.Variant
}

func (b *Base) Done() bool {
	return b.Game.Status == types.GameStatusCompleted || b.Game.Status == types.GameStatusAborted
}

// ValidateParticipant checks that the player is part of the roster.
func (b *Base) ValidateParticipant(playerID uuid.UUID) error {
	if _, ok := b.ParticipantIndex(playerID); !ok {
		return &ErrPlayerNotInGame{PlayerID: playerID}
	}
	return nil
}

// ValidateStatus checks that the game is in the expected lifecycle state.
func (b *Base) ValidateStatus(expected types.GameStatus) error {
	if b.Game.Status != expected {
		return &ErrInvalidState{Reason: fmt.Sprintf("game is %s, expected %s", b.Game.Status, expected)}
	}
	return nil
}

// ParticipantIndex returns the roster position of a player.
func (b *Base) ParticipantIndex(playerID uuid.UUID) (int, bool) {
	for i, p := range b.Roster {
		if p.PlayerID == playerID {
			return i, true
		}
	}
	return 0, false
}

// Activate moves the game from Waiting to Active, persisting the
// transition before mutating in-memory state.
func (b *Base) Activate(ctx context.Context) error {
	if err := b.ValidateStatus(types.GameStatusWaiting); err != nil {
		return err
	}
	now := b.Deps.Clock.Now()
	if err := b.Deps.Repository.MarkGameStarted(ctx, b.Game.ID, now); err != nil {
		return fmt.Errorf("failed to mark game started: %v", err)
	}
	b.Game.Status = types.GameStatusActive
	b.Game.StartedAt = &now
	return nil
}

// Settle persists the settlement and, only on success, advances the game
// to Completed. A persistence failure leaves the status untouched so the
// caller can retry.
func (b *Base) Settle(ctx context.Context, winner *uuid.UUID, prizes map[uuid.UUID]int64) error {
	if err := b.ValidateStatus(types.GameStatusActive); err != nil {
		return err
	}
	if err := b.Deps.Repository.PersistSettlement(ctx, b.Game.ID, winner, prizes); err != nil {
		return fmt.Errorf("failed to persist settlement: %v", err)
	}

	now := b.Deps.Clock.Now()
	b.Game.Status = types.GameStatusCompleted
	b.Game.CompletedAt = &now
	b.Game.Winner = winner
	b.Game.PrizePool = 0
	for _, prize := range prizes {
		b.Game.PrizePool += prize
	}
	return nil
}

// AbortGame cancels the game with no settlement. Aborting a game that
// already reached a terminal status is a no-op.
func (b *Base) AbortGame(ctx context.Context, reason string) error {
	if b.Done() {
		return nil
	}
	now := b.Deps.Clock.Now()
	if err := b.Deps.Repository.MarkGameAborted(ctx, b.Game.ID, now); err != nil {
		return fmt.Errorf("failed to mark game aborted: %v", err)
	}
	b.Game.Status = types.GameStatusAborted
	b.Game.CompletedAt = &now

	b.Broadcast(ctx, types.Event{
		Type: types.EventTypeGameAborted,
		Data: types.GameAbortedEvent{Reason: reason},
	})
	return nil
}

// Broadcast delivers an event to every participant.
func (b *Base) Broadcast(ctx context.Context, event types.Event) {
	b.Deps.Notifier.Broadcast(ctx, b.Game.ID, event)
}

// NotifyPlayer delivers an event to a single participant.
func (b *Base) NotifyPlayer(ctx context.Context, playerID uuid.UUID, event types.Event) {
	b.Deps.Notifier.Notify(ctx, b.Game.ID, playerID, event)
}
