// Package gamestest provides in-memory collaborator fakes for engine tests.
package gamestest

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/arvanplay/gamecore/pkg/games/types"
	"github.com/arvanplay/gamecore/pkg/repositories"
)

// Settlement captures the arguments of a PersistSettlement call.
type Settlement struct {
	Winner *uuid.UUID
	Prizes map[uuid.UUID]int64
}

// FakeRepository is an in-memory repositories.Repository.
type FakeRepository struct {
	mu          sync.Mutex
	Games       map[uuid.UUID]*types.Game
	Rosters     map[uuid.UUID][]types.Participant
	Settlements map[uuid.UUID]Settlement
	Histories   map[uuid.UUID][]byte

	// SettlementErr, when set, makes PersistSettlement fail without
	// recording anything.
	SettlementErr error

	// LoadGameHook, when set, runs once at the start of the next
	// LoadGame call, outside the repository lock.
	LoadGameHook func(gameID uuid.UUID)
}

func NewFakeRepository() *FakeRepository {
	return &FakeRepository{
		Games:       make(map[uuid.UUID]*types.Game),
		Rosters:     make(map[uuid.UUID][]types.Participant),
		Settlements: make(map[uuid.UUID]Settlement),
		Histories:   make(map[uuid.UUID][]byte),
	}
}

// AddGame registers a game and its roster.
func (r *FakeRepository) AddGame(game *types.Game, roster []types.Participant) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Games[game.ID] = game
	r.Rosters[game.ID] = roster
}

func (r *FakeRepository) Close(ctx context.Context) error {
	return nil
}

func (r *FakeRepository) CreateGame(ctx context.Context, game *types.Game, roster []types.Participant) error {
	r.AddGame(game, roster)
	return nil
}

func (r *FakeRepository) LoadGame(ctx context.Context, gameID uuid.UUID) (*types.Game, error) {
	r.mu.Lock()
	hook := r.LoadGameHook
	r.LoadGameHook = nil
	r.mu.Unlock()
	if hook != nil {
		hook(gameID)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	game, ok := r.Games[gameID]
	if !ok {
		return nil, &repositories.ErrNotFound{}
	}
	copied := *game
	return &copied, nil
}

func (r *FakeRepository) LoadRoster(ctx context.Context, gameID uuid.UUID) ([]types.Participant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	roster, ok := r.Rosters[gameID]
	if !ok {
		return nil, &repositories.ErrNotFound{}
	}
	return append([]types.Participant(nil), roster...), nil
}

func (r *FakeRepository) MarkGameStarted(ctx context.Context, gameID uuid.UUID, startedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	game, ok := r.Games[gameID]
	if !ok {
		return &repositories.ErrNotFound{}
	}
	game.Status = types.GameStatusActive
	game.StartedAt = &startedAt
	return nil
}

func (r *FakeRepository) MarkGameAborted(ctx context.Context, gameID uuid.UUID, abortedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	game, ok := r.Games[gameID]
	if !ok {
		return &repositories.ErrNotFound{}
	}
	game.Status = types.GameStatusAborted
	game.CompletedAt = &abortedAt
	return nil
}

func (r *FakeRepository) PersistSettlement(ctx context.Context, gameID uuid.UUID, winner *uuid.UUID, prizes map[uuid.UUID]int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.SettlementErr != nil {
		return r.SettlementErr
	}
	game, ok := r.Games[gameID]
	if !ok {
		return &repositories.ErrNotFound{}
	}
	copied := make(map[uuid.UUID]int64, len(prizes))
	var prizePool int64
	for playerID, prize := range prizes {
		copied[playerID] = prize
		prizePool += prize
	}
	r.Settlements[gameID] = Settlement{Winner: winner, Prizes: copied}
	game.Status = types.GameStatusCompleted
	game.Winner = winner
	game.PrizePool = prizePool
	return nil
}

func (r *FakeRepository) SaveRoundHistory(ctx context.Context, gameID uuid.UUID, history []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Histories[gameID] = history
	return nil
}

// SettlementFor returns the recorded settlement for a game.
func (r *FakeRepository) SettlementFor(gameID uuid.UUID) (Settlement, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	settlement, ok := r.Settlements[gameID]
	return settlement, ok
}

// PlayerEvent is an event delivered to a single player.
type PlayerEvent struct {
	PlayerID uuid.UUID
	Event    types.Event
}

// RecordingNotifier records deliveries instead of sending them anywhere.
type RecordingNotifier struct {
	mu         sync.Mutex
	broadcasts []types.Event
	notifies   []PlayerEvent
}

func NewRecordingNotifier() *RecordingNotifier {
	return &RecordingNotifier{}
}

func (n *RecordingNotifier) Broadcast(ctx context.Context, gameID uuid.UUID, event types.Event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.broadcasts = append(n.broadcasts, event)
}

func (n *RecordingNotifier) Notify(ctx context.Context, gameID uuid.UUID, playerID uuid.UUID, event types.Event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notifies = append(n.notifies, PlayerEvent{PlayerID: playerID, Event: event})
}

// Broadcasts returns a snapshot of all broadcast events.
func (n *RecordingNotifier) Broadcasts() []types.Event {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]types.Event(nil), n.broadcasts...)
}

// BroadcastsOfType returns all broadcast events of one type.
func (n *RecordingNotifier) BroadcastsOfType(eventType types.EventType) []types.Event {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []types.Event
	for _, event := range n.broadcasts {
		if event.Type == eventType {
			out = append(out, event)
		}
	}
	return out
}

// NotifiesFor returns all events delivered to one player.
func (n *RecordingNotifier) NotifiesFor(playerID uuid.UUID) []types.Event {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []types.Event
	for _, pe := range n.notifies {
		if pe.PlayerID == playerID {
			out = append(out, pe.Event)
		}
	}
	return out
}
