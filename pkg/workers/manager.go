package workers

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"

	"github.com/arvanplay/gamecore/pkg/games"
	"github.com/arvanplay/gamecore/pkg/games/types"
	"github.com/arvanplay/gamecore/pkg/log"
)

// RunnerManager owns one GameRunner per active game id. Actions for a
// game are serialized through its runner; different games run fully
// independently.
type RunnerManager struct {
	factory      *games.Factory
	clock        clock.Clock
	tickInterval time.Duration

	mu       sync.Mutex
	runners  map[uuid.UUID]*GameRunner
	starting map[uuid.UUID]bool
}

type NewRunnerManagerOptions struct {
	Factory      *games.Factory
	Clock        clock.Clock
	TickInterval time.Duration
}

func NewRunnerManager(opts NewRunnerManagerOptions) *RunnerManager {
	return &RunnerManager{
		factory:      opts.Factory,
		clock:        opts.Clock,
		tickInterval: opts.TickInterval,
		runners:      make(map[uuid.UUID]*GameRunner),
		starting:     make(map[uuid.UUID]bool),
	}
}

// StartGame builds the session for a game id and starts its runner. The
// lock only reserves the id; loading one game never blocks starts of
// other games.
func (m *RunnerManager) StartGame(ctx context.Context, gameID uuid.UUID) error {
	m.mu.Lock()
	if _, ok := m.runners[gameID]; ok || m.starting[gameID] {
		m.mu.Unlock()
		return &games.ErrInvalidState{Reason: "game is already running"}
	}
	m.starting[gameID] = true
	m.mu.Unlock()

	session, err := m.factory.Create(ctx, gameID)
	if err != nil {
		m.register(gameID, nil)
		return err
	}

	runner := NewGameRunner(NewGameRunnerOptions{
		Session:      session,
		Clock:        m.clock,
		TickInterval: m.tickInterval,
	})
	if err := runner.Start(ctx); err != nil {
		m.register(gameID, nil)
		return err
	}
	m.register(gameID, runner)

	go func() {
		<-runner.Done()
		m.mu.Lock()
		delete(m.runners, gameID)
		m.mu.Unlock()
		log.Debug("Game %s runner stopped", gameID)
	}()

	return nil
}

// register releases the id's start reservation and, when the start
// succeeded, installs the runner.
func (m *RunnerManager) register(gameID uuid.UUID, runner *GameRunner) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.starting, gameID)
	if runner != nil {
		m.runners[gameID] = runner
	}
}

// SubmitAction routes an action to the runner for a game id.
func (m *RunnerManager) SubmitAction(ctx context.Context, gameID uuid.UUID, playerID uuid.UUID, action types.Action) error {
	m.mu.Lock()
	runner, ok := m.runners[gameID]
	m.mu.Unlock()
	if !ok {
		return &games.ErrGameNotFound{GameID: gameID}
	}
	return runner.SubmitAction(ctx, playerID, action)
}
