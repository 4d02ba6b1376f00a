package workers

import (
	"context"
	"fmt"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"

	"github.com/arvanplay/gamecore/pkg/games"
	"github.com/arvanplay/gamecore/pkg/games/types"
	"github.com/arvanplay/gamecore/pkg/log"
	"github.com/arvanplay/gamecore/pkg/queue"
)

const actionQueueCapacity = 256

type actionRequest struct {
	playerID uuid.UUID
	action   types.Action
	errc     chan error
}

// GameRunner drives one session. It is the session's only mutator:
// player actions arrive through a mailbox and are applied between clock
// ticks, so the tick loop never holds round state across a suspension
// point and actions never race with timed phases.
type GameRunner struct {
	session      games.Session
	actionQueue  queue.Queue
	clock        clock.Clock
	tickInterval time.Duration
	wake         chan struct{}
	done         chan struct{}
}

type NewGameRunnerOptions struct {
	Session      games.Session
	Clock        clock.Clock
	TickInterval time.Duration
}

func NewGameRunner(opts NewGameRunnerOptions) *GameRunner {
	return &GameRunner{
		session:      opts.Session,
		actionQueue:  queue.NewInMemoryQueue(actionQueueCapacity),
		clock:        opts.Clock,
		tickInterval: opts.TickInterval,
		wake:         make(chan struct{}, 1),
		done:         make(chan struct{}),
	}
}

// Start starts the session and then runs the game loop until the
// session reaches a terminal status or the context is cancelled.
func (r *GameRunner) Start(ctx context.Context) error {
	if err := r.session.Start(ctx); err != nil {
		close(r.done)
		return err
	}
	go r.run(ctx)
	return nil
}

// Done is closed when the runner has stopped.
func (r *GameRunner) Done() <-chan struct{} {
	return r.done
}

// SubmitAction hands an action to the runner and waits for the
// session's verdict. It never blocks the game loop.
func (r *GameRunner) SubmitAction(ctx context.Context, playerID uuid.UUID, action types.Action) error {
	req := &actionRequest{
		playerID: playerID,
		action:   action,
		errc:     make(chan error, 1),
	}
	if err := r.actionQueue.Enqueue(req); err != nil {
		return fmt.Errorf("failed to enqueue action: %v", err)
	}
	select {
	case r.wake <- struct{}{}:
	default:
	}

	select {
	case err := <-req.errc:
		return err
	case <-r.done:
		// The runner may have answered just before stopping.
		select {
		case err := <-req.errc:
			return err
		default:
			return &games.ErrInvalidState{Reason: "game is no longer running"}
		}
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *GameRunner) run(ctx context.Context) {
	defer close(r.done)

	ticker := r.clock.Ticker(r.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.abort("game cancelled")
			return
		case <-r.wake:
			r.processActions(ctx)
		case t := <-ticker.C:
			r.processActions(ctx)
			if err := r.session.Tick(ctx, t); err != nil {
				log.Error("Game %s tick failed: %v", r.session.ID(), err)
			}
		}

		if r.session.Done() {
			r.rejectPending()
			return
		}
	}
}

func (r *GameRunner) processActions(ctx context.Context) {
	pending, err := r.actionQueue.ReadAllMessages()
	if err != nil {
		log.Error("Failed to read pending actions: %v", err)
		return
	}
	for _, item := range pending {
		req, ok := item.(*actionRequest)
		if !ok {
			log.Error("Unhandled mailbox item type: %T", item)
			continue
		}
		req.errc <- r.session.HandleAction(ctx, req.playerID, req.action)
	}
}

// rejectPending answers any actions that were queued after the session
// reached a terminal status.
func (r *GameRunner) rejectPending() {
	pending, err := r.actionQueue.ReadAllMessages()
	if err != nil {
		return
	}
	for _, item := range pending {
		if req, ok := item.(*actionRequest); ok {
			req.errc <- &games.ErrInvalidState{Reason: "game is no longer running"}
		}
	}
}

// abort cancels the session with a fresh context so the abort still
// persists when the runner's context is already done.
func (r *GameRunner) abort(reason string) {
	abortCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := r.session.Abort(abortCtx, reason); err != nil {
		log.Error("Failed to abort game %s: %v", r.session.ID(), err)
	}
	r.rejectPending()
}
