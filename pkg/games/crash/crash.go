// Package crash implements the continuous-time ascending-multiplier
// wagering game. Players bet during a fixed window, the multiplier then
// rises on a fixed tick until it reaches a provably-fair crash point,
// and everyone who cashed out before the crash is paid out.
package crash

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/arvanplay/gamecore/pkg/fairness"
	"github.com/arvanplay/gamecore/pkg/games"
	"github.com/arvanplay/gamecore/pkg/games/types"
)

const (
	// MinParticipants is the smallest roster a crash round can start with.
	MinParticipants = 2

	// BettingWindow is how long betting stays open after start.
	BettingWindow = 15 * time.Second

	// TickInterval is the cadence at which the multiplier rises.
	TickInterval = 500 * time.Millisecond

	multiplierStep = 0.1
)

type phase int

const (
	phaseWaiting phase = iota
	phaseBettingOpen
	phaseRising
	phaseDone
)

type bet struct {
	amount int64
	// cashoutMultiplier is set at most once and never changes afterwards.
	cashoutMultiplier *float64
}

type Session struct {
	games.Base

	phase         phase
	serverSeed    string
	multiplier    float64
	crashPoint    float64
	crashed       bool
	bettingEndsAt time.Time
	bets          map[uuid.UUID]*bet
}

// New creates a crash session. It satisfies games.Creator.
func New(deps games.Deps, game *types.Game, roster []types.Participant) (games.Session, error) {
	return &Session{
		Base:       games.NewBase(deps, game, roster),
		phase:      phaseWaiting,
		multiplier: 1.0,
		bets:       make(map[uuid.UUID]*bet),
	}, nil
}

func (s *Session) Start(ctx context.Context) error {
	if err := s.ValidateStatus(types.GameStatusWaiting); err != nil {
		return err
	}
	if len(s.Roster) < MinParticipants {
		return &games.ErrInvalidState{Reason: fmt.Sprintf("crash requires at least %d players", MinParticipants)}
	}

	serverSeed, err := fairness.NewServerSeed()
	if err != nil {
		return fmt.Errorf("failed to generate server seed: %v", err)
	}

	if err := s.Activate(ctx); err != nil {
		return err
	}

	// The crash point is fixed before the multiplier starts rising and
	// withheld from players until the round ends. The commitment lets
	// them audit it after the seed reveal.
	s.serverSeed = serverSeed
	s.crashPoint = fairness.CrashPoint(fairness.Outcome(serverSeed, s.Game.ID.String(), 0))
	s.phase = phaseBettingOpen
	s.bettingEndsAt = s.Deps.Clock.Now().Add(BettingWindow)

	s.Broadcast(ctx, types.Event{
		Type: types.EventTypeGameStarted,
		Data: types.GameStartedEvent{
			Variant:            types.GameVariantCrash,
			Stake:              s.Game.Stake,
			FairnessCommitment: fairness.Commitment(serverSeed),
			BettingSeconds:     int(BettingWindow / time.Second),
		},
	})
	return nil
}

func (s *Session) HandleAction(ctx context.Context, playerID uuid.UUID, action types.Action) error {
	if err := s.ValidateParticipant(playerID); err != nil {
		return err
	}

	switch action.Type {
	case types.ActionTypePlaceBet:
		return s.handlePlaceBet(ctx, playerID, action.Payload)
	case types.ActionTypeCashout:
		return s.handleCashout(ctx, playerID)
	default:
		return &games.ErrInvalidAction{Reason: fmt.Sprintf("unknown action type %q", action.Type)}
	}
}

func (s *Session) handlePlaceBet(ctx context.Context, playerID uuid.UUID, payload json.RawMessage) error {
	if s.phase != phaseBettingOpen {
		return &games.ErrInvalidAction{Reason: "betting is closed"}
	}

	var placeBet types.PlaceBetPayload
	if err := json.Unmarshal(payload, &placeBet); err != nil {
		return &games.ErrInvalidAction{Reason: "malformed place_bet payload"}
	}
	if placeBet.Amount <= 0 {
		return &games.ErrInvalidAction{Reason: "bet amount must be positive"}
	}
	if _, ok := s.bets[playerID]; ok {
		return &games.ErrInvalidAction{Reason: "bet already placed"}
	}

	s.bets[playerID] = &bet{amount: placeBet.Amount}

	s.NotifyPlayer(ctx, playerID, types.Event{
		Type: types.EventTypeBetAccepted,
		Data: types.BetAcceptedEvent{Amount: placeBet.Amount},
	})
	return nil
}

func (s *Session) handleCashout(ctx context.Context, playerID uuid.UUID) error {
	if s.phase != phaseRising || s.crashed {
		return &games.ErrInvalidAction{Reason: "cashout is only possible while the multiplier is rising"}
	}

	playerBet, ok := s.bets[playerID]
	if !ok {
		return &games.ErrInvalidAction{Reason: "no active bet for this player"}
	}
	if playerBet.cashoutMultiplier != nil {
		return &games.ErrInvalidAction{Reason: "already cashed out"}
	}

	multiplier := s.multiplier
	playerBet.cashoutMultiplier = &multiplier

	s.NotifyPlayer(ctx, playerID, types.Event{
		Type: types.EventTypeCashoutProcessed,
		Data: types.CashoutProcessedEvent{Multiplier: multiplier},
	})
	return nil
}

// Tick advances the round: it closes the betting window once it expires
// and raises the multiplier by one step per tick while rising. The
// multiplier is monotonic non-decreasing; the round ends on the first
// tick at which it reaches the crash point.
func (s *Session) Tick(ctx context.Context, now time.Time) error {
	switch s.phase {
	case phaseBettingOpen:
		if now.Before(s.bettingEndsAt) {
			return nil
		}
		s.phase = phaseRising
		return nil
	case phaseRising:
		if s.crashed {
			// Settlement failed on an earlier tick; try again.
			return s.End(ctx)
		}
		if s.multiplier >= s.crashPoint {
			s.crashed = true
			return s.End(ctx)
		}

		s.multiplier = math.Round((s.multiplier+multiplierStep)*10) / 10
		s.Broadcast(ctx, types.Event{
			Type: types.EventTypeMultiplierUpdate,
			Data: types.MultiplierUpdateEvent{Multiplier: s.multiplier},
		})

		if s.multiplier >= s.crashPoint {
			s.crashed = true
			return s.End(ctx)
		}
		return nil
	default:
		return nil
	}
}

func (s *Session) End(ctx context.Context) error {
	prizes := make(map[uuid.UUID]int64)
	var winner *uuid.UUID
	var maxPrize int64

	// Iterate the roster so winner selection is deterministic.
	for _, p := range s.Roster {
		playerBet, ok := s.bets[p.PlayerID]
		if !ok {
			continue
		}
		var prize int64
		if playerBet.cashoutMultiplier != nil {
			prize = int64(math.Floor(float64(playerBet.amount) * *playerBet.cashoutMultiplier))
		}
		prizes[p.PlayerID] = prize

		// When nobody cashed out the round has no winner; the game is
		// recorded with a nil winner rather than an arbitrary bettor.
		if prize > maxPrize {
			maxPrize = prize
			playerID := p.PlayerID
			winner = &playerID
		}
	}

	if err := s.Settle(ctx, winner, prizes); err != nil {
		return err
	}
	s.phase = phaseDone

	s.Broadcast(ctx, types.Event{
		Type: types.EventTypeGameResult,
		Data: types.GameResultEvent{
			Winner:            winner,
			PrizeDistribution: prizes,
			PrizePool:         s.Game.PrizePool,
			CrashPoint:        s.crashPoint,
			FinalMultiplier:   s.multiplier,
			ServerSeed:        s.serverSeed,
		},
	})
	return nil
}

func (s *Session) Abort(ctx context.Context, reason string) error {
	if err := s.AbortGame(ctx, reason); err != nil {
		return err
	}
	// Pending bets are released; no prize is applied.
	s.bets = make(map[uuid.UUID]*bet)
	s.phase = phaseDone
	return nil
}

// Multiplier returns the current multiplier.
func (s *Session) Multiplier() float64 {
	return s.multiplier
}
