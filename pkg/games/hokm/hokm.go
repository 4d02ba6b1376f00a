// Package hokm implements the 4-player fixed-partnership trick-taking
// card game. Seats 0 and 2 play against seats 1 and 3; the hakem picks
// the trump suit and leads the first trick; the first team to take
// seven tricks wins the stake pool.
package hokm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/klauspost/compress/gzip"

	"github.com/arvanplay/gamecore/pkg/games"
	"github.com/arvanplay/gamecore/pkg/games/types"
	"github.com/arvanplay/gamecore/pkg/log"
)

const (
	// RequiredParticipants is the exact roster size for hokm.
	RequiredParticipants = 4

	// TargetScore is the number of tricks a team must take to win.
	TargetScore = 7

	initialDealSize = 5
	trumpDealSize   = 5
)

type phase int

const (
	phaseWaiting phase = iota
	phaseTrumpSelection
	phaseTrickPlay
	phaseDone
)

// trickRecord archives one resolved trick for the game history.
type trickRecord struct {
	Round       int               `json:"round"`
	PlayedCards []playedCardEntry `json:"played_cards"`
	WinningTeam int               `json:"winning_team"`
	WinningCard string            `json:"winning_card"`
	Scores      map[int]int       `json:"scores"`
}

type playedCardEntry struct {
	PlayerID uuid.UUID `json:"player_id"`
	Card     string    `json:"card"`
	Team     int       `json:"team"`
}

type Session struct {
	games.Base

	phase       phase
	deck        []Card
	trumpSuit   *Suit
	hakemIndex  int
	turnIndex   int
	roundNumber int
	hands       map[uuid.UUID][]Card
	trick       []PlayedCard
	scores      map[int]int
	history     []trickRecord
	// finished is set once the final trick has been resolved; it stays
	// set if settlement fails so Tick can retry End.
	finished bool
}

// New creates a hokm session. It satisfies games.Creator.
func New(deps games.Deps, game *types.Game, roster []types.Participant) (games.Session, error) {
	return &Session{
		Base:        games.NewBase(deps, game, roster),
		phase:       phaseWaiting,
		roundNumber: 1,
		hands:       make(map[uuid.UUID][]Card),
		scores:      map[int]int{0: 0, 1: 0},
	}, nil
}

// team returns the team of a seat. Seats 0 and 2 are team 0, seats 1
// and 3 are team 1.
func team(seat int) int {
	return seat % 2
}

func (s *Session) Start(ctx context.Context) error {
	if err := s.ValidateStatus(types.GameStatusWaiting); err != nil {
		return err
	}
	if len(s.Roster) != RequiredParticipants {
		return &games.ErrInvalidState{Reason: fmt.Sprintf("hokm requires exactly %d players", RequiredParticipants)}
	}

	if err := s.Activate(ctx); err != nil {
		return err
	}

	s.deck = NewDeck(s.Deps.Rand)
	for _, p := range s.Roster {
		s.hands[p.PlayerID] = nil
	}
	for i := 0; i < initialDealSize; i++ {
		for _, p := range s.Roster {
			s.hands[p.PlayerID] = append(s.hands[p.PlayerID], s.draw())
		}
	}

	s.hakemIndex = s.Deps.Rand.Intn(RequiredParticipants)
	s.phase = phaseTrumpSelection

	hakem := s.Roster[s.hakemIndex]
	s.Broadcast(ctx, types.Event{
		Type: types.EventTypeGameStarted,
		Data: types.GameStartedEvent{
			Variant: types.GameVariantHokm,
			Stake:   s.Game.Stake,
			Hakem:   hakem.PlayerID.String(),
		},
	})
	s.NotifyPlayer(ctx, hakem.PlayerID, types.Event{
		Type: types.EventTypeYourTurn,
		Data: types.YourTurnEvent{
			Hand: s.handStrings(hakem.PlayerID),
		},
	})
	return nil
}

func (s *Session) draw() Card {
	card := s.deck[len(s.deck)-1]
	s.deck = s.deck[:len(s.deck)-1]
	return card
}

func (s *Session) HandleAction(ctx context.Context, playerID uuid.UUID, action types.Action) error {
	if err := s.ValidateParticipant(playerID); err != nil {
		return err
	}

	switch action.Type {
	case types.ActionTypeChooseTrump:
		return s.handleChooseTrump(ctx, playerID, action.Payload)
	case types.ActionTypePlayCard:
		return s.handlePlayCard(ctx, playerID, action.Payload)
	default:
		return &games.ErrInvalidAction{Reason: fmt.Sprintf("unknown action type %q", action.Type)}
	}
}

func (s *Session) handleChooseTrump(ctx context.Context, playerID uuid.UUID, payload json.RawMessage) error {
	if s.phase != phaseTrumpSelection {
		return &games.ErrInvalidAction{Reason: "trump selection is not open"}
	}
	if playerID != s.Roster[s.hakemIndex].PlayerID {
		return &games.ErrInvalidAction{Reason: "only the hakem can choose trump"}
	}

	var chooseTrump types.ChooseTrumpPayload
	if err := json.Unmarshal(payload, &chooseTrump); err != nil {
		return &games.ErrInvalidAction{Reason: "malformed choose_trump payload"}
	}
	suit, err := ParseSuit(chooseTrump.Suit)
	if err != nil {
		return &games.ErrInvalidAction{Reason: err.Error()}
	}

	// The trump suit is fixed for the rest of the game.
	s.trumpSuit = &suit

	// Top up hands, hakem first. Each seat ends with ten cards; the
	// remaining twelve stay in the deck.
	for i := 0; i < RequiredParticipants; i++ {
		seat := (s.hakemIndex + i) % RequiredParticipants
		p := s.Roster[seat]
		for j := 0; j < trumpDealSize; j++ {
			s.hands[p.PlayerID] = append(s.hands[p.PlayerID], s.draw())
		}
	}

	s.phase = phaseTrickPlay
	s.turnIndex = s.hakemIndex

	s.Broadcast(ctx, types.Event{
		Type: types.EventTypeTrumpSelected,
		Data: types.TrumpSelectedEvent{
			TrumpSuit: string(suit),
			Hakem:     playerID.String(),
		},
	})
	s.notifyTurn(ctx)
	return nil
}

func (s *Session) handlePlayCard(ctx context.Context, playerID uuid.UUID, payload json.RawMessage) error {
	if s.phase != phaseTrickPlay {
		return &games.ErrInvalidAction{Reason: "trick play has not started"}
	}
	if s.finished {
		return &games.ErrInvalidAction{Reason: "round is over, settlement pending"}
	}

	seat, _ := s.ParticipantIndex(playerID)
	if seat != s.turnIndex {
		return &games.ErrInvalidAction{Reason: "not your turn"}
	}

	var playCard types.PlayCardPayload
	if err := json.Unmarshal(payload, &playCard); err != nil {
		return &games.ErrInvalidAction{Reason: "malformed play_card payload"}
	}
	card, err := ParseCard(playCard.Card)
	if err != nil {
		return &games.ErrInvalidAction{Reason: err.Error()}
	}

	handIndex := -1
	for i, held := range s.hands[playerID] {
		if held == card {
			handIndex = i
			break
		}
	}
	if handIndex < 0 {
		return &games.ErrInvalidAction{Reason: "card not in your hand"}
	}

	// All checks passed; move the card from the hand into the trick.
	hand := s.hands[playerID]
	s.hands[playerID] = append(hand[:handIndex], hand[handIndex+1:]...)
	s.trick = append(s.trick, PlayedCard{
		PlayerID: playerID,
		Card:     card,
		Team:     team(seat),
	})

	s.Broadcast(ctx, types.Event{
		Type: types.EventTypeCardPlayed,
		Data: types.CardPlayedEvent{
			PlayerID:         playerID,
			Card:             card.String(),
			RemainingPlayers: RequiredParticipants - len(s.trick),
		},
	})

	if len(s.trick) == RequiredParticipants {
		return s.endTrick(ctx)
	}

	s.turnIndex = (s.turnIndex + 1) % RequiredParticipants
	s.notifyTurn(ctx)
	return nil
}

func (s *Session) endTrick(ctx context.Context) error {
	winning := resolveTrick(s.trick, *s.trumpSuit)
	winningTeam := s.trick[winning].Team
	s.scores[winningTeam]++

	entries := make([]playedCardEntry, len(s.trick))
	for i, pc := range s.trick {
		entries[i] = playedCardEntry{
			PlayerID: pc.PlayerID,
			Card:     pc.Card.String(),
			Team:     pc.Team,
		}
	}
	s.history = append(s.history, trickRecord{
		Round:       s.roundNumber,
		PlayedCards: entries,
		WinningTeam: winningTeam,
		WinningCard: s.trick[winning].Card.String(),
		Scores:      map[int]int{0: s.scores[0], 1: s.scores[1]},
	})
	s.trick = nil

	if s.scores[winningTeam] >= TargetScore || s.handsEmpty() {
		s.finished = true
		return s.End(ctx)
	}

	s.roundNumber++
	s.turnIndex = winningTeam * 2
	s.notifyTurn(ctx)
	return nil
}

func (s *Session) handsEmpty() bool {
	for _, hand := range s.hands {
		if len(hand) > 0 {
			return false
		}
	}
	return true
}

func (s *Session) End(ctx context.Context) error {
	winningTeam := 0
	if s.scores[1] > s.scores[0] {
		winningTeam = 1
	}

	prizes := make(map[uuid.UUID]int64)
	var winner *uuid.UUID
	for seat, p := range s.Roster {
		if team(seat) == winningTeam {
			prizes[p.PlayerID] = s.Game.Stake * 2
			if winner == nil {
				playerID := p.PlayerID
				winner = &playerID
			}
		} else {
			prizes[p.PlayerID] = 0
		}
	}

	if err := s.Settle(ctx, winner, prizes); err != nil {
		return err
	}
	s.phase = phaseDone

	s.archiveHistory(ctx)

	s.Broadcast(ctx, types.Event{
		Type: types.EventTypeGameResult,
		Data: types.GameResultEvent{
			Winner:            winner,
			PrizeDistribution: prizes,
			PrizePool:         s.Game.PrizePool,
			WinningTeam:       &winningTeam,
			FinalScores:       map[int]int{0: s.scores[0], 1: s.scores[1]},
		},
	})
	return nil
}

// archiveHistory stores the gzip-compressed trick history. Failures are
// logged; the settlement has already been persisted.
func (s *Session) archiveHistory(ctx context.Context) {
	raw, err := json.Marshal(s.history)
	if err != nil {
		log.Error("Failed to marshal round history for game %s: %v", s.Game.ID, err)
		return
	}

	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(raw); err != nil {
		log.Error("Failed to compress round history for game %s: %v", s.Game.ID, err)
		return
	}
	if err := zw.Close(); err != nil {
		log.Error("Failed to compress round history for game %s: %v", s.Game.ID, err)
		return
	}

	if err := s.Deps.Repository.SaveRoundHistory(ctx, s.Game.ID, buf.Bytes()); err != nil {
		log.Error("Failed to save round history for game %s: %v", s.Game.ID, err)
	}
}

func (s *Session) notifyTurn(ctx context.Context) {
	current := s.Roster[s.turnIndex]

	played := make([]string, len(s.trick))
	for i, pc := range s.trick {
		played[i] = pc.Card.String()
	}
	var leadingSuit string
	if len(s.trick) > 0 {
		leadingSuit = string(s.trick[0].Card.Suit)
	}

	s.NotifyPlayer(ctx, current.PlayerID, types.Event{
		Type: types.EventTypeYourTurn,
		Data: types.YourTurnEvent{
			Hand:        s.handStrings(current.PlayerID),
			PlayedCards: played,
			TrumpSuit:   string(*s.trumpSuit),
			LeadingSuit: leadingSuit,
		},
	})
}

func (s *Session) handStrings(playerID uuid.UUID) []string {
	hand := s.hands[playerID]
	out := make([]string, len(hand))
	for i, card := range hand {
		out[i] = card.String()
	}
	return out
}

// Tick retries a settlement that failed on the final trick. Hokm has no
// timed phases otherwise.
func (s *Session) Tick(ctx context.Context, now time.Time) error {
	if s.finished && s.Game.Status == types.GameStatusActive {
		return s.End(ctx)
	}
	return nil
}

func (s *Session) Abort(ctx context.Context, reason string) error {
	if err := s.AbortGame(ctx, reason); err != nil {
		return err
	}
	s.phase = phaseDone
	return nil
}
