package types

import "github.com/google/uuid"

type EventType string

const (
	EventTypeGameStarted      EventType = "game_started"
	EventTypeGameAborted      EventType = "game_aborted"
	EventTypeMultiplierUpdate EventType = "multiplier_update"
	EventTypeBetAccepted      EventType = "bet_accepted"
	EventTypeCashoutProcessed EventType = "cashout_processed"
	EventTypeTrumpSelected    EventType = "trump_selected"
	EventTypeYourTurn         EventType = "your_turn"
	EventTypeCardPlayed       EventType = "card_played"
	EventTypeGameResult       EventType = "game_result"
)

// Event is the envelope delivered to clients through the notifier.
type Event struct {
	Type EventType   `json:"type"`
	Data interface{} `json:"data,omitempty"`
}

type GameStartedEvent struct {
	Variant GameVariant `json:"variant"`
	Stake   int64       `json:"stake"`
	// Commitment to the round's server seed, published before any outcome
	// is generated so the crash point is auditable after the reveal.
	FairnessCommitment string `json:"fairness_commitment,omitempty"`
	BettingSeconds     int    `json:"betting_seconds,omitempty"`
	Hakem              string `json:"hakem,omitempty"`
}

type GameAbortedEvent struct {
	Reason string `json:"reason"`
}

type MultiplierUpdateEvent struct {
	Multiplier float64 `json:"multiplier"`
}

type BetAcceptedEvent struct {
	Amount int64 `json:"amount"`
}

type CashoutProcessedEvent struct {
	Multiplier float64 `json:"multiplier"`
}

type TrumpSelectedEvent struct {
	TrumpSuit string `json:"trump_suit"`
	Hakem     string `json:"hakem"`
}

type YourTurnEvent struct {
	Hand        []string `json:"hand"`
	PlayedCards []string `json:"played_cards"`
	TrumpSuit   string   `json:"trump_suit"`
	LeadingSuit string   `json:"leading_suit,omitempty"`
}

type CardPlayedEvent struct {
	PlayerID uuid.UUID `json:"player_id"`
	Card     string    `json:"card"`
	// Players yet to play in the current trick.
	RemainingPlayers int `json:"remaining_players"`
}

type GameResultEvent struct {
	Winner            *uuid.UUID           `json:"winner"`
	PrizeDistribution map[uuid.UUID]int64  `json:"prize_distribution"`
	PrizePool         int64                `json:"prize_pool"`
	CrashPoint        float64              `json:"crash_point,omitempty"`
	FinalMultiplier   float64              `json:"final_multiplier,omitempty"`
	ServerSeed        string               `json:"server_seed,omitempty"`
	WinningTeam       *int                 `json:"winning_team,omitempty"`
	FinalScores       map[int]int          `json:"final_scores,omitempty"`
}
