package types

import "encoding/json"

type ActionType string

const (
	ActionTypePlaceBet    ActionType = "place_bet"
	ActionTypeCashout     ActionType = "cashout"
	ActionTypeChooseTrump ActionType = "choose_trump"
	ActionTypePlayCard    ActionType = "play_card"
)

// Action is the tagged envelope submitted by the transport layer.
// The payload shape depends on the action type.
type Action struct {
	Type    ActionType      `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type PlaceBetPayload struct {
	Amount int64 `json:"amount"`
}

type CashoutPayload struct{}

type ChooseTrumpPayload struct {
	Suit string `json:"suit"`
}

type PlayCardPayload struct {
	Card string `json:"card"`
}
