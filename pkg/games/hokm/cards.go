package hokm

import (
	"fmt"
	"math/rand"

	"github.com/google/uuid"
)

type Suit string

const (
	SuitHearts   Suit = "hearts"
	SuitDiamonds Suit = "diamonds"
	SuitClubs    Suit = "clubs"
	SuitSpades   Suit = "spades"
)

var Suits = []Suit{SuitHearts, SuitDiamonds, SuitClubs, SuitSpades}

// ParseSuit parses a suit name.
func ParseSuit(s string) (Suit, error) {
	switch Suit(s) {
	case SuitHearts, SuitDiamonds, SuitClubs, SuitSpades:
		return Suit(s), nil
	default:
		return "", fmt.Errorf("unknown suit: %s", s)
	}
}

func (s Suit) initial() string {
	switch s {
	case SuitHearts:
		return "H"
	case SuitDiamonds:
		return "D"
	case SuitClubs:
		return "C"
	case SuitSpades:
		return "S"
	default:
		return "?"
	}
}

// Rank is a card rank. Numeric ranks map to their value; Jack through
// Ace rank 11 through 14, so comparing ranks is integer comparison.
type Rank int

const (
	RankTwo   Rank = 2
	RankTen   Rank = 10
	RankJack  Rank = 11
	RankQueen Rank = 12
	RankKing  Rank = 13
	RankAce   Rank = 14
)

func (r Rank) String() string {
	switch r {
	case RankJack:
		return "J"
	case RankQueen:
		return "Q"
	case RankKing:
		return "K"
	case RankAce:
		return "A"
	default:
		return fmt.Sprintf("%d", int(r))
	}
}

type Card struct {
	Suit Suit
	Rank Rank
}

// String renders a card as rank followed by suit initial, e.g. "10H" or "AS".
func (c Card) String() string {
	return c.Rank.String() + c.Suit.initial()
}

// ParseCard parses the wire form produced by Card.String.
func ParseCard(s string) (Card, error) {
	if len(s) < 2 {
		return Card{}, fmt.Errorf("invalid card format: %q", s)
	}

	var suit Suit
	switch s[len(s)-1] {
	case 'H', 'h':
		suit = SuitHearts
	case 'D', 'd':
		suit = SuitDiamonds
	case 'C', 'c':
		suit = SuitClubs
	case 'S', 's':
		suit = SuitSpades
	default:
		return Card{}, fmt.Errorf("invalid card format: %q", s)
	}

	var rank Rank
	switch rankStr := s[:len(s)-1]; rankStr {
	case "J":
		rank = RankJack
	case "Q":
		rank = RankQueen
	case "K":
		rank = RankKing
	case "A":
		rank = RankAce
	case "2", "3", "4", "5", "6", "7", "8", "9", "10":
		n := int(rankStr[0] - '0')
		if rankStr == "10" {
			n = 10
		}
		rank = Rank(n)
	default:
		return Card{}, fmt.Errorf("invalid card format: %q", s)
	}

	return Card{Suit: suit, Rank: rank}, nil
}

// NewDeck returns a shuffled standard 52-card deck.
func NewDeck(rng *rand.Rand) []Card {
	deck := make([]Card, 0, 52)
	for _, suit := range Suits {
		for rank := RankTwo; rank <= RankAce; rank++ {
			deck = append(deck, Card{Suit: suit, Rank: rank})
		}
	}
	rng.Shuffle(len(deck), func(i, j int) {
		deck[i], deck[j] = deck[j], deck[i]
	})
	return deck
}

// PlayedCard is one card of the current trick.
type PlayedCard struct {
	PlayerID uuid.UUID
	Card     Card
	Team     int
}

// resolveTrick returns the index of the winning card in a completed
// trick. The leading suit is the suit of the first card; the highest
// trump wins if any trump was played, otherwise the highest card of the
// leading suit. The result depends only on the played cards and the
// trump suit.
func resolveTrick(trick []PlayedCard, trump Suit) int {
	leadingSuit := trick[0].Card.Suit
	winning := 0
	for i := 1; i < len(trick); i++ {
		card := trick[i].Card
		winningCard := trick[winning].Card
		switch {
		case card.Suit == trump:
			if winningCard.Suit != trump || card.Rank > winningCard.Rank {
				winning = i
			}
		case card.Suit == leadingSuit && winningCard.Suit != trump:
			if card.Rank > winningCard.Rank {
				winning = i
			}
		}
	}
	return winning
}
