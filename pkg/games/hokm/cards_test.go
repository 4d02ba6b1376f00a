package hokm

import (
	"math/rand"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCardString(t *testing.T) {
	assert.Equal(t, "2C", Card{Suit: SuitClubs, Rank: RankTwo}.String())
	assert.Equal(t, "10H", Card{Suit: SuitHearts, Rank: RankTen}.String())
	assert.Equal(t, "AS", Card{Suit: SuitSpades, Rank: RankAce}.String())
	assert.Equal(t, "QD", Card{Suit: SuitDiamonds, Rank: RankQueen}.String())
}

func TestParseCard(t *testing.T) {
	tests := []struct {
		in      string
		want    Card
		wantErr bool
	}{
		{in: "2C", want: Card{Suit: SuitClubs, Rank: RankTwo}},
		{in: "10h", want: Card{Suit: SuitHearts, Rank: RankTen}},
		{in: "JS", want: Card{Suit: SuitSpades, Rank: RankJack}},
		{in: "AD", want: Card{Suit: SuitDiamonds, Rank: RankAce}},
		{in: "", wantErr: true},
		{in: "A", wantErr: true},
		{in: "1H", wantErr: true},
		{in: "11H", wantErr: true},
		{in: "AX", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			card, err := ParseCard(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, card)
		})
	}
}

func TestParseCardRoundTrip(t *testing.T) {
	for _, card := range NewDeck(rand.New(rand.NewSource(1))) {
		parsed, err := ParseCard(card.String())
		require.NoError(t, err)
		assert.Equal(t, card, parsed)
	}
}

func TestNewDeckComplete(t *testing.T) {
	deck := NewDeck(rand.New(rand.NewSource(1)))
	require.Len(t, deck, 52)

	seen := make(map[Card]bool, 52)
	for _, card := range deck {
		assert.False(t, seen[card], "duplicate card %s", card)
		seen[card] = true
	}
}

func trickOf(t *testing.T, cards ...string) []PlayedCard {
	t.Helper()
	trick := make([]PlayedCard, len(cards))
	for i, s := range cards {
		card, err := ParseCard(s)
		require.NoError(t, err)
		trick[i] = PlayedCard{PlayerID: uuid.New(), Card: card, Team: i % 2}
	}
	return trick
}

func TestResolveTrick(t *testing.T) {
	tests := []struct {
		name  string
		cards []string
		trump Suit
		want  int
	}{
		{
			name:  "only trump wins over leading suit",
			cards: []string{"2C", "7S", "KC", "3C"},
			trump: SuitSpades,
			want:  1,
		},
		{
			name:  "highest leading suit wins without trump",
			cards: []string{"2C", "7D", "KC", "3C"},
			trump: SuitSpades,
			want:  2,
		},
		{
			name:  "highest trump wins among several",
			cards: []string{"2C", "7S", "KS", "3C"},
			trump: SuitSpades,
			want:  2,
		},
		{
			name:  "off-suit cannot win",
			cards: []string{"2C", "AD", "KD", "3C"},
			trump: SuitSpades,
			want:  3,
		},
		{
			name:  "leading trump holds unless overtrumped",
			cards: []string{"10S", "AS", "KC", "3C"},
			trump: SuitSpades,
			want:  1,
		},
		{
			name:  "ace of leading suit wins",
			cards: []string{"2H", "AH", "KH", "3H"},
			trump: SuitSpades,
			want:  1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			trick := trickOf(t, tt.cards...)
			got := resolveTrick(trick, tt.trump)
			assert.Equal(t, tt.want, got)
			// Resolution is pure: evaluating again yields the same winner.
			assert.Equal(t, got, resolveTrick(trick, tt.trump))
		})
	}
}
