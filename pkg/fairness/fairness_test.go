package fairness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutcomeDeterministic(t *testing.T) {
	first := Outcome("server-seed", "client-seed", 42)
	second := Outcome("server-seed", "client-seed", 42)
	assert.Equal(t, first, second)

	assert.NotEqual(t, first, Outcome("server-seed", "client-seed", 43))
	assert.NotEqual(t, first, Outcome("other-seed", "client-seed", 42))
	assert.NotEqual(t, first, Outcome("server-seed", "other-client", 42))
}

func TestOutcomeRange(t *testing.T) {
	for nonce := uint64(0); nonce < 1000; nonce++ {
		outcome := Outcome("server-seed", "client-seed", nonce)
		assert.GreaterOrEqual(t, outcome, 0.0)
		assert.Less(t, outcome, 1.0)
	}
}

func TestCommitmentVerify(t *testing.T) {
	seed, err := NewServerSeed()
	require.NoError(t, err)
	require.Len(t, seed, 64)

	commitment := Commitment(seed)
	assert.True(t, Verify(commitment, seed))

	other, err := NewServerSeed()
	require.NoError(t, err)
	assert.False(t, Verify(commitment, other))
}

func TestNewServerSeedUnique(t *testing.T) {
	first, err := NewServerSeed()
	require.NoError(t, err)
	second, err := NewServerSeed()
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}

func TestCrashPoint(t *testing.T) {
	tests := []struct {
		name    string
		outcome float64
		want    float64
	}{
		{
			name:    "low outcome clamps to the minimum",
			outcome: 0.0,
			want:    1.0,
		},
		{
			name:    "mid outcome",
			outcome: 0.5,
			want:    1.98,
		},
		{
			name:    "high outcome caps at the maximum",
			outcome: 0.9999,
			want:    100.0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, CrashPoint(tt.outcome), 1e-9)
		})
	}
}

func TestCrashPointBoundsAndMonotonic(t *testing.T) {
	previous := 0.0
	for i := 0; i < 1000; i++ {
		outcome := float64(i) / 1000
		point := CrashPoint(outcome)
		assert.GreaterOrEqual(t, point, 1.0)
		assert.LessOrEqual(t, point, 100.0)
		assert.GreaterOrEqual(t, point, previous)
		previous = point
	}
}
