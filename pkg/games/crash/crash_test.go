package crash

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"testing"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arvanplay/gamecore/pkg/fairness"
	"github.com/arvanplay/gamecore/pkg/games"
	"github.com/arvanplay/gamecore/pkg/games/gamestest"
	"github.com/arvanplay/gamecore/pkg/games/types"
)

type testFixture struct {
	session  *Session
	repo     *gamestest.FakeRepository
	notifier *gamestest.RecordingNotifier
	clock    *clock.Mock
	roster   []types.Participant
}

func newTestFixture(t *testing.T, playerCount int) *testFixture {
	t.Helper()

	repo := gamestest.NewFakeRepository()
	recorder := gamestest.NewRecordingNotifier()
	mock := clock.NewMock()

	roster := make([]types.Participant, playerCount)
	for i := range roster {
		roster[i] = types.Participant{PlayerID: uuid.New(), Position: i}
	}
	game := &types.Game{
		ID:        uuid.New(),
		Variant:   types.GameVariantCrash,
		Status:    types.GameStatusWaiting,
		Stake:     100,
		CreatedAt: mock.Now(),
	}
	repo.AddGame(game, roster)

	session, err := New(games.Deps{
		Repository: repo,
		Notifier:   recorder,
		Clock:      mock,
		Rand:       rand.New(rand.NewSource(1)),
	}, game, roster)
	require.NoError(t, err)

	return &testFixture{
		session:  session.(*Session),
		repo:     repo,
		notifier: recorder,
		clock:    mock,
		roster:   roster,
	}
}

func betAction(t *testing.T, amount int64) types.Action {
	t.Helper()
	payload, err := json.Marshal(types.PlaceBetPayload{Amount: amount})
	require.NoError(t, err)
	return types.Action{Type: types.ActionTypePlaceBet, Payload: payload}
}

func cashoutAction() types.Action {
	return types.Action{Type: types.ActionTypeCashout}
}

// tick advances the mock clock by one tick interval and runs the session tick.
func (f *testFixture) tick(t *testing.T) {
	t.Helper()
	f.clock.Add(TickInterval)
	require.NoError(t, f.session.Tick(context.Background(), f.clock.Now()))
}

// startRising starts the session with the given crash point and moves it
// past the betting window.
func (f *testFixture) startRising(t *testing.T, crashPoint float64, bets map[int]int64) {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, f.session.Start(ctx))
	f.session.crashPoint = crashPoint

	for seat, amount := range bets {
		require.NoError(t, f.session.HandleAction(ctx, f.roster[seat].PlayerID, betAction(t, amount)))
	}

	f.clock.Add(BettingWindow)
	require.NoError(t, f.session.Tick(ctx, f.clock.Now()))
}

func TestStartRequiresMinimumPlayers(t *testing.T) {
	f := newTestFixture(t, 1)

	err := f.session.Start(context.Background())
	assert.True(t, games.IsInvalidState(err))
	assert.Equal(t, types.GameStatusWaiting, f.session.Game.Status)
}

func TestStartPublishesCommitment(t *testing.T) {
	f := newTestFixture(t, 2)
	require.NoError(t, f.session.Start(context.Background()))

	started := f.notifier.BroadcastsOfType(types.EventTypeGameStarted)
	require.Len(t, started, 1)
	data := started[0].Data.(types.GameStartedEvent)
	assert.NotEmpty(t, data.FairnessCommitment)
	assert.True(t, fairness.Verify(data.FairnessCommitment, f.session.serverSeed))
}

func TestBettingRules(t *testing.T) {
	f := newTestFixture(t, 2)
	ctx := context.Background()
	require.NoError(t, f.session.Start(ctx))

	playerA := f.roster[0].PlayerID

	err := f.session.HandleAction(ctx, uuid.New(), betAction(t, 100))
	assert.True(t, games.IsPlayerNotInGame(err), "stranger bet should be rejected")

	err = f.session.HandleAction(ctx, playerA, betAction(t, 0))
	assert.True(t, games.IsInvalidAction(err), "non-positive amount should be rejected")

	require.NoError(t, f.session.HandleAction(ctx, playerA, betAction(t, 100)))
	err = f.session.HandleAction(ctx, playerA, betAction(t, 50))
	assert.True(t, games.IsInvalidAction(err), "duplicate bet should be rejected")

	notified := f.notifier.NotifiesFor(playerA)
	require.Len(t, notified, 1)
	assert.Equal(t, types.EventTypeBetAccepted, notified[0].Type)
}

func TestBetAfterWindowRejected(t *testing.T) {
	f := newTestFixture(t, 2)
	f.startRising(t, 5.0, nil)

	err := f.session.HandleAction(context.Background(), f.roster[0].PlayerID, betAction(t, 100))
	assert.True(t, games.IsInvalidAction(err))
}

func TestCashoutRules(t *testing.T) {
	f := newTestFixture(t, 2)
	ctx := context.Background()
	playerA := f.roster[0].PlayerID
	playerB := f.roster[1].PlayerID

	require.NoError(t, f.session.Start(ctx))
	err := f.session.HandleAction(ctx, playerA, cashoutAction())
	assert.True(t, games.IsInvalidAction(err), "cashout before rising should be rejected")

	f.session.crashPoint = 5.0
	require.NoError(t, f.session.HandleAction(ctx, playerA, betAction(t, 100)))
	f.clock.Add(BettingWindow)
	require.NoError(t, f.session.Tick(ctx, f.clock.Now()))

	err = f.session.HandleAction(ctx, playerB, cashoutAction())
	assert.True(t, games.IsInvalidAction(err), "cashout without a bet should be rejected")

	f.tick(t)
	require.NoError(t, f.session.HandleAction(ctx, playerA, cashoutAction()))

	err = f.session.HandleAction(ctx, playerA, cashoutAction())
	assert.True(t, games.IsInvalidAction(err), "second cashout should be rejected")
}

func TestMultiplierMonotonic(t *testing.T) {
	f := newTestFixture(t, 2)
	f.startRising(t, 3.0, map[int]int64{0: 100})

	previous := f.session.Multiplier()
	for !f.session.Done() {
		f.tick(t)
		current := f.session.Multiplier()
		assert.GreaterOrEqual(t, current, previous)
		previous = current
	}
	assert.GreaterOrEqual(t, f.session.Multiplier(), f.session.crashPoint)
}

func TestScenarioTwoPlayers(t *testing.T) {
	f := newTestFixture(t, 2)
	ctx := context.Background()
	playerA := f.roster[0].PlayerID
	playerB := f.roster[1].PlayerID

	f.startRising(t, 2.0, map[int]int64{0: 100, 1: 200})

	// Five ticks raise the multiplier to 1.5; player A cashes out there.
	for i := 0; i < 5; i++ {
		f.tick(t)
	}
	assert.InDelta(t, 1.5, f.session.Multiplier(), 1e-9)
	require.NoError(t, f.session.HandleAction(ctx, playerA, cashoutAction()))

	for !f.session.Done() {
		f.tick(t)
	}

	err := f.session.HandleAction(ctx, playerA, cashoutAction())
	assert.True(t, games.IsInvalidAction(err), "cashout after the crash should be rejected")

	settlement, ok := f.repo.SettlementFor(f.session.Game.ID)
	require.True(t, ok)
	require.NotNil(t, settlement.Winner)
	assert.Equal(t, playerA, *settlement.Winner)
	assert.Equal(t, map[uuid.UUID]int64{playerA: 150, playerB: 0}, settlement.Prizes)
	assert.Equal(t, int64(150), f.session.Game.PrizePool)
	assert.Equal(t, types.GameStatusCompleted, f.session.Game.Status)

	results := f.notifier.BroadcastsOfType(types.EventTypeGameResult)
	require.Len(t, results, 1)
	data := results[0].Data.(types.GameResultEvent)
	assert.Equal(t, 2.0, data.CrashPoint)
	assert.NotEmpty(t, data.ServerSeed, "server seed should be revealed with the result")
}

func TestNoCashoutMeansNoWinner(t *testing.T) {
	f := newTestFixture(t, 2)
	f.startRising(t, 1.5, map[int]int64{0: 100, 1: 200})

	for !f.session.Done() {
		f.tick(t)
	}

	settlement, ok := f.repo.SettlementFor(f.session.Game.ID)
	require.True(t, ok)
	assert.Nil(t, settlement.Winner)
	for _, prize := range settlement.Prizes {
		assert.Equal(t, int64(0), prize)
	}
}

func TestSettlementFailureDoesNotAdvanceStatus(t *testing.T) {
	f := newTestFixture(t, 2)
	f.startRising(t, 1.1, map[int]int64{0: 100})
	f.repo.SettlementErr = errors.New("database unavailable")

	ctx := context.Background()
	f.clock.Add(TickInterval)
	err := f.session.Tick(ctx, f.clock.Now())
	require.Error(t, err)
	assert.Equal(t, types.GameStatusActive, f.session.Game.Status)
	assert.Empty(t, f.notifier.BroadcastsOfType(types.EventTypeGameResult))

	// The next tick retries the settlement.
	f.repo.SettlementErr = nil
	f.clock.Add(TickInterval)
	require.NoError(t, f.session.Tick(ctx, f.clock.Now()))
	assert.Equal(t, types.GameStatusCompleted, f.session.Game.Status)
	assert.Len(t, f.notifier.BroadcastsOfType(types.EventTypeGameResult), 1)
}

func TestAbortReleasesBets(t *testing.T) {
	f := newTestFixture(t, 2)
	ctx := context.Background()
	require.NoError(t, f.session.Start(ctx))
	require.NoError(t, f.session.HandleAction(ctx, f.roster[0].PlayerID, betAction(t, 100)))

	require.NoError(t, f.session.Abort(ctx, "not enough players connected"))

	assert.Equal(t, types.GameStatusAborted, f.session.Game.Status)
	assert.Empty(t, f.session.bets)
	_, ok := f.repo.SettlementFor(f.session.Game.ID)
	assert.False(t, ok, "an aborted game must not settle")
	assert.Len(t, f.notifier.BroadcastsOfType(types.EventTypeGameAborted), 1)
}
