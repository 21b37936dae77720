package scheduler

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coindelisi66/token-hunger-arena/internal/arena"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestArena(tradeSecs, burnSecs int) *arena.Arena {
	cfg := arena.DefaultConfig()
	cfg.TradeSeconds = tradeSecs
	cfg.BurnSeconds = burnSecs
	cfg.BotName = func() string { return "BOT" }
	a := arena.New(cfg, "0xA", "you")
	a.AdvanceToTrade()
	return a
}

func TestNewAppliesDefaults(t *testing.T) {
	s := New(Config{}, nil, nil)
	assert.Equal(t, DefaultConfig(), s.Config())
	assert.Zero(t, s.Active())
	assert.Nil(t, s.TradeC())
	assert.Nil(t, s.CountdownC())
	assert.Nil(t, s.EliminationC())
}

func TestTradeCountdownMovesToBurn(t *testing.T) {
	clock := NewManualClock()
	s := New(DefaultConfig(), clock, quietLogger())
	a := newTestArena(3, 300)

	s.StartTrade()
	require.NotNil(t, s.TradeC())
	assert.Equal(t, 1, clock.Active())

	assert.Equal(t, arena.PhaseTrade, s.OnTradeTick(a).Phase)
	assert.Equal(t, arena.PhaseTrade, s.OnTradeTick(a).Phase)
	assert.Equal(t, 1, a.TradeSecondsLeft())

	res := s.OnTradeTick(a)
	assert.Equal(t, arena.PhaseBurn, res.Phase)
	assert.Equal(t, 0, a.TradeSecondsLeft())
	assert.Nil(t, s.TradeC())
	assert.NotNil(t, s.CountdownC())
	assert.NotNil(t, s.EliminationC())
	assert.Equal(t, 2, s.Active())
	assert.Equal(t, 2, clock.Active())
}

func TestBurnCountdownFinishes(t *testing.T) {
	clock := NewManualClock()
	s := New(DefaultConfig(), clock, quietLogger())
	a := newTestArena(1, 2)

	s.StartTrade()
	s.OnTradeTick(a)
	require.Equal(t, arena.PhaseBurn, a.Phase())

	res := s.OnCountdownTick(a)
	assert.False(t, res.Finished)
	assert.Equal(t, 1, a.BurnSecondsLeft())

	res = s.OnCountdownTick(a)
	assert.True(t, res.Finished)
	assert.Equal(t, arena.PhaseDone, res.Phase)
	assert.Zero(t, s.Active())
	assert.Zero(t, clock.Active())
	assert.Len(t, a.Alive(), 10)
}

func TestEliminationEndsGameEarly(t *testing.T) {
	clock := NewManualClock()
	s := New(DefaultConfig(), clock, quietLogger())
	a := newTestArena(1, 300)

	s.StartTrade()
	s.OnTradeTick(a)
	require.Equal(t, arena.PhaseBurn, a.Phase())

	for i := 0; i < 8; i++ {
		res := s.OnEliminationTick(a)
		assert.NotZero(t, res.Eliminated)
		assert.False(t, res.Finished)
	}
	assert.Len(t, a.Alive(), 2)
	assert.Equal(t, 2, s.Active())

	res := s.OnEliminationTick(a)
	assert.True(t, res.Finished)
	assert.Equal(t, arena.PhaseDone, a.Phase())
	assert.Zero(t, s.Active())
	assert.Zero(t, clock.Active())
	assert.Greater(t, a.BurnSecondsLeft(), 0)

	// a stray tick after the end changes nothing
	res = s.OnEliminationTick(a)
	assert.False(t, res.Finished)
	assert.Len(t, a.Alive(), 2)
}

func TestTicksWithoutArenaTearDown(t *testing.T) {
	clock := NewManualClock()
	s := New(DefaultConfig(), clock, quietLogger())
	s.StartTrade()

	assert.Equal(t, Result{}, s.OnTradeTick(nil))
	assert.Equal(t, Result{}, s.OnCountdownTick(nil))
	assert.Equal(t, Result{}, s.OnEliminationTick(nil))
	assert.Zero(t, s.Active())
	assert.Zero(t, clock.Active())
}

func TestStartTradeReplacesTickers(t *testing.T) {
	clock := NewManualClock()
	s := New(DefaultConfig(), clock, quietLogger())
	s.StartTrade()
	s.StartTrade()
	assert.Equal(t, 1, s.Active())
	assert.Equal(t, 1, clock.Active())

	s.Teardown()
	s.Teardown()
	assert.Zero(t, clock.Active())
}

func TestManualClockFire(t *testing.T) {
	clock := NewManualClock()
	assert.False(t, clock.Fire(time.Second))

	tk := clock.NewTicker(time.Second)
	got := make(chan time.Time, 1)
	go func() { got <- <-tk.C() }()
	require.True(t, clock.Fire(time.Second))
	assert.Equal(t, time.Unix(1, 0), <-got)

	tk.Stop()
	assert.False(t, clock.Fire(time.Second))
}
