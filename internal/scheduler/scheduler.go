// Package scheduler drives the time based phase transitions of an arena.
//
// The Scheduler holds exactly the tickers of the current phase. It does not
// run goroutines of its own: the owner selects on TradeC, CountdownC and
// EliminationC and hands each tick back to the matching On* method, all from
// the goroutine that owns the arena. A channel is nil while its ticker is not
// running, so a torn down ticker can never be selected again.
package scheduler

import (
	"log/slog"
	"time"

	"github.com/coindelisi66/token-hunger-arena/internal/arena"
)

const (
	DefaultSecond              = time.Second
	DefaultEliminationInterval = 30 * time.Second
)

type Config struct {
	// Second is the length of one countdown step.
	Second              time.Duration
	EliminationInterval time.Duration
}

func DefaultConfig() Config {
	return Config{Second: DefaultSecond, EliminationInterval: DefaultEliminationInterval}
}

// Result describes what a tick did to the arena.
type Result struct {
	Phase      arena.Phase
	Eliminated int
	// Finished is set on the tick that moved the arena into done.
	Finished bool
}

type Scheduler struct {
	cfg   Config
	clock Clock
	log   *slog.Logger

	trade       Ticker
	countdown   Ticker
	elimination Ticker
}

func New(cfg Config, clock Clock, logger *slog.Logger) *Scheduler {
	if cfg.Second <= 0 {
		cfg.Second = DefaultSecond
	}
	if cfg.EliminationInterval <= 0 {
		cfg.EliminationInterval = DefaultEliminationInterval
	}
	if clock == nil {
		clock = RealClock{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{cfg: cfg, clock: clock, log: logger}
}

func (s *Scheduler) Config() Config { return s.cfg }

func (s *Scheduler) TradeC() <-chan time.Time       { return tickC(s.trade) }
func (s *Scheduler) CountdownC() <-chan time.Time   { return tickC(s.countdown) }
func (s *Scheduler) EliminationC() <-chan time.Time { return tickC(s.elimination) }

func tickC(t Ticker) <-chan time.Time {
	if t == nil {
		return nil
	}
	return t.C()
}

// Active returns how many tickers are running.
func (s *Scheduler) Active() int {
	n := 0
	for _, t := range []Ticker{s.trade, s.countdown, s.elimination} {
		if t != nil {
			n++
		}
	}
	return n
}

// StartTrade begins the trade countdown. Any tickers left from an earlier
// phase are torn down first.
func (s *Scheduler) StartTrade() {
	s.Teardown()
	s.trade = s.clock.NewTicker(s.cfg.Second)
	s.log.Debug("trade countdown started", "second", s.cfg.Second)
}

func (s *Scheduler) startBurn() {
	s.Teardown()
	s.countdown = s.clock.NewTicker(s.cfg.Second)
	s.elimination = s.clock.NewTicker(s.cfg.EliminationInterval)
	s.log.Debug("burn timers started", "second", s.cfg.Second, "elimination_interval", s.cfg.EliminationInterval)
}

// Teardown stops every running ticker. It is the single exit path for done and
// for reset.
func (s *Scheduler) Teardown() {
	stop(&s.trade)
	stop(&s.countdown)
	stop(&s.elimination)
}

func stop(t *Ticker) {
	if *t != nil {
		(*t).Stop()
		*t = nil
	}
}

// OnTradeTick takes a second off the trade countdown. When it runs out the
// trade ticker stops and the arena moves to burn.
func (s *Scheduler) OnTradeTick(a *arena.Arena) Result {
	if a == nil {
		s.Teardown()
		return Result{}
	}
	if a.Phase() != arena.PhaseTrade {
		stop(&s.trade)
		return Result{Phase: a.Phase()}
	}
	if a.TickTrade() > 0 {
		return Result{Phase: a.Phase()}
	}
	stop(&s.trade)
	if err := a.AdvanceToBurn(); err != nil {
		s.log.Warn("advance to burn", "err", err)
		return Result{Phase: a.Phase()}
	}
	s.startBurn()
	s.log.Info("burn phase started")
	return Result{Phase: a.Phase()}
}

// OnCountdownTick takes a second off the burn countdown and finishes the game
// when it runs out.
func (s *Scheduler) OnCountdownTick(a *arena.Arena) Result {
	if a == nil {
		s.Teardown()
		return Result{}
	}
	if a.Phase() != arena.PhaseBurn {
		s.Teardown()
		return Result{Phase: a.Phase()}
	}
	if a.TickBurn() > 0 {
		return Result{Phase: a.Phase()}
	}
	s.Teardown()
	finished := a.Finish()
	s.log.Info("burn countdown elapsed", "survivors", len(a.Alive()))
	return Result{Phase: a.Phase(), Finished: finished}
}

// OnEliminationTick burns the weakest token. Reaching the survivor threshold
// ends the game even if the burn countdown has time left.
func (s *Scheduler) OnEliminationTick(a *arena.Arena) Result {
	if a == nil {
		s.Teardown()
		return Result{}
	}
	if a.Phase() != arena.PhaseBurn {
		s.Teardown()
		return Result{Phase: a.Phase()}
	}
	res := a.EliminateOne()
	if res.Finished {
		s.Teardown()
		s.log.Info("survivor threshold reached", "survivors", len(a.Alive()))
		return Result{Phase: a.Phase(), Finished: true}
	}
	s.log.Info("token burned", "token", res.TokenID, "alive", len(a.Alive()))
	return Result{Phase: a.Phase(), Eliminated: res.TokenID}
}
