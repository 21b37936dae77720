// Package game hosts the single arena of the process.
//
// A Game is an actor: Run drains one inbox of requests together with the
// scheduler's ticks, so every mutation of the arena happens on one goroutine
// and runs to completion before the next one starts. Join, Start, Swap, Reset
// and Snapshot are safe to call from any goroutine.
package game

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/coindelisi66/token-hunger-arena/internal/arena"
	"github.com/coindelisi66/token-hunger-arena/internal/scheduler"
)

var ErrClosed = errors.New("game: host stopped")

const recordTimeout = 5 * time.Second

// Broadcaster receives a fresh snapshot after every mutation and every tick.
// It is called from the game goroutine and must not block.
type Broadcaster interface {
	Broadcast(arena.Snapshot)
}

// Recorder stores finished games.
type Recorder interface {
	RecordOutcome(ctx context.Context, o Outcome) error
}

type Outcome struct {
	ID         string
	StartedAt  time.Time
	FinishedAt time.Time
	Snapshot   arena.Snapshot
}

type Config struct {
	Arena     arena.Config
	Scheduler scheduler.Config
}

func DefaultConfig() Config {
	return Config{Arena: arena.DefaultConfig(), Scheduler: scheduler.DefaultConfig()}
}

type Deps struct {
	Clock       scheduler.Clock
	Broadcaster Broadcaster
	Recorder    Recorder
	Logger      *slog.Logger
	Now         func() time.Time
}

type Game struct {
	cfg   Config
	inbox chan any
	done  chan struct{}
	// pending outcome writes; Run waits for them before closing done
	writes sync.WaitGroup

	sched *scheduler.Scheduler
	bcast Broadcaster
	rec   Recorder
	log   *slog.Logger
	now   func() time.Time

	// owned by the Run goroutine
	arena     *arena.Arena
	id        string
	startedAt time.Time
}

func New(cfg Config, deps Deps) *Game {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Broadcaster == nil {
		deps.Broadcaster = nopBroadcaster{}
	}
	return &Game{
		cfg:   cfg,
		inbox: make(chan any, 64),
		done:  make(chan struct{}),
		sched: scheduler.New(cfg.Scheduler, deps.Clock, deps.Logger.With("component", "scheduler")),
		bcast: deps.Broadcaster,
		rec:   deps.Recorder,
		log:   deps.Logger,
		now:   deps.Now,
	}
}

// Run owns the arena until ctx is cancelled. It must be called exactly once.
// It returns after every outcome write started by the game has finished.
func (g *Game) Run(ctx context.Context) {
	defer close(g.done)
	defer g.writes.Wait()
	defer g.sched.Teardown()

	for {
		select {
		case <-ctx.Done():
			g.log.Info("game host stopping")
			return
		case cmd := <-g.inbox:
			g.handleCommand(cmd)
		case <-g.sched.TradeC():
			g.afterTick(g.sched.OnTradeTick(g.arena))
		case <-g.sched.CountdownC():
			g.afterTick(g.sched.OnCountdownTick(g.arena))
		case <-g.sched.EliminationC():
			g.afterTick(g.sched.OnEliminationTick(g.arena))
		}
	}
}

// Done is closed once Run has returned.
func (g *Game) Done() <-chan struct{} { return g.done }

// Join creates the arena on the first call, owned by address. Later calls
// leave it alone. Both broadcast. It reports whether an arena was created.
func (g *Game) Join(ctx context.Context, address, tokenName string) (bool, error) {
	reply := make(chan bool, 1)
	return await(ctx, g, joinCmd{address: address, tokenName: tokenName, reply: reply}, reply)
}

// Start opens trading. It reports false when there is no arena or it was
// already started.
func (g *Game) Start(ctx context.Context) (bool, error) {
	reply := make(chan bool, 1)
	return await(ctx, g, startCmd{reply: reply}, reply)
}

// Swap trades amount of address's holdings of token from into token to. The
// returned error wraps one of the arena errors when the swap is refused.
func (g *Game) Swap(ctx context.Context, address string, from, to int, amount int64) error {
	reply := make(chan error, 1)
	err, callErr := await(ctx, g, swapCmd{address: address, from: from, to: to, amount: amount, reply: reply}, reply)
	if callErr != nil {
		return callErr
	}
	return err
}

// Reset stops every timer and discards the arena.
func (g *Game) Reset(ctx context.Context) error {
	reply := make(chan bool, 1)
	_, err := await(ctx, g, resetCmd{reply: reply}, reply)
	return err
}

// Snapshot returns the public view of the arena, or false with the
// uninitialized view when there is none.
func (g *Game) Snapshot(ctx context.Context) (arena.Snapshot, bool, error) {
	reply := make(chan snapshotReply, 1)
	r, err := await(ctx, g, snapshotCmd{reply: reply}, reply)
	if err != nil {
		return arena.Uninitialized(), false, err
	}
	return r.snap, r.ok, nil
}

func (g *Game) handleCommand(cmd any) {
	switch c := cmd.(type) {
	case joinCmd:
		c.reply <- g.handleJoin(c.address, c.tokenName)
	case startCmd:
		c.reply <- g.handleStart()
	case swapCmd:
		c.reply <- g.handleSwap(c.address, c.from, c.to, c.amount)
	case resetCmd:
		g.handleReset()
		c.reply <- true
	case snapshotCmd:
		if g.arena == nil {
			c.reply <- snapshotReply{snap: arena.Uninitialized()}
			return
		}
		c.reply <- snapshotReply{snap: g.arena.Snapshot(), ok: true}
	default:
		g.log.Warn("unknown command", "type", fmt.Sprintf("%T", cmd))
	}
}

func (g *Game) handleJoin(address, tokenName string) bool {
	created := false
	if g.arena == nil {
		g.arena = arena.New(g.cfg.Arena, address, tokenName)
		g.id = uuid.NewString()
		g.startedAt = time.Time{}
		created = true
		tok, _ := g.arena.Token(arena.PlayerTokenID)
		g.log.Info("arena created", "game", g.id, "owner", address, "token", tok.Name)
	}
	g.broadcast()
	return created
}

func (g *Game) handleStart() bool {
	if g.arena == nil || !g.arena.AdvanceToTrade() {
		return false
	}
	g.startedAt = g.now()
	g.sched.StartTrade()
	g.log.Info("trade phase started", "game", g.id, "seconds", g.arena.TradeSecondsLeft())
	g.broadcast()
	return true
}

func (g *Game) handleSwap(address string, from, to int, amount int64) error {
	if g.arena == nil {
		return fmt.Errorf("swap without arena: %w", arena.ErrInvalidPhase)
	}
	if err := g.arena.Swap(address, from, to, amount); err != nil {
		g.log.Debug("swap refused", "addr", address, "from", from, "to", to, "amount", amount, "err", err)
		return err
	}
	g.broadcast()
	return nil
}

func (g *Game) handleReset() {
	g.sched.Teardown()
	if g.arena != nil {
		g.log.Info("arena reset", "game", g.id, "phase", g.arena.Phase())
	}
	g.arena = nil
	g.id = ""
	g.startedAt = time.Time{}
	g.broadcast()
}

func (g *Game) afterTick(res scheduler.Result) {
	if g.arena == nil {
		return
	}
	if res.Finished {
		g.record()
	}
	g.broadcast()
}

func (g *Game) broadcast() {
	if g.arena == nil {
		g.bcast.Broadcast(arena.Uninitialized())
		return
	}
	g.bcast.Broadcast(g.arena.Snapshot())
}

func (g *Game) record() {
	out := Outcome{
		ID:         g.id,
		StartedAt:  g.startedAt,
		FinishedAt: g.now(),
		Snapshot:   g.arena.Snapshot(),
	}
	g.log.Info("game finished", "game", out.ID, "survivors", len(out.Snapshot.Survivors()))
	if g.rec == nil {
		return
	}
	g.writes.Add(1)
	go func() {
		defer g.writes.Done()
		ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
		defer cancel()
		if err := g.rec.RecordOutcome(ctx, out); err != nil {
			g.log.Warn("record outcome", "game", out.ID, "err", err)
		}
	}()
}

type nopBroadcaster struct{}

func (nopBroadcaster) Broadcast(arena.Snapshot) {}
