package scheduler

import (
	"sync"
	"time"
)

type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type Clock interface {
	NewTicker(d time.Duration) Ticker
}

// RealClock hands out time.Ticker backed tickers.
type RealClock struct{}

func (RealClock) NewTicker(d time.Duration) Ticker {
	return realTicker{time.NewTicker(d)}
}

type realTicker struct{ t *time.Ticker }

func (r realTicker) C() <-chan time.Time { return r.t.C }
func (r realTicker) Stop()               { r.t.Stop() }

// ManualClock creates tickers that only fire when Fire is called.
type ManualClock struct {
	mu      sync.Mutex
	tickers []*manualTicker
	now     time.Time
}

func NewManualClock() *ManualClock {
	return &ManualClock{now: time.Unix(0, 0)}
}

func (m *ManualClock) NewTicker(d time.Duration) Ticker {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := &manualTicker{clock: m, interval: d, ch: make(chan time.Time)}
	m.tickers = append(m.tickers, t)
	return t
}

// Active returns the number of tickers created and not yet stopped.
func (m *ManualClock) Active() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, t := range m.tickers {
		if !t.stopped {
			n++
		}
	}
	return n
}

// Fire delivers one tick to the newest running ticker with interval d. It
// reports false if there is no such ticker or nobody received the tick
// within a second.
//
// Fire returns once the owner has received the tick, which may be before
// the owner has acted on it. Callers that inspect state afterwards must
// sync with the owner first.
func (m *ManualClock) Fire(d time.Duration) bool {
	m.mu.Lock()
	var target *manualTicker
	for i := len(m.tickers) - 1; i >= 0; i-- {
		if t := m.tickers[i]; !t.stopped && t.interval == d {
			target = t
			break
		}
	}
	if target == nil {
		m.mu.Unlock()
		return false
	}
	m.now = m.now.Add(d)
	now := m.now
	m.mu.Unlock()
	select {
	case target.ch <- now:
		return true
	case <-time.After(time.Second):
		return false
	}
}

type manualTicker struct {
	clock    *ManualClock
	interval time.Duration
	ch       chan time.Time
	stopped  bool
}

func (t *manualTicker) C() <-chan time.Time { return t.ch }

func (t *manualTicker) Stop() {
	t.clock.mu.Lock()
	t.stopped = true
	t.clock.mu.Unlock()
}
