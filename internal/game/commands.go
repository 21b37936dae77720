package game

import (
	"context"

	"github.com/coindelisi66/token-hunger-arena/internal/arena"
)

type joinCmd struct {
	address   string
	tokenName string
	reply     chan<- bool
}

type startCmd struct {
	reply chan<- bool
}

type swapCmd struct {
	address string
	from    int
	to      int
	amount  int64
	reply   chan<- error
}

type resetCmd struct {
	reply chan<- bool
}

type snapshotCmd struct {
	reply chan<- snapshotReply
}

type snapshotReply struct {
	snap arena.Snapshot
	ok   bool
}

// await hands cmd to the game goroutine and waits for its reply. Reply
// channels are buffered so the game goroutine never blocks on a caller that
// gave up.
func await[T any](ctx context.Context, g *Game, cmd any, reply chan T) (T, error) {
	var zero T
	select {
	case g.inbox <- cmd:
	case <-g.done:
		return zero, ErrClosed
	case <-ctx.Done():
		return zero, ctx.Err()
	}
	select {
	case v := <-reply:
		return v, nil
	case <-g.done:
		select {
		case v := <-reply:
			return v, nil
		default:
			return zero, ErrClosed
		}
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}
