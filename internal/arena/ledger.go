package arena

import "fmt"

// Fee returns the swap fee for amount at the given rate in basis points,
// rounded down.
func Fee(amount, basisPoints int64) int64 {
	return amount * basisPoints / 10000
}

// Swap moves amount of address's holdings from one token into another. The
// fee is destroyed, not credited to anyone. Source volume grows by amount and
// destination volume by the amount after fee.
//
// from == to is accepted: the address loses the fee and the token's volume is
// counted twice.
func (a *Arena) Swap(address string, from, to int, amount int64) error {
	if a.phase != PhaseTrade {
		return phaseError("swap", a.phase)
	}
	src, ok := a.aliveToken(from)
	if !ok {
		return fmt.Errorf("swap from %d: %w", from, ErrTokenNotFound)
	}
	dst, ok := a.aliveToken(to)
	if !ok {
		return fmt.Errorf("swap to %d: %w", to, ErrTokenNotFound)
	}
	if amount < 0 {
		return fmt.Errorf("swap %d: %w", amount, ErrInvalidAmount)
	}
	bal := src.Holdings[address]
	if bal < amount {
		return fmt.Errorf("swap %d of %s (have %d): %w", amount, src.Name, bal, ErrInsufficientBalance)
	}

	out := amount - Fee(amount, a.cfg.FeeBasisPoints)
	src.Holdings[address] = bal - amount
	dst.Holdings[address] += out
	src.Volume += amount
	dst.Volume += out
	return nil
}

func (a *Arena) aliveToken(id int) (*Token, bool) {
	t, ok := a.Token(id)
	if !ok || !t.Alive {
		return nil, false
	}
	return t, true
}
