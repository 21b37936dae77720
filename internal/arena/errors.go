package arena

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidPhase        = errors.New("invalid phase")
	ErrTokenNotFound       = errors.New("token not found or burned")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrInvalidAmount       = errors.New("invalid amount")
)

// Kind maps an arena error to the name reported to clients. Unknown errors
// map to the empty string.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidPhase):
		return "InvalidPhase"
	case errors.Is(err, ErrTokenNotFound):
		return "TokenNotFound"
	case errors.Is(err, ErrInsufficientBalance):
		return "InsufficientBalance"
	case errors.Is(err, ErrInvalidAmount):
		return "InvalidAmount"
	}
	return ""
}

func phaseError(op string, p Phase) error {
	return fmt.Errorf("%s in phase %q: %w", op, p, ErrInvalidPhase)
}
