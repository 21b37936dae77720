// Package arena holds the authoritative state of one token arena: the token
// registry, per-address balances, the phase and both countdowns.
//
// An *Arena is not safe for concurrent use. The game host owns it from a
// single goroutine and serializes every operation.
package arena

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

type Phase string

const (
	PhaseLobby Phase = "lobby"
	PhaseTrade Phase = "trade"
	PhaseBurn  Phase = "burn"
	PhaseDone  Phase = "done"
)

const (
	PlayerTokenID = 1
	TokenCount    = 10

	DefaultSupply         = 1000
	DefaultFeeBasisPoints = 100
	DefaultTradeSeconds   = 5 * 60
	DefaultBurnSeconds    = 5 * 60

	maxNameLen  = 24
	defaultName = "PLAYER"
)

type Token struct {
	ID       int
	Name     string
	Alive    bool
	Volume   int64
	Holdings map[string]int64
}

// Total is the sum of all holdings of the token.
func (t *Token) Total() int64 {
	var sum int64
	for _, b := range t.Holdings {
		sum += b
	}
	return sum
}

type Config struct {
	Supply         int64
	FeeBasisPoints int64
	TradeSeconds   int
	BurnSeconds    int
	// BotName generates names for tokens 2..10. Nil uses RandomBotName.
	BotName func() string
}

func DefaultConfig() Config {
	return Config{
		Supply:         DefaultSupply,
		FeeBasisPoints: DefaultFeeBasisPoints,
		TradeSeconds:   DefaultTradeSeconds,
		BurnSeconds:    DefaultBurnSeconds,
	}
}

type Arena struct {
	cfg              Config
	tokens           []*Token
	started          bool
	phase            Phase
	tradeSecondsLeft int
	burnSecondsLeft  int
}

// New creates an arena in the lobby phase. Token 1 belongs entirely to owner
// and is named after tokenName; tokens 2..10 are bots with empty holdings.
func New(cfg Config, owner, tokenName string) *Arena {
	if cfg.BotName == nil {
		cfg.BotName = RandomBotName
	}
	tokens := make([]*Token, 0, TokenCount)
	tokens = append(tokens, &Token{
		ID:       PlayerTokenID,
		Name:     NormalizeName(tokenName),
		Alive:    true,
		Holdings: map[string]int64{owner: cfg.Supply},
	})
	for id := PlayerTokenID + 1; id <= TokenCount; id++ {
		tokens = append(tokens, &Token{
			ID:       id,
			Name:     cfg.BotName(),
			Alive:    true,
			Holdings: map[string]int64{},
		})
	}
	return &Arena{
		cfg:              cfg,
		tokens:           tokens,
		phase:            PhaseLobby,
		tradeSecondsLeft: cfg.TradeSeconds,
		burnSecondsLeft:  cfg.BurnSeconds,
	}
}

// NormalizeName uppercases s with full Unicode case mapping (so "ß" becomes
// "SS"), keeps only A-Z and 0-9 and truncates to 24 characters. An empty
// result becomes "PLAYER".
func NormalizeName(s string) string {
	var b strings.Builder
	for _, r := range cases.Upper(language.Und).String(s) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			if b.Len() == maxNameLen {
				break
			}
		}
	}
	if b.Len() == 0 {
		return defaultName
	}
	return b.String()
}

func (a *Arena) Phase() Phase          { return a.phase }
func (a *Arena) Started() bool         { return a.started }
func (a *Arena) TradeSecondsLeft() int { return a.tradeSecondsLeft }
func (a *Arena) BurnSecondsLeft() int  { return a.burnSecondsLeft }

// Token returns the token with the given id, alive or not.
func (a *Arena) Token(id int) (*Token, bool) {
	for _, t := range a.tokens {
		if t.ID == id {
			return t, true
		}
	}
	return nil, false
}

// Balance returns address's holdings of token id.
func (a *Arena) Balance(address string, id int) int64 {
	t, ok := a.Token(id)
	if !ok {
		return 0
	}
	return t.Holdings[address]
}

// Alive returns the surviving tokens in id order.
func (a *Arena) Alive() []*Token {
	alive := make([]*Token, 0, len(a.tokens))
	for _, t := range a.tokens {
		if t.Alive {
			alive = append(alive, t)
		}
	}
	return alive
}

// AdvanceToTrade is the only lobby to trade transition. It reports false if
// the arena was already started.
func (a *Arena) AdvanceToTrade() bool {
	if a.started {
		return false
	}
	a.started = true
	a.phase = PhaseTrade
	return true
}

func (a *Arena) AdvanceToBurn() error {
	if a.phase != PhaseTrade {
		return phaseError("advance to burn", a.phase)
	}
	a.phase = PhaseBurn
	return nil
}

// Finish moves the arena into the terminal done phase. It reports false if the
// arena was already done.
func (a *Arena) Finish() bool {
	if a.phase == PhaseDone {
		return false
	}
	a.phase = PhaseDone
	return true
}

// TickTrade takes one second off the trade countdown and returns what is left.
func (a *Arena) TickTrade() int {
	if a.tradeSecondsLeft > 0 {
		a.tradeSecondsLeft--
	}
	return a.tradeSecondsLeft
}

// TickBurn takes one second off the burn countdown and returns what is left.
func (a *Arena) TickBurn() int {
	if a.burnSecondsLeft > 0 {
		a.burnSecondsLeft--
	}
	return a.burnSecondsLeft
}
