package arena

// TokenView is the public projection of a token. It never carries
// per-address balances.
type TokenView struct {
	ID     int    `json:"id"`
	Name   string `json:"name"`
	Alive  bool   `json:"alive"`
	Volume int64  `json:"vol"`
	Total  int64  `json:"total"`
}

type Snapshot struct {
	Initialized      bool        `json:"initialized"`
	Tokens           []TokenView `json:"tokens"`
	Started          bool        `json:"started"`
	Phase            Phase       `json:"phase"`
	TradeSecondsLeft int         `json:"tradeLeft"`
	BurnSecondsLeft  int         `json:"burnLeft"`
}

// Uninitialized is what observers see while no arena exists.
func Uninitialized() Snapshot {
	return Snapshot{Tokens: []TokenView{}, Phase: PhaseLobby}
}

func (a *Arena) Snapshot() Snapshot {
	tokens := make([]TokenView, 0, len(a.tokens))
	for _, t := range a.tokens {
		tokens = append(tokens, TokenView{
			ID:     t.ID,
			Name:   t.Name,
			Alive:  t.Alive,
			Volume: t.Volume,
			Total:  t.Total(),
		})
	}
	return Snapshot{
		Initialized:      true,
		Tokens:           tokens,
		Started:          a.started,
		Phase:            a.phase,
		TradeSecondsLeft: a.tradeSecondsLeft,
		BurnSecondsLeft:  a.burnSecondsLeft,
	}
}

// Survivors returns the alive tokens of a snapshot.
func (s Snapshot) Survivors() []TokenView {
	var out []TokenView
	for _, t := range s.Tokens {
		if t.Alive {
			out = append(out, t)
		}
	}
	return out
}
