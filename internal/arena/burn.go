package arena

// SurvivorThreshold is the alive count at which elimination stops and the game
// ends.
const SurvivorThreshold = 2

type Elimination struct {
	// TokenID is the burned token, 0 when nothing was burned.
	TokenID  int
	Finished bool
}

// EliminateOne burns the alive token with the lowest volume, the lowest id
// winning ties. With two or fewer tokens alive nothing is burned and the arena
// finishes instead. A done arena is left untouched.
func (a *Arena) EliminateOne() Elimination {
	if a.phase == PhaseDone {
		return Elimination{Finished: true}
	}
	alive := a.Alive()
	if len(alive) <= SurvivorThreshold {
		a.Finish()
		return Elimination{Finished: true}
	}
	lowest := alive[0]
	for _, t := range alive[1:] {
		if t.Volume < lowest.Volume {
			lowest = t
		}
	}
	lowest.Alive = false
	return Elimination{TokenID: lowest.ID}
}
