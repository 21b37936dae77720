package arena

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func burning(t *testing.T) *Arena {
	t.Helper()
	a := newTrading(t)
	require.NoError(t, a.AdvanceToBurn())
	return a
}

func TestEliminateLowestVolume(t *testing.T) {
	a := burning(t)
	for id := 1; id <= 10; id++ {
		tok, _ := a.Token(id)
		tok.Volume = int64(100 - id)
	}

	res := a.EliminateOne()
	assert.Equal(t, Elimination{TokenID: 10}, res)
	tok, _ := a.Token(10)
	assert.False(t, tok.Alive)

	res = a.EliminateOne()
	assert.Equal(t, 9, res.TokenID)
}

func TestEliminateTieBreaksOnLowestID(t *testing.T) {
	a := burning(t)
	for _, id := range []int{1, 2, 5} {
		tok, _ := a.Token(id)
		tok.Volume = 50
	}
	// 3, 4, 6..10 stay at zero

	assert.Equal(t, 3, a.EliminateOne().TokenID)
	assert.Equal(t, 4, a.EliminateOne().TokenID)
	assert.Equal(t, 6, a.EliminateOne().TokenID)
}

func TestEliminateSelectsMinimum(t *testing.T) {
	a := burning(t)
	vols := map[int]int64{1: 40, 2: 7, 3: 7, 4: 90, 5: 3, 6: 12, 7: 3, 8: 60, 9: 15, 10: 8}
	for id, v := range vols {
		tok, _ := a.Token(id)
		tok.Volume = v
	}

	for a.Phase() != PhaseDone {
		alive := a.Alive()
		res := a.EliminateOne()
		if res.Finished {
			break
		}
		burned, _ := a.Token(res.TokenID)
		for _, other := range alive {
			assert.LessOrEqual(t, burned.Volume, other.Volume)
			if other.Volume == burned.Volume {
				assert.GreaterOrEqual(t, other.ID, burned.ID)
			}
		}
	}
	survivors := a.Alive()
	require.Len(t, survivors, 2)
	assert.Equal(t, 4, survivors[0].ID)
	assert.Equal(t, 8, survivors[1].ID)
}

func TestEliminateStopsAtTwoSurvivors(t *testing.T) {
	a := burning(t)

	for i := 0; i < 8; i++ {
		res := a.EliminateOne()
		assert.False(t, res.Finished)
		assert.NotZero(t, res.TokenID)
	}
	assert.Len(t, a.Alive(), 2)
	assert.Equal(t, PhaseBurn, a.Phase())

	res := a.EliminateOne()
	assert.Equal(t, Elimination{Finished: true}, res)
	assert.Equal(t, PhaseDone, a.Phase())

	for i := 0; i < 3; i++ {
		assert.Equal(t, Elimination{Finished: true}, a.EliminateOne())
	}
	assert.Len(t, a.Alive(), 2)
}

func TestEliminateNothingWhenDone(t *testing.T) {
	a := burning(t)
	a.Finish()

	res := a.EliminateOne()
	assert.True(t, res.Finished)
	assert.Len(t, a.Alive(), 10)
}

func TestEliminatedTokenCannotTrade(t *testing.T) {
	a := newTrading(t)
	// all volumes zero: token 1 goes first
	assert.Equal(t, 1, a.EliminateOne().TokenID)
	assert.ErrorIs(t, a.Swap("0xA", 1, 2, 1), ErrTokenNotFound)
}
