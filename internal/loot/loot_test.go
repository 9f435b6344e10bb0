package loot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"eclipse/internal/config"
	"eclipse/internal/content"
	"eclipse/internal/model"
)

func TestChance(t *testing.T) {
	b := config.Default()
	assert.InDelta(t, 0.4, Chance(0, b), 1e-9)
	assert.InDelta(t, 0.45, Chance(10, b), 1e-9)
	assert.Equal(t, 1.0, Chance(120, b))
	assert.Equal(t, 1.0, Chance(1000, b))
}

func TestChance_MonotoneInLevel(t *testing.T) {
	b := config.Default()
	rapid.Check(t, func(rt *rapid.T) {
		lo := rapid.IntRange(0, 500).Draw(rt, "lo")
		hi := rapid.IntRange(lo, 1000).Draw(rt, "hi")
		if Chance(hi, b) < Chance(lo, b) {
			rt.Fatalf("chance(%d)=%v < chance(%d)=%v", hi, Chance(hi, b), lo, Chance(lo, b))
		}
		if c := Chance(hi, b); c < 0 || c > 1 {
			rt.Fatalf("chance %v outside [0,1]", c)
		}
	})
}

func TestRoll(t *testing.T) {
	b := config.Default()
	gen := content.NewProcedural(content.NewRand(1))

	_, ok := Roll(gen, &content.Script{Floats: []float64{0.39}}, 0, b)
	assert.True(t, ok)
	_, ok = Roll(gen, &content.Script{Floats: []float64{0.4}}, 0, b)
	assert.False(t, ok)
	_, ok = Roll(gen, &content.Script{Floats: []float64{0.4}}, 2, b)
	assert.True(t, ok)
}

func TestPurchase_InsufficientGold(t *testing.T) {
	st := model.NewGameState(config.Default())
	st.Gold = 40
	before := st.Clone()

	_, err := Purchase(&st, "equipment")
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrInsufficient)

	var ie *model.InsufficientError
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, 50, ie.Need)
	assert.Equal(t, 40, ie.Have)
	assert.Equal(t, 40, st.Gold)
	assert.Equal(t, before.Inventory, st.Inventory)
}

func TestPurchaseAndUse(t *testing.T) {
	st := model.NewGameState(config.Default())
	st.Gold = 200
	st.HeroHP = 50

	potion, err := Purchase(&st, "potion")
	require.NoError(t, err)
	assert.Equal(t, 170, st.Gold)
	require.Len(t, st.Inventory, 1)

	_, err = Use(&st, potion.ID)
	require.NoError(t, err)
	assert.Equal(t, 80, st.HeroHP)
	assert.Empty(t, st.Inventory)

	blade, err := Purchase(&st, "equipment")
	require.NoError(t, err)
	_, err = Use(&st, blade.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, st.EquipmentBonus)

	_, err = Use(&st, "missing")
	assert.ErrorIs(t, err, ErrItemNotFound)

	_, err = Purchase(&st, "dragon")
	assert.Error(t, err)
}
