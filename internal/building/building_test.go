package building

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eclipse/internal/config"
	"eclipse/internal/model"
)

func TestUpgrade(t *testing.T) {
	b := config.Default()
	st := model.NewGameState(b)
	st.Gold = 350

	lvl, err := Upgrade(&st, TypeWalls, b)
	require.NoError(t, err)
	assert.Equal(t, 2, lvl)
	assert.Equal(t, 150, st.Gold, "walls 1->2 costs 200")

	_, err = Upgrade(&st, TypeLibrary, b)
	require.NoError(t, err)
	assert.Equal(t, 1, st.Structures.Library)
	assert.Equal(t, 50, st.Gold)

	_, err = Upgrade(&st, TypeMarket, b)
	assert.ErrorIs(t, err, model.ErrInsufficient)
	assert.Equal(t, 0, st.Structures.Market)

	_, err = Upgrade(&st, Type("moat"), b)
	assert.Error(t, err)
}

func TestDerivedStats(t *testing.T) {
	b := config.Default()
	st := model.NewGameState(b)
	st.Structures = model.Structures{Forge: 2, Walls: 3, Library: 1, Market: 4}
	st.EquipmentBonus = 7

	assert.Equal(t, 17, Equipment(st))
	assert.Equal(t, 60, WallDefense(st.Structures, b))
	assert.Equal(t, 1.5, Regeneration(st.Structures, b))
	assert.Equal(t, 2, ManaPerTick(st.Structures))
	assert.Equal(t, 20, TradeBonus(st.Structures))
}

func TestParse(t *testing.T) {
	typ, err := Parse("forge")
	require.NoError(t, err)
	assert.Equal(t, TypeForge, typ)
	_, err = Parse("tower")
	assert.Error(t, err)
}
