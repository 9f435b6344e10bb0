package content

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eclipse/internal/model"
)

func TestProcedural_IdentityKeepsRevengeLineage(t *testing.T) {
	p := NewProcedural(NewRand(7))

	id := p.Identity(IdentityRequest{
		FactionID: model.FactionDreadCult,
		Race:      model.RaceDemon,
		Priority:  model.PriorityHigh,
		Rank:      4,
		Lineage:   "House Ashfall",
	})
	assert.Equal(t, "House Ashfall", id.Lineage)
	assert.Contains(t, id.Lore, "House Ashfall")
	assert.NotEmpty(t, id.Name)

	fresh := p.Identity(IdentityRequest{FactionID: model.FactionFeyCourt, Priority: model.PriorityLow, Rank: 1})
	assert.Contains(t, fresh.Lineage, "House ")
}

func TestProcedural_WorldEventPicksTwoDistinctFactions(t *testing.T) {
	p := NewProcedural(NewRand(42))
	table := model.DefaultFactionTable()
	for i := 0; i < 50; i++ {
		ev, ok := p.WorldEvent(table)
		require.True(t, ok)
		assert.NotEqual(t, ev.A, ev.B)
		assert.NotEmpty(t, ev.Message)
	}

	_, ok := p.WorldEvent(table[:1])
	assert.False(t, ok)
}

func TestProcedural_ItemScalesWithLevel(t *testing.T) {
	p := NewProcedural(&Script{Ints: []int{2, 0}})
	low := p.Item(0)
	assert.Equal(t, model.ItemEquipment, low.Kind)
	assert.Equal(t, "COMMON", low.Rarity)
	assert.Equal(t, 5, low.Power)

	p = NewProcedural(&Script{Ints: []int{2, 4}})
	high := p.Item(50)
	assert.Equal(t, "LEGENDARY", high.Rarity)
	assert.Greater(t, high.Power, low.Power)
}

func TestScript_RepeatsLastValue(t *testing.T) {
	s := &Script{Floats: []float64{0.1, 0.5}, Ints: []int{7}}
	assert.Equal(t, 0.1, s.Float64())
	assert.Equal(t, 0.5, s.Float64())
	assert.Equal(t, 0.5, s.Float64())
	assert.Equal(t, 2, s.IntN(5))
	assert.Equal(t, 0.99, (&Script{}).Float64())
}

func TestLowerFirst(t *testing.T) {
	tests := []struct{ in, want string }{
		{"", ""},
		{"The gate fell", "the gate fell"},
		{"Éowyn rode out", "éowyn rode out"},
		{"Ωmega cult rises", "ωmega cult rises"},
		{"already lower", "already lower"},
		{"\xffbroken", "\xffbroken"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, lowerFirst(tt.in))
	}
}
