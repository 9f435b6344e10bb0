package model

import (
	"math"

	"eclipse/internal/config"
)

type RealmStats struct {
	Hope  float64 `json:"hope"`
	Fear  float64 `json:"fear"`
	Order float64 `json:"order"`
}

func DefaultRealm() RealmStats {
	return RealmStats{Hope: 50, Fear: 30, Order: 50}
}

// Apply adds a fixed delta and clamps every axis to [0,100].
func (r RealmStats) Apply(d config.RealmDelta) RealmStats {
	return RealmStats{
		Hope:  r.Hope + d.Hope,
		Fear:  r.Fear + d.Fear,
		Order: r.Order + d.Order,
	}.clamped()
}

func (r RealmStats) clamped() RealmStats {
	return RealmStats{
		Hope:  clampFloat(r.Hope, 0, 100),
		Fear:  clampFloat(r.Fear, 0, 100),
		Order: clampFloat(r.Order, 0, 100),
	}
}

type Structures struct {
	Forge   int `json:"forge"`
	Walls   int `json:"walls"`
	Library int `json:"library"`
	Market  int `json:"market"`
}

func DefaultStructures() Structures {
	return Structures{Forge: 1, Walls: 1}
}

func (s Structures) Total() int { return s.Forge + s.Walls + s.Library + s.Market }

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// clampFloat maps NaN to lo.
func clampFloat(v, lo, hi float64) float64 {
	if math.IsNaN(v) || v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
