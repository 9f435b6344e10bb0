package model

import (
	"fmt"
	"time"

	"eclipse/internal/config"
)

// XPToNext is the experience needed to leave the given level.
func XPToNext(level int, b config.Balance) int {
	return max(1, level*b.XPPerLevel)
}

// GainXP adds experience and applies any level-ups, returning how many
// levels were gained. Each level raises and refills hero hp.
func (s *GameState) GainXP(xp int, now time.Time, b config.Balance) int {
	if xp <= 0 {
		return 0
	}
	s.XP += xp
	gained := 0
	for s.XP >= XPToNext(s.Level, b) {
		s.XP -= XPToNext(s.Level, b)
		s.Level++
		s.MaxHeroHP += b.HeroHPPerLevel
		s.HeroHP = s.MaxHeroHP
		gained++
		s.Log(now, HistoryLevelUp, fmt.Sprintf("The hero reached level %d.", s.Level), "")
		s.PushEffect("level-up", now)
	}
	return gained
}

// AddGold applies a signed gold change without going below zero.
func (s *GameState) AddGold(delta int) {
	s.Gold = max(0, s.Gold+delta)
}

func (s *GameState) AddMana(delta int) {
	s.Mana = clampInt(s.Mana+delta, 0, s.MaxMana)
}

func (s *GameState) DamageHero(n int) {
	s.HeroHP = clampInt(s.HeroHP-n, 0, s.MaxHeroHP)
}

// AdjustBase applies a signed change to base hp within [0,max].
func (s *GameState) AdjustBase(delta float64) {
	s.BaseHP = clampFloat(s.BaseHP+delta, 0, s.MaxBaseHP)
}
