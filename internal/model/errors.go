package model

import (
	"errors"
	"fmt"
)

// ErrInsufficient matches any InsufficientError via errors.Is.
var ErrInsufficient = errors.New("insufficient resources")

// InsufficientError rejects an action the realm cannot pay for.
type InsufficientError struct {
	Resource string
	Need     int
	Have     int
}

func (e *InsufficientError) Error() string {
	return fmt.Sprintf("insufficient %s: need %d, have %d", e.Resource, e.Need, e.Have)
}

func (e *InsufficientError) Is(target error) bool { return target == ErrInsufficient }

// SpendGold deducts cost or reports the shortfall without touching state.
func (s *GameState) SpendGold(cost int) error {
	if s.Gold < cost {
		return &InsufficientError{Resource: "gold", Need: cost, Have: s.Gold}
	}
	s.Gold -= cost
	return nil
}

func (s *GameState) SpendMana(cost int) error {
	if s.Mana < cost {
		return &InsufficientError{Resource: "mana", Need: cost, Have: s.Mana}
	}
	s.Mana -= cost
	return nil
}
