package game

import "errors"

var (
	ErrTaskNotFound     = errors.New("task not found")
	ErrSubtaskNotFound  = errors.New("subtask not found")
	ErrInvalidPriority  = errors.New("priority must be 1 (LOW), 2 (MEDIUM) or 3 (HIGH)")
	ErrEmptyTitle       = errors.New("title is required")
	ErrInvalidParent    = errors.New("invalid parent task")
	ErrTaskFailed       = errors.New("task has failed")
	ErrTaskCompleted    = errors.New("task is already completed")
	ErrNotFailed        = errors.New("task has not failed")
	ErrNightPending     = errors.New("a night assault is already pending")
	ErrNoAlert          = errors.New("no active alert")
	ErrNoVision         = errors.New("no vision on offer")
	ErrFactionNotFound  = errors.New("faction not found")
	ErrReputationTooLow = errors.New("reputation too low")
	ErrUnknownAction    = errors.New("unknown diplomacy action")
	ErrSyncNeedsRoom    = errors.New("sync needs a room id")
)

// errNoop aborts a mutation that would change nothing; callers treat it as
// success.
var errNoop = errors.New("no change")
