package model

import (
	"time"
)

type Priority int

const (
	PriorityLow    Priority = 1
	PriorityMedium Priority = 2
	PriorityHigh   Priority = 3
)

func (p Priority) Valid() bool { return p >= PriorityLow && p <= PriorityHigh }

func (p Priority) String() string {
	switch p {
	case PriorityLow:
		return "LOW"
	case PriorityMedium:
		return "MEDIUM"
	case PriorityHigh:
		return "HIGH"
	default:
		return "UNKNOWN"
	}
}

// ParsePriority accepts the enum names; anything unrecognized is MEDIUM.
func ParsePriority(s string) Priority {
	switch s {
	case "LOW", "low", "1":
		return PriorityLow
	case "HIGH", "high", "3":
		return PriorityHigh
	default:
		return PriorityMedium
	}
}

type Task struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Description     string    `json:"description,omitempty"`
	StartTime       time.Time `json:"startTime"`
	Deadline        time.Time `json:"deadline"`
	Priority        Priority  `json:"priority"`
	Completed       bool      `json:"completed"`
	Failed          bool      `json:"failed"`
	Subtasks        []Subtask `json:"subtasks,omitempty"`
	ParentID        string    `json:"parentId,omitempty"`
	CrisisTriggered bool      `json:"crisisTriggered"`
	Hubris          bool      `json:"hubris"`
	ForesightBonus  float64   `json:"foresightBonus"`
	CreatedAt       time.Time `json:"createdAt"`
}

type Subtask struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Completed bool       `json:"completed"`
	StartTime *time.Time `json:"startTime,omitempty"`
	Deadline  *time.Time `json:"deadline,omitempty"`
}

// Terminal tasks no longer take part in combat or crisis scans.
func (t Task) Terminal() bool { return t.Completed || t.Failed }

func (t Task) Started(now time.Time) bool { return !now.Before(t.StartTime) }

// Progress is the elapsed fraction of the task window. It is not clamped.
func (t Task) Progress(now time.Time) float64 {
	span := t.Deadline.Sub(t.StartTime)
	if span <= 0 {
		return 1
	}
	return float64(now.Sub(t.StartTime)) / float64(span)
}

func (t Task) DurationHours() float64 {
	return t.Deadline.Sub(t.StartTime).Hours()
}

// Window returns the subtask's own window, defaulting to the parent's.
func (s Subtask) Window(parent Task) (time.Time, time.Time) {
	start, end := parent.StartTime, parent.Deadline
	if s.StartTime != nil {
		start = *s.StartTime
	}
	if s.Deadline != nil {
		end = *s.Deadline
	}
	return start, end
}

// CorrectWindow forces deadline after start, falling back to start+fallback.
func CorrectWindow(start, deadline time.Time, fallback time.Duration) time.Time {
	if !deadline.After(start) {
		return start.Add(fallback)
	}
	return deadline
}

func (t Task) SubtaskIndex(id string) int {
	for i := range t.Subtasks {
		if t.Subtasks[i].ID == id {
			return i
		}
	}
	return -1
}

func (t Task) clone() Task {
	c := t
	if t.Subtasks != nil {
		c.Subtasks = make([]Subtask, len(t.Subtasks))
		for i, s := range t.Subtasks {
			c.Subtasks[i] = s
			if s.StartTime != nil {
				v := *s.StartTime
				c.Subtasks[i].StartTime = &v
			}
			if s.Deadline != nil {
				v := *s.Deadline
				c.Subtasks[i].Deadline = &v
			}
		}
	}
	return c
}
