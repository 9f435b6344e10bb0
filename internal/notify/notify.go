// Package notify delivers player-facing notifications and audio/visual
// cues. The engine only knows the interfaces; hosts decide what a cue or
// notification looks like.
package notify

import (
	"log/slog"
	"sync"
)

type Notifier interface {
	Notify(title, body string)
}

type Cue string

const (
	CueVictory Cue = "victory"
	CueDefeat  Cue = "defeat"
	CueError   Cue = "error"
	CueClick   Cue = "ui-click"
)

type Cues interface {
	Play(cue Cue)
}

// LogNotifier writes notifications to a structured log.
type LogNotifier struct {
	Log *slog.Logger
}

func (n LogNotifier) Notify(title, body string) {
	logger(n.Log).Info("notification", "title", title, "body", body)
}

// LogCues writes cues to a structured log at debug level.
type LogCues struct {
	Log *slog.Logger
}

func (c LogCues) Play(cue Cue) {
	logger(c.Log).Debug("cue", "cue", string(cue))
}

func logger(l *slog.Logger) *slog.Logger {
	if l == nil {
		return slog.Default()
	}
	return l
}

type Notification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// Recorder keeps every notification and cue in memory. The HTTP API
// serves its contents; tests assert on them.
type Recorder struct {
	mu            sync.Mutex
	notifications []Notification
	cues          []Cue
	limit         int
}

// NewRecorder keeps at most limit entries of each kind; 0 means unbounded.
func NewRecorder(limit int) *Recorder {
	return &Recorder{limit: limit}
}

func (r *Recorder) Notify(title, body string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notifications = append(r.notifications, Notification{Title: title, Body: body})
	if r.limit > 0 && len(r.notifications) > r.limit {
		r.notifications = r.notifications[len(r.notifications)-r.limit:]
	}
}

func (r *Recorder) Play(cue Cue) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cues = append(r.cues, cue)
	if r.limit > 0 && len(r.cues) > r.limit {
		r.cues = r.cues[len(r.cues)-r.limit:]
	}
}

func (r *Recorder) Notifications() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notification(nil), r.notifications...)
}

func (r *Recorder) Cues() []Cue {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Cue(nil), r.cues...)
}

// Fanout forwards to several notifiers and cue players.
type Fanout struct {
	Notifiers []Notifier
	Players   []Cues
}

func (f Fanout) Notify(title, body string) {
	for _, n := range f.Notifiers {
		n.Notify(title, body)
	}
}

func (f Fanout) Play(cue Cue) {
	for _, p := range f.Players {
		p.Play(cue)
	}
}
