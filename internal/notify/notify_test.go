package notify

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecorder(t *testing.T) {
	r := NewRecorder(2)
	r.Notify("a", "1")
	r.Notify("b", "2")
	r.Notify("c", "3")
	r.Play(CueVictory)

	assert.Equal(t, []Notification{{"b", "2"}, {"c", "3"}}, r.Notifications())
	assert.Equal(t, []Cue{CueVictory}, r.Cues())
}

func TestFanoutAndLog(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	rec := NewRecorder(0)

	f := Fanout{
		Notifiers: []Notifier{LogNotifier{Log: log}, rec},
		Players:   []Cues{LogCues{Log: log}, rec},
	}
	f.Notify("Crisis", "The report is overdue")
	f.Play(CueError)

	assert.Contains(t, buf.String(), `title=Crisis`)
	assert.Contains(t, buf.String(), `cue=error`)
	assert.Len(t, rec.Notifications(), 1)
	assert.Equal(t, []Cue{CueError}, rec.Cues())
}
