// Package persistence saves and restores the GameState as a versioned,
// schema-checked envelope. Loading never fails: anything unreadable falls
// back to a fresh default state.
package persistence

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"eclipse/internal/config"
	"eclipse/internal/model"
)

// Key names the save slot in every backend.
const Key = "eclipse.save"

// CurrentVersion is the envelope version written by Encode.
const CurrentVersion = 5

var ErrNoSave = errors.New("no save found")

//go:embed schema/save.schema.json
var saveSchema []byte

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaErr      error
)

type Envelope struct {
	Version   int             `json:"version"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

func schema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		c := jsonschema.NewCompiler()
		if err := c.AddResource("save.schema.json", bytes.NewReader(saveSchema)); err != nil {
			schemaErr = fmt.Errorf("add schema: %w", err)
			return
		}
		compiledSchema, schemaErr = c.Compile("save.schema.json")
	})
	return compiledSchema, schemaErr
}

// Encode wraps the sanitized state in a current-version envelope.
func Encode(st model.GameState, now time.Time) ([]byte, error) {
	data, err := json.Marshal(st.Sanitize())
	if err != nil {
		return nil, fmt.Errorf("encode state: %w", err)
	}
	return json.Marshal(Envelope{Version: CurrentVersion, Timestamp: now.UTC(), Data: data})
}

// Decode turns a stored blob back into a normalized state. Corruption,
// schema violations and migration failures are logged and answered with
// the default state.
func Decode(raw []byte, b config.Balance, log *slog.Logger) model.GameState {
	if log == nil {
		log = slog.Default()
	}
	st, err := decode(raw, b)
	if err != nil {
		log.Warn("save unreadable, starting fresh", "err", err)
		return model.NewGameState(b)
	}
	return st
}

func decode(raw []byte, b config.Balance) (model.GameState, error) {
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return model.GameState{}, fmt.Errorf("parse save: %w", err)
	}
	obj, ok := doc.(map[string]any)
	if !ok {
		return model.GameState{}, fmt.Errorf("parse save: top level is %T", doc)
	}
	// Unversioned saves are the bare state object.
	if _, wrapped := obj["data"]; !wrapped {
		obj = map[string]any{"version": float64(1), "data": obj}
	}

	s, err := schema()
	if err != nil {
		return model.GameState{}, err
	}
	if err := s.Validate(obj); err != nil {
		return model.GameState{}, fmt.Errorf("validate save: %w", err)
	}

	version := int(obj["version"].(float64))
	data := obj["data"].(map[string]any)
	if err := Migrate(data, version, b); err != nil {
		return model.GameState{}, err
	}

	defaults, err := toMap(model.NewGameState(b))
	if err != nil {
		return model.GameState{}, err
	}
	merged := Merge(defaults, data)

	buf, err := json.Marshal(merged)
	if err != nil {
		return model.GameState{}, fmt.Errorf("encode merged: %w", err)
	}
	var st model.GameState
	if err := json.Unmarshal(buf, &st); err != nil {
		return model.GameState{}, fmt.Errorf("decode state: %w", err)
	}
	st = st.Sanitize()
	st.Normalize(b)
	return st, nil
}

func toMap(v any) (map[string]any, error) {
	buf, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(buf, &m); err != nil {
		return nil, err
	}
	return m, nil
}
