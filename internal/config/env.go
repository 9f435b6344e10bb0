package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Runtime holds process settings, as opposed to gameplay balance.
type Runtime struct {
	DataDir          string        `env:"ECLIPSE_DATA_DIR" envDefault:"data" mapstructure:"data_dir"`
	Storage          string        `env:"ECLIPSE_STORAGE" envDefault:"file" mapstructure:"storage"`
	BalancePath      string        `env:"ECLIPSE_BALANCE" mapstructure:"balance"`
	Difficulty       string        `env:"ECLIPSE_DIFFICULTY" envDefault:"normal" mapstructure:"difficulty"`
	Addr             string        `env:"ECLIPSE_ADDR" envDefault:":42069" mapstructure:"addr"`
	TickInterval     time.Duration `env:"ECLIPSE_TICK_INTERVAL" envDefault:"10s" mapstructure:"tick_interval"`
	AutosaveInterval time.Duration `env:"ECLIPSE_AUTOSAVE_INTERVAL" envDefault:"30s" mapstructure:"autosave_interval"`
	RelayURL         string        `env:"ECLIPSE_RELAY_URL" mapstructure:"relay_url"`
	RoomID           string        `env:"ECLIPSE_ROOM_ID" mapstructure:"room_id"`
	LogLevel         string        `env:"ECLIPSE_LOG_LEVEL" envDefault:"info" mapstructure:"log_level"`
	LogFormat        string        `env:"ECLIPSE_LOG_FORMAT" envDefault:"text" mapstructure:"log_format"`
	Seed             int64         `env:"ECLIPSE_SEED" mapstructure:"seed"`
}

const (
	StorageFile   = "file"
	StorageSQLite = "sqlite"
)

// FromEnv loads runtime configuration from environment variables, falling
// back to defaults for unset ones. It does not validate: callers layer the
// config file and flags on top and call Validate on the result.
func FromEnv() (Runtime, error) {
	var rt Runtime
	if err := env.Parse(&rt); err != nil {
		return Runtime{}, fmt.Errorf("parse env: %w", err)
	}
	return rt, nil
}

func (rt Runtime) Validate() error {
	switch rt.Storage {
	case StorageFile, StorageSQLite:
	default:
		return fmt.Errorf("unknown storage backend %q", rt.Storage)
	}
	if rt.TickInterval <= 0 {
		return fmt.Errorf("tick interval must be positive")
	}
	if rt.AutosaveInterval <= 0 {
		return fmt.Errorf("autosave interval must be positive")
	}
	return nil
}

// Balance resolves the gameplay balance for this runtime: the tuning file
// when one is configured, the difficulty preset otherwise.
func (rt Runtime) Balance() (Balance, error) {
	if rt.BalancePath != "" {
		return LoadBalance(rt.BalancePath)
	}
	return Preset(rt.Difficulty), nil
}
