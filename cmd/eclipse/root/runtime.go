package root

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"eclipse/internal/config"
)

// flagKeys maps command-line flags onto config keys.
var flagKeys = map[string]string{
	"data-dir":          "data_dir",
	"storage":           "storage",
	"balance":           "balance",
	"difficulty":        "difficulty",
	"addr":              "addr",
	"tick-interval":     "tick_interval",
	"autosave-interval": "autosave_interval",
	"relay-url":         "relay_url",
	"room":              "room_id",
	"log-level":         "log_level",
	"log-format":        "log_format",
	"seed":              "seed",
}

// loadRuntime resolves process settings. Precedence, highest first:
// flags, config file, ECLIPSE_* environment, built-in defaults.
func loadRuntime(cmd *cobra.Command) (config.Runtime, error) {
	rt, err := config.FromEnv()
	if err != nil {
		return config.Runtime{}, err
	}

	v := viper.New()
	v.SetConfigType("yaml")
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("eclipse")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return config.Runtime{}, fmt.Errorf("reading config: %w", err)
		}
	}

	for flag, key := range flagKeys {
		if f := cmd.Flags().Lookup(flag); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return config.Runtime{}, fmt.Errorf("bind flag %s: %w", flag, err)
			}
		}
	}

	str := func(key string, dst *string) {
		if v.IsSet(key) {
			*dst = v.GetString(key)
		}
	}
	str("data_dir", &rt.DataDir)
	str("storage", &rt.Storage)
	str("balance", &rt.BalancePath)
	str("difficulty", &rt.Difficulty)
	str("addr", &rt.Addr)
	str("relay_url", &rt.RelayURL)
	str("room_id", &rt.RoomID)
	str("log_level", &rt.LogLevel)
	str("log_format", &rt.LogFormat)
	if v.IsSet("tick_interval") {
		rt.TickInterval = v.GetDuration("tick_interval")
	}
	if v.IsSet("autosave_interval") {
		rt.AutosaveInterval = v.GetDuration("autosave_interval")
	}
	if v.IsSet("seed") {
		rt.Seed = v.GetInt64("seed")
	}

	return rt, rt.Validate()
}

func newLogger(rt config.Runtime, w io.Writer) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(rt.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(rt.LogFormat, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
