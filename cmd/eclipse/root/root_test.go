package root

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eclipse/internal/config"
	"eclipse/internal/game"
	"eclipse/internal/model"
	"eclipse/internal/telemetry"
)

func quietLog() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func flagCmd(t *testing.T, args ...string) *cobra.Command {
	t.Helper()
	cmd := &cobra.Command{Use: "test"}
	f := cmd.Flags()
	f.String("data-dir", "", "")
	f.String("storage", "", "")
	f.Duration("tick-interval", 0, "")
	f.String("room", "", "")
	require.NoError(t, cmd.ParseFlags(args))
	return cmd
}

func TestLoadRuntime_Precedence(t *testing.T) {
	t.Setenv("ECLIPSE_DATA_DIR", "/env/data")
	t.Setenv("ECLIPSE_STORAGE", "sqlite")
	t.Setenv("ECLIPSE_TICK_INTERVAL", "3s")

	cfg := filepath.Join(t.TempDir(), "eclipse.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("storage: file\ntick_interval: 7s\nroom_id: hearth\n"), 0o644))
	configFile = cfg
	t.Cleanup(func() { configFile = "" })

	rt, err := loadRuntime(flagCmd(t, "--tick-interval", "1m"))
	require.NoError(t, err)
	assert.Equal(t, "/env/data", rt.DataDir, "env survives when nothing overrides it")
	assert.Equal(t, config.StorageFile, rt.Storage, "config file beats env")
	assert.Equal(t, time.Minute, rt.TickInterval, "flag beats config file")
	assert.Equal(t, "hearth", rt.RoomID)
	assert.Equal(t, 30*time.Second, rt.AutosaveInterval)
}

func TestLoadRuntime_Invalid(t *testing.T) {
	configFile = ""
	_, err := loadRuntime(flagCmd(t, "--storage", "postgres"))
	assert.Error(t, err)

	configFile = filepath.Join(t.TempDir(), "missing.yaml")
	t.Cleanup(func() { configFile = "" })
	_, err = loadRuntime(flagCmd(t))
	assert.Error(t, err, "an explicit config file must exist")
}

func TestLoadRuntime_FlagRepairsBadEnv(t *testing.T) {
	configFile = ""
	t.Setenv("ECLIPSE_STORAGE", "redis")

	rt, err := loadRuntime(flagCmd(t, "--storage", "sqlite"))
	require.NoError(t, err)
	assert.Equal(t, config.StorageSQLite, rt.Storage)

	_, err = loadRuntime(flagCmd(t))
	assert.Error(t, err, "nothing overrides the bad env value")
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	log := newLogger(config.Runtime{LogLevel: "warn", LogFormat: "json"}, &buf)
	log.Info("hidden")
	log.Warn("shown", "k", 1)
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"msg":"shown"`)
}

func testRuntime(t *testing.T, storage string) config.Runtime {
	t.Helper()
	return config.Runtime{
		DataDir:          t.TempDir(),
		Storage:          storage,
		Difficulty:       "normal",
		TickInterval:     time.Second,
		AutosaveInterval: time.Second,
		Seed:             7,
	}
}

func TestOpenApp_PersistsAcrossRestarts(t *testing.T) {
	for _, storage := range []string{config.StorageFile, config.StorageSQLite} {
		t.Run(storage, func(t *testing.T) {
			rt := testRuntime(t, storage)
			ctx := context.Background()

			a, err := openApp(ctx, rt, quietLog())
			require.NoError(t, err)
			task, err := a.engine.CreateTask(ctx, game.TaskInput{Title: "Renew passport", Priority: model.PriorityHigh})
			require.NoError(t, err)
			require.True(t, a.autosaver.Dirty())
			a.close()

			b, err := openApp(ctx, rt, quietLog())
			require.NoError(t, err)
			defer b.close()
			st := b.store.Snapshot()
			require.Len(t, st.Tasks, 1)
			assert.Equal(t, task.ID, st.Tasks[0].ID)
			assert.NotEmpty(t, st.Enemies)

			events, err := b.telemetry.GetEvents(time.Now().Add(-time.Hour), []telemetry.EventType{telemetry.EventTaskCreated})
			require.NoError(t, err)
			assert.Len(t, events, 1)
			require.NoError(t, b.ready(ctx))
		})
	}
}

func TestOpenApp_RoomEnablesSync(t *testing.T) {
	rt := testRuntime(t, config.StorageFile)
	rt.RoomID = "hearth"
	a, err := openApp(context.Background(), rt, quietLog())
	require.NoError(t, err)
	defer a.close()

	sync := a.store.Snapshot().Settings.Sync
	assert.True(t, sync.Enabled)
	assert.Equal(t, "hearth", sync.RoomID)
	assert.Nil(t, a.cloud, "no relay configured")
}

func TestStatusCommand(t *testing.T) {
	dir := t.TempDir()
	out, err := runCLI(t, "status", "--data-dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "Level 1 hero")
	assert.Contains(t, out, "The Shadow Legion")
	assert.Contains(t, out, "Walls")

	out, err = runCLI(t, "status", "--data-dir", dir, "--json")
	require.NoError(t, err)
	assert.Contains(t, out, `"gold": 150`)
}

func TestStatsCommand(t *testing.T) {
	dir := t.TempDir()
	out, err := runCLI(t, "stats", "--data-dir", dir, "--days", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "Tasks completed")

	_, err = runCLI(t, "stats", "--data-dir", dir, "--days", "0")
	assert.Error(t, err)
}

func TestBackupRestoreDrillCommands(t *testing.T) {
	dir := t.TempDir()
	_, err := runCLI(t, "status", "--data-dir", dir)
	require.NoError(t, err)

	archive := filepath.Join(t.TempDir(), "eclipse.tar.zst")
	out, err := runCLI(t, "backup", "--data-dir", dir, "--out", archive)
	require.NoError(t, err)
	assert.Equal(t, archive, strings.TrimSpace(out))

	target := filepath.Join(t.TempDir(), "restored")
	_, err = runCLI(t, "restore", "--archive", archive, "--target-dir", target)
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(target, dbName))
	assert.NoError(t, err)

	_, err = runCLI(t, "restore")
	assert.Error(t, err)

	out, err = runCLI(t, "drill", "--data-dir", dir, "--work-dir", t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, out, "digest")
}

func TestRenderStats(t *testing.T) {
	var buf bytes.Buffer
	renderStats(&buf, telemetry.Stats{
		Period:          "2026-03-02",
		TaskCompletions: 4,
		Battles:         2,
		BattlesWon:      1,
		WinRate:         0.5,
		LootByKind:      map[string]int{"RELIC": 1, "POTION": 2},
	})
	out := buf.String()
	assert.Contains(t, out, "Since 2026-03-02")
	assert.Contains(t, out, "50% won")
	assert.Contains(t, out, "potion×2, relic×1")
}
