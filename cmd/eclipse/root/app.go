package root

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"eclipse/internal/cloud"
	"eclipse/internal/config"
	"eclipse/internal/content"
	"eclipse/internal/game"
	"eclipse/internal/model"
	"eclipse/internal/notify"
	"eclipse/internal/persistence"
	"eclipse/internal/store"
	"eclipse/internal/telemetry"
)

const dbName = "eclipse.db"

// app is one opened data directory with every collaborator wired.
type app struct {
	rt        config.Runtime
	log       *slog.Logger
	balance   config.Balance
	db        *persistence.SQLiteBackend
	repo      *persistence.Repository
	store     *store.Store
	autosaver *persistence.Autosaver
	telemetry *telemetry.SQLiteRepository
	recorder  *notify.Recorder
	engine    *game.Engine
	cloud     *cloud.WSClient
	syncer    *cloud.Syncer
}

// openApp loads the save from rt.DataDir and wires the engine. The SQLite
// database always holds telemetry; it holds the save too when the storage
// backend is sqlite.
func openApp(ctx context.Context, rt config.Runtime, log *slog.Logger) (*app, error) {
	b, err := rt.Balance()
	if err != nil {
		return nil, fmt.Errorf("balance: %w", err)
	}
	if err := os.MkdirAll(rt.DataDir, 0o755); err != nil {
		return nil, err
	}

	db, err := persistence.OpenSQLite(filepath.Join(rt.DataDir, dbName))
	if err != nil {
		return nil, err
	}
	a := &app{rt: rt, log: log, balance: b, db: db}

	var backend persistence.Backend = db
	if rt.Storage == config.StorageFile {
		fb, err := persistence.NewFileBackend(rt.DataDir)
		if err != nil {
			a.close()
			return nil, err
		}
		backend = fb
	}

	a.telemetry, err = telemetry.NewSQLiteRepository(db.DB())
	if err != nil {
		a.close()
		return nil, err
	}

	a.repo = persistence.NewRepository(backend, b, log)
	st := a.repo.Load(ctx)
	if rt.RoomID != "" {
		st.Settings.Sync = model.SyncConfig{Enabled: true, RoomID: rt.RoomID}
	}
	a.store = store.New(st, b, log)
	a.autosaver = persistence.NewAutosaver(a.repo, log)
	a.store.Subscribe(a.autosaver)

	if rt.RelayURL != "" {
		a.cloud = cloud.NewWSClient(rt.RelayURL, log)
		a.syncer = cloud.NewSyncer(a.cloud, log)
		a.store.Subscribe(a.syncer)
	}

	a.recorder = notify.NewRecorder(200)
	fan := notify.Fanout{
		Notifiers: []notify.Notifier{notify.LogNotifier{Log: log}, a.recorder},
		Players:   []notify.Cues{notify.LogCues{Log: log}, a.recorder},
	}
	dice := content.NewRand(rt.Seed)
	a.engine = game.New(a.store, game.Options{
		Dice:      dice,
		Content:   content.NewProcedural(dice),
		Notifier:  fan,
		Cues:      fan,
		Telemetry: a.telemetry,
		Log:       log,
	})
	return a, nil
}

// startSync follows the configured room and pushes local commits until ctx
// is done. Without a relay it does nothing.
func (a *app) startSync(ctx context.Context) {
	if a.cloud == nil {
		return
	}
	go a.syncer.Run(ctx)

	room := a.store.Snapshot().Settings.Sync.RoomID
	if room == "" {
		return
	}
	if err := cloud.Follow(ctx, a.cloud, a.store, room); err != nil {
		a.log.Warn("cloud follow failed; continuing offline", "room", room, "err", err)
	}
}

func (a *app) ready(ctx context.Context) error {
	return a.db.DB().PingContext(ctx)
}

// close flushes the latest state and releases every resource.
func (a *app) close() {
	if a.engine != nil {
		a.engine.Shutdown()
	}
	if a.autosaver != nil {
		if err := a.autosaver.Flush(context.Background()); err != nil {
			a.log.Error("final save failed", "err", err)
		}
	}
	if a.cloud != nil {
		_ = a.cloud.Close()
	}
	if a.db != nil {
		_ = a.db.Close()
	}
}
