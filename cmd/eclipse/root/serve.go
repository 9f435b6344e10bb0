package root

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"eclipse/internal/cloud"
	"eclipse/internal/httpmw"
	"eclipse/internal/serverapp"
)

const shutdownTimeout = 5 * time.Second

func newServeCmd() *cobra.Command {
	var withRelay bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the JSON API with the world tick, autosave and cloud sync",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			rt, err := loadRuntime(cmd)
			if err != nil {
				return err
			}
			log := newLogger(rt, cmd.ErrOrStderr())

			a, err := openApp(ctx, rt, log)
			if err != nil {
				return err
			}
			defer a.close()

			var relay http.Handler
			if withRelay {
				relay = cloud.NewHub(log)
			}
			handler, err := serverapp.NewHandler(serverapp.Options{
				Engine:    a.engine,
				Telemetry: a.telemetry,
				Recorder:  a.recorder,
				Relay:     relay,
				Ready:     a.ready,
				Logger:    log,
			})
			if err != nil {
				return err
			}

			a.startSync(ctx)
			go a.autosaver.Run(ctx, rt.AutosaveInterval)
			go func() {
				if err := a.engine.Run(ctx, rt.TickInterval); err != nil {
					log.Error("world tick stopped", "err", err)
				}
			}()

			srv := &http.Server{Addr: rt.Addr, Handler: handler, ReadHeaderTimeout: 10 * time.Second}
			log.Info("listening", "addr", rt.Addr, "storage", rt.Storage, "data_dir", rt.DataDir, "tick", rt.TickInterval)
			return listenUntilDone(ctx, srv)
		},
	}
	f := cmd.Flags()
	f.String("addr", "", "listen address")
	f.Duration("tick-interval", 0, "world tick interval")
	f.Duration("autosave-interval", 0, "autosave interval")
	f.String("relay-url", "", "websocket relay to sync through, e.g. ws://host:42070/relay")
	f.String("room", "", "sync room id; enables sync")
	f.Int64("seed", 0, "random seed; 0 picks one")
	f.BoolVar(&withRelay, "with-relay", false, "also serve a relay at /relay")
	return cmd
}

func newRelayCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "relay",
		Short: "Run the websocket relay that peers sync their state through",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			rt, err := loadRuntime(cmd)
			if err != nil {
				return err
			}
			log := newLogger(rt, cmd.ErrOrStderr())

			hub := cloud.NewHub(log)
			mux := http.NewServeMux()
			mux.Handle("GET /relay", hub)
			mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json; charset=utf-8")
				_ = json.NewEncoder(w).Encode(map[string]any{
					"ok":    true,
					"rooms": hub.Rooms(),
				})
			})
			handler := httpmw.Chain(mux,
				httpmw.WithAccessLog(log),
				httpmw.WithRequestID,
				httpmw.WithRecover(log),
			)

			srv := &http.Server{Addr: rt.Addr, Handler: handler, ReadHeaderTimeout: 10 * time.Second}
			log.Info("relay listening", "addr", rt.Addr)
			return listenUntilDone(ctx, srv)
		},
	}
	cmd.Flags().String("addr", "", "listen address")
	return cmd
}

// listenUntilDone serves until ctx is cancelled, then shuts down gracefully.
func listenUntilDone(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
