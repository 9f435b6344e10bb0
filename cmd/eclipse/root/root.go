package root

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const Version = "0.1.0"

var configFile string

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "eclipse",
		Short:         "Eclipse: tasks become adversaries, deadlines become battles",
		Long:          "Eclipse runs the task-driven world simulation: a JSON API, the periodic world tick, autosave and optional cloud sync.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.Version = Version
	cmd.SetVersionTemplate("{{.Name}} v{{.Version}}\n")

	pf := cmd.PersistentFlags()
	pf.StringVar(&configFile, "config", "", "config file (yaml); defaults to ./eclipse.yaml when present")
	pf.String("data-dir", "", "data directory")
	pf.String("storage", "", "save backend: file or sqlite")
	pf.String("balance", "", "balance tuning file (yaml)")
	pf.String("difficulty", "", "balance preset: casual, normal or hard")
	pf.String("log-level", "", "debug, info, warn or error")
	pf.String("log-format", "", "text or json")

	cmd.AddCommand(
		newServeCmd(),
		newRelayCmd(),
		newStatusCmd(),
		newStatsCmd(),
		newBackupCmd(),
		newRestoreCmd(),
		newDrillCmd(),
	)
	return cmd
}

func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, Bad.Render(IconError+" "+err.Error()))
		os.Exit(1)
	}
}
