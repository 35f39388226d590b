// Package cmd implements the splitter command line.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"splitter/config"
	"splitter/internal/log"
)

// Version is set at build time with -ldflags "-X splitter/cmd.Version=...".
var Version = "dev"

// errCancelled is returned by split when the user interrupted the batch.
var errCancelled = errors.New("split cancelled by user")

// NewRootCmd builds the full command tree.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "splitter",
		Short: "Split long videos into fixed-length clips with FFmpeg",
		Long: `Splitter cuts a long video into consecutive clips of a fixed length using
ffmpeg, optionally re-encoding sources whose codec plays poorly on common
devices, and writes a README.txt describing every clip it produced.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level, _ := cmd.Flags().GetString("log-level")
			log.Configure(log.Config{Level: level, Output: cmd.ErrOrStderr(), Console: true})
		},
	}

	root.PersistentFlags().String("config", "", "Config file (default: ./splitter.yaml, ~/.splitter/config.yaml, /etc/splitter/config.yaml)")
	root.PersistentFlags().String("log-level", "", "Log level: trace, debug, info, warn, error (default from config or LOG_LEVEL)")

	root.AddCommand(newSplitCmd())
	root.AddCommand(newProbeCmd())
	root.AddCommand(newPlanCmd())
	root.AddCommand(newHistoryCmd())
	root.AddCommand(newConfigCmd())
	root.AddCommand(newVersionCmd())

	return root
}

// Execute runs the CLI and exits with 130 after a user cancellation and 1 on
// any other error.
func Execute() {
	if err := NewRootCmd().ExecuteContext(context.Background()); err != nil {
		if errors.Is(err, errCancelled) {
			fmt.Fprintln(os.Stderr, "\n⚠️  Split cancelled by user")
			os.Exit(130) // Standard exit code for SIGINT
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig resolves the configuration for cmd (flags > file > defaults)
// and reconfigures logging from it.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")

	cfg, loadedFrom, err := config.LoadConfig(path, cmd.Flags())
	if err != nil {
		return nil, err
	}

	log.Configure(log.Config{Level: cfg.LogLevel, Output: cmd.ErrOrStderr(), Console: true})
	if loadedFrom != "" {
		l := log.L()
		l.Debug().Str("path", loadedFrom).Msg("loaded config file")
	}

	return cfg, nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the splitter version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "splitter %s\n", Version)
		},
	}
}
