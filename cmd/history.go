package cmd

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"splitter/history"
	"splitter/internal/sizefmt"
)

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [batch-id]",
		Short: "List recorded split runs, or the clips of one run",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runHistory,
	}

	cmd.Flags().String("history-db", "", "SQLite history file (default from config)")
	cmd.Flags().IntP("limit", "n", 20, "Maximum number of runs to list (0 = all)")

	return cmd
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cfg.HistoryDB == "" {
		return errors.New("no history database configured (set history_db or --history-db)")
	}

	store, err := history.Open(cfg.HistoryDB)
	if err != nil {
		return err
	}
	defer store.Close()

	out := newConsole(cmd.OutOrStdout())

	if len(args) == 1 {
		b, err := store.GetBatch(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("batch %s: %w", args[0], err)
		}
		printBatch(out, b)
		return nil
	}

	limit, _ := cmd.Flags().GetInt("limit")
	batches, err := store.ListBatches(cmd.Context(), limit)
	if err != nil {
		return err
	}
	if len(batches) == 0 {
		out.Println("No runs recorded yet.")
		return nil
	}

	out.Printf("%-36s  %-10s  %-8s  %-6s  %-14s  %s\n", "ID", "Outcome", "Segments", "Failed", "When", "Input")
	out.Println(strings.Repeat("-", 100))
	for _, b := range batches {
		out.Printf("%-36s  %-10s  %-8d  %-6d  %-14s  %s\n",
			b.ID,
			b.Outcome,
			b.Planned,
			b.Failed,
			humanize.Time(b.StartedAt),
			filepath.Base(b.Input))
	}
	return nil
}

func printBatch(out *console, b *history.Batch) {
	out.Printf("Batch      : %s\n", b.ID)
	out.Printf("Input      : %s\n", b.Input)
	out.Printf("Output     : %s\n", b.OutputDir)
	out.Printf("Outcome    : %s\n", b.Outcome)
	out.Printf("Segments   : %d planned, %d failed, %s min each\n", b.Planned, b.Failed, humanize.Ftoa(b.SegmentMinutes))
	out.Printf("Started    : %s (%s)\n", b.StartedAt.Local().Format("2006-01-02 15:04:05"), humanize.Time(b.StartedAt))
	if b.ReportPath != "" {
		out.Printf("Report     : %s\n", b.ReportPath)
	}

	if len(b.Clips) == 0 {
		return
	}
	out.Println()
	var total int64
	for i, c := range b.Clips {
		out.Printf("  %2d. %-40s %s - %s  %10s\n", i+1, c.Filename, c.StartLabel, c.EndLabel, c.SizeString())
		total += c.SizeBytes
	}
	out.Printf("\n  Total: %s\n", sizefmt.FormatSize(total))
}
