package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"splitter/command/segment"
	"splitter/ffmpeg"
	"splitter/ffprobe"
	"splitter/internal/timeutil"
	"splitter/planner"
)

func newPlanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan <video>",
		Short: "List the segments and file names a split would produce",
		Args:  cobra.ExactArgs(1),
		RunE:  runPlan,
	}

	cmd.Flags().String("ffprobe", "ffprobe", "Path to the ffprobe executable")
	cmd.Flags().Float64P("segment-minutes", "m", planner.DefaultSegmentMinutes, "Length of each segment in minutes")

	return cmd
}

func runPlan(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	if err := ffmpeg.CheckTools(cmd.Context(), cfg.Tools.FFprobe); err != nil {
		return err
	}

	info, err := ffprobe.NewProber(cfg.Tools.FFprobe).Probe(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("cannot read video info: %w", err)
	}

	plan, err := planner.Plan(info.Duration, cfg.SegmentMinutes*60)
	if err != nil {
		return err
	}

	out := newConsole(cmd.OutOrStdout())
	base := segment.BaseName(args[0])

	out.Printf("%-4s %-9s %-9s %-10s %s\n", "#", "Start", "End", "Length", "File")
	out.Println(strings.Repeat("-", 72))
	for _, seg := range plan {
		out.Printf("%-4d %-9s %-9s %-10s %s\n",
			seg.Index+1,
			timeutil.FormatHMS(seg.Start),
			timeutil.FormatHMS(seg.End),
			timeutil.DurationLabel(seg.Duration()),
			segment.OutputFilename(base, seg))
	}
	out.Printf("\n%d segments covering %s\n", plan.Len(), timeutil.FormatHMS(info.Duration))
	return nil
}
