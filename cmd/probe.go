package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"splitter/ffmpeg"
	"splitter/ffprobe"
)

func newProbeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "probe <video>",
		Short: "Show codec, resolution, duration and size of a video",
		Args:  cobra.ExactArgs(1),
		RunE:  runProbe,
	}

	cmd.Flags().String("ffprobe", "ffprobe", "Path to the ffprobe executable")
	cmd.Flags().StringSlice("convert-codecs", []string{"av1"}, "Source video codecs flagged for conversion")
	cmd.Flags().Bool("json", false, "Print the summary as JSON")

	return cmd
}

func runProbe(cmd *cobra.Command, args []string) error {
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
	summary := summarize(info, cfg.ConvertCodecs)

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(summary)
	}

	out := newConsole(cmd.OutOrStdout())
	printSummary(out, summary)
	if summary.NeedsConv {
		out.Printf("   Note       : %s is flagged for conversion to H.264\n", summary.VideoCodec)
	}
	return nil
}
