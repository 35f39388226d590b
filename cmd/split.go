package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"splitter/command/segment"
	"splitter/config"
	"splitter/ffmpeg"
	"splitter/ffprobe"
	"splitter/history"
	"splitter/internal/log"
	"splitter/internal/metrics"
	"splitter/internal/timeutil"
	"splitter/models"
	"splitter/orchestrator"
	"splitter/planner"
	"splitter/progress"
	"splitter/report"
)

func newSplitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "split <video>",
		Short: "Split a video into fixed-length clips",
		Long: `Split probes the source, plans consecutive segments of the requested length
and runs ffmpeg once per segment. Sources whose video codec is listed in
convert_codecs (AV1 by default) can be re-encoded to H.264 on the way.

Press Ctrl+C to stop: the running ffmpeg is terminated, its partial output
removed, and the command exits with status 130.`,
		Example: `  splitter split lecture.mkv -m 10
  splitter split lecture.mkv -m 5 --convert always -o ./clips --yes
  splitter split lecture.mkv --dry-run`,
		Args: cobra.ExactArgs(1),
		RunE: runSplit,
	}

	config.BindFlags(cmd.Flags())
	cmd.Flags().BoolP("yes", "y", false, "Start without asking for confirmation")

	return cmd
}

func runSplit(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	cfg.Input = args[0]
	if err := cfg.ValidateInput(); err != nil {
		return err
	}

	ctx := cmd.Context()
	out := newConsole(cmd.OutOrStdout())
	ask := newPrompter(cmd.InOrStdin(), out)
	logger := log.WithComponent("cli")

	banner(out, "VIDEO SPLITTER  |  Go + FFmpeg")

	// Step 1: Preflight
	tools := []string{cfg.Tools.FFprobe}
	if !cfg.DryRun {
		tools = append(tools, cfg.Tools.FFmpeg)
	}
	if err := ffmpeg.CheckTools(ctx, tools...); err != nil {
		return err
	}

	// Step 2: Source summary
	m := metrics.New()
	prober := ffprobe.NewProber(cfg.Tools.FFprobe)
	prober.Metrics = m

	out.Println("\nReading video info...")
	info, err := prober.Probe(ctx, cfg.Input)
	if err != nil {
		return fmt.Errorf("cannot read video info: %w", err)
	}
	summary := summarize(info, cfg.ConvertCodecs)
	printSummary(out, summary)

	// Step 3: Plan up front so a bad segment length fails before any prompt
	plan, err := planner.Plan(info.Duration, cfg.SegmentMinutes*60)
	if err != nil {
		return err
	}

	transcode := decideConvert(cfg, summary, ask, out)

	outputDir, err := resolveOutputDir(cfg)
	if err != nil {
		return err
	}

	if cfg.DryRun {
		return printDryRun(out, cfg, plan, outputDir, transcode)
	}

	// Step 4: Confirmation
	printConfirmation(out, cfg, summary, plan, outputDir, transcode)
	if yes, _ := cmd.Flags().GetBool("yes"); !yes {
		if !ask.Confirm("\nStart processing? (y/n):") {
			out.Println("Cancelled.")
			return nil
		}
	}

	// Step 5: Run the batch
	section(out, "✂️  Splitting")

	hub := progress.NewHub()
	sub := hub.Subscribe()
	printed := make(chan struct{})
	go func() {
		defer close(printed)
		for ev := range sub.C() {
			out.Println("  " + ev.Message)
		}
	}()

	cancel := models.NewCancelSignal()
	stopSignals := watchSignals(cancel, out)
	defer stopSignals()

	executor := ffmpeg.NewExecutor()
	executor.PollInterval = cfg.Execution.PollInterval
	executor.GracePeriod = cfg.Execution.GracePeriod
	executor.OnProgress = func(p *models.EncodingProgress) {
		out.Status("  " + p.FormatSummary())
	}

	orch := orchestrator.New(prober, executor, report.NewGenerator(), hub).SetMetrics(m)
	res, runErr := orch.Run(ctx, orchestrator.Request{
		Input:          cfg.Input,
		OutputDir:      outputDir,
		SegmentMinutes: cfg.SegmentMinutes,
		Transcode:      transcode,
		Binary:         cfg.Tools.FFmpeg,
		Video:          cfg.VideoSettings(),
		Audio:          cfg.AudioSettings(),
	}, cancel)

	hub.Close()
	<-printed

	// Step 6: Record
	if res != nil {
		recordHistory(ctx, cfg, res)
	}
	if cfg.MetricsFile != "" {
		if err := m.WriteTextfile(cfg.MetricsFile); err != nil {
			logger.Warn().Err(err).Msg("could not write metrics file")
		}
	}

	if runErr != nil {
		return runErr
	}
	if res.Outcome == orchestrator.OutcomeCancelled {
		return errCancelled
	}

	printResult(out, res)
	return nil
}

// decideConvert applies the convert policy to a source flagged for
// conversion. Sources that are not flagged are always stream-copied.
func decideConvert(cfg *config.Config, s sourceSummary, ask *prompter, out *console) bool {
	if !s.NeedsConv {
		return false
	}

	switch cfg.Convert {
	case config.ConvertAlways:
		out.Printf("\nVideo uses %s encoding; converting to H.264 (convert: always).\n", strings.ToUpper(s.VideoCodec))
		return true
	case config.ConvertNever:
		out.Printf("\nVideo uses %s encoding; keeping it (convert: never).\n", strings.ToUpper(s.VideoCodec))
		return false
	}

	out.Printf("\nWARNING: Video uses %s encoding.\n", strings.ToUpper(s.VideoCodec))
	out.Printf("   %s has limited compatibility with some devices and players.\n", strings.ToUpper(s.VideoCodec))
	if ask.Confirm("   Convert to H.264? (y/n):") {
		out.Println("   Video will be converted to H.264.")
		return true
	}
	out.Printf("   Video will be split without conversion (keeping %s).\n", strings.ToUpper(s.VideoCodec))
	return false
}

// resolveOutputDir returns the configured directory or <input dir>/output_split.
func resolveOutputDir(cfg *config.Config) (string, error) {
	if cfg.OutputDir != "" {
		return cfg.OutputDir, nil
	}
	abs, err := filepath.Abs(cfg.Input)
	if err != nil {
		return "", fmt.Errorf("failed to resolve input path: %w", err)
	}
	return filepath.Join(filepath.Dir(abs), config.DefaultOutputDirName), nil
}

func printConfirmation(out *console, cfg *config.Config, s sourceSummary, plan models.SegmentPlan, outputDir string, transcode bool) {
	conversion := "None (stream copy)"
	if transcode {
		conversion = fmt.Sprintf("%s -> H.264 (%s)", strings.ToUpper(s.VideoCodec), cfg.Video.Codec)
	}

	out.Println()
	banner(out, "Ready to split")
	out.Printf("  File        : %s\n", filepath.Base(cfg.Input))
	out.Printf("  Duration    : %s\n", s.DurationHMS)
	out.Printf("  Per segment : %s min  ->  %d files\n", humanize.Ftoa(cfg.SegmentMinutes), plan.Len())
	out.Printf("  Conversion  : %s\n", conversion)
	out.Printf("  Output      : %s\n", outputDir)
	out.Printf("  %-11s : Auto-generated in output folder\n", report.FileName)
}

func printDryRun(out *console, cfg *config.Config, plan models.SegmentPlan, outputDir string, transcode bool) error {
	section(out, "🧪 Dry run: commands that would be executed")

	base := segment.BaseName(cfg.Input)
	for _, seg := range plan {
		line, err := segment.FromOptions(segment.Options{
			Binary:    cfg.Tools.FFmpeg,
			Input:     cfg.Input,
			Output:    filepath.Join(outputDir, segment.OutputFilename(base, seg)),
			Segment:   seg,
			Transcode: transcode,
			Video:     cfg.VideoSettings(),
			Audio:     cfg.AudioSettings(),
		}).DryRun()
		if err != nil {
			return err
		}
		out.Printf("  [%d/%d] %s\n", seg.Index+1, plan.Len(), line)
	}

	out.Println("\n✓ No files were written.")
	return nil
}

func printResult(out *console, res *orchestrator.BatchResult) {
	var total int64
	for _, clip := range res.Clips {
		total += clip.SizeBytes
	}

	out.Println()
	banner(out, "✅ Split finished")
	out.Printf("  Clips       : %d of %d\n", len(res.Clips), res.Plan.Len())
	if len(res.Failed) > 0 {
		out.Printf("  Failed      : %d\n", len(res.Failed))
	}
	out.Printf("  Total size  : %s\n", humanize.IBytes(uint64(total)))
	out.Printf("  Elapsed     : %s\n", timeutil.DurationLabel(res.FinishedAt.Sub(res.StartedAt).Seconds()))
	if res.ReportPath != "" {
		out.Printf("  Report      : %s\n", res.ReportPath)
	}
}

// watchSignals sets cancel on SIGINT or SIGTERM until the returned stop
// function is called.
func watchSignals(cancel *models.CancelSignal, out *console) (stop func()) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	done := make(chan struct{})

	go func() {
		select {
		case <-sigCh:
			out.Println("\n⚠️  Interrupt received, stopping the current segment...")
			cancel.Cancel()
		case <-done:
		}
	}()

	return func() {
		signal.Stop(sigCh)
		close(done)
	}
}

func recordHistory(ctx context.Context, cfg *config.Config, res *orchestrator.BatchResult) {
	if cfg.HistoryDB == "" {
		return
	}
	logger := log.WithComponent("history")

	store, err := history.Open(cfg.HistoryDB)
	if err != nil {
		logger.Warn().Err(err).Str("path", cfg.HistoryDB).Msg("history disabled for this run")
		return
	}
	defer store.Close()

	// Record even if ctx was cancelled mid-run
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()

	if err := store.RecordBatch(ctx, history.FromResult(res)); err != nil {
		logger.Warn().Err(err).Str("batch_id", res.ID).Msg("could not record batch")
	}
}
