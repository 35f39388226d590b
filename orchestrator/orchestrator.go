// Package orchestrator drives one split batch: probe the source, plan the
// segments, run the encoder for each segment in order and report progress.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"splitter/command"
	"splitter/command/segment"
	"splitter/ffmpeg"
	"splitter/internal/log"
	"splitter/internal/metrics"
	"splitter/models"
	"splitter/planner"
	"splitter/progress"
	"splitter/report"
)

// Prober reads media metadata.
type Prober interface {
	Probe(ctx context.Context, path string) (*models.MediaInfo, error)
}

// Executor runs one encoder invocation to completion or cancellation.
type Executor interface {
	Run(ctx context.Context, inv command.Invocation, cancel *models.CancelSignal) (ffmpeg.ExecutionResult, error)
}

// ReportGenerator writes the batch report and returns its path.
type ReportGenerator interface {
	Generate(ctx context.Context, in report.Input) (string, error)
}

// Outcome is the terminal state of a batch.
type Outcome string

const (
	OutcomeCompleted Outcome = "completed"
	OutcomeCancelled Outcome = "cancelled"
	OutcomeAborted   Outcome = "aborted" // stopped before or during segment work by an error
)

// Request describes one batch.
type Request struct {
	Input          string
	OutputDir      string
	SegmentMinutes float64
	Transcode      bool

	// Encoder settings passed unchanged to the command builder.
	Binary string
	Video  segment.VideoSettings
	Audio  segment.AudioSettings
}

// SegmentLength returns the requested segment length in seconds.
func (r Request) SegmentLength() float64 {
	return r.SegmentMinutes * 60
}

// Validate checks the request before any work is done.
func (r Request) Validate() error {
	var errs []string
	if strings.TrimSpace(r.Input) == "" {
		errs = append(errs, "input path cannot be empty")
	}
	if strings.TrimSpace(r.OutputDir) == "" {
		errs = append(errs, "output directory cannot be empty")
	}
	if !(r.SegmentMinutes > 0) {
		errs = append(errs, "segment length must be positive")
	} else if r.SegmentMinutes < planner.MinSegmentMinutes {
		errs = append(errs, fmt.Sprintf("segment length must be at least %d minute", planner.MinSegmentMinutes))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid request: %s", strings.Join(errs, "; "))
	}
	return nil
}

// BatchResult summarizes a finished batch.
//
// Failed lists the 0-based indexes of segments whose encoder run failed or
// whose output could not be verified; the batch still counts as completed
// when only some segments fail.
type BatchResult struct {
	ID         string
	Request    Request
	Source     *models.MediaInfo
	Plan       models.SegmentPlan
	Clips      []models.ClipEntry
	Failed     []int
	Outcome    Outcome
	ReportPath string
	StartedAt  time.Time
	FinishedAt time.Time
}

// Orchestrator runs batches one segment at a time. It holds no per-batch
// state, so one Orchestrator may run successive batches.
type Orchestrator struct {
	prober    Prober
	executor  Executor
	reporter  ReportGenerator
	publisher progress.Publisher
	metrics   *metrics.Metrics
	logger    zerolog.Logger
}

// New creates an Orchestrator. reporter and publisher may be nil.
func New(prober Prober, executor Executor, reporter ReportGenerator, publisher progress.Publisher) *Orchestrator {
	return &Orchestrator{
		prober:    prober,
		executor:  executor,
		reporter:  reporter,
		publisher: publisher,
		logger:    log.WithComponent("orchestrator"),
	}
}

// SetMetrics enables metric recording.
func (o *Orchestrator) SetMetrics(m *metrics.Metrics) *Orchestrator {
	o.metrics = m
	return o
}

// SetLogger replaces the orchestrator's logger.
func (o *Orchestrator) SetLogger(logger zerolog.Logger) *Orchestrator {
	o.logger = logger
	return o
}

// Run executes the batch described by req.
//
// Progress is published as it happens. Cancellation (through cancel or ctx)
// is not an error: Run returns the partial result with OutcomeCancelled.
// An error is returned when the batch cannot start (invalid request, probe
// or planning failure, output directory) or when the encoder executable is
// unavailable; in each case one failed event is published first.
func (o *Orchestrator) Run(ctx context.Context, req Request, cancel *models.CancelSignal) (*BatchResult, error) {
	b := &batch{
		o:      o,
		ctx:    ctx,
		cancel: cancel,
		result: &BatchResult{
			ID:        uuid.NewString(),
			Request:   req,
			Outcome:   OutcomeAborted,
			StartedAt: time.Now(),
		},
	}
	b.logger = o.logger.With().Str("batch_id", b.result.ID).Logger()

	err := b.run()

	b.result.FinishedAt = time.Now()
	o.metrics.ObserveBatch(string(b.result.Outcome))
	b.logger.Info().
		Str("outcome", string(b.result.Outcome)).
		Int("clips", len(b.result.Clips)).
		Int("failed", len(b.result.Failed)).
		Dur("elapsed", b.result.FinishedAt.Sub(b.result.StartedAt)).
		Msg("batch finished")

	return b.result, err
}

// batch holds the state of one Run call.
type batch struct {
	o      *Orchestrator
	ctx    context.Context
	cancel *models.CancelSignal
	result *BatchResult
	logger zerolog.Logger
	total  int
}

func (b *batch) cancelled() bool {
	return b.cancel.IsCancelled() || b.ctx.Err() != nil
}

func (b *batch) publish(ev models.ProgressEvent) {
	ev.TotalSegments = b.total
	b.logger.Debug().
		Str("status", string(ev.Status)).
		Int("segment", ev.SegmentIndex).
		Msg(ev.Message)
	if b.o.publisher != nil {
		b.o.publisher.Publish(ev)
	}
}

// abort publishes a single failed notification and returns err.
func (b *batch) abort(index int, err error) error {
	b.publish(models.ProgressEvent{
		SegmentIndex: index,
		Status:       models.StatusFailed,
		Error:        err.Error(),
		Message:      fmt.Sprintf("Error: %v", err),
	})
	return err
}

func (b *batch) run() error {
	req := b.result.Request

	// Planning
	if err := req.Validate(); err != nil {
		return b.abort(0, err)
	}

	info, err := b.o.prober.Probe(b.ctx, req.Input)
	if err != nil {
		return b.abort(0, fmt.Errorf("cannot read video info: %w", err))
	}
	b.result.Source = info

	plan, err := planner.Plan(info.Duration, req.SegmentLength())
	if err != nil {
		return b.abort(0, err)
	}
	if err := planner.Validate(plan, info.Duration); err != nil {
		return b.abort(0, fmt.Errorf("inconsistent segment plan: %w", err))
	}
	b.result.Plan = plan
	b.total = plan.Len()

	if err := os.MkdirAll(req.OutputDir, 0o755); err != nil {
		return b.abort(0, fmt.Errorf("create output directory: %w", err))
	}

	b.logger.Info().
		Str("input", req.Input).
		Str("output_dir", req.OutputDir).
		Int("segments", b.total).
		Bool("transcode", req.Transcode).
		Msg("batch started")

	// Running
	b.publish(models.ProgressEvent{
		SegmentIndex: 0,
		Status:       models.StatusStarted,
		Message:      fmt.Sprintf("Splitting into %d segments...", b.total),
	})

	base := segment.BaseName(req.Input)
	for _, seg := range plan {
		if b.cancelled() {
			b.publish(models.ProgressEvent{
				SegmentIndex: seg.Index + 1,
				Status:       models.StatusCancelled,
				Message:      "Cancelled by user.",
			})
			b.result.Outcome = OutcomeCancelled
			return nil
		}

		stop, err := b.runSegment(base, seg)
		if err != nil {
			return err
		}
		if stop {
			b.result.Outcome = OutcomeCancelled
			return nil
		}
	}

	// Completion
	if len(b.result.Clips) > 0 && b.o.reporter != nil {
		b.writeReport()
	}

	b.result.Outcome = OutcomeCompleted
	b.publish(models.ProgressEvent{
		SegmentIndex: b.total,
		Status:       models.StatusDone,
		Message:      fmt.Sprintf("All done! Files saved to: %s", absPath(req.OutputDir)),
	})
	return nil
}

// runSegment encodes one segment. It reports stop=true when the batch was
// cancelled while the encoder ran.
func (b *batch) runSegment(base string, seg models.Segment) (stop bool, err error) {
	req := b.result.Request
	n := seg.Index + 1
	startLabel := segment.Label(seg.Start)
	endLabel := segment.Label(seg.End)
	filename := segment.OutputFilename(base, seg)
	outPath := filepath.Join(req.OutputDir, filename)

	ev := models.ProgressEvent{
		SegmentIndex: n,
		StartLabel:   startLabel,
		EndLabel:     endLabel,
		Filename:     filename,
	}

	started := ev
	started.Status = models.StatusStarted
	started.Message = fmt.Sprintf("[%d/%d] %s -> %s | %s", n, b.total, startLabel, endLabel, filename)
	b.publish(started)

	inv := segment.Build(segment.Options{
		Binary:    req.Binary,
		Input:     req.Input,
		Output:    outPath,
		Segment:   seg,
		Transcode: req.Transcode,
		Video:     req.Video,
		Audio:     req.Audio,
	})

	res, err := b.o.executor.Run(b.ctx, inv, b.cancel)
	if err != nil {
		b.o.metrics.ObserveSegment(string(models.StatusFailed), 0)
		b.result.Failed = append(b.result.Failed, seg.Index)
		var tue *ffmpeg.ToolUnavailableError
		if errors.As(err, &tue) {
			failed := ev
			failed.Status = models.StatusFailed
			failed.Error = err.Error()
			failed.Message = fmt.Sprintf("[%d/%d] FAILED (%v)", n, b.total, err)
			b.publish(failed)
			return false, err
		}
		// Any other spawn failure is treated like a failed encoder run.
		b.failSegment(ev, err.Error(), fmt.Sprintf("cannot start encoder: %v", err))
		return false, nil
	}

	if res.Cancelled {
		b.o.metrics.ObserveSegment(string(models.StatusCancelled), res.Elapsed)
		b.removePartial(outPath)
		cancelled := ev
		cancelled.Status = models.StatusCancelled
		cancelled.Message = "Cancelled by user."
		b.publish(cancelled)
		return true, nil
	}

	if res.ExitCode != 0 {
		b.o.metrics.ObserveSegment(string(models.StatusFailed), res.Elapsed)
		b.result.Failed = append(b.result.Failed, seg.Index)
		b.failSegment(ev, res.Stderr, fmt.Sprintf("exit status %d", res.ExitCode))
		return false, nil
	}

	clip, err := b.verify(outPath, filename, seg, startLabel, endLabel)
	if err != nil {
		b.o.metrics.ObserveSegment(string(models.StatusFailed), res.Elapsed)
		b.result.Failed = append(b.result.Failed, seg.Index)
		b.failSegment(ev, err.Error(), "cannot read output")
		return false, nil
	}

	b.o.metrics.ObserveSegment(string(models.StatusDone), res.Elapsed)
	b.result.Clips = append(b.result.Clips, clip)

	done := ev
	done.Status = models.StatusDone
	done.SizeString = clip.SizeString()
	done.Message = fmt.Sprintf("[%d/%d] Done (%s)", n, b.total, done.SizeString)
	b.publish(done)
	return false, nil
}

// verify stats and probes a finished segment file.
func (b *batch) verify(outPath, filename string, seg models.Segment, startLabel, endLabel string) (models.ClipEntry, error) {
	fi, err := os.Stat(outPath)
	if err != nil {
		return models.ClipEntry{}, fmt.Errorf("stat output: %w", err)
	}
	info, err := b.o.prober.Probe(b.ctx, outPath)
	if err != nil {
		return models.ClipEntry{}, err
	}
	return models.NewClipEntry(filename, seg, startLabel, endLabel, info, fi.Size())
}

func (b *batch) failSegment(ev models.ProgressEvent, detail, reason string) {
	b.logger.Warn().Int("segment", ev.SegmentIndex).Str("reason", reason).Msg("segment failed")
	failed := ev
	failed.Status = models.StatusFailed
	failed.Error = detail
	failed.Message = fmt.Sprintf("[%d/%d] FAILED (%s)", ev.SegmentIndex, b.total, reason)
	b.publish(failed)
}

func (b *batch) removePartial(path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		b.logger.Debug().Err(err).Str("path", path).Msg("remove partial segment")
	}
}

func (b *batch) writeReport() {
	req := b.result.Request
	path, err := b.o.reporter.Generate(b.ctx, report.Input{
		OutputDir:      req.OutputDir,
		SourcePath:     req.Input,
		Source:         b.result.Source,
		Clips:          b.result.Clips,
		SegmentMinutes: req.SegmentMinutes,
		Transcode:      req.Transcode,
		Video:          req.Video,
		Audio:          req.Audio,
	})
	if err != nil {
		b.logger.Warn().Err(err).Msg("report generation failed")
		b.publish(models.ProgressEvent{
			SegmentIndex: b.total,
			Filename:     report.FileName,
			Status:       models.StatusFailed,
			Error:        err.Error(),
			Message:      fmt.Sprintf("%s could not be written: %v", report.FileName, err),
		})
		return
	}

	b.result.ReportPath = path
	b.publish(models.ProgressEvent{
		SegmentIndex: b.total,
		Filename:     report.FileName,
		Status:       models.StatusDone,
		Message:      fmt.Sprintf("%s generated: %s", report.FileName, path),
	})
}

func absPath(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return p
}
