// Package convert runs batches of VR8 to WAV transcodes on a bounded worker pool.
package convert

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	"vr8-converter/internal/audio"
	"vr8-converter/internal/domain"
	"vr8-converter/internal/resolve"
)

// Recorder receives per-file and per-batch observations.
type Recorder interface {
	ObserveTranscode(elapsed time.Duration, inputBytes, samples int64, err error)
	ObserveBatch(err error)
}

// Transcoder plans and runs a single file conversion.
type Transcoder interface {
	Plan(inputPath, outputDir string) (domain.ConversionJob, error)
	Run(job domain.ConversionJob) (audio.Stats, error)
}

// Resolver turns user supplied paths into verified input files.
type Resolver interface {
	Resolve(baseDir string, paths []string) ([]resolve.Entry, error)
}

// Options tunes a Converter. Zero values select defaults.
type Options struct {
	Workers        int
	ChunkThreshold int64
	WindowSize     int
	Logger         *slog.Logger
	Recorder       Recorder
}

// Converter owns the batch workflow: resolve, plan, fan out, aggregate.
type Converter struct {
	workers    int
	transcoder Transcoder
	resolver   Resolver
	logger     *slog.Logger
	recorder   Recorder

	getwd    func() (string, error)
	mkdirAll func(path string, perm os.FileMode) error
	now      func() time.Time
}

// NewConverter creates a converter backed by the filesystem.
func NewConverter(opts Options) *Converter {
	return newConverter(
		opts,
		audio.NewTranscoderWithLimits(chunkThreshold(opts), opts.WindowSize),
		resolve.NewResolver(),
		os.Getwd,
		os.MkdirAll,
	)
}

// NewConverterForTests creates a converter with injected collaborators.
// Nil functions keep the filesystem defaults.
func NewConverterForTests(
	opts Options,
	transcoder Transcoder,
	resolver Resolver,
	getwd func() (string, error),
	mkdirAll func(path string, perm os.FileMode) error,
) *Converter {
	if transcoder == nil {
		transcoder = audio.NewTranscoderWithLimits(chunkThreshold(opts), opts.WindowSize)
	}
	if resolver == nil {
		resolver = resolve.NewResolver()
	}
	if getwd == nil {
		getwd = os.Getwd
	}
	if mkdirAll == nil {
		mkdirAll = os.MkdirAll
	}
	return newConverter(opts, transcoder, resolver, getwd, mkdirAll)
}

// chunkThreshold returns the configured threshold, or the default when unset.
func chunkThreshold(opts Options) int64 {
	if opts.ChunkThreshold <= 0 {
		return audio.DefaultChunkThreshold
	}
	return opts.ChunkThreshold
}

// newConverter applies option defaults.
func newConverter(
	opts Options,
	transcoder Transcoder,
	resolver Resolver,
	getwd func() (string, error),
	mkdirAll func(path string, perm os.FileMode) error,
) *Converter {
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Converter{
		workers:    workers,
		transcoder: transcoder,
		resolver:   resolver,
		logger:     logger,
		recorder:   opts.Recorder,
		getwd:      getwd,
		mkdirAll:   mkdirAll,
		now:        time.Now,
	}
}

// Workers returns the maximum number of concurrent transcodes.
func (c *Converter) Workers() int {
	return c.workers
}

// Convert transcodes every input into outputDir and returns the batch summary.
// Relative paths resolve against the working directory.
// Inputs are validated before any transcode starts; once dispatched, every job
// runs to completion and the error of the lowest-indexed failed input is returned.
func (c *Converter) Convert(
	ctx context.Context,
	inputPaths []string,
	outputDir string,
	progress ProgressFunc,
) (result domain.ConversionResult, err error) {
	defer func() {
		if c.recorder != nil {
			c.recorder.ObserveBatch(err)
		}
	}()

	outputDir = strings.TrimSpace(outputDir)
	if outputDir == "" {
		return domain.ConversionResult{}, domain.InvalidInput("output directory is required")
	}

	baseDir := ""
	if !resolve.AllAbsolute(inputPaths) || !filepath.IsAbs(outputDir) {
		baseDir, err = c.getwd()
		if err != nil {
			return domain.ConversionResult{}, domain.IOFailure("resolve working directory", err)
		}
	}

	outputDir = resolve.Absolute(baseDir, outputDir)
	if err := c.mkdirAll(outputDir, 0o755); err != nil {
		return domain.ConversionResult{}, domain.IOFailure("create output directory "+outputDir, err)
	}

	entries, err := c.resolver.Resolve(baseDir, inputPaths)
	if err != nil {
		return domain.ConversionResult{}, err
	}

	jobs, err := c.plan(entries, outputDir)
	if err != nil {
		return domain.ConversionResult{}, err
	}

	if err := ctx.Err(); err != nil {
		return domain.ConversionResult{}, err
	}

	started := c.now()
	c.logger.Info("conversion started",
		"files", len(jobs),
		"output_dir", outputDir,
		"workers", c.workers,
	)

	failures := c.dispatch(jobs, progress)
	if index, failure := firstFailure(failures); failure != nil {
		c.logger.Error("conversion failed",
			"input", jobs[index].InputPath,
			"failed", lo.CountBy(failures, func(e error) bool { return e != nil }),
			"files", len(jobs),
			"error", failure,
		)
		return domain.ConversionResult{}, failure
	}

	result = domain.ConversionResult{
		FilesConverted: len(jobs),
		DurationMs:     c.now().Sub(started).Milliseconds(),
		OutputDir:      outputDir,
	}
	c.logger.Info("conversion finished",
		"files", result.FilesConverted,
		"duration_ms", result.DurationMs,
		"output_dir", result.OutputDir,
	)
	return result, nil
}

// plan derives one job per entry and rejects batches whose outputs collide.
// Names are compared case-insensitively so no output overwrites another on
// case-insensitive filesystems.
func (c *Converter) plan(entries []resolve.Entry, outputDir string) ([]domain.ConversionJob, error) {
	jobs := make([]domain.ConversionJob, 0, len(entries))
	for _, entry := range entries {
		job, err := c.transcoder.Plan(entry.Path, outputDir)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}

	outputKey := func(job domain.ConversionJob) string {
		return strings.ToLower(job.OutputPath)
	}
	duplicates := lo.FindDuplicatesBy(jobs, outputKey)
	if len(duplicates) == 0 {
		return jobs, nil
	}

	clash := lo.Filter(jobs, func(job domain.ConversionJob, _ int) bool {
		return outputKey(job) == outputKey(duplicates[0])
	})
	inputs := lo.Map(clash, func(job domain.ConversionJob, _ int) string {
		return fmt.Sprintf("%q", job.InputPath)
	})
	return nil, domain.InvalidInput(fmt.Sprintf(
		"output name collision: %s all map to %s",
		strings.Join(inputs, ", "),
		filepath.Base(duplicates[0].OutputPath),
	))
}

// dispatch runs every job on the bounded pool and returns per-job errors in
// input order.
func (c *Converter) dispatch(jobs []domain.ConversionJob, progress ProgressFunc) []error {
	failures := make([]error, len(jobs))
	tracker := newProgressTracker(len(jobs), progress)

	var group errgroup.Group
	group.SetLimit(c.workers)
	for index, job := range jobs {
		index, job := index, job
		group.Go(func() error {
			failures[index] = c.runJob(job)
			tracker.complete()
			return nil
		})
	}
	_ = group.Wait()

	tracker.finishEmpty()
	return failures
}

// runJob transcodes a single file and records its outcome.
func (c *Converter) runJob(job domain.ConversionJob) error {
	started := c.now()
	stats, err := c.transcoder.Run(job)
	elapsed := c.now().Sub(started)

	if c.recorder != nil {
		c.recorder.ObserveTranscode(elapsed, stats.InputBytes, stats.Samples, err)
	}
	if err != nil {
		c.logger.Warn("file conversion failed", "input", job.InputPath, "error", err)
		return err
	}

	c.logger.Debug("file converted",
		"input", job.InputPath,
		"output", job.OutputPath,
		"size", humanize.IBytes(uint64(max(stats.InputBytes, 0))),
		"samples", stats.Samples,
		"windowed", stats.Windowed,
		"elapsed", elapsed,
	)
	return nil
}

// firstFailure returns the lowest-indexed error, or -1 and nil when all succeeded.
func firstFailure(failures []error) (int, error) {
	for index, err := range failures {
		if err != nil {
			return index, err
		}
	}
	return -1, nil
}
