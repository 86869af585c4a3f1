// Package cli provides the vr8 command-line interface.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"vr8-converter/internal/config"
	"vr8-converter/internal/convert"
	"vr8-converter/internal/metrics"
	"vr8-converter/internal/naming"
)

// Version is set at build time.
var Version = "0.1.0"

// options holds the parsed flags of one invocation.
type options struct {
	outputDir   string
	unique      bool
	workers     int
	logFile     string
	metricsFile string
	verbose     bool
}

// NewRootCommand builds the vr8 command writing to the given streams.
func NewRootCommand(stdout, stderr io.Writer) *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "vr8 FILES...",
		Short: "Convert VR8 audio files to WAV (mono, 44.1kHz, 16-bit)",
		Long: `vr8 converts raw VR8 recordings (headerless 16-bit little-endian PCM)
into standard WAV files. Files are converted in parallel and written as
<name>.wav into the output directory, which defaults to the working directory.`,
		Version:       Version,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), opts, args, cmd.Flags().Changed("output-dir"), stdout, stderr)
		},
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	flags := cmd.Flags()
	flags.StringVarP(&opts.outputDir, "output-dir", "o", "", "directory where the WAV files will be saved (default: cwd)")
	flags.BoolVar(&opts.unique, "unique", false, "write into a new numbered "+config.DefaultFolderName+" folder inside the output directory")
	flags.IntVarP(&opts.workers, "workers", "w", 0, "maximum parallel conversions (0 = one per CPU)")
	flags.StringVar(&opts.logFile, "log-file", "", "also write JSON logs to this file")
	flags.StringVar(&opts.metricsFile, "metrics-file", "", "write Prometheus textfile metrics after the run")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "verbose output")

	return cmd
}

// Execute runs the root command against the process streams.
func Execute() error {
	cmd := NewRootCommand(os.Stdout, os.Stderr)
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, defaultTheme.errorStyle().Render("Error: "+err.Error()))
		return err
	}
	return nil
}

// run converts args and prints the summary.
func run(ctx context.Context, opts *options, args []string, explicitOutput bool, stdout, stderr io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}

	bar := newProgressBar(stderr, len(args), defaultTheme)
	logger, closeLog := newLogger(opts, bar)
	defer func() { _ = closeLog() }()

	outputDir := opts.outputDir
	if outputDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("resolve working directory: %w", err)
		}
		outputDir = wd
	}
	if opts.unique {
		if err := os.MkdirAll(outputDir, 0o755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
		dir, err := naming.UniqueDirectory(filepath.Join(outputDir, config.DefaultFolderName))
		if err != nil {
			return err
		}
		outputDir = dir
		explicitOutput = true
	}

	collector := metrics.NewCollector()
	converter := convert.NewConverter(convert.Options{
		Workers:  opts.workers,
		Logger:   logger,
		Recorder: collector,
	})

	result, err := converter.Convert(ctx, args, outputDir, bar.Update)
	bar.Clear()

	if opts.metricsFile != "" {
		if werr := collector.WriteTextfile(opts.metricsFile); werr != nil {
			logger.Warn("write metrics textfile", "file", opts.metricsFile, "error", werr)
		}
	}
	if err != nil {
		return err
	}

	fmt.Fprintln(stdout, defaultTheme.successStyle().Render(fmt.Sprintf(
		"Converted %s in %s", pluralFiles(result.FilesConverted), FormatDuration(result.DurationMs),
	)))
	fmt.Fprintln(stdout, "Output: "+displayOutputDir(result, explicitOutput))
	if opts.verbose {
		fmt.Fprintln(stdout, defaultTheme.hintStyle().Render(fmt.Sprintf(
			"%s written, %d parallel", humanize.IBytes(uint64(writtenBytes(collector))), converter.Workers(),
		)))
	}
	return nil
}

// newLogger builds the command logger: warnings by default, debug with -v,
// fanned out to a JSON file when --log-file is set. Console records go
// through console so they never collide with the progress line.
func newLogger(opts *options, console io.Writer) (*slog.Logger, func() error) {
	level := slog.LevelWarn
	if opts.verbose {
		level = slog.LevelDebug
	}
	return config.SetupLoggerTo(console, opts.logFile, level)
}

// writtenBytes derives the WAV payload size from the samples counter.
func writtenBytes(collector *metrics.Collector) int64 {
	return int64(collector.Samples()) * 2
}
