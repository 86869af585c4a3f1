package audio

import (
	"errors"
	"io"
	"os"
	"path/filepath"

	"vr8-converter/internal/domain"
	"vr8-converter/internal/naming"
)

const (
	// DefaultChunkThreshold is the input size above which files are streamed in windows.
	DefaultChunkThreshold int64 = 30 * 1024 * 1024
	// DefaultWindowSize is the read window for large inputs.
	DefaultWindowSize = 64 * 1024
)

// Stats describes one finished transcode.
type Stats struct {
	InputBytes int64
	Samples    int64
	Windowed   bool
}

// OutputFile is the writable, seekable destination of one WAV file.
type OutputFile interface {
	io.WriteSeeker
	io.Closer
}

// Transcoder converts VR8 sample dumps into WAV files with bounded memory.
type Transcoder struct {
	format    domain.WAVFormat
	threshold int64
	window    int
	stat      func(name string) (os.FileInfo, error)
	open      func(name string) (io.ReadCloser, error)
	create    func(name string) (OutputFile, error)
	remove    func(name string) error
}

// NewTranscoder builds a transcoder with the default 30 MiB threshold and 64 KiB window.
func NewTranscoder() *Transcoder {
	return NewTranscoderWithLimits(DefaultChunkThreshold, DefaultWindowSize)
}

// NewTranscoderWithLimits builds a transcoder with a custom threshold and window size.
// The window is rounded down to a multiple of 2 so samples never straddle two reads.
func NewTranscoderWithLimits(threshold int64, window int) *Transcoder {
	if threshold < 0 {
		threshold = DefaultChunkThreshold
	}
	if window <= 0 {
		window = DefaultWindowSize
	}
	window &^= 1
	if window < 2 {
		window = 2
	}

	return &Transcoder{
		format:    domain.PCM16Mono44K,
		threshold: threshold,
		window:    window,
		stat:      os.Stat,
		open: func(name string) (io.ReadCloser, error) {
			return os.Open(name)
		},
		create: func(name string) (OutputFile, error) {
			return os.Create(name)
		},
		remove: os.Remove,
	}
}

// WindowSize returns the effective read window in bytes.
func (t *Transcoder) WindowSize() int {
	return t.window
}

// Plan derives the conversion job for inputPath inside outputDir.
func (t *Transcoder) Plan(inputPath, outputDir string) (domain.ConversionJob, error) {
	name, err := naming.OutputFileName(inputPath)
	if err != nil {
		return domain.ConversionJob{}, err
	}
	return domain.ConversionJob{
		InputPath:  inputPath,
		OutputPath: filepath.Join(outputDir, name),
	}, nil
}

// Transcode converts inputPath into outputDir/<stem>.wav.
func (t *Transcoder) Transcode(inputPath, outputDir string) (Stats, error) {
	job, err := t.Plan(inputPath, outputDir)
	if err != nil {
		return Stats{}, err
	}
	return t.Run(job)
}

// Run executes one planned job. A failed run removes its partial output file.
func (t *Transcoder) Run(job domain.ConversionJob) (Stats, error) {
	info, err := t.stat(job.InputPath)
	if err != nil {
		return Stats{}, domain.IOFailure("stat input "+job.InputPath, err)
	}
	if info.IsDir() {
		return Stats{}, domain.InvalidInput("not a regular file: " + job.InputPath)
	}

	in, err := t.open(job.InputPath)
	if err != nil {
		return Stats{}, domain.IOFailure("open input "+job.InputPath, err)
	}
	defer in.Close()

	out, err := t.create(job.OutputPath)
	if err != nil {
		return Stats{}, domain.IOFailure("create output "+job.OutputPath, err)
	}

	stats, err := t.encode(in, out, info.Size(), job.InputPath)
	if err != nil {
		_ = out.Close()
		_ = t.remove(job.OutputPath)
		return Stats{}, err
	}
	if err := out.Close(); err != nil {
		_ = t.remove(job.OutputPath)
		return Stats{}, domain.IOFailure("close output "+job.OutputPath, err)
	}
	return stats, nil
}

// encode writes the WAV container for in and finalizes its header.
func (t *Transcoder) encode(in io.Reader, out OutputFile, size int64, inputPath string) (Stats, error) {
	writer, err := NewWAVWriter(out, t.format)
	if err != nil {
		return Stats{}, err
	}

	stats := Stats{InputBytes: size, Windowed: size > t.threshold}
	if stats.Windowed {
		err = t.copyWindowed(writer, in, inputPath)
	} else {
		err = copyWhole(writer, in, inputPath)
	}
	if err != nil {
		return Stats{}, err
	}

	if err := writer.Close(); err != nil {
		return Stats{}, err
	}
	stats.Samples = writer.Samples()
	return stats, nil
}

// copyWindowed streams in through a fixed even-sized buffer.
func (t *Transcoder) copyWindowed(w *WAVWriter, in io.Reader, inputPath string) error {
	buf := make([]byte, t.window)
	for {
		n, err := io.ReadFull(in, buf)
		if n > 0 {
			// Only the final short read can be odd; its last byte is not a sample.
			if _, werr := w.WritePCM(buf[:n&^1]); werr != nil {
				return werr
			}
		}
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil
		}
		if err != nil {
			return domain.IOFailure("read input "+inputPath, err)
		}
	}
}

// copyWhole reads the entire input at once; only used below the chunk threshold.
func copyWhole(w *WAVWriter, in io.Reader, inputPath string) error {
	data, err := io.ReadAll(in)
	if err != nil {
		return domain.IOFailure("read input "+inputPath, err)
	}
	_, err = w.WritePCM(data[:len(data)&^1])
	return err
}

// NewTranscoderForTests constructs a transcoder with injectable filesystem dependencies.
func NewTranscoderForTests(
	threshold int64,
	window int,
	open func(name string) (io.ReadCloser, error),
	create func(name string) (OutputFile, error),
	remove func(name string) error,
) *Transcoder {
	t := NewTranscoderWithLimits(threshold, window)
	if open != nil {
		t.open = open
	}
	if create != nil {
		t.create = create
	}
	if remove != nil {
		t.remove = remove
	}
	return t
}
