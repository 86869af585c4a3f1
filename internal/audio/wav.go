package audio

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"vr8-converter/internal/domain"
)

const (
	// wavHeaderSize is the canonical 44-byte RIFF/WAVE PCM header.
	wavHeaderSize = 44
	// riffSizeOffset is where the RIFF chunk size lives.
	riffSizeOffset = 4
	// dataSizeOffset is where the data chunk size lives.
	dataSizeOffset = 40
	// maxDataBytes keeps the RIFF chunk size inside uint32.
	maxDataBytes = math.MaxUint32 - (wavHeaderSize - 8)
)

// ErrDataTooLarge is returned when samples would overflow the 32-bit WAV size fields.
var ErrDataTooLarge = errors.New("wav data exceeds 4 GiB container limit")

// wavHeader mirrors the on-disk layout of a canonical PCM WAV header.
type wavHeader struct {
	ChunkID       [4]byte // "RIFF"
	ChunkSize     uint32  // file size - 8
	Format        [4]byte // "WAVE"
	Subchunk1ID   [4]byte // "fmt "
	Subchunk1Size uint32  // 16 for PCM
	AudioFormat   uint16  // 1 for integer PCM
	NumChannels   uint16
	SampleRate    uint32
	ByteRate      uint32
	BlockAlign    uint16
	BitsPerSample uint16
	Subchunk2ID   [4]byte // "data"
	Subchunk2Size uint32
}

// newWAVHeader builds a header for dataBytes of PCM in the given format.
func newWAVHeader(format domain.WAVFormat, dataBytes uint32) wavHeader {
	return wavHeader{
		ChunkID:       [4]byte{'R', 'I', 'F', 'F'},
		ChunkSize:     wavHeaderSize - 8 + dataBytes,
		Format:        [4]byte{'W', 'A', 'V', 'E'},
		Subchunk1ID:   [4]byte{'f', 'm', 't', ' '},
		Subchunk1Size: 16,
		AudioFormat:   1,
		NumChannels:   format.Channels,
		SampleRate:    format.SampleRate,
		ByteRate:      format.ByteRate(),
		BlockAlign:    format.BlockAlign(),
		BitsPerSample: format.BitsPerSample,
		Subchunk2ID:   [4]byte{'d', 'a', 't', 'a'},
		Subchunk2Size: dataBytes,
	}
}

// WAVWriter streams 16-bit PCM into a WAV container of unknown final length.
type WAVWriter struct {
	dst       io.WriteSeeker
	buf       *bufio.Writer
	format    domain.WAVFormat
	dataBytes uint64
	closed    bool
}

// NewWAVWriter writes a placeholder header to dst and returns a writer for the data chunk.
func NewWAVWriter(dst io.WriteSeeker, format domain.WAVFormat) (*WAVWriter, error) {
	if format.BitsPerSample != 16 {
		return nil, domain.EncodingFailure("create wav writer", fmt.Errorf("unsupported bit depth: %d", format.BitsPerSample))
	}

	w := &WAVWriter{
		dst:    dst,
		buf:    bufio.NewWriterSize(dst, 64*1024),
		format: format,
	}
	if err := binary.Write(w.buf, binary.LittleEndian, newWAVHeader(format, 0)); err != nil {
		return nil, domain.IOFailure("write wav header", err)
	}
	return w, nil
}

// WriteSample appends one sample.
func (w *WAVWriter) WriteSample(sample int16) error {
	var pair [2]byte
	binary.LittleEndian.PutUint16(pair[:], uint16(sample))
	_, err := w.WritePCM(pair[:])
	return err
}

// WritePCM appends whole little-endian 16-bit samples and returns the sample count written.
func (w *WAVWriter) WritePCM(p []byte) (int, error) {
	if w.closed {
		return 0, domain.EncodingFailure("write wav data", errors.New("writer already finalized"))
	}
	if len(p)%2 != 0 {
		return 0, domain.EncodingFailure("write wav data", fmt.Errorf("odd pcm length %d", len(p)))
	}
	if w.dataBytes+uint64(len(p)) > maxDataBytes {
		return 0, domain.EncodingFailure("write wav data", ErrDataTooLarge)
	}

	n, err := w.buf.Write(p)
	w.dataBytes += uint64(n)
	if err != nil {
		return n / 2, domain.IOFailure("write wav data", err)
	}
	return n / 2, nil
}

// Samples returns the number of samples written so far.
func (w *WAVWriter) Samples() int64 {
	return int64(w.dataBytes / 2)
}

// Close flushes buffered data and patches the RIFF and data sizes. It does not close dst.
func (w *WAVWriter) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true

	if err := w.buf.Flush(); err != nil {
		return domain.IOFailure("flush wav data", err)
	}

	dataBytes := uint32(w.dataBytes)
	if err := w.patchUint32(riffSizeOffset, wavHeaderSize-8+dataBytes); err != nil {
		return err
	}
	if err := w.patchUint32(dataSizeOffset, dataBytes); err != nil {
		return err
	}
	if _, err := w.dst.Seek(0, io.SeekEnd); err != nil {
		return domain.IOFailure("finalize wav header", err)
	}
	return nil
}

// patchUint32 overwrites one little-endian size field in the header.
func (w *WAVWriter) patchUint32(offset int64, value uint32) error {
	if _, err := w.dst.Seek(offset, io.SeekStart); err != nil {
		return domain.IOFailure("finalize wav header", err)
	}
	var field [4]byte
	binary.LittleEndian.PutUint32(field[:], value)
	if _, err := w.dst.Write(field[:]); err != nil {
		return domain.IOFailure("finalize wav header", err)
	}
	return nil
}

// WAVInfo is the header metadata of a canonical PCM WAV file.
type WAVInfo struct {
	Channels      uint16 `json:"channels"`
	SampleRate    uint32 `json:"sample_rate"`
	BitsPerSample uint16 `json:"bits_per_sample"`
	RIFFSize      uint32 `json:"riff_size"`
	DataSize      uint32 `json:"data_size_bytes"`
	NumSamples    uint32 `json:"num_samples"`
}

// ReadWAVInfo parses and validates a canonical 44-byte PCM header.
func ReadWAVInfo(r io.Reader) (WAVInfo, error) {
	raw := make([]byte, wavHeaderSize)
	if _, err := io.ReadFull(r, raw); err != nil {
		return WAVInfo{}, fmt.Errorf("read wav header: %w", err)
	}

	var header wavHeader
	if err := binary.Read(bytes.NewReader(raw), binary.LittleEndian, &header); err != nil {
		return WAVInfo{}, fmt.Errorf("decode wav header: %w", err)
	}

	switch {
	case string(header.ChunkID[:]) != "RIFF":
		return WAVInfo{}, fmt.Errorf("invalid wav file: missing RIFF header")
	case string(header.Format[:]) != "WAVE":
		return WAVInfo{}, fmt.Errorf("invalid wav file: missing WAVE format")
	case string(header.Subchunk1ID[:]) != "fmt ":
		return WAVInfo{}, fmt.Errorf("invalid wav file: missing fmt chunk")
	case string(header.Subchunk2ID[:]) != "data":
		return WAVInfo{}, fmt.Errorf("invalid wav file: missing data chunk")
	case header.AudioFormat != 1:
		return WAVInfo{}, fmt.Errorf("unsupported audio format: %d", header.AudioFormat)
	case header.BlockAlign == 0:
		return WAVInfo{}, fmt.Errorf("invalid block align: 0")
	}

	return WAVInfo{
		Channels:      header.NumChannels,
		SampleRate:    header.SampleRate,
		BitsPerSample: header.BitsPerSample,
		RIFFSize:      header.ChunkSize,
		DataSize:      header.Subchunk2Size,
		NumSamples:    header.Subchunk2Size / uint32(header.BlockAlign),
	}, nil
}
