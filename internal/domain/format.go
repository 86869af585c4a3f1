package domain

// WAVFormat describes the fixed PCM layout written into every output file.
type WAVFormat struct {
	Channels      uint16
	SampleRate    uint32
	BitsPerSample uint16
}

// PCM16Mono44K is the only format this converter emits.
var PCM16Mono44K = WAVFormat{
	Channels:      1,
	SampleRate:    44100,
	BitsPerSample: 16,
}

// BlockAlign returns the byte size of one sample frame.
func (f WAVFormat) BlockAlign() uint16 {
	return f.Channels * f.BitsPerSample / 8
}

// ByteRate returns the number of data bytes per second of audio.
func (f WAVFormat) ByteRate() uint32 {
	return f.SampleRate * uint32(f.BlockAlign())
}
