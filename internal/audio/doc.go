// Package audio turns raw VR8 sample dumps into WAV files.
//
// A VR8 capture is a headerless stream of mono 16-bit little-endian signed
// PCM samples. Because WAV stores 16-bit PCM in the same byte order, the
// transcoder copies whole sample pairs into the data chunk and lets the
// WAVWriter patch the RIFF and data sizes once the stream ends.
package audio
