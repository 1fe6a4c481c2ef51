// ABOUTME: Whole-file PCM decoding package
// ABOUTME: Provides Input sessions and the buffer-assembling Reader
// Package pcmread decodes compressed audio files into in-memory PCM buffers
// of a caller-chosen sample type, channel count and packing.
//
// The quick path decodes a whole file in one call:
//
//	buf, err := pcmread.Load[int16]("song.flac", audio.Packed)
//
// For control over channel count or format negotiation, build a Reader or
// open an Input session directly:
//
//	r, err := pcmread.NewReader[float32]("song.ogg", audio.Planar, 1)
//	buf, err := r.Read()
//
// Decoding is synchronous and all-or-nothing: Read either returns the
// finalized buffer with the exact decoded sample count or the first fatal
// error, never a partial result.
package pcmread
