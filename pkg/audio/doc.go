// ABOUTME: Audio fundamentals package providing core PCM types
// ABOUTME: Defines SampleFormat, AudioFormat and the growable Buffer/Cursor pair
// Package audio provides the fundamental PCM types for decoding audio into
// memory.
//
// This package defines the types used throughout the pcmread library:
//   - SampleFormat: a PCM encoding, numeric kind x packed/planar
//   - AudioFormat: the complete shape of a stream (layout, format, rate)
//   - Buffer: a growable, owned channels-x-samples container
//   - Cursor: a short-lived, non-owning window over a Buffer's tail
//
// Buffers are generic over the sample scalar type:
//
//	buf := audio.NewBuffer[float32](2, 48000, audio.Packed, 48000)
//	buf.Grow(96000)
//	cur := buf.Cursor(buf.SampleCount())
//
// A Cursor is only valid until the next Grow: growth may relocate the
// underlying memory, so cursors are rebuilt immediately before each use.
package audio
