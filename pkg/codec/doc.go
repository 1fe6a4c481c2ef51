// ABOUTME: Codec boundary package for container demuxing and decoding
// ABOUTME: Defines the packet/frame protocol, negotiation and conversion
// Package codec defines the boundary with container demuxers and audio
// decoders: the packet/frame protocol, the error taxonomy that separates
// transient signals from fatal faults, sample format negotiation, and the
// Converter used when the decoder's native output does not match the
// caller's requested shape.
//
// Concrete adapters live in the subpackages (mp3, flac, wave, oggopus).
package codec
