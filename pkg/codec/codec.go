// ABOUTME: External demuxer/decoder boundary types
// ABOUTME: Packet/frame protocol interfaces consumed by the decode driver
package codec

import (
	"time"

	"github.com/Resonate-Protocol/pcmread-go/pkg/audio"
)

// MediaKind classifies a container stream.
type MediaKind int

const (
	MediaAudio MediaKind = iota
	MediaOther
)

// StreamInfo describes one stream inside a container.
type StreamInfo struct {
	Index  int
	Kind   MediaKind
	Codec  string
	Layout audio.ChannelLayout
	Rate   int
}

// Packet is one demuxed unit of compressed data belonging to one stream.
// The payload is opaque to the decode driver; it is only routed by stream
// index and handed to the decoder.
type Packet struct {
	StreamIndex int
	Data        []byte
}

// Frame is one decoder-emitted unit of PCM samples. Data holds the raw
// little-endian sample bytes: one slice per channel for planar formats, a
// single interleaved slice at Data[0] for packed formats. The slices are
// owned by the decoder and valid only until the next Receive; consumers
// copy out of them.
type Frame struct {
	Format      audio.SampleFormat
	Channels    int
	SampleCount int
	Data        [][]byte
}

// Container is a demuxer handle: it enumerates streams and produces
// packets. ReadPacket returns ErrAgain when no packet is ready yet (call
// again) and io.EOF at end of stream; both are control flow, not failures.
type Container interface {
	Streams() []StreamInfo
	ReadPacket() (Packet, error)
	// Duration reports the container's duration metadata, 0 if unknown.
	// It is an estimate; the decoded stream is authoritative.
	Duration() time.Duration
	// NewDecoder creates a decoder context from a stream's codec parameters.
	NewDecoder(stream StreamInfo) (Decoder, error)
	Close() error
}

// Decoder is a decoder context driven through the packet/frame protocol:
// configure a requested output format, Open, then alternate Send and
// Receive. Send returns ErrAgain when the decoder needs frames drained
// first; Receive returns ErrAgain when no frame is ready from the packets
// sent so far and io.EOF once the stream is fully decoded.
type Decoder interface {
	// SupportedFormats lists the decoder's supported output sample formats.
	// Never empty for an audio decoder.
	SupportedFormats() []audio.SampleFormat
	// RequestFormat asks the decoder to produce the given format. Must be
	// called with a supported format before Open.
	RequestFormat(audio.SampleFormat)
	Open() error
	// Format returns the negotiated output shape. Valid after Open.
	Format() audio.AudioFormat
	Send(Packet) error
	Receive(*Frame) error
	Close() error
}
