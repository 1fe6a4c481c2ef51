// ABOUTME: Decode session setup: container, stream selection, negotiation
// ABOUTME: Owns the demuxer/decoder handles for the life of the session
package pcmread

import (
	"fmt"
	"log"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/Resonate-Protocol/pcmread-go/pkg/audio"
	"github.com/Resonate-Protocol/pcmread-go/pkg/codec"
	"github.com/Resonate-Protocol/pcmread-go/pkg/codec/flac"
	"github.com/Resonate-Protocol/pcmread-go/pkg/codec/mp3"
	"github.com/Resonate-Protocol/pcmread-go/pkg/codec/oggopus"
	"github.com/Resonate-Protocol/pcmread-go/pkg/codec/wave"
)

// Input is an open decode session: the container, the selected audio
// stream, and an opened decoder configured for a negotiated sample format.
// The Input exclusively owns those handles and releases them on Close.
type Input struct {
	source    string
	container codec.Container
	stream    codec.StreamInfo
	dec       codec.Decoder
}

// Open opens the container at path (or an HTTP(S) MP3 URL), locates the
// first audio stream, creates its decoder, negotiates an output sample
// format through picker and opens the decoder for decoding.
func Open(path string, picker codec.FormatPicker) (*Input, error) {
	container, err := openContainer(path)
	if err != nil {
		return nil, err
	}

	in, err := newInput(path, container, picker)
	if err != nil {
		container.Close()
		return nil, err
	}
	return in, nil
}

func newInput(source string, container codec.Container, picker codec.FormatPicker) (*Input, error) {
	var stream codec.StreamInfo
	found := false
	for _, s := range container.Streams() {
		if s.Kind == codec.MediaAudio {
			stream = s
			found = true
			break
		}
	}
	if !found {
		return nil, fmt.Errorf("%s: %w", source, codec.ErrNoAudioStream)
	}

	dec, err := container.NewDecoder(stream)
	if err != nil {
		return nil, err
	}

	supported := dec.SupportedFormats()
	chosen := picker(supported)
	if chosen == audio.FormatNone {
		return nil, fmt.Errorf("%s: %w", source, codec.ErrNoCompatibleFormat)
	}
	dec.RequestFormat(chosen)
	if err := dec.Open(); err != nil {
		return nil, err
	}

	in := &Input{source: source, container: container, stream: stream, dec: dec}
	log.Printf("Opened %s: %s (%s), ~%d samples", source, in.AudioFormat(), stream.Codec, in.EstimatedSampleCount())
	return in, nil
}

// openContainer picks an adapter by file extension, the same way sources
// are dispatched elsewhere in this codebase. HTTP(S) URLs are treated as
// MP3 streams.
func openContainer(path string) (codec.Container, error) {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		resp, err := http.Get(path)
		if err != nil {
			return nil, &codec.SetupError{Op: "open url", Err: err}
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, &codec.SetupError{Op: "open url", Err: fmt.Errorf("HTTP error: %s", resp.Status)}
		}
		return mp3.OpenReader(resp.Body)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".mp3":
		return mp3.Open(path)
	case ".flac":
		return flac.Open(path)
	case ".wav", ".wave":
		return wave.Open(path)
	case ".ogg", ".oga", ".opus":
		return oggopus.Open(path)
	default:
		return nil, &codec.SetupError{Op: "open", Err: fmt.Errorf("unsupported audio format: %s (supported: .mp3, .flac, .wav, .ogg, .opus)", ext)}
	}
}

// Stream returns the selected audio stream.
func (in *Input) Stream() codec.StreamInfo { return in.stream }

// Decoder returns the opened decoder context.
func (in *Input) Decoder() codec.Decoder { return in.dec }

// ChannelLayout returns the source channel layout.
func (in *Input) ChannelLayout() audio.ChannelLayout { return in.dec.Format().Layout }

// SampleFormat returns the negotiated sample format.
func (in *Input) SampleFormat() audio.SampleFormat { return in.dec.Format().Format }

// SampleRate returns the source sample rate in Hz.
func (in *Input) SampleRate() int { return in.dec.Format().Rate }

// AudioFormat returns the full negotiated source shape.
func (in *Input) AudioFormat() audio.AudioFormat { return in.dec.Format() }

// EstimatedSampleCount derives a sample count from the container's duration
// metadata. It is an estimate only: container duration can be imprecise or
// absent (0), and the decoded stream is authoritative.
func (in *Input) EstimatedSampleCount() int {
	d := in.container.Duration()
	if d <= 0 {
		return 0
	}
	return int(int64(d) * int64(in.SampleRate()) / int64(time.Second))
}

// ReadPacket reads the next packet from the container.
func (in *Input) ReadPacket() (codec.Packet, error) {
	return in.container.ReadPacket()
}

// Close releases the decoder and container.
func (in *Input) Close() error {
	decErr := in.dec.Close()
	if err := in.container.Close(); err != nil {
		return err
	}
	return decErr
}

// ConverterFor creates a converter from the input's negotiated format to an
// arbitrary destination AudioFormat.
func ConverterFor[T audio.Sample](in *Input, dst audio.AudioFormat) (*codec.Converter[T], error) {
	return codec.NewConverter[T](in.AudioFormat(), dst)
}
