// ABOUTME: Decode driver: packet loop, buffer growth, cursor copy
// ABOUTME: Assembles a whole stream into one PCM buffer of the caller's type
package pcmread

import (
	"errors"
	"fmt"
	"io"

	"github.com/Resonate-Protocol/pcmread-go/pkg/audio"
	"github.com/Resonate-Protocol/pcmread-go/pkg/codec"
)

// Reader decodes an entire audio stream into a single PCM buffer of sample
// type T. It owns its Input and output buffer until Read completes, at
// which point buffer ownership transfers to the caller. A Reader is
// one-shot: Read consumes it.
type Reader[T audio.Sample] struct {
	input       *Input
	output      *audio.Buffer[T]
	converter   *codec.Converter[T]
	sampleCount int
	consumed    bool
}

// NewReader opens path for decoding into samples of type T with the given
// packing. channels overrides the destination channel count; 0 keeps the
// source channel count. A converter is set up only when the negotiated
// source format or channel count differs from the destination.
func NewReader[T audio.Sample](path string, packing audio.Packing, channels int) (*Reader[T], error) {
	want := audio.FormatOf[T](packing)
	input, err := Open(path, codec.PreferFormat(want))
	if err != nil {
		return nil, err
	}
	return newReader[T](input, packing, channels)
}

// newReader wires a Reader around an already-open input session.
func newReader[T audio.Sample](input *Input, packing audio.Packing, channels int) (*Reader[T], error) {
	want := audio.FormatOf[T](packing)
	if channels == 0 {
		channels = input.ChannelLayout().Channels()
	}

	output := audio.NewBuffer[T](channels, input.EstimatedSampleCount(), packing, input.SampleRate())

	var converter *codec.Converter[T]
	if input.SampleFormat() != want || channels != input.ChannelLayout().Channels() {
		conv, err := ConverterFor[T](input, output.AudioFormat())
		if err != nil {
			input.Close()
			return nil, err
		}
		converter = conv
	}

	return &Reader[T]{input: input, output: output, converter: converter}, nil
}

// Read runs the decode loop to completion and returns the finalized buffer:
// exact sample count, requested type, packing and channel count. On any
// fatal error the partial output is discarded and the error returned.
// Read consumes the Reader and releases the input's resources.
func (r *Reader[T]) Read() (*audio.Buffer[T], error) {
	if r.consumed {
		return nil, fmt.Errorf("pcmread: reader already consumed")
	}
	r.consumed = true
	defer r.input.Close()

	for {
		err := r.readFrames()
		if err == nil || errors.Is(err, codec.ErrAgain) {
			continue
		}
		if errors.Is(err, io.EOF) {
			break
		}
		return nil, err
	}

	// The pre-sized capacity came from a duration estimate; the accumulated
	// count is authoritative.
	r.output.SetSampleCount(r.sampleCount)
	return r.output, nil
}

// readFrames performs one iteration of the drain loop: read a packet,
// route it, submit it, and drain every frame the decoder has ready.
func (r *Reader[T]) readFrames() error {
	pkt, err := r.input.ReadPacket()
	if err != nil {
		return err
	}

	// Packets from other streams are discarded.
	if pkt.StreamIndex != r.input.Stream().Index {
		return nil
	}

	dec := r.input.Decoder()
	if err := dec.Send(pkt); err != nil && !errors.Is(err, codec.ErrAgain) {
		return err
	}

	var frame codec.Frame
	for {
		err := dec.Receive(&frame)
		if errors.Is(err, codec.ErrAgain) {
			// No more frames ready from this packet.
			return nil
		}
		if err != nil {
			return err
		}

		total := r.sampleCount + frame.SampleCount
		if r.output.Capacity() < total {
			r.output.Grow(total)
		}
		// The cursor is rebuilt every frame: an earlier growth may have
		// relocated the buffer's memory.
		cursor := r.output.Cursor(r.sampleCount)

		if err := r.copyFrame(&frame, cursor); err != nil {
			return err
		}
		r.sampleCount = total
		r.output.SetSampleCount(total)
	}
}

// copyFrame moves one frame into the cursor: a direct layout-preserving
// copy when no conversion is needed, otherwise through the converter.
func (r *Reader[T]) copyFrame(frame *codec.Frame, cursor audio.Cursor[T]) error {
	if r.converter != nil {
		return r.converter.Convert(frame, cursor)
	}

	n := frame.SampleCount
	if r.output.Packing() == audio.Packed {
		want := n * r.output.Channels()
		if got := audio.DecodeSamples(cursor.Interleaved()[:want], frame.Data[0]); got != want {
			return &codec.DecodeError{Op: "copy", Err: fmt.Errorf("frame holds %d interleaved samples, want %d", got, want)}
		}
		return nil
	}
	for ch := 0; ch < r.output.Channels(); ch++ {
		if got := audio.DecodeSamples(cursor.Channel(ch)[:n], frame.Data[ch]); got != n {
			return &codec.DecodeError{Op: "copy", Err: fmt.Errorf("channel %d holds %d samples, want %d", ch, got, n)}
		}
	}
	return nil
}

// Load is the convenience path: open, decode and finalize in one call.
func Load[T audio.Sample](path string, packing audio.Packing) (*audio.Buffer[T], error) {
	r, err := NewReader[T](path, packing, 0)
	if err != nil {
		return nil, err
	}
	return r.Read()
}
