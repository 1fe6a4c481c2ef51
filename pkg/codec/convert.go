// ABOUTME: Sample format and channel conversion into a write cursor
// ABOUTME: Normalizes source samples through float64 and re-quantizes
package codec

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/Resonate-Protocol/pcmread-go/pkg/audio"
)

// Converter rewrites decoded frames from a source AudioFormat into a
// destination AudioFormat, writing directly into a supplied write cursor.
// It converts numeric kind, packing and channel count; sample rates must
// match (resampling is out of scope). The converter advances nothing: the
// decode driver tracks sample counts itself.
type Converter[T audio.Sample] struct {
	src audio.AudioFormat
	dst audio.AudioFormat
}

// NewConverter creates a converter from src to dst. The destination kind
// must match the Go type T.
func NewConverter[T audio.Sample](src, dst audio.AudioFormat) (*Converter[T], error) {
	if dst.Format.Kind() != audio.KindOf[T]() {
		return nil, &SetupError{
			Op:  "converter",
			Err: fmt.Errorf("destination format %s does not hold %s samples", dst.Format, audio.KindOf[T]()),
		}
	}
	if src.Format == audio.FormatNone {
		return nil, &SetupError{Op: "converter", Err: fmt.Errorf("source has no sample format")}
	}
	if src.Rate != dst.Rate {
		return nil, &SetupError{
			Op:  "converter",
			Err: fmt.Errorf("sample rate mismatch %d != %d (resampling unsupported)", src.Rate, dst.Rate),
		}
	}
	return &Converter[T]{src: src, dst: dst}, nil
}

// Source returns the converter's source format.
func (c *Converter[T]) Source() audio.AudioFormat { return c.src }

// Destination returns the converter's destination format.
func (c *Converter[T]) Destination() audio.AudioFormat { return c.dst }

// Convert writes one frame's samples into the cursor, converted to the
// destination format. The cursor must have room for the whole frame.
func (c *Converter[T]) Convert(frame *Frame, cur audio.Cursor[T]) error {
	n := frame.SampleCount
	if n > cur.Len() {
		return &DecodeError{Op: "convert", Err: fmt.Errorf("frame of %d samples exceeds cursor of %d", n, cur.Len())}
	}
	srcCh := frame.Channels
	if srcCh < 1 {
		return &DecodeError{Op: "convert", Err: fmt.Errorf("frame has no channels")}
	}
	kind := frame.Format.Kind()
	width := kind.Bytes()
	if width == 0 {
		return &DecodeError{Op: "convert", Err: fmt.Errorf("frame has format %s", frame.Format)}
	}

	read := func(i, ch int) float64 {
		if frame.Format.IsPlanar() {
			return readNorm(frame.Data[ch][i*width:], kind)
		}
		return readNorm(frame.Data[0][(i*srcCh+ch)*width:], kind)
	}

	dstCh := c.dst.Layout.Channels()
	for i := 0; i < n; i++ {
		for ch := 0; ch < dstCh; ch++ {
			var v float64
			switch {
			case ch < srcCh:
				v = read(i, ch)
			case dstCh > srcCh:
				// Upmix: repeat the last source channel.
				v = read(i, srcCh-1)
			}
			if dstCh == 1 && srcCh > 1 {
				// Downmix to mono: average all source channels.
				sum := 0.0
				for s := 0; s < srcCh; s++ {
					sum += read(i, s)
				}
				v = sum / float64(srcCh)
			}
			c.write(cur, i, ch, v)
		}
	}
	return nil
}

func (c *Converter[T]) write(cur audio.Cursor[T], i, ch int, v float64) {
	s := quantize[T](v)
	if c.dst.Format.IsPlanar() {
		cur.Channel(ch)[i] = s
	} else {
		cur.Interleaved()[i*c.dst.Layout.Channels()+ch] = s
	}
}

// readNorm reads one little-endian sample and normalizes it to [-1, 1]
// (unsigned 8-bit is centered on 128 first).
func readNorm(b []byte, kind audio.SampleKind) float64 {
	switch kind {
	case audio.KindU8:
		return (float64(b[0]) - 128) / 128
	case audio.KindI16:
		return float64(int16(binary.LittleEndian.Uint16(b))) / 32768
	case audio.KindI32:
		return float64(int32(binary.LittleEndian.Uint32(b))) / 2147483648
	case audio.KindI64:
		return float64(int64(binary.LittleEndian.Uint64(b))) / 9223372036854775808
	case audio.KindF32:
		return float64(math.Float32frombits(binary.LittleEndian.Uint32(b)))
	case audio.KindF64:
		return math.Float64frombits(binary.LittleEndian.Uint64(b))
	}
	return 0
}

// quantize converts a normalized sample to the destination scalar type,
// clamping integer targets to their representable range.
func quantize[T audio.Sample](v float64) T {
	var z T
	switch any(z).(type) {
	case uint8:
		return T(clamp(v*128+128, 0, 255))
	case int16:
		return T(clamp(v*32768, -32768, 32767))
	case int32:
		return T(clamp(v*2147483648, -2147483648, 2147483647))
	case int64:
		// Clamp in float64 space before converting.
		return T(clamp(v, -1, 1) * 9223372036854775000)
	case float32:
		return T(v)
	case float64:
		return T(v)
	}
	return z
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
