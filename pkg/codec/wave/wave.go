// ABOUTME: WAV container/decoder adapter over go-audio/wav
// ABOUTME: Reads PCM blocks as frames, scaled to 16- or 32-bit output
package wave

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"time"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/Resonate-Protocol/pcmread-go/pkg/audio"
	"github.com/Resonate-Protocol/pcmread-go/pkg/codec"
)

const blockSamples = 4096 // samples per channel per emitted frame

// container adapts a WAV file to the Container and Decoder interfaces. The
// native output format follows the file's bit depth: 16-bit data stays s16,
// 24- and 32-bit data is emitted as s32 (24-bit shifted to full scale).
type container struct {
	f         *os.File
	dec       *wav.Decoder
	format    audio.SampleFormat
	bitDepth  int
	requested audio.SampleFormat
	intBuf    *goaudio.IntBuffer
	raw       []byte
	credit    int
	eof       bool
	closed    bool
}

// Open opens a WAV file by path.
func Open(path string) (codec.Container, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &codec.SetupError{Op: "open wav", Err: err}
	}
	dec := wav.NewDecoder(f)
	dec.ReadInfo()
	if !dec.IsValidFile() {
		f.Close()
		return nil, &codec.SetupError{Op: "open wav", Err: fmt.Errorf("not a valid WAV file: %s", path)}
	}

	var format audio.SampleFormat
	switch dec.BitDepth {
	case 16:
		format = audio.FormatS16
	case 24, 32:
		format = audio.FormatS32
	default:
		f.Close()
		return nil, &codec.SetupError{Op: "open wav", Err: fmt.Errorf("unsupported bit depth %d", dec.BitDepth)}
	}

	c := &container{
		f:        f,
		dec:      dec,
		format:   format,
		bitDepth: int(dec.BitDepth),
	}
	c.intBuf = &goaudio.IntBuffer{
		Data: make([]int, blockSamples*c.channels()),
		Format: &goaudio.Format{
			NumChannels: c.channels(),
			SampleRate:  c.rate(),
		},
	}
	c.raw = make([]byte, len(c.intBuf.Data)*format.BytesPerSample())
	return c, nil
}

func (c *container) channels() int { return int(c.dec.NumChans) }
func (c *container) rate() int     { return int(c.dec.SampleRate) }

func (c *container) Streams() []codec.StreamInfo {
	return []codec.StreamInfo{{
		Index:  0,
		Kind:   codec.MediaAudio,
		Codec:  "pcm",
		Layout: audio.Layout(c.channels()),
		Rate:   c.rate(),
	}}
}

func (c *container) Duration() time.Duration {
	d, err := c.dec.Duration()
	if err != nil {
		return 0
	}
	return d
}

func (c *container) ReadPacket() (codec.Packet, error) {
	if c.eof {
		return codec.Packet{}, io.EOF
	}
	return codec.Packet{StreamIndex: 0}, nil
}

func (c *container) NewDecoder(stream codec.StreamInfo) (codec.Decoder, error) {
	if stream.Index != 0 {
		return nil, &codec.SetupError{Op: "wav decoder", Err: fmt.Errorf("unknown stream %d", stream.Index)}
	}
	return c, nil
}

func (c *container) SupportedFormats() []audio.SampleFormat {
	return []audio.SampleFormat{c.format}
}

func (c *container) RequestFormat(f audio.SampleFormat) {
	c.requested = f
}

func (c *container) Open() error {
	if c.requested != audio.FormatNone && c.requested != c.format {
		return &codec.SetupError{Op: "wav decoder", Err: fmt.Errorf("unsupported output format %s", c.requested)}
	}
	return nil
}

func (c *container) Format() audio.AudioFormat {
	return audio.NewAudioFormat(audio.Layout(c.channels()), c.format, c.rate())
}

func (c *container) Send(codec.Packet) error {
	if c.eof {
		return io.EOF
	}
	c.credit++
	return nil
}

func (c *container) Receive(frame *codec.Frame) error {
	if c.credit == 0 {
		if c.eof {
			return io.EOF
		}
		return codec.ErrAgain
	}
	c.credit--

	n, err := c.dec.PCMBuffer(c.intBuf)
	if err != nil {
		return &codec.DecodeError{Op: "wav read", Err: err}
	}
	if n == 0 {
		c.eof = true
		return io.EOF
	}
	// Drop a ragged tail that does not fill every channel.
	n -= n % c.channels()

	width := c.format.BytesPerSample()
	raw := c.raw[:n*width]
	for i, s := range c.intBuf.Data[:n] {
		switch c.format {
		case audio.FormatS16:
			binary.LittleEndian.PutUint16(raw[i*2:], uint16(int16(s)))
		case audio.FormatS32:
			v := int32(s)
			if c.bitDepth == 24 {
				v <<= 8
			}
			binary.LittleEndian.PutUint32(raw[i*4:], uint32(v))
		}
	}

	frame.Format = c.format
	frame.Channels = c.channels()
	frame.SampleCount = n / c.channels()
	frame.Data = [][]byte{raw}
	return nil
}

func (c *container) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	return c.f.Close()
}
