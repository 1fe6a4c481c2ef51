// ABOUTME: FLAC container/decoder adapter over mewkiz/flac
// ABOUTME: Emits true FLAC frames as planar 32-bit samples
package flac

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"time"

	mewflac "github.com/mewkiz/flac"

	"github.com/Resonate-Protocol/pcmread-go/pkg/audio"
	"github.com/Resonate-Protocol/pcmread-go/pkg/codec"
)

// container adapts a FLAC stream to the Container and Decoder interfaces.
// FLAC frames map one-to-one onto protocol frames: each packet credit lets
// Receive parse the next frame. Subframe samples are left-shifted to full
// 32-bit scale, so the native output format is planar s32 regardless of the
// stream's bit depth.
type container struct {
	f         *os.File
	stream    *mewflac.Stream
	requested audio.SampleFormat
	planes    [][]byte
	credit    int
	eof       bool
	closed    bool
}

// Open opens a FLAC file by path.
func Open(path string) (codec.Container, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &codec.SetupError{Op: "open flac", Err: err}
	}
	stream, err := mewflac.New(f)
	if err != nil {
		f.Close()
		return nil, &codec.SetupError{Op: "open flac", Err: err}
	}
	return &container{f: f, stream: stream}, nil
}

func (c *container) channels() int {
	return int(c.stream.Info.NChannels)
}

func (c *container) rate() int {
	return int(c.stream.Info.SampleRate)
}

func (c *container) Streams() []codec.StreamInfo {
	return []codec.StreamInfo{{
		Index:  0,
		Kind:   codec.MediaAudio,
		Codec:  "flac",
		Layout: audio.Layout(c.channels()),
		Rate:   c.rate(),
	}}
}

func (c *container) Duration() time.Duration {
	// NSamples is 0 when the stream info block does not record it.
	n := c.stream.Info.NSamples
	if n == 0 {
		return 0
	}
	return time.Duration(n) * time.Second / time.Duration(c.rate())
}

func (c *container) ReadPacket() (codec.Packet, error) {
	if c.eof {
		return codec.Packet{}, io.EOF
	}
	return codec.Packet{StreamIndex: 0}, nil
}

func (c *container) NewDecoder(stream codec.StreamInfo) (codec.Decoder, error) {
	if stream.Index != 0 {
		return nil, &codec.SetupError{Op: "flac decoder", Err: fmt.Errorf("unknown stream %d", stream.Index)}
	}
	return c, nil
}

func (c *container) SupportedFormats() []audio.SampleFormat {
	return []audio.SampleFormat{audio.FormatS32P}
}

func (c *container) RequestFormat(f audio.SampleFormat) {
	c.requested = f
}

func (c *container) Open() error {
	if c.requested != audio.FormatNone && c.requested != audio.FormatS32P {
		return &codec.SetupError{Op: "flac decoder", Err: fmt.Errorf("unsupported output format %s", c.requested)}
	}
	return nil
}

func (c *container) Format() audio.AudioFormat {
	return audio.NewAudioFormat(audio.Layout(c.channels()), audio.FormatS32P, c.rate())
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

	fr, err := c.stream.ParseNext()
	if err == io.EOF {
		c.eof = true
		return io.EOF
	}
	if err != nil {
		return &codec.DecodeError{Op: "flac parse", Err: err}
	}

	n := int(fr.BlockSize)
	ch := c.channels()
	shift := uint(32 - c.stream.Info.BitsPerSample)
	if len(c.planes) != ch {
		c.planes = make([][]byte, ch)
	}
	for i := 0; i < ch; i++ {
		if cap(c.planes[i]) < n*4 {
			c.planes[i] = make([]byte, n*4)
		}
		plane := c.planes[i][:n*4]
		samples := fr.Subframes[i].Samples
		for j := 0; j < n; j++ {
			binary.LittleEndian.PutUint32(plane[j*4:], uint32(samples[j]<<shift))
		}
		c.planes[i] = plane
	}

	frame.Format = audio.FormatS32P
	frame.Channels = ch
	frame.SampleCount = n
	frame.Data = c.planes
	return nil
}

func (c *container) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	return c.f.Close()
}
