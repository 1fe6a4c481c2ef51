// ABOUTME: MP3 container/decoder adapter over hajimehoshi/go-mp3
// ABOUTME: Presents the pull-based decoder through the packet/frame protocol
package mp3

import (
	"fmt"
	"io"
	"os"
	"time"

	gomp3 "github.com/hajimehoshi/go-mp3"

	"github.com/Resonate-Protocol/pcmread-go/pkg/audio"
	"github.com/Resonate-Protocol/pcmread-go/pkg/codec"
)

// go-mp3 always outputs 16-bit stereo.
const (
	channels       = 2
	bytesPerSample = 2 * channels
	frameBytes     = 4096 * bytesPerSample
)

// container adapts an MP3 stream to the Container and Decoder interfaces.
// go-mp3 is pull-based, so packets are read credits: each packet sent to
// the decoder lets Receive pull one block of decoded PCM, after which
// Receive reports ErrAgain until the next packet.
type container struct {
	src       io.ReadCloser
	dec       *gomp3.Decoder
	requested audio.SampleFormat
	buf       []byte
	// Partial trailing sample of the previous frame, reclaimed on the next
	// Receive so the emitted frame data stays valid in between.
	tailStart int
	tailEnd   int
	credit    int
	eof       bool
	closed    bool
}

// Open opens an MP3 file by path.
func Open(path string) (codec.Container, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &codec.SetupError{Op: "open mp3", Err: err}
	}
	c, err := OpenReader(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	return c, nil
}

// OpenReader opens an MP3 stream from a reader, e.g. an HTTP response body.
// The container takes ownership of the reader.
func OpenReader(src io.ReadCloser) (codec.Container, error) {
	dec, err := gomp3.NewDecoder(src)
	if err != nil {
		return nil, &codec.SetupError{Op: "open mp3", Err: err}
	}
	return &container{
		src: src,
		dec: dec,
		buf: make([]byte, frameBytes),
	}, nil
}

func (c *container) Streams() []codec.StreamInfo {
	return []codec.StreamInfo{{
		Index:  0,
		Kind:   codec.MediaAudio,
		Codec:  "mp3",
		Layout: audio.Layout(channels),
		Rate:   c.dec.SampleRate(),
	}}
}

func (c *container) Duration() time.Duration {
	// Length is the total decoded size in bytes, -1 when unknown
	// (non-seekable sources).
	n := c.dec.Length()
	if n <= 0 {
		return 0
	}
	samples := n / bytesPerSample
	return time.Duration(samples) * time.Second / time.Duration(c.dec.SampleRate())
}

func (c *container) ReadPacket() (codec.Packet, error) {
	if c.eof {
		return codec.Packet{}, io.EOF
	}
	return codec.Packet{StreamIndex: 0}, nil
}

func (c *container) NewDecoder(stream codec.StreamInfo) (codec.Decoder, error) {
	if stream.Index != 0 {
		return nil, &codec.SetupError{Op: "mp3 decoder", Err: fmt.Errorf("unknown stream %d", stream.Index)}
	}
	return c, nil
}

func (c *container) SupportedFormats() []audio.SampleFormat {
	return []audio.SampleFormat{audio.FormatS16}
}

func (c *container) RequestFormat(f audio.SampleFormat) {
	c.requested = f
}

func (c *container) Open() error {
	if c.requested != audio.FormatNone && c.requested != audio.FormatS16 {
		return &codec.SetupError{Op: "mp3 decoder", Err: fmt.Errorf("unsupported output format %s", c.requested)}
	}
	return nil
}

func (c *container) Format() audio.AudioFormat {
	return audio.NewAudioFormat(audio.Layout(channels), audio.FormatS16, c.dec.SampleRate())
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

	carry := copy(c.buf, c.buf[c.tailStart:c.tailEnd])
	c.tailStart, c.tailEnd = 0, 0

	n, err := c.dec.Read(c.buf[carry:])
	total := carry + n
	usable := total - total%bytesPerSample
	if usable == 0 {
		if err == io.EOF {
			c.eof = true
			return io.EOF
		}
		if err != nil {
			return &codec.DecodeError{Op: "mp3 read", Err: err}
		}
		return codec.ErrAgain
	}
	if err != nil && err != io.EOF {
		return &codec.DecodeError{Op: "mp3 read", Err: err}
	}

	frame.Format = audio.FormatS16
	frame.Channels = channels
	frame.SampleCount = usable / bytesPerSample
	frame.Data = [][]byte{c.buf[:usable]}

	c.tailStart, c.tailEnd = usable, total
	if err == io.EOF {
		c.eof = true
	}
	return nil
}

func (c *container) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	return c.src.Close()
}
