// ABOUTME: Ogg Opus container/decoder adapter over hraban/opus
// ABOUTME: Real multi-stream demuxing with packet-based Opus decoding
package oggopus

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"time"

	"gopkg.in/hraban/opus.v2"

	"github.com/Resonate-Protocol/pcmread-go/pkg/audio"
	"github.com/Resonate-Protocol/pcmread-go/pkg/codec"
)

// Opus in Ogg always decodes at 48 kHz; 5760 is the largest frame (120 ms)
// per channel at that rate.
const (
	opusRate     = 48000
	maxFrameSize = 5760
)

var (
	opusHeadMagic = []byte("OpusHead")
	opusTagsMagic = []byte("OpusTags")
)

// streamState tracks one logical Ogg stream while demuxing.
type streamState struct {
	index    int
	partial  []byte
	channels int
	preSkip  int
}

// container demuxes Ogg pages into packets and decodes Opus packets into
// PCM frames. Unlike the pull-based adapters, the packets here are real:
// each one is an Opus packet reassembled from page lacing, routed by the
// logical stream's serial number.
type container struct {
	f       *os.File
	br      *bufio.Reader
	streams []codec.StreamInfo
	bySerial map[uint32]*streamState
	queue   []codec.Packet
	demuxEOF bool
	closed  bool

	// decoder state
	audioStream *streamState
	requested   audio.SampleFormat
	dec         *opus.Decoder
	pcm16       []int16
	pcm32       []float32
	pending     []byte
	pendingN    int
	skipLeft    int
	headerDone  int
}

// Open opens an Ogg Opus file by path. The initial beginning-of-stream
// pages are read eagerly so the stream list is known up front.
func Open(path string) (codec.Container, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &codec.SetupError{Op: "open ogg", Err: err}
	}
	c := &container{
		f:        f,
		br:       bufio.NewReader(f),
		bySerial: make(map[uint32]*streamState),
	}
	// A valid Ogg file opens with one BOS page per logical stream.
	for {
		p, err := readPage(c.br)
		if err == io.EOF {
			c.demuxEOF = true
			break
		}
		if err != nil {
			f.Close()
			return nil, &codec.SetupError{Op: "open ogg", Err: err}
		}
		c.assemble(p)
		if !p.bos() {
			break
		}
	}
	if len(c.streams) == 0 {
		f.Close()
		return nil, &codec.SetupError{Op: "open ogg", Err: fmt.Errorf("no logical streams found")}
	}
	return c, nil
}

// assemble splits a page into packets, registering new logical streams as
// their first packet appears.
func (c *container) assemble(p *page) {
	st := c.bySerial[p.serial]
	if st != nil && !p.continued() {
		st.partial = nil
	}
	pos := 0
	for _, lace := range p.laces {
		var chunk []byte
		if st != nil {
			chunk = st.partial
		}
		chunk = append(chunk, p.payload[pos:pos+lace]...)
		pos += lace
		if lace == 255 {
			if st == nil {
				st = c.register(p.serial, chunk)
			}
			st.partial = chunk
			continue
		}
		if st == nil {
			st = c.register(p.serial, chunk)
		}
		st.partial = nil
		c.queue = append(c.queue, codec.Packet{StreamIndex: st.index, Data: chunk})
	}
}

// register classifies a new logical stream by its first packet.
func (c *container) register(serial uint32, first []byte) *streamState {
	st := &streamState{index: len(c.streams)}
	info := codec.StreamInfo{Index: st.index, Kind: codec.MediaOther}
	if bytes.HasPrefix(first, opusHeadMagic) && len(first) >= 19 {
		st.channels = int(first[9])
		st.preSkip = int(binary.LittleEndian.Uint16(first[10:12]))
		info.Kind = codec.MediaAudio
		info.Codec = "opus"
		info.Layout = audio.Layout(st.channels)
		info.Rate = opusRate
	}
	c.bySerial[serial] = st
	c.streams = append(c.streams, info)
	return st
}

func (c *container) Streams() []codec.StreamInfo {
	return c.streams
}

func (c *container) Duration() time.Duration {
	// Duration lives in the final page's granule position; without a scan
	// of the whole file it is unknown.
	return 0
}

func (c *container) ReadPacket() (codec.Packet, error) {
	for len(c.queue) == 0 {
		if c.demuxEOF {
			return codec.Packet{}, io.EOF
		}
		p, err := readPage(c.br)
		if err == io.EOF {
			c.demuxEOF = true
			return codec.Packet{}, io.EOF
		}
		if err != nil {
			return codec.Packet{}, &codec.DecodeError{Op: "ogg read", Err: err}
		}
		c.assemble(p)
	}
	pkt := c.queue[0]
	c.queue = c.queue[1:]
	return pkt, nil
}

func (c *container) NewDecoder(stream codec.StreamInfo) (codec.Decoder, error) {
	if stream.Index < 0 || stream.Index >= len(c.streams) || c.streams[stream.Index].Kind != codec.MediaAudio {
		return nil, &codec.SetupError{Op: "opus decoder", Err: fmt.Errorf("stream %d is not an audio stream", stream.Index)}
	}
	for _, st := range c.bySerial {
		if st.index == stream.Index {
			c.audioStream = st
		}
	}
	return c, nil
}

func (c *container) SupportedFormats() []audio.SampleFormat {
	return []audio.SampleFormat{audio.FormatS16, audio.FormatFlt}
}

func (c *container) RequestFormat(f audio.SampleFormat) {
	c.requested = f
}

func (c *container) Open() error {
	switch c.requested {
	case audio.FormatNone:
		c.requested = audio.FormatS16
	case audio.FormatS16, audio.FormatFlt:
	default:
		return &codec.SetupError{Op: "opus decoder", Err: fmt.Errorf("unsupported output format %s", c.requested)}
	}
	dec, err := opus.NewDecoder(opusRate, c.audioStream.channels)
	if err != nil {
		return &codec.SetupError{Op: "opus decoder", Err: err}
	}
	c.dec = dec
	ch := c.audioStream.channels
	c.pcm16 = make([]int16, maxFrameSize*ch)
	c.pcm32 = make([]float32, maxFrameSize*ch)
	c.pending = make([]byte, 0, maxFrameSize*ch*4)
	c.skipLeft = c.audioStream.preSkip
	return nil
}

func (c *container) Format() audio.AudioFormat {
	return audio.NewAudioFormat(audio.Layout(c.audioStream.channels), c.requested, opusRate)
}

func (c *container) Send(pkt codec.Packet) error {
	// The first two packets of an Opus stream are OpusHead and OpusTags.
	if c.headerDone < 2 && (bytes.HasPrefix(pkt.Data, opusHeadMagic) || bytes.HasPrefix(pkt.Data, opusTagsMagic)) {
		c.headerDone++
		return nil
	}
	if c.pendingN > 0 {
		return codec.ErrAgain
	}

	ch := c.audioStream.channels
	var n int
	var err error
	if c.requested == audio.FormatFlt {
		n, err = c.dec.DecodeFloat32(pkt.Data, c.pcm32)
	} else {
		n, err = c.dec.Decode(pkt.Data, c.pcm16)
	}
	if err != nil {
		return &codec.DecodeError{Op: "opus decode", Err: err}
	}

	// Honor the OpusHead pre-skip: drop priming samples from the front.
	drop := 0
	if c.skipLeft > 0 {
		drop = min(c.skipLeft, n)
		c.skipLeft -= drop
	}
	n -= drop
	if n == 0 {
		return nil
	}

	c.pending = c.pending[:0]
	if c.requested == audio.FormatFlt {
		for _, v := range c.pcm32[drop*ch : (drop+n)*ch] {
			c.pending = binary.LittleEndian.AppendUint32(c.pending, math.Float32bits(v))
		}
	} else {
		for _, v := range c.pcm16[drop*ch : (drop+n)*ch] {
			c.pending = binary.LittleEndian.AppendUint16(c.pending, uint16(v))
		}
	}
	c.pendingN = n
	return nil
}

func (c *container) Receive(frame *codec.Frame) error {
	if c.pendingN == 0 {
		if c.demuxEOF && len(c.queue) == 0 {
			return io.EOF
		}
		return codec.ErrAgain
	}
	frame.Format = c.requested
	frame.Channels = c.audioStream.channels
	frame.SampleCount = c.pendingN
	frame.Data = [][]byte{c.pending}
	c.pendingN = 0
	return nil
}

func (c *container) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	return c.f.Close()
}
