// ABOUTME: Tests for the decode driver using an in-memory container/decoder
// ABOUTME: Covers growth past the estimate, packet routing and conversion
package pcmread

import (
	"encoding/binary"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/Resonate-Protocol/pcmread-go/pkg/audio"
	"github.com/Resonate-Protocol/pcmread-go/pkg/codec"
)

// fakeEvent is one ReadPacket result.
type fakeEvent struct {
	pkt codec.Packet
	err error
}

// fakeContainer serves a scripted sequence of packets and hands out a
// fakeDecoder for its audio stream.
type fakeContainer struct {
	streams  []codec.StreamInfo
	events   []fakeEvent
	duration time.Duration
	dec      *fakeDecoder
	closed   bool
}

func (c *fakeContainer) Streams() []codec.StreamInfo { return c.streams }

func (c *fakeContainer) ReadPacket() (codec.Packet, error) {
	if len(c.events) == 0 {
		return codec.Packet{}, io.EOF
	}
	ev := c.events[0]
	c.events = c.events[1:]
	return ev.pkt, ev.err
}

func (c *fakeContainer) Duration() time.Duration { return c.duration }

func (c *fakeContainer) NewDecoder(stream codec.StreamInfo) (codec.Decoder, error) {
	c.dec.layout = stream.Layout
	c.dec.rate = stream.Rate
	return c.dec, nil
}

func (c *fakeContainer) Close() error {
	c.closed = true
	return nil
}

// fakeDecoder treats packet payloads as interleaved little-endian 16-bit
// samples and re-emits them as one frame per packet, deinterleaving when a
// planar output format was negotiated.
type fakeDecoder struct {
	formats     []audio.SampleFormat
	requested   audio.SampleFormat
	layout      audio.ChannelLayout
	rate        int
	pending     []codec.Frame
	againOnSend bool
	closed      bool
}

func (d *fakeDecoder) SupportedFormats() []audio.SampleFormat { return d.formats }
func (d *fakeDecoder) RequestFormat(f audio.SampleFormat)     { d.requested = f }
func (d *fakeDecoder) Open() error                            { return nil }

func (d *fakeDecoder) Format() audio.AudioFormat {
	return audio.NewAudioFormat(d.layout, d.requested, d.rate)
}

func (d *fakeDecoder) Send(pkt codec.Packet) error {
	ch := d.layout.Channels()
	n := len(pkt.Data) / 2 / ch
	frame := codec.Frame{Format: d.requested, Channels: ch, SampleCount: n}
	if d.requested.IsPlanar() {
		frame.Data = make([][]byte, ch)
		for c := 0; c < ch; c++ {
			plane := make([]byte, n*2)
			for i := 0; i < n; i++ {
				copy(plane[i*2:], pkt.Data[(i*ch+c)*2:(i*ch+c)*2+2])
			}
			frame.Data[c] = plane
		}
	} else {
		frame.Data = [][]byte{pkt.Data}
	}
	d.pending = append(d.pending, frame)
	if d.againOnSend {
		// Packet accepted, but the decoder wants its frames drained first.
		d.againOnSend = false
		return codec.ErrAgain
	}
	return nil
}

func (d *fakeDecoder) Receive(frame *codec.Frame) error {
	if len(d.pending) == 0 {
		return codec.ErrAgain
	}
	*frame = d.pending[0]
	d.pending = d.pending[1:]
	return nil
}

func (d *fakeDecoder) Close() error {
	d.closed = true
	return nil
}

func audioStream(channels, rate int) codec.StreamInfo {
	return codec.StreamInfo{Index: 0, Kind: codec.MediaAudio, Codec: "fake", Layout: audio.Layout(channels), Rate: rate}
}

func s16Packet(index int, samples ...int16) codec.Packet {
	data := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(data[i*2:], uint16(s))
	}
	return codec.Packet{StreamIndex: index, Data: data}
}

func fakeReader[T audio.Sample](t *testing.T, c *fakeContainer, packing audio.Packing, channels int) *Reader[T] {
	t.Helper()
	want := audio.FormatOf[T](packing)
	in, err := newInput("fake", c, codec.PreferFormat(want))
	if err != nil {
		t.Fatalf("newInput: %v", err)
	}
	r, err := newReader[T](in, packing, channels)
	if err != nil {
		t.Fatalf("newReader: %v", err)
	}
	return r
}

func TestReaderGrowsBeyondEstimate(t *testing.T) {
	// Duration metadata suggests 1000 samples; the stream actually holds
	// 1200. The buffer must grow mid-decode without corrupting the samples
	// already written around the growth boundary.
	c := &fakeContainer{
		streams:  []codec.StreamInfo{audioStream(1, 1000)},
		duration: time.Second,
		dec:      &fakeDecoder{formats: []audio.SampleFormat{audio.FormatS16}},
	}
	for p := 0; p < 3; p++ {
		samples := make([]int16, 400)
		for i := range samples {
			samples[i] = int16(p*400 + i)
		}
		c.events = append(c.events, fakeEvent{pkt: s16Packet(0, samples...)})
	}

	r := fakeReader[int16](t, c, audio.Packed, 0)
	if r.converter != nil {
		t.Fatal("matching formats must not set up a converter")
	}
	if got := r.output.Capacity(); got != 1000 {
		t.Fatalf("initial capacity = %d, want estimate 1000", got)
	}

	buf, err := r.Read()
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if buf.SampleCount() != 1200 {
		t.Fatalf("SampleCount() = %d, want 1200", buf.SampleCount())
	}
	if buf.Capacity() < 1200 {
		t.Fatalf("Capacity() = %d, want >= 1200", buf.Capacity())
	}
	for i := 0; i < 1200; i++ {
		if got := buf.Sample(0, i); got != int16(i) {
			t.Fatalf("Sample(0, %d) = %d, want %d", i, got, i)
		}
	}
	if !c.closed || !c.dec.closed {
		t.Error("Read must release the container and decoder")
	}
}

func TestReaderEmptyStream(t *testing.T) {
	c := &fakeContainer{
		streams:  []codec.StreamInfo{audioStream(2, 44100)},
		duration: 10 * time.Millisecond,
		dec:      &fakeDecoder{formats: []audio.SampleFormat{audio.FormatS16}},
	}

	buf, err := fakeReader[int16](t, c, audio.Packed, 0).Read()
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if buf.SampleCount() != 0 {
		t.Errorf("SampleCount() = %d, want 0 for an empty stream", buf.SampleCount())
	}
}

func TestReaderSkipsForeignPackets(t *testing.T) {
	c := &fakeContainer{
		streams: []codec.StreamInfo{
			{Index: 0, Kind: codec.MediaOther, Codec: "cover-art"},
			{Index: 1, Kind: codec.MediaAudio, Codec: "fake", Layout: audio.LayoutMono, Rate: 8000},
		},
		dec: &fakeDecoder{formats: []audio.SampleFormat{audio.FormatS16}},
	}
	c.events = []fakeEvent{
		{pkt: codec.Packet{StreamIndex: 0, Data: []byte{0xde, 0xad, 0xbe}}},
		{pkt: s16Packet(1, 10, 20)},
		{pkt: codec.Packet{StreamIndex: 0, Data: []byte{0xff}}},
		{pkt: s16Packet(1, 30)},
	}

	buf, err := fakeReader[int16](t, c, audio.Packed, 0).Read()
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	want := []int16{10, 20, 30}
	if buf.SampleCount() != len(want) {
		t.Fatalf("SampleCount() = %d, want %d", buf.SampleCount(), len(want))
	}
	for i, w := range want {
		if got := buf.Sample(0, i); got != w {
			t.Errorf("Sample(0, %d) = %d, want %d", i, got, w)
		}
	}
}

func TestReaderAbsorbsAgain(t *testing.T) {
	c := &fakeContainer{
		streams: []codec.StreamInfo{audioStream(1, 8000)},
		dec:     &fakeDecoder{formats: []audio.SampleFormat{audio.FormatS16}, againOnSend: true},
	}
	c.events = []fakeEvent{
		{err: codec.ErrAgain},
		{pkt: s16Packet(0, 1, 2)},
		{err: codec.ErrAgain},
		{pkt: s16Packet(0, 3)},
	}

	buf, err := fakeReader[int16](t, c, audio.Packed, 0).Read()
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	// Transient ErrAgain from both ReadPacket and Send never loses samples.
	if buf.SampleCount() != 3 {
		t.Fatalf("SampleCount() = %d, want 3", buf.SampleCount())
	}
	for i, w := range []int16{1, 2, 3} {
		if got := buf.Sample(0, i); got != w {
			t.Errorf("Sample(0, %d) = %d, want %d", i, got, w)
		}
	}
}

func TestReaderConvertsPlanarSibling(t *testing.T) {
	// The decoder only offers the planar sibling of the requested packed
	// format, so negotiation settles for it and a converter interleaves.
	c := &fakeContainer{
		streams: []codec.StreamInfo{audioStream(2, 44100)},
		dec:     &fakeDecoder{formats: []audio.SampleFormat{audio.FormatS16P}},
	}
	c.events = []fakeEvent{
		{pkt: s16Packet(0, 100, -100, 200, -200)},
	}

	r := fakeReader[int16](t, c, audio.Packed, 0)
	if r.converter == nil {
		t.Fatal("planar source into packed output requires a converter")
	}
	buf, err := r.Read()
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if buf.SampleCount() != 2 {
		t.Fatalf("SampleCount() = %d, want 2", buf.SampleCount())
	}
	want := []int16{100, -100, 200, -200}
	for i, w := range want {
		if got := buf.Data()[i]; got != w {
			t.Errorf("Data()[%d] = %d, want %d", i, got, w)
		}
	}
}

func TestReaderChannelOverrideDownmix(t *testing.T) {
	c := &fakeContainer{
		streams: []codec.StreamInfo{audioStream(2, 44100)},
		dec:     &fakeDecoder{formats: []audio.SampleFormat{audio.FormatS16}},
	}
	c.events = []fakeEvent{
		{pkt: s16Packet(0, 100, 300, -100, -300)},
	}

	buf, err := fakeReader[int16](t, c, audio.Packed, 1).Read()
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if buf.Channels() != 1 {
		t.Fatalf("Channels() = %d, want 1", buf.Channels())
	}
	if got := buf.Sample(0, 0); got != 200 {
		t.Errorf("downmixed sample 0 = %d, want 200", got)
	}
	if got := buf.Sample(0, 1); got != -200 {
		t.Errorf("downmixed sample 1 = %d, want -200", got)
	}
}

func TestReaderPlanarOutput(t *testing.T) {
	c := &fakeContainer{
		streams: []codec.StreamInfo{audioStream(2, 44100)},
		dec:     &fakeDecoder{formats: []audio.SampleFormat{audio.FormatS16P}},
	}
	c.events = []fakeEvent{
		{pkt: s16Packet(0, 1, 2, 3, 4, 5, 6)},
	}

	buf, err := fakeReader[int16](t, c, audio.Planar, 0).Read()
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	left, right := buf.Channel(0), buf.Channel(1)
	wantL, wantR := []int16{1, 3, 5}, []int16{2, 4, 6}
	for i := range wantL {
		if left[i] != wantL[i] || right[i] != wantR[i] {
			t.Errorf("sample %d = (%d, %d), want (%d, %d)", i, left[i], right[i], wantL[i], wantR[i])
		}
	}
}

func TestReaderNoAudioStream(t *testing.T) {
	c := &fakeContainer{
		streams: []codec.StreamInfo{{Index: 0, Kind: codec.MediaOther, Codec: "subtitles"}},
		dec:     &fakeDecoder{},
	}
	_, err := newInput("fake", c, codec.PickFirst)
	if !errors.Is(err, codec.ErrNoAudioStream) {
		t.Fatalf("newInput error = %v, want ErrNoAudioStream", err)
	}
}

func TestReaderNoCompatibleFormat(t *testing.T) {
	c := &fakeContainer{
		streams: []codec.StreamInfo{audioStream(2, 44100)},
		dec:     &fakeDecoder{formats: []audio.SampleFormat{audio.FormatDbl}},
	}
	_, err := newInput("fake", c, codec.PreferFormat(audio.FormatS16))
	if !errors.Is(err, codec.ErrNoCompatibleFormat) {
		t.Fatalf("newInput error = %v, want ErrNoCompatibleFormat", err)
	}
}

func TestReaderIsOneShot(t *testing.T) {
	c := &fakeContainer{
		streams: []codec.StreamInfo{audioStream(1, 8000)},
		dec:     &fakeDecoder{formats: []audio.SampleFormat{audio.FormatS16}},
	}
	c.events = []fakeEvent{{pkt: s16Packet(0, 7)}}

	r := fakeReader[int16](t, c, audio.Packed, 0)
	if _, err := r.Read(); err != nil {
		t.Fatalf("first Read: %v", err)
	}
	if _, err := r.Read(); err == nil {
		t.Fatal("second Read must fail")
	}
}

func TestReaderEstimateZeroStartsEmpty(t *testing.T) {
	// Containers without duration metadata report 0; the buffer starts empty
	// and growth does all the allocation.
	c := &fakeContainer{
		streams: []codec.StreamInfo{audioStream(1, 8000)},
		dec:     &fakeDecoder{formats: []audio.SampleFormat{audio.FormatS16}},
	}
	c.events = []fakeEvent{{pkt: s16Packet(0, 4, 5, 6)}}

	r := fakeReader[int16](t, c, audio.Packed, 0)
	if r.output.Capacity() != 0 {
		t.Fatalf("initial capacity = %d, want 0", r.output.Capacity())
	}
	buf, err := r.Read()
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if buf.SampleCount() != 3 {
		t.Fatalf("SampleCount() = %d, want 3", buf.SampleCount())
	}
}
