// ABOUTME: Audio stream shape types
// ABOUTME: Channel layout and the (layout, format, rate) triple
package audio

import "fmt"

// ChannelLayout describes the channel arrangement of a PCM stream. Decoded
// output carries no positional speaker information, so the layout is the
// channel count with names for the common cases.
type ChannelLayout int

const (
	LayoutMono   ChannelLayout = 1
	LayoutStereo ChannelLayout = 2
)

// Layout returns the layout for a channel count.
func Layout(channels int) ChannelLayout {
	return ChannelLayout(channels)
}

// Channels returns the number of channels in the layout.
func (l ChannelLayout) Channels() int {
	return int(l)
}

func (l ChannelLayout) String() string {
	switch l {
	case LayoutMono:
		return "mono"
	case LayoutStereo:
		return "stereo"
	}
	return fmt.Sprintf("%dch", int(l))
}

// AudioFormat is the complete shape of a PCM stream: channel layout, sample
// format and sample rate. Two streams need conversion iff their AudioFormats
// differ.
type AudioFormat struct {
	Layout ChannelLayout
	Format SampleFormat
	Rate   int
}

// NewAudioFormat builds an AudioFormat triple.
func NewAudioFormat(layout ChannelLayout, format SampleFormat, rate int) AudioFormat {
	return AudioFormat{Layout: layout, Format: format, Rate: rate}
}

func (f AudioFormat) String() string {
	return fmt.Sprintf("%s %s @ %d Hz", f.Layout, f.Format, f.Rate)
}
