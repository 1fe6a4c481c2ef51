// ABOUTME: Sample format negotiation between decoder and caller
// ABOUTME: Exact match, packed/planar sibling, or no workable format
package codec

import "github.com/Resonate-Protocol/pcmread-go/pkg/audio"

// FormatPicker selects an output format from a decoder's supported list.
// It returns audio.FormatNone if and only if no workable format exists, in
// which case session setup fails with ErrNoCompatibleFormat.
type FormatPicker func(supported []audio.SampleFormat) audio.SampleFormat

// PickBestFormat selects the best supported format for a preference:
// the exact format if supported, else its packed/planar sibling, else
// audio.FormatNone.
func PickBestFormat(supported []audio.SampleFormat, preferred audio.SampleFormat) audio.SampleFormat {
	sibling := audio.FormatNone
	for _, f := range supported {
		if f == preferred {
			return f
		}
		if f != audio.FormatNone && (f.Packed() == preferred || f.Planar() == preferred) {
			sibling = f
		}
	}
	return sibling
}

// PreferFormat returns a picker that applies PickBestFormat for a fixed
// preference.
func PreferFormat(preferred audio.SampleFormat) FormatPicker {
	return func(supported []audio.SampleFormat) audio.SampleFormat {
		return PickBestFormat(supported, preferred)
	}
}

// PickFirst accepts the decoder's first supported format. Useful when the
// caller converts afterwards or only inspects the stream.
func PickFirst(supported []audio.SampleFormat) audio.SampleFormat {
	for _, f := range supported {
		if f != audio.FormatNone {
			return f
		}
	}
	return audio.FormatNone
}
