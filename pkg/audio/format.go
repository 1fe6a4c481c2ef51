// ABOUTME: PCM sample format model (numeric kind x packing)
// ABOUTME: Pure value types with name lookup and counterpart mappings
package audio

// SampleKind identifies the scalar numeric type of a PCM sample.
type SampleKind int

const (
	KindNone SampleKind = iota
	KindU8
	KindI16
	KindI32
	KindI64
	KindF32
	KindF64
)

// String returns a short name for the kind ("u8", "i16", ...).
func (k SampleKind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindU8:
		return "u8"
	case KindI16:
		return "i16"
	case KindI32:
		return "i32"
	case KindI64:
		return "i64"
	case KindF32:
		return "f32"
	case KindF64:
		return "f64"
	}
	return "unknown"
}

// Bytes returns the width of one sample of this kind in bytes, 0 for KindNone.
func (k SampleKind) Bytes() int {
	switch k {
	case KindU8:
		return 1
	case KindI16:
		return 2
	case KindI32, KindF32:
		return 4
	case KindI64, KindF64:
		return 8
	}
	return 0
}

// Packing describes how multi-channel samples are laid out in memory.
type Packing int

const (
	// Packed stores samples for all channels at one time index contiguously
	// (interleaved).
	Packed Packing = iota
	// Planar stores all samples of one channel contiguously before the next
	// channel's data begins (deinterleaved).
	Planar
)

func (p Packing) String() string {
	if p == Planar {
		return "planar"
	}
	return "packed"
}

// SampleFormat is a PCM encoding: a numeric kind plus a packing, or
// FormatNone. FormatNone carries no kind and has zero byte width.
type SampleFormat int

const (
	FormatNone SampleFormat = iota

	FormatU8
	FormatS16
	FormatS32
	FormatS64
	FormatFlt
	FormatDbl

	FormatU8P
	FormatS16P
	FormatS32P
	FormatS64P
	FormatFltP
	FormatDblP
)

var formatNames = map[SampleFormat]string{
	FormatNone: "none",
	FormatU8:   "u8",
	FormatS16:  "s16",
	FormatS32:  "s32",
	FormatS64:  "s64",
	FormatFlt:  "flt",
	FormatDbl:  "dbl",
	FormatU8P:  "u8p",
	FormatS16P: "s16p",
	FormatS32P: "s32p",
	FormatS64P: "s64p",
	FormatFltP: "fltp",
	FormatDblP: "dblp",
}

// Name returns the canonical format name. An out-of-range value returns the
// empty string; that indicates a programming fault, not a runtime condition.
func (f SampleFormat) Name() string {
	return formatNames[f]
}

func (f SampleFormat) String() string {
	if n := formatNames[f]; n != "" {
		return n
	}
	return "unknown"
}

// Kind returns the scalar numeric kind, KindNone for FormatNone.
func (f SampleFormat) Kind() SampleKind {
	switch f {
	case FormatU8, FormatU8P:
		return KindU8
	case FormatS16, FormatS16P:
		return KindI16
	case FormatS32, FormatS32P:
		return KindI32
	case FormatS64, FormatS64P:
		return KindI64
	case FormatFlt, FormatFltP:
		return KindF32
	case FormatDbl, FormatDblP:
		return KindF64
	}
	return KindNone
}

// IsPlanar reports whether the format stores channels in separate planes.
func (f SampleFormat) IsPlanar() bool {
	switch f {
	case FormatU8P, FormatS16P, FormatS32P, FormatS64P, FormatFltP, FormatDblP:
		return true
	}
	return false
}

// IsPacked reports whether the format interleaves channels.
func (f SampleFormat) IsPacked() bool {
	return !f.IsPlanar()
}

// SamplePacking returns the packing tag of the format. FormatNone reports
// Packed; callers that care should check for FormatNone first.
func (f SampleFormat) SamplePacking() Packing {
	if f.IsPlanar() {
		return Planar
	}
	return Packed
}

// Packed returns the interleaved counterpart of the format. Total: every
// format has one, and FormatNone maps to itself.
func (f SampleFormat) Packed() SampleFormat {
	switch f {
	case FormatU8P:
		return FormatU8
	case FormatS16P:
		return FormatS16
	case FormatS32P:
		return FormatS32
	case FormatS64P:
		return FormatS64
	case FormatFltP:
		return FormatFlt
	case FormatDblP:
		return FormatDbl
	}
	return f
}

// Planar returns the planar counterpart of the format. Total: every format
// has one, and FormatNone maps to itself.
func (f SampleFormat) Planar() SampleFormat {
	switch f {
	case FormatU8:
		return FormatU8P
	case FormatS16:
		return FormatS16P
	case FormatS32:
		return FormatS32P
	case FormatS64:
		return FormatS64P
	case FormatFlt:
		return FormatFltP
	case FormatDbl:
		return FormatDblP
	}
	return f
}

// BytesPerSample returns the width of one sample in bytes, 0 for FormatNone.
func (f SampleFormat) BytesPerSample() int {
	return f.Kind().Bytes()
}

// FormatFor synthesizes the format for a numeric kind and packing. KindNone
// yields FormatNone regardless of packing.
func FormatFor(kind SampleKind, packing Packing) SampleFormat {
	var f SampleFormat
	switch kind {
	case KindU8:
		f = FormatU8
	case KindI16:
		f = FormatS16
	case KindI32:
		f = FormatS32
	case KindI64:
		f = FormatS64
	case KindF32:
		f = FormatFlt
	case KindF64:
		f = FormatDbl
	default:
		return FormatNone
	}
	if packing == Planar {
		return f.Planar()
	}
	return f
}

// ParseFormat looks up a format by its canonical name. Unknown names yield
// FormatNone rather than an error, mirroring best-effort library lookup.
func ParseFormat(name string) SampleFormat {
	for f, n := range formatNames {
		if n == name && f != FormatNone {
			return f
		}
	}
	return FormatNone
}
