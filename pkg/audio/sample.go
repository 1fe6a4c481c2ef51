// ABOUTME: Generic sample scalar constraint and raw byte conversion
// ABOUTME: Maps Go numeric types to sample kinds and decodes LE sample data
package audio

import (
	"encoding/binary"
	"math"
)

// Sample is the set of scalar types a PCM buffer can hold.
type Sample interface {
	uint8 | int16 | int32 | int64 | float32 | float64
}

// KindOf returns the sample kind corresponding to the Go type T.
func KindOf[T Sample]() SampleKind {
	var z T
	switch any(z).(type) {
	case uint8:
		return KindU8
	case int16:
		return KindI16
	case int32:
		return KindI32
	case int64:
		return KindI64
	case float32:
		return KindF32
	case float64:
		return KindF64
	}
	return KindNone
}

// FormatOf synthesizes the sample format for the Go type T and a packing.
func FormatOf[T Sample](packing Packing) SampleFormat {
	return FormatFor(KindOf[T](), packing)
}

// DecodeSamples decodes little-endian raw sample bytes into dst and returns
// the number of samples written. It stops at whichever of dst or src runs
// out first; src must hold whole samples of T's width.
func DecodeSamples[T Sample](dst []T, src []byte) int {
	switch d := any(dst).(type) {
	case []uint8:
		return copy(d, src)
	case []int16:
		n := min(len(d), len(src)/2)
		for i := 0; i < n; i++ {
			d[i] = int16(binary.LittleEndian.Uint16(src[i*2:]))
		}
		return n
	case []int32:
		n := min(len(d), len(src)/4)
		for i := 0; i < n; i++ {
			d[i] = int32(binary.LittleEndian.Uint32(src[i*4:]))
		}
		return n
	case []int64:
		n := min(len(d), len(src)/8)
		for i := 0; i < n; i++ {
			d[i] = int64(binary.LittleEndian.Uint64(src[i*8:]))
		}
		return n
	case []float32:
		n := min(len(d), len(src)/4)
		for i := 0; i < n; i++ {
			d[i] = math.Float32frombits(binary.LittleEndian.Uint32(src[i*4:]))
		}
		return n
	case []float64:
		n := min(len(d), len(src)/8)
		for i := 0; i < n; i++ {
			d[i] = math.Float64frombits(binary.LittleEndian.Uint64(src[i*8:]))
		}
		return n
	}
	return 0
}
