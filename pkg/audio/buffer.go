// ABOUTME: Growable owned PCM container (channels x samples) and its write cursor
// ABOUTME: Capacity grows monotonically; the cursor is a short-lived tail view
package audio

import "fmt"

// Buffer owns a contiguous region of samples shaped channels x capacity, in
// either packed (interleaved) or planar layout. The valid sample count is
// tracked separately from the allocated capacity: decoding appends frames
// and advances the count, and finalization clamps it to the true total.
//
// Invariants: SampleCount() <= Capacity() at all times, and Grow never
// shrinks the allocation.
type Buffer[T Sample] struct {
	data     []T
	channels int
	packing  Packing
	rate     int
	capacity int // allocated samples per channel
	samples  int // valid samples per channel
}

// NewBuffer allocates a buffer for the given channel count and initial
// capacity in samples per channel. The channel count is fixed for the life
// of the buffer.
func NewBuffer[T Sample](channels, capacity int, packing Packing, rate int) *Buffer[T] {
	if channels < 1 {
		panic(fmt.Sprintf("audio: invalid channel count %d", channels))
	}
	if capacity < 0 {
		capacity = 0
	}
	return &Buffer[T]{
		data:     make([]T, channels*capacity),
		channels: channels,
		packing:  packing,
		rate:     rate,
		capacity: capacity,
	}
}

// Channels returns the fixed channel count.
func (b *Buffer[T]) Channels() int { return b.channels }

// Capacity returns the allocated sample capacity per channel.
func (b *Buffer[T]) Capacity() int { return b.capacity }

// SampleCount returns the number of valid samples per channel.
func (b *Buffer[T]) SampleCount() int { return b.samples }

// SampleRate returns the sample rate in Hz.
func (b *Buffer[T]) SampleRate() int { return b.rate }

// SetSampleRate records the source sample rate. Set once during setup.
func (b *Buffer[T]) SetSampleRate(rate int) { b.rate = rate }

// Packing returns the memory layout of the buffer.
func (b *Buffer[T]) Packing() Packing { return b.packing }

// Format returns the sample format of the buffer's contents.
func (b *Buffer[T]) Format() SampleFormat {
	return FormatOf[T](b.packing)
}

// AudioFormat returns the complete stream shape of the buffer.
func (b *Buffer[T]) AudioFormat() AudioFormat {
	return AudioFormat{Layout: Layout(b.channels), Format: b.Format(), Rate: b.rate}
}

// Grow ensures the buffer can hold at least capacity samples per channel.
// Growth may relocate the underlying memory: any Cursor created before a
// call to Grow is invalid afterwards and must be rebuilt. Grow never
// shrinks.
func (b *Buffer[T]) Grow(capacity int) {
	if capacity <= b.capacity {
		return
	}
	data := make([]T, b.channels*capacity)
	if b.packing == Packed {
		// Interleaved offsets do not depend on capacity.
		copy(data, b.data)
	} else {
		// Planar rows move to the new stride.
		for ch := 0; ch < b.channels; ch++ {
			copy(data[ch*capacity:], b.data[ch*b.capacity:(ch+1)*b.capacity])
		}
	}
	b.data = data
	b.capacity = capacity
}

// SetSampleCount sets the valid sample count, clamped to [0, Capacity()].
// Finalization uses it to truncate the logical length to the true decoded
// total; calling it again with the same value is a no-op.
func (b *Buffer[T]) SetSampleCount(n int) {
	if n < 0 {
		n = 0
	}
	if n > b.capacity {
		n = b.capacity
	}
	b.samples = n
}

// Sample returns the sample at (channel, index). Index must be below the
// valid sample count.
func (b *Buffer[T]) Sample(ch, i int) T {
	if ch < 0 || ch >= b.channels || i < 0 || i >= b.samples {
		panic(fmt.Sprintf("audio: sample (%d, %d) out of range %dx%d", ch, i, b.channels, b.samples))
	}
	if b.packing == Packed {
		return b.data[i*b.channels+ch]
	}
	return b.data[ch*b.capacity+i]
}

// Channel returns the valid samples of one channel of a planar buffer.
func (b *Buffer[T]) Channel(ch int) []T {
	if b.packing != Planar {
		panic("audio: Channel called on an interleaved buffer")
	}
	if ch < 0 || ch >= b.channels {
		panic(fmt.Sprintf("audio: channel %d out of range %d", ch, b.channels))
	}
	return b.data[ch*b.capacity : ch*b.capacity+b.samples]
}

// Data returns the valid interleaved samples of a packed buffer.
func (b *Buffer[T]) Data() []T {
	if b.packing != Packed {
		panic("audio: Data called on a planar buffer")
	}
	return b.data[:b.samples*b.channels]
}

// Cursor creates a write cursor over the buffer tail starting at offset,
// with length capacity-minus-offset. The cursor does not own the memory and
// is valid only until the next Grow; rebuild it immediately before each
// copy, never cache it across growth.
func (b *Buffer[T]) Cursor(offset int) Cursor[T] {
	if offset < 0 {
		offset = 0
	}
	if offset > b.capacity {
		offset = b.capacity
	}
	return Cursor[T]{buf: b, offset: offset, length: b.capacity - offset}
}

// Cursor is a non-owning window over a Buffer's tail, used only during the
// copy step of decoding.
type Cursor[T Sample] struct {
	buf    *Buffer[T]
	offset int
	length int
}

// Len returns the number of samples per channel the cursor can hold.
func (c Cursor[T]) Len() int { return c.length }

// Offset returns the cursor's position in samples from the buffer start.
func (c Cursor[T]) Offset() int { return c.offset }

// Channels returns the channel count of the underlying buffer.
func (c Cursor[T]) Channels() int { return c.buf.channels }

// Packing returns the layout of the underlying buffer.
func (c Cursor[T]) Packing() Packing { return c.buf.packing }

// Interleaved returns the writable interleaved window of a packed buffer.
func (c Cursor[T]) Interleaved() []T {
	if c.buf.packing != Packed {
		panic("audio: Interleaved cursor view on a planar buffer")
	}
	return c.buf.data[c.offset*c.buf.channels : (c.offset+c.length)*c.buf.channels]
}

// Channel returns the writable window of one channel of a planar buffer.
func (c Cursor[T]) Channel(ch int) []T {
	if c.buf.packing != Planar {
		panic("audio: Channel cursor view on an interleaved buffer")
	}
	start := ch*c.buf.capacity + c.offset
	return c.buf.data[start : start+c.length]
}
