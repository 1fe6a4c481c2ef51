// ABOUTME: End-to-end decode test against a real WAV file on disk
// ABOUTME: Exercises the extension dispatch, negotiation and full drain path
package pcmread

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/Resonate-Protocol/pcmread-go/pkg/audio"
	"github.com/Resonate-Protocol/pcmread-go/pkg/codec"
)

func writeWAV(t *testing.T, channels, rate int, samples []int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tone.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	enc := wav.NewEncoder(f, rate, 16, channels, 1)
	buf := &goaudio.IntBuffer{
		Data:   samples,
		Format: &goaudio.Format{NumChannels: channels, SampleRate: rate},
	}
	if err := enc.Write(buf); err != nil {
		t.Fatalf("encoder Write: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("encoder Close: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("file Close: %v", err)
	}
	return path
}

func TestLoadWAV(t *testing.T) {
	const rate = 8000
	const n = 6000 // not a multiple of the decoder block size
	src := make([]int, 0, n*2)
	for i := 0; i < n; i++ {
		s := int(3000 * math.Sin(2*math.Pi*440*float64(i)/rate))
		src = append(src, s, -s)
	}
	path := writeWAV(t, 2, rate, src)

	buf, err := Load[int16](path, audio.Packed)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if buf.SampleCount() != n {
		t.Fatalf("SampleCount() = %d, want %d", buf.SampleCount(), n)
	}
	if buf.Channels() != 2 || buf.SampleRate() != rate {
		t.Fatalf("shape = %dch @ %d, want 2ch @ %d", buf.Channels(), buf.SampleRate(), rate)
	}
	// Same bit depth and layout: the decode path is a plain copy, so the
	// samples must be bit-identical.
	data := buf.Data()
	for i, want := range src {
		if data[i] != int16(want) {
			t.Fatalf("sample %d = %d, want %d", i, data[i], want)
		}
	}
}

func TestLoadWAVPlanar(t *testing.T) {
	src := []int{1, -1, 2, -2, 3, -3}
	path := writeWAV(t, 2, 8000, src)

	// 16-bit WAV only offers packed s16, so a planar request converts.
	buf, err := Load[int16](path, audio.Planar)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if buf.SampleCount() != 3 {
		t.Fatalf("SampleCount() = %d, want 3", buf.SampleCount())
	}
	left, right := buf.Channel(0), buf.Channel(1)
	for i := 0; i < 3; i++ {
		if left[i] != int16(i+1) || right[i] != int16(-(i + 1)) {
			t.Errorf("sample %d = (%d, %d), want (%d, %d)", i, left[i], right[i], i+1, -(i + 1))
		}
	}
}

func TestOpenUnsupportedExtension(t *testing.T) {
	_, err := Open("song.aiff", codec.PickFirst)
	if err == nil {
		t.Fatal("expected error for unsupported extension")
	}
}

func TestOpenMissingFile(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing.wav"), codec.PickFirst)
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}
