// ABOUTME: Entry point for the pcmplay playback tool
// ABOUTME: Decodes a whole file into memory, then plays it through oto
package main

import (
	"bytes"
	"encoding/binary"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ebitengine/oto/v3"

	"github.com/Resonate-Protocol/pcmread-go/internal/version"
	"github.com/Resonate-Protocol/pcmread-go/pkg/audio"
	"github.com/Resonate-Protocol/pcmread-go/pkg/pcmread"
)

var (
	volume      = flag.Int("volume", 100, "Playback volume (0-100)")
	showVersion = flag.Bool("version", false, "Print version and exit")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Printf("%s pcmplay %s\n", version.Product, version.Version)
		return
	}

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: pcmplay [-volume n] file")
		os.Exit(2)
	}
	path := flag.Arg(0)

	buf, err := load(path)
	if err != nil {
		log.Fatalf("decode failed: %v", err)
	}
	log.Printf("Decoded %s: %d samples, %s", path, buf.SampleCount(), buf.AudioFormat())

	if err := play(buf, *volume); err != nil {
		log.Fatalf("playback failed: %v", err)
	}
}

// load decodes the file to interleaved 16-bit samples, falling back through
// 32-bit for sources whose decoder only offers wider output (e.g. FLAC).
func load(path string) (*audio.Buffer[int16], error) {
	buf, err := pcmread.Load[int16](path, audio.Packed)
	if err == nil {
		return buf, nil
	}

	buf32, err32 := pcmread.Load[int32](path, audio.Packed)
	if err32 != nil {
		return nil, err
	}

	out := audio.NewBuffer[int16](buf32.Channels(), buf32.SampleCount(), audio.Packed, buf32.SampleRate())
	out.SetSampleCount(buf32.SampleCount())
	dst := out.Data()
	for i, s := range buf32.Data() {
		dst[i] = int16(s >> 16)
	}
	return out, nil
}

func play(buf *audio.Buffer[int16], volume int) error {
	if volume < 0 {
		volume = 0
	}
	if volume > 100 {
		volume = 100
	}
	mult := float64(volume) / 100.0

	samples := buf.Data()
	pcm := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(pcm[i*2:], uint16(int16(float64(s)*mult)))
	}

	op := &oto.NewContextOptions{
		SampleRate:   buf.SampleRate(),
		ChannelCount: buf.Channels(),
		Format:       oto.FormatSignedInt16LE,
	}
	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return fmt.Errorf("failed to create oto context: %w", err)
	}
	<-ready

	player := ctx.NewPlayer(bytes.NewReader(pcm))
	player.Play()
	for player.IsPlaying() {
		time.Sleep(50 * time.Millisecond)
	}
	return player.Close()
}
