// ABOUTME: Entry point for the pcminfo inspection tool
// ABOUTME: Opens audio files and reports their negotiated decode parameters
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/Resonate-Protocol/pcmread-go/internal/version"
	"github.com/Resonate-Protocol/pcmread-go/pkg/audio"
	"github.com/Resonate-Protocol/pcmread-go/pkg/codec"
	"github.com/Resonate-Protocol/pcmread-go/pkg/pcmread"
)

var (
	decode      = flag.Bool("decode", false, "Fully decode each file and report the exact sample count")
	showVersion = flag.Bool("version", false, "Print version and exit")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Printf("%s pcminfo %s\n", version.Product, version.Version)
		return
	}

	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: pcminfo [-decode] file...")
		os.Exit(2)
	}

	log.SetFlags(0)
	failed := false
	for _, path := range flag.Args() {
		if err := report(path, *decode); err != nil {
			log.Printf("%s: %v", path, err)
			failed = true
		}
	}
	if failed {
		os.Exit(1)
	}
}

func report(path string, decode bool) error {
	in, err := pcmread.Open(path, codec.PickFirst)
	if err != nil {
		return err
	}

	fmt.Printf("%s\n", path)
	fmt.Printf("  codec:    %s\n", in.Stream().Codec)
	fmt.Printf("  format:   %s\n", in.AudioFormat())
	if est := in.EstimatedSampleCount(); est > 0 {
		fmt.Printf("  estimate: %d samples (%s)\n", est,
			time.Duration(est)*time.Second/time.Duration(in.SampleRate()))
	} else {
		fmt.Printf("  estimate: unknown\n")
	}
	rate := in.SampleRate()
	in.Close()

	if !decode {
		return nil
	}

	// Decode through the same path callers use, to the source's native kind
	// where possible, else 16-bit.
	n, err := exactSampleCount(path)
	if err != nil {
		return err
	}
	fmt.Printf("  decoded:  %d samples (%s)\n", n,
		time.Duration(n)*time.Second/time.Duration(rate))
	return nil
}

func exactSampleCount(path string) (int, error) {
	if buf, err := pcmread.Load[int16](path, audio.Packed); err == nil {
		return buf.SampleCount(), nil
	}
	buf, err := pcmread.Load[int32](path, audio.Packed)
	if err != nil {
		return 0, err
	}
	return buf.SampleCount(), nil
}
