// ABOUTME: Minimal Ogg page reader (RFC 3533 framing)
// ABOUTME: Parses page headers and lacing so packets can be reassembled
package oggopus

import (
	"encoding/binary"
	"fmt"
	"io"
)

const (
	flagContinuation = 0x01
	flagBOS          = 0x02
	flagEOS          = 0x04
)

// page is one raw Ogg page: header fields plus the undivided payload and
// its lacing table. Packet reassembly happens in the container, because
// packets may span pages.
type page struct {
	flags   byte
	granule int64
	serial  uint32
	seq     uint32
	laces   []int
	payload []byte
}

func (p *page) bos() bool { return p.flags&flagBOS != 0 }
func (p *page) eos() bool { return p.flags&flagEOS != 0 }
func (p *page) continued() bool { return p.flags&flagContinuation != 0 }

// readPage reads the next page from r. It returns io.EOF cleanly at end of
// stream and an error for malformed framing. The page CRC is not verified.
func readPage(r io.Reader) (*page, error) {
	var hdr [27]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		if err == io.ErrUnexpectedEOF {
			return nil, fmt.Errorf("ogg: truncated page header")
		}
		return nil, err
	}
	if string(hdr[0:4]) != "OggS" {
		return nil, fmt.Errorf("ogg: bad capture pattern %q", hdr[0:4])
	}
	if hdr[4] != 0 {
		return nil, fmt.Errorf("ogg: unsupported stream structure version %d", hdr[4])
	}

	p := &page{
		flags:   hdr[5],
		granule: int64(binary.LittleEndian.Uint64(hdr[6:14])),
		serial:  binary.LittleEndian.Uint32(hdr[14:18]),
		seq:     binary.LittleEndian.Uint32(hdr[18:22]),
	}

	nsegs := int(hdr[26])
	table := make([]byte, nsegs)
	if _, err := io.ReadFull(r, table); err != nil {
		return nil, fmt.Errorf("ogg: truncated segment table: %w", err)
	}

	total := 0
	p.laces = make([]int, nsegs)
	for i, l := range table {
		p.laces[i] = int(l)
		total += int(l)
	}

	p.payload = make([]byte, total)
	if _, err := io.ReadFull(r, p.payload); err != nil {
		return nil, fmt.Errorf("ogg: truncated page payload: %w", err)
	}
	return p, nil
}
