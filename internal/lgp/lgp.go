// Package lgp reads and rebuilds LGP archives such as field/flevel.lgp.
package lgp

import (
	"bytes"
	"sort"
	"strings"

	"github.com/MJE43/goldsaucer/internal/fault"
	"github.com/MJE43/goldsaucer/internal/schema"
)

const maxEntries = 65535

// Entry is one file stored in the archive.
type Entry struct {
	Name string
	Body []byte

	tocIndex int
	offset   uint32
	header   []byte
	original []byte
}

// Changed reports whether Body differs from what was parsed.
func (e *Entry) Changed() bool { return !bytes.Equal(e.Body, e.original) }

// Archive is a parsed LGP image. Everything before the first file record
// (creator, TOC, lookup and conflict tables) and after the last one (the
// terminator) is kept verbatim.
type Archive struct {
	Creator string
	Entries []*Entry

	raw    []byte
	prefix []byte
	tail   []byte
}

// Parse decodes an LGP image.
func Parse(data []byte) (*Archive, error) {
	hdr, toc, fh := schema.LGPHeader, schema.LGPTocEntry, schema.LGPFileHeader
	if len(data) < hdr.Size {
		return nil, fault.FormatAt("", 0, "file of %d bytes is too small for an LGP header", len(data))
	}

	count := int(hdr.Uint(data, "count"))
	if count == 0 || count > maxEntries {
		return nil, fault.FormatAt("", 12, "implausible file count %d", count)
	}
	tocEnd := hdr.Size + count*toc.Size
	if tocEnd > len(data) {
		return nil, fault.FormatAt("", int64(hdr.Size), "TOC of %d entries extends past end of file", count)
	}

	a := &Archive{
		Creator: strings.Trim(string(hdr.Bytes(data, "creator")), "\x00"),
		raw:     append([]byte(nil), data...),
	}

	first, last := len(data), tocEnd
	for i := 0; i < count; i++ {
		rec := data[hdr.Size+i*toc.Size : hdr.Size+(i+1)*toc.Size]
		off := toc.Uint(rec, "offset")
		start := int(off)
		if start < tocEnd || start+fh.Size > len(data) {
			return nil, fault.FormatAt("", int64(hdr.Size+i*toc.Size), "entry %d offset 0x%X outside data area", i, off)
		}
		h := data[start : start+fh.Size]
		size := int(fh.Uint(h, "size"))
		end := start + fh.Size + size
		if end > len(data) || end < start {
			return nil, fault.FormatAt("", int64(start), "entry %d body of %d bytes extends past end of file", i, size)
		}

		body := data[start+fh.Size : end]
		a.Entries = append(a.Entries, &Entry{
			Name:     cString(toc.Bytes(rec, "name")),
			Body:     append([]byte(nil), body...),
			tocIndex: i,
			offset:   off,
			header:   append([]byte(nil), h...),
			original: append([]byte(nil), body...),
		})
		if start < first {
			first = start
		}
		if end > last {
			last = end
		}
	}

	a.prefix = append([]byte(nil), data[:first]...)
	a.tail = append([]byte(nil), data[last:]...)
	return a, nil
}

// Lookup returns the entry with the given name, ignoring case.
func (a *Archive) Lookup(name string) *Entry {
	for _, e := range a.Entries {
		if strings.EqualFold(e.Name, name) {
			return e
		}
	}
	return nil
}

// Bytes re-emits the archive. An unchanged archive is returned verbatim;
// otherwise file records are relaid in their original order and the TOC
// offsets patched.
func (a *Archive) Bytes() ([]byte, error) {
	dirty := false
	for _, e := range a.Entries {
		dirty = dirty || e.Changed()
	}
	if !dirty {
		return append([]byte(nil), a.raw...), nil
	}

	hdr, toc, fh := schema.LGPHeader, schema.LGPTocEntry, schema.LGPFileHeader

	ordered := make([]*Entry, len(a.Entries))
	copy(ordered, a.Entries)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].offset < ordered[j].offset })

	out := bytes.NewBuffer(append([]byte(nil), a.prefix...))
	moved := make(map[uint32]uint32, len(ordered))
	for _, e := range ordered {
		if _, seen := moved[e.offset]; seen {
			continue
		}
		moved[e.offset] = uint32(out.Len())

		h := append([]byte(nil), e.header...)
		fh.PutUint(h, "size", uint32(len(e.Body)))
		out.Write(h)
		out.Write(e.Body)
	}
	out.Write(a.tail)

	img := out.Bytes()
	for _, e := range a.Entries {
		rec := img[hdr.Size+e.tocIndex*toc.Size : hdr.Size+(e.tocIndex+1)*toc.Size]
		toc.PutUint(rec, "offset", moved[e.offset])
	}
	return img, nil
}

func cString(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b)
}
