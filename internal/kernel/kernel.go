// Package kernel reads and rebuilds KERNEL.BIN, a sequence of gzip
// sections each preceded by a six-byte header.
package kernel

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
	"slices"

	"github.com/MJE43/goldsaucer/internal/fault"
	"github.com/MJE43/goldsaucer/internal/schema"
)

// Section positions with a known record layout.
const (
	SectionInit        = 3
	SectionItems       = 4
	SectionWeapons     = 5
	SectionArmor       = 6
	SectionAccessories = 7
	SectionMateria     = 8

	MinSections = 9
)

// Section is one decompressed KERNEL.BIN section.
type Section struct {
	Index    int
	FileType uint16
	Data     []byte

	packed   []byte
	original []byte
}

// Changed reports whether Data differs from what was parsed.
func (s *Section) Changed() bool {
	return !bytes.Equal(s.Data, s.original)
}

// Archive is a parsed KERNEL.BIN.
type Archive struct {
	Sections []*Section
	Trailer  []byte
}

// Parse decodes a KERNEL.BIN image. Errors are FormatErrors without a path;
// callers attach it with fault.WithPath.
func Parse(data []byte) (*Archive, error) {
	hdr := schema.KernelSection
	a := &Archive{}

	pos := 0
	for pos+hdr.Size <= len(data) {
		h := data[pos : pos+hdr.Size]
		cmpSize := int(hdr.Uint(h, "compressed_size"))
		if cmpSize == 0 {
			break
		}
		rawSize := int(hdr.Uint(h, "raw_size"))
		fileType := uint16(hdr.Uint(h, "file_type"))

		start := pos + hdr.Size
		end := start + cmpSize
		if end > len(data) {
			return nil, fault.FormatAt("", int64(pos), "section %d declares %d compressed bytes, %d remain",
				len(a.Sections), cmpSize, len(data)-start)
		}

		packed := data[start:end]
		raw, err := Gunzip(packed)
		if err != nil {
			return nil, fault.FormatAt("", int64(start), "section %d: %v", len(a.Sections), err)
		}
		if len(raw) != rawSize {
			return nil, fault.FormatAt("", int64(pos), "section %d inflates to %d bytes, header says %d",
				len(a.Sections), len(raw), rawSize)
		}

		a.Sections = append(a.Sections, &Section{
			Index:    len(a.Sections),
			FileType: fileType,
			Data:     raw,
			packed:   append([]byte(nil), packed...),
			original: append([]byte(nil), raw...),
		})
		pos = end
	}
	rest := data[pos:]
	if len(rest) < hdr.Size && slices.ContainsFunc(rest, func(b byte) bool { return b != 0 }) {
		return nil, fault.FormatAt("", int64(pos), "truncated section header: %d of %d bytes", len(rest), hdr.Size)
	}
	a.Trailer = append([]byte(nil), rest...)

	if len(a.Sections) < MinSections {
		return nil, fault.FormatAt("", 0, "found %d sections, need at least %d", len(a.Sections), MinSections)
	}
	return a, nil
}

// Section returns section i or nil.
func (a *Archive) Section(i int) *Section {
	if i < 0 || i >= len(a.Sections) {
		return nil
	}
	return a.Sections[i]
}

// Bytes re-emits the archive. Unchanged sections reuse their original
// compressed bytes so a pristine archive round-trips exactly.
func (a *Archive) Bytes() ([]byte, error) {
	hdr := schema.KernelSection
	var out bytes.Buffer

	for _, s := range a.Sections {
		packed := s.packed
		if s.Changed() {
			var err error
			packed, err = Gzip(s.Data)
			if err != nil {
				return nil, fmt.Errorf("section %d: %w", s.Index, err)
			}
		}
		if len(packed) > 0xFFFF || len(s.Data) > 0xFFFF {
			return nil, fmt.Errorf("section %d exceeds 65535 bytes (%d packed, %d raw)", s.Index, len(packed), len(s.Data))
		}

		h := make([]byte, hdr.Size)
		hdr.PutUint(h, "compressed_size", uint32(len(packed)))
		hdr.PutUint(h, "raw_size", uint32(len(s.Data)))
		hdr.PutUint(h, "file_type", uint32(s.FileType))
		out.Write(h)
		out.Write(packed)
	}
	out.Write(a.Trailer)
	return out.Bytes(), nil
}

// Gzip compresses data with a zero modification time so output depends only
// on the input bytes.
func Gzip(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw, err := gzip.NewWriterLevel(&buf, gzip.BestCompression)
	if err != nil {
		return nil, err
	}
	if _, err := zw.Write(data); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Gunzip inflates the first gzip member in data and ignores anything after
// it, such as block padding.
func Gunzip(data []byte) ([]byte, error) {
	zr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	zr.Multistream(false)
	defer zr.Close()
	return io.ReadAll(zr)
}
