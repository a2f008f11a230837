package shops

import (
	"bufio"
	"bytes"
	"debug/pe"
	"encoding/hex"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/MJE43/goldsaucer/internal/fault"
	"github.com/MJE43/goldsaucer/internal/schema"
)

// defaultImageBase is the loader default used when the image carries no
// optional header.
const defaultImageBase = 0x400000

type peSection struct {
	name   string
	va     uint32
	vsize  uint32
	offset uint32
	size   uint32
}

// Image maps file offsets of a PE executable to virtual addresses.
type Image struct {
	Base     uint32
	sections []peSection
}

// OpenImage reads the section table of exe.
func OpenImage(exe []byte) (*Image, error) {
	f, err := pe.NewFile(bytes.NewReader(exe))
	if err != nil {
		return nil, fault.Formatf("", "executable: %v", err)
	}
	defer f.Close()

	img := &Image{Base: defaultImageBase}
	switch oh := f.OptionalHeader.(type) {
	case *pe.OptionalHeader32:
		img.Base = oh.ImageBase
	case *pe.OptionalHeader64:
		img.Base = uint32(oh.ImageBase)
	}
	for _, s := range f.Sections {
		vsize := s.VirtualSize
		if vsize == 0 {
			vsize = s.Size
		}
		img.sections = append(img.sections, peSection{
			name: s.Name, va: s.VirtualAddress, vsize: vsize, offset: s.Offset, size: s.Size,
		})
	}
	if len(img.sections) == 0 {
		return nil, fault.Formatf("", "executable has no sections")
	}
	return img, nil
}

// VA returns the virtual address of file offset off.
func (m *Image) VA(off int) (uint32, error) {
	for _, s := range m.sections {
		if off >= int(s.offset) && off < int(s.offset+s.size) {
			return m.Base + s.va + uint32(off) - s.offset, nil
		}
	}
	return 0, fault.FormatAt("", int64(off), "offset is not inside any section")
}

// Offset returns the file offset of virtual address va.
func (m *Image) Offset(va uint32) (int, error) {
	for _, s := range m.sections {
		start := m.Base + s.va
		if va >= start && va < start+s.vsize && va-start < s.size {
			return int(s.offset + va - start), nil
		}
	}
	return 0, fault.Formatf("", "address %08X is not backed by file data", va)
}

// Patch writes Data at virtual address Addr.
type Patch struct {
	Addr uint32
	Data []byte
}

// Patches returns one patch per shop record whose bytes changed.
func (t *Table) Patches(img *Image) ([]Patch, error) {
	enc := t.Encode()
	recordSize := schema.Shop.Size
	var out []Patch
	for i := 0; i < len(t.Shops); i++ {
		lo, hi := i*recordSize, (i+1)*recordSize
		if bytes.Equal(enc[lo:hi], t.raw[lo:hi]) {
			continue
		}
		va, err := img.VA(t.Offset + lo)
		if err != nil {
			return nil, err
		}
		out = append(out, Patch{Addr: va, Data: append([]byte(nil), enc[lo:hi]...)})
	}
	return out, nil
}

// Outside returns the patches that do not lie entirely within the shop
// records, keeping their order.
func (t *Table) Outside(img *Image, patches []Patch) []Patch {
	lo, hi := t.Offset, t.Offset+len(t.Shops)*schema.Shop.Size
	var out []Patch
	for _, p := range patches {
		off, err := img.Offset(p.Addr)
		if err == nil && off >= lo && off+len(p.Data) <= hi {
			continue
		}
		out = append(out, p)
	}
	return out
}

// WriteHext writes patches in hext form. Each comment becomes a "#" line.
func WriteHext(w io.Writer, comments []string, patches []Patch) error {
	bw := bufio.NewWriter(w)
	for _, c := range comments {
		fmt.Fprintf(bw, "# %s\n", c)
	}
	for _, p := range patches {
		parts := make([]string, len(p.Data))
		for i, b := range p.Data {
			parts[i] = fmt.Sprintf("%02X", b)
		}
		fmt.Fprintf(bw, "%08X = %s\n", p.Addr, strings.Join(parts, " "))
	}
	return bw.Flush()
}

// ParseHext reads patches written by WriteHext. Blank lines and "#" comments
// are skipped.
func ParseHext(r io.Reader) ([]Patch, error) {
	var out []Patch
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1<<20)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		addr, data, ok := strings.Cut(text, "=")
		if !ok {
			return nil, fault.Formatf("", "hext line %d: missing '='", line)
		}
		addr = strings.TrimPrefix(strings.TrimSpace(addr), "0x")
		va, err := strconv.ParseUint(addr, 16, 32)
		if err != nil {
			return nil, fault.Formatf("", "hext line %d: bad address %q", line, addr)
		}
		raw, err := hex.DecodeString(strings.Join(strings.Fields(data), ""))
		if err != nil || len(raw) == 0 {
			return nil, fault.Formatf("", "hext line %d: bad byte list", line)
		}
		out = append(out, Patch{Addr: uint32(va), Data: raw})
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Apply writes patches into exe in place.
func Apply(exe []byte, img *Image, patches []Patch) error {
	for _, p := range patches {
		off, err := img.Offset(p.Addr)
		if err != nil {
			return err
		}
		if off+len(p.Data) > len(exe) {
			return fault.FormatAt("", int64(off), "patch of %d bytes runs past the end of the executable", len(p.Data))
		}
		copy(exe[off:], p.Data)
	}
	return nil
}
