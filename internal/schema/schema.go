// Package schema describes fixed-offset binary records once so that the
// extractor and the patch compiler read and write through the same layout.
package schema

import (
	"encoding/binary"
	"fmt"
	"sort"

	"github.com/MJE43/goldsaucer/internal/fault"
)

// Kind is the semantic type of a field.
type Kind uint8

const (
	U8 Kind = iota + 1
	U16
	U32
	Bytes
)

func (k Kind) String() string {
	switch k {
	case U8:
		return "u8"
	case U16:
		return "u16"
	case U32:
		return "u32"
	case Bytes:
		return "bytes"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Field is one named region of a record. All integers are little endian.
type Field struct {
	Name   string
	Offset int
	Size   int
	Kind   Kind
}

// End returns the offset one past the last byte of the field.
func (f Field) End() int { return f.Offset + f.Size }

// Layout is an ordered set of fields inside a fixed-size record.
type Layout struct {
	Name   string
	Size   int
	Fields []Field
	index  map[string]int
}

// NewLayout builds a layout and panics if it is malformed. Layouts are
// package-level declarations, so a bad one is a programming error.
func NewLayout(name string, size int, fields ...Field) *Layout {
	l := &Layout{Name: name, Size: size, Fields: fields, index: make(map[string]int, len(fields))}
	for i, f := range fields {
		l.index[f.Name] = i
	}
	if err := l.Validate(); err != nil {
		panic(err)
	}
	return l
}

// Validate checks that every field fits in the record, has a size matching
// its kind and does not overlap another field.
func (l *Layout) Validate() error {
	if l.Size <= 0 {
		return fmt.Errorf("layout %s: size must be positive", l.Name)
	}
	if len(l.index) != len(l.Fields) {
		return fmt.Errorf("layout %s: duplicate field name", l.Name)
	}

	sorted := make([]Field, len(l.Fields))
	copy(sorted, l.Fields)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Offset < sorted[j].Offset })

	prevEnd := 0
	for _, f := range sorted {
		if f.Offset < 0 || f.Size <= 0 || f.End() > l.Size {
			return fmt.Errorf("layout %s: field %s [%d,%d) outside record of %d bytes",
				l.Name, f.Name, f.Offset, f.End(), l.Size)
		}
		want := map[Kind]int{U8: 1, U16: 2, U32: 4}[f.Kind]
		if f.Kind != Bytes && f.Size != want {
			return fmt.Errorf("layout %s: field %s is %s but %d bytes", l.Name, f.Name, f.Kind, f.Size)
		}
		if f.Offset < prevEnd {
			return fmt.Errorf("layout %s: field %s overlaps previous field", l.Name, f.Name)
		}
		prevEnd = f.End()
	}
	return nil
}

// Field returns the named field. Unknown names panic.
func (l *Layout) Field(name string) Field {
	i, ok := l.index[name]
	if !ok {
		panic(fmt.Sprintf("layout %s: unknown field %q", l.Name, name))
	}
	return l.Fields[i]
}

// Has reports whether the layout declares the named field.
func (l *Layout) Has(name string) bool {
	_, ok := l.index[name]
	return ok
}

// Uint reads an integer field.
func (l *Layout) Uint(rec []byte, name string) uint32 {
	f := l.Field(name)
	b := rec[f.Offset:f.End()]
	switch f.Kind {
	case U8:
		return uint32(b[0])
	case U16:
		return uint32(binary.LittleEndian.Uint16(b))
	case U32:
		return binary.LittleEndian.Uint32(b)
	default:
		panic(fmt.Sprintf("layout %s: field %s is not an integer", l.Name, name))
	}
}

// PutUint writes an integer field, truncating v to the field width.
func (l *Layout) PutUint(rec []byte, name string, v uint32) {
	f := l.Field(name)
	b := rec[f.Offset:f.End()]
	switch f.Kind {
	case U8:
		b[0] = byte(v)
	case U16:
		binary.LittleEndian.PutUint16(b, uint16(v))
	case U32:
		binary.LittleEndian.PutUint32(b, v)
	default:
		panic(fmt.Sprintf("layout %s: field %s is not an integer", l.Name, name))
	}
}

// Bytes returns a copy of a field's raw bytes.
func (l *Layout) Bytes(rec []byte, name string) []byte {
	f := l.Field(name)
	out := make([]byte, f.Size)
	copy(out, rec[f.Offset:f.End()])
	return out
}

// PutBytes overwrites a field with b. len(b) must equal the field size.
func (l *Layout) PutBytes(rec []byte, name string, b []byte) {
	f := l.Field(name)
	if len(b) != f.Size {
		panic(fmt.Sprintf("layout %s: field %s wants %d bytes, got %d", l.Name, name, f.Size, len(b)))
	}
	copy(rec[f.Offset:f.End()], b)
}

// Split cuts a table of back-to-back records into count record slices. The
// slices alias data.
func (l *Layout) Split(data []byte, count int) ([][]byte, error) {
	need := l.Size * count
	if len(data) < need {
		return nil, fault.FormatAt("", int64(len(data)), "%s table truncated: %d records need %d bytes, have %d",
			l.Name, count, need, len(data))
	}
	out := make([][]byte, count)
	for i := range out {
		out[i] = data[i*l.Size : (i+1)*l.Size]
	}
	return out, nil
}

// SplitAll cuts data into as many whole records as it holds and fails if a
// trailing partial record remains.
func (l *Layout) SplitAll(data []byte) ([][]byte, error) {
	if len(data)%l.Size != 0 {
		return nil, fault.FormatAt("", int64(len(data)), "%s table length %d is not a multiple of %d",
			l.Name, len(data), l.Size)
	}
	return l.Split(data, len(data)/l.Size)
}

// Diff lists the fields whose bytes differ between two records.
func (l *Layout) Diff(a, b []byte) []string {
	var out []string
	for _, f := range l.Fields {
		for i := f.Offset; i < f.End(); i++ {
			if a[i] != b[i] {
				out = append(out, f.Name)
				break
			}
		}
	}
	return out
}
