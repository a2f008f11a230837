// Package field decodes FF7 PC field files far enough to find and patch the
// script opcodes that grant items, materia and key-item flags.
package field

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/MJE43/goldsaucer/internal/fault"
	"github.com/MJE43/goldsaucer/internal/lzs"
	"github.com/MJE43/goldsaucer/internal/schema"
)

const (
	sectionCount = 9
	headerSize   = 6 + sectionCount*4

	scriptHeaderSize  = 0x20
	entityNameSize    = 8
	akaoOffsetSize    = 4
	scriptsPerEntity  = 32
	scriptPointerSize = 2
	maxItemQuantity   = 99
	maxFieldMateriaID = 0x5B
	keyItemBanks      = 0x10
)

// debugFields are developer test maps whose pickups are never reachable.
var debugFields = map[string]bool{
	"blackbg1": true, "blackbg2": true, "blackbg3": true,
	"blackbg4": true, "blackbg5": true, "blackbg6": true,
	"tin_1": true,
}

// IsDebug reports whether name is a developer test map.
func IsDebug(name string) bool { return debugFields[strings.ToLower(name)] }

// File is a decompressed field file.
type File struct {
	Name string
	Data []byte

	codeStart int
	codeEnd   int
}

// Decode inflates a field body (u32 length + LZS payload) and locates the
// script code region.
func Decode(name string, body []byte) (*File, error) {
	data, err := lzs.DecodeFramed(body)
	if err != nil {
		return nil, fault.Formatf("", "field %s: %v", name, err)
	}
	start, end, err := codeRange(data)
	if err != nil {
		return nil, fault.Formatf("", "field %s: %v", name, err)
	}
	return &File{Name: name, Data: data, codeStart: start, codeEnd: end}, nil
}

// Encode compresses the field back into a framed LZS body.
func (f *File) Encode() []byte { return lzs.EncodeFramed(f.Data) }

// CodeRange returns the [start, end) span of script bytecode.
func (f *File) CodeRange() (int, int) { return f.codeStart, f.codeEnd }

// codeRange reads the section table and the script section header. Section
// 0 is stored as [u32 size][header][entity names][akao offsets][entry
// table][code][strings].
func codeRange(data []byte) (int, int, error) {
	if len(data) < headerSize {
		return 0, 0, fmt.Errorf("%d bytes is too short for a field header", len(data))
	}
	if n := binary.LittleEndian.Uint32(data[2:]); n != sectionCount {
		return 0, 0, fmt.Errorf("section count %d, want %d", n, sectionCount)
	}

	s0 := int(binary.LittleEndian.Uint32(data[6:]))
	s1 := int(binary.LittleEndian.Uint32(data[10:]))
	sec := s0 + 4
	if sec+scriptHeaderSize > len(data) || s1 <= sec || s1 > len(data) {
		return 0, 0, fmt.Errorf("script section [0x%X,0x%X) out of bounds", s0, s1)
	}

	entities := int(data[sec+2])
	textOffset := int(binary.LittleEndian.Uint16(data[sec+4:]))
	akao := int(binary.LittleEndian.Uint16(data[sec+6:]))

	start := sec + scriptHeaderSize +
		entities*entityNameSize +
		akao*akaoOffsetSize +
		entities*scriptsPerEntity*scriptPointerSize
	end := sec + textOffset
	if textOffset == 0 || end > s1 {
		end = s1
	}
	if start > end {
		return 0, 0, fmt.Errorf("script code start 0x%X beyond end 0x%X", start, end)
	}
	return start, end, nil
}

// GrantKind classifies a recognized opcode.
type GrantKind uint8

const (
	GrantItem GrantKind = iota + 1
	GrantMateria
	GrantFlag
)

// Grant is one STITM, SMTRA or BITON instruction with constant operands.
type Grant struct {
	Kind   GrantKind
	Offset int

	Item     uint16
	Quantity uint8

	Materia uint8
	AP      [3]byte

	Address uint8
	Bit     uint8
}

// Grants walks the script code and returns every recognized grant in
// order of appearance.
func (f *File) Grants() []Grant {
	var out []Grant
	buf := f.Data
	for i := f.codeStart; i < f.codeEnd; {
		size := opcodeSize(buf, i, f.codeEnd)
		switch buf[i] {
		case opSTITM:
			if size == schema.StitmOp.Size {
				op := buf[i : i+size]
				qty := uint8(schema.StitmOp.Uint(op, schema.OpQty))
				if schema.StitmOp.Uint(op, schema.OpBanks) == 0 && qty >= 1 && qty <= maxItemQuantity {
					out = append(out, Grant{
						Kind:     GrantItem,
						Offset:   i,
						Item:     uint16(schema.StitmOp.Uint(op, schema.OpItem)),
						Quantity: qty,
					})
				}
			}
		case opSMTRA:
			if size == schema.SmtraOp.Size {
				op := buf[i : i+size]
				id := uint8(schema.SmtraOp.Uint(op, schema.OpID))
				if schema.SmtraOp.Uint(op, schema.OpBanks) == 0 &&
					schema.SmtraOp.Uint(op, schema.OpBanks2) == 0 && id < maxFieldMateriaID {
					g := Grant{Kind: GrantMateria, Offset: i, Materia: id}
					copy(g.AP[:], schema.SmtraOp.Bytes(op, schema.OpAP))
					out = append(out, g)
				}
			}
		case opBITON:
			if size == schema.BitonOp.Size {
				op := buf[i : i+size]
				if schema.BitonOp.Uint(op, schema.OpBanks) == keyItemBanks {
					out = append(out, Grant{
						Kind:    GrantFlag,
						Offset:  i,
						Address: uint8(schema.BitonOp.Uint(op, schema.OpAddr)),
						Bit:     uint8(schema.BitonOp.Uint(op, schema.OpBit)),
					})
				}
			}
		}
		i += size
	}
	return out
}

// SetItem rewrites the item operand of the STITM at off.
func (f *File) SetItem(off int, item uint16) error {
	op, err := f.op(off, opSTITM, schema.StitmOp)
	if err != nil {
		return err
	}
	schema.StitmOp.PutUint(op, schema.OpItem, uint32(item))
	return nil
}

// SetMateria rewrites the materia operand of the SMTRA at off.
func (f *File) SetMateria(off int, id uint8) error {
	op, err := f.op(off, opSMTRA, schema.SmtraOp)
	if err != nil {
		return err
	}
	schema.SmtraOp.PutUint(op, schema.OpID, uint32(id))
	return nil
}

// SetFlag rewrites the address and bit of the BITON at off.
func (f *File) SetFlag(off int, addr, bit uint8) error {
	op, err := f.op(off, opBITON, schema.BitonOp)
	if err != nil {
		return err
	}
	schema.BitonOp.PutUint(op, schema.OpAddr, uint32(addr))
	schema.BitonOp.PutUint(op, schema.OpBit, uint32(bit))
	return nil
}

func (f *File) op(off int, code byte, l *schema.Layout) ([]byte, error) {
	if off < f.codeStart || off+l.Size > f.codeEnd || f.Data[off] != code {
		return nil, fmt.Errorf("field %s: no %s at 0x%X", f.Name, l.Name, off)
	}
	return f.Data[off : off+l.Size], nil
}
