// Package fixture builds small synthetic game files in every format the
// randomizer reads. Tests use it instead of shipping copyrighted data.
package fixture

import (
	"bytes"
	"encoding/binary"

	"github.com/MJE43/goldsaucer/internal/kernel"
	"github.com/MJE43/goldsaucer/internal/lzs"
	"github.com/MJE43/goldsaucer/internal/schema"
)

// Ret is the RET opcode.
func Ret() []byte { return []byte{0x00} }

// Op assembles an arbitrary opcode.
func Op(code byte, args ...byte) []byte { return append([]byte{code}, args...) }

// Stitm assembles a STITM granting qty of item.
func Stitm(item uint16, qty uint8) []byte {
	op := make([]byte, schema.StitmOp.Size)
	schema.StitmOp.PutUint(op, schema.OpCode, 0x58)
	schema.StitmOp.PutUint(op, schema.OpItem, uint32(item))
	schema.StitmOp.PutUint(op, schema.OpQty, uint32(qty))
	return op
}

// Smtra assembles an SMTRA granting materia id with ap.
func Smtra(id uint8, ap uint32) []byte {
	op := make([]byte, schema.SmtraOp.Size)
	schema.SmtraOp.PutUint(op, schema.OpCode, 0x5B)
	schema.SmtraOp.PutUint(op, schema.OpID, uint32(id))
	schema.SmtraOp.PutBytes(op, schema.OpAP, []byte{byte(ap), byte(ap >> 8), byte(ap >> 16)})
	return op
}

// Biton assembles a BITON on bank 1, the key-item bank.
func Biton(addr, bit uint8) []byte {
	op := make([]byte, schema.BitonOp.Size)
	schema.BitonOp.PutUint(op, schema.OpCode, 0x82)
	schema.BitonOp.PutUint(op, schema.OpBanks, 0x10)
	schema.BitonOp.PutUint(op, schema.OpAddr, uint32(addr))
	schema.BitonOp.PutUint(op, schema.OpBit, uint32(bit))
	return op
}

// Message assembles a MESSAGE showing text id in window.
func Message(window, id uint8) []byte { return Op(0x40, window, id) }

// Script concatenates opcodes.
func Script(ops ...[]byte) []byte { return bytes.Join(ops, nil) }

// FieldData lays out a decompressed field file with one entity whose
// script code is code, followed by a dialog table holding texts. The eight
// non-script sections are empty.
func FieldData(name string, code []byte, texts ...string) []byte {
	const (
		entities = 1
		header   = 0x20
		prefix   = header + entities*8 + entities*64
	)

	var sec bytes.Buffer
	h := make([]byte, header)
	binary.LittleEndian.PutUint16(h[0:], 0x0502)
	h[2] = entities
	binary.LittleEndian.PutUint16(h[4:], uint16(prefix+len(code)))
	binary.LittleEndian.PutUint16(h[8:], 512)
	copy(h[0x10:], "GOLDSAUC")
	copy(h[0x18:], name)
	sec.Write(h)

	ent := make([]byte, 8)
	copy(ent, "entity0")
	sec.Write(ent)
	sec.Write(make([]byte, entities*64))
	sec.Write(code)
	sec.Write(textTable(texts))

	var out bytes.Buffer
	out.Write([]byte{0, 0})
	binary.Write(&out, binary.LittleEndian, uint32(9))
	pos := uint32(2 + 4 + 9*4)
	positions := make([]uint32, 9)
	positions[0] = pos
	pos += 4 + uint32(sec.Len())
	for i := 1; i < 9; i++ {
		positions[i] = pos
		pos += 4
	}
	binary.Write(&out, binary.LittleEndian, positions)
	binary.Write(&out, binary.LittleEndian, uint32(sec.Len()))
	out.Write(sec.Bytes())
	for i := 1; i < 9; i++ {
		binary.Write(&out, binary.LittleEndian, uint32(0))
	}
	return out.Bytes()
}

// textTable encodes a dialog table: a count, one offset per string and
// the 0xFF-terminated strings. An empty table is the count alone.
func textTable(texts []string) []byte {
	if len(texts) == 0 {
		return []byte{0, 0}
	}
	var body bytes.Buffer
	offsets := make([]uint16, len(texts))
	for i, t := range texts {
		offsets[i] = uint16(2 + 2*len(texts) + body.Len())
		for _, r := range []byte(t) {
			body.WriteByte(r - 0x20)
		}
		body.WriteByte(0xFF)
	}
	var out bytes.Buffer
	binary.Write(&out, binary.LittleEndian, uint16(len(texts)))
	binary.Write(&out, binary.LittleEndian, offsets)
	out.Write(body.Bytes())
	return out.Bytes()
}

// FieldBody returns FieldData compressed and framed as stored in flevel.lgp.
func FieldBody(name string, code []byte, texts ...string) []byte {
	return LZSFrame(FieldData(name, code, texts...))
}

// LZSFrame compresses arbitrary data with the field framing.
func LZSFrame(data []byte) []byte { return lzs.EncodeFramed(data) }

// File is one LGP archive member.
type File struct {
	Name string
	Body []byte
}

// LGP builds an archive. Records are stored in the given order.
func LGP(files []File) []byte {
	hdr, toc, fh := schema.LGPHeader, schema.LGPTocEntry, schema.LGPFileHeader

	lookup := make([]byte, 3602)
	terminator := []byte("FINAL FANTASY7")

	out := make([]byte, hdr.Size+len(files)*toc.Size)
	hdr.PutBytes(out, "creator", []byte("\x00\x00SQUARESOFT"))
	hdr.PutUint(out, "count", uint32(len(files)))
	out = append(out, lookup...)

	for i, f := range files {
		rec := out[hdr.Size+i*toc.Size : hdr.Size+(i+1)*toc.Size]
		name := make([]byte, 20)
		copy(name, f.Name)
		toc.PutBytes(rec, "name", name)
		toc.PutUint(rec, "offset", uint32(len(out)))
		toc.PutUint(rec, "check", 14)

		h := make([]byte, fh.Size)
		fh.PutBytes(h, "name", name)
		fh.PutUint(h, "size", uint32(len(f.Body)))
		out = append(out, h...)
		out = append(out, f.Body...)
	}
	return append(out, terminator...)
}

// Kernel builds a KERNEL.BIN from raw sections, tagging each with its index
// as file type.
func Kernel(sections [][]byte) []byte {
	hdr := schema.KernelSection
	var out bytes.Buffer
	for i, raw := range sections {
		packed, err := kernel.Gzip(raw)
		if err != nil {
			panic(err)
		}
		h := make([]byte, hdr.Size)
		hdr.PutUint(h, "compressed_size", uint32(len(packed)))
		hdr.PutUint(h, "raw_size", uint32(len(raw)))
		hdr.PutUint(h, "file_type", uint32(i))
		out.Write(h)
		out.Write(packed)
	}
	out.Write([]byte{0, 0})
	return out.Bytes()
}

// SceneBin packs raw scenes into 8 KiB blocks, perBlock scenes per block.
func SceneBin(scenes [][]byte, perBlock int) []byte {
	const blockSize = 0x2000
	var out []byte
	for start := 0; start < len(scenes); start += perBlock {
		block := bytes.Repeat([]byte{0xFF}, blockSize)
		pos := 16 * 4
		for i := 0; i < perBlock && start+i < len(scenes); i++ {
			packed, err := kernel.Gzip(scenes[start+i])
			if err != nil {
				panic(err)
			}
			for len(packed)%4 != 0 {
				packed = append(packed, 0xFF)
			}
			if pos+len(packed) > blockSize {
				panic("fixture: scene block overflow")
			}
			binary.LittleEndian.PutUint32(block[i*4:], uint32(pos/4))
			copy(block[pos:], packed)
			pos += len(packed)
		}
		out = append(out, block...)
	}
	return out
}

// Exe wraps data in a minimal PE image with a single section at RVA 0x1000
// and no optional header, so the image base is the loader default.
func Exe(data []byte) (img []byte, dataOffset int) {
	const (
		peOffset  = 0x40
		rawOffset = 0x200
	)
	img = make([]byte, rawOffset, rawOffset+len(data))
	copy(img, "MZ")
	binary.LittleEndian.PutUint32(img[0x3C:], peOffset)
	copy(img[peOffset:], "PE\x00\x00")

	coff := img[peOffset+4:]
	binary.LittleEndian.PutUint16(coff[0:], 0x14C)
	binary.LittleEndian.PutUint16(coff[2:], 1)
	binary.LittleEndian.PutUint16(coff[16:], 0)
	binary.LittleEndian.PutUint16(coff[18:], 0x0102)

	sh := coff[20:]
	copy(sh[0:8], ".data")
	binary.LittleEndian.PutUint32(sh[8:], uint32(len(data)))
	binary.LittleEndian.PutUint32(sh[12:], 0x1000)
	binary.LittleEndian.PutUint32(sh[16:], uint32(len(data)))
	binary.LittleEndian.PutUint32(sh[20:], rawOffset)
	binary.LittleEndian.PutUint32(sh[36:], 0xC0000040)

	return append(img, data...), rawOffset
}
