package field

import (
	"encoding/binary"
)

const (
	opMESSAGE = 0x40

	// messageReach bounds how far a MESSAGE may sit from the grant it
	// announces.
	messageReach = 0xC0

	textEnd = 0xFF
)

// textTable locates the dialog strings of the script section. It returns
// the table base and the absolute start of every string.
func (f *File) textTable() (int, []int, bool) {
	buf := f.Data
	sec := int(binary.LittleEndian.Uint32(buf[6:])) + 4
	secEnd := int(binary.LittleEndian.Uint32(buf[10:]))
	rel := int(binary.LittleEndian.Uint16(buf[sec+4:]))
	base := sec + rel
	if rel == 0 || base+4 > secEnd {
		return 0, nil, false
	}
	first := int(binary.LittleEndian.Uint16(buf[base+2:]))
	if first < 4 {
		return 0, nil, false
	}
	n := first/2 - 1
	if base+2+n*2 > secEnd {
		return 0, nil, false
	}
	starts := make([]int, n)
	for i := range starts {
		starts[i] = base + int(binary.LittleEndian.Uint16(buf[base+2+i*2:]))
	}
	return base, starts, true
}

// TextCount returns the number of dialog strings, zero when the field has
// no readable text table.
func (f *File) TextCount() int {
	_, starts, _ := f.textTable()
	return len(starts)
}

// MessageNear returns the text id shown by the MESSAGE opcode closest to
// the instruction at off. A following message wins a tie.
func (f *File) MessageNear(off int) (int, bool) {
	best, bestDist := -1, messageReach+1
	buf := f.Data
	for i := f.codeStart; i < f.codeEnd; {
		size := opcodeSize(buf, i, f.codeEnd)
		if buf[i] == opMESSAGE && size == int(opcodeLength[opMESSAGE]) {
			d := i - off
			if d < 0 {
				d = -d
			}
			if d < bestDist || (d == bestDist && i > off) {
				best, bestDist = int(buf[i+2]), d
			}
		}
		if i > off+messageReach {
			break
		}
		i += size
	}
	return best, best >= 0
}

// Text returns dialog id decoded to ASCII, without its terminator.
func (f *File) Text(id int) (string, bool) {
	start, end, ok := f.textSlot(id)
	if !ok {
		return "", false
	}
	out := make([]byte, 0, end-start)
	for _, b := range f.Data[start:end] {
		if b == textEnd {
			break
		}
		out = append(out, decodeChar(b))
	}
	return string(out), true
}

// SetText overwrites dialog id in place with the first variant that fits
// its slot, padding the rest with terminators. It reports whether a
// variant fit.
func (f *File) SetText(id int, variants ...string) bool {
	start, end, ok := f.textSlot(id)
	if !ok {
		return false
	}
	for _, v := range variants {
		enc := EncodeText(v)
		if len(enc)+1 > end-start {
			continue
		}
		n := copy(f.Data[start:], enc)
		for i := start + n; i < end; i++ {
			f.Data[i] = textEnd
		}
		return true
	}
	return false
}

// textSlot returns the writable span of dialog id: from its start up to and
// including its first terminator, never past the next string.
func (f *File) textSlot(id int) (int, int, bool) {
	_, starts, ok := f.textTable()
	if !ok || id < 0 || id >= len(starts) {
		return 0, 0, false
	}
	limit := int(binary.LittleEndian.Uint32(f.Data[10:]))
	if id+1 < len(starts) {
		limit = min(limit, starts[id+1])
	}
	start := starts[id]
	if start >= limit {
		return 0, 0, false
	}
	end := start
	for end < limit {
		end++
		if f.Data[end-1] == textEnd {
			break
		}
	}
	return start, end, true
}

// EncodeText converts ASCII to the field character set. Characters outside
// printable ASCII become '?'.
func EncodeText(s string) []byte {
	out := make([]byte, 0, len(s))
	for _, r := range s {
		c := byte('?')
		if r >= 0x20 && r <= 0x7E {
			c = byte(r)
		}
		out = append(out, c-0x20)
	}
	return out
}

func decodeChar(b byte) byte {
	if b <= 0x7E-0x20 {
		return b + 0x20
	}
	return '?'
}
