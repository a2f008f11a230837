package field

// opcodeLength holds the encoded length of every PC field opcode, including
// the opcode byte. 0x1C and 0x28 are variable length and special cased in
// opcodeSize.
var opcodeLength = [256]uint8{
	1, 3, 3, 3, 3, 3, 3, 2, 2, 15, 6, 6, 1, 1, 2, 2, // 00
	2, 3, 2, 3, 6, 7, 8, 9, 8, 9, 10, 3, 6, 1, 1, 1, // 10
	11, 2, 5, 3, 3, 9, 2, 2, 3, 1, 2, 2, 5, 7, 2, 10, // 20
	4, 4, 4, 2, 2, 4, 5, 8, 6, 6, 6, 4, 1, 1, 1, 1, // 30
	3, 5, 6, 2, 1, 5, 1, 5, 7, 4, 2, 2, 1, 5, 1, 5, // 40
	10, 6, 4, 2, 2, 3, 7, 7, 5, 5, 5, 7, 8, 10, 8, 1, // 50
	10, 2, 5, 6, 6, 1, 9, 1, 9, 2, 7, 9, 1, 4, 3, 6, // 60
	4, 2, 3, 4, 4, 8, 4, 5, 4, 5, 3, 3, 3, 3, 2, 3, // 70
	4, 5, 4, 4, 4, 4, 5, 4, 5, 4, 5, 4, 5, 4, 5, 4, // 80
	5, 4, 5, 4, 5, 3, 3, 3, 3, 3, 4, 5, 6, 7, 7, 11, // 90
	2, 2, 3, 3, 2, 11, 9, 9, 6, 6, 2, 4, 1, 6, 3, 3, // A0
	5, 5, 4, 3, 6, 6, 2, 4, 5, 4, 3, 5, 5, 4, 1, 2, // B0
	11, 8, 15, 12, 1, 3, 3, 2, 2, 2, 4, 3, 3, 3, 2, 2, // C0
	13, 2, 2, 16, 10, 10, 4, 4, 3, 1, 15, 2, 4, 1, 1, 11, // D0
	4, 4, 3, 3, 3, 5, 5, 5, 7, 10, 10, 5, 5, 8, 8, 11, // E0
	2, 5, 14, 2, 2, 2, 2, 4, 2, 1, 3, 2, 2, 8, 3, 1, // F0
}

// Opcodes that grant items, materia or flags.
const (
	opSTITM = 0x58
	opSMTRA = 0x5B
	opBITON = 0x82

	opUnused1C = 0x1C
	opKAWAI    = 0x28
)

// opcodeSize returns the length of the opcode at buf[i], never running past
// end and never returning zero for a non-empty range.
func opcodeSize(buf []byte, i, end int) int {
	if i >= end {
		return 0
	}

	op := buf[i]
	size := int(opcodeLength[op])

	switch op {
	case opUnused1C:
		if i+6 <= end {
			sub := int(buf[i+5])
			if sub > 128 {
				sub = 128
			}
			size += sub
		}
	case opKAWAI:
		if i+2 <= end && buf[i+1] > 0 {
			size = int(buf[i+1])
		}
	}

	if size <= 0 || i+size > end {
		return 1
	}
	return size
}
