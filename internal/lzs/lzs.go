// Package lzs implements the LZSS variant used by FF7 field files: a 4 KiB
// ring buffer whose write cursor starts at 0xFEE, one flag byte per eight
// tokens (LSB first, 1 = literal) and two-byte back references holding a
// 12-bit ring offset and a 4-bit length minus three.
package lzs

import (
	"encoding/binary"
	"errors"
	"fmt"
)

const (
	ringSize   = 4096
	ringStart  = 4078
	minMatch   = 3
	maxMatch   = 18
	maxChain   = 256
	maxHistory = ringSize - maxMatch
)

// ErrTruncated is returned when a back reference is cut off by the end of
// the stream.
var ErrTruncated = errors.New("lzs: truncated back reference")

// Decompress decodes a headerless LZS payload.
func Decompress(data []byte) ([]byte, error) {
	var ring [ringSize]byte
	cur := ringStart
	out := make([]byte, 0, len(data)*4)

	pos := 0
	for pos < len(data) {
		flags := data[pos]
		pos++
		for bit := 0; bit < 8 && pos < len(data); bit++ {
			if flags&(1<<bit) != 0 {
				c := data[pos]
				pos++
				out = append(out, c)
				ring[cur] = c
				cur = (cur + 1) & (ringSize - 1)
				continue
			}

			if pos+1 >= len(data) {
				return nil, fmt.Errorf("%w at byte %d", ErrTruncated, pos)
			}
			offset := int(data[pos]) | int(data[pos+1]&0xF0)<<4
			length := int(data[pos+1]&0x0F) + minMatch
			pos += 2

			for i := 0; i < length; i++ {
				c := ring[(offset+i)&(ringSize-1)]
				out = append(out, c)
				ring[cur] = c
				cur = (cur + 1) & (ringSize - 1)
			}
		}
	}
	return out, nil
}

// Compress encodes data as a headerless LZS payload. Matches are found with
// a hash chain over three-byte prefixes and limited to the bytes already
// emitted, so the output never depends on the zero-filled ring prefix.
func Compress(data []byte) []byte {
	out := make([]byte, 0, len(data)+len(data)/8+1)

	head := make(map[uint32]int)
	prev := make([]int, len(data))

	insert := func(i int) {
		if i+minMatch > len(data) {
			return
		}
		h := uint32(data[i])<<16 | uint32(data[i+1])<<8 | uint32(data[i+2])
		if p, ok := head[h]; ok {
			prev[i] = p
		} else {
			prev[i] = -1
		}
		head[h] = i
	}

	flagPos := -1
	bit := 8
	emitFlag := func(literal bool) {
		if bit == 8 {
			out = append(out, 0)
			flagPos = len(out) - 1
			bit = 0
		}
		if literal {
			out[flagPos] |= 1 << bit
		}
		bit++
	}

	i := 0
	for i < len(data) {
		bestLen, bestPos := 0, 0
		if i+minMatch <= len(data) {
			h := uint32(data[i])<<16 | uint32(data[i+1])<<8 | uint32(data[i+2])
			cand, ok := head[h]
			for steps := 0; ok && cand >= 0 && i-cand <= maxHistory && steps < maxChain; steps++ {
				n := 0
				for n < maxMatch && i+n < len(data) && data[cand+n] == data[i+n] {
					n++
				}
				if n > bestLen {
					bestLen, bestPos = n, cand
					if n == maxMatch {
						break
					}
				}
				cand = prev[cand]
			}
		}

		if bestLen >= minMatch {
			emitFlag(false)
			ringOff := (ringStart + bestPos) & (ringSize - 1)
			out = append(out, byte(ringOff), byte((ringOff>>4)&0xF0)|byte(bestLen-minMatch))
			for k := 0; k < bestLen; k++ {
				insert(i + k)
			}
			i += bestLen
			continue
		}

		emitFlag(true)
		out = append(out, data[i])
		insert(i)
		i++
	}
	return out
}

// DecodeFramed decodes a payload prefixed by its u32 compressed length, the
// framing used for field files inside flevel.lgp.
func DecodeFramed(body []byte) ([]byte, error) {
	if len(body) < 4 {
		return nil, fmt.Errorf("lzs: body of %d bytes has no length header", len(body))
	}
	n := int(binary.LittleEndian.Uint32(body))
	if n > len(body)-4 {
		return nil, fmt.Errorf("lzs: header declares %d bytes, body holds %d", n, len(body)-4)
	}
	return Decompress(body[4 : 4+n])
}

// EncodeFramed compresses data and prefixes the u32 payload length.
func EncodeFramed(data []byte) []byte {
	payload := Compress(data)
	out := make([]byte, 4+len(payload))
	binary.LittleEndian.PutUint32(out, uint32(len(payload)))
	copy(out[4:], payload)
	return out
}
