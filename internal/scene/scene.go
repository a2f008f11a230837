// Package scene reads and rebuilds battle/scene.bin: 8 KiB blocks, each
// starting with a table of sixteen word offsets to gzip compressed scenes.
package scene

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/MJE43/goldsaucer/internal/fault"
	"github.com/MJE43/goldsaucer/internal/kernel"
	"github.com/MJE43/goldsaucer/internal/schema"
)

const (
	BlockSize    = 0x2000
	PointerCount = 16
	pointerTable = PointerCount * 4
	noScene      = 0xFFFFFFFF
	padByte      = 0xFF
)

// Scene is one decompressed battle scene.
type Scene struct {
	Index int
	Block int
	Data  []byte

	stored   []byte
	original []byte
}

// Changed reports whether Data differs from what was parsed.
func (s *Scene) Changed() bool { return !bytes.Equal(s.Data, s.original) }

// Archive is a parsed scene.bin. Scenes keep their original block on
// rebuild because the executable looks scenes up by block.
type Archive struct {
	Scenes []*Scene
	blocks [][]byte
}

// Parse decodes a scene.bin image.
func Parse(data []byte) (*Archive, error) {
	if len(data) == 0 || len(data)%BlockSize != 0 {
		return nil, fault.FormatAt("", 0, "size %d is not a whole number of %d-byte blocks", len(data), BlockSize)
	}

	a := &Archive{}
	for b := 0; b < len(data)/BlockSize; b++ {
		block := data[b*BlockSize : (b+1)*BlockSize]
		a.blocks = append(a.blocks, append([]byte(nil), block...))

		var offsets []int
		for i := 0; i < PointerCount; i++ {
			p := binary.LittleEndian.Uint32(block[i*4:])
			if p == noScene {
				break
			}
			off := int(p) * 4
			if off < pointerTable || off >= BlockSize || (len(offsets) > 0 && off <= offsets[len(offsets)-1]) {
				return nil, fault.FormatAt("", int64(b*BlockSize+i*4), "block %d has invalid scene pointer 0x%X", b, p)
			}
			offsets = append(offsets, off)
		}

		for i, off := range offsets {
			end := BlockSize
			if i+1 < len(offsets) {
				end = offsets[i+1]
			}
			stored := block[off:end]
			raw, err := kernel.Gunzip(stored)
			if err != nil {
				return nil, fault.FormatAt("", int64(b*BlockSize+off), "scene %d: %v", len(a.Scenes), err)
			}
			if len(raw) != schema.Scene.Size {
				return nil, fault.FormatAt("", int64(b*BlockSize+off), "scene %d inflates to %d bytes, want %d",
					len(a.Scenes), len(raw), schema.Scene.Size)
			}
			a.Scenes = append(a.Scenes, &Scene{
				Index:    len(a.Scenes),
				Block:    b,
				Data:     raw,
				stored:   append([]byte(nil), stored...),
				original: append([]byte(nil), raw...),
			})
		}
	}
	return a, nil
}

// Blocks returns the number of blocks in the archive.
func (a *Archive) Blocks() int { return len(a.blocks) }

// Bytes re-emits the archive. Blocks without changed scenes are copied
// verbatim; changed blocks are repacked in place and fail if they no longer
// fit.
func (a *Archive) Bytes() ([]byte, error) {
	out := make([]byte, 0, len(a.blocks)*BlockSize)
	for b, orig := range a.blocks {
		var members []*Scene
		dirty := false
		for _, s := range a.Scenes {
			if s.Block == b {
				members = append(members, s)
				dirty = dirty || s.Changed()
			}
		}
		if !dirty {
			out = append(out, orig...)
			continue
		}

		block, err := packBlock(b, members)
		if err != nil {
			return nil, err
		}
		out = append(out, block...)
	}
	return out, nil
}

func packBlock(b int, members []*Scene) ([]byte, error) {
	if len(members) > PointerCount {
		return nil, fmt.Errorf("block %d holds %d scenes, limit is %d", b, len(members), PointerCount)
	}

	block := bytes.Repeat([]byte{padByte}, BlockSize)
	pos := pointerTable
	for i, s := range members {
		stored := s.stored
		if s.Changed() {
			packed, err := kernel.Gzip(s.Data)
			if err != nil {
				return nil, fmt.Errorf("scene %d: %w", s.Index, err)
			}
			for len(packed)%4 != 0 {
				packed = append(packed, padByte)
			}
			stored = packed
		} else if i == len(members)-1 {
			stored = bytes.TrimRight(stored, "\xff")
			for len(stored)%4 != 0 {
				stored = append(stored, padByte)
			}
		}
		if pos+len(stored) > BlockSize {
			return nil, fmt.Errorf("block %d overflows after repacking scene %d (%d bytes)", b, s.Index, pos+len(stored))
		}
		binary.LittleEndian.PutUint32(block[i*4:], uint32(pos/4))
		copy(block[pos:], stored)
		pos += len(stored)
	}
	return block, nil
}

// EnemyRecord returns the enemy data block for slot i of a scene. The slice
// aliases the scene data.
func (s *Scene) EnemyRecord(i int) []byte {
	base := schema.Scene.Field(schema.SceneEnemyData).Offset + i*schema.Enemy.Size
	return s.Data[base : base+schema.Enemy.Size]
}

// EnemyID returns the enemy ID in slot i, or 0xFFFF when the slot is empty.
func (s *Scene) EnemyID(i int) uint16 {
	off := schema.Scene.Field(schema.SceneEnemyIDs).Offset + i*2
	return binary.LittleEndian.Uint16(s.Data[off:])
}
