package scene

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"testing"

	"github.com/MJE43/goldsaucer/internal/fault"
	"github.com/MJE43/goldsaucer/internal/fixture"
	"github.com/MJE43/goldsaucer/internal/schema"
)

func TestParseBaseline(t *testing.T) {
	data := fixture.SceneBin(fixture.Scenes(), fixture.ScenesPerBlock)
	a, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(a.Scenes) != fixture.SceneCount {
		t.Fatalf("got %d scenes, want %d", len(a.Scenes), fixture.SceneCount)
	}
	if a.Blocks() != fixture.SceneCount/fixture.ScenesPerBlock {
		t.Errorf("Blocks() = %d", a.Blocks())
	}
	s := a.Scenes[9]
	if s.Block != 1 {
		t.Errorf("scene 9 in block %d, want 1", s.Block)
	}
	if s.EnemyID(0) != 18 || s.EnemyID(2) != 0xFFFF {
		t.Errorf("enemy IDs = %d, %d", s.EnemyID(0), s.EnemyID(2))
	}
	if lvl := schema.Enemy.Uint(s.EnemyRecord(1), schema.EnemyLevel); lvl != 2+9*2+1 {
		t.Errorf("enemy level = %d", lvl)
	}

	out, err := a.Bytes()
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(out, data) {
		t.Error("pristine archive did not round-trip byte for byte")
	}
}

func TestRepackKeepsBlocks(t *testing.T) {
	data := fixture.SceneBin(fixture.Scenes(), fixture.ScenesPerBlock)
	a, err := Parse(data)
	if err != nil {
		t.Fatal(err)
	}
	rec := a.Scenes[10].EnemyRecord(0)
	schema.Enemy.PutUint(rec, schema.EnemyHP, 777)

	out, err := a.Bytes()
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != len(data) {
		t.Fatalf("size changed: %d -> %d", len(data), len(out))
	}
	for b := 0; b < a.Blocks(); b++ {
		same := bytes.Equal(out[b*BlockSize:(b+1)*BlockSize], data[b*BlockSize:(b+1)*BlockSize])
		if b == 1 && same {
			t.Error("modified block copied verbatim")
		}
		if b != 1 && !same {
			t.Errorf("untouched block %d rewritten", b)
		}
	}

	back, err := Parse(out)
	if err != nil {
		t.Fatal(err)
	}
	for i, s := range back.Scenes {
		if s.Block != a.Scenes[i].Block {
			t.Errorf("scene %d moved from block %d to %d", i, a.Scenes[i].Block, s.Block)
		}
		if !bytes.Equal(s.Data, a.Scenes[i].Data) {
			t.Errorf("scene %d content mismatch", i)
		}
	}
}

func TestOverflow(t *testing.T) {
	data := fixture.SceneBin(fixture.Scenes()[:8], 8)
	a, err := Parse(data)
	if err != nil {
		t.Fatal(err)
	}
	// Hash output in every scene does not compress, so eight of them
	// cannot share one block.
	for i, s := range a.Scenes {
		sum := sha256.Sum256([]byte{byte(i)})
		for j := 0x300; j < 0x1E00; j += len(sum) {
			copy(s.Data[j:0x1E00], sum[:])
			sum = sha256.Sum256(sum[:])
		}
	}
	if _, err := a.Bytes(); err == nil {
		t.Error("Bytes() should fail when a block overflows")
	}
}

func TestParseErrors(t *testing.T) {
	good := fixture.SceneBin(fixture.Scenes()[:2], 2)

	badPtr := append([]byte(nil), good...)
	binary.LittleEndian.PutUint32(badPtr[0:], 3)

	badGzip := append([]byte(nil), good...)
	badGzip[0x40] ^= 0xFF

	tests := []struct {
		name string
		data []byte
	}{
		{"not block aligned", good[:100]},
		{"empty", nil},
		{"pointer inside table", badPtr},
		{"corrupt gzip", badGzip},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse(tt.data); !fault.IsFormat(err) {
				t.Errorf("Parse() error = %v, want FormatError", err)
			}
		})
	}
}
