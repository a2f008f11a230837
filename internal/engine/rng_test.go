package engine

import (
	"math"
	"sort"
	"testing"
)

func TestFloatsKnownVector(t *testing.T) {
	// HMAC-SHA256("test_key", "enemy:0:0") = 0ae16688 a05c18cc ...
	floats := Floats("test_key", "enemy", 0, 0, 2)
	want := []float64{0.04250183887779713, 0.6264052866026759}

	for i := range want {
		if math.Abs(floats[i]-want[i]) > 1e-15 {
			t.Errorf("float %d = %v, want %v", i, floats[i], want[i])
		}
	}
}

func TestFloats(t *testing.T) {
	tests := []struct {
		name   string
		cursor uint64
		count  int
	}{
		{"single float", 0, 1},
		{"multiple floats", 0, 8},
		{"cursor boundary", 31, 2},
		{"many rounds", 0, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			floats := Floats("server", "label", 1, tt.cursor, tt.count)
			if len(floats) != tt.count {
				t.Errorf("Floats() returned %d floats, want %d", len(floats), tt.count)
			}
			for i, f := range floats {
				if f < 0 || f >= 1 {
					t.Errorf("float %d out of range [0, 1): %f", i, f)
				}
			}
		})
	}
}

func TestStreamCursorContinuity(t *testing.T) {
	all := Floats("k", "l", 3, 0, 16)
	// Cursor 32 starts at the second round, i.e. the ninth float.
	tail := Floats("k", "l", 3, 32, 8)
	for i := range tail {
		if tail[i] != all[8+i] {
			t.Errorf("tail[%d] = %v, want %v", i, tail[i], all[8+i])
		}
	}
}

func TestIntnRange(t *testing.T) {
	s := NewStream("k", "intn", 0, 0)
	for i := 0; i < 1000; i++ {
		v := s.Intn(7)
		if v < 0 || v >= 7 {
			t.Fatalf("Intn(7) = %d", v)
		}
	}
}

func TestPermIsPermutation(t *testing.T) {
	s := NewStream("k", "perm", 0, 0)
	p := s.Perm(50)
	sorted := append([]int(nil), p...)
	sort.Ints(sorted)
	for i, v := range sorted {
		if v != i {
			t.Fatalf("Perm(50) is not a permutation: %v", p)
		}
	}
}

func TestWeighted(t *testing.T) {
	s := NewStream("k", "weighted", 0, 0)

	if got := s.Weighted([]int{0, 0, 0}); got != -1 {
		t.Errorf("all-zero weights: got %d, want -1", got)
	}

	for i := 0; i < 200; i++ {
		got := s.Weighted([]int{0, 5, 0, 1})
		if got != 1 && got != 3 {
			t.Fatalf("Weighted picked zero-weight index %d", got)
		}
	}
}

func TestParseSeed(t *testing.T) {
	tests := []struct {
		raw     string
		want    Seed
		wantErr bool
	}{
		{"12345", "12345", false},
		{"0012345", "12345", false},
		{"+12345", "12345", false},
		{"  gold saucer ", "gold saucer", false},
		{"", "", true},
		{"   ", "", true},
	}

	for _, tt := range tests {
		got, err := ParseSeed(tt.raw)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseSeed(%q) error = %v, wantErr %v", tt.raw, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseSeed(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestSubSeed(t *testing.T) {
	seed := Seed("12345")
	want := "202aa172aafd45267ef6ea81946c2b1f16f18c01e983db7b32143cb33245baeb"
	if got := seed.SubSeed("enemy"); got != want {
		t.Errorf("SubSeed(enemy) = %s, want %s", got, want)
	}
	if seed.SubSeed("enemy") == seed.SubSeed("shops") {
		t.Errorf("categories must derive distinct sub-seeds")
	}
}

func TestStreamAttemptsDiffer(t *testing.T) {
	seed := Seed("12345")
	a := seed.Stream("items", 0).Float()
	b := seed.Stream("items", 1).Float()
	c := seed.Stream("items", 0).Float()
	if a == b {
		t.Errorf("attempt 0 and 1 produced the same first float")
	}
	if a != c {
		t.Errorf("same attempt must reproduce the same stream")
	}
}
