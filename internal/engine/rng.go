package engine

import (
	"crypto/hmac"
	"crypto/sha256"
	"fmt"
	"math"
)

// Stream generates deterministic bytes with HMAC-SHA256. Each 32-byte round
// is HMAC(key, "label:nonce:round"), so a stream is fully determined by its
// three inputs and never by process state.
type Stream struct {
	key          string
	label        string
	nonce        uint64
	currentRound uint64
	currentPos   int
	buffer       [32]byte
}

// NewStream creates a stream positioned at byte cursor.
func NewStream(key, label string, nonce uint64, cursor uint64) *Stream {
	s := &Stream{
		key:          key,
		label:        label,
		nonce:        nonce,
		currentRound: cursor / 32,
		currentPos:   int(cursor % 32),
	}
	s.generateRound()
	return s
}

// Next returns the next byte from the stream.
func (s *Stream) Next() byte {
	if s.currentPos >= 32 {
		s.currentRound++
		s.currentPos = 0
		s.generateRound()
	}

	b := s.buffer[s.currentPos]
	s.currentPos++
	return b
}

// Float returns a value in [0, 1) built from exactly 4 bytes.
func (s *Stream) Float() float64 {
	return bytesToFloat([4]byte{s.Next(), s.Next(), s.Next(), s.Next()})
}

// Intn returns a value in [0, n). It panics if n <= 0.
func (s *Stream) Intn(n int) int {
	if n <= 0 {
		panic(fmt.Sprintf("engine: Intn(%d)", n))
	}
	// A 32-bit float times n < 2^21 is exact in float64, so this is
	// platform independent.
	return int(math.Floor(s.Float() * float64(n)))
}

// Shuffle performs a Fisher-Yates shuffle of n elements.
func (s *Stream) Shuffle(n int, swap func(i, j int)) {
	for i := n - 1; i > 0; i-- {
		j := s.Intn(i + 1)
		swap(i, j)
	}
}

// Perm returns a permutation of [0, n).
func (s *Stream) Perm(n int) []int {
	p := make([]int, n)
	for i := range p {
		p[i] = i
	}
	s.Shuffle(n, func(i, j int) { p[i], p[j] = p[j], p[i] })
	return p
}

// Weighted picks an index with probability proportional to its weight.
// It returns -1 when every weight is zero.
func (s *Stream) Weighted(weights []int) int {
	total := 0
	for _, w := range weights {
		if w > 0 {
			total += w
		}
	}
	if total == 0 {
		return -1
	}

	roll := s.Intn(total)
	for i, w := range weights {
		if w <= 0 {
			continue
		}
		if roll < w {
			return i
		}
		roll -= w
	}
	return len(weights) - 1
}

func (s *Stream) generateRound() {
	h := hmac.New(sha256.New, []byte(s.key))
	message := fmt.Sprintf("%s:%d:%d", s.label, s.nonce, s.currentRound)
	h.Write([]byte(message))
	copy(s.buffer[:], h.Sum(nil))
}

// bytesToFloat converts exactly 4 bytes to a float64 in [0, 1).
func bytesToFloat(bytes [4]byte) float64 {
	result := 0.0
	for i, b := range bytes {
		divider := math.Pow(256, float64(i+1))
		result += float64(b) / divider
	}
	return result
}

// Floats generates count floats starting from cursor.
func Floats(key, label string, nonce uint64, cursor uint64, count int) []float64 {
	s := NewStream(key, label, nonce, cursor)
	floats := make([]float64, count)

	for i := 0; i < count; i++ {
		floats[i] = s.Float()
	}

	return floats
}
