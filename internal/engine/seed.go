package engine

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"math/big"
	"strings"
)

// ErrEmptySeed is returned when no seed was supplied.
var ErrEmptySeed = errors.New("seed must not be empty")

// Seed is the normalized master seed of a run.
type Seed string

// ParseSeed normalizes a user-supplied seed. Integers are canonicalized so
// "0012345", "+12345" and "12345" describe the same run; anything else is
// used verbatim after trimming surrounding space.
func ParseSeed(raw string) (Seed, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", ErrEmptySeed
	}
	if n, ok := new(big.Int).SetString(s, 10); ok {
		return Seed(n.String()), nil
	}
	return Seed(s), nil
}

// String returns the seed text.
func (s Seed) String() string { return string(s) }

// SubSeed derives the independent seed of one category. It depends only on
// the master seed and the category name.
func (s Seed) SubSeed(category string) string {
	h := hmac.New(sha256.New, []byte(s))
	h.Write([]byte("category:" + category))
	return hex.EncodeToString(h.Sum(nil))
}

// Stream returns the byte stream for one attempt of a category. Attempt
// numbers start at zero; each retry uses the next attempt number and so a
// fresh, still deterministic, stream.
func (s Seed) Stream(category string, attempt int) *Stream {
	return NewStream(s.SubSeed(category), category, uint64(attempt), 0)
}

// Fork derives a child stream for an independent sub-range of a category,
// such as one field file or one shop.
func (s Seed) Fork(category, part string, attempt int) *Stream {
	return NewStream(s.SubSeed(category), category+"/"+part, uint64(attempt), 0)
}
