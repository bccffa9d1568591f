// Package oracle provides the deterministic pseudo-random source used by
// every step: a stable hash of string keys mapped into [0, 1), and local
// generators seeded from it. Nothing here touches global random state.
package oracle

import (
	"crypto/md5"
	"encoding/binary"
	"math/rand"
	"strings"
)

const modulus = 10_000_000

// Hash01 maps the pipe-joined parts to a stable value in [0, 1).
// MD5 of the key, first 8 hex digits as an unsigned integer, mod 1e7, / 1e7.
func Hash01(parts ...string) float64 {
	v := prefix32(strings.Join(parts, "|"))
	return float64(v%modulus) / modulus
}

// SeedFromKey returns the first 32 bits of MD5(key) as a seed
func SeedFromKey(key string) int64 {
	return int64(prefix32(key))
}

// NewRand returns a generator seeded with int(Hash01(parts...) * 1000).
// Only about 1000 distinct seeds exist; outputs are reproducible, not unpredictable.
func NewRand(parts ...string) *rand.Rand {
	return rand.New(rand.NewSource(int64(Hash01(parts...) * 1000)))
}

// Shuffled returns a shuffled copy of items using rng
func Shuffled(rng *rand.Rand, items []string) []string {
	out := append([]string(nil), items...)
	rng.Shuffle(len(out), func(i, j int) {
		out[i], out[j] = out[j], out[i]
	})
	return out
}

func prefix32(key string) uint64 {
	sum := md5.Sum([]byte(key))
	return uint64(binary.BigEndian.Uint32(sum[:4]))
}
