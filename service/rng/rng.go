// Package rng provides the seeded pseudo-random sources used for procedural
// generation. Every source here is a pure function of its seed: no wall clock,
// no global state, no crypto/rand.
package rng

import (
	"encoding/hex"
	"math"
	"unicode/utf16"

	"github.com/mr-tron/base58"
)

// SeedCount is the number of floats produced by HashToSeeds.
const SeedCount = 30

// Source is the minimal interface consumed by generators.
type Source interface {
	Float64() float64
}

// HashToSeeds folds s into a 32-bit hash and expands it through a
// Park-Miller style step into SeedCount floats in [0,1].
//
// The hash walks UTF-16 code units so that non-ASCII seeds fold the same way
// regardless of how the caller obtained the string.
func HashToSeeds(s string) [SeedCount]float64 {
	var h int32
	for _, c := range utf16.Encode([]rune(s)) {
		h = (h << 5) - h + int32(c)
	}

	var seeds [SeedCount]float64
	for i := range seeds {
		h = int32(int64(h)*16807 + math.MaxInt32)
		seeds[i] = float64(h&0x7fffffff) / float64(0x7fffffff)
	}
	return seeds
}

// Mulberry32 is a small 32-bit mix-and-shift generator. The zero value is not
// useful; construct with NewMulberry32.
type Mulberry32 struct {
	t uint32
}

// NewMulberry32 returns a generator seeded with seed.
func NewMulberry32(seed uint32) *Mulberry32 {
	return &Mulberry32{t: seed + 0x6d2b79f5}
}

// Float64 returns the next value in [0,1).
func (m *Mulberry32) Float64() float64 {
	t := m.t
	t = (t ^ (t >> 15)) * (t | 1)
	t ^= t + (t^(t>>7))*(t|61)
	m.t = t
	return float64(t^(t>>14)) / 4294967296
}

// Intn returns floor(Float64()*n).
func (m *Mulberry32) Intn(n int) int {
	return int(m.Float64() * float64(n))
}

// FromString derives the integer seed from the first hashed float of s and
// returns a generator over it. This is the entry point used by the skull
// generator and the renderer.
func FromString(s string) *Mulberry32 {
	seeds := HashToSeeds(s)
	return NewMulberry32(uint32(math.Floor(seeds[0] * 999999)))
}

// SoulSeed computes a 32-byte fingerprint of a transaction hash: an xor fold
// followed by a per-byte 64-bit mix and a forward/backward diffusion pass.
func SoulSeed(txHash string) [32]byte {
	var seed [32]byte
	for i := 0; i < len(txHash); i++ {
		seed[i%32] ^= txHash[i]
	}

	for i := range seed {
		h := uint64(seed[i])
		h *= 0x517cc1b727220a95
		h ^= h >> 17
		h *= 0x6c62272e07bb0142
		h ^= h >> 11
		seed[i] = byte(h)
	}

	for i := 1; i < 32; i++ {
		seed[i] ^= seed[i-1] + 37
	}
	for i := 30; i >= 0; i-- {
		seed[i] ^= seed[i+1] + 53
	}
	return seed
}

// SoulSeedHex is the lowercase hex encoding of SoulSeed(txHash).
func SoulSeedHex(txHash string) string {
	s := SoulSeed(txHash)
	return hex.EncodeToString(s[:])
}

// SoulSeedBase58 is the base58 encoding of SoulSeed(txHash), the same alphabet
// Solana uses for keys and signatures.
func SoulSeedBase58(txHash string) string {
	s := SoulSeed(txHash)
	return base58.Encode(s[:])
}
