// Package libvmnchallenge derives the verifier's randomness from the public transcript: a hash based PRG, random
// oracles built on it, the batching vector e, the challenge v and the independent generators h_1, ..., h_N.
package libvmnchallenge

import (
	"encoding/binary"
	"hash"
)

// PRG expands a seed into the stream H(seed || 0) || H(seed || 1) || ..., the counter being a 4-byte big-endian
// integer. It implements io.Reader.
type PRG struct {
	newHash func() hash.Hash
	seed    []byte
	counter uint32
	buf     []byte
}

// NewPRG creates a PRG on the hash function h
func NewPRG(h func() hash.Hash, seed []byte) *PRG {
	s := make([]byte, len(seed))
	copy(s, seed)
	return &PRG{newHash: h, seed: s}
}

// SeedLength is the number of seed bytes the PRG is designed for: the output size of its hash function
func SeedLength(h func() hash.Hash) int {
	return h().Size()
}

func (p *PRG) Read(out []byte) (int, error) {
	for filled := 0; filled < len(out); {
		if len(p.buf) == 0 {
			var ctr [4]byte
			binary.BigEndian.PutUint32(ctr[:], p.counter)
			p.counter++
			d := p.newHash()
			d.Write(p.seed)
			d.Write(ctr[:])
			p.buf = d.Sum(nil)
		}
		n := copy(out[filled:], p.buf)
		p.buf = p.buf[n:]
		filled += n
	}
	return len(out), nil
}

// Bytes returns the next n bytes of the stream
func (p *PRG) Bytes(n int) []byte {
	out := make([]byte, n)
	p.Read(out)
	return out
}

// Bits returns the next ⌈n/8⌉ bytes of the stream with the leading bits cleared so that they encode an n-bit
// integer
func (p *PRG) Bits(n int) []byte {
	return maskBits(p.Bytes((n+7)/8), n)
}

func maskBits(b []byte, n int) []byte {
	if rem := n % 8; rem != 0 && len(b) > 0 {
		b[0] &= byte(0xff >> uint(8-rem))
	}
	return b
}

// RandomOracle maps any input to outBits bits: the hash of uint32(outBits) || input seeds a PRG on the same hash
// function, whose first ⌈outBits/8⌉ bytes are masked to outBits bits
type RandomOracle struct {
	newHash func() hash.Hash
	outBits int
}

// NewRandomOracle creates a random oracle with outBits bits of output
func NewRandomOracle(h func() hash.Hash, outBits int) *RandomOracle {
	return &RandomOracle{newHash: h, outBits: outBits}
}

// Hash queries the oracle on the concatenation of data
func (ro *RandomOracle) Hash(data ...[]byte) []byte {
	var length [4]byte
	binary.BigEndian.PutUint32(length[:], uint32(ro.outBits))

	d := ro.newHash()
	d.Write(length[:])
	for _, b := range data {
		d.Write(b)
	}
	return NewPRG(ro.newHash, d.Sum(nil)).Bits(ro.outBits)
}
