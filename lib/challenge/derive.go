package libvmnchallenge

import (
	"encoding/hex"
	"fmt"
	"hash"
	"math/big"

	"github.com/ldsec/vmnverify/lib"
	"github.com/ldsec/vmnverify/lib/arithm"
	"github.com/ldsec/vmnverify/lib/bytetree"
	"github.com/ldsec/vmnverify/lib/params"
	"github.com/ldsec/vmnverify/lib/transcript"
	"go.dedis.ch/onet/v3/log"
	"golang.org/x/xerrors"
)

// generatorsLabel separates the generator derivation from every other use of the random oracle
const generatorsLabel = "generators"

// Structs
//______________________________________________________________________________________________________________________

// Challenge is the verifier's randomness for one proof: the seed of the batching vector, the batching vector e and
// the challenge v
type Challenge struct {
	Seed []byte
	E    []*libvmnarithm.Scalar
	V    *libvmnarithm.Scalar
	Mode libvmnparams.ChallengeMode
}

func (c *Challenge) String() string {
	return fmt.Sprintf("%s challenge v=%s, seed %s", c.Mode, c.V, hex.EncodeToString(c.Seed))
}

// Deriver derives challenges and generators for one session. It only reads its parameters and can be shared
// between goroutines.
type Deriver struct {
	pp      *libvmnparams.PublicParameters
	roHash  func() hash.Hash
	prgHash func() hash.Hash
	prefix  []byte
}

// NewDeriver computes the random oracle prefix of the session
func NewDeriver(pp *libvmnparams.PublicParameters) (*Deriver, error) {
	roHash, err := libvmnparams.HashFunction(pp.Info.ROHash)
	if err != nil {
		return nil, err
	}
	prgHash, err := libvmnparams.HashFunction(pp.Info.PRG)
	if err != nil {
		return nil, err
	}

	d := &Deriver{pp: pp, roHash: roHash, prgHash: prgHash}
	h := roHash()
	h.Write(libvmnbytetree.Encode(d.ProtocolTree()))
	d.prefix = h.Sum(nil)
	log.Lvl3("Random oracle prefix", hex.EncodeToString(d.prefix))
	return d, nil
}

// ProtocolTree returns node(version, sid.auxsid, rbitlen, vbitlenro, ebitlenro, prg, group, rohash), whose hash
// is the prefix of every random oracle query
func (d *Deriver) ProtocolTree() *libvmnbytetree.Node {
	info := d.pp.Info
	return libvmnbytetree.NewTree(
		libvmnbytetree.StringToLeaf(info.Version),
		libvmnbytetree.StringToLeaf(info.SessionID()),
		libvmnbytetree.Uint32ToLeaf(uint32(info.RBitLen)),
		libvmnbytetree.Uint32ToLeaf(uint32(info.VBitLenRO)),
		libvmnbytetree.Uint32ToLeaf(uint32(info.EBitLenRO)),
		libvmnbytetree.StringToLeaf(info.PRG),
		d.pp.Group.Marshal(),
		libvmnbytetree.StringToLeaf(info.ROHash),
	)
}

// Prefix returns ρ
func (d *Deriver) Prefix() []byte {
	out := make([]byte, len(d.prefix))
	copy(out, d.prefix)
	return out
}

// SeedLength is the number of bytes of a batching seed
func (d *Deriver) SeedLength() int {
	return SeedLength(d.prgHash)
}

func (d *Deriver) seedBits() int {
	return 8 * d.SeedLength()
}

// Derivation
//______________________________________________________________________________________________________________________

// Generators derives the independent generators h_1, ..., h_n: the PRG seeded with RO(ρ || "generators") is read in
// blocks of |p| + rbitlen bits, each block t_i giving h_i = t_i^((p-1)/q) mod p
func (d *Deriver) Generators(n int) []*libvmnarithm.Element {
	G := d.pp.Group
	seed := NewRandomOracle(d.roHash, d.seedBits()).Hash(d.prefix, []byte(generatorsLabel))
	prg := NewPRG(d.prgHash, seed)

	bits := G.P().BitLen() + d.pp.Info.RBitLen
	blocks := make([]*big.Int, n)
	for i := range blocks {
		blocks[i] = new(big.Int).SetBytes(prg.Bits(bits))
	}

	h := make([]*libvmnarithm.Element, n)
	_ = libvmn.ForChunks(n, func(start, end int) error {
		for i := start; i < end; i++ {
			h[i] = G.Project(blocks[i])
		}
		return nil
	})
	return h
}

// BatchingVector expands seed into n integers of ebitlenro bits
func (d *Deriver) BatchingVector(seed []byte, n int) []*libvmnarithm.Scalar {
	F := d.pp.Group.Field()
	prg := NewPRG(d.prgHash, seed)
	e := make([]*libvmnarithm.Scalar, n)
	for i := range e {
		e[i] = F.Reduce(new(big.Int).SetBytes(prg.Bits(d.pp.Info.EBitLenRO)))
	}
	return e
}

// Seed returns the batching seed RO(ρ || node(g, h, u, pk, w, w')). It fails with the first missing or
// undecodable public input.
func (d *Deriver) Seed(t *libvmntranscript.Transcript, h []*libvmnarithm.Element) ([]byte, error) {
	G := d.pp.Group
	inputs := []libvmntranscript.Role{
		libvmntranscript.PermutationCommitment,
		libvmntranscript.PublicKey,
		libvmntranscript.Ciphertexts,
		libvmntranscript.ShuffledCiphertexts,
	}
	nodes := make([]*libvmnbytetree.Node, 0, 2+len(inputs))
	nodes = append(nodes, G.ElementToByteTree(G.Generator()), G.ElementsToByteTree(h))
	for _, role := range inputs {
		n, err := t.Node(role)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
	}

	data := libvmnbytetree.Encode(libvmnbytetree.NewTree(nodes...))
	return NewRandomOracle(d.roHash, d.seedBits()).Hash(d.prefix, data), nil
}

// ChallengeFor returns v = RO(ρ || node(seed, τ)) as a scalar
func (d *Deriver) ChallengeFor(seed []byte, t *libvmntranscript.Transcript) (*libvmnarithm.Scalar, error) {
	tau, err := t.Node(libvmntranscript.ProofCommitment)
	if err != nil {
		return nil, err
	}
	data := libvmnbytetree.Encode(libvmnbytetree.NewTree(libvmnbytetree.NewLeaf(seed), tau))
	v := NewRandomOracle(d.roHash, d.pp.Info.VBitLenRO).Hash(d.prefix, data)
	return d.pp.Group.Field().Reduce(new(big.Int).SetBytes(v)), nil
}

// Derive computes the challenge of the transcript for the generators h, len(h) being the number of ciphertexts.
// With Fiat-Shamir challenges every public input and the commitment τ are hashed, the response σ never is. With
// supplied challenges the Challenges artifact is read instead.
func (d *Deriver) Derive(t *libvmntranscript.Transcript, h []*libvmnarithm.Element) (*Challenge, error) {
	timer := libvmn.StartTimer("Challenge derivation")
	defer libvmn.EndTimer(timer)

	c := &Challenge{Mode: d.pp.Mode}
	switch d.pp.Mode {
	case libvmnparams.Supplied:
		if err := t.Require(libvmntranscript.Challenges); err != nil {
			return nil, err
		}
		c.Seed = t.Challenges.Seed
		c.V = t.Challenges.V
	default:
		seed, err := d.Seed(t, h)
		if err != nil {
			return nil, xerrors.Errorf("batching seed: %w", err)
		}
		v, err := d.ChallengeFor(seed, t)
		if err != nil {
			return nil, xerrors.Errorf("challenge: %w", err)
		}
		c.Seed = seed
		c.V = v
	}
	c.E = d.BatchingVector(c.Seed, len(h))

	log.Lvl3("Derived", c)
	return c, nil
}
