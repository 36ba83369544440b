package libvmnchallenge_test

import (
	"crypto/sha256"
	"errors"
	"io"
	"math/big"
	"testing"

	"github.com/ldsec/vmnverify/lib/arithm"
	"github.com/ldsec/vmnverify/lib/challenge"
	"github.com/ldsec/vmnverify/lib/params"
	"github.com/ldsec/vmnverify/lib/shuffle"
	"github.com/ldsec/vmnverify/lib/transcript"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.dedis.ch/kyber/v3/util/random"
	"go.dedis.ch/onet/v3/log"
)

func TestMain(m *testing.M) {
	log.MainTest(m)
}

func TestPRG(t *testing.T) {
	seed := []byte("seed")
	prg := libvmnchallenge.NewPRG(sha256.New, seed)

	block0 := sha256.Sum256(append([]byte("seed"), 0, 0, 0, 0))
	block1 := sha256.Sum256(append([]byte("seed"), 0, 0, 0, 1))
	out := prg.Bytes(40)
	assert.Equal(t, block0[:], out[:32])
	assert.Equal(t, block1[:8], out[32:])

	// reads continue where the previous one stopped
	rest := make([]byte, 24)
	_, err := io.ReadFull(prg, rest)
	require.NoError(t, err)
	assert.Equal(t, block1[8:], rest)

	bits := libvmnchallenge.NewPRG(sha256.New, seed).Bits(13)
	assert.Len(t, bits, 2)
	assert.Equal(t, block0[0]&0x1f, bits[0])
	assert.Equal(t, block0[1], bits[1])

	assert.Equal(t, 32, libvmnchallenge.SeedLength(sha256.New))
}

func TestRandomOracle(t *testing.T) {
	ro := libvmnchallenge.NewRandomOracle(sha256.New, 100)
	out := ro.Hash([]byte("a"), []byte("bc"))
	assert.Len(t, out, 13)
	assert.True(t, new(big.Int).SetBytes(out).BitLen() <= 100)
	assert.Equal(t, out, ro.Hash([]byte("abc")))
	assert.NotEqual(t, out, ro.Hash([]byte("abd")))

	d := sha256.New()
	d.Write([]byte{0, 0, 0, 100})
	d.Write([]byte("abc"))
	assert.Equal(t, libvmnchallenge.NewPRG(sha256.New, d.Sum(nil)).Bits(100), out)

	// the output length is part of the query
	assert.NotEqual(t, out[1:], libvmnchallenge.NewRandomOracle(sha256.New, 96).Hash([]byte("abc")))
}

func testDeriver(t *testing.T, mode libvmnparams.ChallengeMode) (*libvmnparams.PublicParameters, *libvmnchallenge.Deriver) {
	pp, err := libvmnshuffle.TestParameters(mode, 1)
	require.NoError(t, err)
	d, err := libvmnchallenge.NewDeriver(pp)
	require.NoError(t, err)
	return pp, d
}

func TestDeriverPrefix(t *testing.T) {
	pp, d := testDeriver(t, libvmnparams.FiatShamir)
	_, other := testDeriver(t, libvmnparams.FiatShamir)
	assert.Equal(t, d.Prefix(), other.Prefix())
	assert.Len(t, d.Prefix(), 32)
	assert.Equal(t, 8, d.ProtocolTree().Len())

	info := pp.Info
	info.AuxSID = "other"
	changed, err := libvmnparams.New(info, pp.Group, nil)
	require.NoError(t, err)
	d2, err := libvmnchallenge.NewDeriver(changed)
	require.NoError(t, err)
	assert.NotEqual(t, d.Prefix(), d2.Prefix())

	info.ROHash = "SHA-512"
	changed, err = libvmnparams.New(info, pp.Group, nil)
	require.NoError(t, err)
	d3, err := libvmnchallenge.NewDeriver(changed)
	require.NoError(t, err)
	assert.Len(t, d3.Prefix(), 64)
}

func TestGenerators(t *testing.T) {
	pp, d := testDeriver(t, libvmnparams.FiatShamir)
	G := pp.Group

	h := d.Generators(20)
	require.Len(t, h, 20)
	seen := make(map[string]bool)
	for _, hi := range h {
		// every generator is a member of the subgroup
		_, err := G.NewElement(hi.BigInt())
		assert.NoError(t, err)
		assert.False(t, hi.Equal(G.One()))
		seen[hi.BigInt().String()] = true
	}
	assert.Len(t, seen, 20)

	// prefix stable
	h5 := d.Generators(5)
	for i := range h5 {
		assert.True(t, h5[i].Equal(h[i]))
	}
	assert.Empty(t, d.Generators(0))
}

func TestBatchingVector(t *testing.T) {
	pp, d := testDeriver(t, libvmnparams.FiatShamir)
	seed := []byte("0123456789abcdef0123456789abcdef")
	e := d.BatchingVector(seed, 10)
	require.Len(t, e, 10)
	for _, ei := range e {
		assert.True(t, ei.BigInt().BitLen() <= pp.Info.EBitLenRO)
	}
	again := d.BatchingVector(seed, 12)
	for i := range e {
		assert.True(t, e[i].Equal(again[i]))
	}
	assert.False(t, e[0].Equal(d.BatchingVector([]byte("other seed"), 1)[0]))
}

func TestDeriveFiatShamir(t *testing.T) {
	pp, d := testDeriver(t, libvmnparams.FiatShamir)
	chain, err := libvmnshuffle.NewMixChain(pp, 4, 1, random.New())
	require.NoError(t, err)
	proof := chain.Proofs[0]
	h := d.Generators(4)

	tr := libvmntranscript.Build(pp.Group, 1, proof.Nodes)
	c, err := d.Derive(tr, h)
	require.NoError(t, err)
	assert.Equal(t, libvmnparams.FiatShamir, c.Mode)
	assert.Len(t, c.E, 4)
	assert.Len(t, c.Seed, d.SeedLength())
	assert.True(t, c.V.BigInt().BitLen() <= pp.Info.VBitLenRO)
	assert.Contains(t, c.String(), "fiat-shamir")

	// deterministic
	again, err := d.Derive(libvmntranscript.Build(pp.Group, 1, proof.Nodes), h)
	require.NoError(t, err)
	assert.Equal(t, c.Seed, again.Seed)
	assert.True(t, c.V.Equal(again.V))

	// the response is not hashed
	nodes := proof.NodesWithout()
	nodes[libvmntranscript.ProofResponse] = proof.Nodes[libvmntranscript.ProofCommitment]
	same, err := d.Derive(libvmntranscript.Build(pp.Group, 1, nodes), h)
	require.NoError(t, err)
	assert.True(t, c.V.Equal(same.V))

	// the output list is
	nodes = proof.NodesWithout()
	nodes[libvmntranscript.ShuffledCiphertexts] = proof.Nodes[libvmntranscript.Ciphertexts]
	other, err := d.Derive(libvmntranscript.Build(pp.Group, 1, nodes), h)
	require.NoError(t, err)
	assert.NotEqual(t, c.Seed, other.Seed)
	assert.False(t, c.V.Equal(other.V))

	// so is the commitment
	seed, err := d.Seed(tr, h)
	require.NoError(t, err)
	assert.Equal(t, c.Seed, seed)
	nodes = proof.NodesWithout()
	nodes[libvmntranscript.ProofCommitment] = proof.Nodes[libvmntranscript.ProofResponse]
	v, err := d.ChallengeFor(seed, libvmntranscript.Build(pp.Group, 1, nodes))
	require.NoError(t, err)
	assert.False(t, c.V.Equal(v))

	var missing *libvmntranscript.MissingArtifactError
	_, err = d.Derive(libvmntranscript.Build(pp.Group, 1, proof.NodesWithout(libvmntranscript.PublicKey)), h)
	assert.True(t, errors.As(err, &missing))
	_, err = d.Derive(libvmntranscript.Build(pp.Group, 1, proof.NodesWithout(libvmntranscript.ProofCommitment)), h)
	assert.True(t, errors.As(err, &missing))
}

func TestDeriveSupplied(t *testing.T) {
	pp, d := testDeriver(t, libvmnparams.Supplied)
	chain, err := libvmnshuffle.NewMixChain(pp, 3, 1, random.New())
	require.NoError(t, err)
	proof := chain.Proofs[0]
	h := d.Generators(3)

	c, err := d.Derive(libvmntranscript.Build(pp.Group, 1, proof.Nodes), h)
	require.NoError(t, err)
	assert.Equal(t, proof.Challenges.Seed, c.Seed)
	assert.True(t, proof.Challenges.V.Equal(c.V))
	assert.Len(t, c.E, 3)

	// only the challenges are needed
	c, err = d.Derive(libvmntranscript.Build(pp.Group, 1, proof.NodesWithout(libvmntranscript.PublicKey, libvmntranscript.ShuffledCiphertexts)), h)
	require.NoError(t, err)
	assert.True(t, proof.Challenges.V.Equal(c.V))

	var missing *libvmntranscript.MissingArtifactError
	_, err = d.Derive(libvmntranscript.Build(pp.Group, 1, proof.NodesWithout(libvmntranscript.Challenges)), h)
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, libvmntranscript.Challenges, missing.Role)

	var empty []*libvmnarithm.Element
	c, err = d.Derive(libvmntranscript.Build(pp.Group, 1, proof.Nodes), empty)
	require.NoError(t, err)
	assert.Empty(t, c.E)
}
