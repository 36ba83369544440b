package libvmntranscript_test

import (
	"errors"
	"testing"

	"github.com/ldsec/vmnverify/lib/arithm"
	"github.com/ldsec/vmnverify/lib/bytetree"
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

func testProof(t *testing.T, mode libvmnparams.ChallengeMode, n, w int) *libvmnshuffle.Proof {
	pp, err := libvmnshuffle.TestParameters(mode, w)
	require.NoError(t, err)
	chain, err := libvmnshuffle.NewMixChain(pp, n, 1, random.New())
	require.NoError(t, err)
	return chain.Proofs[0]
}

func TestBuild(t *testing.T) {
	proof := testProof(t, libvmnparams.Supplied, 4, 2)
	pp, err := libvmnshuffle.TestParameters(libvmnparams.Supplied, 2)
	require.NoError(t, err)
	tr := libvmntranscript.Build(pp.Group, 2, proof.Nodes)
	require.NoError(t, tr.Complete())
	require.NoError(t, tr.Require(libvmntranscript.Challenges))
	assert.Equal(t, 4, tr.Size())

	assert.Len(t, tr.Ciphertexts, 4)
	assert.True(t, tr.Ciphertexts[2].Equal(proof.Input[2]))
	assert.True(t, tr.ShuffledCiphertexts[1].Equal(proof.Output[1]))
	assert.True(t, tr.PermutationCommitment[3].Equal(proof.PermutationCommitment[3]))
	assert.True(t, tr.ProofCommitment.AP.Equal(proof.Commitment.AP))
	assert.True(t, tr.ProofCommitment.FP.Equal(proof.Commitment.FP))
	assert.True(t, tr.ProofResponse.KF[1].Equal(proof.Response.KF[1]))
	assert.Equal(t, proof.Challenges.Seed, tr.Challenges.Seed)
	assert.True(t, tr.Challenges.V.Equal(proof.Challenges.V))

	for _, role := range libvmntranscript.Roles {
		n, err := tr.Node(role)
		require.NoError(t, err)
		assert.True(t, n.Equal(proof.Nodes[role]))
	}
}

func TestMissingArtifacts(t *testing.T) {
	proof := testProof(t, libvmnparams.FiatShamir, 3, 1)
	pp, err := libvmnshuffle.TestParameters(libvmnparams.FiatShamir, 1)
	require.NoError(t, err)

	tr := libvmntranscript.Build(pp.Group, 1, proof.NodesWithout(libvmntranscript.ProofResponse, libvmntranscript.PermutationCommitment))
	assert.False(t, tr.Present(libvmntranscript.ProofResponse))
	assert.Nil(t, tr.ProofResponse)
	assert.Equal(t, 3, tr.Size())

	var missing *libvmntranscript.MissingArtifactError
	err = tr.Require(libvmntranscript.Ciphertexts, libvmntranscript.ProofResponse)
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, libvmntranscript.ProofResponse, missing.Role)
	assert.EqualError(t, err, "missing artifact ProofResponse")

	_, err = tr.Node(libvmntranscript.PermutationCommitment)
	assert.True(t, errors.As(err, &missing))
	assert.Error(t, tr.Complete())
	assert.NoError(t, tr.Require(libvmntranscript.ProofCommitment, libvmntranscript.PublicKey))

	empty := libvmntranscript.Build(pp.Group, 1, nil)
	assert.Equal(t, -1, empty.Size())
}

func TestInvalidArtifacts(t *testing.T) {
	proof := testProof(t, libvmnparams.FiatShamir, 3, 1)
	pp, err := libvmnshuffle.TestParameters(libvmnparams.FiatShamir, 1)
	require.NoError(t, err)
	G := pp.Group

	files := proof.Files()
	// truncated file
	files[libvmntranscript.ProofCommitment] = files[libvmntranscript.ProofCommitment][:20]
	// p itself is out of range
	u := []*libvmnbytetree.Node{libvmnbytetree.BigIntToLeaf(G.P(), G.ElementByteLength())}
	files[libvmntranscript.PermutationCommitment] = libvmnbytetree.Encode(libvmnbytetree.NewTree(u...))

	tr := libvmntranscript.BuildFromBytes(G, 1, files)
	assert.True(t, tr.Present(libvmntranscript.ProofCommitment))
	assert.True(t, errors.Is(tr.Err(libvmntranscript.ProofCommitment), libvmnbytetree.ErrMalformedTree))
	_, err = tr.Node(libvmntranscript.ProofCommitment)
	assert.True(t, errors.Is(err, libvmnbytetree.ErrMalformedTree))
	assert.True(t, errors.Is(tr.Err(libvmntranscript.PermutationCommitment), libvmnarithm.ErrOutOfRange))

	// the raw node of an undecodable value is still available
	_, err = tr.Node(libvmntranscript.PermutationCommitment)
	assert.NoError(t, err)

	// absence is reported before invalidity
	var missing *libvmntranscript.MissingArtifactError
	err = tr.Require(libvmntranscript.ProofCommitment, libvmntranscript.Challenges)
	assert.True(t, errors.As(err, &missing))
	assert.NoError(t, tr.Err(libvmntranscript.ProofResponse))

	// wrong width
	tr = libvmntranscript.Build(G, 2, proof.Nodes)
	assert.Error(t, tr.Err(libvmntranscript.Ciphertexts))
	assert.Error(t, tr.Err(libvmntranscript.ProofResponse))
	assert.NoError(t, tr.Err(libvmntranscript.PermutationCommitment))
}

func TestSchemas(t *testing.T) {
	proof := testProof(t, libvmnparams.Supplied, 3, 2)
	pp, err := libvmnshuffle.TestParameters(libvmnparams.Supplied, 2)
	require.NoError(t, err)
	G := pp.Group

	c, err := libvmntranscript.CommitmentFromByteTree(G, proof.Commitment.ByteTree(G), 2)
	require.NoError(t, err)
	assert.True(t, c.B[2].Equal(proof.Commitment.B[2]))
	assert.True(t, c.DP.Equal(proof.Commitment.DP))

	r, err := libvmntranscript.ResponseFromByteTree(G.Field(), proof.Response.ByteTree(G.Field()), 2)
	require.NoError(t, err)
	assert.True(t, r.KD.Equal(proof.Response.KD))
	assert.Len(t, r.KF, 2)

	_, err = libvmntranscript.ResponseFromByteTree(G.Field(), proof.Commitment.ByteTree(G), 2)
	assert.Error(t, err)
	_, err = libvmntranscript.CommitmentFromByteTree(G, libvmnbytetree.NewTree(), 2)
	assert.True(t, errors.Is(err, libvmnbytetree.ErrMalformedTree))
	_, err = libvmntranscript.ChallengesFromByteTree(G.Field(), libvmnbytetree.NewTree(libvmnbytetree.NewTree(), libvmnbytetree.NewLeaf([]byte{1})))
	assert.Error(t, err)
}
