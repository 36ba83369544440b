package libvmnverifier_test

import (
	"sync/atomic"
	"testing"

	"github.com/ldsec/vmnverify/lib"
	"github.com/ldsec/vmnverify/lib/arithm"
	"github.com/ldsec/vmnverify/lib/bytetree"
	"github.com/ldsec/vmnverify/lib/checks"
	"github.com/ldsec/vmnverify/lib/dataset"
	"github.com/ldsec/vmnverify/lib/params"
	"github.com/ldsec/vmnverify/lib/shuffle"
	"github.com/ldsec/vmnverify/lib/transcript"
	"github.com/ldsec/vmnverify/lib/verifier"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.dedis.ch/kyber/v3/util/random"
	"go.dedis.ch/onet/v3/log"
)

func TestMain(m *testing.M) {
	log.MainTest(m)
}

func newChain(t *testing.T, mode libvmnparams.ChallengeMode, n, parties, w int) (*libvmnshuffle.MixChain, *libvmnverifier.Verifier) {
	pp, err := libvmnshuffle.TestParameters(mode, w)
	require.NoError(t, err)
	chain, err := libvmnshuffle.NewMixChain(pp, n, parties, random.New())
	require.NoError(t, err)
	v, err := libvmnverifier.NewVerifier(pp)
	require.NoError(t, err)
	return chain, v
}

func statuses(report *libvmnverifier.VerdictReport) string {
	s := ""
	for _, res := range report.Results {
		s += res.Status.String()[:1]
	}
	return s
}

func TestVerify(t *testing.T) {
	for _, mode := range []libvmnparams.ChallengeMode{libvmnparams.FiatShamir, libvmnparams.Supplied} {
		for _, w := range []int{1, 3} {
			chain, v := newChain(t, mode, 6, 1, w)
			proof := chain.Proofs[0]

			report := v.VerifyDataset(proof.Files())
			assert.True(t, report.Verdict)
			assert.Equal(t, libvmnchecks.Valid, report.Status())
			assert.Equal(t, "VVVVV", statuses(report))
			assert.Equal(t, 6, report.Size)
			assert.Equal(t, 0, report.Party)
			assert.Equal(t, mode, report.Mode)
			assert.NotEmpty(t, report.Challenge)
			assert.Equal(t, "Valid [V, V, V, V, V]", report.String())
			for i, label := range libvmnchecks.Labels {
				assert.Equal(t, label, report.Results[i].Label)
				assert.Equal(t, report.Results[i], report.Result(label))
			}
		}
	}
}

func TestVerifyDeterminism(t *testing.T) {
	for _, parallel := range []bool{true, false} {
		libvmn.PARALLELIZE = parallel
		chain, v := newChain(t, libvmnparams.FiatShamir, 5, 1, 1)
		files := chain.Proofs[0].Files()

		first := v.VerifyDataset(files)
		second := v.VerifyDataset(files)
		assert.Equal(t, first.ID, second.ID)
		assert.Equal(t, first.Challenge, second.Challenge)
		assert.Equal(t, statuses(first), statuses(second))

		// an independent verifier derives the same challenge
		other, err := libvmnverifier.NewVerifier(v.Params())
		require.NoError(t, err)
		assert.Equal(t, first.Challenge, other.VerifyDataset(files).Challenge)
	}
	libvmn.PARALLELIZE = true
}

func swapOutputs(t *testing.T, chain *libvmnshuffle.MixChain) map[libvmntranscript.Role][]byte {
	proof := chain.Proofs[0]
	G := chain.Params.Group
	swapped := libvmnarithm.CipherVector{proof.Output[1], proof.Output[0]}
	files := proof.Files()
	files[libvmntranscript.ShuffledCiphertexts] = libvmnbytetree.Encode(G.CiphertextsToByteTree(swapped, chain.Params.Info.Width))
	return files
}

func TestSwappedOutputs(t *testing.T) {
	// the responses were computed for the original order
	chain, v := newChain(t, libvmnparams.Supplied, 2, 1, 1)
	assert.True(t, v.VerifyDataset(chain.Proofs[0].Files()).Verdict)

	report := v.VerifyDataset(swapOutputs(t, chain))
	assert.False(t, report.Verdict)
	assert.Equal(t, "VVVVI", statuses(report))
	assert.Equal(t, "ArithmeticMismatch", report.Result(libvmnchecks.LabelF).Kind())

	// the output list is hashed into the Fiat-Shamir challenge, which changes every equation
	chain, v = newChain(t, libvmnparams.FiatShamir, 2, 1, 1)
	report = v.VerifyDataset(swapOutputs(t, chain))
	assert.Equal(t, "IIIII", statuses(report))
	assert.Equal(t, libvmnchecks.Invalid, report.Status())
}

func TestMissingFiles(t *testing.T) {
	chain, v := newChain(t, libvmnparams.Supplied, 3, 1, 1)
	files := chain.Proofs[0].Files()
	delete(files, libvmntranscript.ShuffledCiphertexts)

	report := v.VerifyDataset(files)
	assert.False(t, report.Verdict)
	assert.Equal(t, libvmnchecks.Undefined, report.Status())
	assert.Equal(t, "VVVVU", statuses(report))
	assert.Contains(t, report.String(), "F: Undefined (MissingArtifact")

	report = v.VerifyDataset(map[libvmntranscript.Role][]byte{})
	assert.Equal(t, "UUUUU", statuses(report))
	assert.Equal(t, -1, report.Size)
	assert.Empty(t, report.Challenge)

	chain, v = newChain(t, libvmnparams.FiatShamir, 3, 1, 1)
	files = chain.Proofs[0].Files()
	delete(files, libvmntranscript.PublicKey)
	assert.Equal(t, "UUUUU", statuses(v.VerifyDataset(files)))
}

func TestMalformedFiles(t *testing.T) {
	chain, v := newChain(t, libvmnparams.Supplied, 3, 1, 1)
	files := chain.Proofs[0].Files()
	files[libvmntranscript.ProofCommitment] = append(files[libvmntranscript.ProofCommitment], 0)

	report := v.VerifyDataset(files)
	assert.Equal(t, "IIIII", statuses(report))
	assert.Equal(t, "MalformedTree", report.Result(libvmnchecks.LabelC).Kind())

	// the other files are still checked
	files = chain.Proofs[0].Files()
	files[libvmntranscript.PublicKey] = []byte{0x01, 0x00}
	report = v.VerifyDataset(files)
	assert.Equal(t, "VVVVI", statuses(report))
	assert.Equal(t, "MalformedTree", report.Result(libvmnchecks.LabelF).Kind())
}

// flipBit flips one of the low bits of a response leaf
func flipBit(leaf *libvmnbytetree.Node, bit int) *libvmnbytetree.Node {
	data := append([]byte(nil), leaf.Data...)
	data[len(data)-1] ^= 1 << uint(bit%8)
	return libvmnbytetree.NewLeaf(data)
}

func TestBitFlips(t *testing.T) {
	for _, mode := range []libvmnparams.ChallengeMode{libvmnparams.FiatShamir, libvmnparams.Supplied} {
		chain, v := newChain(t, mode, 3, 1, 1)
		proof := chain.Proofs[0]
		G := chain.Params.Group

		cases := []struct {
			flip     func(sigma *libvmnbytetree.Node, bit int)
			expected string
		}{
			{func(sigma *libvmnbytetree.Node, bit int) { sigma.Children[0] = flipBit(sigma.Children[0], bit) }, "IVVVV"},
			{func(sigma *libvmnbytetree.Node, bit int) {
				kB := libvmnbytetree.NewTree(sigma.Children[1].Children...)
				kB.Children[bit%3] = flipBit(kB.Children[bit%3], bit)
				sigma.Children[1] = kB
			}, "VIVVV"},
			{func(sigma *libvmnbytetree.Node, bit int) { sigma.Children[2] = flipBit(sigma.Children[2], bit) }, "VVIVV"},
			{func(sigma *libvmnbytetree.Node, bit int) { sigma.Children[3] = flipBit(sigma.Children[3], bit) }, "VVVIV"},
			{func(sigma *libvmnbytetree.Node, bit int) { sigma.Children[5] = flipBit(sigma.Children[5], bit) }, "VVVVI"},
		}
		for i, c := range cases {
			bit := int(random.Bits(3, false, random.New())[0])
			original := proof.Response.ByteTree(G.Field())
			sigma := libvmnbytetree.NewTree(original.Children...)
			c.flip(sigma, bit)

			files := proof.Files()
			files[libvmntranscript.ProofResponse] = libvmnbytetree.Encode(sigma)
			assert.Equal(t, c.expected, statuses(v.VerifyDataset(files)), "case %d, bit %d", i, bit)
		}
	}
}

func TestGenerators(t *testing.T) {
	chain, v := newChain(t, libvmnparams.FiatShamir, 4, 1, 1)
	pp := chain.Params

	h, err := v.Generators(4)
	require.NoError(t, err)
	cached, err := v.Generators(4)
	require.NoError(t, err)
	assert.Equal(t, h, cached)

	// configured generators equal to the derived ones
	fixed, err := libvmnparams.New(pp.Info, pp.Group, h)
	require.NoError(t, err)
	fv, err := libvmnverifier.NewVerifier(fixed)
	require.NoError(t, err)
	assert.True(t, fv.VerifyDataset(chain.Proofs[0].Files()).Verdict)

	// too few generators for the proof
	fixed, err = libvmnparams.New(pp.Info, pp.Group, h[:3])
	require.NoError(t, err)
	fv, err = libvmnverifier.NewVerifier(fixed)
	require.NoError(t, err)
	report := fv.VerifyDataset(chain.Proofs[0].Files())
	assert.Equal(t, "UUUUU", statuses(report))
	assert.Equal(t, "Unavailable", report.Result(libvmnchecks.LabelA).Kind())

	_, err = libvmnverifier.NewVerifier(nil)
	assert.Error(t, err)
}

func TestVerifyChain(t *testing.T) {
	chain, v := newChain(t, libvmnparams.FiatShamir, 4, 3, 2)

	var verified int32
	report := v.VerifyChain(chain.Dataset(), func(int) { atomic.AddInt32(&verified, 1) })
	assert.Equal(t, int32(3), verified)
	assert.True(t, report.Verdict)
	assert.Equal(t, libvmnchecks.Valid, report.Status())
	assert.Equal(t, "TestSession.default", report.Session)
	require.Len(t, report.Reports, 3)
	for i, r := range report.Reports {
		assert.Equal(t, i+1, r.Party)
		assert.True(t, r.Verdict)
	}

	ds := chain.Dataset()
	second := v.VerifyParty(2, ds.PartyFiles(2))
	assert.Equal(t, 2, second.Party)
	assert.Equal(t, report.Reports[1].ID, second.ID)
	assert.Equal(t, "VVVVV", statuses(second))

	// the second party's response is replaced by the first party's
	files := chain.Files()
	files["PoSReply02.bt"] = files["PoSReply01.bt"]
	report = v.VerifyChain(libvmndataset.New(files), nil)
	assert.False(t, report.Verdict)
	assert.Equal(t, libvmnchecks.Invalid, report.Status())
	assert.True(t, report.Reports[0].Verdict)
	assert.False(t, report.Reports[1].Verdict)
	assert.True(t, report.Reports[2].Verdict)

	// an intermediate list is lost: the proofs of both parties using it cannot be checked
	files = chain.Files()
	delete(files, "Ciphertexts01.bt")
	report = v.VerifyChain(libvmndataset.New(files), nil)
	assert.Equal(t, libvmnchecks.Undefined, report.Status())
	assert.Equal(t, libvmnchecks.Undefined, report.Reports[0].Status())
	assert.Equal(t, libvmnchecks.Undefined, report.Reports[1].Status())
	assert.Equal(t, libvmnchecks.Valid, report.Reports[2].Status())

	// no proof at all
	report = v.VerifyChain(libvmndataset.New(map[string][]byte{libvmndataset.PublicKeyFile: files[libvmndataset.PublicKeyFile]}), nil)
	require.Len(t, report.Reports, 1)
	assert.False(t, report.Verdict)
	assert.Equal(t, libvmnchecks.Undefined, report.Status())
}
