package libvmnshuffle

import (
	"crypto/cipher"
	"math/big"

	"github.com/ldsec/vmnverify/lib/arithm"
	"github.com/ldsec/vmnverify/lib/bytetree"
	"github.com/ldsec/vmnverify/lib/dataset"
	"github.com/ldsec/vmnverify/lib/params"
	"github.com/ldsec/vmnverify/lib/transcript"
	"go.dedis.ch/onet/v3/log"
	"golang.org/x/xerrors"
)

// 256-bit safe prime p = 2q + 1, 4 generating the subgroup of order q
const (
	testP = "aadd62ffa82074a2fb7950b61a0f134bd83250ddf12227d3c9978ad622f65a93"
	testQ = "556eb17fd4103a517dbca85b0d0789a5ec19286ef89113e9e4cbc56b117b2d49"
)

// TestParameters returns parameters of a small session on a 256-bit group, fast enough for tests. Batching
// vectors and challenges have 128 bits.
func TestParameters(mode libvmnparams.ChallengeMode, width int) (*libvmnparams.PublicParameters, error) {
	p, _ := new(big.Int).SetString(testP, 16)
	q, _ := new(big.Int).SetString(testQ, 16)
	G, err := libvmnarithm.NewModPGroup(p, q, big.NewInt(4))
	if err != nil {
		return nil, err
	}
	info := libvmnparams.DefaultProtocolInfo()
	info.SID = "TestSession"
	info.Width = width
	info.VBitLenRO = 128
	info.EBitLenRO = 128
	info.Challenge = mode.String()
	return libvmnparams.New(info, G, nil)
}

// MixChain is a session where every party shuffles the output of the previous one
type MixChain struct {
	Params     *libvmnparams.PublicParameters
	PrivateKey *libvmnarithm.Scalar
	PublicKey  *libvmnarithm.PublicKey
	Input      libvmnarithm.CipherVector
	Proofs     []*Proof
}

// NewMixChain encrypts n random plaintexts and lets parties mix servers shuffle them in turn
func NewMixChain(pp *libvmnparams.PublicParameters, n, parties int, rand cipher.Stream) (*MixChain, error) {
	if parties < 1 {
		return nil, xerrors.New("a mix chain needs at least one party")
	}
	G := pp.Group
	x, pk := GenKey(G, rand)
	prover, err := NewProver(pp, pk, rand)
	if err != nil {
		return nil, err
	}
	input, err := RandomCiphertexts(G, pk, n, pp.Info.Width, rand)
	if err != nil {
		return nil, err
	}

	chain := &MixChain{Params: pp, PrivateKey: x, PublicKey: pk, Input: input}
	list := input
	for l := 1; l <= parties; l++ {
		proof, err := prover.Shuffle(list)
		if err != nil {
			return nil, xerrors.Errorf("party %d: %w", l, err)
		}
		chain.Proofs = append(chain.Proofs, proof)
		list = proof.Output
	}
	log.Lvl2("Mixed", n, "ciphertexts through", parties, "parties")
	return chain, nil
}

// Output is the list of ciphertexts of the last party
func (c *MixChain) Output() libvmnarithm.CipherVector {
	return c.Proofs[len(c.Proofs)-1].Output
}

// Files names the artifacts of every party the way a mix-net session stores them
func (c *MixChain) Files() map[string][]byte {
	last := len(c.Proofs)
	files := make(map[string][]byte)
	for i, proof := range c.Proofs {
		l := i + 1
		nodes := proof.Nodes
		if l == 1 {
			files[libvmndataset.PublicKeyFile] = libvmnbytetree.Encode(nodes[libvmntranscript.PublicKey])
			files[libvmndataset.CiphertextsFile] = libvmnbytetree.Encode(nodes[libvmntranscript.Ciphertexts])
		}
		if l == last {
			files[libvmndataset.ShuffledCiphertextsFile] = libvmnbytetree.Encode(nodes[libvmntranscript.ShuffledCiphertexts])
		} else {
			files[libvmndataset.PartyFileName(libvmndataset.CiphertextsPrefix, l)] = libvmnbytetree.Encode(nodes[libvmntranscript.ShuffledCiphertexts])
		}
		files[libvmndataset.PartyFileName(libvmndataset.PermutationCommitmentPrefix, l)] = libvmnbytetree.Encode(nodes[libvmntranscript.PermutationCommitment])
		files[libvmndataset.PartyFileName(libvmndataset.ProofCommitmentPrefix, l)] = libvmnbytetree.Encode(nodes[libvmntranscript.ProofCommitment])
		files[libvmndataset.PartyFileName(libvmndataset.ProofResponsePrefix, l)] = libvmnbytetree.Encode(nodes[libvmntranscript.ProofResponse])
		if n, ok := nodes[libvmntranscript.Challenges]; ok {
			files[libvmndataset.PartyFileName(libvmndataset.ChallengesPrefix, l)] = libvmnbytetree.Encode(n)
		}
	}
	return files
}

// Dataset returns the files of the session as a dataset
func (c *MixChain) Dataset() *libvmndataset.Dataset {
	return libvmndataset.New(c.Files())
}
