package libvmnshuffle

import (
	"crypto/cipher"

	"github.com/ldsec/vmnverify/lib/arithm"
	"github.com/ldsec/vmnverify/lib/bytetree"
	"github.com/ldsec/vmnverify/lib/transcript"
)

// Structs
//______________________________________________________________________________________________________________________

// Witness is the secret state of a mix server for one shuffle
type Witness struct {
	// Pi maps input positions to output positions
	Pi []int
	// S holds the re-encryption randomness of every input ciphertext
	S [][]*libvmnarithm.Scalar
	// R holds the randomness of the permutation commitment
	R []*libvmnarithm.Scalar
}

// Proof is a shuffle together with the artifacts proving it
type Proof struct {
	Input   libvmnarithm.CipherVector
	Output  libvmnarithm.CipherVector
	Witness *Witness

	PermutationCommitment []*libvmnarithm.Element
	Commitment            *libvmntranscript.Commitment
	Response              *libvmntranscript.Response
	// Challenges is only set when challenges are supplied
	Challenges *libvmntranscript.SuppliedChallenges

	Nodes map[libvmntranscript.Role]*libvmnbytetree.Node
}

// GenKey creates an ElGamal key pair
func GenKey(G *libvmnarithm.ModPGroup, rand cipher.Stream) (*libvmnarithm.Scalar, *libvmnarithm.PublicKey) {
	x := RandomScalar(G.Field(), rand)
	return x, &libvmnarithm.PublicKey{G: G.Generator(), Y: G.Generator().Exp(x)}
}

// Conversion
//______________________________________________________________________________________________________________________

// Files returns the serialized artifacts of the proof
func (p *Proof) Files() map[libvmntranscript.Role][]byte {
	files := make(map[libvmntranscript.Role][]byte, len(p.Nodes))
	for role, n := range p.Nodes {
		files[role] = libvmnbytetree.Encode(n)
	}
	return files
}

// NodesWithout returns a copy of the artifact nodes with the given roles removed
func (p *Proof) NodesWithout(roles ...libvmntranscript.Role) map[libvmntranscript.Role]*libvmnbytetree.Node {
	nodes := make(map[libvmntranscript.Role]*libvmnbytetree.Node, len(p.Nodes))
	for role, n := range p.Nodes {
		nodes[role] = n
	}
	for _, role := range roles {
		delete(nodes, role)
	}
	return nodes
}
