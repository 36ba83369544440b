package libvmntranscript

import (
	"github.com/ldsec/vmnverify/lib/arithm"
	"github.com/ldsec/vmnverify/lib/bytetree"
	"golang.org/x/xerrors"
)

// CommitmentFromByteTree decodes τ = node(B, A', B', C', D', F')
func CommitmentFromByteTree(G *libvmnarithm.ModPGroup, n *libvmnbytetree.Node, w int) (*Commitment, error) {
	if err := n.ExpectChildren(6); err != nil {
		return nil, xerrors.Errorf("proof commitment: %w", err)
	}

	c := &Commitment{}
	var err error
	if c.B, err = G.ElementsFromByteTree(n.Children[0]); err != nil {
		return nil, xerrors.Errorf("B: %w", err)
	}
	if c.AP, err = G.ElementFromByteTree(n.Children[1]); err != nil {
		return nil, xerrors.Errorf("A': %w", err)
	}
	if c.BP, err = G.ElementsFromByteTree(n.Children[2]); err != nil {
		return nil, xerrors.Errorf("B': %w", err)
	}
	if c.CP, err = G.ElementFromByteTree(n.Children[3]); err != nil {
		return nil, xerrors.Errorf("C': %w", err)
	}
	if c.DP, err = G.ElementFromByteTree(n.Children[4]); err != nil {
		return nil, xerrors.Errorf("D': %w", err)
	}
	if c.FP, err = G.CiphertextFromByteTree(n.Children[5], w); err != nil {
		return nil, xerrors.Errorf("F': %w", err)
	}
	return c, nil
}

// ByteTree encodes the commitment
func (c *Commitment) ByteTree(G *libvmnarithm.ModPGroup) *libvmnbytetree.Node {
	return libvmnbytetree.NewTree(
		G.ElementsToByteTree(c.B),
		G.ElementToByteTree(c.AP),
		G.ElementsToByteTree(c.BP),
		G.ElementToByteTree(c.CP),
		G.ElementToByteTree(c.DP),
		G.CiphertextToByteTree(c.FP),
	)
}

// ResponseFromByteTree decodes σ = node(k_A, k_B, k_C, k_D, k_E, k_F), k_F having w components
func ResponseFromByteTree(F *libvmnarithm.Field, n *libvmnbytetree.Node, w int) (*Response, error) {
	if err := n.ExpectChildren(6); err != nil {
		return nil, xerrors.Errorf("proof response: %w", err)
	}

	r := &Response{}
	var err error
	if r.KA, err = F.ScalarFromByteTree(n.Children[0]); err != nil {
		return nil, xerrors.Errorf("k_A: %w", err)
	}
	if r.KB, err = F.ScalarsFromByteTree(n.Children[1]); err != nil {
		return nil, xerrors.Errorf("k_B: %w", err)
	}
	if r.KC, err = F.ScalarFromByteTree(n.Children[2]); err != nil {
		return nil, xerrors.Errorf("k_C: %w", err)
	}
	if r.KD, err = F.ScalarFromByteTree(n.Children[3]); err != nil {
		return nil, xerrors.Errorf("k_D: %w", err)
	}
	if r.KE, err = F.ScalarsFromByteTree(n.Children[4]); err != nil {
		return nil, xerrors.Errorf("k_E: %w", err)
	}
	if r.KF, err = F.ProductScalarFromByteTree(n.Children[5], w); err != nil {
		return nil, xerrors.Errorf("k_F: %w", err)
	}
	return r, nil
}

// ByteTree encodes the response
func (r *Response) ByteTree(F *libvmnarithm.Field) *libvmnbytetree.Node {
	return libvmnbytetree.NewTree(
		F.ScalarToByteTree(r.KA),
		F.ScalarsToByteTree(r.KB),
		F.ScalarToByteTree(r.KC),
		F.ScalarToByteTree(r.KD),
		F.ScalarsToByteTree(r.KE),
		F.ProductScalarToByteTree(r.KF),
	)
}

// ChallengesFromByteTree decodes node(seed, v)
func ChallengesFromByteTree(F *libvmnarithm.Field, n *libvmnbytetree.Node) (*SuppliedChallenges, error) {
	if err := n.ExpectChildren(2); err != nil {
		return nil, xerrors.Errorf("challenges: %w", err)
	}
	if err := n.Children[0].ExpectLeaf(); err != nil {
		return nil, xerrors.Errorf("batching seed: %w", err)
	}
	v, err := F.ScalarFromByteTree(n.Children[1])
	if err != nil {
		return nil, xerrors.Errorf("challenge: %w", err)
	}
	seed := make([]byte, len(n.Children[0].Data))
	copy(seed, n.Children[0].Data)
	return &SuppliedChallenges{Seed: seed, V: v}, nil
}

// ByteTree encodes the supplied challenges
func (c *SuppliedChallenges) ByteTree(F *libvmnarithm.Field) *libvmnbytetree.Node {
	return libvmnbytetree.NewTree(libvmnbytetree.NewLeaf(c.Seed), F.ScalarToByteTree(c.V))
}
