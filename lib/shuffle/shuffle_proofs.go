package libvmnshuffle

import (
	"crypto/cipher"

	"github.com/ldsec/vmnverify/lib/arithm"
	"github.com/ldsec/vmnverify/lib/bytetree"
	"github.com/ldsec/vmnverify/lib/challenge"
	"github.com/ldsec/vmnverify/lib/params"
	"github.com/ldsec/vmnverify/lib/transcript"
	"go.dedis.ch/kyber/v3/util/random"
	"go.dedis.ch/onet/v3/log"
	"golang.org/x/xerrors"
)

// Prover shuffles and proves shuffles for one session
type Prover struct {
	Params    *libvmnparams.PublicParameters
	Deriver   *libvmnchallenge.Deriver
	PublicKey *libvmnarithm.PublicKey
	Rand      cipher.Stream
}

// NewProver creates a prover for the session, using kyber's default random stream if rand is nil
func NewProver(pp *libvmnparams.PublicParameters, pk *libvmnarithm.PublicKey, rand cipher.Stream) (*Prover, error) {
	d, err := libvmnchallenge.NewDeriver(pp)
	if err != nil {
		return nil, err
	}
	if rand == nil {
		rand = random.New()
	}
	return &Prover{Params: pp, Deriver: d, PublicKey: pk, Rand: rand}, nil
}

// Generators returns h_1, ..., h_n, read from the parameters if they fix them
func (p *Prover) Generators(n int) ([]*libvmnarithm.Element, error) {
	if p.Params.Generators == nil {
		return p.Deriver.Generators(n), nil
	}
	if len(p.Params.Generators) < n {
		return nil, xerrors.Errorf("%d generators for %d ciphertexts", len(p.Params.Generators), n)
	}
	return p.Params.Generators[:n], nil
}

// Shuffle re-encrypts and permutes input and proves it
func (p *Prover) Shuffle(input libvmnarithm.CipherVector) (*Proof, error) {
	G := p.Params.Group
	output, pi, s, err := ShuffleSequence(G, p.PublicKey, input, p.Rand)
	if err != nil {
		return nil, err
	}
	return p.ShuffleProofCreation(input, output, &Witness{Pi: pi, S: s})
}

// ShuffleProofCreation commits to the permutation of the witness and proves that output is a re-encryption of
// input permuted by it. Witness.R is filled with fresh randomness if it is nil.
func (p *Prover) ShuffleProofCreation(input, output libvmnarithm.CipherVector, witness *Witness) (*Proof, error) {
	G := p.Params.Group
	F := G.Field()
	g := G.Generator()
	n := len(input)
	w := p.Params.Info.Width

	if len(output) != n || len(witness.Pi) != n || len(witness.S) != n {
		return nil, xerrors.Errorf("shuffle of %d ciphertexts with %d outputs: %w", n, len(output), libvmnarithm.ErrArithmeticMismatch)
	}
	if n == 0 {
		return nil, xerrors.New("nothing to shuffle")
	}

	h, err := p.Generators(n)
	if err != nil {
		return nil, err
	}

	// permutation commitment u_i = g^r_i h_pi(i)
	if witness.R == nil {
		witness.R = RandomScalarSlice(F, n, p.Rand)
	}
	u := make([]*libvmnarithm.Element, n)
	for i := 0; i < n; i++ {
		u[i] = g.Exp(witness.R[i]).Mul(h[witness.Pi[i]])
	}

	nodes := map[libvmntranscript.Role]*libvmnbytetree.Node{
		libvmntranscript.Ciphertexts:           G.CiphertextsToByteTree(input, w),
		libvmntranscript.ShuffledCiphertexts:   G.CiphertextsToByteTree(output, w),
		libvmntranscript.PermutationCommitment: G.ElementsToByteTree(u),
		libvmntranscript.PublicKey:             G.PublicKeyToByteTree(p.PublicKey),
	}

	// batching vector
	var seed []byte
	if p.Params.Mode == libvmnparams.Supplied {
		seed = make([]byte, p.Deriver.SeedLength())
		random.Bytes(seed, p.Rand)
	} else {
		seed, err = p.Deriver.Seed(libvmntranscript.Build(G, w, nodes), h)
		if err != nil {
			return nil, err
		}
	}
	e := p.Deriver.BatchingVector(seed, n)
	ep := make([]*libvmnarithm.Scalar, n)
	for i := 0; i < n; i++ {
		ep[witness.Pi[i]] = e[i]
	}

	// B_i = g^b_i B_{i-1}^e'_i with B_0 = h_0, so that B_i = g^d_i h_0^(e'_1...e'_i)
	b := RandomScalarSlice(F, n, p.Rand)
	B := make([]*libvmnarithm.Element, n)
	prev := h[0]
	d := F.Zero()
	for i := 0; i < n; i++ {
		B[i] = g.Exp(b[i]).Mul(prev.Exp(ep[i]))
		d = b[i].Add(ep[i].Mul(d))
		prev = B[i]
	}

	// commitment
	omegaA := RandomScalar(F, p.Rand)
	omegaE := RandomScalarSlice(F, n, p.Rand)
	beta := RandomScalarSlice(F, n, p.Rand)
	omegaC := RandomScalar(F, p.Rand)
	omegaD := RandomScalar(F, p.Rand)
	omegaF := RandomScalarSlice(F, w, p.Rand)

	hProd, err := G.ExpProd(h, omegaE)
	if err != nil {
		return nil, err
	}
	BP := make([]*libvmnarithm.Element, n)
	prev = h[0]
	for i := 0; i < n; i++ {
		BP[i] = g.Exp(beta[i]).Mul(prev.Exp(omegaE[i]))
		prev = B[i]
	}
	wpProd, err := G.ExpProdCiphertexts(output, omegaE)
	if err != nil {
		return nil, err
	}
	FP, err := p.PublicKey.EncryptOne(negate(omegaF)).Mul(wpProd)
	if err != nil {
		return nil, err
	}
	tau := &libvmntranscript.Commitment{
		B:  B,
		AP: g.Exp(omegaA).Mul(hProd),
		BP: BP,
		CP: g.Exp(omegaC),
		DP: g.Exp(omegaD),
		FP: FP,
	}
	nodes[libvmntranscript.ProofCommitment] = tau.ByteTree(G)

	// challenge
	proof := &Proof{Input: input, Output: output, Witness: witness, PermutationCommitment: u, Commitment: tau}
	var v *libvmnarithm.Scalar
	if p.Params.Mode == libvmnparams.Supplied {
		v = F.Reduce(random.Int(F.Order(), p.Rand))
		proof.Challenges = &libvmntranscript.SuppliedChallenges{Seed: seed, V: v}
		nodes[libvmntranscript.Challenges] = proof.Challenges.ByteTree(F)
	} else {
		v, err = p.Deriver.ChallengeFor(seed, libvmntranscript.Build(G, w, nodes))
		if err != nil {
			return nil, err
		}
	}

	// response
	re, err := F.InnerProduct(witness.R, e)
	if err != nil {
		return nil, err
	}
	sigma := &libvmntranscript.Response{
		KA: v.Mul(re).Add(omegaA),
		KB: make([]*libvmnarithm.Scalar, n),
		KC: v.Mul(F.Sum(witness.R)).Add(omegaC),
		KD: v.Mul(d).Add(omegaD),
		KE: make([]*libvmnarithm.Scalar, n),
		KF: make([]*libvmnarithm.Scalar, w),
	}
	for i := 0; i < n; i++ {
		sigma.KB[i] = v.Mul(b[i]).Add(beta[i])
		sigma.KE[i] = v.Mul(ep[i]).Add(omegaE[i])
	}
	for j := 0; j < w; j++ {
		se := F.Zero()
		for i := 0; i < n; i++ {
			se = se.Add(witness.S[i][j].Mul(e[i]))
		}
		sigma.KF[j] = v.Mul(se).Add(omegaF[j])
	}
	nodes[libvmntranscript.ProofResponse] = sigma.ByteTree(F)

	proof.Response = sigma
	proof.Nodes = nodes
	log.Lvl3("Proved shuffle of", n, "ciphertexts")
	return proof, nil
}

func negate(xs []*libvmnarithm.Scalar) []*libvmnarithm.Scalar {
	res := make([]*libvmnarithm.Scalar, len(xs))
	for i, x := range xs {
		res[i] = x.Neg()
	}
	return res
}
