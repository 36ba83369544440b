package libvmnchecks

import (
	"sync/atomic"

	"github.com/ldsec/vmnverify/lib"
	"github.com/ldsec/vmnverify/lib/arithm"
	"github.com/ldsec/vmnverify/lib/challenge"
	"github.com/ldsec/vmnverify/lib/transcript"
	"go.dedis.ch/onet/v3/log"
	"golang.org/x/xerrors"
)

// Input is what every check reads. Challenge and Generators are nil when SetupErr is set.
type Input struct {
	Transcript *libvmntranscript.Transcript
	Generators []*libvmnarithm.Element
	Challenge  *libvmnchallenge.Challenge
	SetupErr   error
}

// Definition describes a check: the equation it evaluates and the artifacts it needs
type Definition struct {
	Label    Label
	Equation string
	Required []libvmntranscript.Role
	Eval     func(in *Input) *Result
}

// Definitions lists the checks in report order
var Definitions = []Definition{
	{
		Label:    LabelA,
		Equation: `A^v A' = g^{k_A} \prod_i h_i^{k_{E,i}}`,
		Required: []libvmntranscript.Role{libvmntranscript.PermutationCommitment, libvmntranscript.ProofCommitment, libvmntranscript.ProofResponse},
		Eval:     CheckA,
	},
	{
		Label:    LabelB,
		Equation: `B_i^v B'_i = g^{k_{B,i}} B_{i-1}^{k_{E,i}}`,
		Required: []libvmntranscript.Role{libvmntranscript.ProofCommitment, libvmntranscript.ProofResponse},
		Eval:     CheckB,
	},
	{
		Label:    LabelC,
		Equation: `C^v C' = g^{k_C}`,
		Required: []libvmntranscript.Role{libvmntranscript.PermutationCommitment, libvmntranscript.ProofCommitment, libvmntranscript.ProofResponse},
		Eval:     CheckC,
	},
	{
		Label:    LabelD,
		Equation: `D^v D' = g^{k_D}`,
		Required: []libvmntranscript.Role{libvmntranscript.ProofCommitment, libvmntranscript.ProofResponse},
		Eval:     CheckD,
	},
	{
		Label:    LabelF,
		Equation: `F^v F' = \mathsf{Enc}_{pk}(1, -k_F) \prod_i {w'_i}^{k_{E,i}}`,
		Required: []libvmntranscript.Role{libvmntranscript.Ciphertexts, libvmntranscript.ShuffledCiphertexts, libvmntranscript.PublicKey, libvmntranscript.ProofCommitment, libvmntranscript.ProofResponse},
		Eval:     CheckF,
	},
}

// Lookup returns the definition of a check
func Lookup(label Label) (Definition, bool) {
	for _, def := range Definitions {
		if def.Label == label {
			return def, true
		}
	}
	return Definition{}, false
}

// Run evaluates one check. Its own artifacts are required first, so a check missing one of them is undefined
// whatever happened to the challenge.
func Run(def Definition, in *Input) *Result {
	timer := libvmn.StartTimer("Check " + string(def.Label))
	defer libvmn.EndTimer(timer)

	var res *Result
	if err := in.Transcript.Require(def.Required...); err != nil {
		res = fromError(def.Label, err)
	} else if in.SetupErr != nil {
		res = fromError(def.Label, xerrors.Errorf("challenge: %w", in.SetupErr))
	} else if len(in.Challenge.E) == 0 {
		res = fromError(def.Label, xerrors.Errorf("empty shuffle: %w", libvmnarithm.ErrOutOfRange))
	} else {
		res = def.Eval(in)
	}

	switch res.Status {
	case Valid:
		log.Lvl2("Check", def.Label, "is valid")
	case Undefined:
		log.Warn("Check", def.Label, "is undefined:", res.Reason())
	default:
		log.Error("Check", def.Label, "is invalid:", res.Reason())
	}
	return res
}

func expectLength(name string, got, n int) error {
	if got != n {
		return xerrors.Errorf("%s has %d components instead of %d: %w", name, got, n, libvmnarithm.ErrOutOfRange)
	}
	return nil
}

// Checks
//______________________________________________________________________________________________________________________

// CheckA verifies A^v A' = g^k_A ∏ h_i^k_E,i with A = ∏ u_i^e_i
func CheckA(in *Input) *Result {
	t, c := in.Transcript, in.Challenge
	G := t.Group
	n := len(c.E)
	tau, sigma := t.ProofCommitment, t.ProofResponse

	for _, err := range []error{
		expectLength("u", len(t.PermutationCommitment), n),
		expectLength("h", len(in.Generators), n),
		expectLength("k_E", len(sigma.KE), n),
	} {
		if err != nil {
			return fromError(LabelA, err)
		}
	}

	A, err := G.ExpProd(t.PermutationCommitment, c.E)
	if err != nil {
		return fromError(LabelA, err)
	}
	hProd, err := G.ExpProd(in.Generators, sigma.KE)
	if err != nil {
		return fromError(LabelA, err)
	}

	lhs := A.Exp(c.V).Mul(tau.AP)
	rhs := G.Generator().Exp(sigma.KA).Mul(hProd)
	if !lhs.Equal(rhs) {
		return mismatch(LabelA, xerrors.Errorf("A^v A' differs from g^k_A prod h_i^k_E,i: %w", libvmnarithm.ErrArithmeticMismatch),
			[]*libvmnarithm.Element{lhs}, []*libvmnarithm.Element{rhs})
	}
	return valid(LabelA)
}

// CheckB verifies B_i^v B'_i = g^k_B,i B_{i-1}^k_E,i for every i, with B_0 = h_0. A single failing index makes the
// whole check invalid.
func CheckB(in *Input) *Result {
	t, c := in.Transcript, in.Challenge
	G := t.Group
	n := len(c.E)
	tau, sigma := t.ProofCommitment, t.ProofResponse

	for _, err := range []error{
		expectLength("B", len(tau.B), n),
		expectLength("B'", len(tau.BP), n),
		expectLength("k_B", len(sigma.KB), n),
		expectLength("k_E", len(sigma.KE), n),
		expectLength("h", len(in.Generators), n),
	} {
		if err != nil {
			return fromError(LabelB, err)
		}
	}

	g := G.Generator()
	failures := make([]bool, n)
	var count int32
	_ = libvmn.ForChunks(n, func(start, end int) error {
		for i := start; i < end; i++ {
			prev := in.Generators[0]
			if i > 0 {
				prev = tau.B[i-1]
			}
			lhs := tau.B[i].Exp(c.V).Mul(tau.BP[i])
			rhs := g.Exp(sigma.KB[i]).Mul(prev.Exp(sigma.KE[i]))
			if !lhs.Equal(rhs) {
				failures[i] = true
				atomic.AddInt32(&count, 1)
			}
		}
		return nil
	})
	if count == 0 {
		return valid(LabelB)
	}

	first := 0
	for !failures[first] {
		first++
	}
	prev := in.Generators[0]
	if first > 0 {
		prev = tau.B[first-1]
	}
	lhs := tau.B[first].Exp(c.V).Mul(tau.BP[first])
	rhs := g.Exp(sigma.KB[first]).Mul(prev.Exp(sigma.KE[first]))

	res := mismatch(LabelB, xerrors.Errorf("%d of %d equations fail, first at index %d: %w", count, n, first, libvmnarithm.ErrArithmeticMismatch),
		[]*libvmnarithm.Element{lhs}, []*libvmnarithm.Element{rhs})
	res.Index = first
	res.Failures = int(count)
	return res
}

// CheckC verifies C^v C' = g^k_C with C = ∏ u_i / ∏ h_i
func CheckC(in *Input) *Result {
	t, c := in.Transcript, in.Challenge
	G := t.Group
	n := len(c.E)

	for _, err := range []error{
		expectLength("u", len(t.PermutationCommitment), n),
		expectLength("h", len(in.Generators), n),
	} {
		if err != nil {
			return fromError(LabelC, err)
		}
	}

	C := G.Prod(t.PermutationCommitment).Div(G.Prod(in.Generators))
	lhs := C.Exp(c.V).Mul(t.ProofCommitment.CP)
	rhs := G.Generator().Exp(t.ProofResponse.KC)
	if !lhs.Equal(rhs) {
		return mismatch(LabelC, xerrors.Errorf("C^v C' differs from g^k_C: %w", libvmnarithm.ErrArithmeticMismatch),
			[]*libvmnarithm.Element{lhs}, []*libvmnarithm.Element{rhs})
	}
	return valid(LabelC)
}

// CheckD verifies D^v D' = g^k_D with D = B_N / h_0^(∏ e_i)
func CheckD(in *Input) *Result {
	t, c := in.Transcript, in.Challenge
	G := t.Group
	n := len(c.E)
	tau := t.ProofCommitment

	for _, err := range []error{
		expectLength("B", len(tau.B), n),
		expectLength("h", len(in.Generators), n),
	} {
		if err != nil {
			return fromError(LabelD, err)
		}
	}

	D := tau.B[n-1].Div(in.Generators[0].Exp(G.Field().Product(c.E)))
	lhs := D.Exp(c.V).Mul(tau.DP)
	rhs := G.Generator().Exp(t.ProofResponse.KD)
	if !lhs.Equal(rhs) {
		return mismatch(LabelD, xerrors.Errorf("D^v D' differs from g^k_D: %w", libvmnarithm.ErrArithmeticMismatch),
			[]*libvmnarithm.Element{lhs}, []*libvmnarithm.Element{rhs})
	}
	return valid(LabelD)
}

// CheckF verifies F^v F' = Enc_pk(1, -k_F) ∏ w'_i^k_E,i with F = ∏ w_i^e_i
func CheckF(in *Input) *Result {
	t, c := in.Transcript, in.Challenge
	G := t.Group
	n := len(c.E)
	sigma := t.ProofResponse

	for _, err := range []error{
		expectLength("w", len(t.Ciphertexts), n),
		expectLength("w'", len(t.ShuffledCiphertexts), n),
		expectLength("k_E", len(sigma.KE), n),
		expectLength("k_F", len(sigma.KF), t.Width),
		expectLength("F'", t.ProofCommitment.FP.Width(), t.Width),
	} {
		if err != nil {
			return fromError(LabelF, err)
		}
	}

	F, err := G.ExpProdCiphertexts(t.Ciphertexts, c.E)
	if err != nil {
		return fromError(LabelF, err)
	}
	wpProd, err := G.ExpProdCiphertexts(t.ShuffledCiphertexts, sigma.KE)
	if err != nil {
		return fromError(LabelF, err)
	}

	negKF := make([]*libvmnarithm.Scalar, len(sigma.KF))
	for j, k := range sigma.KF {
		negKF[j] = k.Neg()
	}

	lhs, err := F.Exp(c.V).Mul(t.ProofCommitment.FP)
	if err != nil {
		return fromError(LabelF, err)
	}
	rhs, err := t.PublicKey.EncryptOne(negKF).Mul(wpProd)
	if err != nil {
		return fromError(LabelF, err)
	}
	if !lhs.Equal(rhs) {
		return mismatch(LabelF, xerrors.Errorf("F^v F' differs from Enc(1, -k_F) prod w'_i^k_E,i: %w", libvmnarithm.ErrArithmeticMismatch),
			append(lhs.U, lhs.V...), append(rhs.U, rhs.V...))
	}
	return valid(LabelF)
}
