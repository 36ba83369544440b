// Package libvmnarithm contains the algebraic domain of the verifier: the subgroup of prime order q of the
// multiplicative group modulo a prime p, its scalar field Z_q, and the extended ElGamal cryptosystem of width w
// over the group. Residues are kept in kyber mod.Int values.
package libvmnarithm

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ldsec/vmnverify/lib"
	"go.dedis.ch/kyber/v3/group/mod"
	"golang.org/x/xerrors"
)

// Error kinds of the algebraic domain
var (
	// ErrNotInGroup is returned for a residue that is not in the subgroup of order q
	ErrNotInGroup = errors.New("not in group")
	// ErrNotInField is returned for an integer outside [0, q)
	ErrNotInField = errors.New("not in field")
	// ErrOutOfRange is returned for a residue outside [1, p) or for vectors of unexpected length
	ErrOutOfRange = errors.New("out of range")
	// ErrArithmeticMismatch is returned when operands do not fit together (lengths or widths) or when both sides
	// of an equation differ
	ErrArithmeticMismatch = errors.New("arithmetic mismatch")
	// ErrInvalidGroup is returned when group parameters do not describe a prime order subgroup
	ErrInvalidGroup = errors.New("invalid group parameters")
)

// primality rounds used when validating group parameters
const millerRabinRounds = 30

var bigOne = big.NewInt(1)

// Structs
//______________________________________________________________________________________________________________________

// ModPGroup is the subgroup of order q of Z_p^*, with a fixed generator g
type ModPGroup struct {
	p        *big.Int
	q        *big.Int
	cofactor *big.Int

	g   *Element
	one *Element

	field   *Field
	byteLen int
}

// Element is a validated element of a ModPGroup. Values are immutable.
type Element struct {
	v *mod.Int
}

// NewModPGroup validates p, q and g and returns the group they describe
func NewModPGroup(p, q, g *big.Int) (*ModPGroup, error) {
	if p == nil || q == nil || g == nil {
		return nil, xerrors.Errorf("p, q and g are required: %w", ErrInvalidGroup)
	}
	if !p.ProbablyPrime(millerRabinRounds) {
		return nil, xerrors.Errorf("modulus is not prime: %w", ErrInvalidGroup)
	}
	if !q.ProbablyPrime(millerRabinRounds) {
		return nil, xerrors.Errorf("group order is not prime: %w", ErrInvalidGroup)
	}

	cofactor, rem := new(big.Int).QuoRem(new(big.Int).Sub(p, bigOne), q, new(big.Int))
	if rem.Sign() != 0 {
		return nil, xerrors.Errorf("group order does not divide p-1: %w", ErrInvalidGroup)
	}
	if g.Cmp(bigOne) <= 0 || g.Cmp(p) >= 0 {
		return nil, xerrors.Errorf("generator outside ]1, p[: %w", ErrInvalidGroup)
	}
	// q is prime and g != 1, so g^q = 1 means g has order exactly q
	if new(big.Int).Exp(g, q, p).Cmp(bigOne) != 0 {
		return nil, xerrors.Errorf("generator does not have order q: %w", ErrInvalidGroup)
	}

	G := &ModPGroup{
		p:        new(big.Int).Set(p),
		q:        new(big.Int).Set(q),
		cofactor: cofactor,
	}
	G.byteLen = byteLength(G.p)
	G.field = NewField(G.q)
	G.one = G.wrap(bigOne)
	G.g = G.wrap(g)
	return G, nil
}

func (G *ModPGroup) wrap(v *big.Int) *Element {
	return &Element{v: mod.NewInt(v, G.p)}
}

// P returns the modulus
func (G *ModPGroup) P() *big.Int {
	return new(big.Int).Set(G.p)
}

// Q returns the order of the group
func (G *ModPGroup) Q() *big.Int {
	return new(big.Int).Set(G.q)
}

// Field returns Z_q
func (G *ModPGroup) Field() *Field {
	return G.field
}

// Generator returns g
func (G *ModPGroup) Generator() *Element {
	return G.g
}

// One returns the identity
func (G *ModPGroup) One() *Element {
	return G.one
}

// ElementByteLength is the width of the leaves holding group elements
func (G *ModPGroup) ElementByteLength() int {
	return G.byteLen
}

// Equal tells if two groups have the same parameters
func (G *ModPGroup) Equal(other *ModPGroup) bool {
	return G.p.Cmp(other.p) == 0 && G.q.Cmp(other.q) == 0 && G.g.Equal(other.g)
}

func (G *ModPGroup) String() string {
	return fmt.Sprintf("ModPGroup(|p|=%d, |q|=%d)", G.p.BitLen(), G.q.BitLen())
}

// NewElement admits v into the group: v must lie in [1, p) (ErrOutOfRange) and satisfy v^q = 1 (ErrNotInGroup)
func (G *ModPGroup) NewElement(v *big.Int) (*Element, error) {
	if v.Sign() <= 0 || v.Cmp(G.p) >= 0 {
		return nil, xerrors.Errorf("residue %s outside [1, p): %w", shortHex(v), ErrOutOfRange)
	}
	if new(big.Int).Exp(v, G.q, G.p).Cmp(bigOne) != 0 {
		return nil, xerrors.Errorf("residue %s: %w", shortHex(v), ErrNotInGroup)
	}
	return G.wrap(v), nil
}

// Project maps any integer to the group by reducing it mod p and raising it to the cofactor (p-1)/q. The result
// is the identity when t is a multiple of p.
func (G *ModPGroup) Project(t *big.Int) *Element {
	r := new(mod.Int)
	r.Exp(mod.NewInt(t, G.p), G.cofactor)
	return &Element{v: r}
}

// Exp returns a^e for an arbitrary integer exponent
func (G *ModPGroup) Exp(a *Element, e *big.Int) *Element {
	r := new(mod.Int)
	r.Exp(a.v, e)
	return &Element{v: r}
}

// ExpProd returns ∏ bases[i]^exps[i]; the terms are evaluated in chunks, concurrently for long vectors
func (G *ModPGroup) ExpProd(bases []*Element, exps []*Scalar) (*Element, error) {
	if len(bases) != len(exps) {
		return nil, xerrors.Errorf("%d bases for %d exponents: %w", len(bases), len(exps), ErrArithmeticMismatch)
	}
	if len(bases) == 0 {
		return G.one, nil
	}

	partial := make([]*Element, libvmn.Chunks(len(bases)))
	err := libvmn.ForChunks(len(bases), func(start, end int) error {
		acc := G.one
		for i := start; i < end; i++ {
			acc = acc.Mul(bases[i].Exp(exps[i]))
		}
		partial[start/libvmn.VPARALLELIZE] = acc
		return nil
	})
	if err != nil {
		return nil, err
	}

	res := G.one
	for _, p := range partial {
		if p != nil {
			res = res.Mul(p)
		}
	}
	return res, nil
}

// Prod returns the product of all elements
func (G *ModPGroup) Prod(elems []*Element) *Element {
	res := G.one
	for _, e := range elems {
		res = res.Mul(e)
	}
	return res
}

// Element operations
//______________________________________________________________________________________________________________________

// Mul returns a*b
func (a *Element) Mul(b *Element) *Element {
	r := new(mod.Int)
	r.Mul(a.v, b.v)
	return &Element{v: r}
}

// Div returns a/b
func (a *Element) Div(b *Element) *Element {
	return a.Mul(b.Inv())
}

// Inv returns a^-1
func (a *Element) Inv() *Element {
	r := new(mod.Int)
	r.Inv(a.v)
	return &Element{v: r}
}

// Exp returns a^s
func (a *Element) Exp(s *Scalar) *Element {
	r := new(mod.Int)
	r.Exp(a.v, &s.v.V)
	return &Element{v: r}
}

// Equal tells if a and b are the same residue
func (a *Element) Equal(b *Element) bool {
	return a.v.Equal(b.v)
}

// BigInt returns the residue
func (a *Element) BigInt() *big.Int {
	return new(big.Int).Set(&a.v.V)
}

func (a *Element) String() string {
	return shortHex(&a.v.V)
}

func byteLength(bound *big.Int) int {
	return bound.BitLen()/8 + 1
}

// shortHex prints at most 16 hex digits of v, enough to tell residues apart in logs and reports
func shortHex(v *big.Int) string {
	s := v.Text(16)
	if len(s) > 16 {
		return s[:8] + ".." + s[len(s)-8:]
	}
	return s
}
