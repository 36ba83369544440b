package libvmnarithm

import (
	"math/big"

	"go.dedis.ch/kyber/v3/group/mod"
	"golang.org/x/xerrors"
)

// Field is the prime field Z_q of the exponents
type Field struct {
	q       *big.Int
	byteLen int

	zero *Scalar
	one  *Scalar
}

// Scalar is an element of a Field, always in [0, q)
type Scalar struct {
	v *mod.Int
}

// NewField creates Z_q, q is assumed prime
func NewField(q *big.Int) *Field {
	F := &Field{q: new(big.Int).Set(q), byteLen: byteLength(q)}
	F.zero = F.Reduce(big.NewInt(0))
	F.one = F.Reduce(bigOne)
	return F
}

// Order returns q
func (F *Field) Order() *big.Int {
	return new(big.Int).Set(F.q)
}

// ScalarByteLength is the width of the leaves holding scalars
func (F *Field) ScalarByteLength() int {
	return F.byteLen
}

// NewScalar admits v into the field, rejecting values outside [0, q) with ErrNotInField
func (F *Field) NewScalar(v *big.Int) (*Scalar, error) {
	if v.Sign() < 0 || v.Cmp(F.q) >= 0 {
		return nil, xerrors.Errorf("integer %s outside [0, q): %w", shortHex(v), ErrNotInField)
	}
	return &Scalar{v: mod.NewInt(v, F.q)}, nil
}

// Reduce returns v mod q
func (F *Field) Reduce(v *big.Int) *Scalar {
	return &Scalar{v: mod.NewInt(v, F.q)}
}

// Zero returns 0
func (F *Field) Zero() *Scalar {
	return F.zero
}

// One returns 1
func (F *Field) One() *Scalar {
	return F.one
}

// Product returns the product of all scalars, 1 for an empty slice
func (F *Field) Product(xs []*Scalar) *Scalar {
	res := F.one
	for _, x := range xs {
		res = res.Mul(x)
	}
	return res
}

// Sum returns the sum of all scalars
func (F *Field) Sum(xs []*Scalar) *Scalar {
	res := F.zero
	for _, x := range xs {
		res = res.Add(x)
	}
	return res
}

// InnerProduct returns Σ a_i b_i
func (F *Field) InnerProduct(a, b []*Scalar) (*Scalar, error) {
	if len(a) != len(b) {
		return nil, xerrors.Errorf("inner product of %d and %d scalars: %w", len(a), len(b), ErrArithmeticMismatch)
	}
	res := F.zero
	for i := range a {
		res = res.Add(a[i].Mul(b[i]))
	}
	return res, nil
}

// Add returns a+b
func (a *Scalar) Add(b *Scalar) *Scalar {
	r := new(mod.Int)
	r.Add(a.v, b.v)
	return &Scalar{v: r}
}

// Sub returns a-b
func (a *Scalar) Sub(b *Scalar) *Scalar {
	r := new(mod.Int)
	r.Sub(a.v, b.v)
	return &Scalar{v: r}
}

// Mul returns a*b
func (a *Scalar) Mul(b *Scalar) *Scalar {
	r := new(mod.Int)
	r.Mul(a.v, b.v)
	return &Scalar{v: r}
}

// Neg returns -a
func (a *Scalar) Neg() *Scalar {
	r := new(mod.Int)
	r.Neg(a.v)
	return &Scalar{v: r}
}

// Equal tells if a and b are equal
func (a *Scalar) Equal(b *Scalar) bool {
	return a.v.Equal(b.v)
}

// BigInt returns the canonical representative of a
func (a *Scalar) BigInt() *big.Int {
	return new(big.Int).Set(&a.v.V)
}

func (a *Scalar) String() string {
	return shortHex(&a.v.V)
}
