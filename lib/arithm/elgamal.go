package libvmnarithm

import (
	"golang.org/x/xerrors"
)

// Structs
//______________________________________________________________________________________________________________________

// PublicKey is an ElGamal public key (g, y = g^x)
type PublicKey struct {
	G *Element
	Y *Element
}

// Ciphertext is an extended ElGamal ciphertext of width w = len(U) = len(V): U_j = g^r_j, V_j = y^r_j * m_j
type Ciphertext struct {
	U []*Element
	V []*Element
}

// CipherVector is a list of ciphertexts of the same width
type CipherVector []*Ciphertext

// Encryption
//______________________________________________________________________________________________________________________

// Encrypt encrypts the width-w plaintext m with randomness r
func (pk *PublicKey) Encrypt(m []*Element, r []*Scalar) (*Ciphertext, error) {
	if len(m) != len(r) {
		return nil, xerrors.Errorf("plaintext of width %d with randomness of width %d: %w", len(m), len(r), ErrArithmeticMismatch)
	}
	c := &Ciphertext{U: make([]*Element, len(r)), V: make([]*Element, len(r))}
	for j := range r {
		c.U[j] = pk.G.Exp(r[j])
		c.V[j] = pk.Y.Exp(r[j]).Mul(m[j])
	}
	return c, nil
}

// EncryptOne encrypts the identity of width len(r), i.e. returns (g^r_j, y^r_j)_j
func (pk *PublicKey) EncryptOne(r []*Scalar) *Ciphertext {
	c := &Ciphertext{U: make([]*Element, len(r)), V: make([]*Element, len(r))}
	for j := range r {
		c.U[j] = pk.G.Exp(r[j])
		c.V[j] = pk.Y.Exp(r[j])
	}
	return c
}

// Decrypt returns the plaintext V_j / U_j^x of c under the secret key x
func Decrypt(x *Scalar, c *Ciphertext) []*Element {
	m := make([]*Element, len(c.U))
	for j := range c.U {
		m[j] = c.V[j].Div(c.U[j].Exp(x))
	}
	return m
}

// Ciphertext operations
//______________________________________________________________________________________________________________________

// Width returns the number of plaintext slots of c
func (c *Ciphertext) Width() int {
	return len(c.U)
}

// Mul returns the component-wise product of c and o
func (c *Ciphertext) Mul(o *Ciphertext) (*Ciphertext, error) {
	if c.Width() != o.Width() {
		return nil, xerrors.Errorf("ciphertexts of width %d and %d: %w", c.Width(), o.Width(), ErrArithmeticMismatch)
	}
	res := &Ciphertext{U: make([]*Element, c.Width()), V: make([]*Element, c.Width())}
	for j := range c.U {
		res.U[j] = c.U[j].Mul(o.U[j])
		res.V[j] = c.V[j].Mul(o.V[j])
	}
	return res, nil
}

// Exp returns c^s component-wise
func (c *Ciphertext) Exp(s *Scalar) *Ciphertext {
	res := &Ciphertext{U: make([]*Element, c.Width()), V: make([]*Element, c.Width())}
	for j := range c.U {
		res.U[j] = c.U[j].Exp(s)
		res.V[j] = c.V[j].Exp(s)
	}
	return res
}

// Equal tells if c and o are the same ciphertext
func (c *Ciphertext) Equal(o *Ciphertext) bool {
	if c.Width() != o.Width() {
		return false
	}
	for j := range c.U {
		if !c.U[j].Equal(o.U[j]) || !c.V[j].Equal(o.V[j]) {
			return false
		}
	}
	return true
}

// Width returns the common width of the ciphertexts, an error if they differ or 0 for an empty vector
func (cv CipherVector) Width() (int, error) {
	if len(cv) == 0 {
		return 0, nil
	}
	w := cv[0].Width()
	for i, c := range cv {
		if c.Width() != w {
			return 0, xerrors.Errorf("ciphertext %d has width %d instead of %d: %w", i, c.Width(), w, ErrArithmeticMismatch)
		}
	}
	return w, nil
}

// ExpProdCiphertexts returns ∏ cv[i]^exps[i], each of the 2w components being computed with ModPGroup.ExpProd
func (G *ModPGroup) ExpProdCiphertexts(cv CipherVector, exps []*Scalar) (*Ciphertext, error) {
	if len(cv) != len(exps) {
		return nil, xerrors.Errorf("%d ciphertexts for %d exponents: %w", len(cv), len(exps), ErrArithmeticMismatch)
	}
	w, err := cv.Width()
	if err != nil {
		return nil, err
	}

	res := &Ciphertext{U: make([]*Element, w), V: make([]*Element, w)}
	column := make([]*Element, len(cv))
	for j := 0; j < w; j++ {
		for i, c := range cv {
			column[i] = c.U[j]
		}
		if res.U[j], err = G.ExpProd(column, exps); err != nil {
			return nil, err
		}
		for i, c := range cv {
			column[i] = c.V[j]
		}
		if res.V[j], err = G.ExpProd(column, exps); err != nil {
			return nil, err
		}
	}
	return res, nil
}
