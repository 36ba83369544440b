package libvmnarithm

import (
	"github.com/ldsec/vmnverify/lib"
	"github.com/ldsec/vmnverify/lib/bytetree"
	"golang.org/x/xerrors"
)

// ModPGroupClassName is the name under which Verificatum marshals prime order subgroups of Z_p^*
const ModPGroupClassName = "com.verificatum.arithm.ModPGroup"

// Group description
//______________________________________________________________________________________________________________________

// ByteTree returns node(p, q, g, 0), the description of the group that is hashed into the random oracle prefix
func (G *ModPGroup) ByteTree() *libvmnbytetree.Node {
	return libvmnbytetree.NewTree(
		libvmnbytetree.MinimalBigIntToLeaf(G.p),
		libvmnbytetree.MinimalBigIntToLeaf(G.q),
		G.ElementToByteTree(G.g),
		libvmnbytetree.Uint32ToLeaf(0),
	)
}

// Marshal returns node(class name, description)
func (G *ModPGroup) Marshal() *libvmnbytetree.Node {
	return libvmnbytetree.NewTree(libvmnbytetree.StringToLeaf(ModPGroupClassName), G.ByteTree())
}

// ModPGroupFromByteTree parses either a marshalled group or a bare description node(p, q, g, encoding)
func ModPGroupFromByteTree(n *libvmnbytetree.Node) (*ModPGroup, error) {
	if n.ExpectChildren(2) == nil {
		name, err := libvmnbytetree.LeafToString(n.Children[0])
		if err != nil {
			return nil, err
		}
		if name != ModPGroupClassName {
			return nil, xerrors.Errorf("unsupported group class %q: %w", name, ErrInvalidGroup)
		}
		n = n.Children[1]
	}
	if err := n.ExpectChildren(4); err != nil {
		return nil, xerrors.Errorf("group description: %w", err)
	}

	p, err := libvmnbytetree.LeafToBigInt(n.Children[0])
	if err != nil {
		return nil, err
	}
	q, err := libvmnbytetree.LeafToBigInt(n.Children[1])
	if err != nil {
		return nil, err
	}
	g, err := libvmnbytetree.LeafToBigInt(n.Children[2])
	if err != nil {
		return nil, err
	}
	if _, err := libvmnbytetree.LeafToUint32(n.Children[3]); err != nil {
		return nil, err
	}
	return NewModPGroup(p, q, g)
}

// Group elements
//______________________________________________________________________________________________________________________

// ElementFromByteTree decodes and validates a group element
func (G *ModPGroup) ElementFromByteTree(n *libvmnbytetree.Node) (*Element, error) {
	v, err := libvmnbytetree.LeafToBigInt(n)
	if err != nil {
		return nil, err
	}
	return G.NewElement(v)
}

// ElementToByteTree encodes e on ElementByteLength bytes
func (G *ModPGroup) ElementToByteTree(e *Element) *libvmnbytetree.Node {
	return libvmnbytetree.BigIntToLeaf(&e.v.V, G.byteLen)
}

// ElementsFromByteTree decodes node(e_1, ..., e_N); membership tests run in parallel chunks
func (G *ModPGroup) ElementsFromByteTree(n *libvmnbytetree.Node) ([]*Element, error) {
	if n.IsLeaf() {
		return nil, xerrors.Errorf("element array: %w", n.ExpectChildren(0))
	}

	elems := make([]*Element, len(n.Children))
	err := libvmn.ForChunks(len(elems), func(start, end int) error {
		for i := start; i < end; i++ {
			e, err := G.ElementFromByteTree(n.Children[i])
			if err != nil {
				return xerrors.Errorf("element %d: %w", i, err)
			}
			elems[i] = e
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return elems, nil
}

// ElementsToByteTree encodes node(e_1, ..., e_N)
func (G *ModPGroup) ElementsToByteTree(elems []*Element) *libvmnbytetree.Node {
	children := make([]*libvmnbytetree.Node, len(elems))
	for i, e := range elems {
		children[i] = G.ElementToByteTree(e)
	}
	return libvmnbytetree.NewTree(children...)
}

// ProductElementFromByteTree decodes an element of G^w: a plain element for w = 1, node(e_1, ..., e_w) otherwise
func (G *ModPGroup) ProductElementFromByteTree(n *libvmnbytetree.Node, w int) ([]*Element, error) {
	if w == 1 {
		e, err := G.ElementFromByteTree(n)
		if err != nil {
			return nil, err
		}
		return []*Element{e}, nil
	}
	if err := n.ExpectChildren(w); err != nil {
		return nil, err
	}
	return G.ElementsFromByteTree(n)
}

// ProductElementToByteTree is the inverse of ProductElementFromByteTree
func (G *ModPGroup) ProductElementToByteTree(elems []*Element) *libvmnbytetree.Node {
	if len(elems) == 1 {
		return G.ElementToByteTree(elems[0])
	}
	return G.ElementsToByteTree(elems)
}

// ProductElementsFromByteTree decodes an array of N elements of G^w. For w > 1 the array is stored column-wise,
// node(a_1, ..., a_w) where a_j holds the j-th component of every element. The result is indexed [i][j].
func (G *ModPGroup) ProductElementsFromByteTree(n *libvmnbytetree.Node, w int) ([][]*Element, error) {
	if w == 1 {
		elems, err := G.ElementsFromByteTree(n)
		if err != nil {
			return nil, err
		}
		res := make([][]*Element, len(elems))
		for i, e := range elems {
			res[i] = []*Element{e}
		}
		return res, nil
	}

	if err := n.ExpectChildren(w); err != nil {
		return nil, err
	}
	var res [][]*Element
	for j := 0; j < w; j++ {
		column, err := G.ElementsFromByteTree(n.Children[j])
		if err != nil {
			return nil, xerrors.Errorf("component %d: %w", j, err)
		}
		if j == 0 {
			res = make([][]*Element, len(column))
			for i := range res {
				res[i] = make([]*Element, w)
			}
		} else if len(column) != len(res) {
			return nil, xerrors.Errorf("component %d has %d elements instead of %d: %w", j, len(column), len(res), ErrOutOfRange)
		}
		for i, e := range column {
			res[i][j] = e
		}
	}
	return res, nil
}

// ProductElementsToByteTree is the inverse of ProductElementsFromByteTree
func (G *ModPGroup) ProductElementsToByteTree(elems [][]*Element, w int) *libvmnbytetree.Node {
	column := make([]*Element, len(elems))
	if w == 1 {
		for i := range elems {
			column[i] = elems[i][0]
		}
		return G.ElementsToByteTree(column)
	}

	columns := make([]*libvmnbytetree.Node, w)
	for j := 0; j < w; j++ {
		for i := range elems {
			column[i] = elems[i][j]
		}
		columns[j] = G.ElementsToByteTree(column)
	}
	return libvmnbytetree.NewTree(columns...)
}

// Ciphertexts and keys
//______________________________________________________________________________________________________________________

// CiphertextFromByteTree decodes a single ciphertext node(U, V) of width w
func (G *ModPGroup) CiphertextFromByteTree(n *libvmnbytetree.Node, w int) (*Ciphertext, error) {
	if err := n.ExpectChildren(2); err != nil {
		return nil, xerrors.Errorf("ciphertext: %w", err)
	}
	u, err := G.ProductElementFromByteTree(n.Children[0], w)
	if err != nil {
		return nil, xerrors.Errorf("ciphertext U: %w", err)
	}
	v, err := G.ProductElementFromByteTree(n.Children[1], w)
	if err != nil {
		return nil, xerrors.Errorf("ciphertext V: %w", err)
	}
	return &Ciphertext{U: u, V: v}, nil
}

// CiphertextToByteTree encodes node(U, V)
func (G *ModPGroup) CiphertextToByteTree(c *Ciphertext) *libvmnbytetree.Node {
	return libvmnbytetree.NewTree(G.ProductElementToByteTree(c.U), G.ProductElementToByteTree(c.V))
}

// CiphertextsFromByteTree decodes a list of ciphertexts of width w stored as node(U array, V array)
func (G *ModPGroup) CiphertextsFromByteTree(n *libvmnbytetree.Node, w int) (CipherVector, error) {
	if err := n.ExpectChildren(2); err != nil {
		return nil, xerrors.Errorf("ciphertext list: %w", err)
	}
	u, err := G.ProductElementsFromByteTree(n.Children[0], w)
	if err != nil {
		return nil, xerrors.Errorf("ciphertext list U: %w", err)
	}
	v, err := G.ProductElementsFromByteTree(n.Children[1], w)
	if err != nil {
		return nil, xerrors.Errorf("ciphertext list V: %w", err)
	}
	if len(u) != len(v) {
		return nil, xerrors.Errorf("%d U components for %d V components: %w", len(u), len(v), ErrOutOfRange)
	}

	cv := make(CipherVector, len(u))
	for i := range u {
		cv[i] = &Ciphertext{U: u[i], V: v[i]}
	}
	return cv, nil
}

// CiphertextsToByteTree is the inverse of CiphertextsFromByteTree
func (G *ModPGroup) CiphertextsToByteTree(cv CipherVector, w int) *libvmnbytetree.Node {
	u := make([][]*Element, len(cv))
	v := make([][]*Element, len(cv))
	for i, c := range cv {
		u[i] = c.U
		v[i] = c.V
	}
	return libvmnbytetree.NewTree(G.ProductElementsToByteTree(u, w), G.ProductElementsToByteTree(v, w))
}

// PublicKeyFromByteTree decodes node(g, y); g must be the generator of the group
func (G *ModPGroup) PublicKeyFromByteTree(n *libvmnbytetree.Node) (*PublicKey, error) {
	if err := n.ExpectChildren(2); err != nil {
		return nil, xerrors.Errorf("public key: %w", err)
	}
	g, err := G.ElementFromByteTree(n.Children[0])
	if err != nil {
		return nil, xerrors.Errorf("public key generator: %w", err)
	}
	if !g.Equal(G.g) {
		return nil, xerrors.Errorf("public key generator differs from the group generator: %w", ErrArithmeticMismatch)
	}
	y, err := G.ElementFromByteTree(n.Children[1])
	if err != nil {
		return nil, xerrors.Errorf("public key: %w", err)
	}
	return &PublicKey{G: g, Y: y}, nil
}

// PublicKeyToByteTree encodes node(g, y)
func (G *ModPGroup) PublicKeyToByteTree(pk *PublicKey) *libvmnbytetree.Node {
	return libvmnbytetree.NewTree(G.ElementToByteTree(pk.G), G.ElementToByteTree(pk.Y))
}

// Scalars
//______________________________________________________________________________________________________________________

// ScalarFromByteTree decodes and range checks a scalar
func (F *Field) ScalarFromByteTree(n *libvmnbytetree.Node) (*Scalar, error) {
	v, err := libvmnbytetree.LeafToBigInt(n)
	if err != nil {
		return nil, err
	}
	return F.NewScalar(v)
}

// ScalarToByteTree encodes s on ScalarByteLength bytes
func (F *Field) ScalarToByteTree(s *Scalar) *libvmnbytetree.Node {
	return libvmnbytetree.BigIntToLeaf(&s.v.V, F.byteLen)
}

// ScalarsFromByteTree decodes node(s_1, ..., s_N)
func (F *Field) ScalarsFromByteTree(n *libvmnbytetree.Node) ([]*Scalar, error) {
	if n.IsLeaf() {
		return nil, xerrors.Errorf("scalar array: %w", n.ExpectChildren(0))
	}
	res := make([]*Scalar, len(n.Children))
	for i, c := range n.Children {
		s, err := F.ScalarFromByteTree(c)
		if err != nil {
			return nil, xerrors.Errorf("scalar %d: %w", i, err)
		}
		res[i] = s
	}
	return res, nil
}

// ScalarsToByteTree encodes node(s_1, ..., s_N)
func (F *Field) ScalarsToByteTree(xs []*Scalar) *libvmnbytetree.Node {
	children := make([]*libvmnbytetree.Node, len(xs))
	for i, x := range xs {
		children[i] = F.ScalarToByteTree(x)
	}
	return libvmnbytetree.NewTree(children...)
}

// ProductScalarFromByteTree decodes an element of Z_q^w: a plain scalar for w = 1, node(s_1, ..., s_w) otherwise
func (F *Field) ProductScalarFromByteTree(n *libvmnbytetree.Node, w int) ([]*Scalar, error) {
	if w == 1 {
		s, err := F.ScalarFromByteTree(n)
		if err != nil {
			return nil, err
		}
		return []*Scalar{s}, nil
	}
	if err := n.ExpectChildren(w); err != nil {
		return nil, err
	}
	return F.ScalarsFromByteTree(n)
}

// ProductScalarToByteTree is the inverse of ProductScalarFromByteTree
func (F *Field) ProductScalarToByteTree(xs []*Scalar) *libvmnbytetree.Node {
	if len(xs) == 1 {
		return F.ScalarToByteTree(xs[0])
	}
	return F.ScalarsToByteTree(xs)
}
