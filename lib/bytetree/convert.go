package libvmnbytetree

import (
	"encoding/binary"
	"fmt"
	"math/big"

	"golang.org/x/xerrors"
)

// Schema helpers
//______________________________________________________________________________________________________________________

func schemaError(format string, args ...interface{}) error {
	return xerrors.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrMalformedTree)
}

// ExpectLeaf returns an error if the node is not a leaf
func (n *Node) ExpectLeaf() error {
	if n == nil || !n.leaf {
		return schemaError("expected a leaf")
	}
	return nil
}

// ExpectChildren returns an error if the node is not an internal node with exactly count children
func (n *Node) ExpectChildren(count int) error {
	if n == nil || n.leaf {
		return schemaError("expected a node with %d children, got a leaf", count)
	}
	if len(n.Children) != count {
		return schemaError("expected a node with %d children, got %d", count, len(n.Children))
	}
	return nil
}

// Child returns the i-th child of an internal node
func (n *Node) Child(i int) (*Node, error) {
	if n == nil || n.leaf {
		return nil, schemaError("no child %d in a leaf", i)
	}
	if i < 0 || i >= len(n.Children) {
		return nil, schemaError("no child %d in a node with %d children", i, len(n.Children))
	}
	return n.Children[i], nil
}

// Integers
//______________________________________________________________________________________________________________________

// ByteLength returns the number of bytes needed to encode any non-negative integer below bound in two's complement
func ByteLength(bound *big.Int) int {
	return bound.BitLen()/8 + 1
}

// BigIntToLeaf encodes a non-negative integer as a fixed-width big-endian two's complement leaf
func BigIntToLeaf(v *big.Int, byteLen int) *Node {
	if v.Sign() < 0 || v.BitLen() >= 8*byteLen {
		panic(fmt.Sprintf("integer of %d bits does not fit a %d-byte leaf", v.BitLen(), byteLen))
	}
	return &Node{Data: v.FillBytes(make([]byte, byteLen)), leaf: true}
}

// MinimalBigIntToLeaf encodes a non-negative integer on the fewest bytes that keep the sign bit clear
func MinimalBigIntToLeaf(v *big.Int) *Node {
	return BigIntToLeaf(v, ByteLength(v))
}

// LeafToBigInt decodes a big-endian two's complement leaf. Negative values are returned as such, range checks
// belong to the caller.
func LeafToBigInt(n *Node) (*big.Int, error) {
	if err := n.ExpectLeaf(); err != nil {
		return nil, err
	}
	if len(n.Data) == 0 {
		return nil, schemaError("empty integer leaf")
	}
	v := new(big.Int).SetBytes(n.Data)
	if n.Data[0]&0x80 != 0 {
		v.Sub(v, new(big.Int).Lsh(big.NewInt(1), uint(8*len(n.Data))))
	}
	return v, nil
}

// Uint32ToLeaf encodes v on 4 big-endian bytes
func Uint32ToLeaf(v uint32) *Node {
	data := make([]byte, 4)
	binary.BigEndian.PutUint32(data, v)
	return &Node{Data: data, leaf: true}
}

// LeafToUint32 decodes a 4-byte big-endian leaf
func LeafToUint32(n *Node) (uint32, error) {
	if err := n.ExpectLeaf(); err != nil {
		return 0, err
	}
	if len(n.Data) != 4 {
		return 0, schemaError("expected a 4-byte integer leaf, got %d bytes", len(n.Data))
	}
	return binary.BigEndian.Uint32(n.Data), nil
}

// StringToLeaf encodes s as its UTF-8 bytes
func StringToLeaf(s string) *Node {
	return NewLeaf([]byte(s))
}

// LeafToString decodes a leaf holding UTF-8 bytes
func LeafToString(n *Node) (string, error) {
	if err := n.ExpectLeaf(); err != nil {
		return "", err
	}
	return string(n.Data), nil
}
