// Package libvmnbytetree implements the byte tree format used by the Verificatum mix-net to serialize
// every artifact of a session: a leaf is a tagged, length-prefixed byte string and a node is a tagged,
// count-prefixed sequence of byte trees.
package libvmnbytetree

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

const (
	nodeTag = byte(0x00)
	leafTag = byte(0x01)

	// headerLen is the size of the tag byte followed by the 4-byte big-endian length or count
	headerLen = 5
)

// ErrMalformedTree is matched (errors.Is) by every decoding and schema error of this package
var ErrMalformedTree = errors.New("malformed byte tree")

// MalformedTreeError reports structurally invalid binary input and the byte offset where it was detected
type MalformedTreeError struct {
	Offset int
	Reason string
}

func (e *MalformedTreeError) Error() string {
	return fmt.Sprintf("malformed byte tree at offset %d: %s", e.Offset, e.Reason)
}

// Is makes every MalformedTreeError match ErrMalformedTree
func (e *MalformedTreeError) Is(target error) bool {
	return target == ErrMalformedTree
}

// Structs
//______________________________________________________________________________________________________________________

// Node is either a leaf holding Data or an internal node holding Children
type Node struct {
	Data     []byte
	Children []*Node
	leaf     bool
}

// NewLeaf creates a leaf holding a copy of data
func NewLeaf(data []byte) *Node {
	cpy := make([]byte, len(data))
	copy(cpy, data)
	return &Node{Data: cpy, leaf: true}
}

// NewTree creates an internal node with the given children
func NewTree(children ...*Node) *Node {
	if children == nil {
		children = make([]*Node, 0)
	}
	return &Node{Children: children}
}

// IsLeaf tells if the node is a leaf
func (n *Node) IsLeaf() bool {
	return n.leaf
}

// Len returns the number of children of an internal node or the number of bytes of a leaf
func (n *Node) Len() int {
	if n.leaf {
		return len(n.Data)
	}
	return len(n.Children)
}

// Equal tells if two byte trees have the same shape and content
func (n *Node) Equal(other *Node) bool {
	if n == nil || other == nil {
		return n == other
	}
	return bytes.Equal(Encode(n), Encode(other))
}

// Encoding
//______________________________________________________________________________________________________________________

// Size returns the number of bytes of the encoding of the tree
func (n *Node) Size() int {
	size := 0
	stack := []*Node{n}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		size += headerLen
		if cur.leaf {
			size += len(cur.Data)
		} else {
			stack = append(stack, cur.Children...)
		}
	}
	return size
}

// Encode serializes a byte tree. The traversal keeps an explicit stack so arbitrarily deep trees can be encoded.
func Encode(n *Node) []byte {
	out := make([]byte, 0, n.Size())
	stack := []*Node{n}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		var header [headerLen]byte
		if cur.leaf {
			header[0] = leafTag
			binary.BigEndian.PutUint32(header[1:], uint32(len(cur.Data)))
			out = append(out, header[:]...)
			out = append(out, cur.Data...)
			continue
		}
		header[0] = nodeTag
		binary.BigEndian.PutUint32(header[1:], uint32(len(cur.Children)))
		out = append(out, header[:]...)
		for i := len(cur.Children) - 1; i >= 0; i-- {
			stack = append(stack, cur.Children[i])
		}
	}
	return out
}

// Decode parses a complete byte tree. The whole buffer must be consumed: truncated input, lengths or counts
// exceeding the remaining bytes, unknown tags and trailing bytes are all reported as *MalformedTreeError.
func Decode(buf []byte) (*Node, error) {
	type frame struct {
		node      *Node
		remaining uint32
	}

	var root *Node
	stack := make([]*frame, 0)
	off := 0

	for {
		start := off
		if len(buf)-off < headerLen {
			return nil, &MalformedTreeError{Offset: start, Reason: fmt.Sprintf("truncated header, %d bytes left", len(buf)-off)}
		}
		tag := buf[off]
		n := binary.BigEndian.Uint32(buf[off+1 : off+headerLen])
		off += headerLen
		left := uint64(len(buf) - off)

		var node *Node
		switch tag {
		case leafTag:
			if uint64(n) > left {
				return nil, &MalformedTreeError{Offset: start, Reason: fmt.Sprintf("leaf length %d exceeds the %d remaining bytes", n, left)}
			}
			data := make([]byte, n)
			copy(data, buf[off:off+int(n)])
			off += int(n)
			node = &Node{Data: data, leaf: true}
		case nodeTag:
			// every child needs at least a header
			if uint64(n)*headerLen > left {
				return nil, &MalformedTreeError{Offset: start, Reason: fmt.Sprintf("child count %d exceeds the %d remaining bytes", n, left)}
			}
			node = &Node{Children: make([]*Node, 0, n)}
		default:
			return nil, &MalformedTreeError{Offset: start, Reason: fmt.Sprintf("unknown tag 0x%02x", tag)}
		}

		if len(stack) == 0 {
			root = node
		} else {
			top := stack[len(stack)-1]
			top.node.Children = append(top.node.Children, node)
			top.remaining--
		}
		if !node.leaf && n > 0 {
			stack = append(stack, &frame{node: node, remaining: n})
		}
		for len(stack) > 0 && stack[len(stack)-1].remaining == 0 {
			stack = stack[:len(stack)-1]
		}
		if len(stack) == 0 {
			break
		}
	}

	if off != len(buf) {
		return nil, &MalformedTreeError{Offset: off, Reason: fmt.Sprintf("%d trailing bytes", len(buf)-off)}
	}
	return root, nil
}
