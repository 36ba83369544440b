package libvmnbytetree

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"golang.org/x/xerrors"
)

// maxLeafDump is the number of leaf bytes printed by Format before eliding the rest
const maxLeafDump = 48

// DecodeHex decodes a hexadecimal byte tree. Verificatum writes some byte trees (e.g. group descriptions) as
// "Name(comment)::hex", in which case only the part after the last "::" is decoded.
func DecodeHex(s string) (*Node, error) {
	s = strings.TrimSpace(s)
	if idx := strings.LastIndex(s, "::"); idx >= 0 {
		s = s[idx+2:]
	}
	buf, err := hex.DecodeString(s)
	if err != nil {
		return nil, xerrors.Errorf("byte tree is not hexadecimal: %v: %w", err, ErrMalformedTree)
	}
	return Decode(buf)
}

// EncodeHex returns the hexadecimal encoding of a byte tree
func EncodeHex(n *Node) string {
	return hex.EncodeToString(Encode(n))
}

// Format writes an indented, human readable dump of the tree
func (n *Node) Format(w io.Writer) error {
	bw := bufio.NewWriter(w)

	type item struct {
		node  *Node
		depth int
	}
	stack := []item{{node: n}}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		indent := strings.Repeat("  ", cur.depth)
		if cur.node.leaf {
			data := cur.node.Data
			suffix := ""
			if len(data) > maxLeafDump {
				data = data[:maxLeafDump]
				suffix = "..."
			}
			if _, err := fmt.Fprintf(bw, "%sleaf(%d) %s%s\n", indent, len(cur.node.Data), hex.EncodeToString(data), suffix); err != nil {
				return err
			}
			continue
		}
		if _, err := fmt.Fprintf(bw, "%snode(%d)\n", indent, len(cur.node.Children)); err != nil {
			return err
		}
		for i := len(cur.node.Children) - 1; i >= 0; i-- {
			stack = append(stack, item{node: cur.node.Children[i], depth: cur.depth + 1})
		}
	}
	return bw.Flush()
}

func (n *Node) String() string {
	var sb strings.Builder
	if err := n.Format(&sb); err != nil {
		return err.Error()
	}
	return strings.TrimRight(sb.String(), "\n")
}
