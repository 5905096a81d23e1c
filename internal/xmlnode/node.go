// Package xmlnode decodes XML into a small generic element tree and
// offers path lookups that never fail: a missing element yields a nil
// *Node, and every accessor on a nil *Node returns the zero value.
//
// It exists for loosely structured documents such as PubMed E-utilities
// responses, where optional elements come and go and a repeated element
// may appear once or many times.
package xmlnode

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html/charset"
)

// Node is an XML element or, when Name is empty, a run of character data.
type Node struct {
	Name     string
	Attrs    []xml.Attr
	Children []*Node
	Data     string
}

// Parse decodes a whole document and returns its root element.
// Documents declaring a non UTF-8 encoding are transcoded.
func Parse(r io.Reader) (*Node, error) {
	d := xml.NewDecoder(r)
	d.CharsetReader = charset.NewReaderLabel

	var stack []*Node
	var root *Node
	for {
		tok, err := d.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			n := &Node{Name: t.Name.Local}
			for _, a := range t.Attr {
				n.Attrs = append(n.Attrs, xml.Attr{Name: xml.Name{Local: a.Name.Local}, Value: a.Value})
			}
			if len(stack) > 0 {
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, n)
			} else if root == nil {
				root = n
			}
			stack = append(stack, n)
		case xml.EndElement:
			stack = stack[:len(stack)-1]
		case xml.CharData:
			if len(stack) == 0 {
				continue
			}
			parent := stack[len(stack)-1]
			parent.Children = append(parent.Children, &Node{Data: string(t)})
		}
	}

	if root == nil {
		return nil, fmt.Errorf("xml: document has no root element")
	}
	return root, nil
}

// ParseBytes is Parse over an in-memory document.
func ParseBytes(data []byte) (*Node, error) {
	return Parse(bytes.NewReader(data))
}

// IsElement reports whether n is an element rather than character data.
func (n *Node) IsElement() bool {
	return n != nil && n.Name != ""
}

// Elements returns the child elements named name, in document order.
// The result is always a slice, whether the document holds zero, one or
// many such children.
func (n *Node) Elements(name string) []*Node {
	if n == nil {
		return nil
	}
	var out []*Node
	for _, c := range n.Children {
		if c.Name == name {
			out = append(out, c)
		}
	}
	return out
}

// Find follows path from n, taking the first matching child at each step.
// It returns nil when any step is missing.
func (n *Node) Find(path ...string) *Node {
	cur := n
	for _, name := range path {
		if cur == nil {
			return nil
		}
		var next *Node
		for _, c := range cur.Children {
			if c.Name == name {
				next = c
				break
			}
		}
		cur = next
	}
	return cur
}

// All follows all but the last step of path like Find and returns every
// element matching the last step.
func (n *Node) All(path ...string) []*Node {
	if len(path) == 0 {
		if n == nil {
			return nil
		}
		return []*Node{n}
	}
	return n.Find(path[:len(path)-1]...).Elements(path[len(path)-1])
}

// Text returns the trimmed character data of the element at path,
// including text nested in inline markup. Missing elements yield "".
func (n *Node) Text(path ...string) string {
	target := n.Find(path...)
	if target == nil {
		return ""
	}
	var sb strings.Builder
	target.appendText(&sb)
	return strings.TrimSpace(sb.String())
}

func (n *Node) appendText(sb *strings.Builder) {
	if n.Name == "" {
		sb.WriteString(n.Data)
		return
	}
	for _, c := range n.Children {
		c.appendText(sb)
	}
}

// Attr returns the value of the named attribute, or "".
func (n *Node) Attr(name string) string {
	if n == nil {
		return ""
	}
	for _, a := range n.Attrs {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}

// Marshal encodes the subtree rooted at n as XML without a declaration.
// Parsing the output yields an equivalent tree.
func (n *Node) Marshal() ([]byte, error) {
	if !n.IsElement() {
		return nil, fmt.Errorf("xml: marshal requires an element node")
	}
	var buf bytes.Buffer
	enc := xml.NewEncoder(&buf)
	if err := n.encode(enc); err != nil {
		return nil, err
	}
	if err := enc.Flush(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (n *Node) encode(enc *xml.Encoder) error {
	if n.Name == "" {
		return enc.EncodeToken(xml.CharData(n.Data))
	}
	start := xml.StartElement{Name: xml.Name{Local: n.Name}, Attr: n.Attrs}
	if err := enc.EncodeToken(start); err != nil {
		return err
	}
	for _, c := range n.Children {
		if err := c.encode(enc); err != nil {
			return err
		}
	}
	return enc.EncodeToken(start.End())
}

// String returns the XML of the subtree, or "" for a nil node.
func (n *Node) String() string {
	if n == nil {
		return ""
	}
	b, err := n.Marshal()
	if err != nil {
		return ""
	}
	return string(b)
}
