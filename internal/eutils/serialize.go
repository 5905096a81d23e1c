package eutils

import (
	"fmt"

	"github.com/henrybloomingdale/pubmed-go/internal/xmlnode"
	"google.golang.org/protobuf/encoding/protowire"
)

// Binary layout, protobuf wire format:
//
//	1: PMID (bytes)
//	2: PubmedArticle XML (bytes)
const (
	fieldPMID protowire.Number = 1
	fieldXML  protowire.Number = 2
)

// MarshalBinary encodes the article for storage or transit.
func (a *Article) MarshalBinary() ([]byte, error) {
	raw, err := a.node.Marshal()
	if err != nil {
		return nil, fmt.Errorf("encoding article %s: %w", a.pmid, err)
	}

	b := make([]byte, 0, len(raw)+len(a.pmid)+16)
	b = protowire.AppendTag(b, fieldPMID, protowire.BytesType)
	b = protowire.AppendString(b, a.pmid)
	b = protowire.AppendTag(b, fieldXML, protowire.BytesType)
	b = protowire.AppendBytes(b, raw)
	return b, nil
}

// UnmarshalBinary restores an article written by MarshalBinary.
// Unknown fields are skipped.
func (a *Article) UnmarshalBinary(data []byte) error {
	var pmid string
	var raw []byte

	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return fmt.Errorf("decoding article: %w", protowire.ParseError(n))
		}
		data = data[n:]

		switch {
		case num == fieldPMID && typ == protowire.BytesType:
			v, m := protowire.ConsumeString(data)
			if m < 0 {
				return fmt.Errorf("decoding article PMID: %w", protowire.ParseError(m))
			}
			pmid = v
			data = data[m:]
		case num == fieldXML && typ == protowire.BytesType:
			v, m := protowire.ConsumeBytes(data)
			if m < 0 {
				return fmt.Errorf("decoding article XML: %w", protowire.ParseError(m))
			}
			raw = v
			data = data[m:]
		default:
			m := protowire.ConsumeFieldValue(num, typ, data)
			if m < 0 {
				return fmt.Errorf("decoding article: %w", protowire.ParseError(m))
			}
			data = data[m:]
		}
	}

	if raw == nil {
		return fmt.Errorf("decoding article: no XML payload")
	}
	node, err := xmlnode.ParseBytes(raw)
	if err != nil {
		return &ParseError{Op: "article", Err: err}
	}
	if node.Name != "PubmedArticle" {
		return fmt.Errorf("decoding article: unexpected root element %q", node.Name)
	}

	restored, err := newArticle(node)
	if err != nil {
		return err
	}
	if pmid != "" && pmid != restored.pmid {
		return fmt.Errorf("decoding article: PMID %q does not match payload PMID %q", pmid, restored.pmid)
	}

	*a = *restored
	return nil
}
