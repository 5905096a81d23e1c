package eutils

import (
	"context"
	"net/url"
	"strconv"

	"github.com/henrybloomingdale/pubmed-go/internal/xmlnode"
)

const (
	// DefaultDatabase is the Entrez database searched.
	DefaultDatabase = "PubMed"
	// DefaultReturnMax is the default maximum number of search results.
	DefaultReturnMax = 10
	// DefaultReturnStart is the default offset into search results.
	DefaultReturnStart = 0
	// ReturnMode is the only response format this package parses.
	ReturnMode = "xml"
)

// Endpoint is an E-utilities operation together with the name of the
// parameter that carries the caller's search value.
type Endpoint struct {
	Path       string
	SearchName string
}

var (
	// SearchEndpoint runs ESearch with a free-text term.
	SearchEndpoint = Endpoint{Path: "esearch.fcgi", SearchName: "term"}
	// FetchEndpoint runs EFetch for a PMID.
	FetchEndpoint = Endpoint{Path: "efetch.fcgi", SearchName: "id"}
)

// Query holds the per-request parameters.
type Query struct {
	DB       string
	RetMax   int
	RetStart int
	Value    string
}

// Params returns the request parameters for q. The value is passed
// through unchanged, including when empty; encoding happens in Encode.
func (e Endpoint) Params(q Query) url.Values {
	params := url.Values{}
	params.Set("db", q.DB)
	params.Set("retmax", strconv.Itoa(q.RetMax))
	params.Set("retmode", ReturnMode)
	params.Set("retstart", strconv.Itoa(q.RetStart))
	params.Set(e.SearchName, q.Value)
	return params
}

// URL returns the complete request URL for q against baseURL, with the
// search value percent-encoded.
func (e Endpoint) URL(baseURL string, q Query) (string, error) {
	u, err := url.JoinPath(baseURL, e.Path)
	if err != nil {
		return "", err
	}
	return u + "?" + e.Params(q).Encode(), nil
}

// query sends q to endpoint and parses the response body.
func (c *Client) query(ctx context.Context, e Endpoint, q Query) (*xmlnode.Node, error) {
	body, err := c.DoGet(ctx, e.Path, e.Params(q))
	if err != nil {
		return nil, err
	}

	root, err := xmlnode.ParseBytes(body)
	if err != nil {
		return nil, &ParseError{Op: e.Path, Err: err}
	}
	return root, nil
}

// newQuery builds a query from the client's current settings.
func (c *Client) newQuery(value string) Query {
	return Query{
		DB:       c.db,
		RetMax:   c.returnMax,
		RetStart: c.returnStart,
		Value:    value,
	}
}
