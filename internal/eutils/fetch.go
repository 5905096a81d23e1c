package eutils

import (
	"context"
	"strconv"
)

// FetchByID retrieves the article for one PMID.
//
// The boolean is false, with a nil error, when the response holds zero or
// more than one PubmedArticle; the article count is then 0. On success
// the article count is 1. Transport failures surface as
// *ncbi.TransportError and malformed XML as *ParseError.
func (c *Client) FetchByID(ctx context.Context, pmid string) (*Article, bool, error) {
	c.articleCount = 0

	a, ok, err := c.fetch(ctx, c.newQuery(pmid))
	if err != nil || !ok {
		return nil, false, err
	}

	c.articleCount = 1
	return a, true, nil
}

// FetchByIntID is FetchByID for a numeric PMID.
func (c *Client) FetchByIntID(ctx context.Context, pmid int64) (*Article, bool, error) {
	return c.FetchByID(ctx, strconv.FormatInt(pmid, 10))
}

// fetch runs one EFetch without touching the client's article count.
func (c *Client) fetch(ctx context.Context, q Query) (*Article, bool, error) {
	root, err := c.query(ctx, FetchEndpoint, q)
	if err != nil {
		return nil, false, err
	}

	articles := root.Elements("PubmedArticle")
	if len(articles) != 1 {
		c.log.Debug().Str("pmid", q.Value).Int("articles", len(articles)).Msg("fetch returned no single article")
		return nil, false, nil
	}

	a, err := newArticle(articles[0])
	if err != nil {
		return nil, false, err
	}
	return a, true, nil
}
