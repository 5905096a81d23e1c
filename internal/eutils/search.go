package eutils

import (
	"context"
	"fmt"
	"strconv"

	"golang.org/x/sync/errgroup"
)

// Search runs an ESearch for term and fetches every returned PMID.
//
// The articles come back in the order of the search's IdList. A search
// with no matches returns an empty, non-nil slice. PMIDs whose fetch
// yields no single article are skipped. The first fetch failure aborts
// the search and no partial result is returned.
//
// After Search, ArticleCount reports the total match count of the search,
// which may exceed the number of articles returned.
func (c *Client) Search(ctx context.Context, term string) ([]*Article, error) {
	root, err := c.query(ctx, SearchEndpoint, c.newQuery(term))
	if err != nil {
		return nil, err
	}

	count, _ := strconv.Atoi(root.Text("Count"))
	c.articleCount = count

	if msg := root.Text("ERROR"); msg != "" {
		c.log.Warn().Str("term", term).Str("error", msg).Msg("esearch reported an error")
	}
	if count <= 0 {
		return []*Article{}, nil
	}

	var pmids []string
	for _, id := range root.All("IdList", "Id") {
		if v := id.Text(); v != "" {
			pmids = append(pmids, v)
		}
	}
	c.log.Debug().Str("term", term).Int("count", count).Int("ids", len(pmids)).Msg("esearch complete")

	return c.fetchAll(ctx, pmids)
}

// fetchQuery is the query used for each per-PMID fetch of a search. It
// ignores the client's paging settings, which apply to the search only.
func (c *Client) fetchQuery(pmid string) Query {
	return Query{
		DB:       c.db,
		RetMax:   DefaultReturnMax,
		RetStart: DefaultReturnStart,
		Value:    pmid,
	}
}

// fetchAll fetches pmids and returns their articles in input order.
// With concurrency above one, fetches run in parallel up to that limit
// and the first failure cancels the ones still in flight.
func (c *Client) fetchAll(ctx context.Context, pmids []string) ([]*Article, error) {
	results := make([]*Article, len(pmids))

	if c.concurrency <= 1 {
		for i, pmid := range pmids {
			a, _, err := c.fetch(ctx, c.fetchQuery(pmid))
			if err != nil {
				return nil, fmt.Errorf("fetching PMID %s: %w", pmid, err)
			}
			results[i] = a
		}
	} else {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(c.concurrency)
		for i, pmid := range pmids {
			i, pmid := i, pmid
			g.Go(func() error {
				a, _, err := c.fetch(gctx, c.fetchQuery(pmid))
				if err != nil {
					return fmt.Errorf("fetching PMID %s: %w", pmid, err)
				}
				results[i] = a
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	}

	articles := make([]*Article, 0, len(results))
	for i, a := range results {
		if a == nil {
			c.log.Warn().Str("pmid", pmids[i]).Msg("no article returned for PMID, skipping")
			continue
		}
		articles = append(articles, a)
	}
	return articles, nil
}
