package eutils

import (
	"github.com/henrybloomingdale/pubmed-go/internal/ncbi"
	"github.com/rs/zerolog"
)

const (
	// DefaultBaseURL is the NCBI E-utilities base URL.
	DefaultBaseURL = ncbi.DefaultBaseURL
	// DefaultTool identifies this application to NCBI.
	DefaultTool = ncbi.DefaultTool
	// DefaultEmail is the contact email sent to NCBI.
	DefaultEmail = ncbi.DefaultEmail
)

// Client runs term searches and PMID fetches against PubMed.
// It embeds ncbi.BaseClient for transport, rate limiting and common
// parameters.
//
// A Client carries per-query state (ReturnMax, ReturnStart and the last
// article count). It must not be used for concurrent queries without
// external synchronization; create one Client per goroutine instead and
// share the BaseClient between them.
type Client struct {
	*ncbi.BaseClient

	db           string
	returnMax    int
	returnStart  int
	concurrency  int
	articleCount int
	log          zerolog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithDatabase sets the Entrez database name (default "PubMed").
func WithDatabase(db string) Option {
	return func(c *Client) { c.db = db }
}

// WithReturnMax sets the maximum number of ids a search returns.
func WithReturnMax(n int) Option {
	return func(c *Client) { c.returnMax = n }
}

// WithReturnStart sets the offset into the ranked search results.
func WithReturnStart(n int) Option {
	return func(c *Client) { c.returnStart = n }
}

// WithConcurrency sets how many per-PMID fetches a search may run at
// once. Values below 2 keep fetches sequential.
func WithConcurrency(n int) Option {
	return func(c *Client) { c.concurrency = n }
}

// WithLogger sets the logger for query-level events.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) { c.log = l }
}

// Re-export transport options so callers only need this package.
var (
	WithBaseURL    = ncbi.WithBaseURL
	WithAPIKey     = ncbi.WithAPIKey
	WithTool       = ncbi.WithTool
	WithEmail      = ncbi.WithEmail
	WithHTTPClient = ncbi.WithHTTPClient
)

// New creates a Client on top of an existing base client. Use this to
// share one rate limiter between several Clients.
func New(base *ncbi.BaseClient, opts ...Option) *Client {
	c := &Client{
		BaseClient:  base,
		db:          DefaultDatabase,
		returnMax:   DefaultReturnMax,
		returnStart: DefaultReturnStart,
		concurrency: 1,
		log:         zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewClient creates a Client with a fresh base client configured by opts.
func NewClient(opts ...ncbi.Option) *Client {
	return New(ncbi.NewBaseClient(opts...))
}

// ArticleCount returns the count observed by the most recent query: the
// total match count for a search, 1 or 0 for a fetch.
func (c *Client) ArticleCount() int {
	return c.articleCount
}

// SetReturnMax sets the maximum number of ids a search returns.
func (c *Client) SetReturnMax(n int) {
	c.returnMax = n
}

// SetReturnStart sets the offset into the ranked search results.
func (c *Client) SetReturnStart(n int) {
	c.returnStart = n
}

// ReturnMax returns the configured maximum number of search results.
func (c *Client) ReturnMax() int {
	return c.returnMax
}

// ReturnStart returns the configured search offset.
func (c *Client) ReturnStart() int {
	return c.returnStart
}

// Database returns the Entrez database queried.
func (c *Client) Database() string {
	return c.db
}
