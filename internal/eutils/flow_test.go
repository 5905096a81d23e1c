package eutils

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/henrybloomingdale/pubmed-go/internal/ncbi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeEUtils serves esearch and efetch from canned bodies and records the
// fetch requests it sees.
type fakeEUtils struct {
	t        *testing.T
	search   string
	articles map[string]string
	delays   map[string]time.Duration
	failIDs  map[string]int

	mu            sync.Mutex
	fetchIDs      []string
	searchParams  []map[string]string
	fetchRetMaxes []string
}

func (f *fakeEUtils) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	switch r.URL.Path {
	case "/esearch.fcgi":
		f.mu.Lock()
		f.searchParams = append(f.searchParams, map[string]string{
			"term":     q.Get("term"),
			"retmax":   q.Get("retmax"),
			"retstart": q.Get("retstart"),
			"db":       q.Get("db"),
		})
		f.mu.Unlock()
		fmt.Fprint(w, f.search)
	case "/efetch.fcgi":
		id := q.Get("id")
		f.mu.Lock()
		f.fetchIDs = append(f.fetchIDs, id)
		f.fetchRetMaxes = append(f.fetchRetMaxes, q.Get("retmax"))
		f.mu.Unlock()

		if d := f.delays[id]; d > 0 {
			select {
			case <-time.After(d):
			case <-r.Context().Done():
				return
			}
		}
		if code := f.failIDs[id]; code != 0 {
			http.Error(w, "boom", code)
			return
		}
		body, ok := f.articles[id]
		if !ok {
			body = efetchEmptyXML
		}
		fmt.Fprint(w, body)
	default:
		f.t.Errorf("unexpected path %s", r.URL.Path)
		http.NotFound(w, r)
	}
}

func (f *fakeEUtils) fetched() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.fetchIDs...)
}

func newFake(t *testing.T, search string, pmids ...string) *fakeEUtils {
	f := &fakeEUtils{
		t:        t,
		search:   search,
		articles: make(map[string]string),
		delays:   make(map[string]time.Duration),
		failIDs:  make(map[string]int),
	}
	for _, id := range pmids {
		f.articles[id] = articleSetXML(minimalArticleXML(id, "", ""))
	}
	return f
}

func pmidsOf(articles []*Article) []string {
	out := make([]string, len(articles))
	for i, a := range articles {
		out[i] = a.PMID()
	}
	return out
}

func TestFetchByID_Success(t *testing.T) {
	f := newFake(t, "")
	f.articles["23456789"] = fullArticleXML
	srv := httptest.NewServer(f)
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	a, ok, err := c.FetchByID(context.Background(), "23456789")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "23456789", a.PMID())
	assert.Equal(t, "2013", a.PubYear())
	assert.Equal(t, 1, c.ArticleCount())
	assert.Equal(t, []string{"23456789"}, f.fetched())
}

func TestFetchByIntID(t *testing.T) {
	f := newFake(t, "", "12345")
	srv := httptest.NewServer(f)
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	a, ok, err := c.FetchByIntID(context.Background(), 12345)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "12345", a.PMID())
}

func TestFetchByID_NoResult(t *testing.T) {
	tests := map[string]string{
		"zero articles": efetchEmptyXML,
		"two articles":  articleSetXML(minimalArticleXML("1", "", ""), minimalArticleXML("2", "", "")),
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			f := newFake(t, "")
			f.articles["1"] = body
			srv := httptest.NewServer(f)
			defer srv.Close()

			c := newTestClient(t, srv.URL)
			a, ok, err := c.FetchByID(context.Background(), "1")
			require.NoError(t, err)
			assert.False(t, ok)
			assert.Nil(t, a)
			assert.Equal(t, 0, c.ArticleCount())
		})
	}
}

func TestFetchByID_MissingPMID(t *testing.T) {
	f := newFake(t, "")
	f.articles["1"] = articleSetXML(`<PubmedArticle><MedlineCitation><Article/></MedlineCitation></PubmedArticle>`)
	srv := httptest.NewServer(f)
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	_, ok, err := c.FetchByID(context.Background(), "1")
	assert.False(t, ok)
	assert.ErrorIs(t, err, ErrMissingPMID)
}

func TestFetchByID_MalformedXML(t *testing.T) {
	f := newFake(t, "")
	f.articles["1"] = `<PubmedArticleSet><PubmedArticle>`
	srv := httptest.NewServer(f)
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	a, ok, err := c.FetchByID(context.Background(), "1")
	require.Error(t, err)
	assert.False(t, ok)
	assert.Nil(t, a)

	var pe *ParseError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "efetch.fcgi", pe.Op)
}

func TestFetchByID_ConnectionRefused(t *testing.T) {
	c := newTestClient(t, deadURL(t))

	a, ok, err := c.FetchByID(context.Background(), "1")
	require.Error(t, err)
	assert.False(t, ok)
	assert.Nil(t, a)

	var te *ncbi.TransportError
	require.True(t, errors.As(err, &te))
	assert.NotEmpty(t, te.Error())
	assert.Equal(t, "efetch.fcgi", te.Op)
}

func TestFetchByID_HTTPError(t *testing.T) {
	f := newFake(t, "")
	f.failIDs["1"] = http.StatusBadGateway
	srv := httptest.NewServer(f)
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	_, ok, err := c.FetchByID(context.Background(), "1")
	assert.False(t, ok)

	var te *ncbi.TransportError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, http.StatusBadGateway, te.StatusCode)
}

func TestSearch_FetchesInOrder(t *testing.T) {
	f := newFake(t, esearchTwoXML, "111", "222")
	srv := httptest.NewServer(f)
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	articles, err := c.Search(context.Background(), "cystic fibrosis")
	require.NoError(t, err)

	assert.Equal(t, []string{"111", "222"}, f.fetched())
	assert.Equal(t, []string{"111", "222"}, pmidsOf(articles))
	assert.Equal(t, 2, c.ArticleCount())

	require.Len(t, f.searchParams, 1)
	assert.Equal(t, "cystic fibrosis", f.searchParams[0]["term"])
	assert.Equal(t, "PubMed", f.searchParams[0]["db"])
}

func TestSearch_ParallelKeepsOrder(t *testing.T) {
	f := newFake(t, esearchTwoXML, "111", "222")
	// 111 finishes well after 222.
	f.delays["111"] = 150 * time.Millisecond
	srv := httptest.NewServer(f)
	defer srv.Close()

	c := newTestClient(t, srv.URL, WithConcurrency(2))
	articles, err := c.Search(context.Background(), "cftr")
	require.NoError(t, err)

	assert.Equal(t, []string{"111", "222"}, pmidsOf(articles))
	assert.ElementsMatch(t, []string{"111", "222"}, f.fetched())
	assert.Len(t, f.fetched(), 2)
}

func TestSearch_PagingAppliesToSearchOnly(t *testing.T) {
	f := newFake(t, esearchTwoXML, "111", "222")
	srv := httptest.NewServer(f)
	defer srv.Close()

	c := newTestClient(t, srv.URL, WithReturnMax(50), WithReturnStart(100))
	_, err := c.Search(context.Background(), "cftr")
	require.NoError(t, err)

	require.Len(t, f.searchParams, 1)
	assert.Equal(t, "50", f.searchParams[0]["retmax"])
	assert.Equal(t, "100", f.searchParams[0]["retstart"])
	assert.Equal(t, []string{"10", "10"}, f.fetchRetMaxes)
}

func TestSearch_NoMatches(t *testing.T) {
	f := newFake(t, esearchEmptyXML)
	srv := httptest.NewServer(f)
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	articles, err := c.Search(context.Background(), "zzzz")
	require.NoError(t, err)
	assert.NotNil(t, articles)
	assert.Empty(t, articles)
	assert.Equal(t, 0, c.ArticleCount())
	assert.Empty(t, f.fetched())
}

func TestSearch_ESearchErrorElement(t *testing.T) {
	f := newFake(t, `<eSearchResult><ERROR>Invalid query</ERROR></eSearchResult>`)
	srv := httptest.NewServer(f)
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	articles, err := c.Search(context.Background(), "((")
	require.NoError(t, err)
	assert.Empty(t, articles)
}

func TestSearch_CountReflectsTotalMatches(t *testing.T) {
	search := `<eSearchResult><Count>1234</Count><IdList><Id>111</Id></IdList></eSearchResult>`
	f := newFake(t, search, "111")
	srv := httptest.NewServer(f)
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	articles, err := c.Search(context.Background(), "cftr")
	require.NoError(t, err)
	assert.Len(t, articles, 1)
	assert.Equal(t, 1234, c.ArticleCount())

	// A following fetch resets the count to its own result.
	_, ok, err := c.FetchByID(context.Background(), "999")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 0, c.ArticleCount())
}

func TestSearch_SkipsPMIDsWithoutSingleArticle(t *testing.T) {
	f := newFake(t, esearchTwoXML, "222")
	srv := httptest.NewServer(f)
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	articles, err := c.Search(context.Background(), "cftr")
	require.NoError(t, err)
	assert.Equal(t, []string{"222"}, pmidsOf(articles))
	assert.Equal(t, []string{"111", "222"}, f.fetched())
}

func TestSearch_ConnectionRefused(t *testing.T) {
	c := newTestClient(t, deadURL(t))

	articles, err := c.Search(context.Background(), "cftr")
	require.Error(t, err)
	assert.Nil(t, articles)

	var te *ncbi.TransportError
	require.True(t, errors.As(err, &te))
	assert.NotEmpty(t, te.Error())
	assert.Equal(t, "esearch.fcgi", te.Op)
}

func TestSearch_FetchFailureAborts(t *testing.T) {
	for _, concurrency := range []int{1, 2} {
		t.Run(fmt.Sprintf("concurrency=%d", concurrency), func(t *testing.T) {
			f := newFake(t, esearchTwoXML, "111", "222")
			f.failIDs["111"] = http.StatusInternalServerError
			srv := httptest.NewServer(f)
			defer srv.Close()

			c := newTestClient(t, srv.URL, WithConcurrency(concurrency))
			articles, err := c.Search(context.Background(), "cftr")
			require.Error(t, err)
			assert.Nil(t, articles)
			assert.Contains(t, err.Error(), "fetching PMID 111")

			var te *ncbi.TransportError
			require.True(t, errors.As(err, &te))
			assert.Equal(t, http.StatusInternalServerError, te.StatusCode)
		})
	}
}

func TestSearch_SequentialStopsAtFirstFailure(t *testing.T) {
	f := newFake(t, esearchTwoXML, "111", "222")
	f.failIDs["111"] = http.StatusInternalServerError
	srv := httptest.NewServer(f)
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	_, err := c.Search(context.Background(), "cftr")
	require.Error(t, err)
	assert.Equal(t, []string{"111"}, f.fetched())
}

func TestSearch_MalformedSearchXML(t *testing.T) {
	f := newFake(t, `<eSearchResult><Count>2`)
	srv := httptest.NewServer(f)
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	_, err := c.Search(context.Background(), "cftr")

	var pe *ParseError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "esearch.fcgi", pe.Op)
}

func TestSearch_ContextCanceled(t *testing.T) {
	f := newFake(t, esearchTwoXML, "111", "222")
	f.delays["111"] = 2 * time.Second
	srv := httptest.NewServer(f)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	c := newTestClient(t, srv.URL)
	articles, err := c.Search(ctx, "cftr")
	require.Error(t, err)
	assert.Nil(t, articles)
}
