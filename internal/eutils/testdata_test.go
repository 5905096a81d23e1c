package eutils

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/henrybloomingdale/pubmed-go/internal/ncbi"
	"golang.org/x/time/rate"
)

// fullArticleXML is a PubmedArticleSet with one fully populated article.
const fullArticleXML = `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE PubmedArticleSet PUBLIC "-//NLM//DTD PubMedArticle, 1st January 2019//EN" "https://dtd.nlm.nih.gov/ncbi/pubmed/out/pubmed_190101.dtd">
<PubmedArticleSet>
  <PubmedArticle>
    <MedlineCitation Status="MEDLINE" Owner="NLM">
      <PMID Version="1">23456789</PMID>
      <Article PubModel="Print-Electronic">
        <Journal>
          <ISSN IssnType="Electronic">1097-6825</ISSN>
          <JournalIssue CitedMedium="Internet">
            <Volume>131</Volume>
            <Issue>4</Issue>
            <PubDate>
              <Year>2013</Year>
              <Month>Apr</Month>
              <Day>15</Day>
            </PubDate>
          </JournalIssue>
          <Title>The Journal of allergy and clinical immunology</Title>
          <ISOAbbreviation>J Allergy Clin Immunol</ISOAbbreviation>
        </Journal>
        <ArticleTitle>CFTR variants in <i>patients</i> with asthma.</ArticleTitle>
        <Pagination>
          <MedlinePgn>1020-7</MedlinePgn>
        </Pagination>
        <Abstract>
          <AbstractText Label="BACKGROUND">Cystic fibrosis carriers.</AbstractText>
          <AbstractText Label="METHODS">We sequenced CFTR.</AbstractText>
        </Abstract>
        <Affiliation>Ambry Genetics, Aliso Viejo, CA.</Affiliation>
        <AuthorList CompleteYN="Y">
          <Author ValidYN="Y">
            <LastName>Smith</LastName>
            <ForeName>John A</ForeName>
            <Initials>JA</Initials>
          </Author>
          <Author ValidYN="Y">
            <LastName>Doe</LastName>
            <ForeName>Jane</ForeName>
            <Initials>J</Initials>
          </Author>
          <Author ValidYN="Y">
            <LastName>Müller</LastName>
            <ForeName>Karl</ForeName>
            <Initials>K</Initials>
          </Author>
        </AuthorList>
        <ArticleDate DateType="Electronic">
          <Year>2013</Year>
          <Month>02</Month>
          <Day>20</Day>
        </ArticleDate>
      </Article>
    </MedlineCitation>
    <PubmedData>
      <PublicationStatus>ppublish</PublicationStatus>
      <ArticleIdList>
        <ArticleId IdType="pubmed">23456789</ArticleId>
        <ArticleId IdType="pii">S0091-6749(13)00123-4</ArticleId>
        <ArticleId IdType="doi">10.1016/j.jaci.2013.01.001</ArticleId>
      </ArticleIdList>
    </PubmedData>
  </PubmedArticle>
</PubmedArticleSet>`

// articleSetXML wraps PubmedArticle elements in a PubmedArticleSet.
func articleSetXML(articles ...string) string {
	out := `<?xml version="1.0" encoding="UTF-8"?><PubmedArticleSet>`
	for _, a := range articles {
		out += a
	}
	return out + `</PubmedArticleSet>`
}

// minimalArticleXML is a PubmedArticle with a PMID, a title and the given
// extra Article children and PubmedData children.
func minimalArticleXML(pmid, articleExtra, pubmedData string) string {
	return fmt.Sprintf(`<PubmedArticle><MedlineCitation><PMID>%s</PMID><Article><ArticleTitle>Article %s</ArticleTitle>%s</Article></MedlineCitation><PubmedData>%s</PubmedData></PubmedArticle>`,
		pmid, pmid, articleExtra, pubmedData)
}

const esearchTwoXML = `<?xml version="1.0" encoding="UTF-8" ?>
<!DOCTYPE eSearchResult PUBLIC "-//NLM//DTD esearch 20060628//EN" "https://eutils.ncbi.nlm.nih.gov/eutils/dtd/20060628/esearch.dtd">
<eSearchResult>
  <Count>2</Count>
  <RetMax>2</RetMax>
  <RetStart>0</RetStart>
  <IdList>
    <Id>111</Id>
    <Id>222</Id>
  </IdList>
</eSearchResult>`

const esearchEmptyXML = `<?xml version="1.0" encoding="UTF-8" ?>
<eSearchResult>
  <Count>0</Count>
  <RetMax>0</RetMax>
  <RetStart>0</RetStart>
  <IdList/>
</eSearchResult>`

const efetchEmptyXML = `<?xml version="1.0" encoding="UTF-8"?>
<PubmedArticleSet></PubmedArticleSet>`

// newTestClient returns a Client pointed at srvURL with client-side rate
// limiting disabled.
func newTestClient(t *testing.T, srvURL string, opts ...Option) *Client {
	t.Helper()
	base := ncbi.NewBaseClient(
		ncbi.WithBaseURL(srvURL),
		ncbi.WithRateLimit(rate.Inf, 1),
	)
	return New(base, opts...)
}

// deadURL returns the address of a server that has already been shut down.
func deadURL(t *testing.T) string {
	t.Helper()
	srv := httptest.NewServer(http.NotFoundHandler())
	u := srv.URL
	srv.Close()
	return u
}
