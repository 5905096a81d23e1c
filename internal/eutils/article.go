package eutils

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/henrybloomingdale/pubmed-go/internal/xmlnode"
)

// medlineYearRe matches a MedlineDate that starts with exactly four digits,
// e.g. "1998 Jan-Feb" or "2001-2002".
var medlineYearRe = regexp.MustCompile(`^(\d{4})(?:\D|$)`)

// Article is one PubMed citation backed by its PubmedArticle XML subtree.
// All accessors derive their value from the tree on demand and return ""
// (or an empty slice) when the source element is absent.
type Article struct {
	pmid string
	node *xmlnode.Node
}

// newArticle wraps a PubmedArticle element. It fails only when the
// element carries no PMID.
func newArticle(node *xmlnode.Node) (*Article, error) {
	pmid := node.Text("MedlineCitation", "PMID")
	if pmid == "" {
		return nil, &ValidationError{Field: "PMID", Err: ErrMissingPMID}
	}
	return &Article{pmid: pmid, node: node}, nil
}

// ParseArticle builds an Article from a document whose root is either a
// PubmedArticle or a PubmedArticleSet holding exactly one PubmedArticle.
func ParseArticle(data []byte) (*Article, error) {
	root, err := xmlnode.ParseBytes(data)
	if err != nil {
		return nil, &ParseError{Op: "article", Err: err}
	}

	switch root.Name {
	case "PubmedArticle":
		return newArticle(root)
	case "PubmedArticleSet":
		articles := root.Elements("PubmedArticle")
		if len(articles) != 1 {
			return nil, fmt.Errorf("expected exactly one PubmedArticle, found %d", len(articles))
		}
		return newArticle(articles[0])
	default:
		return nil, fmt.Errorf("unexpected root element %q", root.Name)
	}
}

// article is the MedlineCitation/Article element most fields live under.
func (a *Article) article() *xmlnode.Node {
	return a.node.Find("MedlineCitation", "Article")
}

func (a *Article) journal() *xmlnode.Node {
	return a.article().Find("Journal")
}

// PMID returns the PubMed identifier. It is never empty.
func (a *Article) PMID() string { return a.pmid }

func (a *Article) Volume() string { return a.journal().Text("JournalIssue", "Volume") }

func (a *Article) Issue() string { return a.journal().Text("JournalIssue", "Issue") }

// PubYear returns PubDate/Year. Without it, the leading year of a
// MedlineDate such as "1998 Jan-Feb" is used, then ArticleDate/Year.
func (a *Article) PubYear() string {
	pubDate := a.journal().Find("JournalIssue", "PubDate")
	if y := pubDate.Text("Year"); y != "" {
		return y
	}
	if m := medlineYearRe.FindStringSubmatch(pubDate.Text("MedlineDate")); m != nil {
		return m[1]
	}
	return a.article().Text("ArticleDate", "Year")
}

func (a *Article) PubMonth() string { return a.journal().Text("JournalIssue", "PubDate", "Month") }

func (a *Article) PubDay() string { return a.journal().Text("JournalIssue", "PubDate", "Day") }

func (a *Article) ISSN() string { return a.journal().Text("ISSN") }

func (a *Article) JournalTitle() string { return a.journal().Text("Title") }

func (a *Article) JournalAbbr() string { return a.journal().Text("ISOAbbreviation") }

func (a *Article) Pagination() string { return a.article().Text("Pagination", "MedlinePgn") }

func (a *Article) ArticleTitle() string { return a.article().Text("ArticleTitle") }

// AbstractText returns the first AbstractText section.
func (a *Article) AbstractText() string { return a.article().Text("Abstract", "AbstractText") }

func (a *Article) Affiliation() string { return a.article().Text("Affiliation") }

// Authors returns "LastName Initials" for every author, in list order.
// A collective author without a LastName is rendered by its
// CollectiveName. The result is empty, not nil, without an AuthorList.
func (a *Article) Authors() []string {
	list := a.article().All("AuthorList", "Author")
	authors := make([]string, 0, len(list))
	for _, au := range list {
		authors = append(authors, formatAuthor(au))
	}
	return authors
}

func formatAuthor(au *xmlnode.Node) string {
	last := au.Text("LastName")
	if last == "" {
		if collective := au.Text("CollectiveName"); collective != "" {
			return collective
		}
	}
	return strings.TrimSpace(last + " " + au.Text("Initials"))
}

// DOI returns the ArticleIdList entry of type "doi".
func (a *Article) DOI() string { return a.articleID("doi") }

// PII returns the ArticleIdList entry of type "pii".
func (a *Article) PII() string { return a.articleID("pii") }

func (a *Article) articleID(idType string) string {
	for _, id := range a.node.All("PubmedData", "ArticleIdList", "ArticleId") {
		if id.Attr("IdType") == idType {
			return id.Text()
		}
	}
	return ""
}

// PublicationStatus returns e.g. "ppublish" or "epublish".
func (a *Article) PublicationStatus() string {
	return a.node.Text("PubmedData", "PublicationStatus")
}

// ToRecord returns the flat record view of the article.
func (a *Article) ToRecord() Record {
	return Record{
		PMID:              a.PMID(),
		Volume:            a.Volume(),
		Issue:             a.Issue(),
		PubYear:           a.PubYear(),
		PubMonth:          a.PubMonth(),
		PubDay:            a.PubDay(),
		ISSN:              a.ISSN(),
		JournalTitle:      a.JournalTitle(),
		JournalAbbr:       a.JournalAbbr(),
		Pagination:        a.Pagination(),
		ArticleTitle:      a.ArticleTitle(),
		AbstractText:      a.AbstractText(),
		Affiliation:       a.Affiliation(),
		Authors:           a.Authors(),
		Doid:              a.DOI(),
		Pii:               a.PII(),
		PublicationStatus: a.PublicationStatus(),
	}
}

// ToJSON encodes the record view as JSON text.
func (a *Article) ToJSON() ([]byte, error) {
	return json.Marshal(a.ToRecord())
}

// MarshalJSON makes an Article encode as its record.
func (a *Article) MarshalJSON() ([]byte, error) {
	return a.ToJSON()
}

// String returns the backing PubmedArticle XML.
func (a *Article) String() string {
	return a.node.String()
}
