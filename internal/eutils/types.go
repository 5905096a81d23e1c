// Package eutils provides a client for the NCBI PubMed E-utilities API:
// term search, PMID fetch, and extraction of flat article records from
// the returned XML.
package eutils

import "strings"

// RecordKeys lists the record fields in their canonical order.
var RecordKeys = []string{
	"PMID", "Volume", "Issue", "PubYear", "PubMonth", "PubDay",
	"ISSN", "JournalTitle", "JournalAbbr", "Pagination", "ArticleTitle",
	"AbstractText", "Affiliation", "Authors", "Doid", "Pii", "PublicationStatus",
}

// Record is the flat view of an Article. Field order matches RecordKeys,
// which is also the JSON key order.
type Record struct {
	PMID              string   `json:"PMID"`
	Volume            string   `json:"Volume"`
	Issue             string   `json:"Issue"`
	PubYear           string   `json:"PubYear"`
	PubMonth          string   `json:"PubMonth"`
	PubDay            string   `json:"PubDay"`
	ISSN              string   `json:"ISSN"`
	JournalTitle      string   `json:"JournalTitle"`
	JournalAbbr       string   `json:"JournalAbbr"`
	Pagination        string   `json:"Pagination"`
	ArticleTitle      string   `json:"ArticleTitle"`
	AbstractText      string   `json:"AbstractText"`
	Affiliation       string   `json:"Affiliation"`
	Authors           []string `json:"Authors"`
	Doid              string   `json:"Doid"`
	Pii               string   `json:"Pii"`
	PublicationStatus string   `json:"PublicationStatus"`
}

// Map returns the record keyed by RecordKeys. Authors stays a []string.
func (r Record) Map() map[string]any {
	authors := r.Authors
	if authors == nil {
		authors = []string{}
	}
	return map[string]any{
		"PMID":              r.PMID,
		"Volume":            r.Volume,
		"Issue":             r.Issue,
		"PubYear":           r.PubYear,
		"PubMonth":          r.PubMonth,
		"PubDay":            r.PubDay,
		"ISSN":              r.ISSN,
		"JournalTitle":      r.JournalTitle,
		"JournalAbbr":       r.JournalAbbr,
		"Pagination":        r.Pagination,
		"ArticleTitle":      r.ArticleTitle,
		"AbstractText":      r.AbstractText,
		"Affiliation":       r.Affiliation,
		"Authors":           authors,
		"Doid":              r.Doid,
		"Pii":               r.Pii,
		"PublicationStatus": r.PublicationStatus,
	}
}

// Row returns the record as strings in RecordKeys order, with authors
// joined by "; ". Used by tabular exports.
func (r Record) Row() []string {
	return []string{
		r.PMID, r.Volume, r.Issue, r.PubYear, r.PubMonth, r.PubDay,
		r.ISSN, r.JournalTitle, r.JournalAbbr, r.Pagination, r.ArticleTitle,
		r.AbstractText, r.Affiliation, strings.Join(r.Authors, "; "),
		r.Doid, r.Pii, r.PublicationStatus,
	}
}
