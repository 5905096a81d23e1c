package output

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/henrybloomingdale/pubmed-go/internal/eutils"
)

// writeRecordsRIS exports records to RIS format for citation managers.
func writeRecordsRIS(path string, records []eutils.Record) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating RIS file: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for i, r := range records {
		writeRISTag(w, "TY", "JOUR")
		writeRISTag(w, "TI", r.ArticleTitle)

		for _, au := range r.Authors {
			writeRISTag(w, "AU", risAuthor(au))
		}

		writeRISTag(w, "PY", r.PubYear)
		writeRISTag(w, "DA", risDate(r))
		writeRISTag(w, "JO", r.JournalTitle)
		writeRISTag(w, "J2", r.JournalAbbr)
		writeRISTag(w, "SN", r.ISSN)
		writeRISTag(w, "VL", r.Volume)
		writeRISTag(w, "IS", r.Issue)

		startPage, endPage := splitPages(r.Pagination)
		writeRISTag(w, "SP", startPage)
		writeRISTag(w, "EP", endPage)

		writeRISTag(w, "DO", r.Doid)
		writeRISTag(w, "AB", r.AbstractText)
		writeRISTag(w, "AD", r.Affiliation)
		if r.PMID != "" {
			writeRISTag(w, "ID", "PMID:"+r.PMID)
			writeRISTag(w, "UR", "https://pubmed.ncbi.nlm.nih.gov/"+r.PMID+"/")
		}
		writeRISTag(w, "ER", "")

		if i < len(records)-1 {
			if _, err := w.WriteString("\n"); err != nil {
				return fmt.Errorf("writing RIS separator: %w", err)
			}
		}
	}

	if err := w.Flush(); err != nil {
		return fmt.Errorf("flushing RIS output: %w", err)
	}

	return nil
}

func writeRISTag(w *bufio.Writer, tag, value string) {
	if tag == "" {
		return
	}
	if tag != "ER" && strings.TrimSpace(value) == "" {
		return
	}
	if tag == "ER" {
		_, _ = w.WriteString("ER  -\n")
		return
	}
	_, _ = w.WriteString(tag + "  - " + sanitizeRISValue(value) + "\n")
}

func sanitizeRISValue(v string) string {
	v = strings.ReplaceAll(v, "\r\n", " ")
	v = strings.ReplaceAll(v, "\n", " ")
	v = strings.ReplaceAll(v, "\r", " ")
	return strings.TrimSpace(v)
}

// risAuthor turns "Smith JA" into "Smith, JA". A name without initials
// (a collective author) is kept as is.
func risAuthor(name string) string {
	name = strings.TrimSpace(name)
	i := strings.LastIndex(name, " ")
	if i < 0 {
		return name
	}
	initials := name[i+1:]
	if initials == "" || strings.ToUpper(initials) != initials {
		return name
	}
	return name[:i] + ", " + initials
}

// risDate renders the publication date as YYYY/MM/DD/ with empty parts
// left blank, as RIS DA expects.
func risDate(r eutils.Record) string {
	if r.PubYear == "" {
		return ""
	}
	return fmt.Sprintf("%s/%s/%s/", r.PubYear, r.PubMonth, r.PubDay)
}

func splitPages(pages string) (string, string) {
	pages = strings.TrimSpace(pages)
	if pages == "" {
		return "", ""
	}

	rangeSeparators := []string{"-", "–", "—"}
	for _, sep := range rangeSeparators {
		if strings.Contains(pages, sep) {
			parts := strings.SplitN(pages, sep, 2)
			start := strings.TrimSpace(parts[0])
			end := strings.TrimSpace(parts[1])
			return start, end
		}
	}

	return pages, ""
}
