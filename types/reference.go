package types

import (
	"strconv"
	"strings"
)

// Reference is a normalized paper reference as returned by any research
// source. Per-source payloads (arXiv Atom entries, PubMed summaries,
// Scholar organic results) are flattened into this shape before they
// reach the pipeline.
type Reference struct {
	Title    string   `json:"title"`
	Authors  []string `json:"authors"`
	Abstract string   `json:"abstract"`
	URL      string   `json:"url"`
	Year     int      `json:"year,omitempty"`
	Source   string   `json:"source"`
}

// Citation renders the reference in a plain academic citation style for
// prompt embedding. Author lists are truncated to three names plus "et al.".
func (r Reference) Citation() string {
	var b strings.Builder
	for i, a := range r.Authors {
		if i == 3 {
			b.WriteString(" et al.")
			break
		}
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(a)
	}
	if r.Year > 0 {
		if b.Len() > 0 {
			b.WriteString(" ")
		}
		b.WriteString("(" + strconv.Itoa(r.Year) + ")")
	}
	if b.Len() > 0 {
		b.WriteString(". ")
	}
	b.WriteString(r.Title + ".")
	return b.String()
}
