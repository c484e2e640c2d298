package feed

import (
	"fmt"
	"strings"

	"peerfeed/internal/domain"
)

// Description returns the HTML body for a record's feed item. Records
// restored from a previously written document carry their description
// verbatim, so re-serializing them is byte-stable; everything else is
// rendered from the structured fields.
func Description(rec domain.PublicationRecord) string {
	if rec.Description != "" {
		return rec.Description
	}

	var b strings.Builder
	fmt.Fprintf(&b, "<h5>%s</h5>\n", rec.Title)
	b.WriteString("<p>\n")

	if rec.Journal != "" {
		fmt.Fprintf(&b, "in <em>%s</em><br>\n", rec.Journal)
	} else {
		b.WriteString("<br>\n")
	}

	if len(rec.Authors) > 0 {
		b.WriteString(authorLine(rec.Authors))
		b.WriteString("<br>\n")
	}

	b.WriteString(referenceLine(rec))
	b.WriteString("\n</p>")

	return b.String()
}

// authorLine joins authors, linking each name to its ORCID profile when one
// is known.
func authorLine(authors []domain.Author) string {
	parts := make([]string, 0, len(authors))
	for _, a := range authors {
		if a.ORCID != "" {
			parts = append(parts, fmt.Sprintf(`<a href="%s" target="_blank" rel="noopener">%s</a>`, a.ORCID, a.Name))
		} else {
			parts = append(parts, a.Name)
		}
	}
	return strings.Join(parts, ", ")
}

// referenceLine formats the bibliographic reference: journal abbreviation,
// year, then volume and pages when known, otherwise a doi.org link.
func referenceLine(rec domain.PublicationRecord) string {
	abbr := rec.JournalAbbr
	if abbr == "" {
		abbr = rec.Journal
	}

	year := fmt.Sprintf("%d", rec.Year)
	if rec.Year == 0 && !rec.Issued.IsZero() {
		year = fmt.Sprintf("%d", rec.Issued.Year())
	}

	if rec.Pages != "" {
		pages := strings.ReplaceAll(rec.Pages, "-", "&ndash;")
		return fmt.Sprintf("<em>%s</em> <strong>%s</strong>, %s, %s", abbr, year, rec.Volume, pages)
	}

	if rec.DOI != "" {
		return fmt.Sprintf(`<em>%s</em> <strong>%s</strong>, <a href="https://doi.org/%s" target="_blank" rel="noopener">%s</a>`,
			abbr, year, rec.DOI, rec.DOI)
	}

	return fmt.Sprintf("<em>%s</em> <strong>%s</strong>", abbr, year)
}
