package extract

import (
	"regexp"

	"github.com/filinglab/riskseg/internal/filing"
)

// nextItemRe recognizes the header of any item section. Deliberately not
// end-anchored: titles frequently carry trailing descriptive text
// ("Item 1B. Unresolved Staff Comments") and an end anchor silently misses
// them, truncating boundary detection.
var nextItemRe = regexp.MustCompile(`(?i)^item\s+\d+[a-z]?\s*\.`)

// IsBoundary reports whether node starts the next section. Top-level titles
// end collection; sub-item titles end it when their normalized text reads as
// an item header. Only title-classified nodes qualify: prose cross-references
// ("see Item 7A. for details") must never fire. The target's own header is
// exempt in both cases: multi-page filings restate it after page breaks
// ("Item 1A. Risk Factors (continued)"), and terminating there would
// silently truncate the section at the first page break.
func IsBoundary(n *filing.Node, target Target) bool {
	switch n.Kind {
	case filing.KindTitleTopLevel:
		return !target.titleRe().MatchString(NormalizeTitle(n.Text))
	case filing.KindTitleSubItem:
		t := NormalizeTitle(n.Text)
		return nextItemRe.MatchString(t) && !target.titleRe().MatchString(t)
	default:
		return false
	}
}

// TableCrossesBoundary scans a table node's text for an item header other
// than the target's own. Tables are excluded from body text but EDGAR
// occasionally wraps the next section header inside table markup, so they
// still get boundary-scanned.
func TableCrossesBoundary(n *filing.Node, target Target) bool {
	if n.Kind != filing.KindTable {
		return false
	}
	t := NormalizeTitle(n.Text)
	return nextItemRe.MatchString(t) && !target.titleRe().MatchString(t)
}
