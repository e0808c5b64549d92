package extract

import (
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/filinglab/riskseg/internal/filing"
)

// Target describes the section to locate, e.g. item "1A" of a 10-K.
type Target struct {
	Item string // "1A"
}

// SectionID returns the canonical identifier, e.g. "item1a".
func (t Target) SectionID() string {
	return "item" + strings.ToLower(t.Item)
}

// titleRe matches the item header at the start of a normalized title. No end
// anchor: "item 1a. risk factors" must match as readily as "item 1a.".
func (t Target) titleRe() *regexp.Regexp {
	return cachedRe(`(?i)^item\s+` + regexp.QuoteMeta(strings.ToLower(t.Item)) + `\b`)
}

// anchorRe matches the item token inside an anchor identifier, tolerating
// separator variants ("item_1a", "ITEM-1A.risk_factors"). The token must end
// at a non-alphanumeric rune or the anchor end, so item "1" never claims an
// "item1a" anchor.
func (t Target) anchorRe() *regexp.Regexp {
	return cachedRe(`(?i)item[\s_.-]*` + regexp.QuoteMeta(strings.ToLower(t.Item)) + `(?:[^0-9a-z]|$)`)
}

// Boundary and anchor patterns are checked per node; the cache keeps the
// compile out of that loop. Workers locate concurrently.
var reCache sync.Map

func cachedRe(expr string) *regexp.Regexp {
	if re, ok := reCache.Load(expr); ok {
		return re.(*regexp.Regexp)
	}
	re := regexp.MustCompile(expr)
	reCache.Store(expr, re)
	return re
}

// Locate returns the index of the node that starts the target section.
// Three tiers, first success wins:
//
//  1. top-level titles carrying an explicit identifier anchor;
//  2. sub-item titles matched by identifier or by regex over their text;
//  3. flexible fallback: case-fold and whitespace-collapse every title,
//     then pattern match.
//
// A miss returns ErrSectionNotFound, never a panic: many filings simply
// omit the section or incorporate it by reference.
func Locate(doc *filing.Document, target Target) (int, error) {
	re := target.titleRe()
	anchorRe := target.anchorRe()

	// Tier 1: explicit identifier on a top-level title.
	for i := range doc.Nodes {
		n := &doc.Nodes[i]
		if n.Kind == filing.KindTitleTopLevel && identifierMatches(n.Identifier, anchorRe) {
			return i, nil
		}
	}

	// Tier 2: sub-item titles by identifier or text pattern.
	for i := range doc.Nodes {
		n := &doc.Nodes[i]
		if n.Kind != filing.KindTitleSubItem {
			continue
		}
		if identifierMatches(n.Identifier, anchorRe) || re.MatchString(NormalizeTitle(n.Text)) {
			return i, nil
		}
	}

	// Tier 3: flexible match over every title node.
	for i := range doc.Nodes {
		n := &doc.Nodes[i]
		if !n.IsTitle() {
			continue
		}
		if re.MatchString(NormalizeTitle(n.Text)) {
			return i, nil
		}
	}

	return 0, fmt.Errorf("%w: %s", ErrSectionNotFound, target.SectionID())
}

func identifierMatches(anchor string, re *regexp.Regexp) bool {
	return anchor != "" && re.MatchString(anchor)
}
