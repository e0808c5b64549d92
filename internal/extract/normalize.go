package extract

import (
	"regexp"
	"strings"
)

var (
	// Page header/footer artifacts: "Apple Inc. | 2023 Form 10-K | 23" and
	// close variants. These appear mid-section wherever a print page broke.
	pageArtifactRe = regexp.MustCompile(`(?i)^.{0,60}\|\s*\d{4}\s+form\s+10-[kq]\s*(\||$)`)

	// Bare page markers: a lone number, "Page 12", "12 | Page", "- 12 -".
	pageNumberRe = regexp.MustCompile(`(?i)^(-\s*)?(page\s+)?\d{1,4}(\s*\|\s*page)?(\s*-)?$`)

	// Table-of-contents dot leaders: "Item 1A. Risk Factors ...... 14".
	dotLeaderRe = regexp.MustCompile(`\.{3,}\s*\d{1,4}$`)

	multiSpaceRe = regexp.MustCompile(`[ \t]{2,}`)
)

// Normalize collapses whitespace and removes markup remnants from one text
// block: NBSP and zero-width characters, entity leftovers, runs of spaces.
func Normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch r {
		case '\u00a0', '\u2007', '\u2009', '\u202f':
			b.WriteByte(' ')
		case '\u200b', '\u200c', '\u200d', '\ufeff':
			// zero-width characters
		default:
			b.WriteRune(r)
		}
	}
	out := b.String()
	out = strings.ReplaceAll(out, "&nbsp;", " ")
	out = strings.ReplaceAll(out, "&amp;", "&")
	out = multiSpaceRe.ReplaceAllString(out, " ")
	return strings.TrimSpace(out)
}

// NormalizeTitle case-folds and whitespace-collapses a title for flexible
// matching (locator tier 3 and boundary classification).
func NormalizeTitle(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(Normalize(s)), " "))
}

// IsPageArtifact reports whether a line is a page header/footer remnant.
func IsPageArtifact(line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}
	return pageArtifactRe.MatchString(line) || pageNumberRe.MatchString(line)
}

// IsTOCLine heuristically detects table-of-contents lines: dot leaders
// trailing into a page number. Known-incomplete: layouts that right-align
// page numbers without leaders slip through.
func IsTOCLine(line string) bool {
	return dotLeaderRe.MatchString(strings.TrimSpace(line))
}

// CleanBody applies line-level artifact filtering to a text block and
// rejoins what survives.
func CleanBody(text string) string {
	lines := strings.Split(text, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if IsPageArtifact(line) || IsTOCLine(line) {
			continue
		}
		kept = append(kept, line)
	}
	return strings.TrimSpace(strings.Join(kept, "\n"))
}
