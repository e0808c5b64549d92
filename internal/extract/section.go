// Package extract locates the target narrative section in a parsed filing
// and collects its text: tiered start-node location, per-node boundary
// classification, and noise-filtered content collection.
package extract

import "errors"

// ErrSectionNotFound reports that the target section is absent from the
// document. This is a recoverable per-file outcome, not a batch failure.
var ErrSectionNotFound = errors.New("target section not found")

// Section is the extracted narrative section. BodyText excludes markup,
// next-section content, and page-footer artifacts.
type Section struct {
	SectionID        string   `json:"section_id"`
	Title            string   `json:"title"`
	BodyText         string   `json:"body_text"`
	SubsectionTitles []string `json:"subsection_titles"`
	CharCount        int      `json:"char_count"`
}

// Size bounds outside which an extraction is suspicious. These warn only;
// anomalous extractions still flow downstream where the segment-count gate
// catches genuinely empty ones.
const (
	suspectMinChars = 1 << 10 // 1 KiB
	suspectMaxChars = 2 << 20 // 2 MiB
)

// Suspicious reports whether the extraction size falls outside the expected
// envelope for a risk-factor section.
func (s *Section) Suspicious() bool {
	return s.CharCount < suspectMinChars || s.CharCount > suspectMaxChars
}
