package extract

import (
	"strings"

	"github.com/filinglab/riskseg/internal/filing"
)

// Collect walks nodes in document order from just after the start node,
// appending filtered text until a boundary fires or the document ends.
// Tables contribute nothing to the body but are scanned for boundary
// signals; page artifacts and TOC-like lines are dropped from both the body
// and the subsection list.
func Collect(doc *filing.Document, start int, target Target) *Section {
	startNode := &doc.Nodes[start]
	sec := &Section{
		SectionID: target.SectionID(),
		Title:     Normalize(startNode.Text),
	}

	own := target.titleRe()

	var blocks []string
	for i := start + 1; i < len(doc.Nodes); i++ {
		n := &doc.Nodes[i]

		if IsBoundary(n, target) {
			break
		}
		if TableCrossesBoundary(n, target) {
			break
		}
		if n.IsTitle() && own.MatchString(NormalizeTitle(n.Text)) {
			// Page-break restatement of the section's own header; neither a
			// boundary nor a subsection.
			continue
		}

		switch n.Kind {
		case filing.KindTable, filing.KindPageArtifact:
			continue
		case filing.KindTitleSubItem:
			title := Normalize(n.Text)
			if title == "" || IsPageArtifact(title) || IsTOCLine(title) {
				continue
			}
			sec.SubsectionTitles = append(sec.SubsectionTitles, title)
			blocks = append(blocks, title)
		default:
			text := CleanBody(Normalize(n.Text))
			if text != "" {
				blocks = append(blocks, text)
			}
		}
	}

	sec.BodyText = strings.Join(blocks, "\n\n")
	sec.CharCount = len(sec.BodyText)
	return sec
}

// Extract is the full per-document operation: locate the section start,
// then collect its content. The recoverable not-found outcome passes
// through unchanged.
func Extract(doc *filing.Document, target Target) (*Section, error) {
	start, err := Locate(doc, target)
	if err != nil {
		return nil, err
	}
	return Collect(doc, start, target), nil
}
