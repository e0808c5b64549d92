package extract

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/filinglab/riskseg/internal/filing"
)

func title(text string) filing.Node {
	return filing.Node{Kind: filing.KindTitleSubItem, Text: text, Level: 3}
}

func topTitle(text string) filing.Node {
	return filing.Node{Kind: filing.KindTitleTopLevel, Text: text, Level: 2}
}

func para(text string) filing.Node {
	return filing.Node{Kind: filing.KindParagraph, Text: text}
}

func riskDoc() *filing.Document {
	return &filing.Document{Nodes: []filing.Node{
		topTitle("PART I"),
		title("Item 1. Business"),
		para("We design and sell products worldwide."),
		title("Item 1A. Risk Factors"),
		para("Our operating results depend on demand for our products."),
		title("Risks Related to Competition"),
		para("The markets in which we compete are highly competitive. See Item 7A. for market risk."),
		filing.Node{Kind: filing.KindTable, Text: "2023 2022 Revenue 100 90"},
		para("Adverse macroeconomic conditions could reduce consumer spending."),
		title("Item 1B. Unresolved Staff Comments"),
		para("None."),
	}}
}

func TestLocateByIdentifierTier1(t *testing.T) {
	doc := &filing.Document{Nodes: []filing.Node{
		topTitle("Some Heading"),
		filing.Node{Kind: filing.KindTitleTopLevel, Text: "Risk Factors", Identifier: "ITEM_1A", Level: 2},
		para("body"),
	}}
	i, err := Locate(doc, Target{Item: "1A"})
	require.NoError(t, err)
	assert.Equal(t, 1, i)
}

func TestLocateBySubItemTextTier2(t *testing.T) {
	doc := riskDoc()
	i, err := Locate(doc, Target{Item: "1A"})
	require.NoError(t, err)
	assert.Equal(t, 3, i)
}

func TestLocateCaseAndWhitespaceVariants(t *testing.T) {
	doc := &filing.Document{Nodes: []filing.Node{
		title("ITEM   1A. RISK FACTORS"),
		para("body"),
	}}
	i, err := Locate(doc, Target{Item: "1A"})
	require.NoError(t, err)
	assert.Equal(t, 0, i)
}

func TestLocateNotFoundIsRecoverable(t *testing.T) {
	doc := &filing.Document{Nodes: []filing.Node{
		title("Item 1. Business"),
		para("body"),
	}}
	_, err := Locate(doc, Target{Item: "1A"})
	require.ErrorIs(t, err, ErrSectionNotFound)
}

func TestLocateDoesNotMatchItem1ForTarget1A(t *testing.T) {
	doc := &filing.Document{Nodes: []filing.Node{
		title("Item 1. Business"),
		title("Item 1A. Risk Factors"),
	}}
	i, err := Locate(doc, Target{Item: "1A"})
	require.NoError(t, err)
	assert.Equal(t, 1, i)
}

func TestCollectStopsAtNextItem(t *testing.T) {
	sec, err := Extract(riskDoc(), Target{Item: "1A"})
	require.NoError(t, err)

	assert.Equal(t, "item1a", sec.SectionID)
	assert.Contains(t, sec.BodyText, "operating results")
	assert.Contains(t, sec.BodyText, "macroeconomic conditions")
	assert.NotContains(t, sec.BodyText, "Unresolved Staff Comments")
	assert.NotContains(t, sec.BodyText, "None.")
}

func TestCollectZeroBoundaryOvershoot(t *testing.T) {
	sec, err := Extract(riskDoc(), Target{Item: "1A"})
	require.NoError(t, err)

	// No header line for any item other than the target's own may survive.
	for _, line := range strings.Split(sec.BodyText, "\n") {
		norm := NormalizeTitle(line)
		if nextItemRe.MatchString(norm) {
			assert.True(t, strings.HasPrefix(norm, "item 1a"),
				"body contains foreign item header: %q", line)
		}
	}
}

func TestCollectCrossReferenceDoesNotTerminate(t *testing.T) {
	sec, err := Extract(riskDoc(), Target{Item: "1A"})
	require.NoError(t, err)
	assert.Contains(t, sec.BodyText, "See Item 7A. for market risk",
		"in-text cross references must not classify as boundaries")
}

func TestCollectExcludesTablesFromBody(t *testing.T) {
	sec, err := Extract(riskDoc(), Target{Item: "1A"})
	require.NoError(t, err)
	assert.NotContains(t, sec.BodyText, "Revenue 100 90")
}

func TestCollectTableCarryingNextHeaderTerminates(t *testing.T) {
	doc := &filing.Document{Nodes: []filing.Node{
		title("Item 1A. Risk Factors"),
		para("Risk body."),
		filing.Node{Kind: filing.KindTable, Text: "Item 2. Properties"},
		para("Property text that belongs to the next section."),
	}}
	sec, err := Extract(doc, Target{Item: "1A"})
	require.NoError(t, err)
	assert.Contains(t, sec.BodyText, "Risk body.")
	assert.NotContains(t, sec.BodyText, "Property text")
}

func TestCollectSubsectionTitles(t *testing.T) {
	sec, err := Extract(riskDoc(), Target{Item: "1A"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Risks Related to Competition"}, sec.SubsectionTitles)
}

func TestCollectFiltersPageArtifacts(t *testing.T) {
	doc := &filing.Document{Nodes: []filing.Node{
		title("Item 1A. Risk Factors"),
		para("Real risk content here."),
		title("Apple Inc. | 2023 Form 10-K | 23"),
		para("14"),
		para("More risk content."),
		topTitle("PART II"),
	}}
	sec, err := Extract(doc, Target{Item: "1A"})
	require.NoError(t, err)

	assert.NotContains(t, sec.BodyText, "Form 10-K")
	assert.NotContains(t, sec.BodyText, "\n14\n")
	assert.Empty(t, sec.SubsectionTitles, "page artifacts must not become subsections")
	assert.Contains(t, sec.BodyText, "More risk content.")
}

func TestBoundaryNotEndAnchored(t *testing.T) {
	n := title("Item 1B. Unresolved Staff Comments and other trailing text")
	assert.True(t, IsBoundary(&n, Target{Item: "1A"}))
}

func TestBoundaryNeverFiresOnParagraphs(t *testing.T) {
	n := para("Item 3. Legal Proceedings is discussed elsewhere.")
	assert.False(t, IsBoundary(&n, Target{Item: "1A"}))
}

func TestBoundaryExemptsTargetOwnHeader(t *testing.T) {
	n := title("Item 1A. Risk Factors (continued)")
	assert.False(t, IsBoundary(&n, Target{Item: "1A"}),
		"restated section header must not terminate collection")
	assert.True(t, IsBoundary(&n, Target{Item: "2"}))
}

func TestCollectSurvivesPageBreakHeaderRestatement(t *testing.T) {
	doc := &filing.Document{Nodes: []filing.Node{
		title("Item 1A. Risk Factors"),
		para("Risks before the page break."),
		title("Item 1A. Risk Factors (continued)"),
		para("Risks after the page break."),
		title("Item 1B. Unresolved Staff Comments"),
		para("None."),
	}}
	sec, err := Extract(doc, Target{Item: "1A"})
	require.NoError(t, err)

	assert.Contains(t, sec.BodyText, "Risks before the page break.")
	assert.Contains(t, sec.BodyText, "Risks after the page break.")
	assert.NotContains(t, sec.BodyText, "None.")
	assert.Empty(t, sec.SubsectionTitles,
		"restated headers must not register as subsections")
}

func TestTableRestatingOwnHeaderDoesNotTerminate(t *testing.T) {
	doc := &filing.Document{Nodes: []filing.Node{
		title("Item 1A. Risk Factors"),
		para("First half."),
		filing.Node{Kind: filing.KindTable, Text: "Item 1A. Risk Factors (continued)"},
		para("Second half."),
		title("Item 2. Properties"),
	}}
	sec, err := Extract(doc, Target{Item: "1A"})
	require.NoError(t, err)
	assert.Contains(t, sec.BodyText, "Second half.")
}

func TestAnchorItemTokenNeedsTerminator(t *testing.T) {
	doc := &filing.Document{Nodes: []filing.Node{
		filing.Node{Kind: filing.KindTitleTopLevel, Text: "Risk Factors", Identifier: "item1a", Level: 2},
		para("risk body"),
		filing.Node{Kind: filing.KindTitleTopLevel, Text: "Business", Identifier: "item1", Level: 2},
		para("business body"),
	}}

	// Target item 1 must not claim the item1a anchor.
	i, err := Locate(doc, Target{Item: "1"})
	require.NoError(t, err)
	assert.Equal(t, 2, i)

	// Separator variants still match.
	doc.Nodes[0].Identifier = "ITEM_1A_RISK_FACTORS"
	i, err = Locate(doc, Target{Item: "1A"})
	require.NoError(t, err)
	assert.Equal(t, 0, i)
}

func TestNormalizeStripsRemnants(t *testing.T) {
	in := "Risk Factors&nbsp;and  ​More"
	assert.Equal(t, "Risk Factors and More", Normalize(in))
}

func TestIsTOCLine(t *testing.T) {
	assert.True(t, IsTOCLine("Item 1A. Risk Factors ........ 14"))
	assert.False(t, IsTOCLine("Our products face risk."))
}

func TestIsPageArtifact(t *testing.T) {
	assert.True(t, IsPageArtifact("Apple Inc. | 2023 Form 10-K | 23"))
	assert.True(t, IsPageArtifact("17"))
	assert.True(t, IsPageArtifact("Page 4"))
	assert.False(t, IsPageArtifact("We derive 17 percent of revenue abroad."))
}

func TestSuspicious(t *testing.T) {
	small := &Section{CharCount: 100}
	assert.True(t, small.Suspicious())
	ok := &Section{CharCount: 50_000}
	assert.False(t, ok.Suspicious())
}
