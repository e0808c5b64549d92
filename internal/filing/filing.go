// Package filing builds the structural view of one filing: identity metadata
// from the SGML submission header and a document-ordered node list parsed
// from the primary document's HTML.
package filing

// NodeKind classifies a structural node.
type NodeKind int

const (
	KindParagraph NodeKind = iota
	KindTitleTopLevel
	KindTitleSubItem
	KindTable
	KindPageArtifact
)

func (k NodeKind) String() string {
	switch k {
	case KindTitleTopLevel:
		return "title"
	case KindTitleSubItem:
		return "subtitle"
	case KindTable:
		return "table"
	case KindPageArtifact:
		return "artifact"
	default:
		return "paragraph"
	}
}

// Node is one structural element in document order. Identifier carries the
// element's id/name anchor when populated; EDGAR documents set it
// inconsistently, so the empty string means absent.
type Node struct {
	Kind       NodeKind
	Text       string
	Identifier string
	Level      int // heading level for title nodes, 0 otherwise
}

// IsTitle reports whether the node is any kind of section title.
func (n *Node) IsTitle() bool {
	return n.Kind == KindTitleTopLevel || n.Kind == KindTitleSubItem
}

// Identity is the filer metadata from the submission header. Fields may be
// individually absent; the zero value means unknown.
type Identity struct {
	CompanyName    string `json:"company_name,omitempty"`
	CIK            string `json:"cik,omitempty"`
	SIC            string `json:"sic,omitempty"`
	Ticker         string `json:"ticker,omitempty"`
	FiscalYear     string `json:"fiscal_year,omitempty"`
	PeriodOfReport string `json:"period_of_report,omitempty"`
}

// Document is the parsed primary document. Immutable once built; owned by
// the parse stage and discarded after section extraction.
type Document struct {
	Identity Identity
	Nodes    []Node

	// pendingAnchor holds an id from an empty anchor element until the next
	// text-bearing node is emitted. Parse-time state only.
	pendingAnchor string
}
