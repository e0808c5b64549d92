// Package container indexes EDGAR full-submission container files. A
// submission is one large SGML file holding many concatenated sub-documents,
// each delimited by <DOCUMENT>...</DOCUMENT> with per-document header tags
// and a <TEXT>...</TEXT> payload.
package container

import (
	"bytes"
	"log/slog"
	"sort"
	"strconv"
	"strings"
)

// Entry describes one sub-document inside the container. Start and End are
// byte offsets into the original buffer covering the TEXT payload.
type Entry struct {
	SequenceID  int
	Type        string
	Filename    string
	Description string
	Start       int
	End         int
	// Truncated marks an entry whose end marker was missing; its range
	// extends to the end of the buffer.
	Truncated bool
}

// Index is a read-only catalog of the sub-documents in one container file,
// ordered by sequence id, with O(1) filename lookup after the single scan.
type Index struct {
	Entries []Entry
	byName  map[string]int
}

const (
	docOpen   = "<DOCUMENT>"
	docClose  = "</DOCUMENT>"
	textOpen  = "<TEXT>"
	textClose = "</TEXT>"
)

// wrapperTags are inner type-wrapper markers stripped from returned content.
var wrapperTags = []string{"XBRL", "XML", "PDF"}

// Build scans buf once and indexes every sub-document. Malformed entries
// (missing </TEXT> or </DOCUMENT>) extend to the buffer end and are logged;
// they never fail the scan.
func Build(buf []byte, log *slog.Logger) *Index {
	idx := &Index{byName: make(map[string]int)}

	pos := 0
	seqFallback := 0
	for {
		open := bytes.Index(buf[pos:], []byte(docOpen))
		if open < 0 {
			break
		}
		open += pos

		entry, next := scanDocument(buf, open, log)
		seqFallback++
		if entry.SequenceID == 0 {
			entry.SequenceID = seqFallback
		}
		idx.Entries = append(idx.Entries, entry)
		pos = next
		if pos >= len(buf) {
			break
		}
	}

	sort.SliceStable(idx.Entries, func(i, j int) bool {
		return idx.Entries[i].SequenceID < idx.Entries[j].SequenceID
	})
	for i, e := range idx.Entries {
		if e.Filename != "" {
			if _, dup := idx.byName[e.Filename]; !dup {
				idx.byName[e.Filename] = i
			}
		}
	}
	return idx
}

// scanDocument parses one <DOCUMENT> block starting at open. It returns the
// entry and the offset just past the block.
func scanDocument(buf []byte, open int, log *slog.Logger) (Entry, int) {
	var e Entry

	headerEnd := len(buf)
	if t := bytes.Index(buf[open:], []byte(textOpen)); t >= 0 {
		headerEnd = open + t
	}
	header := buf[open:headerEnd]

	e.Type = headerTag(header, "TYPE")
	e.Filename = headerTag(header, "FILENAME")
	e.Description = headerTag(header, "DESCRIPTION")
	if s := headerTag(header, "SEQUENCE"); s != "" {
		if n, err := strconv.Atoi(s); err == nil {
			e.SequenceID = n
		}
	}

	if headerEnd == len(buf) {
		// No TEXT payload at all; treat the remainder as content.
		e.Start = open + len(docOpen)
		e.End = len(buf)
		e.Truncated = true
		log.Warn("container entry missing TEXT marker, extending to buffer end",
			"filename", e.Filename, "type", e.Type)
		return e, len(buf)
	}

	e.Start = headerEnd + len(textOpen)
	tc := bytes.Index(buf[e.Start:], []byte(textClose))
	if tc < 0 {
		e.End = len(buf)
		e.Truncated = true
		log.Warn("container entry missing end marker, extending to buffer end",
			"filename", e.Filename, "type", e.Type, "sequence", e.SequenceID)
		return e, len(buf)
	}
	e.End = e.Start + tc

	next := e.End + len(textClose)
	if dc := bytes.Index(buf[next:], []byte(docClose)); dc >= 0 {
		next += dc + len(docClose)
	}
	return e, next
}

// headerTag extracts the value of an SGML header tag like <TYPE>10-K. Values
// run to end of line; EDGAR headers are not closed.
func headerTag(header []byte, tag string) string {
	marker := []byte("<" + tag + ">")
	i := bytes.Index(header, marker)
	if i < 0 {
		return ""
	}
	rest := header[i+len(marker):]
	if nl := bytes.IndexAny(rest, "\r\n<"); nl >= 0 {
		rest = rest[:nl]
	}
	return strings.TrimSpace(string(rest))
}

// Content returns the payload bytes of an entry with inner type-wrapper
// markers (<XBRL>, <XML>, <PDF>) stripped.
func (idx *Index) Content(buf []byte, e Entry) []byte {
	content := buf[e.Start:e.End]
	for _, tag := range wrapperTags {
		open := []byte("<" + tag + ">")
		if i := bytes.Index(content, open); i >= 0 {
			content = content[i+len(open):]
			if j := bytes.LastIndex(content, []byte("</"+tag+">")); j >= 0 {
				content = content[:j]
			}
		}
	}
	return bytes.TrimSpace(content)
}

// ByName returns the entry for a filename.
func (idx *Index) ByName(name string) (Entry, bool) {
	i, ok := idx.byName[name]
	if !ok {
		return Entry{}, false
	}
	return idx.Entries[i], true
}

// PrimaryDocument returns the lowest-sequence entry whose type matches
// formType, preferring HTML filenames over plain text when sequences tie at
// the front of the container.
func (idx *Index) PrimaryDocument(formType string) (Entry, bool) {
	want := strings.ToUpper(strings.TrimSpace(formType))
	var best Entry
	found := false
	for _, e := range idx.Entries {
		if strings.ToUpper(e.Type) != want {
			continue
		}
		if !found {
			best = e
			found = true
			continue
		}
		if e.SequenceID < best.SequenceID {
			best = e
		} else if e.SequenceID == best.SequenceID && isHTMLName(e.Filename) && !isHTMLName(best.Filename) {
			best = e
		}
	}
	return best, found
}

func isHTMLName(name string) bool {
	n := strings.ToLower(name)
	return strings.HasSuffix(n, ".htm") || strings.HasSuffix(n, ".html")
}
