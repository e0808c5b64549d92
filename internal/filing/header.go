package filing

import (
	"bufio"
	"bytes"
	"strings"
)

// headerFields maps SGML header labels to Identity fields. EDGAR emits both
// the tag form (<COMPANY-CONFORMED-NAME>) and the colon form
// (COMPANY CONFORMED NAME:) depending on the dissemination format; both are
// handled.
var headerFields = map[string]func(*Identity, string){
	"COMPANY CONFORMED NAME":              func(id *Identity, v string) { id.CompanyName = v },
	"COMPANY-CONFORMED-NAME":              func(id *Identity, v string) { id.CompanyName = v },
	"CENTRAL INDEX KEY":                   func(id *Identity, v string) { id.CIK = v },
	"CENTRAL-INDEX-KEY":                   func(id *Identity, v string) { id.CIK = v },
	"STANDARD INDUSTRIAL CLASSIFICATION":  func(id *Identity, v string) { id.SIC = v },
	"STANDARD-INDUSTRIAL-CLASSIFICATION":  func(id *Identity, v string) { id.SIC = v },
	"CONFORMED PERIOD OF REPORT":          func(id *Identity, v string) { id.PeriodOfReport = v },
	"CONFORMED-PERIOD-OF-REPORT":          func(id *Identity, v string) { id.PeriodOfReport = v },
	"FISCAL YEAR END":                     func(id *Identity, v string) { id.FiscalYear = v },
	"FISCAL-YEAR-END":                     func(id *Identity, v string) { id.FiscalYear = v },
	"TRADING SYMBOL":                      func(id *Identity, v string) { id.Ticker = v },
	"TRADING-SYMBOL":                      func(id *Identity, v string) { id.Ticker = v },
}

// ParseHeader extracts filer identity from the raw container bytes. It only
// reads the submission header, which precedes the first <DOCUMENT> marker.
// Missing fields stay zero; the header being absent entirely is not an error.
func ParseHeader(buf []byte) Identity {
	var id Identity

	end := bytes.Index(buf, []byte("<DOCUMENT>"))
	if end < 0 {
		end = len(buf)
	}

	sc := bufio.NewScanner(bytes.NewReader(buf[:end]))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		label, value, ok := splitHeaderLine(line)
		if !ok || value == "" {
			continue
		}
		if set, known := headerFields[label]; known {
			set(&id, value)
		}
	}

	if id.PeriodOfReport != "" && id.FiscalYear == "" && len(id.PeriodOfReport) >= 4 {
		id.FiscalYear = id.PeriodOfReport[:4]
	}
	return id
}

// splitHeaderLine handles both "LABEL:\tvalue" and "<LABEL>value" forms.
func splitHeaderLine(line string) (label, value string, ok bool) {
	if strings.HasPrefix(line, "<") {
		gt := strings.IndexByte(line, '>')
		if gt < 0 {
			return "", "", false
		}
		return strings.ToUpper(line[1:gt]), strings.TrimSpace(line[gt+1:]), true
	}
	colon := strings.IndexByte(line, ':')
	if colon < 0 {
		return "", "", false
	}
	return strings.ToUpper(strings.TrimSpace(line[:colon])), strings.TrimSpace(line[colon+1:]), true
}
