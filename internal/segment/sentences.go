package segment

import "strings"

// abbreviations whose trailing period never ends a sentence. Lowercased,
// period stripped. Covers the forms that actually corrupt filing text;
// naive punctuation-only splitting breaks segment starts on these.
var abbreviations = map[string]bool{
	"inc": true, "co": true, "corp": true, "ltd": true, "llc": true,
	"llp": true, "plc": true, "no": true, "nos": true, "vs": true,
	"etc": true, "approx": true, "dept": true, "est": true,
	"dr": true, "mr": true, "mrs": true, "ms": true, "jr": true, "sr": true,
	"st": true, "ave": true, "fig": true, "sec": true, "reg": true,
	"u.s": true, "u.k": true, "e.g": true, "i.e": true, "a.m": true, "p.m": true,
}

// SplitSentences splits prose into sentences. A period ends a sentence only
// when it is not part of a known abbreviation, is not between digits
// (decimal numbers), and is followed by whitespace and an uppercase letter,
// a digit, or an opening quote.
func SplitSentences(text string) []string {
	var sentences []string
	var current strings.Builder

	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		current.WriteRune(r)

		if r != '.' && r != '!' && r != '?' {
			continue
		}
		if !sentenceEndsAt(runes, i) {
			continue
		}
		if s := strings.TrimSpace(current.String()); s != "" {
			sentences = append(sentences, s)
		}
		current.Reset()
	}
	if s := strings.TrimSpace(current.String()); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}

func sentenceEndsAt(runes []rune, i int) bool {
	// Need whitespace after the terminator (possibly after closing quotes).
	j := i + 1
	for j < len(runes) && (runes[j] == '"' || runes[j] == '\'' || runes[j] == ')') {
		j++
	}
	if j >= len(runes) {
		return true
	}
	if runes[j] != ' ' && runes[j] != '\n' && runes[j] != '\t' {
		return false
	}
	// The next non-space rune should start a sentence.
	k := j
	for k < len(runes) && (runes[k] == ' ' || runes[k] == '\n' || runes[k] == '\t') {
		k++
	}
	if k < len(runes) {
		next := runes[k]
		if !isUpper(next) && !isDigit(next) && next != '"' && next != '\'' && next != '(' {
			return false
		}
	}

	if runes[i] != '.' {
		return true
	}
	// Decimal numbers: 3.5 never splits (handled above by the space check,
	// but "No. 5" style needs the abbreviation check below).
	word := trailingWord(runes, i)
	if abbreviations[word] {
		return false
	}
	// Single capital letters read as initials ("John D. Smith").
	if len(word) == 1 && word != "a" && word != "i" {
		return false
	}
	return true
}

// trailingWord returns the lowercased word immediately before position i,
// keeping interior periods so "u.s." looks up as "u.s".
func trailingWord(runes []rune, i int) string {
	end := i
	start := end
	for start > 0 {
		r := runes[start-1]
		if r == ' ' || r == '\n' || r == '\t' || r == '(' || r == '"' {
			break
		}
		start--
	}
	w := strings.ToLower(string(runes[start:end]))
	w = strings.TrimRight(w, ".")
	// Normalize "u.s" from "U.S." whose final period is the terminator.
	return w
}

func isUpper(r rune) bool { return r >= 'A' && r <= 'Z' }
func isDigit(r rune) bool { return r >= '0' && r <= '9' }

// WordCount counts whitespace-delimited words.
func WordCount(s string) int {
	return len(strings.Fields(s))
}
