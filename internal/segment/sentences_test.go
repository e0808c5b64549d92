package segment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitSentencesBasic(t *testing.T) {
	got := SplitSentences("First sentence here. Second sentence follows. Third one ends.")
	require.Len(t, got, 3)
	assert.Equal(t, "First sentence here.", got[0])
	assert.Equal(t, "Third one ends.", got[2])
}

func TestSplitSentencesAbbreviations(t *testing.T) {
	cases := []struct {
		name string
		text string
		want int
	}{
		{"inc", "Apple Inc. reported record revenue. Growth continued.", 2},
		{"us", "We operate in the U.S. and abroad, which exposes us to currency risk. Hedging is imperfect.", 2},
		{"no", "See Note No. 5 for details. Amounts are in millions.", 2},
		{"eg", "Certain inputs, e.g. rare earth metals, are constrained. Prices vary.", 2},
		{"approx", "Backlog was approx. $4 billion at year end. Orders may cancel.", 2},
		{"initial", "Our director John D. Smith resigned. A search is underway.", 2},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := SplitSentences(tc.text)
			assert.Len(t, got, tc.want, "got %q", got)
		})
	}
}

func TestSplitSentencesDecimalsDoNotSplit(t *testing.T) {
	got := SplitSentences("Margins declined 3.5 percent during the year. Costs rose.")
	require.Len(t, got, 2)
	assert.Contains(t, got[0], "3.5 percent")
}

func TestSplitSentencesQuestionAndExclamation(t *testing.T) {
	got := SplitSentences("Will demand recover? We cannot be certain. Risks remain!")
	assert.Len(t, got, 3)
}

func TestSplitSentencesEmpty(t *testing.T) {
	assert.Empty(t, SplitSentences(""))
	assert.Empty(t, SplitSentences("   \n  "))
}

func TestWordCount(t *testing.T) {
	assert.Equal(t, 0, WordCount(""))
	assert.Equal(t, 3, WordCount("one  two\nthree"))
}
