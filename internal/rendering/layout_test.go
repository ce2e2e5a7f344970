package rendering

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixedMeasurer wraps every n runes and keeps explicit line breaks.
type fixedMeasurer struct{ n int }

func (m fixedMeasurer) SplitLines(text string, _ float64) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		runes := []rune(line)
		if len(runes) == 0 {
			out = append(out, "")
			continue
		}
		for len(runes) > m.n {
			out = append(out, string(runes[:m.n]))
			runes = runes[m.n:]
		}
		out = append(out, string(runes))
	}
	return out
}

const sampleLetter = `Dear Hiring Manager,

Application for Senior Backend Engineer

I have spent six years building payment systems in Go,
most recently leading the ledger rewrite at Northwind. The work cut settlement latency
by half and I would like to bring the same focus to your platform team.

Beyond the code, I mentor engineers and write the design docs that keep large migrations on track. I would welcome the chance to talk about how that experience maps onto your roadmap.

Warm regards,
Jane Doe`

func TestSplitBlocks(t *testing.T) {
	blocks, rawCount := SplitBlocks("one\n\n  \n\ntwo\n \t\nthree")
	assert.Equal(t, 4, rawCount)
	require.Len(t, blocks, 3)
	assert.Equal(t, Block{Index: 0, Raw: "one"}, blocks[0])
	assert.Equal(t, Block{Index: 2, Raw: "two"}, blocks[1])
	assert.Equal(t, Block{Index: 3, Raw: "three"}, blocks[2])
}

func TestSplitBlocks_UnicodeBlankLines(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"no-break space", "a\n\u00a0\nb"},
		{"narrow no-break space", "a\n\u202f\u00a0 \nb"},
		{"ideographic space", "a\n\u3000\nb"},
		{"byte order mark", "a\n\ufeff\nb"},
		{"line separator", "a\n\u2028\nb"},
		{"vertical tab", "a\n\v\nb"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			blocks, rawCount := SplitBlocks(tt.text)
			assert.Equal(t, 2, rawCount)
			require.Len(t, blocks, 2)
			assert.Equal(t, "a", blocks[0].Raw)
			assert.Equal(t, "b", blocks[1].Raw)
		})
	}
}

func TestSplitBlocks_UnicodeWhitespaceOnlyBlockDropped(t *testing.T) {
	blocks, rawCount := SplitBlocks("one\n\n\u00a0\ufeff\n\ntwo")
	assert.Equal(t, 3, rawCount)
	require.Len(t, blocks, 2)
	assert.Equal(t, 2, blocks[1].Index)
}

func TestSplitBlocks_SingleNewlineStaysInBlock(t *testing.T) {
	blocks, rawCount := SplitBlocks("line one\nline two")
	assert.Equal(t, 1, rawCount)
	require.Len(t, blocks, 1)
	assert.Equal(t, "line one\nline two", blocks[0].Raw)
}

func TestClassify(t *testing.T) {
	long := strings.Repeat("word ", 50)

	tests := []struct {
		name     string
		raw      string
		index    int
		rawCount int
		want     BlockKind
	}{
		{"dear salutation", "Dear Ms. Smith,", 0, 5, KindSalutation},
		{"to salutation uppercase", "TO the hiring team,", 0, 5, KindSalutation},
		{"salutation only first", "Dear Ms. Smith,", 1, 5, KindBody},
		{"to prefix matches any word", "Today I am applying", 0, 5, KindSalutation},
		{"application line", "Application for Staff Engineer", 1, 5, KindApplication},
		{"subject line", "Subject: Staff Engineer role", 1, 5, KindApplication},
		{"sincerely", "Yours sincerely,\nJane", 3, 5, KindSignature},
		{"regards anywhere", long + "kind regards", 2, 5, KindSignature},
		{"best comma", "All the best,\nJane", 3, 5, KindSignature},
		{"best without comma", "The best team " + long, 2, 5, KindBody},
		{"short last block", "Jane Doe\njane@example.com", 4, 5, KindSignature},
		{"long last block", long, 4, 5, KindBody},
		{"short body not last", "A short paragraph.", 2, 5, KindBody},
		{"salutation beats signature", "Dear team, regards", 0, 1, KindSalutation},
		{"signature beats application", "Subject: regards", 1, 3, KindSignature},
		{"body", long, 1, 5, KindBody},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.raw, tt.index, tt.rawCount))
		})
	}
}

func TestClassify_LastBlockLengthCountsUTF16Units(t *testing.T) {
	raw := strings.Repeat("\u00e9", SignatureMaxLength-1)
	assert.Equal(t, KindSignature, Classify(raw, 2, 3))

	raw = strings.Repeat("\u00e9", SignatureMaxLength)
	assert.Equal(t, KindBody, Classify(raw, 2, 3))

	// characters outside the BMP are two units each
	raw = strings.Repeat("\U0001F600", SignatureMaxLength/2)
	assert.Equal(t, KindBody, Classify(raw, 2, 3))
	raw = strings.Repeat("\U0001F600", SignatureMaxLength/2-1)
	assert.Equal(t, KindSignature, Classify(raw, 2, 3))
}

func TestClassify_LastBlockUsesRawCount(t *testing.T) {
	// a trailing whitespace-only block means the visible last block is not last
	text := "Body paragraph one that is long enough.\n\nShort closing\n\n   "
	blocks, rawCount := SplitBlocks(text)
	require.Len(t, blocks, 2)
	assert.Equal(t, KindBody, Classify(blocks[1].Raw, blocks[1].Index, rawCount))
}

func TestBlockKind_Align(t *testing.T) {
	assert.Equal(t, AlignLeft, KindSalutation.Align())
	assert.Equal(t, AlignLeft, KindApplication.Align())
	assert.Equal(t, AlignLeft, KindSignature.Align())
	assert.Equal(t, AlignJustify, KindBody.Align())
}

func TestPrepare(t *testing.T) {
	assert.Equal(t, "first line second line", Prepare("first line\nsecond line\n", KindBody))
	assert.Equal(t, "Warm regards,\nJane", Prepare("  Warm regards,\nJane\n", KindSignature))
	assert.Equal(t, "Dear team,\nhello", Prepare("Dear team,\nhello", KindSalutation))
	assert.Equal(t, "Jane Doe", Prepare("\ufeff\u00a0Jane Doe\u00a0", KindSignature))
}

func TestLayout_SampleLetter(t *testing.T) {
	doc := Layout(sampleLetter, fixedMeasurer{n: 80})
	require.Len(t, doc.Pages, 1)

	blocks := doc.Blocks()
	require.Len(t, blocks, 5)

	kinds := make([]BlockKind, len(blocks))
	for i, b := range blocks {
		kinds[i] = b.Kind
	}
	assert.Equal(t, []BlockKind{KindSalutation, KindApplication, KindBody, KindBody, KindSignature}, kinds)

	assert.Equal(t, AlignLeft, blocks[0].Align)
	assert.Equal(t, AlignJustify, blocks[2].Align)
	assert.NotContains(t, blocks[2].Text, "\n")
	assert.Equal(t, "Warm regards,\nJane Doe", blocks[4].Text)
	assert.Len(t, blocks[4].Lines, 2)

	assert.Equal(t, MarginTop, blocks[0].Y)
	for i := 1; i < len(blocks); i++ {
		prev := blocks[i-1]
		assert.InDelta(t, prev.Y+prev.Height+BlockGap, blocks[i].Y, 1e-9)
	}
}

func TestLayout_Deterministic(t *testing.T) {
	m := fixedMeasurer{n: 60}
	first := Layout(sampleLetter, m)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, Layout(sampleLetter, m))
	}
}

func TestLayout_Empty(t *testing.T) {
	for _, text := range []string{"", "   ", "\n\n\n"} {
		doc := Layout(text, fixedMeasurer{n: 80})
		require.Len(t, doc.Pages, 1)
		assert.Empty(t, doc.Pages[0].Blocks)
	}
}

func TestBlockHeight(t *testing.T) {
	assert.InDelta(t, 0.0, BlockHeight(0), 1e-9)
	assert.InDelta(t, LineHeight, BlockHeight(1), 1e-9)
	assert.InDelta(t, 3*FontSizeMM*LineHeightFactor, BlockHeight(3), 1e-9)
}

func TestLayout_PageBreak(t *testing.T) {
	// each paragraph wraps to ten lines
	para := strings.Repeat("x", 800)
	text := strings.Join([]string{para, para, para, para, para, para, para}, "\n\n")

	doc := Layout(text, fixedMeasurer{n: 80})
	require.Greater(t, len(doc.Pages), 1)

	bottom := PageHeight - MarginBottom
	for p, page := range doc.Pages {
		require.NotEmpty(t, page.Blocks, "page %d", p)
		assert.Equal(t, MarginTop, page.Blocks[0].Y, "page %d starts at top margin", p)
		for _, b := range page.Blocks {
			assert.LessOrEqual(t, b.Y+b.Height, bottom+1e-9)
		}
	}

	// the first block that did not fit moved to the next page
	first := doc.Pages[0].Blocks
	last := first[len(first)-1]
	next := doc.Pages[1].Blocks[0]
	assert.Greater(t, last.Y+last.Height+BlockGap+next.Height, bottom)
}

func TestLayout_OversizedBlockOnFreshPage(t *testing.T) {
	huge := strings.Repeat("y", 80*40)
	text := "Intro paragraph that is long enough to stay a body block, " + strings.Repeat("z", 200) + "\n\n" + huge

	doc := Layout(text, fixedMeasurer{n: 80})
	require.Len(t, doc.Pages, 2)
	assert.Len(t, doc.Pages[0].Blocks, 1)
	require.Len(t, doc.Pages[1].Blocks, 1)

	b := doc.Pages[1].Blocks[0]
	assert.Equal(t, MarginTop, b.Y)
	assert.Greater(t, b.Y+b.Height, PageHeight-MarginBottom)
}

func TestLayout_KeepsRawIndexes(t *testing.T) {
	doc := Layout("Dear team,\n\n \n\nClosing", fixedMeasurer{n: 80})
	blocks := doc.Blocks()
	require.Len(t, blocks, 2)
	assert.Equal(t, 0, blocks[0].Index)
	assert.Equal(t, 2, blocks[1].Index)
	assert.Equal(t, KindSignature, blocks[1].Kind)
}
