package rendering

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf16"
)

// Page geometry in millimetres (A4 portrait).
const (
	PageWidth    = 210.0
	PageHeight   = 297.0
	MarginLeft   = 20.0
	MarginTop    = 20.0
	MarginRight  = 20.0
	MarginBottom = 20.0
	ContentWidth = PageWidth - MarginLeft - MarginRight
)

// Typography.
const (
	FontFamily = "Helvetica"
	FontSizePt = 11.0
	// FontSizeMM is FontSizePt converted to millimetres.
	FontSizeMM = FontSizePt * 25.4 / 72

	// LineHeightFactor is the line spacing used for the letter.
	LineHeightFactor = 2.0
	// DefaultLineHeightFactor is the renderer's natural line spacing that
	// wrapped heights are measured in.
	DefaultLineHeightFactor = 1.15

	// BlockGap is the vertical space after every block.
	BlockGap = 8.0
)

// TextColor is the near-black used for all text.
var TextColor = [3]int{10, 10, 10}

// SignatureMaxLength is the raw length under which a last block counts as a signature.
const SignatureMaxLength = 200

// LineHeight is the distance between baselines inside a block.
const LineHeight = FontSizeMM * LineHeightFactor

// BlockKind classifies a block of the letter.
type BlockKind string

// Block kinds
const (
	KindSalutation  BlockKind = "salutation"
	KindApplication BlockKind = "application"
	KindSignature   BlockKind = "signature"
	KindBody        BlockKind = "body"
)

// Align is a horizontal alignment, in fpdf's notation.
type Align string

// Alignments
const (
	AlignLeft    Align = "L"
	AlignJustify Align = "J"
)

// Align returns how blocks of this kind are aligned.
func (k BlockKind) Align() Align {
	if k == KindBody {
		return AlignJustify
	}
	return AlignLeft
}

// blockSeparator is a blank line. Lines holding only Unicode spaces, line or
// paragraph separators or a BOM count as blank.
var blockSeparator = regexp.MustCompile(`\n[\s\v\p{Zs}\x{2028}\x{2029}\x{FEFF}]*\n`)

func isBlank(r rune) bool {
	switch r {
	case '\t', '\n', '\v', '\f', '\r', '\u2028', '\u2029', '\uFEFF':
		return true
	}
	return unicode.Is(unicode.Zs, r)
}

// trimBlank trims the same whitespace blockSeparator treats as blank.
func trimBlank(s string) string {
	return strings.TrimFunc(s, isBlank)
}

// textLength counts UTF-16 code units, so characters outside the BMP count twice.
func textLength(s string) int {
	n := 0
	for _, r := range s {
		n += utf16.RuneLen(r)
	}
	return n
}

var signatureKeywords = []string{"sincerely", "regards", "best,", "warm regards"}

// Block is a non-empty block with its position among all raw blocks.
type Block struct {
	Index int
	Raw   string
}

// SplitBlocks splits text on blank lines. Whitespace-only blocks are dropped
// but still counted in rawCount and in the indexes of later blocks.
func SplitBlocks(text string) (blocks []Block, rawCount int) {
	raw := blockSeparator.Split(text, -1)
	for i, b := range raw {
		if trimBlank(b) == "" {
			continue
		}
		blocks = append(blocks, Block{Index: i, Raw: b})
	}
	return blocks, len(raw)
}

// Classify decides a block's kind from its raw text and position alone.
// When several rules match, salutation wins over signature, which wins over
// application line. The last raw block is a signature whenever it is shorter
// than SignatureMaxLength UTF-16 code units, even with no closing keyword.
func Classify(raw string, index, rawCount int) BlockKind {
	lower := strings.ToLower(raw)

	if index == 0 && (strings.HasPrefix(lower, "dear") || strings.HasPrefix(lower, "to")) {
		return KindSalutation
	}

	isLast := index == rawCount-1
	if containsAny(lower, signatureKeywords) || (isLast && textLength(raw) < SignatureMaxLength) {
		return KindSignature
	}

	if strings.HasPrefix(lower, "application for") || strings.HasPrefix(lower, "subject:") {
		return KindApplication
	}

	return KindBody
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}

// Prepare returns the text to print for a block. Non-body blocks keep their
// line breaks; body blocks are flattened so the justifier can reflow them.
func Prepare(raw string, kind BlockKind) string {
	if kind == KindBody {
		return trimBlank(strings.ReplaceAll(raw, "\n", " "))
	}
	return trimBlank(raw)
}

// Measurer wraps text to a width using real font metrics.
type Measurer interface {
	SplitLines(text string, width float64) []string
}

// PlacedBlock is a block positioned on a page.
type PlacedBlock struct {
	Index  int       `json:"index"`
	Kind   BlockKind `json:"kind"`
	Align  Align     `json:"align"`
	Text   string    `json:"text"`
	Lines  []string  `json:"lines"`
	Y      float64   `json:"y"`
	Height float64   `json:"height"`
}

// Page is one page of placed blocks.
type Page struct {
	Blocks []PlacedBlock `json:"blocks"`
}

// Document is a laid-out letter. It always has at least one page.
type Document struct {
	Pages []Page `json:"pages"`
}

// BlockHeight is the height of a block of n wrapped lines.
func BlockHeight(lines int) float64 {
	natural := float64(lines) * FontSizeMM * DefaultLineHeightFactor
	return natural * (LineHeightFactor / DefaultLineHeightFactor)
}

// Layout paginates text. It is a pure function of text and the measurer.
//
// A block that would cross the bottom margin starts a new page. A block
// taller than the whole content area cannot fit anywhere, so when it comes
// first on a page it is placed there and runs past the bottom margin rather
// than leaving a blank page in front of it.
func Layout(text string, m Measurer) *Document {
	doc := &Document{Pages: []Page{{}}}
	blocks, rawCount := SplitBlocks(text)

	cursor := MarginTop
	for _, b := range blocks {
		kind := Classify(b.Raw, b.Index, rawCount)
		prepared := Prepare(b.Raw, kind)
		lines := m.SplitLines(prepared, ContentWidth)
		height := BlockHeight(len(lines))

		page := &doc.Pages[len(doc.Pages)-1]
		if cursor+height > PageHeight-MarginBottom && len(page.Blocks) > 0 {
			doc.Pages = append(doc.Pages, Page{})
			page = &doc.Pages[len(doc.Pages)-1]
			cursor = MarginTop
		}

		page.Blocks = append(page.Blocks, PlacedBlock{
			Index:  b.Index,
			Kind:   kind,
			Align:  kind.Align(),
			Text:   prepared,
			Lines:  lines,
			Y:      cursor,
			Height: height,
		})
		cursor += height + BlockGap
	}

	return doc
}

// Blocks returns all placed blocks in order.
func (d *Document) Blocks() []PlacedBlock {
	var out []PlacedBlock
	for _, p := range d.Pages {
		out = append(out, p.Blocks...)
	}
	return out
}
