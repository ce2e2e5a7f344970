// Package observability provides formatted output utilities for the CLI.
package observability

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/jonathan/smartapplicant/internal/rendering"
	"github.com/jonathan/smartapplicant/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
	// innerWidth is the text width inside a box
	innerWidth = boxWidth - 4
)

// Printer handles formatted output for the CLI
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// truncate shortens s to n runes, marking the cut with "...".
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n-3]) + "..."
}

// pad right-pads s with spaces to n runes.
func pad(s string, n int) string {
	if c := utf8.RuneCountInString(s); c < n {
		return s + strings.Repeat(" ", n-c)
	}
	return s
}

// wrap breaks s into lines of at most n runes on word boundaries.
// Words longer than n are split.
func wrap(s string, n int) []string {
	var lines []string
	for _, para := range strings.Split(s, "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			lines = append(lines, "")
			continue
		}
		var line string
		for _, w := range words {
			for utf8.RuneCountInString(w) > n {
				r := []rune(w)
				if line != "" {
					lines = append(lines, line)
					line = ""
				}
				lines = append(lines, string(r[:n]))
				w = string(r[n:])
			}
			switch {
			case line == "":
				line = w
			case utf8.RuneCountInString(line)+1+utf8.RuneCountInString(w) <= n:
				line += " " + w
			default:
				lines = append(lines, line)
				line = w
			}
		}
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// printBox prints a formatted box with a title and content. Long lines are
// truncated.
func (p *Printer) printBox(title string, content string) {
	lines := strings.Split(content, "\n")
	for i, line := range lines {
		lines[i] = truncate(line, innerWidth)
	}
	p.printLines(title, lines)
}

//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printLines(title string, lines []string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %s │\n", pad(truncate(title, innerWidth), innerWidth))
	fmt.Fprintf(p.out, "├%s┤\n", border)
	for _, line := range lines {
		fmt.Fprintf(p.out, "│ %s │\n", pad(line, innerWidth))
	}
	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// writeList writes up to limit items with a "... and N more" tail.
func writeList(sb *strings.Builder, heading string, items []string, limit int) {
	if len(items) == 0 {
		return
	}
	sb.WriteString(heading + ":\n")
	count := min(len(items), limit)
	for i := 0; i < count; i++ {
		sb.WriteString(fmt.Sprintf("  • %s\n", truncate(items[i], innerWidth-4)))
	}
	if len(items) > limit {
		sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(items)-limit))
	}
	sb.WriteString("\n")
}

// PrintAssessment outputs the match score, the reasons behind it and any
// sources the model cited.
func (p *Printer) PrintAssessment(a *types.MatchAssessment) {
	if a == nil {
		return
	}

	var sb strings.Builder
	company := a.CompanyName
	if company == "" {
		company = "(unknown)"
	}
	sb.WriteString(fmt.Sprintf("Company:  %s\n", company))
	sb.WriteString(fmt.Sprintf("Match:    %d%% (%s)\n", a.MatchPercentage, a.Band()))
	sb.WriteString("\n")
	if a.MatchReason != "" {
		for _, line := range wrap(a.MatchReason, innerWidth) {
			sb.WriteString(line + "\n")
		}
		sb.WriteString("\n")
	}

	writeList(&sb, "Strengths", a.Strengths, maxItemsToShow)
	writeList(&sb, "Gaps", a.Weaknesses, maxItemsToShow)

	if len(a.Sources) > 0 {
		sources := make([]string, len(a.Sources))
		for i, s := range a.Sources {
			sources[i] = s.Title
			if s.Title == "" {
				sources[i] = s.URI
			}
		}
		writeList(&sb, "Sources", sources, 3)
	}

	p.printBox("MATCH ASSESSMENT", strings.TrimRight(sb.String(), "\n"))
}

// PrintDocument outputs a whole document, wrapped to the box width.
func (p *Printer) PrintDocument(title, text string) {
	if strings.TrimSpace(text) == "" {
		return
	}
	p.printLines(title, wrap(strings.TrimRight(text, "\n"), innerWidth))
}

// PrintTranscript outputs the chat so far, one entry per message.
func (p *Printer) PrintTranscript(messages []types.ChatMessage) {
	if len(messages) == 0 {
		return
	}

	var lines []string
	for i, m := range messages {
		label := "You"
		if m.Role == types.RoleAssistant {
			label = "Assistant"
			if m.IsUpdate {
				label += " ✎"
			}
		}
		lines = append(lines, label+":")
		for _, l := range wrap(m.Text, innerWidth-2) {
			lines = append(lines, "  "+l)
		}
		if i < len(messages)-1 {
			lines = append(lines, "")
		}
	}
	p.printLines("CHAT", lines)
}

// PrintLayout outputs where each block of the letter landed.
func (p *Printer) PrintLayout(doc *rendering.Document) {
	if doc == nil {
		return
	}

	var sb strings.Builder
	blocks := doc.Blocks()
	sb.WriteString(fmt.Sprintf("Pages: %d   Blocks: %d\n", len(doc.Pages), len(blocks)))
	for i, page := range doc.Pages {
		sb.WriteString(fmt.Sprintf("\nPage %d\n", i+1))
		for _, b := range page.Blocks {
			first := ""
			if len(b.Lines) > 0 {
				first = b.Lines[0]
			}
			sb.WriteString(fmt.Sprintf("  %-11s %s y=%5.1f h=%5.1f %s\n",
				b.Kind, b.Align, b.Y, b.Height, first))
		}
	}

	p.printBox("PDF LAYOUT", strings.TrimRight(sb.String(), "\n"))
}
