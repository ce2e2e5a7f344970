package ingestion

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
)

var (
	spaceRun       = regexp.MustCompile(`[ \t\f\v]+`)
	blankLineRun   = regexp.MustCompile(`\n\n\n+`)
	zeroWidthChars = strings.NewReplacer("\u200b", "", "\u200c", "", "\u200d", "", "\ufeff", "", "\u00a0", " ")
)

// CleanJobText cleans and normalizes a pasted or scraped job description
// while preserving its line structure.
func CleanJobText(content string) string {
	if content == "" {
		return ""
	}

	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.ReplaceAll(content, "\r", "\n")
	content = zeroWidthChars.Replace(content)

	lines := strings.Split(content, "\n")
	cleanedLines := make([]string, 0, len(lines))
	for _, line := range lines {
		cleanedLines = append(cleanedLines, cleanLine(line))
	}

	result := strings.Join(cleanedLines, "\n")
	result = blankLineRun.ReplaceAllString(result, "\n\n")
	return strings.TrimSpace(result)
}

// cleanLine trims a line and collapses inner whitespace. Bullets are
// normalized to "- " and keep their indentation.
func cleanLine(line string) string {
	line = strings.TrimRight(line, " \t")
	trimmed := strings.TrimLeft(line, " \t")
	if trimmed == "" {
		return ""
	}

	indent := len(line) - len(trimmed)
	if isBulletLine(trimmed) {
		_, rest, _ := strings.Cut(trimmed, " ")
		trimmed = "- " + strings.TrimSpace(rest)
	} else {
		indent = 0
	}

	content := spaceRun.ReplaceAllString(trimmed, " ")
	if indent > 0 {
		return strings.Repeat(" ", indent) + content
	}
	return content
}

// isBulletLine checks if a line is a bullet list item
func isBulletLine(line string) bool {
	return strings.HasPrefix(line, "- ") || strings.HasPrefix(line, "* ") ||
		strings.HasPrefix(line, "• ") || strings.HasPrefix(line, "· ")
}

// LoadJobFile reads a job description from a text file.
func LoadJobFile(path string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("file not found: %w", err)
		}
		return "", fmt.Errorf("failed to read file: %w", err)
	}
	return CleanJobText(string(content)), nil
}
