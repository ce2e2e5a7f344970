package rendering

import (
	"regexp"
	"strings"
)

// DefaultFileName is used when the company name yields nothing usable.
const DefaultFileName = "Cover_Letter"

var nonAlphanumericRun = regexp.MustCompile(`[^a-zA-Z0-9]+`)

// FileName derives the PDF file name from the company name. Runs of
// characters outside [A-Za-z0-9] become a single underscore and edge
// underscores are trimmed, so "Acme, Inc.!" gives "Acme_Inc.pdf".
func FileName(companyName string) string {
	return BaseName(companyName) + ".pdf"
}

// BaseName is FileName without the extension.
func BaseName(companyName string) string {
	name := strings.Trim(nonAlphanumericRun.ReplaceAllString(companyName, "_"), "_")
	if name == "" {
		return DefaultFileName
	}
	return name
}
