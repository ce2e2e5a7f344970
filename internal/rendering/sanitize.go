package rendering

import "strings"

// cp1252Extras are the runes Windows-1252 places in 0x80-0x9F.
var cp1252Extras = map[rune]bool{
	'\u20ac': true, '\u201a': true, '\u0192': true, '\u201e': true, '\u2026': true, '\u2020': true,
	'\u2021': true, '\u02c6': true, '\u2030': true, '\u0160': true, '\u2039': true, '\u0152': true,
	'\u017d': true, '\u2018': true, '\u2019': true, '\u201c': true, '\u201d': true, '\u2022': true,
	'\u2013': true, '\u2014': true, '\u02dc': true, '\u2122': true, '\u0161': true, '\u203a': true,
	'\u0153': true, '\u017e': true, '\u0178': true,
}

// replacements spell out common runes the core fonts cannot draw.
var replacements = map[rune]string{
	'\t':     " ",
	'\u00a0': " ", '\u2002': " ", '\u2003': " ", '\u2009': " ", '\u200a': " ", '\u202f': " ",
	'\u200b': "", '\u200c': "", '\u200d': "", '\ufeff': "",
	'\u2010': "-", '\u2011': "-", '\u2012': "-", '\u2015': "-", '\u2212': "-", '\u2043': "-",
	'\u2032': "'", '\u2033': "\"",
	'\u2190': "<-", '\u2192': "->", '\u21d2': "=>",
	'\u2264': "<=", '\u2265': ">=", '\u2248': "~",
	'\u25cf': "\u2022", '\u25aa': "\u2022", '\u2023': "\u2022",
	'\u2713': "", '\u2714': "",
}

// SanitizeText rewrites text so every rune is drawable with a Windows-1252
// core font. Known symbols get ASCII spellings, other unsupported runes
// become '?'. Newlines are kept.
func SanitizeText(text string) string {
	if text == "" {
		return ""
	}

	var result strings.Builder
	result.Grow(len(text))

	for _, r := range text {
		if rep, ok := replacements[r]; ok {
			result.WriteString(rep)
			continue
		}
		switch {
		case r == '\n':
			result.WriteRune(r)
		case r < 0x20 || r == 0x7f:
			// other control characters are dropped
		case r < 0x80:
			result.WriteRune(r)
		case r >= 0xa0 && r <= 0xff:
			result.WriteRune(r)
		case cp1252Extras[r]:
			result.WriteRune(r)
		case r >= 0x1f000:
			// emoji and pictographs
		default:
			result.WriteByte('?')
		}
	}

	return result.String()
}
