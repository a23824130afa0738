package clean

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// scrubber folds text to NFC and strips invisible format runes (zero-width
// spaces, BOMs) that show up in exported CSVs and would otherwise defeat the
// "missing value" checks.
var scrubber = transform.Chain(norm.NFC, runes.Remove(runes.In(unicode.Cf)))

// NormalizeText cleans a free-text field: NFC normalization, removal of
// format runes, NBSP→space, and edge-space trimming. An empty result means
// the field is treated as missing.
func NormalizeText(s string) string {
	if s == "" {
		return ""
	}
	out, _, err := transform.String(scrubber, s)
	if err != nil {
		out = s
	}
	out = strings.ReplaceAll(out, "\u00a0", " ")
	return strings.TrimSpace(out)
}
