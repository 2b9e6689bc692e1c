package ingest

import (
	"path/filepath"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// DeriveLabel turns a file name into a display label: separators become
// spaces, punctuation is dropped and words are title-cased.
func DeriveLabel(sourcePath string) string {
	base := filepath.Base(sourcePath)
	base = norm.NFC.String(strings.TrimSuffix(base, filepath.Ext(base)))
	cleaned := strings.Builder{}
	prevSpace := false
	for _, r := range base {
		switch {
		case unicode.IsLetter(r) || unicode.IsNumber(r):
			cleaned.WriteRune(r)
			prevSpace = false
		case unicode.IsSpace(r) || r == '-' || r == '_' || r == '.':
			if !prevSpace {
				cleaned.WriteRune(' ')
				prevSpace = true
			}
		}
	}
	label := strings.TrimSpace(cleaned.String())
	if label == "" {
		return "Untitled"
	}
	return cases.Title(language.Und).String(label)
}

// NormalizeLabel trims a user-supplied label and puts it in NFC form.
func NormalizeLabel(label string) string {
	return norm.NFC.String(strings.TrimSpace(label))
}
