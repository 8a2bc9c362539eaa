package textfilter

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var keyPattern = regexp.MustCompile(`^[a-z0-9]+(_[a-z0-9]+)*$`)

// Words kept lowercase inside a display name unless they lead it
var minorWords = map[string]bool{
	"a": true, "an": true, "and": true, "at": true, "by": true,
	"for": true, "in": true, "of": true, "on": true, "the": true, "to": true,
}

// Key converts a display name into a snake_case content key.
// "Bolt Cutters" -> "bolt_cutters", "Hardware-Store" -> "hardware_store".
func Key(name string) string {
	var b strings.Builder
	lastUnderscore := true
	for _, r := range cases.Lower(language.English).String(strings.TrimSpace(name)) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastUnderscore = false
		case !lastUnderscore:
			b.WriteByte('_')
			lastUnderscore = true
		}
	}
	return strings.TrimSuffix(b.String(), "_")
}

// ValidKey reports whether s is a snake_case content key.
func ValidKey(s string) bool {
	return keyPattern.MatchString(s)
}

// DisplayName turns a content key back into a title-cased name.
// "shopping_center" -> "Shopping Center", "bag_of_rice" -> "Bag of Rice".
func DisplayName(key string) string {
	title := cases.Title(language.English)
	words := strings.FieldsFunc(key, func(r rune) bool { return r == '_' || r == '-' || unicode.IsSpace(r) })
	for i, w := range words {
		if i > 0 && minorWords[strings.ToLower(w)] {
			words[i] = strings.ToLower(w)
			continue
		}
		words[i] = title.String(w)
	}
	return strings.Join(words, " ")
}

// Speaker normalizes a speaker label for the dialog header, falling back to
// def when the label is blank.
func Speaker(label, def string) string {
	label = strings.Join(strings.Fields(label), " ")
	if label == "" {
		return def
	}
	return label
}
