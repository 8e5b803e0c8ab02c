// Package locale provides locale-sensitive temporal formatting for
// tick and slider labels, and locale-aware string collation for series
// ordering. Formatters are cheap to rebuild when the active language
// changes, so a language switch never requires re-fetching records.
package locale

import (
	"fmt"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// supported lists the languages with dedicated date tables; anything
// else matches to English.
var supported = []language.Tag{
	language.English,
	language.French,
	language.German,
	language.Spanish,
}

var matcher = language.NewMatcher(supported)

// Formatter renders dates and compares labels for one language.
type Formatter struct {
	tag      language.Tag
	collator *collate.Collator
}

// New builds a formatter for the given BCP 47 language code. Unknown
// or empty codes fall back to English.
func New(lang string) *Formatter {
	tag, err := language.Parse(lang)
	if err != nil {
		tag = language.English
	}

	matched, _, _ := matcher.Match(tag)

	return &Formatter{
		tag:      matched,
		collator: collate.New(tag),
	}
}

// Tag returns the matched language tag.
func (f *Formatter) Tag() language.Tag {
	return f.tag
}

// Compare orders two labels using the locale's collation rules.
func (f *Formatter) Compare(a, b string) int {
	return f.collator.CompareString(a, b)
}

var monthAbbrev = map[string][12]string{
	"en": {"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"},
	"fr": {"janv.", "févr.", "mars", "avr.", "mai", "juin", "juil.", "août", "sept.", "oct.", "nov.", "déc."},
	"de": {"Jan.", "Feb.", "März", "Apr.", "Mai", "Juni", "Juli", "Aug.", "Sept.", "Okt.", "Nov.", "Dez."},
	"es": {"ene", "feb", "mar", "abr", "may", "jun", "jul", "ago", "sep", "oct", "nov", "dic"},
}

// ShortDate renders t as a locale-short date, e.g. "Jan 2, 2026" (en)
// or "2 janv. 2026" (fr).
func (f *Formatter) ShortDate(t time.Time) string {
	base, _ := f.tag.Base()
	lang := base.String()

	months, ok := monthAbbrev[lang]
	if !ok {
		months = monthAbbrev["en"]
	}

	month := months[int(t.Month())-1]

	switch lang {
	case "fr", "es":
		return fmt.Sprintf("%d %s %d", t.Day(), month, t.Year())
	case "de":
		return fmt.Sprintf("%d. %s %d", t.Day(), month, t.Year())
	default:
		return fmt.Sprintf("%s %d, %d", month, t.Day(), t.Year())
	}
}
