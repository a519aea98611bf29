package crawler

import (
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"

	"sjsage522/carspecworker/config"
)

// AttributeRow is one row of a specification table. A row with a Section
// opens that section; any other row carries a field label and value.
type AttributeRow struct {
	Section string
	Label   string
	Value   string
}

// ParseAttributes turns the rows of a specification table into Attributes
func ParseAttributes(rows *goquery.Selection, loc config.CarSpecLocators) Attributes {
	return FoldAttributes(ScanRows(rows, loc))
}

// ScanRows converts table rows into AttributeRows without interpreting them
func ScanRows(rows *goquery.Selection, loc config.CarSpecLocators) []AttributeRow {
	scanned := make([]AttributeRow, 0, rows.Length())
	rows.Each(func(_ int, row *goquery.Selection) {
		if id := row.Find(loc.Section).AttrOr("id", ""); id != "" {
			scanned = append(scanned, AttributeRow{Section: id})
			return
		}
		if loc.FieldRowExclude != "" && row.Is(loc.FieldRowExclude) {
			scanned = append(scanned, AttributeRow{})
			return
		}

		value := row.Find(loc.Value).Contents()
		if loc.ValueAnnotation != "" {
			value = value.Not(loc.ValueAnnotation)
		}
		scanned = append(scanned, AttributeRow{
			Label: row.Find(loc.Label).Text(),
			Value: strings.TrimSpace(value.Text()),
		})
	})
	return scanned
}

// attributeFold is the parser state: the open section and everything collected so far
type attributeFold struct {
	section string
	attrs   Attributes
}

func (f attributeFold) step(row AttributeRow) attributeFold {
	if row.Section != "" {
		// a repeated section id starts over
		f.attrs[row.Section] = map[string]string{}
		f.section = row.Section
		return f
	}

	key := CamelKey(row.Label)
	if f.section == "" || key == "" || row.Value == "" {
		return f
	}
	f.attrs[f.section][key] = row.Value
	return f
}

// FoldAttributes groups field rows under the most recent section row.
// Rows before the first section are dropped.
func FoldAttributes(rows []AttributeRow) Attributes {
	state := attributeFold{attrs: Attributes{}}
	for _, row := range rows {
		state = state.step(row)
	}
	return state.attrs
}

// CamelKey derives a lowerCamelCase key from a field label. Punctuation
// around a word is ignored; words that still contain anything other than
// ASCII letters are dropped. "Max. Speed (km/h)" becomes "maxSpeed".
func CamelKey(label string) string {
	var b strings.Builder
	words := 0
	for _, word := range strings.Fields(strings.ToLower(label)) {
		word = strings.TrimFunc(word, unicode.IsPunct)
		if !isASCIILetters(word) {
			continue
		}
		if words > 0 {
			word = strings.ToUpper(word[:1]) + word[1:]
		}
		b.WriteString(word)
		words++
	}
	return b.String()
}

func isASCIILetters(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < 'a' || c > 'z') && (c < 'A' || c > 'Z') {
			return false
		}
	}
	return true
}
