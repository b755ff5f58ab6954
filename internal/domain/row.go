package domain

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/text/width"
)

// RawRow is one station's fields as extracted from the AOAWS table, in
// column order.
type RawRow []string

// Column positions in the AOAWS station table. Only the columns the
// normalizer reads are named.
const (
	ColDate          = 10
	ColWindDirection = 12
	ColWindSpeed     = 13
	ColVisibility    = 14
	ColWeatherLegacy = 15 // weather text in the older table layout
	ColWeather       = 16
	ColTemperature   = 19
	ColMetarTail     = 26

	// MinRowLength covers the highest referenced column.
	MinRowLength = ColMetarTail + 1
)

// markupRe matches the presentational <font> wrapper in all escaping
// variants seen in the feed: <font color=#999999>, <font color=\#999999\>,
// </font> and <\/font>.
var markupRe = regexp.MustCompile(`(?i)<\s*\\?/?\s*font\b[^>]*>`)

// Validate reports ErrRowTooShort when the row does not reach every
// referenced column.
func (r RawRow) Validate() error {
	if len(r) < MinRowLength {
		return fmt.Errorf("%w: %d fields, need %d", ErrRowTooShort, len(r), MinRowLength)
	}
	return nil
}

// Field returns the cleaned value of a column, or "" when out of range.
func (r RawRow) Field(col int) string {
	if col < 0 || col >= len(r) {
		return ""
	}
	return cleanField(r[col])
}

// Contains reports whether any raw field contains s.
func (r RawRow) Contains(s string) bool {
	for _, f := range r {
		if strings.Contains(f, s) {
			return true
		}
	}
	return false
}

// cleanField strips font markup, decodes entities, turns non-breaking spaces
// into plain spaces and folds full-width forms ("１０ＫＭ") to ASCII. Markup
// is stripped again after decoding because the feed sometimes entity-escapes
// it.
func cleanField(s string) string {
	s = markupRe.ReplaceAllString(s, "")
	s = html.UnescapeString(s)
	s = markupRe.ReplaceAllString(s, "")
	s = strings.ReplaceAll(s, "\u00a0", " ")
	s = width.Fold.String(s)
	return strings.TrimSpace(s)
}
