package ledger

import (
	"math"
	"regexp"
	"strings"
	"unicode/utf8"

	"nunc/internal/core"
)

// MaxCount caps caller supplied boost counts. It is the largest integer a
// JavaScript client can represent exactly.
const MaxCount = 1<<53 - 1

// urlPattern is a crude link heuristic: a scheme, "www." or a dotted suffix of
// two or more letters followed by a slash or the end of the text.
var urlPattern = regexp.MustCompile(`(?i)(https?://|www\.|\.[a-z]{2,})(/|$)`)

// ValidateText trims text and checks it against the post text rules.
func ValidateText(text string) (string, error) {
	text = strings.TrimSpace(text)

	switch {
	case text == "":
		return "", core.ErrEmptyText
	case utf8.RuneCountInString(text) > core.MaxTextLength:
		return "", core.ErrTextTooLong
	case HasURL(text):
		return "", core.ErrURLBlocked
	}
	return text, nil
}

func HasURL(text string) bool {
	return urlPattern.MatchString(text)
}

// NormalizeCountry trims the country, caps its length and substitutes the
// default for a blank value.
func NormalizeCountry(country string) string {
	country = truncate(strings.TrimSpace(country), core.MaxCountryLength)
	if country == "" {
		return core.DefaultCountry
	}
	return country
}

// ClampCount floors v and clamps it to [0, MaxCount]. Non-finite values become 0.
func ClampCount(v float64) int64 {
	switch {
	case math.IsNaN(v), math.IsInf(v, 0), v <= 0:
		return 0
	case v >= MaxCount:
		return MaxCount
	}
	return int64(math.Floor(v))
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
