package core

import (
	"time"
)

const (
	// PostTTL is the fixed lifetime of every post.
	PostTTL = 24 * time.Hour

	MaxTextLength    = 200
	MaxCountryLength = 80

	// DefaultCountry replaces a blank country.
	DefaultCountry = "—"
)

// Post is a short text submission ranked by its boosts.
type Post struct {
	ID        string
	Text      string
	Country   string
	Boosts    int64
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Live reports whether the post is still visible at now.
func (p Post) Live(now time.Time) bool {
	return now.Before(p.ExpiresAt)
}

// CountryTotal is the sum of live boosts for one country.
type CountryTotal struct {
	Country string
	Boosts  int64
}

// Millis truncates t to millisecond precision, the resolution posts are stored with.
func Millis(t time.Time) time.Time {
	return time.UnixMilli(t.UnixMilli())
}
