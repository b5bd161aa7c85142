package core

import (
	"cmp"
	"slices"
	"strings"
)

// ComparePosts orders posts by boosts desc, then creation time desc, then id asc.
// It is a total order as long as ids are unique.
func ComparePosts(a, b Post) int {
	if c := cmp.Compare(b.Boosts, a.Boosts); c != 0 {
		return c
	}
	if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
		return c
	}
	return strings.Compare(a.ID, b.ID)
}

func SortPosts(posts []Post) {
	slices.SortFunc(posts, ComparePosts)
}

func CompareCountryTotals(a, b CountryTotal) int {
	if c := cmp.Compare(b.Boosts, a.Boosts); c != 0 {
		return c
	}
	return strings.Compare(a.Country, b.Country)
}
