package site

import (
	"sort"
	"strings"
)

// Sort keys accepted by SortPosts.
const (
	SortByDate   = "date"
	SortByTitle  = "title"
	SortByAuthor = "author"
	SortByOrder  = "order"
)

// ValidSortKeys lists the accepted sort keys.
var ValidSortKeys = []string{SortByDate, SortByTitle, SortByAuthor, SortByOrder}

// SortPosts orders posts in place. Dates sort newest first with undated
// posts last; title and author sort case-insensitively; order sorts
// ascending. Ties fall back to the entity ID so the result is stable
// across runs. Unknown keys sort by date.
func SortPosts(posts []Post, by string) {
	less := func(i, j int) bool {
		a, b := &posts[i], &posts[j]
		switch by {
		case SortByTitle:
			if x, y := strings.ToLower(a.Title), strings.ToLower(b.Title); x != y {
				return x < y
			}
		case SortByAuthor:
			if x, y := strings.ToLower(a.Author), strings.ToLower(b.Author); x != y {
				return x < y
			}
		case SortByOrder:
			if a.Order != b.Order {
				return a.Order < b.Order
			}
		default:
			if !a.Date.Equal(b.Date) {
				return a.Date.After(b.Date)
			}
		}
		return a.ID < b.ID
	}
	sort.SliceStable(posts, less)
}
