package site

import (
	"strconv"

	"github.com/alnah/go-stattic/internal/render"
)

// paginationDelta is how many pages are listed on each side of the current one.
const paginationDelta = 2

// PageNumbers lists the page numbers of a pagination bar: always the
// first and last page, the pages within two of current, and 0 where a gap
// is elided.
func PageNumbers(current, total int) []int {
	if total < 1 {
		return nil
	}
	links := []int{1}

	start := max(current-paginationDelta, 2)
	end := min(current+paginationDelta, total-1)

	if start > 2 {
		links = append(links, 0)
	}
	for n := start; n <= end; n++ {
		links = append(links, n)
	}
	if end < total-1 {
		links = append(links, 0)
	}
	if total > 1 {
		links = append(links, total)
	}
	return links
}

// TotalPages returns the number of index pages for count posts.
func TotalPages(count, perPage int) int {
	if count == 0 || perPage < 1 {
		return 1
	}
	return (count + perPage - 1) / perPage
}

// IndexPath returns the output file of index page n.
func IndexPath(n int) string {
	if n <= 1 {
		return "index.html"
	}
	return "page/" + strconv.Itoa(n) + "/index.html"
}

// indexLink is the root-relative link to index page n.
func indexLink(n int) string {
	if n <= 1 {
		return "index.html"
	}
	return "page/" + strconv.Itoa(n) + "/"
}

// Paginate builds the pagination bar for page current of total.
func Paginate(current, total int) *render.Pagination {
	p := &render.Pagination{Current: current, Total: total}
	if current > 1 {
		p.Prev = indexLink(current - 1)
	}
	if current < total {
		p.Next = indexLink(current + 1)
	}
	for _, n := range PageNumbers(current, total) {
		if n == 0 {
			p.Pages = append(p.Pages, render.PageNumber{Ellipsis: true})
			continue
		}
		p.Pages = append(p.Pages, render.PageNumber{
			Number:  n,
			Path:    indexLink(n),
			Current: n == current,
		})
	}
	return p
}
