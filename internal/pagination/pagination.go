// Package pagination provides the page arithmetic shared by list screens.
package pagination

import "strconv"

// Data contains pagination information for display.
type Data struct {
	CurrentPage int
	TotalPages  int
	PerPage     int
	Total       int
	HasPrevious bool
	HasNext     bool
	PrevPage    int
	NextPage    int
	Pages       []int // page window, -1 marks an ellipsis
}

// NewData builds display data for the given position. totalPages below 1 is
// treated as 1.
func NewData(currentPage, totalPages, perPage, totalItems int) Data {
	if totalPages < 1 {
		totalPages = 1
	}
	if currentPage < 1 {
		currentPage = 1
	}
	return Data{
		CurrentPage: currentPage,
		TotalPages:  totalPages,
		PerPage:     perPage,
		Total:       totalItems,
		HasPrevious: currentPage > 1,
		HasNext:     currentPage < totalPages,
		PrevPage:    currentPage - 1,
		NextPage:    currentPage + 1,
		Pages:       PageRange(currentPage, totalPages),
	}
}

// ShouldNavigateToPreviousPage reports whether deleting an item leaves the
// current page empty: the page held a single item, it is the last page, and
// there is a page before it.
//
// Arguments are not validated; a currentPage beyond totalPages simply yields
// false.
func ShouldNavigateToPreviousPage(itemsOnCurrentPage, currentPage, totalPages int) bool {
	return itemsOnCurrentPage == 1 && currentPage > 1 && currentPage == totalPages
}

// CalculatePageAfterDeletion returns the page to show after deleting one item
// from currentPage.
func CalculatePageAfterDeletion(itemsOnCurrentPage, currentPage, totalPages int) int {
	if ShouldNavigateToPreviousPage(itemsOnCurrentPage, currentPage, totalPages) {
		return currentPage - 1
	}
	return currentPage
}

// TotalPages returns the number of pages needed for totalItems, never less
// than 1 so an empty result still has a page to show.
func TotalPages(totalItems, perPage int) int {
	if perPage <= 0 || totalItems <= 0 {
		return 1
	}
	pages := totalItems / perPage
	if totalItems%perPage > 0 {
		pages++
	}
	return pages
}

// ParsePage parses a page query parameter. Anything that is not a positive
// integer becomes page 1.
func ParsePage(raw string) int {
	p, err := strconv.Atoi(raw)
	if err != nil || p < 1 {
		return 1
	}
	return p
}

// PageRange returns a slice of page numbers for pagination display.
// Returns -1 for ellipsis positions.
func PageRange(currentPage, totalPages int) []int {
	if totalPages <= 7 {
		pages := make([]int, totalPages)
		for i := range pages {
			pages[i] = i + 1
		}
		return pages
	}

	pages := []int{1}

	start := currentPage - 1
	end := currentPage + 1

	if start <= 2 {
		start = 2
	}
	if end >= totalPages {
		end = totalPages - 1
	}

	if start > 2 {
		pages = append(pages, -1) // ellipsis
	}

	for i := start; i <= end; i++ {
		pages = append(pages, i)
	}

	if end < totalPages-1 {
		pages = append(pages, -1) // ellipsis
	}

	pages = append(pages, totalPages)

	return pages
}
