package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShouldNavigateToPreviousPage(t *testing.T) {
	tests := []struct {
		name    string
		items   int
		current int
		total   int
		want    bool
	}{
		{"last item on last page", 1, 3, 3, true},
		{"two items left", 2, 3, 3, false},
		{"only page", 1, 1, 1, false},
		{"not last page", 1, 2, 3, false},
		{"empty page", 0, 3, 3, false},
		{"current beyond total", 1, 4, 3, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ShouldNavigateToPreviousPage(tt.items, tt.current, tt.total))
		})
	}
}

func TestCalculatePageAfterDeletion(t *testing.T) {
	assert.Equal(t, 2, CalculatePageAfterDeletion(1, 3, 3))
	assert.Equal(t, 1, CalculatePageAfterDeletion(1, 1, 5))
	assert.Equal(t, 3, CalculatePageAfterDeletion(4, 3, 3))
	assert.Equal(t, 7, CalculatePageAfterDeletion(1, 7, 2), "invalid ranges pass through unchanged")
}

func TestTotalPages(t *testing.T) {
	assert.Equal(t, 1, TotalPages(0, 10))
	assert.Equal(t, 1, TotalPages(10, 10))
	assert.Equal(t, 2, TotalPages(11, 10))
	assert.Equal(t, 1, TotalPages(5, 0))
}

func TestParsePage(t *testing.T) {
	assert.Equal(t, 1, ParsePage(""))
	assert.Equal(t, 1, ParsePage("abc"))
	assert.Equal(t, 1, ParsePage("-2"))
	assert.Equal(t, 1, ParsePage("0"))
	assert.Equal(t, 4, ParsePage("4"))
}

func TestPageRange(t *testing.T) {
	assert.Equal(t, []int{1, 2, 3}, PageRange(2, 3))
	assert.Equal(t, []int{1, 2, -1, 10}, PageRange(1, 10))
	assert.Equal(t, []int{1, -1, 4, 5, 6, -1, 10}, PageRange(5, 10))
	assert.Equal(t, []int{1, -1, 9, 10}, PageRange(10, 10))
}

func TestNewData(t *testing.T) {
	d := NewData(2, 5, 10, 48)
	assert.True(t, d.HasPrevious)
	assert.True(t, d.HasNext)
	assert.Equal(t, 1, d.PrevPage)
	assert.Equal(t, 3, d.NextPage)
	assert.Equal(t, []int{1, 2, 3, 4, 5}, d.Pages)

	empty := NewData(1, 0, 10, 0)
	assert.Equal(t, 1, empty.TotalPages)
	assert.False(t, empty.HasNext)
	assert.False(t, empty.HasPrevious)
}
