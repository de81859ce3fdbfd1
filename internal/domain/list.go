package domain

// =============================================================================
// Rows
// =============================================================================

// Row is one record in a paginated list result.
//
// Screens render rows generically: the screen configuration names column
// keys and each row type maps those keys to display text.
type Row interface {
	RowID() string
	Cell(key string) string
}

// Resource names understood by the remote API.
const (
	ResourceProducts     = "products"
	ResourceAppointments = "appointments"
	ResourceBrands       = "brands"
	ResourceContacts     = "contacts"
	ResourceMeasurements = "measurements"
)

// =============================================================================
// List Request / Result
// =============================================================================

// ListRequest is sent to the remote list endpoint.
type ListRequest struct {
	CurrentPage  int    `json:"currentPage"`
	ItemsPerPage int    `json:"itemsPerPage"`
	Search       string `json:"search"`
}

// Pagination is the paging block of a list response.
type Pagination struct {
	TotalPages int `json:"totalPages"`
	TotalItems int `json:"totalItems"`
}

// ListResult contains one page of rows plus paging totals.
type ListResult[T any] struct {
	Items      []T        `json:"items"`
	Pagination Pagination `json:"pagination"`
}

// IsEmpty reports whether the whole result set is empty, not just this page.
func (r ListResult[T]) IsEmpty() bool {
	return r.Pagination.TotalItems == 0 && len(r.Items) == 0
}

// Rows converts a typed result into the generic row form used by screens.
func Rows[T Row](r ListResult[T]) ListResult[Row] {
	items := make([]Row, len(r.Items))
	for i, item := range r.Items {
		items[i] = item
	}
	return ListResult[Row]{Items: items, Pagination: r.Pagination}
}
