package postgres

// PagedData is one page of database records plus the metadata
// for stepping through the rest.
//
// [*DB.Paged] fills it; Items holds a slice of the queried Model type.
// Page and PerPage are clamped to a minimum of 1.
type PagedData struct {
	Items      any   `json:"items"`
	Page       int64 `json:"page"`
	PerPage    int64 `json:"perPage"`
	TotalItems int64 `json:"totalItems"`
	TotalPages int64 `json:"totalPages"`
}
