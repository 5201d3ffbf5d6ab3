package dispatch

import (
	"context"

	"github.com/arkline/lifeline/id"
)

// ListOpts controls pagination and filtering for dispatch list queries.
type ListOpts struct {
	// Count is the maximum number of dispatches to return. Zero means
	// no limit.
	Count int
	// Offset is the number of dispatches to skip.
	Offset int
	// Status filters by dispatch status. Empty means all statuses.
	Status Status
}

// Page is one result of a listing query: a transient, ordered view over
// the store. TotalCount is the number of dispatches matching the filter
// across all pages, not the length of Items.
type Page struct {
	Items      []*Dispatch `json:"items"`
	TotalCount int         `json:"total_count"`
	Offset     int         `json:"offset"`
	Limit      int         `json:"limit"`
}

// Lister serves paginated dispatch listings. Implementations must keep
// ordering stable enough across repeated calls within one sweep that
// previously returned items remain retrievable at consistent offsets.
// Strict snapshot isolation is not required: a dispatch appearing in or
// leaving the filtered status between pages may be double-seen or
// missed. That race is accepted by the shutdown sweep.
type Lister interface {
	// ListDispatches returns one page of dispatches matching opts.
	ListDispatches(ctx context.Context, opts ListOpts) (*Page, error)
}

// Canceler issues cancellation requests against the dispatch execution
// engine. CancelDispatch is idempotent: cancelling a dispatch that has
// already reached a terminal status succeeds without effect.
type Canceler interface {
	CancelDispatch(ctx context.Context, dispatchID id.DispatchID) error
}

// Store defines the persistence contract for dispatches.
type Store interface {
	Lister
	Canceler

	// CreateDispatch persists a new dispatch record.
	CreateDispatch(ctx context.Context, d *Dispatch) error

	// GetDispatch retrieves a dispatch by ID.
	GetDispatch(ctx context.Context, dispatchID id.DispatchID) (*Dispatch, error)

	// UpdateDispatch persists changes to an existing dispatch.
	UpdateDispatch(ctx context.Context, d *Dispatch) error

	// CountDispatches returns the number of dispatches with the given
	// status. An empty status counts all dispatches.
	CountDispatches(ctx context.Context, status Status) (int64, error)
}
