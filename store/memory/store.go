// Package memory provides an in-memory dispatch store.
//
// The store is safe for concurrent use and keeps everything in process
// memory, so it suits tests and single-process deployments where
// durability across restarts is not needed.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/arkline/lifeline"
	"github.com/arkline/lifeline/dispatch"
	"github.com/arkline/lifeline/id"
)

// Store is an in-memory implementation of dispatch.Store.
type Store struct {
	mu         sync.RWMutex
	dispatches map[string]*dispatch.Dispatch
}

var (
	_ dispatch.Store  = (*Store)(nil)
	_ lifeline.Storer = (*Store)(nil)
)

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		dispatches: make(map[string]*dispatch.Dispatch),
	}
}

// Migrate is a no-op for the in-memory store.
func (s *Store) Migrate(_ context.Context) error { return nil }

// Ping is a no-op for the in-memory store.
func (s *Store) Ping(_ context.Context) error { return nil }

// Close is a no-op for the in-memory store.
func (s *Store) Close() error { return nil }

// copyDispatch clones a dispatch so callers never share memory with the
// store's internal state.
func copyDispatch(d *dispatch.Dispatch) *dispatch.Dispatch {
	cp := *d
	if d.StartedAt != nil {
		t := *d.StartedAt
		cp.StartedAt = &t
	}
	if d.EndedAt != nil {
		t := *d.EndedAt
		cp.EndedAt = &t
	}
	return &cp
}

// CreateDispatch stores a new dispatch. It returns
// lifeline.ErrDispatchExists if the ID is already present.
func (s *Store) CreateDispatch(_ context.Context, d *dispatch.Dispatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := d.ID.String()
	if _, exists := s.dispatches[key]; exists {
		return lifeline.ErrDispatchExists
	}
	s.dispatches[key] = copyDispatch(d)
	return nil
}

// GetDispatch returns the dispatch with the given ID, or
// lifeline.ErrDispatchNotFound.
func (s *Store) GetDispatch(_ context.Context, dispatchID id.DispatchID) (*dispatch.Dispatch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.dispatches[dispatchID.String()]
	if !ok {
		return nil, lifeline.ErrDispatchNotFound
	}
	return copyDispatch(d), nil
}

// UpdateDispatch replaces the stored dispatch and bumps UpdatedAt.
func (s *Store) UpdateDispatch(_ context.Context, d *dispatch.Dispatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := d.ID.String()
	if _, ok := s.dispatches[key]; !ok {
		return lifeline.ErrDispatchNotFound
	}
	cp := copyDispatch(d)
	cp.UpdatedAt = time.Now().UTC()
	s.dispatches[key] = cp
	return nil
}

// ListDispatches returns one page of dispatches matching the status
// filter, ordered by creation time then ID for a stable enumeration.
// TotalCount always reflects the full matching set, not the page.
func (s *Store) ListDispatches(_ context.Context, opts dispatch.ListOpts) (*dispatch.Page, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matching []*dispatch.Dispatch
	for _, d := range s.dispatches {
		if opts.Status != "" && d.Status != opts.Status {
			continue
		}
		matching = append(matching, d)
	}

	sort.Slice(matching, func(i, j int) bool {
		if !matching[i].CreatedAt.Equal(matching[j].CreatedAt) {
			return matching[i].CreatedAt.Before(matching[j].CreatedAt)
		}
		return matching[i].ID.String() < matching[j].ID.String()
	})

	total := len(matching)

	start := opts.Offset
	if start < 0 {
		start = 0
	}
	if start > total {
		start = total
	}
	end := total
	if opts.Count > 0 && start+opts.Count < total {
		end = start + opts.Count
	}

	items := make([]*dispatch.Dispatch, 0, end-start)
	for _, d := range matching[start:end] {
		items = append(items, copyDispatch(d))
	}

	return &dispatch.Page{
		Items:      items,
		TotalCount: total,
		Offset:     opts.Offset,
		Limit:      opts.Count,
	}, nil
}

// CountDispatches returns the number of dispatches in the given status.
// An empty status counts everything.
func (s *Store) CountDispatches(_ context.Context, status dispatch.Status) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	for _, d := range s.dispatches {
		if status == "" || d.Status == status {
			n++
		}
	}
	return n, nil
}

// CancelDispatch marks the dispatch cancelled. Dispatches already in a
// terminal status are left untouched and the call succeeds, so repeated
// cancellations are safe.
func (s *Store) CancelDispatch(_ context.Context, dispatchID id.DispatchID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.dispatches[dispatchID.String()]
	if !ok {
		return lifeline.ErrDispatchNotFound
	}
	if d.Status.Terminal() {
		return nil
	}

	now := time.Now().UTC()
	d.Status = dispatch.StatusCancelled
	d.EndedAt = &now
	d.UpdatedAt = now
	return nil
}
