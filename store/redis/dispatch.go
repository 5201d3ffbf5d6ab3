package redis

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/arkline/lifeline"
	"github.com/arkline/lifeline/dispatch"
	"github.com/arkline/lifeline/id"
)

// CreateDispatch stores the dispatch as a Hash and indexes it in the
// enumeration and status Sets.
func (s *Store) CreateDispatch(ctx context.Context, d *dispatch.Dispatch) error {
	dID := d.ID.String()
	key := dispatchKey(dID)

	exists, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("lifeline/redis: create check exists: %w", err)
	}
	if exists > 0 {
		return lifeline.ErrDispatchExists
	}

	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, key, dispatchToMap(d))
	pipe.SAdd(ctx, dispatchIDsKey, dID)
	pipe.SAdd(ctx, statusKey(string(d.Status)), dID)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("lifeline/redis: create dispatch: %w", err)
	}
	return nil
}

// GetDispatch retrieves a dispatch by ID.
func (s *Store) GetDispatch(ctx context.Context, dispatchID id.DispatchID) (*dispatch.Dispatch, error) {
	return s.getDispatchByKey(ctx, dispatchKey(dispatchID.String()))
}

// UpdateDispatch persists changes to an existing dispatch and moves it
// between status Sets when its status changed.
func (s *Store) UpdateDispatch(ctx context.Context, d *dispatch.Dispatch) error {
	dID := d.ID.String()
	key := dispatchKey(dID)

	prev, err := s.client.HGet(ctx, key, "status").Result()
	if err != nil {
		if isNil(err) {
			return lifeline.ErrDispatchNotFound
		}
		return fmt.Errorf("lifeline/redis: update get status: %w", err)
	}

	fields := dispatchToMap(d)
	fields["updated_at"] = time.Now().UTC().Format(time.RFC3339Nano)

	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, key, fields)
	if prev != string(d.Status) {
		pipe.SMove(ctx, statusKey(prev), statusKey(string(d.Status)), dID)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("lifeline/redis: update dispatch: %w", err)
	}
	return nil
}

// ListDispatches returns one page of dispatches matching the status
// filter, ordered by creation time then ID. TotalCount reflects the
// full matching set.
func (s *Store) ListDispatches(ctx context.Context, opts dispatch.ListOpts) (*dispatch.Page, error) {
	indexKey := dispatchIDsKey
	if opts.Status != "" {
		indexKey = statusKey(string(opts.Status))
	}

	ids, err := s.client.SMembers(ctx, indexKey).Result()
	if err != nil {
		return nil, fmt.Errorf("lifeline/redis: list smembers: %w", err)
	}

	matching := make([]*dispatch.Dispatch, 0, len(ids))
	for _, dID := range ids {
		d, getErr := s.getDispatchByKey(ctx, dispatchKey(dID))
		if getErr != nil {
			continue // index entry for a missing hash
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

	return &dispatch.Page{
		Items:      matching[start:end],
		TotalCount: total,
		Offset:     opts.Offset,
		Limit:      opts.Count,
	}, nil
}

// CountDispatches returns the number of dispatches in the given status.
// An empty status counts all dispatches.
func (s *Store) CountDispatches(ctx context.Context, status dispatch.Status) (int64, error) {
	indexKey := dispatchIDsKey
	if status != "" {
		indexKey = statusKey(string(status))
	}
	n, err := s.client.SCard(ctx, indexKey).Result()
	if err != nil {
		return 0, fmt.Errorf("lifeline/redis: count scard: %w", err)
	}
	return n, nil
}

// CancelDispatch marks the dispatch cancelled and moves it into the
// CANCELLED status Set. Dispatches already in a terminal status are
// left untouched.
func (s *Store) CancelDispatch(ctx context.Context, dispatchID id.DispatchID) error {
	dID := dispatchID.String()
	key := dispatchKey(dID)

	prev, err := s.client.HGet(ctx, key, "status").Result()
	if err != nil {
		if isNil(err) {
			return lifeline.ErrDispatchNotFound
		}
		return fmt.Errorf("lifeline/redis: cancel get status: %w", err)
	}
	if dispatch.Status(prev).Terminal() {
		return nil
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, key,
		"status", string(dispatch.StatusCancelled),
		"ended_at", now,
		"updated_at", now,
	)
	pipe.SMove(ctx, statusKey(prev), statusKey(string(dispatch.StatusCancelled)), dID)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("lifeline/redis: cancel dispatch: %w", err)
	}
	return nil
}

func (s *Store) getDispatchByKey(ctx context.Context, key string) (*dispatch.Dispatch, error) {
	vals, err := s.client.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("lifeline/redis: get dispatch: %w", err)
	}
	if len(vals) == 0 {
		return nil, lifeline.ErrDispatchNotFound
	}
	return mapToDispatch(vals)
}

func dispatchToMap(d *dispatch.Dispatch) map[string]interface{} {
	m := map[string]interface{}{
		"id":            d.ID.String(),
		"name":          d.Name,
		"status":        string(d.Status),
		"error_message": d.ErrorMessage,
		"created_at":    d.CreatedAt.Format(time.RFC3339Nano),
		"updated_at":    d.UpdatedAt.Format(time.RFC3339Nano),
	}
	if d.StartedAt != nil {
		m["started_at"] = d.StartedAt.Format(time.RFC3339Nano)
	}
	if d.EndedAt != nil {
		m["ended_at"] = d.EndedAt.Format(time.RFC3339Nano)
	}
	return m
}

func mapToDispatch(m map[string]string) (*dispatch.Dispatch, error) {
	dID, err := id.ParseDispatchID(m["id"])
	if err != nil {
		return nil, fmt.Errorf("lifeline/redis: parse dispatch id: %w", err)
	}

	createdAt, _ := time.Parse(time.RFC3339Nano, m["created_at"]) //nolint:errcheck // best-effort parse from trusted Redis data
	updatedAt, _ := time.Parse(time.RFC3339Nano, m["updated_at"]) //nolint:errcheck // best-effort parse from trusted Redis data

	d := &dispatch.Dispatch{
		Entity: lifeline.Entity{
			CreatedAt: createdAt,
			UpdatedAt: updatedAt,
		},
		ID:           dID,
		Name:         m["name"],
		Status:       dispatch.Status(m["status"]),
		ErrorMessage: m["error_message"],
	}

	if v := m["started_at"]; v != "" {
		t, _ := time.Parse(time.RFC3339Nano, v) //nolint:errcheck // best-effort parse from trusted Redis data
		d.StartedAt = &t
	}
	if v := m["ended_at"]; v != "" {
		t, _ := time.Parse(time.RFC3339Nano, v) //nolint:errcheck // best-effort parse from trusted Redis data
		d.EndedAt = &t
	}

	return d, nil
}
