package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/arkline/lifeline"
	"github.com/arkline/lifeline/dispatch"
	"github.com/arkline/lifeline/id"
)

const dispatchColumns = `
	id, name, status, error_message,
	started_at, ended_at, created_at, updated_at`

// CreateDispatch persists a new dispatch record.
func (s *Store) CreateDispatch(ctx context.Context, d *dispatch.Dispatch) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO lifeline_dispatches (
			id, name, status, error_message,
			started_at, ended_at, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		d.ID.String(), d.Name, string(d.Status), d.ErrorMessage,
		d.StartedAt, d.EndedAt, d.CreatedAt, d.UpdatedAt,
	)
	if err != nil {
		if isDuplicateKey(err) {
			return lifeline.ErrDispatchExists
		}
		return fmt.Errorf("lifeline/postgres: create dispatch: %w", err)
	}
	return nil
}

// GetDispatch retrieves a dispatch by ID.
func (s *Store) GetDispatch(ctx context.Context, dispatchID id.DispatchID) (*dispatch.Dispatch, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+dispatchColumns+`
		FROM lifeline_dispatches
		WHERE id = $1`,
		dispatchID.String(),
	)

	d, err := scanDispatch(row)
	if err != nil {
		if isNoRows(err) {
			return nil, lifeline.ErrDispatchNotFound
		}
		return nil, fmt.Errorf("lifeline/postgres: get dispatch: %w", err)
	}
	return d, nil
}

// UpdateDispatch persists changes to an existing dispatch.
func (s *Store) UpdateDispatch(ctx context.Context, d *dispatch.Dispatch) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE lifeline_dispatches
		SET name = $2, status = $3, error_message = $4,
		    started_at = $5, ended_at = $6, updated_at = NOW()
		WHERE id = $1`,
		d.ID.String(), d.Name, string(d.Status), d.ErrorMessage,
		d.StartedAt, d.EndedAt,
	)
	if err != nil {
		return fmt.Errorf("lifeline/postgres: update dispatch: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return lifeline.ErrDispatchNotFound
	}
	return nil
}

// ListDispatches returns one page of dispatches matching the status
// filter, ordered by creation time then ID. The total is taken with a
// separate COUNT so it stays correct for pages past the end of the
// result set.
func (s *Store) ListDispatches(ctx context.Context, opts dispatch.ListOpts) (*dispatch.Page, error) {
	var total int
	err := s.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM lifeline_dispatches
		WHERE ($1 = '' OR status = $1)`,
		string(opts.Status),
	).Scan(&total)
	if err != nil {
		return nil, fmt.Errorf("lifeline/postgres: count for listing: %w", err)
	}

	limit := opts.Count
	if limit <= 0 {
		limit = total
	}

	rows, err := s.pool.Query(ctx, `
		SELECT `+dispatchColumns+`
		FROM lifeline_dispatches
		WHERE ($1 = '' OR status = $1)
		ORDER BY created_at, id
		OFFSET $2 LIMIT $3`,
		string(opts.Status), opts.Offset, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("lifeline/postgres: list dispatches: %w", err)
	}
	defer rows.Close()

	items, err := collectDispatches(rows)
	if err != nil {
		return nil, err
	}

	return &dispatch.Page{
		Items:      items,
		TotalCount: total,
		Offset:     opts.Offset,
		Limit:      opts.Count,
	}, nil
}

// CountDispatches returns the number of dispatches in the given status.
// An empty status counts all dispatches.
func (s *Store) CountDispatches(ctx context.Context, status dispatch.Status) (int64, error) {
	var n int64
	err := s.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM lifeline_dispatches
		WHERE ($1 = '' OR status = $1)`,
		string(status),
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("lifeline/postgres: count dispatches: %w", err)
	}
	return n, nil
}

// CancelDispatch marks the dispatch cancelled unless it has already
// reached a terminal status. The status guard is part of the UPDATE, so
// concurrent cancellations and completed dispatches are handled without
// a read-modify-write race.
func (s *Store) CancelDispatch(ctx context.Context, dispatchID id.DispatchID) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE lifeline_dispatches
		SET status = $2, ended_at = NOW(), updated_at = NOW()
		WHERE id = $1
		  AND status NOT IN ('COMPLETED', 'FAILED', 'CANCELLED')`,
		dispatchID.String(), string(dispatch.StatusCancelled),
	)
	if err != nil {
		return fmt.Errorf("lifeline/postgres: cancel dispatch: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	// Nothing updated: either the dispatch is already terminal, which
	// is an idempotent success, or it does not exist.
	var exists bool
	err = s.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM lifeline_dispatches WHERE id = $1)`,
		dispatchID.String(),
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("lifeline/postgres: cancel existence check: %w", err)
	}
	if !exists {
		return lifeline.ErrDispatchNotFound
	}
	return nil
}

// scanDispatch reads one dispatch from a row.
func scanDispatch(row pgx.Row) (*dispatch.Dispatch, error) {
	var (
		d      dispatch.Dispatch
		rawID  string
		status string
	)
	err := row.Scan(
		&rawID, &d.Name, &status, &d.ErrorMessage,
		&d.StartedAt, &d.EndedAt, &d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	d.ID, err = id.ParseDispatchID(rawID)
	if err != nil {
		return nil, fmt.Errorf("lifeline/postgres: parse dispatch id: %w", err)
	}
	d.Status = dispatch.Status(status)
	return &d, nil
}

// collectDispatches reads all dispatches from a result set.
func collectDispatches(rows pgx.Rows) ([]*dispatch.Dispatch, error) {
	var items []*dispatch.Dispatch
	for rows.Next() {
		d, err := scanDispatch(rows)
		if err != nil {
			return nil, fmt.Errorf("lifeline/postgres: scan dispatch: %w", err)
		}
		items = append(items, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("lifeline/postgres: iterate dispatches: %w", err)
	}
	return items, nil
}
