package lifeline

import "context"

// Storer is the minimal store lifecycle interface held by the
// supervisor. The full dispatch store contract lives in the dispatch
// package, which sits above this one and so cannot be imported here.
type Storer interface {
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}
