package locker

import "context"

// AdvisoryLocker serialises critical sections using Postgres session advisory
// locks. The queue sweeper takes one so overlapping sweeps from multiple
// instances cannot double-drive the same tickets. WithLock must acquire and
// release on the same DB connection; session-level pg_advisory_lock is bound
// to the connection that took it.
type AdvisoryLocker interface {
	WithLock(ctx context.Context, key int64, fn func(ctx context.Context) error) error
}
