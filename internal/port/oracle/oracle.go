package oracle

import (
	"context"
	"errors"

	"github.com/google/uuid"

	domainassign "github.com/sanchitsehgal8/SupportPilot/internal/domain/assignment"
)

// ErrUnavailable signals the analytics store could not be reached. The engine
// degrades to directory-order scoring rather than aborting the request.
var ErrUnavailable = errors.New("metrics oracle unavailable")

// MetricsOracle supplies a live per-agent snapshot of the metrics used for
// scoring. Implementations must return a snapshot for every requested id or
// omit ids they cannot measure — the engine scores omissions as worst-case.
type MetricsOracle interface {
	GetMetrics(ctx context.Context, agentIDs []uuid.UUID) (map[uuid.UUID]domainassign.MetricsSnapshot, error)
}
