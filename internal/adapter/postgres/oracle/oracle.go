package oracle

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	domainassign "github.com/sanchitsehgal8/SupportPilot/internal/domain/assignment"
	portoracle "github.com/sanchitsehgal8/SupportPilot/internal/port/oracle"
)

// neutralPerformance is assumed for agents with no resolution history, so new
// agents are neither favoured nor starved by the performance term.
const neutralPerformance = 0.5

// Oracle computes per-agent workload and performance metrics from ticket
// history in one aggregate query. Snapshots are computed fresh on every call;
// nothing here is persisted.
type Oracle struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Oracle {
	return &Oracle{pool: pool}
}

func (o *Oracle) GetMetrics(ctx context.Context, agentIDs []uuid.UUID) (map[uuid.UUID]domainassign.MetricsSnapshot, error) {
	if len(agentIDs) == 0 {
		return map[uuid.UUID]domainassign.MetricsSnapshot{}, nil
	}

	query := `
		SELECT a.id,
			COUNT(t.id) FILTER (WHERE t.status IN ('open', 'in_progress')) AS open_tickets,
			COALESCE(EXTRACT(EPOCH FROM AVG(t.resolved_at - t.created_at) FILTER (WHERE t.resolved_at IS NOT NULL)), 0)::double precision AS avg_resolution_seconds,
			COUNT(t.id) FILTER (WHERE t.resolved_at IS NOT NULL) AS resolved_count,
			COUNT(t.id) AS handled_count
		FROM agents a
		LEFT JOIN tickets t ON t.assigned_agent_id = a.id
		WHERE a.id = ANY($1)
		GROUP BY a.id`

	rows, err := o.pool.Query(ctx, query, agentIDs)
	if err != nil {
		return nil, fmt.Errorf("%w: querying agent metrics: %w", portoracle.ErrUnavailable, err)
	}
	defer rows.Close()

	now := time.Now().UTC()
	metrics := make(map[uuid.UUID]domainassign.MetricsSnapshot, len(agentIDs))
	for rows.Next() {
		var (
			id            uuid.UUID
			open          int
			avgResolution float64
			resolved      int
			handled       int
		)
		if err := rows.Scan(&id, &open, &avgResolution, &resolved, &handled); err != nil {
			return nil, fmt.Errorf("scanning metrics row: %w", err)
		}

		perf := neutralPerformance
		if handled > 0 {
			perf = float64(resolved) / float64(handled)
		}
		metrics[id] = domainassign.MetricsSnapshot{
			AgentID:              id,
			OpenTickets:          open,
			AvgResolutionSeconds: avgResolution,
			PerformanceScore:     perf,
			TakenAt:              now,
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating metrics rows: %w", portoracle.ErrUnavailable, err)
	}
	return metrics, nil
}
