package assignment

import (
	"time"

	"github.com/google/uuid"
)

// MetricsSnapshot is the oracle's per-agent view at scoring time. It is
// ephemeral: recomputed on every assignment request and never persisted.
// Staleness between this snapshot and the authoritative state is resolved
// by the capacity re-check inside the commit transaction.
type MetricsSnapshot struct {
	AgentID              uuid.UUID `json:"agent_id"`
	OpenTickets          int       `json:"open_tickets"`
	AvgResolutionSeconds float64   `json:"avg_resolution_seconds"`
	PerformanceScore     float64   `json:"performance_score"`
	TakenAt              time.Time `json:"taken_at"`
}

// WorstCase is the snapshot assumed for an agent the oracle could not
// measure: maximum load that still clears the ceiling, zero performance.
// The agent stays selectable as a last resort and the commit re-check
// enforces the real ceiling.
func WorstCase(agentID uuid.UUID, ceiling int) MetricsSnapshot {
	open := ceiling - 1
	if open < 0 {
		open = 0
	}
	return MetricsSnapshot{
		AgentID:     agentID,
		OpenTickets: open,
		TakenAt:     time.Now().UTC(),
	}
}

// Decision is the committed outcome of one assignment request. A ticket has
// at most one active decision; a reassignment supersedes the prior row,
// never appends to it.
type Decision struct {
	TicketID  uuid.UUID `json:"ticket_id"`
	AgentID   uuid.UUID `json:"agent_id"`
	Score     float64   `json:"score"`
	Attempts  int       `json:"attempts"`
	Degraded  bool      `json:"degraded"`
	Manual    bool      `json:"manual"`
	DecidedAt time.Time `json:"decided_at"`
}
