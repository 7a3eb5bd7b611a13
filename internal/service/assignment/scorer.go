package assignment

import (
	"github.com/sanchitsehgal8/SupportPilot/internal/config"
	domainassign "github.com/sanchitsehgal8/SupportPilot/internal/domain/assignment"
	domainticket "github.com/sanchitsehgal8/SupportPilot/internal/domain/ticket"
)

// Scorer combines a metrics snapshot into a single comparable fitness score.
// Pure and safe for concurrent use.
//
//	capacity_term = 1 / (1 + open_tickets)
//	score         = (1 - w_perf) * capacity_term + w_perf * performance_score
//
// w_perf grows with the ticket's priority tier (config.EngineConfig.PerfWeights,
// default 0.3/0.5/0.7/0.9 for low/medium/high/urgent), so escalated tickets
// prefer proven agents even when they are busier.
type Scorer struct {
	cfg config.EngineConfig
}

func NewScorer(cfg config.EngineConfig) Scorer {
	return Scorer{cfg: cfg}
}

func (s Scorer) Score(priority domainticket.Priority, m domainassign.MetricsSnapshot) float64 {
	wPerf := s.cfg.PerfWeight(priority)
	wLoad := 1 - wPerf
	capacityTerm := 1 / (1 + float64(m.OpenTickets))
	return wLoad*capacityTerm + wPerf*m.PerformanceScore
}

// AtCapacity reports whether the agent has reached the concurrent-ticket
// ceiling. Capped agents are excluded outright, not merely penalised — this
// is the engine's admission control.
func (s Scorer) AtCapacity(m domainassign.MetricsSnapshot) bool {
	return m.OpenTickets >= s.cfg.CapacityCeiling
}
