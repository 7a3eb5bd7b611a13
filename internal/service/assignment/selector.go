package assignment

import (
	"errors"

	"github.com/google/uuid"

	domainagent "github.com/sanchitsehgal8/SupportPilot/internal/domain/agent"
	domainassign "github.com/sanchitsehgal8/SupportPilot/internal/domain/assignment"
	domainticket "github.com/sanchitsehgal8/SupportPilot/internal/domain/ticket"
)

// ErrNoEligibleAgent means every candidate was excluded or at capacity.
// A normal all-hands-busy outcome, not an infrastructure failure: callers
// surface the ticket as queued/unassigned.
var ErrNoEligibleAgent = errors.New("no eligible agent for ticket")

// Candidate pairs a directory entry with its metrics snapshot.
type Candidate struct {
	Agent   domainagent.Agent
	Metrics domainassign.MetricsSnapshot
}

// Selector ranks candidates and picks the winner. Stateless; the caller owns
// input freshness.
type Selector struct {
	scorer Scorer
}

func NewSelector(scorer Scorer) Selector {
	return Selector{scorer: scorer}
}

// Select returns the highest-scoring candidate that is neither excluded nor at
// capacity. Candidates must arrive in the directory's stable order (ascending
// agent id): the comparison is strict-greater, so exact score ties keep the
// earliest candidate and repeated runs with identical inputs pick the same agent.
func (s Selector) Select(t domainticket.Ticket, candidates []Candidate, exclude map[uuid.UUID]struct{}) (uuid.UUID, float64, error) {
	var (
		bestID    uuid.UUID
		bestScore float64
		found     bool
	)
	for _, c := range candidates {
		if _, skip := exclude[c.Agent.ID]; skip {
			continue
		}
		if s.scorer.AtCapacity(c.Metrics) {
			continue
		}
		score := s.scorer.Score(t.Priority, c.Metrics)
		if !found || score > bestScore {
			bestID, bestScore, found = c.Agent.ID, score, true
		}
	}
	if !found {
		return uuid.Nil, 0, ErrNoEligibleAgent
	}
	return bestID, bestScore, nil
}
