package directory

import (
	"context"
	"errors"

	domainagent "github.com/sanchitsehgal8/SupportPilot/internal/domain/agent"
	domainticket "github.com/sanchitsehgal8/SupportPilot/internal/domain/ticket"
)

// ErrUnavailable signals the backing user-records store could not be reached.
// Retryable up to the coordinator's retry budget, then fatal for the request.
var ErrUnavailable = errors.New("agent directory unavailable")

// AgentDirectory exposes the current roster of agents eligible to receive a
// ticket: active, and matching at least one required skill (all active agents
// when the ticket requires none).
//
// Implementations must return a stable order (ascending agent id) so that
// scoring ties have a deterministic fallback order.
type AgentDirectory interface {
	ListEligibleAgents(ctx context.Context, t domainticket.Ticket) ([]domainagent.Agent, error)
}
