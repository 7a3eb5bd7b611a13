package assignment

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/sanchitsehgal8/SupportPilot/internal/config"
	domainagent "github.com/sanchitsehgal8/SupportPilot/internal/domain/agent"
	domainassign "github.com/sanchitsehgal8/SupportPilot/internal/domain/assignment"
	"github.com/sanchitsehgal8/SupportPilot/internal/domain/event"
	domainticket "github.com/sanchitsehgal8/SupportPilot/internal/domain/ticket"
	portdirectory "github.com/sanchitsehgal8/SupportPilot/internal/port/directory"
	portbus "github.com/sanchitsehgal8/SupportPilot/internal/port/eventbus"
	portlocker "github.com/sanchitsehgal8/SupportPilot/internal/port/locker"
	portoracle "github.com/sanchitsehgal8/SupportPilot/internal/port/oracle"
	portticket "github.com/sanchitsehgal8/SupportPilot/internal/port/ticket"
)

var (
	// ErrUnassignable means the commit-retry budget was exhausted by capacity
	// conflicts. The ticket stays queued; a later sweep or manual action retries.
	ErrUnassignable = errors.New("assignment retries exhausted; ticket left unassigned")

	// ErrNotAssignable means the ticket is in a status that does not accept an
	// assignment (resolved or closed).
	ErrNotAssignable = errors.New("ticket status does not allow assignment")
)

// Coordinator is the concurrency-safe shell around scoring and selection.
// Each assignment request runs independently; the only shared mutable state is
// each agent's live open-ticket count, which the repository re-validates inside
// the commit transaction. Scoring works on snapshots and is free of locks.
type Coordinator struct {
	directory portdirectory.AgentDirectory
	oracle    portoracle.MetricsOracle
	tickets   portticket.Repository
	bus       portbus.EventBus
	locker    portlocker.AdvisoryLocker
	selector  Selector
	cfg       config.EngineConfig
}

func NewCoordinator(
	directory portdirectory.AgentDirectory,
	oracle portoracle.MetricsOracle,
	tickets portticket.Repository,
	bus portbus.EventBus,
	locker portlocker.AdvisoryLocker,
	cfg config.EngineConfig,
) *Coordinator {
	return &Coordinator{
		directory: directory,
		oracle:    oracle,
		tickets:   tickets,
		bus:       bus,
		locker:    locker,
		selector:  NewSelector(NewScorer(cfg)),
		cfg:       cfg,
	}
}

// Assign picks the best agent for an open ticket and commits the decision.
// Calling it again for an already-assigned ticket returns the stored decision
// unchanged — the decision row is the unit of idempotence.
func (c *Coordinator) Assign(ctx context.Context, ticketID uuid.UUID) (domainassign.Decision, error) {
	t, err := c.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return domainassign.Decision{}, fmt.Errorf("get ticket: %w", err)
	}
	if t.AssignedAgentID != nil {
		return c.existingDecision(ctx, t)
	}
	if t.Status != domainticket.StatusOpen {
		return domainassign.Decision{}, fmt.Errorf("ticket %s is %s: %w", t.ID, t.Status, ErrNotAssignable)
	}
	return c.run(ctx, t, nil, nil)
}

// Reassign supersedes the current decision, skipping the given agents. The
// prior assignee is always excluded.
func (c *Coordinator) Reassign(ctx context.Context, ticketID uuid.UUID, excludeAgentIDs []uuid.UUID) (domainassign.Decision, error) {
	t, err := c.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return domainassign.Decision{}, fmt.Errorf("get ticket: %w", err)
	}
	if t.Status.Terminal() {
		return domainassign.Decision{}, fmt.Errorf("ticket %s is %s: %w", t.ID, t.Status, ErrNotAssignable)
	}

	exclude := make(map[uuid.UUID]struct{}, len(excludeAgentIDs)+1)
	for _, id := range excludeAgentIDs {
		exclude[id] = struct{}{}
	}
	if t.AssignedAgentID != nil {
		exclude[*t.AssignedAgentID] = struct{}{}
	}
	return c.run(ctx, t, exclude, t.AssignedAgentID)
}

// ManualAssign is the admin override: no scoring, but the same capacity-checked
// commit path, so the ceiling invariant holds under concurrent automatic
// assignments.
func (c *Coordinator) ManualAssign(ctx context.Context, ticketID, agentID uuid.UUID) (domainassign.Decision, error) {
	t, err := c.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return domainassign.Decision{}, fmt.Errorf("get ticket: %w", err)
	}
	if t.Status.Terminal() {
		return domainassign.Decision{}, fmt.Errorf("ticket %s is %s: %w", t.ID, t.Status, ErrNotAssignable)
	}

	dec := domainassign.Decision{
		TicketID:  t.ID,
		AgentID:   agentID,
		Attempts:  1,
		Manual:    true,
		DecidedAt: time.Now().UTC(),
	}
	if err := c.tickets.CommitAssignment(context.WithoutCancel(ctx), dec, t.AssignedAgentID, c.cfg.CapacityCeiling); err != nil {
		return domainassign.Decision{}, fmt.Errorf("manual assign: %w", err)
	}
	c.bus.Publish(ctx, event.New(event.TypeTicketAssigned, t.ID)) //nolint:errcheck
	return dec, nil
}

// Unassign is the compensating action after a caller abandons a request whose
// commit had already resolved, or when an admin pulls a ticket back.
func (c *Coordinator) Unassign(ctx context.Context, ticketID uuid.UUID) error {
	if err := c.tickets.ClearAssignment(ctx, ticketID); err != nil {
		return fmt.Errorf("clear assignment: %w", err)
	}
	c.bus.Publish(ctx, event.New(event.TypeTicketUpdated, ticketID)) //nolint:errcheck
	return nil
}

// run drives one request through SCORING and COMMITTING. Each attempt fetches
// a fresh oracle snapshot, selects, and commits; a capacity conflict excludes
// the losing agent and re-enters scoring, up to MaxCommitRetries.
func (c *Coordinator) run(ctx context.Context, t domainticket.Ticket, exclude map[uuid.UUID]struct{}, prevAgentID *uuid.UUID) (domainassign.Decision, error) {
	agents, err := c.eligibleAgents(ctx, t)
	if err != nil {
		return domainassign.Decision{}, fmt.Errorf("assignment failed for ticket %s: %w", t.ID, err)
	}
	if exclude == nil {
		exclude = make(map[uuid.UUID]struct{})
	}

	for attempt := 1; attempt <= c.cfg.MaxCommitRetries; attempt++ {
		candidates, degraded := c.snapshotCandidates(ctx, agents)

		agentID, score, err := c.selector.Select(t, candidates, exclude)
		if err != nil {
			return domainassign.Decision{}, err
		}

		dec := domainassign.Decision{
			TicketID:  t.ID,
			AgentID:   agentID,
			Score:     score,
			Attempts:  attempt,
			Degraded:  degraded,
			DecidedAt: time.Now().UTC(),
		}

		// The commit must resolve even if the caller gives up mid-write;
		// cancellation before this point has no side effects.
		err = c.tickets.CommitAssignment(context.WithoutCancel(ctx), dec, prevAgentID, c.cfg.CapacityCeiling)
		switch {
		case err == nil:
			c.bus.Publish(ctx, event.New(event.TypeTicketAssigned, t.ID)) //nolint:errcheck
			return dec, nil

		case errors.Is(err, portticket.ErrCommitConflict):
			// Agent filled up between scoring and commit — drop it and rescore.
			slog.InfoContext(ctx, "assignment commit conflict, re-selecting",
				"ticket_id", t.ID, "agent_id", agentID, "attempt", attempt)
			exclude[agentID] = struct{}{}
			if err := c.backoff(ctx, attempt); err != nil {
				return domainassign.Decision{}, err
			}

		case errors.Is(err, portticket.ErrTicketConflict):
			// Another request already committed a decision for this ticket.
			// That outcome is authoritative; return it.
			if d, derr := c.tickets.GetDecision(ctx, t.ID); derr == nil {
				return d, nil
			}
			return domainassign.Decision{}, fmt.Errorf("commit assignment: %w", err)

		default:
			return domainassign.Decision{}, fmt.Errorf("commit assignment: %w", err)
		}
	}
	return domainassign.Decision{}, ErrUnassignable
}

// eligibleAgents fetches the directory roster with a per-call timeout and a
// bounded retry budget. Directory failure is fatal for the request: there is
// no candidate list to fall back on.
func (c *Coordinator) eligibleAgents(ctx context.Context, t domainticket.Ticket) ([]domainagent.Agent, error) {
	var lastErr error
	for attempt := 1; attempt <= c.cfg.DirectoryRetries; attempt++ {
		callCtx, cancel := context.WithTimeout(ctx, c.cfg.CallTimeout)
		agents, err := c.directory.ListEligibleAgents(callCtx, t)
		cancel()
		if err == nil {
			// The directory query filters on active + skills, but it is a
			// separate read: re-check here so a stale or overbroad roster
			// cannot route a ticket to an unqualified agent.
			eligible := make([]domainagent.Agent, 0, len(agents))
			for _, a := range agents {
				if a.Active && a.MatchesAnySkill(t.RequiredSkills) {
					eligible = append(eligible, a)
				}
			}
			return eligible, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		slog.WarnContext(ctx, "agent directory call failed, retrying",
			"ticket_id", t.ID, "attempt", attempt, "error", err)
		if err := c.backoff(ctx, attempt); err != nil {
			return nil, err
		}
	}
	return nil, fmt.Errorf("%w: %w", portdirectory.ErrUnavailable, lastErr)
}

// snapshotCandidates pairs each agent with its oracle snapshot. Oracle failure
// degrades to directory-order scoring: every candidate gets an identical
// zero snapshot, so the selector's tie-break reduces to stable directory order.
// Agents the oracle omitted are scored as worst-case instead.
func (c *Coordinator) snapshotCandidates(ctx context.Context, agents []domainagent.Agent) ([]Candidate, bool) {
	ids := make([]uuid.UUID, len(agents))
	for i, a := range agents {
		ids[i] = a.ID
	}

	callCtx, cancel := context.WithTimeout(ctx, c.cfg.CallTimeout)
	metrics, err := c.oracle.GetMetrics(callCtx, ids)
	cancel()

	candidates := make([]Candidate, len(agents))
	if err != nil {
		slog.WarnContext(ctx, "metrics oracle unavailable, degrading to directory order", "error", err)
		for i, a := range agents {
			candidates[i] = Candidate{Agent: a, Metrics: domainassign.MetricsSnapshot{AgentID: a.ID}}
		}
		return candidates, true
	}

	for i, a := range agents {
		m, ok := metrics[a.ID]
		if !ok {
			m = domainassign.WorstCase(a.ID, c.cfg.CapacityCeiling)
		}
		candidates[i] = Candidate{Agent: a, Metrics: m}
	}
	return candidates, false
}

// backoff sleeps exponentially from the configured base, honouring cancellation.
func (c *Coordinator) backoff(ctx context.Context, attempt int) error {
	d := c.cfg.RetryBackoff << (attempt - 1)
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (c *Coordinator) existingDecision(ctx context.Context, t domainticket.Ticket) (domainassign.Decision, error) {
	d, err := c.tickets.GetDecision(ctx, t.ID)
	if err == nil {
		return d, nil
	}
	if !errors.Is(err, portticket.ErrNoDecision) {
		return domainassign.Decision{}, fmt.Errorf("get decision: %w", err)
	}
	// Assigned outside the engine (e.g. seeded data) — reflect the row as-is.
	return domainassign.Decision{
		TicketID:  t.ID,
		AgentID:   *t.AssignedAgentID,
		Manual:    true,
		DecidedAt: t.UpdatedAt,
	}, nil
}

// SweepQueued re-drives unassigned open tickets, oldest first. Serialised by
// an advisory lock so concurrent sweeps cannot race each other; individual
// assignments inside the sweep still go through the normal commit path.
func (c *Coordinator) SweepQueued(ctx context.Context) error {
	return c.locker.WithLock(ctx, sweepLockKey(), func(ctx context.Context) error {
		open := domainticket.StatusOpen
		tickets, err := c.tickets.List(ctx, domainticket.ListFilters{
			Status:      &open,
			Unassigned:  true,
			OldestFirst: true,
		})
		if err != nil {
			return fmt.Errorf("list queued tickets: %w", err)
		}

		// Everyone is busy once one ticket comes back unassignable — stop
		// scheduling instead of hammering the directory for the rest.
		var exhausted atomic.Bool
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(c.cfg.SweepParallelism)
		for _, t := range tickets {
			t := t
			if exhausted.Load() {
				break
			}
			g.Go(func() error {
				_, err := c.Assign(gctx, t.ID)
				switch {
				case err == nil:
					return nil
				case errors.Is(err, ErrNoEligibleAgent), errors.Is(err, ErrUnassignable):
					exhausted.Store(true)
					return nil
				default:
					slog.ErrorContext(gctx, "sweep: assignment failed", "ticket_id", t.ID, "error", err)
					return nil // keep sweeping the remaining tickets
				}
			})
		}
		return g.Wait()
	})
}

// sweepLockKey hashes the sweep's advisory-lock name to a stable int64.
func sweepLockKey() int64 {
	h := fnv.New64a()
	h.Write([]byte("supportpilot:assignment_sweep"))
	return int64(h.Sum64())
}
