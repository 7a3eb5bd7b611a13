package ticket

import (
	"context"
	"errors"

	"github.com/google/uuid"

	domainassign "github.com/sanchitsehgal8/SupportPilot/internal/domain/assignment"
	domainticket "github.com/sanchitsehgal8/SupportPilot/internal/domain/ticket"
)

var (
	// ErrCommitConflict means the chosen agent's live open-ticket count reached
	// the ceiling between scoring and commit. Expected under contention; the
	// coordinator re-selects with the agent excluded.
	ErrCommitConflict = errors.New("assignment commit conflict: agent at capacity")

	// ErrTicketConflict means the ticket's assignee changed underneath the
	// request — another request already committed a decision for it.
	ErrTicketConflict = errors.New("assignment commit conflict: ticket assignee changed")

	// ErrNoDecision is returned by GetDecision for tickets that were never assigned.
	ErrNoDecision = errors.New("no assignment decision for ticket")

	// ErrNotFound is returned by GetByID for unknown ticket ids.
	ErrNotFound = errors.New("ticket not found")
)

type Repository interface {
	Create(ctx context.Context, t domainticket.Ticket) (domainticket.Ticket, error)
	GetByID(ctx context.Context, id uuid.UUID) (domainticket.Ticket, error)
	List(ctx context.Context, filters domainticket.ListFilters) ([]domainticket.Ticket, error)

	// UpdateStatus performs an atomic CAS: only transitions if current status matches `from`.
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to domainticket.Status) error

	CountByStatus(ctx context.Context) (map[domainticket.Status]int, error)

	// CommitAssignment atomically re-validates the chosen agent's live open-ticket
	// count against maxLoad, CAS-updates the ticket's assignee from prevAgentID
	// (nil = must be unassigned) to dec.AgentID with the open → in_progress
	// transition, and upserts the decision row — all in one transaction.
	// Returns ErrCommitConflict or ErrTicketConflict on the respective races.
	CommitAssignment(ctx context.Context, dec domainassign.Decision, prevAgentID *uuid.UUID, maxLoad int) error

	// ClearAssignment is the compensating unassignment: drops the assignee,
	// returns the ticket to open, and deletes the active decision.
	ClearAssignment(ctx context.Context, ticketID uuid.UUID) error

	GetDecision(ctx context.Context, ticketID uuid.UUID) (domainassign.Decision, error)
}
