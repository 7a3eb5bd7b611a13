package ticket

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/sanchitsehgal8/SupportPilot/internal/domain/event"
	domainticket "github.com/sanchitsehgal8/SupportPilot/internal/domain/ticket"
	portbus "github.com/sanchitsehgal8/SupportPilot/internal/port/eventbus"
	portticket "github.com/sanchitsehgal8/SupportPilot/internal/port/ticket"
)

// Service manages the ticket lifecycle outside of assignment: creation,
// reads, and CAS status transitions. Assignment itself belongs to the
// coordinator; this service only publishes the events the sweeper reacts to.
type Service struct {
	repo portticket.Repository
	bus  portbus.EventBus
}

func NewService(repo portticket.Repository, bus portbus.EventBus) *Service {
	return &Service{repo: repo, bus: bus}
}

func (s *Service) Create(ctx context.Context, customerID uuid.UUID, title, description string, priority domainticket.Priority, requiredSkills []string) (domainticket.Ticket, error) {
	if priority == "" {
		priority = domainticket.PriorityMedium
	}
	if !priority.Valid() {
		return domainticket.Ticket{}, fmt.Errorf("invalid priority %q", priority)
	}

	t := domainticket.New(customerID, title, description, priority, requiredSkills)
	created, err := s.repo.Create(ctx, t)
	if err != nil {
		return domainticket.Ticket{}, fmt.Errorf("create ticket: %w", err)
	}

	if err := s.bus.Publish(ctx, event.New(event.TypeTicketCreated, created.ID)); err != nil {
		slog.ErrorContext(ctx, "failed to publish TicketCreated event", "ticket_id", created.ID, "error", err)
	}
	return created, nil
}

func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (domainticket.Ticket, error) {
	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return domainticket.Ticket{}, fmt.Errorf("get ticket: %w", err)
	}
	return t, nil
}

func (s *Service) List(ctx context.Context, filters domainticket.ListFilters) ([]domainticket.Ticket, error) {
	tickets, err := s.repo.List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("list tickets: %w", err)
	}
	return tickets, nil
}

// UpdateStatus performs a CAS status transition. Entering a terminal status
// frees the assignee's capacity, so TicketResolved is published to wake the
// queue sweeper.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, from, to domainticket.Status) error {
	if !from.CanTransitionTo(to) {
		return fmt.Errorf("invalid transition from %s to %s", from, to)
	}

	if err := s.repo.UpdateStatus(ctx, id, from, to); err != nil {
		return fmt.Errorf("update ticket status: %w", err)
	}

	s.bus.Publish(ctx, event.New(event.TypeTicketUpdated, id)) //nolint:errcheck
	if to.Terminal() {
		s.bus.Publish(ctx, event.New(event.TypeTicketResolved, id)) //nolint:errcheck
	}
	return nil
}
