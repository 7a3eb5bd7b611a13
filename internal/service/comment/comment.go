package comment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	domaincomment "github.com/sanchitsehgal8/SupportPilot/internal/domain/comment"
	"github.com/sanchitsehgal8/SupportPilot/internal/domain/event"
	domainticket "github.com/sanchitsehgal8/SupportPilot/internal/domain/ticket"
	portcomment "github.com/sanchitsehgal8/SupportPilot/internal/port/comment"
	portbus "github.com/sanchitsehgal8/SupportPilot/internal/port/eventbus"
	portticket "github.com/sanchitsehgal8/SupportPilot/internal/port/ticket"
)

// ErrTicketClosed means the ticket's thread is frozen: closed tickets accept
// no new comments. Resolved tickets still do, so a customer can follow up
// before the ticket is reopened or closed for good.
var ErrTicketClosed = errors.New("closed tickets do not accept comments")

// Service manages per-ticket comment threads. Every comment is anchored to an
// existing ticket; the thread is read and written through the ticket's id.
type Service struct {
	comments portcomment.Repository
	tickets  portticket.Repository
	bus      portbus.EventBus
}

func NewService(comments portcomment.Repository, tickets portticket.Repository, bus portbus.EventBus) *Service {
	return &Service{comments: comments, tickets: tickets, bus: bus}
}

func (s *Service) Add(ctx context.Context, ticketID, authorID uuid.UUID, role domaincomment.AuthorRole, body string) (domaincomment.Comment, error) {
	if !role.Valid() {
		return domaincomment.Comment{}, fmt.Errorf("invalid author role %q", role)
	}

	t, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return domaincomment.Comment{}, fmt.Errorf("get ticket: %w", err)
	}
	if t.Status == domainticket.StatusClosed {
		return domaincomment.Comment{}, fmt.Errorf("ticket %s: %w", t.ID, ErrTicketClosed)
	}

	created, err := s.comments.Create(ctx, domaincomment.New(ticketID, authorID, role, body))
	if err != nil {
		return domaincomment.Comment{}, fmt.Errorf("create comment: %w", err)
	}

	if err := s.bus.Publish(ctx, event.New(event.TypeTicketCommented, ticketID)); err != nil {
		slog.ErrorContext(ctx, "failed to publish TicketCommented event", "ticket_id", ticketID, "error", err)
	}
	return created, nil
}

func (s *Service) ListByTicket(ctx context.Context, ticketID uuid.UUID) ([]domaincomment.Comment, error) {
	if _, err := s.tickets.GetByID(ctx, ticketID); err != nil {
		return nil, fmt.Errorf("get ticket: %w", err)
	}
	comments, err := s.comments.ListByTicket(ctx, ticketID)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	return comments, nil
}
