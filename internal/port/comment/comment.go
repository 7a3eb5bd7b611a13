package comment

import (
	"context"

	"github.com/google/uuid"

	domaincomment "github.com/sanchitsehgal8/SupportPilot/internal/domain/comment"
)

// Repository persists per-ticket comment threads, oldest first.
type Repository interface {
	Create(ctx context.Context, c domaincomment.Comment) (domaincomment.Comment, error)
	ListByTicket(ctx context.Context, ticketID uuid.UUID) ([]domaincomment.Comment, error)
}
