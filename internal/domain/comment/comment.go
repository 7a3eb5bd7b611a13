package comment

import (
	"time"

	"github.com/google/uuid"
)

// AuthorRole distinguishes who wrote a comment. Tickets carry a customer id
// and an assigned agent id; the role says which side of the conversation the
// author is on.
type AuthorRole string

const (
	RoleCustomer AuthorRole = "customer"
	RoleAgent    AuthorRole = "agent"
)

func (r AuthorRole) Valid() bool {
	return r == RoleCustomer || r == RoleAgent
}

// Comment is one entry in a ticket's conversation thread. Comments are
// append-only; there is no edit or delete.
type Comment struct {
	ID         uuid.UUID  `json:"id"`
	TicketID   uuid.UUID  `json:"ticket_id"`
	AuthorID   uuid.UUID  `json:"author_id"`
	AuthorRole AuthorRole `json:"author_role"`
	Body       string     `json:"body"`
	CreatedAt  time.Time  `json:"created_at"`
}

func New(ticketID, authorID uuid.UUID, role AuthorRole, body string) Comment {
	return Comment{
		ID:         uuid.New(),
		TicketID:   ticketID,
		AuthorID:   authorID,
		AuthorRole: role,
		Body:       body,
		CreatedAt:  time.Now().UTC(),
	}
}
