package comment

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	domaincomment "github.com/sanchitsehgal8/SupportPilot/internal/domain/comment"
)

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) Create(ctx context.Context, c domaincomment.Comment) (domaincomment.Comment, error) {
	query := `
		INSERT INTO ticket_comments (id, ticket_id, author_id, author_role, body, created_at)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING id, ticket_id, author_id, author_role, body, created_at`

	var created domaincomment.Comment
	err := r.pool.QueryRow(ctx, query,
		c.ID, c.TicketID, c.AuthorID, c.AuthorRole, c.Body, c.CreatedAt,
	).Scan(
		&created.ID, &created.TicketID, &created.AuthorID, &created.AuthorRole,
		&created.Body, &created.CreatedAt,
	)
	if err != nil {
		return domaincomment.Comment{}, fmt.Errorf("inserting comment: %w", err)
	}
	return created, nil
}

func (r *Repository) ListByTicket(ctx context.Context, ticketID uuid.UUID) ([]domaincomment.Comment, error) {
	query := `
		SELECT id, ticket_id, author_id, author_role, body, created_at
		FROM ticket_comments
		WHERE ticket_id = $1
		ORDER BY created_at, id`

	rows, err := r.pool.Query(ctx, query, ticketID)
	if err != nil {
		return nil, fmt.Errorf("listing comments: %w", err)
	}
	defer rows.Close()

	var comments []domaincomment.Comment
	for rows.Next() {
		var c domaincomment.Comment
		if err := rows.Scan(&c.ID, &c.TicketID, &c.AuthorID, &c.AuthorRole, &c.Body, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning comment row: %w", err)
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}
