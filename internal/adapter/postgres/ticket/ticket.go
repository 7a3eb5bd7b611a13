package ticket

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	domainassign "github.com/sanchitsehgal8/SupportPilot/internal/domain/assignment"
	domainticket "github.com/sanchitsehgal8/SupportPilot/internal/domain/ticket"
	portticket "github.com/sanchitsehgal8/SupportPilot/internal/port/ticket"
)

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) Create(ctx context.Context, t domainticket.Ticket) (domainticket.Ticket, error) {
	query := `
		INSERT INTO tickets (id, customer_id, title, description, priority, status,
			required_skills, assigned_agent_id, created_at, updated_at, resolved_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		RETURNING id, customer_id, title, description, priority, status,
			required_skills, assigned_agent_id, created_at, updated_at, resolved_at`

	var created domainticket.Ticket
	err := r.pool.QueryRow(ctx, query,
		t.ID, t.CustomerID, t.Title, t.Description, t.Priority, t.Status,
		t.RequiredSkills, t.AssignedAgentID, t.CreatedAt, t.UpdatedAt, t.ResolvedAt,
	).Scan(
		&created.ID, &created.CustomerID, &created.Title, &created.Description,
		&created.Priority, &created.Status, &created.RequiredSkills,
		&created.AssignedAgentID, &created.CreatedAt, &created.UpdatedAt, &created.ResolvedAt,
	)
	if err != nil {
		return domainticket.Ticket{}, fmt.Errorf("inserting ticket: %w", err)
	}
	return created, nil
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (domainticket.Ticket, error) {
	query := `
		SELECT id, customer_id, title, description, priority, status,
			required_skills, assigned_agent_id, created_at, updated_at, resolved_at
		FROM tickets WHERE id = $1`

	var t domainticket.Ticket
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&t.ID, &t.CustomerID, &t.Title, &t.Description, &t.Priority, &t.Status,
		&t.RequiredSkills, &t.AssignedAgentID, &t.CreatedAt, &t.UpdatedAt, &t.ResolvedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domainticket.Ticket{}, fmt.Errorf("ticket %s: %w", id, portticket.ErrNotFound)
		}
		return domainticket.Ticket{}, fmt.Errorf("querying ticket: %w", err)
	}
	return t, nil
}

func (r *Repository) List(ctx context.Context, filters domainticket.ListFilters) ([]domainticket.Ticket, error) {
	query := `
		SELECT id, customer_id, title, description, priority, status,
			required_skills, assigned_agent_id, created_at, updated_at, resolved_at
		FROM tickets WHERE 1=1`

	args := []interface{}{}
	argIdx := 1

	if filters.CustomerID != nil {
		query += fmt.Sprintf(" AND customer_id = $%d", argIdx)
		args = append(args, *filters.CustomerID)
		argIdx++
	}
	if filters.Status != nil {
		query += fmt.Sprintf(" AND status = $%d", argIdx)
		args = append(args, string(*filters.Status))
		argIdx++
	}
	if filters.Priority != nil {
		query += fmt.Sprintf(" AND priority = $%d", argIdx)
		args = append(args, string(*filters.Priority))
		argIdx++
	}
	if filters.AssignedTo != nil {
		query += fmt.Sprintf(" AND assigned_agent_id = $%d", argIdx)
		args = append(args, *filters.AssignedTo)
		argIdx++
	}
	if filters.Unassigned {
		query += " AND assigned_agent_id IS NULL"
	}

	if filters.OldestFirst {
		query += " ORDER BY created_at ASC"
	} else {
		query += " ORDER BY created_at DESC"
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing tickets: %w", err)
	}
	defer rows.Close()

	return scanTickets(rows)
}

func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to domainticket.Status) error {
	now := time.Now().UTC()
	var query string
	var args []interface{}

	switch {
	case to.Terminal():
		query = `UPDATE tickets SET status = $1, updated_at = $2, resolved_at = $2 WHERE id = $3 AND status = $4`
		args = []interface{}{string(to), now, id, string(from)}
	case to == domainticket.StatusOpen:
		// Reopening clears the resolution timestamp.
		query = `UPDATE tickets SET status = $1, updated_at = $2, resolved_at = NULL WHERE id = $3 AND status = $4`
		args = []interface{}{string(to), now, id, string(from)}
	default:
		query = `UPDATE tickets SET status = $1, updated_at = $2 WHERE id = $3 AND status = $4`
		args = []interface{}{string(to), now, id, string(from)}
	}

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("updating ticket status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("ticket %s status CAS failed: expected status %s", id, from)
	}
	return nil
}

func (r *Repository) CountByStatus(ctx context.Context) (map[domainticket.Status]int, error) {
	rows, err := r.pool.Query(ctx, `SELECT status, COUNT(*) FROM tickets GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("counting tickets by status: %w", err)
	}
	defer rows.Close()

	counts := make(map[domainticket.Status]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scanning status count: %w", err)
		}
		counts[domainticket.Status(status)] = n
	}
	return counts, rows.Err()
}

// CommitAssignment is the engine's optimistic-concurrency linchpin. Inside one
// transaction it locks the chosen agent's row (serialising capacity checks for
// that agent), re-counts the agent's live open tickets against maxLoad,
// CAS-updates the ticket's assignee from prevAgentID, and upserts the decision
// row. The scoring snapshot is never trusted at commit time.
func (r *Repository) CommitAssignment(ctx context.Context, dec domainassign.Decision, prevAgentID *uuid.UUID, maxLoad int) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		var active bool
		err := tx.QueryRow(ctx, `SELECT active FROM agents WHERE id = $1 FOR UPDATE`, dec.AgentID).Scan(&active)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("agent %s not found", dec.AgentID)
			}
			return fmt.Errorf("locking agent row: %w", err)
		}
		if !active {
			// Deactivated between scoring and commit.
			return portticket.ErrCommitConflict
		}

		var openCount int
		err = tx.QueryRow(ctx, `
			SELECT COUNT(*) FROM tickets
			WHERE assigned_agent_id = $1 AND status IN ('open', 'in_progress')`,
			dec.AgentID,
		).Scan(&openCount)
		if err != nil {
			return fmt.Errorf("counting agent open tickets: %w", err)
		}
		if openCount >= maxLoad {
			return portticket.ErrCommitConflict
		}

		tag, err := tx.Exec(ctx, `
			UPDATE tickets
			SET assigned_agent_id = $1, status = 'in_progress', updated_at = NOW()
			WHERE id = $2 AND assigned_agent_id IS NOT DISTINCT FROM $3`,
			dec.AgentID, dec.TicketID, prevAgentID,
		)
		if err != nil {
			return fmt.Errorf("updating ticket assignee: %w", err)
		}
		if tag.RowsAffected() == 0 {
			var exists bool
			if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM tickets WHERE id = $1)`, dec.TicketID).Scan(&exists); err != nil {
				return fmt.Errorf("checking ticket existence: %w", err)
			}
			if !exists {
				return fmt.Errorf("ticket %s not found", dec.TicketID)
			}
			return portticket.ErrTicketConflict
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO assignment_decisions (ticket_id, agent_id, score, attempts, degraded, manual, decided_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7)
			ON CONFLICT (ticket_id) DO UPDATE SET
				agent_id = EXCLUDED.agent_id, score = EXCLUDED.score,
				attempts = EXCLUDED.attempts, degraded = EXCLUDED.degraded,
				manual = EXCLUDED.manual, decided_at = EXCLUDED.decided_at`,
			dec.TicketID, dec.AgentID, dec.Score, dec.Attempts, dec.Degraded, dec.Manual, dec.DecidedAt,
		)
		if err != nil {
			return fmt.Errorf("upserting assignment decision: %w", err)
		}
		return nil
	})
}

func (r *Repository) ClearAssignment(ctx context.Context, ticketID uuid.UUID) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE tickets
			SET assigned_agent_id = NULL, status = 'open', updated_at = NOW()
			WHERE id = $1`, ticketID)
		if err != nil {
			return fmt.Errorf("clearing ticket assignee: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("ticket %s not found", ticketID)
		}
		if _, err := tx.Exec(ctx, `DELETE FROM assignment_decisions WHERE ticket_id = $1`, ticketID); err != nil {
			return fmt.Errorf("deleting assignment decision: %w", err)
		}
		return nil
	})
}

func (r *Repository) GetDecision(ctx context.Context, ticketID uuid.UUID) (domainassign.Decision, error) {
	query := `
		SELECT ticket_id, agent_id, score, attempts, degraded, manual, decided_at
		FROM assignment_decisions WHERE ticket_id = $1`

	var d domainassign.Decision
	err := r.pool.QueryRow(ctx, query, ticketID).Scan(
		&d.TicketID, &d.AgentID, &d.Score, &d.Attempts, &d.Degraded, &d.Manual, &d.DecidedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domainassign.Decision{}, portticket.ErrNoDecision
		}
		return domainassign.Decision{}, fmt.Errorf("querying assignment decision: %w", err)
	}
	return d, nil
}

func scanTickets(rows pgx.Rows) ([]domainticket.Ticket, error) {
	var tickets []domainticket.Ticket
	for rows.Next() {
		var t domainticket.Ticket
		if err := rows.Scan(
			&t.ID, &t.CustomerID, &t.Title, &t.Description, &t.Priority, &t.Status,
			&t.RequiredSkills, &t.AssignedAgentID, &t.CreatedAt, &t.UpdatedAt, &t.ResolvedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning ticket row: %w", err)
		}
		tickets = append(tickets, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating ticket rows: %w", err)
	}
	return tickets, nil
}
