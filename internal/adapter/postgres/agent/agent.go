package agent

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	domainagent "github.com/sanchitsehgal8/SupportPilot/internal/domain/agent"
)

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) Create(ctx context.Context, a domainagent.Agent) (domainagent.Agent, error) {
	query := `
		INSERT INTO agents (id, name, email, active, skills, created_at)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING id, name, email, active, skills, created_at`

	var created domainagent.Agent
	err := r.pool.QueryRow(ctx, query,
		a.ID, a.Name, a.Email, a.Active, a.Skills, a.CreatedAt,
	).Scan(
		&created.ID, &created.Name, &created.Email, &created.Active,
		&created.Skills, &created.CreatedAt,
	)
	if err != nil {
		return domainagent.Agent{}, fmt.Errorf("inserting agent: %w", err)
	}
	return created, nil
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (domainagent.Agent, error) {
	query := `SELECT id, name, email, active, skills, created_at FROM agents WHERE id = $1`

	var a domainagent.Agent
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&a.ID, &a.Name, &a.Email, &a.Active, &a.Skills, &a.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domainagent.Agent{}, fmt.Errorf("agent %s not found", id)
		}
		return domainagent.Agent{}, fmt.Errorf("querying agent: %w", err)
	}
	return a, nil
}

func (r *Repository) List(ctx context.Context, filters domainagent.ListFilters) ([]domainagent.Agent, error) {
	query := `SELECT id, name, email, active, skills, created_at FROM agents WHERE 1=1`

	args := []interface{}{}
	argIdx := 1

	if filters.Active != nil {
		query += fmt.Sprintf(" AND active = $%d", argIdx)
		args = append(args, *filters.Active)
		argIdx++
	}
	if filters.Skill != nil {
		query += fmt.Sprintf(" AND $%d = ANY(skills)", argIdx)
		args = append(args, *filters.Skill)
		argIdx++
	}

	query += " ORDER BY id"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing agents: %w", err)
	}
	defer rows.Close()

	var agents []domainagent.Agent
	for rows.Next() {
		var a domainagent.Agent
		if err := rows.Scan(&a.ID, &a.Name, &a.Email, &a.Active, &a.Skills, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning agent row: %w", err)
		}
		agents = append(agents, a)
	}
	return agents, rows.Err()
}

func (r *Repository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	tag, err := r.pool.Exec(ctx, `UPDATE agents SET active = $1 WHERE id = $2`, active, id)
	if err != nil {
		return fmt.Errorf("updating agent active flag: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("agent %s not found", id)
	}
	return nil
}
