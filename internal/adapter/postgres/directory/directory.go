package directory

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	domainagent "github.com/sanchitsehgal8/SupportPilot/internal/domain/agent"
	domainticket "github.com/sanchitsehgal8/SupportPilot/internal/domain/ticket"
	portdirectory "github.com/sanchitsehgal8/SupportPilot/internal/port/directory"
)

// Directory implements port/directory.AgentDirectory against the agents table.
// The ORDER BY id gives the stable order the selector's tie-break relies on.
type Directory struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Directory {
	return &Directory{pool: pool}
}

func (d *Directory) ListEligibleAgents(ctx context.Context, t domainticket.Ticket) ([]domainagent.Agent, error) {
	query := `
		SELECT id, name, email, active, skills, created_at
		FROM agents
		WHERE active AND (cardinality($1::text[]) = 0 OR skills && $1)
		ORDER BY id`

	rows, err := d.pool.Query(ctx, query, t.RequiredSkills)
	if err != nil {
		return nil, fmt.Errorf("%w: listing eligible agents: %w", portdirectory.ErrUnavailable, err)
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
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating agent rows: %w", portdirectory.ErrUnavailable, err)
	}
	return agents, nil
}
