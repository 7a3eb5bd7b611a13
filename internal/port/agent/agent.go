package agent

import (
	"context"

	"github.com/google/uuid"

	domainagent "github.com/sanchitsehgal8/SupportPilot/internal/domain/agent"
)

// Repository manages the agent roster in the database.
type Repository interface {
	Create(ctx context.Context, a domainagent.Agent) (domainagent.Agent, error)
	GetByID(ctx context.Context, id uuid.UUID) (domainagent.Agent, error)
	List(ctx context.Context, filters domainagent.ListFilters) ([]domainagent.Agent, error)
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
}
