package agent

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	domainagent "github.com/sanchitsehgal8/SupportPilot/internal/domain/agent"
	"github.com/sanchitsehgal8/SupportPilot/internal/domain/event"
	portagent "github.com/sanchitsehgal8/SupportPilot/internal/port/agent"
	portbus "github.com/sanchitsehgal8/SupportPilot/internal/port/eventbus"
)

// Service manages the support-agent roster. The assignment engine never
// mutates agents; activation changes flow through here and are announced on
// the bus so freed capacity gets swept immediately.
type Service struct {
	repo portagent.Repository
	bus  portbus.EventBus
}

func NewService(repo portagent.Repository, bus portbus.EventBus) *Service {
	return &Service{repo: repo, bus: bus}
}

func (s *Service) Register(ctx context.Context, name, email string, skills []string) (domainagent.Agent, error) {
	a := domainagent.New(name, email, skills)

	created, err := s.repo.Create(ctx, a)
	if err != nil {
		return domainagent.Agent{}, fmt.Errorf("register agent: %w", err)
	}

	if err := s.bus.Publish(ctx, event.New(event.TypeAgentRegistered, created.ID)); err != nil {
		slog.ErrorContext(ctx, "failed to publish AgentRegistered event", "agent_id", created.ID, "error", err)
	}
	return created, nil
}

func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (domainagent.Agent, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return domainagent.Agent{}, fmt.Errorf("get agent: %w", err)
	}
	return a, nil
}

func (s *Service) List(ctx context.Context, filters domainagent.ListFilters) ([]domainagent.Agent, error) {
	agents, err := s.repo.List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("list agents: %w", err)
	}
	return agents, nil
}

func (s *Service) Activate(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.SetActive(ctx, id, true); err != nil {
		return fmt.Errorf("activate agent: %w", err)
	}
	s.bus.Publish(ctx, event.New(event.TypeAgentActivated, id)) //nolint:errcheck
	return nil
}

func (s *Service) Deactivate(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.SetActive(ctx, id, false); err != nil {
		return fmt.Errorf("deactivate agent: %w", err)
	}
	s.bus.Publish(ctx, event.New(event.TypeAgentDeactivated, id)) //nolint:errcheck
	return nil
}
