package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/sanchitsehgal8/SupportPilot/internal/adapter/memory"
	domainagent "github.com/sanchitsehgal8/SupportPilot/internal/domain/agent"
	domainassign "github.com/sanchitsehgal8/SupportPilot/internal/domain/assignment"
	domainticket "github.com/sanchitsehgal8/SupportPilot/internal/domain/ticket"
	portagent "github.com/sanchitsehgal8/SupportPilot/internal/port/agent"
	portoracle "github.com/sanchitsehgal8/SupportPilot/internal/port/oracle"
	portticket "github.com/sanchitsehgal8/SupportPilot/internal/port/ticket"
)

// dashboardTTL bounds staleness of the cached dashboard read model.
const dashboardTTL = 30 * time.Second

const dashboardCacheKey = "analytics:dashboard"

// DashboardStats is the aggregate ticket view served to the admin dashboard.
type DashboardStats struct {
	Total      int                         `json:"total"`
	ByStatus   map[domainticket.Status]int `json:"by_status"`
	ComputedAt time.Time                   `json:"computed_at"`
}

// AgentPerformance pairs a roster entry with its live metrics snapshot.
type AgentPerformance struct {
	Agent   domainagent.Agent            `json:"agent"`
	Metrics domainassign.MetricsSnapshot `json:"metrics"`
}

// Service serves analytics read models. It reuses the assignment engine's
// metrics oracle so dashboards and scoring always agree on the numbers.
type Service struct {
	tickets portticket.Repository
	agents  portagent.Repository
	oracle  portoracle.MetricsOracle
	cache   *memory.Cache
}

func NewService(tickets portticket.Repository, agents portagent.Repository, oracle portoracle.MetricsOracle, cache *memory.Cache) *Service {
	return &Service{tickets: tickets, agents: agents, oracle: oracle, cache: cache}
}

func (s *Service) Dashboard(ctx context.Context) (DashboardStats, error) {
	data, err := s.cache.Remember(ctx, dashboardCacheKey, dashboardTTL, func(ctx context.Context) ([]byte, error) {
		counts, err := s.tickets.CountByStatus(ctx)
		if err != nil {
			return nil, fmt.Errorf("count tickets by status: %w", err)
		}
		total := 0
		for _, n := range counts {
			total += n
		}
		return json.Marshal(DashboardStats{
			Total:      total,
			ByStatus:   counts,
			ComputedAt: time.Now().UTC(),
		})
	})
	if err != nil {
		return DashboardStats{}, err
	}

	var stats DashboardStats
	if err := json.Unmarshal(data, &stats); err != nil {
		return DashboardStats{}, fmt.Errorf("decode cached dashboard stats: %w", err)
	}
	return stats, nil
}

func (s *Service) AgentPerformance(ctx context.Context, agentID uuid.UUID) (AgentPerformance, error) {
	a, err := s.agents.GetByID(ctx, agentID)
	if err != nil {
		return AgentPerformance{}, fmt.Errorf("get agent: %w", err)
	}

	metrics, err := s.oracle.GetMetrics(ctx, []uuid.UUID{agentID})
	if err != nil {
		return AgentPerformance{}, fmt.Errorf("get agent metrics: %w", err)
	}
	m, ok := metrics[agentID]
	if !ok {
		return AgentPerformance{}, fmt.Errorf("no metrics for agent %s", agentID)
	}
	return AgentPerformance{Agent: a, Metrics: m}, nil
}

func (s *Service) AllAgentsPerformance(ctx context.Context) ([]AgentPerformance, error) {
	active := true
	agents, err := s.agents.List(ctx, domainagent.ListFilters{Active: &active})
	if err != nil {
		return nil, fmt.Errorf("list agents: %w", err)
	}
	if len(agents) == 0 {
		return []AgentPerformance{}, nil
	}

	ids := make([]uuid.UUID, len(agents))
	for i, a := range agents {
		ids[i] = a.ID
	}
	metrics, err := s.oracle.GetMetrics(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("get agent metrics: %w", err)
	}

	out := make([]AgentPerformance, 0, len(agents))
	for _, a := range agents {
		if m, ok := metrics[a.ID]; ok {
			out = append(out, AgentPerformance{Agent: a, Metrics: m})
		}
	}
	return out, nil
}
