package assignment_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/sanchitsehgal8/SupportPilot/internal/config"
	domainagent "github.com/sanchitsehgal8/SupportPilot/internal/domain/agent"
	domainassign "github.com/sanchitsehgal8/SupportPilot/internal/domain/assignment"
	domainticket "github.com/sanchitsehgal8/SupportPilot/internal/domain/ticket"
	"github.com/sanchitsehgal8/SupportPilot/internal/mocks"
	portdirectory "github.com/sanchitsehgal8/SupportPilot/internal/port/directory"
	portticket "github.com/sanchitsehgal8/SupportPilot/internal/port/ticket"
	assignsvc "github.com/sanchitsehgal8/SupportPilot/internal/service/assignment"
)

// ── helpers ───────────────────────────────────────────────────────────────────

type coordMocks struct {
	directory *mocks.MockAgentDirectory
	oracle    *mocks.MockMetricsOracle
	tickets   *mocks.MockTicketRepository
	bus       *mocks.MockEventBus
	locker    *mocks.MockAdvisoryLocker
}

func newCoordinator(t *testing.T, mutate func(*config.EngineConfig)) (*assignsvc.Coordinator, coordMocks) {
	t.Helper()
	ctrl := gomock.NewController(t)
	m := coordMocks{
		directory: mocks.NewMockAgentDirectory(ctrl),
		oracle:    mocks.NewMockMetricsOracle(ctrl),
		tickets:   mocks.NewMockTicketRepository(ctrl),
		bus:       mocks.NewMockEventBus(ctrl),
		locker:    mocks.NewMockAdvisoryLocker(ctrl),
	}
	cfg := config.Default().Engine
	cfg.RetryBackoff = time.Millisecond
	if mutate != nil {
		mutate(&cfg)
	}
	coord := assignsvc.NewCoordinator(m.directory, m.oracle, m.tickets, m.bus, m.locker, cfg)
	return coord, m
}

func openTicket(priority domainticket.Priority) domainticket.Ticket {
	return domainticket.Ticket{
		ID:         uuid.New(),
		CustomerID: uuid.New(),
		Title:      "printer on fire",
		Priority:   priority,
		Status:     domainticket.StatusOpen,
	}
}

func roster(n int) []domainagent.Agent {
	agents := make([]domainagent.Agent, n)
	for i := range agents {
		agents[i] = domainagent.Agent{ID: uuid.New(), Active: true}
	}
	return agents
}

func metricsFor(agents []domainagent.Agent, open []int, perf []float64) map[uuid.UUID]domainassign.MetricsSnapshot {
	out := make(map[uuid.UUID]domainassign.MetricsSnapshot, len(agents))
	for i, a := range agents {
		out[a.ID] = domainassign.MetricsSnapshot{
			AgentID:          a.ID,
			OpenTickets:      open[i],
			PerformanceScore: perf[i],
		}
	}
	return out
}

// ── Assign ────────────────────────────────────────────────────────────────────

func TestAssignPicksBestAndCommits(t *testing.T) {
	coord, m := newCoordinator(t, nil)
	tk := openTicket(domainticket.PriorityMedium)
	agents := roster(2)
	metrics := metricsFor(agents, []int{0, 2}, []float64{0.6, 0.9})

	m.tickets.EXPECT().GetByID(gomock.Any(), tk.ID).Return(tk, nil)
	m.directory.EXPECT().ListEligibleAgents(gomock.Any(), gomock.Any()).Return(agents, nil)
	m.oracle.EXPECT().GetMetrics(gomock.Any(), gomock.Any()).Return(metrics, nil)

	var committed domainassign.Decision
	m.tickets.EXPECT().
		CommitAssignment(gomock.Any(), gomock.Any(), nil, 5).
		DoAndReturn(func(_ context.Context, dec domainassign.Decision, _ *uuid.UUID, _ int) error {
			committed = dec
			return nil
		})
	m.bus.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(nil)

	dec, err := coord.Assign(context.Background(), tk.ID)
	require.NoError(t, err)
	// Medium priority weights capacity: the idle agent wins.
	assert.Equal(t, agents[0].ID, dec.AgentID)
	assert.Equal(t, 1, dec.Attempts)
	assert.False(t, dec.Degraded)
	assert.Equal(t, committed.AgentID, dec.AgentID)
}

func TestAssignUrgentPrefersProvenAgent(t *testing.T) {
	coord, m := newCoordinator(t, nil)
	tk := openTicket(domainticket.PriorityUrgent)
	agents := roster(2)
	metrics := metricsFor(agents, []int{0, 2}, []float64{0.6, 0.9})

	m.tickets.EXPECT().GetByID(gomock.Any(), tk.ID).Return(tk, nil)
	m.directory.EXPECT().ListEligibleAgents(gomock.Any(), gomock.Any()).Return(agents, nil)
	m.oracle.EXPECT().GetMetrics(gomock.Any(), gomock.Any()).Return(metrics, nil)
	m.tickets.EXPECT().CommitAssignment(gomock.Any(), gomock.Any(), nil, 5).Return(nil)
	m.bus.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(nil)

	dec, err := coord.Assign(context.Background(), tk.ID)
	require.NoError(t, err)
	assert.Equal(t, agents[1].ID, dec.AgentID)
}

func TestAssignIdempotentReturnsStoredDecision(t *testing.T) {
	coord, m := newCoordinator(t, nil)
	tk := openTicket(domainticket.PriorityMedium)
	agentID := uuid.New()
	tk.AssignedAgentID = &agentID
	tk.Status = domainticket.StatusInProgress

	stored := domainassign.Decision{TicketID: tk.ID, AgentID: agentID, Score: 0.7, Attempts: 1}
	m.tickets.EXPECT().GetByID(gomock.Any(), tk.ID).Return(tk, nil)
	m.tickets.EXPECT().GetDecision(gomock.Any(), tk.ID).Return(stored, nil)

	dec, err := coord.Assign(context.Background(), tk.ID)
	require.NoError(t, err)
	assert.Equal(t, stored, dec)
}

func TestAssignAssignedWithoutDecisionRow(t *testing.T) {
	// Assigned outside the engine (seeded data): reflect the row as a manual decision.
	coord, m := newCoordinator(t, nil)
	tk := openTicket(domainticket.PriorityMedium)
	agentID := uuid.New()
	tk.AssignedAgentID = &agentID
	tk.Status = domainticket.StatusInProgress
	tk.UpdatedAt = time.Now().UTC()

	m.tickets.EXPECT().GetByID(gomock.Any(), tk.ID).Return(tk, nil)
	m.tickets.EXPECT().GetDecision(gomock.Any(), tk.ID).Return(domainassign.Decision{}, portticket.ErrNoDecision)

	dec, err := coord.Assign(context.Background(), tk.ID)
	require.NoError(t, err)
	assert.Equal(t, agentID, dec.AgentID)
	assert.True(t, dec.Manual)
	assert.Equal(t, tk.UpdatedAt, dec.DecidedAt)
}

func TestAssignRejectsNonOpenTicket(t *testing.T) {
	coord, m := newCoordinator(t, nil)
	tk := openTicket(domainticket.PriorityMedium)
	tk.Status = domainticket.StatusResolved

	m.tickets.EXPECT().GetByID(gomock.Any(), tk.ID).Return(tk, nil)

	_, err := coord.Assign(context.Background(), tk.ID)
	assert.ErrorIs(t, err, assignsvc.ErrNotAssignable)
}

func TestAssignDegradedOnOracleFailure(t *testing.T) {
	coord, m := newCoordinator(t, nil)
	tk := openTicket(domainticket.PriorityHigh)
	agents := roster(3)

	m.tickets.EXPECT().GetByID(gomock.Any(), tk.ID).Return(tk, nil)
	m.directory.EXPECT().ListEligibleAgents(gomock.Any(), gomock.Any()).Return(agents, nil)
	m.oracle.EXPECT().GetMetrics(gomock.Any(), gomock.Any()).Return(nil, errors.New("analytics store down"))
	m.tickets.EXPECT().CommitAssignment(gomock.Any(), gomock.Any(), nil, 5).Return(nil)
	m.bus.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(nil)

	dec, err := coord.Assign(context.Background(), tk.ID)
	require.NoError(t, err)
	assert.True(t, dec.Degraded)
	// Identical zero snapshots — directory order decides.
	assert.Equal(t, agents[0].ID, dec.AgentID)
}

func TestAssignOmittedMetricsScoredWorstCase(t *testing.T) {
	coord, m := newCoordinator(t, nil)
	tk := openTicket(domainticket.PriorityMedium)
	agents := roster(2)
	// Only the second agent has a snapshot; the first is scored as if nearly capped.
	metrics := map[uuid.UUID]domainassign.MetricsSnapshot{
		agents[1].ID: {AgentID: agents[1].ID, OpenTickets: 3, PerformanceScore: 0.4},
	}

	m.tickets.EXPECT().GetByID(gomock.Any(), tk.ID).Return(tk, nil)
	m.directory.EXPECT().ListEligibleAgents(gomock.Any(), gomock.Any()).Return(agents, nil)
	m.oracle.EXPECT().GetMetrics(gomock.Any(), gomock.Any()).Return(metrics, nil)
	m.tickets.EXPECT().CommitAssignment(gomock.Any(), gomock.Any(), nil, 5).Return(nil)
	m.bus.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(nil)

	dec, err := coord.Assign(context.Background(), tk.ID)
	require.NoError(t, err)
	assert.Equal(t, agents[1].ID, dec.AgentID)
	assert.False(t, dec.Degraded)
}

func TestAssignCommitConflictExcludesAndRetries(t *testing.T) {
	coord, m := newCoordinator(t, nil)
	tk := openTicket(domainticket.PriorityMedium)
	agents := roster(2)
	metrics := metricsFor(agents, []int{0, 1}, []float64{0.5, 0.5})

	m.tickets.EXPECT().GetByID(gomock.Any(), tk.ID).Return(tk, nil)
	m.directory.EXPECT().ListEligibleAgents(gomock.Any(), gomock.Any()).Return(agents, nil)
	m.oracle.EXPECT().GetMetrics(gomock.Any(), gomock.Any()).Return(metrics, nil).Times(2)

	// First commit loses the capacity race; second attempt must pick the other agent.
	first := m.tickets.EXPECT().
		CommitAssignment(gomock.Any(), gomock.Any(), nil, 5).
		Return(portticket.ErrCommitConflict)
	var committed domainassign.Decision
	m.tickets.EXPECT().
		CommitAssignment(gomock.Any(), gomock.Any(), nil, 5).
		After(first).
		DoAndReturn(func(_ context.Context, dec domainassign.Decision, _ *uuid.UUID, _ int) error {
			committed = dec
			return nil
		})
	m.bus.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(nil)

	dec, err := coord.Assign(context.Background(), tk.ID)
	require.NoError(t, err)
	assert.Equal(t, agents[1].ID, dec.AgentID)
	assert.Equal(t, 2, dec.Attempts)
	assert.Equal(t, committed.AgentID, dec.AgentID)
}

func TestAssignRetriesExhausted(t *testing.T) {
	coord, m := newCoordinator(t, nil)
	tk := openTicket(domainticket.PriorityMedium)
	agents := roster(4)
	metrics := metricsFor(agents, []int{0, 0, 0, 0}, []float64{0.9, 0.8, 0.7, 0.6})

	m.tickets.EXPECT().GetByID(gomock.Any(), tk.ID).Return(tk, nil)
	m.directory.EXPECT().ListEligibleAgents(gomock.Any(), gomock.Any()).Return(agents, nil)
	m.oracle.EXPECT().GetMetrics(gomock.Any(), gomock.Any()).Return(metrics, nil).Times(3)
	m.tickets.EXPECT().
		CommitAssignment(gomock.Any(), gomock.Any(), nil, 5).
		Return(portticket.ErrCommitConflict).
		Times(3)

	_, err := coord.Assign(context.Background(), tk.ID)
	assert.ErrorIs(t, err, assignsvc.ErrUnassignable)
}

func TestAssignTicketConflictReturnsWinningDecision(t *testing.T) {
	coord, m := newCoordinator(t, nil)
	tk := openTicket(domainticket.PriorityMedium)
	agents := roster(1)
	metrics := metricsFor(agents, []int{0}, []float64{0.5})
	winner := domainassign.Decision{TicketID: tk.ID, AgentID: uuid.New(), Attempts: 1}

	m.tickets.EXPECT().GetByID(gomock.Any(), tk.ID).Return(tk, nil)
	m.directory.EXPECT().ListEligibleAgents(gomock.Any(), gomock.Any()).Return(agents, nil)
	m.oracle.EXPECT().GetMetrics(gomock.Any(), gomock.Any()).Return(metrics, nil)
	m.tickets.EXPECT().CommitAssignment(gomock.Any(), gomock.Any(), nil, 5).Return(portticket.ErrTicketConflict)
	m.tickets.EXPECT().GetDecision(gomock.Any(), tk.ID).Return(winner, nil)

	dec, err := coord.Assign(context.Background(), tk.ID)
	require.NoError(t, err)
	assert.Equal(t, winner, dec)
}

func TestAssignDirectoryUnavailable(t *testing.T) {
	coord, m := newCoordinator(t, func(cfg *config.EngineConfig) {
		cfg.DirectoryRetries = 2
	})
	tk := openTicket(domainticket.PriorityMedium)

	m.tickets.EXPECT().GetByID(gomock.Any(), tk.ID).Return(tk, nil)
	m.directory.EXPECT().
		ListEligibleAgents(gomock.Any(), gomock.Any()).
		Return(nil, errors.New("connection refused")).
		Times(2)

	_, err := coord.Assign(context.Background(), tk.ID)
	assert.ErrorIs(t, err, portdirectory.ErrUnavailable)
}

func TestAssignNoEligibleAgent(t *testing.T) {
	coord, m := newCoordinator(t, nil)
	tk := openTicket(domainticket.PriorityMedium)

	m.tickets.EXPECT().GetByID(gomock.Any(), tk.ID).Return(tk, nil)
	m.directory.EXPECT().ListEligibleAgents(gomock.Any(), gomock.Any()).Return(nil, nil)
	m.oracle.EXPECT().GetMetrics(gomock.Any(), gomock.Any()).Return(map[uuid.UUID]domainassign.MetricsSnapshot{}, nil)

	_, err := coord.Assign(context.Background(), tk.ID)
	assert.ErrorIs(t, err, assignsvc.ErrNoEligibleAgent)
}

// ── Reassign ──────────────────────────────────────────────────────────────────

func TestReassignExcludesCurrentAssignee(t *testing.T) {
	coord, m := newCoordinator(t, nil)
	tk := openTicket(domainticket.PriorityMedium)
	agents := roster(2)
	tk.AssignedAgentID = &agents[0].ID
	tk.Status = domainticket.StatusInProgress
	// The current assignee scores far better, but must still be skipped.
	metrics := metricsFor(agents, []int{0, 3}, []float64{0.9, 0.2})

	m.tickets.EXPECT().GetByID(gomock.Any(), tk.ID).Return(tk, nil)
	m.directory.EXPECT().ListEligibleAgents(gomock.Any(), gomock.Any()).Return(agents, nil)
	m.oracle.EXPECT().GetMetrics(gomock.Any(), gomock.Any()).Return(metrics, nil)

	m.tickets.EXPECT().
		CommitAssignment(gomock.Any(), gomock.Any(), &agents[0].ID, 5).
		DoAndReturn(func(_ context.Context, dec domainassign.Decision, prev *uuid.UUID, _ int) error {
			assert.Equal(t, agents[0].ID, *prev)
			return nil
		})
	m.bus.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(nil)

	dec, err := coord.Reassign(context.Background(), tk.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, agents[1].ID, dec.AgentID)
}

func TestReassignHonoursCallerExclusions(t *testing.T) {
	coord, m := newCoordinator(t, nil)
	tk := openTicket(domainticket.PriorityMedium)
	agents := roster(3)
	metrics := metricsFor(agents, []int{0, 0, 2}, []float64{0.9, 0.8, 0.1})

	m.tickets.EXPECT().GetByID(gomock.Any(), tk.ID).Return(tk, nil)
	m.directory.EXPECT().ListEligibleAgents(gomock.Any(), gomock.Any()).Return(agents, nil)
	m.oracle.EXPECT().GetMetrics(gomock.Any(), gomock.Any()).Return(metrics, nil)
	m.tickets.EXPECT().CommitAssignment(gomock.Any(), gomock.Any(), nil, 5).Return(nil)
	m.bus.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(nil)

	dec, err := coord.Reassign(context.Background(), tk.ID, []uuid.UUID{agents[0].ID, agents[1].ID})
	require.NoError(t, err)
	assert.Equal(t, agents[2].ID, dec.AgentID)
}

func TestReassignRejectsTerminalTicket(t *testing.T) {
	coord, m := newCoordinator(t, nil)
	tk := openTicket(domainticket.PriorityMedium)
	tk.Status = domainticket.StatusClosed

	m.tickets.EXPECT().GetByID(gomock.Any(), tk.ID).Return(tk, nil)

	_, err := coord.Reassign(context.Background(), tk.ID, nil)
	assert.ErrorIs(t, err, assignsvc.ErrNotAssignable)
}

// ── ManualAssign / Unassign ───────────────────────────────────────────────────

func TestManualAssign(t *testing.T) {
	tests := []struct {
		name      string
		commitErr error
		wantErr   error
	}{
		{name: "success records manual decision"},
		{name: "capacity conflict surfaces", commitErr: portticket.ErrCommitConflict, wantErr: portticket.ErrCommitConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			coord, m := newCoordinator(t, nil)
			tk := openTicket(domainticket.PriorityMedium)
			agentID := uuid.New()

			m.tickets.EXPECT().GetByID(gomock.Any(), tk.ID).Return(tk, nil)
			m.tickets.EXPECT().
				CommitAssignment(gomock.Any(), gomock.Any(), nil, 5).
				Return(tt.commitErr)
			if tt.commitErr == nil {
				m.bus.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(nil)
			}

			dec, err := coord.ManualAssign(context.Background(), tk.ID, agentID)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, agentID, dec.AgentID)
			assert.True(t, dec.Manual)
			assert.Zero(t, dec.Score)
		})
	}
}

func TestUnassign(t *testing.T) {
	coord, m := newCoordinator(t, nil)
	ticketID := uuid.New()

	m.tickets.EXPECT().ClearAssignment(gomock.Any(), ticketID).Return(nil)
	m.bus.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(nil)

	require.NoError(t, coord.Unassign(context.Background(), ticketID))
}

// ── SweepQueued ───────────────────────────────────────────────────────────────

func TestSweepQueuedAssignsOldestFirst(t *testing.T) {
	coord, m := newCoordinator(t, func(cfg *config.EngineConfig) {
		cfg.SweepParallelism = 1
	})
	agents := roster(1)
	queued := []domainticket.Ticket{openTicket(domainticket.PriorityMedium), openTicket(domainticket.PriorityLow)}

	m.locker.EXPECT().
		WithLock(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, _ int64, fn func(context.Context) error) error {
			return fn(ctx)
		})
	m.tickets.EXPECT().
		List(gomock.Any(), domainticket.ListFilters{
			Status:      statusPtr(domainticket.StatusOpen),
			Unassigned:  true,
			OldestFirst: true,
		}).
		Return(queued, nil)

	for _, tk := range queued {
		m.tickets.EXPECT().GetByID(gomock.Any(), tk.ID).Return(tk, nil)
	}
	m.directory.EXPECT().ListEligibleAgents(gomock.Any(), gomock.Any()).Return(agents, nil).Times(2)
	m.oracle.EXPECT().
		GetMetrics(gomock.Any(), gomock.Any()).
		Return(metricsFor(agents, []int{0}, []float64{0.5}), nil).
		Times(2)
	m.tickets.EXPECT().CommitAssignment(gomock.Any(), gomock.Any(), nil, 5).Return(nil).Times(2)
	m.bus.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(nil).Times(2)

	require.NoError(t, coord.SweepQueued(context.Background()))
}

func TestSweepQueuedListError(t *testing.T) {
	coord, m := newCoordinator(t, nil)

	m.locker.EXPECT().
		WithLock(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, _ int64, fn func(context.Context) error) error {
			return fn(ctx)
		})
	m.tickets.EXPECT().List(gomock.Any(), gomock.Any()).Return(nil, errors.New("db error"))

	err := coord.SweepQueued(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "list queued tickets")
}

func statusPtr(s domainticket.Status) *domainticket.Status { return &s }
