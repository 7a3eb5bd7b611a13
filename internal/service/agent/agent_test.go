package agent_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	domainagent "github.com/sanchitsehgal8/SupportPilot/internal/domain/agent"
	"github.com/sanchitsehgal8/SupportPilot/internal/domain/event"
	"github.com/sanchitsehgal8/SupportPilot/internal/mocks"
	agentsvc "github.com/sanchitsehgal8/SupportPilot/internal/service/agent"
)

// ── helpers ───────────────────────────────────────────────────────────────────

func newAgentSvc(t *testing.T) (*agentsvc.Service, *mocks.MockAgentRepository, *mocks.MockEventBus) {
	t.Helper()
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockAgentRepository(ctrl)
	bus := mocks.NewMockEventBus(ctrl)
	svc := agentsvc.NewService(repo, bus)
	return svc, repo, bus
}

func matchEventType(et event.Type) gomock.Matcher {
	return eventTypeMatcher{et}
}

type eventTypeMatcher struct{ want event.Type }

func (m eventTypeMatcher) Matches(x interface{}) bool {
	e, ok := x.(event.Event)
	return ok && e.Type == m.want
}
func (m eventTypeMatcher) String() string { return "event.Type=" + string(m.want) }

// ── Register ──────────────────────────────────────────────────────────────────

func TestRegister(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(repo *mocks.MockAgentRepository, bus *mocks.MockEventBus) domainagent.Agent
		wantErr bool
		wantMsg string
	}{
		{
			name: "success creates active agent and publishes",
			setup: func(repo *mocks.MockAgentRepository, bus *mocks.MockEventBus) domainagent.Agent {
				expected := domainagent.Agent{ID: uuid.New(), Name: "Dana", Email: "dana@example.com", Active: true}
				repo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(expected, nil)
				bus.EXPECT().Publish(gomock.Any(), matchEventType(event.TypeAgentRegistered)).Return(nil)
				return expected
			},
		},
		{
			name: "repo error",
			setup: func(repo *mocks.MockAgentRepository, bus *mocks.MockEventBus) domainagent.Agent {
				repo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(domainagent.Agent{}, errors.New("db error"))
				return domainagent.Agent{}
			},
			wantErr: true,
			wantMsg: "register agent",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo, bus := newAgentSvc(t)
			expected := tt.setup(repo, bus)

			got, err := svc.Register(context.Background(), "Dana", "dana@example.com", []string{"billing"})
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantMsg)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, expected.ID, got.ID)
			assert.True(t, got.Active)
		})
	}
}

// ── Activate / Deactivate ─────────────────────────────────────────────────────

func TestActivate(t *testing.T) {
	svc, repo, bus := newAgentSvc(t)
	agentID := uuid.New()

	repo.EXPECT().SetActive(gomock.Any(), agentID, true).Return(nil)
	bus.EXPECT().Publish(gomock.Any(), matchEventType(event.TypeAgentActivated)).Return(nil)

	require.NoError(t, svc.Activate(context.Background(), agentID))
}

func TestDeactivate(t *testing.T) {
	svc, repo, bus := newAgentSvc(t)
	agentID := uuid.New()

	repo.EXPECT().SetActive(gomock.Any(), agentID, false).Return(nil)
	bus.EXPECT().Publish(gomock.Any(), matchEventType(event.TypeAgentDeactivated)).Return(nil)

	require.NoError(t, svc.Deactivate(context.Background(), agentID))
}

func TestActivateRepoError(t *testing.T) {
	svc, repo, _ := newAgentSvc(t)
	agentID := uuid.New()

	repo.EXPECT().SetActive(gomock.Any(), agentID, true).Return(errors.New("agent not found"))

	err := svc.Activate(context.Background(), agentID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "activate agent")
}

// ── GetByID / List ────────────────────────────────────────────────────────────

func TestGetByID(t *testing.T) {
	svc, repo, _ := newAgentSvc(t)
	agentID := uuid.New()

	repo.EXPECT().GetByID(gomock.Any(), agentID).Return(domainagent.Agent{ID: agentID}, nil)

	got, err := svc.GetByID(context.Background(), agentID)
	require.NoError(t, err)
	assert.Equal(t, agentID, got.ID)
}

func TestList(t *testing.T) {
	svc, repo, _ := newAgentSvc(t)

	repo.EXPECT().List(gomock.Any(), gomock.Any()).
		Return([]domainagent.Agent{{ID: uuid.New()}, {ID: uuid.New()}}, nil)

	got, err := svc.List(context.Background(), domainagent.ListFilters{})
	require.NoError(t, err)
	assert.Len(t, got, 2)
}
