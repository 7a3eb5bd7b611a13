package ticket

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusOpen       Status = "open"
	StatusInProgress Status = "in_progress"
	StatusResolved   Status = "resolved"
	StatusClosed     Status = "closed"
)

var validTransitions = map[Status][]Status{
	StatusOpen:       {StatusInProgress, StatusClosed},
	StatusInProgress: {StatusResolved, StatusOpen},
	StatusResolved:   {StatusClosed, StatusOpen},
	StatusClosed:     {StatusOpen},
}

func (s Status) CanTransitionTo(target Status) bool {
	for _, allowed := range validTransitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// Terminal reports whether the ticket no longer occupies agent capacity.
func (s Status) Terminal() bool {
	return s == StatusResolved || s == StatusClosed
}

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

type Ticket struct {
	ID              uuid.UUID  `json:"id"`
	CustomerID      uuid.UUID  `json:"customer_id"`
	Title           string     `json:"title"`
	Description     string     `json:"description"`
	Priority        Priority   `json:"priority"`
	Status          Status     `json:"status"`
	RequiredSkills  []string   `json:"required_skills"`
	AssignedAgentID *uuid.UUID `json:"assigned_agent_id,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
	ResolvedAt      *time.Time `json:"resolved_at,omitempty"`
}

func New(customerID uuid.UUID, title, description string, priority Priority, requiredSkills []string) Ticket {
	now := time.Now().UTC()
	if requiredSkills == nil {
		requiredSkills = []string{}
	}
	return Ticket{
		ID:             uuid.New(),
		CustomerID:     customerID,
		Title:          title,
		Description:    description,
		Priority:       priority,
		Status:         StatusOpen,
		RequiredSkills: requiredSkills,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

type ListFilters struct {
	CustomerID  *uuid.UUID
	Status      *Status
	Priority    *Priority
	AssignedTo  *uuid.UUID
	Unassigned  bool // WHERE assigned_agent_id IS NULL
	OldestFirst bool // ORDER BY created_at ASC (default is DESC)
}
