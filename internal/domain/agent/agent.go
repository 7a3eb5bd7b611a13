package agent

import (
	"time"

	"github.com/google/uuid"
)

// Agent is a support agent eligible to receive tickets. The assignment engine
// only reads identity, the active flag, and skills — roster mutations belong
// to the agent service.
type Agent struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Active    bool      `json:"active"`
	Skills    []string  `json:"skills"`
	CreatedAt time.Time `json:"created_at"`
}

func New(name, email string, skills []string) Agent {
	if skills == nil {
		skills = []string{}
	}
	return Agent{
		ID:        uuid.New(),
		Name:      name,
		Email:     email,
		Active:    true,
		Skills:    skills,
		CreatedAt: time.Now().UTC(),
	}
}

func (a *Agent) HasSkill(skill string) bool {
	for _, s := range a.Skills {
		if s == skill {
			return true
		}
	}
	return false
}

func (a *Agent) MatchesAnySkill(required []string) bool {
	if len(required) == 0 {
		return true
	}
	for _, req := range required {
		if a.HasSkill(req) {
			return true
		}
	}
	return false
}

type ListFilters struct {
	Active *bool
	Skill  *string
}
