package event

import (
	"time"

	"github.com/google/uuid"
)

type Type string

const (
	TypeTicketCreated    Type = "ticket_created"
	TypeTicketUpdated    Type = "ticket_updated"
	TypeTicketAssigned   Type = "ticket_assigned"
	TypeTicketResolved   Type = "ticket_resolved"
	TypeTicketCommented  Type = "ticket_commented"
	TypeAgentRegistered  Type = "agent_registered"
	TypeAgentActivated   Type = "agent_activated"
	TypeAgentDeactivated Type = "agent_deactivated"
)

// Channel is a domain-scoped Postgres NOTIFY channel.
// All event types within a domain share one LISTEN connection.
type Channel string

const (
	ChannelTicket Channel = "ticket"
	ChannelAgent  Channel = "agent"
)

var typeToChannel = map[Type]Channel{
	TypeTicketCreated:    ChannelTicket,
	TypeTicketUpdated:    ChannelTicket,
	TypeTicketAssigned:   ChannelTicket,
	TypeTicketResolved:   ChannelTicket,
	TypeTicketCommented:  ChannelTicket,
	TypeAgentRegistered:  ChannelAgent,
	TypeAgentActivated:   ChannelAgent,
	TypeAgentDeactivated: ChannelAgent,
}

// ChannelFor returns the domain channel for a given event type.
func ChannelFor(t Type) Channel { return typeToChannel[t] }

// Event carries identifiers only, not full state.
// Subscribers fetch fresh state from the appropriate repository.
type Event struct {
	Type      Type      `json:"type"`
	EntityID  uuid.UUID `json:"entity_id"`
	Timestamp time.Time `json:"timestamp"`
}

func New(eventType Type, entityID uuid.UUID) Event {
	return Event{
		Type:      eventType,
		EntityID:  entityID,
		Timestamp: time.Now().UTC(),
	}
}
