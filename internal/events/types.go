package events

import (
	"encoding/json"
	"time"
)

// EventType indicates what kind of change occurred
type EventType string

const (
	TicketCreated   EventType = "ticket.created"
	TicketUpdated   EventType = "ticket.updated"
	TicketMoved     EventType = "ticket.moved"
	TicketReordered EventType = "ticket.reordered"
	TicketDeleted   EventType = "ticket.deleted"

	StatusCreated   EventType = "status.created"
	StatusUpdated   EventType = "status.updated"
	StatusMoved     EventType = "status.moved"
	StatusReordered EventType = "status.reordered"
	StatusDeleted   EventType = "status.deleted"

	BoardUpdated EventType = "board.updated"
	BoardDeleted EventType = "board.deleted"

	MemberJoined EventType = "member.joined"
	MemberLeft   EventType = "member.left"
	MemberKicked EventType = "member.kicked"
)

// Event is a change notification for the members of one board.
// Reordered events carry the whole renormalized group so clients can replace
// their copy instead of patching single positions.
type Event struct {
	Type       EventType       `json:"type"`
	BoardID    int             `json:"boardId"`
	ActorID    int             `json:"actorId,omitempty"`
	Timestamp  time.Time       `json:"timestamp"`
	SequenceID int64           `json:"sequenceId"` // Assigned by the hub, monotonically increasing
	Payload    json.RawMessage `json:"payload,omitempty"`
}

// NewEvent builds an event with payload encoded as JSON. A payload that cannot
// be encoded is dropped; the event itself still tells clients what changed.
func NewEvent(typ EventType, boardID, actorID int, payload any) Event {
	e := Event{
		Type:      typ,
		BoardID:   boardID,
		ActorID:   actorID,
		Timestamp: time.Now().UTC(),
	}
	if payload != nil {
		if raw, err := json.Marshal(payload); err == nil {
			e.Payload = raw
		}
	}
	return e
}

// Message wraps events and control messages for the wire protocol
type Message struct {
	Type  string `json:"type"` // "hello", "event"
	Event *Event `json:"event,omitempty"`
	// BoardID is set on hello, confirming the subscription.
	BoardID int `json:"boardId,omitempty"`
}

const (
	MessageHello = "hello"
	MessageEvent = "event"
)

// MemberPayload is the payload of member events.
type MemberPayload struct {
	UserID int `json:"userId"`
}
