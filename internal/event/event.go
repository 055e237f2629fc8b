package event

import (
	"time"

	"github.com/google/uuid"
)

type Type string

const (
	TypeProductCreated Type = "product.created"
	TypeProductUpdated Type = "product.updated"
	TypeProductDeleted Type = "product.deleted"
)

type Event struct {
	ID        string `json:"id"`
	Type      Type   `json:"type"`
	Payload   any    `json:"payload"`
	Timestamp string `json:"timestamp"`
	Actor     string `json:"actor,omitempty"`
}

type Bus interface {
	Publish(e Event)
	Subscribe() (<-chan Event, func())
}

func New(typ Type, payload any, actor string) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      typ,
		Payload:   payload,
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		Actor:     actor,
	}
}
