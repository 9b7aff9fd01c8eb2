package broker

import (
	"encoding/json"
	"time"
)

// ChangeMessage is the body published for every transaction mutation.
type ChangeMessage struct {
	Action     string    `json:"action"`
	UserID     string    `json:"userId"`
	Payload    any       `json:"payload"`
	OccurredAt time.Time `json:"occurredAt"`
}

func NewChangeMessage(ownerID, action string, payload any, at time.Time) ChangeMessage {
	return ChangeMessage{Action: action, UserID: ownerID, Payload: payload, OccurredAt: at.UTC()}
}

func (m ChangeMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}
