package websocket

import "encoding/json"

// Message defines the structure for websocket messages.
type Message struct {
	Action  string `json:"action"`
	Payload any    `json:"payload"`
}

// NewMessage encodes a message ready to be written to a client.
func NewMessage(action string, payload any) ([]byte, error) {
	return json.Marshal(Message{Action: action, Payload: payload})
}

// NewErrorMessage builds an "error" message. Encoding a string map cannot fail.
func NewErrorMessage(text string) []byte {
	data, _ := NewMessage("error", map[string]string{"message": text})
	return data
}
