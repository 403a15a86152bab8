package jobs

import "github.com/goccy/go-json"

// MessageVersion is the current wire version of Message.
const MessageVersion = 1

// Message asks a worker to index one event history dataset.
type Message struct {
	JobID      string `json:"jobId"`
	Path       string `json:"path"`
	RequestID  string `json:"requestId"`
	EnqueuedAt string `json:"enqueuedAt"`
	Version    int    `json:"version"`
}

// EncodeMessage returns the JSON representation of a message.
func EncodeMessage(msg Message) ([]byte, error) {
	return json.Marshal(msg)
}

// DecodeMessage parses a JSON payload into a Message.
func DecodeMessage(payload []byte) (Message, error) {
	var msg Message
	if err := json.Unmarshal(payload, &msg); err != nil {
		return Message{}, err
	}
	return msg, nil
}
