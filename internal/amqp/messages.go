package amqp

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ReloadMessage asks every consuming server to reload its dataset from the
// configured source.
type ReloadMessage struct {
	ID          string    `json:"id"`
	Source      string    `json:"source"`
	Reason      string    `json:"reason,omitempty"`
	RequestedAt time.Time `json:"requested_at"`
}

// NewReloadMessage creates a reload request stamped with a fresh id and the
// current time. source names the sender, e.g. the importer.
func NewReloadMessage(source, reason string) *ReloadMessage {
	return &ReloadMessage{
		ID:          uuid.NewString(),
		Source:      source,
		Reason:      reason,
		RequestedAt: time.Now().UTC(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *ReloadMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ReloadMessageFromJSON decodes a message and checks its required fields.
func ReloadMessageFromJSON(data []byte) (*ReloadMessage, error) {
	var msg ReloadMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.Source == "" {
		return nil, errors.New("reload message without source")
	}
	return &msg, nil
}
