package amqp

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// MessageVersion is bumped when LedgerChangedMessage changes shape.
const MessageVersion = 1

// LedgerChangedMessage announces that an owner's entries changed in some
// periods. It carries no entries: consumers reload what they need from the store.
type LedgerChangedMessage struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"ownerId"`
	Periods   []string  `json:"periods"`
	Entries   int       `json:"entries"`
	Source    string    `json:"source"`
	Version   int64     `json:"version"`
	Timestamp time.Time `json:"timestamp"`
}

func NewLedgerChangedMessage(ownerID string, periods []string, entries int, source string) *LedgerChangedMessage {
	return &LedgerChangedMessage{
		ID:        uuid.NewString(),
		OwnerID:   ownerID,
		Periods:   periods,
		Entries:   entries,
		Source:    source,
		Version:   MessageVersion,
		Timestamp: time.Now().UTC(),
	}
}

func (m *LedgerChangedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func LedgerChangedMessageFromJSON(data []byte) (*LedgerChangedMessage, error) {
	var msg LedgerChangedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
