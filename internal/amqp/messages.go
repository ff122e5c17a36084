package amqp

import (
	"encoding/json"
	"time"
)

// TransactionSyncMessage is a lightweight message for syncing one journal row
// to the spreadsheet. It carries only the row ID; the worker fetches the full
// transaction from the database.
type TransactionSyncMessage struct {
	ID        int64     `json:"id"`
	Timestamp time.Time `json:"timestamp"`
}

// NewTransactionSyncMessage creates a new sync message for a journal row.
func NewTransactionSyncMessage(id int64) *TransactionSyncMessage {
	return &TransactionSyncMessage{
		ID:        id,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes.
func (m *TransactionSyncMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// TransactionSyncMessageFromJSON creates a message from JSON bytes.
func TransactionSyncMessageFromJSON(data []byte) (*TransactionSyncMessage, error) {
	var msg TransactionSyncMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
