package amqp

import (
	"encoding/json"
	"time"
)

// Event kinds carried on the ledger events queue.
const (
	KindTransactionCreated = "transaction.created"
	KindTransactionDeleted = "transaction.deleted"
	KindUserDeleted        = "user.deleted"
)

// LedgerEvent is the message published for every mutating ledger
// operation. It is deliberately thin: the worker fetches the full
// record from storage by id when it needs one, so stale payloads can
// never overwrite fresher data.
type LedgerEvent struct {
	Kind          string    `json:"kind"`
	TransactionID int64     `json:"transactionId,omitempty"`
	UserID        int64     `json:"userId,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

func NewTransactionCreated(transactionID int64) *LedgerEvent {
	return &LedgerEvent{
		Kind:          KindTransactionCreated,
		TransactionID: transactionID,
		Timestamp:     time.Now(),
	}
}

func NewTransactionDeleted(transactionID, userID int64) *LedgerEvent {
	return &LedgerEvent{
		Kind:          KindTransactionDeleted,
		TransactionID: transactionID,
		UserID:        userID,
		Timestamp:     time.Now(),
	}
}

func NewUserDeleted(userID int64) *LedgerEvent {
	return &LedgerEvent{
		Kind:      KindUserDeleted,
		UserID:    userID,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the event to JSON bytes
func (e *LedgerEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// LedgerEventFromJSON creates an event from JSON bytes
func LedgerEventFromJSON(data []byte) (*LedgerEvent, error) {
	var e LedgerEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	return &e, nil
}
