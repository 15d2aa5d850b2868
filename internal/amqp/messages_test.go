package amqp

import (
	"testing"
	"time"
)

func TestLedgerEventRoundTrip(t *testing.T) {
	e := NewTransactionDeleted(42, 7)
	body, err := e.ToJSON()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	got, err := LedgerEventFromJSON(body)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.Kind != KindTransactionDeleted {
		t.Errorf("kind = %s, want %s", got.Kind, KindTransactionDeleted)
	}
	if got.TransactionID != 42 || got.UserID != 7 {
		t.Errorf("ids = %d/%d, want 42/7", got.TransactionID, got.UserID)
	}
	if got.Timestamp.IsZero() || time.Since(got.Timestamp) > time.Minute {
		t.Errorf("timestamp %v not recent", got.Timestamp)
	}
}

func TestLedgerEventConstructors(t *testing.T) {
	if e := NewTransactionCreated(1); e.Kind != KindTransactionCreated || e.TransactionID != 1 {
		t.Errorf("created event = %+v", e)
	}
	if e := NewUserDeleted(9); e.Kind != KindUserDeleted || e.UserID != 9 {
		t.Errorf("user deleted event = %+v", e)
	}
}

func TestLedgerEventFromInvalidJSON(t *testing.T) {
	if _, err := LedgerEventFromJSON([]byte("{not json")); err == nil {
		t.Fatal("expected error for malformed payload")
	}
}
