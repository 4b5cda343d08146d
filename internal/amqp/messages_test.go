package amqp

import (
	"testing"
	"time"
)

func TestNewTransactionRecordedMessage(t *testing.T) {
	msg := NewTransactionRecordedMessage(42)

	if msg.ID != 42 {
		t.Errorf("ID = %d, want 42", msg.ID)
	}
	if msg.Timestamp.IsZero() {
		t.Error("Timestamp should not be zero")
	}
}

func TestTransactionRecordedMessage_JSON(t *testing.T) {
	msg := &TransactionRecordedMessage{
		ID:        12345,
		Timestamp: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
	}

	body, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON: %v", err)
	}

	parsed, err := TransactionRecordedMessageFromJSON(body)
	if err != nil {
		t.Fatalf("FromJSON: %v", err)
	}
	if parsed.ID != msg.ID {
		t.Errorf("ID = %d, want %d", parsed.ID, msg.ID)
	}
	if !parsed.Timestamp.Equal(msg.Timestamp) {
		t.Errorf("Timestamp = %v, want %v", parsed.Timestamp, msg.Timestamp)
	}
}

func TestTransactionRecordedMessage_InvalidJSON(t *testing.T) {
	if _, err := TransactionRecordedMessageFromJSON([]byte(`{"id": "nope"}`)); err == nil {
		t.Error("expected error for invalid JSON")
	}
}
