package kafka

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/splitchain/internal/events"
	"github.com/mmynk/splitchain/internal/money"
)

func TestNewMessage(t *testing.T) {
	at := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	msg, err := newMessage(events.Event{
		Type:       events.TypeTransferSettled,
		GroupID:    "g1",
		OccurredAt: at,
		Payload: events.TransferSettled{
			ExpenseID: "e1", From: "Bob", To: "Alice",
			Amount: money.MustParse("12.50"), Reference: "ref-1",
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "g1", string(msg.Key))
	assert.Equal(t, at, msg.Time)
	require.Len(t, msg.Headers, 1)
	assert.Equal(t, events.TypeTransferSettled, string(msg.Headers[0].Value))

	var decoded struct {
		Type    string `json:"type"`
		Payload struct {
			Amount string `json:"amount"`
			From   string `json:"from"`
		} `json:"payload"`
	}
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, "transfer.settled", decoded.Type)
	assert.Equal(t, "12.50", decoded.Payload.Amount)
	assert.Equal(t, "Bob", decoded.Payload.From)
}

func TestNewPublisher_DefaultTopic(t *testing.T) {
	p := NewPublisher([]string{"localhost:9092"}, "")
	defer p.Close()
	assert.Equal(t, DefaultTopic, p.writer.Topic)
}
