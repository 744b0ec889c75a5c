package amqp

import (
	"encoding/json"
	"time"

	"scadenze/internal/core"
)

// BillDueMessage announces that a recurring series is expected to charge on DueDate.
type BillDueMessage struct {
	SeriesID    string         `json:"seriesId"`
	Description string         `json:"description"`
	Category    string         `json:"category,omitempty"`
	Frequency   core.Frequency `json:"frequency"`
	DueDate     core.Date      `json:"dueDate"`
	AmountCents int64          `json:"amountCents"`
	Timestamp   time.Time      `json:"timestamp"`
}

// NewBillDueMessage builds the reminder for one projected occurrence of s.
func NewBillDueMessage(s core.RecurringSeries, due core.Date, now time.Time) *BillDueMessage {
	return &BillDueMessage{
		SeriesID:    s.ID,
		Description: s.Description,
		Category:    s.Category,
		Frequency:   s.Frequency,
		DueDate:     due,
		AmountCents: s.AverageAmount.Abs().Cents,
		Timestamp:   now,
	}
}

// Key identifies the occurrence; it is also the AMQP message id.
func (m *BillDueMessage) Key() string {
	return m.SeriesID + "@" + m.DueDate.String()
}

// ToJSON converts the message to JSON bytes
func (m *BillDueMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// BillDueMessageFromJSON creates a message from JSON bytes
func BillDueMessageFromJSON(data []byte) (*BillDueMessage, error) {
	var msg BillDueMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
