package amqp

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrMissingJobID = errors.New("report request without id")

// ReportRequestMessage asks a worker to generate a GL report. Filters keeps
// the loosely typed option form so the worker parses it exactly like the
// HTTP layer does.
type ReportRequestMessage struct {
	ID          uuid.UUID      `json:"id"`
	Filters     map[string]any `json:"filters"`
	RequestedAt time.Time      `json:"requested_at"`
}

func NewReportRequestMessage(filters map[string]any) *ReportRequestMessage {
	if filters == nil {
		filters = map[string]any{}
	}
	return &ReportRequestMessage{
		ID:          uuid.New(),
		Filters:     filters,
		RequestedAt: time.Now().UTC(),
	}
}

func (m *ReportRequestMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func ReportRequestMessageFromJSON(data []byte) (*ReportRequestMessage, error) {
	var msg ReportRequestMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.ID == uuid.Nil {
		return nil, ErrMissingJobID
	}
	if msg.Filters == nil {
		msg.Filters = map[string]any{}
	}
	return &msg, nil
}
