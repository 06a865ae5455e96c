package sinks

import (
	"strconv"
	"time"

	"github.com/samvad-hq/samvad-http-client/pkg/httpclient"
)

// Event represents the payload shipped downstream for one exchange.
type Event struct {
	ClientID   string               `json:"client_id"`
	Record     httpclient.LogRecord `json:"record"`
	RecordedAt time.Time            `json:"recorded_at"`
}

// NewEvent constructs an Event for the given client + record.
func NewEvent(clientID string, rec httpclient.LogRecord) Event {
	return Event{
		ClientID:   clientID,
		Record:     rec,
		RecordedAt: time.Now().UTC(),
	}
}

// attributes are the routing attributes attached by message-oriented sinks.
func (e Event) attributes() map[string]string {
	return map[string]string{
		"client_id": e.ClientID,
		"method":    e.Record.Method,
		"status":    strconv.Itoa(e.Record.Status),
	}
}
