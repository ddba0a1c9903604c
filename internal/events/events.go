package events

import (
	"context"
	"encoding/json"
	"time"
)

// Event types published on the hub.
const (
	TypeLeadsAdded     = "leads_added"
	TypeSearchStarted  = "search_started"
	TypeSearchFinished = "search_finished"
	TypePing           = "ping"
)

// Version of the event envelope.
const Version = 1

type Event struct {
	Type      string          `json:"type"`
	Version   int             `json:"v"`
	At        time.Time       `json:"at"`
	RequestID string          `json:"request_id,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
}

type LeadsAdded struct {
	Query string `json:"query"`
	Count int    `json:"count"`
}

type SearchFinished struct {
	Query  string `json:"query"`
	Found  int    `json:"found"`
	Added  int    `json:"added"`
	TookMS int64  `json:"took_ms"`
	Error  string `json:"error,omitempty"`
}

// MakeEvent encodes an envelope for the SSE stream.
func MakeEvent(reqID, typ string, data any) string {
	var raw json.RawMessage
	if data != nil {
		b, _ := json.Marshal(data)
		raw = b
	}
	e := Event{
		Type:      typ,
		Version:   Version,
		At:        time.Now().UTC(),
		RequestID: reqID,
		Data:      raw,
	}
	b, _ := json.Marshal(e)
	return string(b)
}

type ctxKey struct{}

// WithRequestID tags ctx so events emitted while serving it carry id.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}
