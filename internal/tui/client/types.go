// Package client provides WebSocket and HTTP clients for the parking server.
package client

import (
	"encoding/json"

	"github.com/Cuongtutrinh/smart-parking-server/internal/lot"
)

// MessageType identifies the kind of WebSocket message.
type MessageType string

const (
	MsgUpdate MessageType = "update"
)

// WSMessage is the envelope for all WebSocket messages. Payload is decoded
// lazily by dispatch.
type WSMessage struct {
	Type    MessageType     `json:"type"`
	Seq     uint64          `json:"seq"`
	Payload json.RawMessage `json:"payload"`
}

// Health mirrors the server's GET /health body. Process and ingest details
// are kept raw since the TUI only shows them verbatim.
type Health struct {
	Status      string          `json:"status"`
	Timestamp   string          `json:"timestamp"`
	Vehicles    int             `json:"vehicles"`
	Available   int             `json:"available"`
	Subscribers int             `json:"subscribers"`
	Uptime      float64         `json:"uptime"`
	Process     json.RawMessage `json:"process,omitempty"`
	Ingest      json.RawMessage `json:"ingest,omitempty"`
}

type resetResponse struct {
	OK  bool   `json:"ok"`
	Msg string `json:"msg"`
}

// StateMsg delivers a snapshot fetched over HTTP.
type StateMsg struct {
	Snapshot lot.Snapshot
	Err      error
}

// HealthMsg delivers the result of GET /health.
type HealthMsg struct {
	Health Health
	Err    error
}

// ResetMsg delivers the result of POST /reset.
type ResetMsg struct {
	Msg string
	Err error
}
