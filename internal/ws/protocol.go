package ws

import (
	"github.com/Cuongtutrinh/smart-parking-server/internal/lot"
)

type MessageType string

const (
	// MsgUpdate carries a full lot snapshot. It is sent on join and after
	// every state change.
	MsgUpdate MessageType = "update"
)

type WSMessage struct {
	Type    MessageType `json:"type"`
	Seq     uint64      `json:"seq"`
	Payload interface{} `json:"payload"`
}

// UpdateRequest is the body accepted by POST /update.
type UpdateRequest = lot.Event

type UpdateResponse struct {
	OK      bool          `json:"ok"`
	State   *lot.Snapshot `json:"state,omitempty"`
	Warning string        `json:"warning,omitempty"`
	Msg     string        `json:"msg,omitempty"`
	Error   string        `json:"error,omitempty"`
}

type HealthResponse struct {
	Status      string      `json:"status"`
	Timestamp   string      `json:"timestamp"`
	Vehicles    int         `json:"vehicles"`
	Available   int         `json:"available"`
	Subscribers int         `json:"subscribers"`
	Uptime      float64     `json:"uptime"`
	Process     interface{} `json:"process,omitempty"`
	Ingest      interface{} `json:"ingest,omitempty"`
}
