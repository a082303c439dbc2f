package ingest

import (
	"sync"
	"time"

	"gopkg.in/guregu/null.v4"
)

type HealthStatus string

const (
	StatusHealthy  HealthStatus = "healthy"
	StatusDegraded HealthStatus = "degraded"
	StatusFailed   HealthStatus = "failed"
)

// Health is the JSON view of a consumer's health reported on /health.
type Health struct {
	Source          string       `json:"source"`
	Status          HealthStatus `json:"status"`
	ReceiveFailures int          `json:"receiveFailures"`
	Rejected        int          `json:"rejected"`
	Applied         int64        `json:"applied"`
	LastError       string       `json:"lastError,omitempty"`
	LastMessageAt   null.Time    `json:"lastMessageAt"`
}

// sourceHealth tracks consecutive failures for the queue. Receive errors
// mark the source failed once they reach the threshold; consecutive
// rejected messages mark it degraded.
type sourceHealth struct {
	mu              sync.Mutex
	receiveFailures int
	lastReceiveErr  string
	lastReceiveFail time.Time
	rejected        int
	lastRejectErr   string
	lastRejectFail  time.Time
	applied         int64
	lastMessageAt   null.Time
}

func newSourceHealth() *sourceHealth {
	return &sourceHealth{}
}

func (h *sourceHealth) recordReceiveSuccess() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.receiveFailures = 0
	h.lastReceiveErr = ""
}

func (h *sourceHealth) recordReceiveFailure(err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.receiveFailures++
	h.lastReceiveErr = err.Error()
	h.lastReceiveFail = time.Now()
}

func (h *sourceHealth) recordApplied() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.rejected = 0
	h.applied++
	h.lastMessageAt = null.TimeFrom(time.Now())
}

func (h *sourceHealth) recordRejected(err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.rejected++
	h.lastRejectErr = err.Error()
	h.lastRejectFail = time.Now()
	h.lastMessageAt = null.TimeFrom(h.lastRejectFail)
}

// statusLocked computes health status. Caller must hold h.mu.
func (h *sourceHealth) statusLocked(threshold int) HealthStatus {
	if h.receiveFailures >= threshold {
		return StatusFailed
	}
	if h.rejected >= threshold {
		return StatusDegraded
	}
	return StatusHealthy
}

func (h *sourceHealth) status(threshold int) HealthStatus {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.statusLocked(threshold)
}

// lastErrorLocked prefers whichever error happened more recently. Caller
// must hold h.mu.
func (h *sourceHealth) lastErrorLocked() string {
	if h.lastReceiveErr != "" && (h.lastRejectErr == "" || h.lastReceiveFail.After(h.lastRejectFail)) {
		return h.lastReceiveErr
	}
	return h.lastRejectErr
}

func (h *sourceHealth) snapshot(source string, threshold int) Health {
	h.mu.Lock()
	defer h.mu.Unlock()
	return Health{
		Source:          source,
		Status:          h.statusLocked(threshold),
		ReceiveFailures: h.receiveFailures,
		Rejected:        h.rejected,
		Applied:         h.applied,
		LastError:       h.lastErrorLocked(),
		LastMessageAt:   h.lastMessageAt,
	}
}
