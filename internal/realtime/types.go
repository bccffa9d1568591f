package realtime

import (
	"time"

	"github.com/niyax/cvm/backend/internal/contracts"
)

// EventType is the phase of a step run
type EventType string

const (
	EventStarted   EventType = "started"
	EventCompleted EventType = "completed"
	EventFailed    EventType = "failed"
)

// StepEvent is pushed to every subscriber of a session
// ⭐ SSOT: 실시간 스텝 이벤트 구조
type StepEvent struct {
	SessionID  string         `json:"session_id"`
	Step       contracts.Step `json:"step"`
	Type       EventType      `json:"type"`
	Rows       int            `json:"rows,omitempty"`
	DurationMS int64          `json:"duration_ms,omitempty"`
	Error      string         `json:"error,omitempty"`
	Timestamp  time.Time      `json:"timestamp"`
}

// Publisher is the side of the hub the pipeline sees
type Publisher interface {
	Publish(evt StepEvent)
}

// NopPublisher drops every event
type NopPublisher struct{}

func (NopPublisher) Publish(StepEvent) {}
