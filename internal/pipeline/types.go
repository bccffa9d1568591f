package pipeline

import (
	"github.com/niyax/cvm/backend/internal/contracts"
	"github.com/niyax/cvm/backend/internal/s0_ingest"
)

// TimestampLayout is used for every client-facing timestamp
const TimestampLayout = "2006-01-02 15:04:05"

// Preview bounds
const (
	DefaultPreviewRows = 12
	MaxPreviewRows     = 50
)

// Publish defaults
const (
	DefaultPublishTarget = "NEON_DX"
	DefaultPublishMode   = "api"
	PublishStatusQueued  = "queued"
)

// StepRequest selects a step and carries the user controls.
// OfferCount is the legacy single count; when set it replaces the
// default for types missing from OfferCountsPerOpp.
type StepRequest struct {
	SessionID         string         `json:"session_id"`
	Step              string         `json:"step"`
	LOBs              []string       `json:"lobs,omitempty"`
	OpportunityTypes  []string       `json:"opportunity_types,omitempty"`
	OfferCount        *int           `json:"offer_count,omitempty"`
	OfferCountsPerOpp map[string]int `json:"offer_counts_per_opp,omitempty"`
}

// UploadResult describes a freshly created session
type UploadResult struct {
	SessionID string                   `json:"session_id"`
	FileName  string                   `json:"file_name"`
	Rows      int                      `json:"rows"`
	Cols      int                      `json:"cols"`
	Quality   *s0_ingest.QualityReport `json:"quality"`
	Timestamp string                   `json:"timestamp"`
}

// PreviewResult is the head of a step output
type PreviewResult struct {
	Step      contracts.Step      `json:"step"`
	Columns   []string            `json:"columns"`
	Rows      []map[string]string `json:"rows"`
	Timestamp string              `json:"timestamp"`
}

// PublishRequest asks to hand a session's campaign to a downstream system
type PublishRequest struct {
	SessionID   string `json:"session_id"`
	Target      string `json:"target"`
	Mode        string `json:"mode"`
	EndpointURL string `json:"endpoint_url,omitempty"`
}

// PublishResult acknowledges a publish request; nothing is actually sent
type PublishResult struct {
	OK          bool   `json:"ok"`
	Status      string `json:"status"`
	ReferenceID string `json:"reference_id"`
	Target      string `json:"target"`
	Mode        string `json:"mode"`
	EndpointURL string `json:"endpoint_url"`
	Timestamp   string `json:"timestamp"`
}

// StepOutput is what a step computation hands to the commit.
// A nil Controls leaves the session controls untouched.
type StepOutput struct {
	Table      *contracts.Table
	Controls   *contracts.Controls
	OutputPath string
	Summary    map[string]int
}
