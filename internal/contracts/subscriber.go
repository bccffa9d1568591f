package contracts

// Canonical column names of a normalized subscriber table
const (
	ColID           = "id"
	ColTenureMonths = "tenure_months"
	ColARPU         = "arpu"
	ColDataMB30d    = "data_mb_30d"
	ColVoiceMin30d  = "voice_min_30d"
	ColChurnRisk    = "churn_risk"
	ColVASSpend30d  = "vas_spend_30d"

	ColLifecycleStage = "lifecycle_stage"
	ColLOB            = "lob"
	ColOpportunity    = "opportunity"
	ColReason         = "reason"
)

// Field defaults applied when a column is missing or a cell is not numeric
const (
	DefaultTenureMonths = 6.0
	DefaultARPU         = 10.0
	DefaultDataMB30d    = 0.0
	DefaultVoiceMin30d  = 0.0
	DefaultChurnRisk    = 0.2
	DefaultVASSpend30d  = 0.0
)

// CanonicalColumns lists the normalized subscriber fields in table order
func CanonicalColumns() []string {
	return []string{
		ColID,
		ColTenureMonths,
		ColARPU,
		ColDataMB30d,
		ColVoiceMin30d,
		ColChurnRisk,
		ColVASSpend30d,
	}
}

// Subscriber is one normalized row of the uploaded table
type Subscriber struct {
	ID           string  `json:"id"`
	TenureMonths float64 `json:"tenure_months"`
	ARPU         float64 `json:"arpu"`
	DataMB30d    float64 `json:"data_mb_30d"`
	VoiceMin30d  float64 `json:"voice_min_30d"`
	ChurnRisk    float64 `json:"churn_risk"`
	VASSpend30d  float64 `json:"vas_spend_30d"`
}

// Classified is a subscriber with its derived lifecycle stage
type Classified struct {
	Subscriber
	Usage        float64        `json:"usage"`
	PrevActivity float64        `json:"prev_activity"`
	Stage        LifecycleStage `json:"lifecycle_stage"`
}

// Opportunity is the (subscriber, LOB, strategy) tuple
type Opportunity struct {
	SubscriberID string         `json:"id"`
	Stage        LifecycleStage `json:"lifecycle_stage"`
	LOB          LOB            `json:"lob"`
	Strategy     Strategy       `json:"strategy"`
	Code         string         `json:"opportunity"`
	Reason       string         `json:"reason"`
}
