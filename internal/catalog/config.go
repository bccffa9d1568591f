package catalog

import (
	"strings"

	"github.com/niyax/cvm/backend/internal/contracts"
)

// PoolSize is the number of templates every offer pool must carry
const PoolSize = 3

// Catalog holds the classification thresholds and offer pools
// ⭐ SSOT: s1/s2/s3 규칙 상수는 여기서만 로드
type Catalog struct {
	Meta        Meta        `yaml:"meta" json:"meta"`
	Lifecycle   Lifecycle   `yaml:"lifecycle" json:"lifecycle"`
	Opportunity Opportunity `yaml:"opportunity" json:"opportunity"`
	Offers      Offers      `yaml:"offers" json:"offers"`
}

type Meta struct {
	CatalogID string `yaml:"catalog_id" json:"catalog_id"`
	Version   int    `yaml:"version" json:"version"`
}

// Lifecycle thresholds, applied in precedence order by s1_lifecycle
type Lifecycle struct {
	UsageWeights     UsageWeights `yaml:"usage_weights" json:"usage_weights"`
	PrevActivity     PrevActivity `yaml:"prev_activity" json:"prev_activity"`
	NewUserMaxTenure float64      `yaml:"new_user_max_tenure" json:"new_user_max_tenure"`
	NonUserMaxUsage  float64      `yaml:"non_user_max_usage" json:"non_user_max_usage"`
	StopperMinChurn  float64      `yaml:"stopper_min_churn" json:"stopper_min_churn"`
	StopperMaxUsage  float64      `yaml:"stopper_max_usage" json:"stopper_max_usage"`
	DropperRatio     float64      `yaml:"dropper_ratio" json:"dropper_ratio"`
	GrowerRatio      float64      `yaml:"grower_ratio" json:"grower_ratio"`
}

type UsageWeights struct {
	Data  float64 `yaml:"data" json:"data"`
	Voice float64 `yaml:"voice" json:"voice"`
	VAS   float64 `yaml:"vas" json:"vas"`
}

// PrevActivity: prev = usage * (base + spread*hash01(id, "prev"))
type PrevActivity struct {
	Base   float64 `yaml:"base" json:"base"`
	Spread float64 `yaml:"spread" json:"spread"`
}

type Opportunity struct {
	// Stable subscribers below this churn risk are upsold
	UpsellMaxChurn float64 `yaml:"upsell_max_churn" json:"upsell_max_churn"`
}

// Offers holds one template pool per strategy code
type Offers struct {
	Upsell    []string `yaml:"upsell" json:"upsell"`
	Retain    []string `yaml:"retain" json:"retain"`
	Revive    []string `yaml:"revive" json:"revive"`
	CrossSell []string `yaml:"crosssell" json:"crosssell"`
	NoAction  []string `yaml:"noaction" json:"noaction"`
}

// Pool returns the templates for a strategy
func (o Offers) Pool(s contracts.Strategy) []string {
	switch s {
	case contracts.StrategyUpsell:
		return o.Upsell
	case contracts.StrategyRetain:
		return o.Retain
	case contracts.StrategyRevive:
		return o.Revive
	case contracts.StrategyCrossSell:
		return o.CrossSell
	default:
		return o.NoAction
	}
}

// Render fills the {lob} placeholder with the lower-case LOB
func Render(template string, lob contracts.LOB) string {
	return strings.ReplaceAll(template, "{lob}", lob.Lower())
}
