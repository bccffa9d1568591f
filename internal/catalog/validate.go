package catalog

import (
	"fmt"
	"math"
	"strings"

	"github.com/niyax/cvm/backend/internal/contracts"
)

// ValidationError names the offending field
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks all required constraints
func Validate(cat *Catalog) error {
	if cat.Meta.CatalogID == "" {
		return ValidationError{"meta.catalog_id", "required"}
	}

	lc := cat.Lifecycle
	w := lc.UsageWeights
	if w.Data < 0 || w.Voice < 0 || w.VAS < 0 {
		return ValidationError{"lifecycle.usage_weights", "must be >= 0"}
	}
	if math.Abs(w.Data+w.Voice+w.VAS-1.0) > 1e-6 {
		return ValidationError{"lifecycle.usage_weights", "must sum to 1.0"}
	}
	if lc.PrevActivity.Base <= 0 || lc.PrevActivity.Spread < 0 {
		return ValidationError{"lifecycle.prev_activity", "base must be > 0 and spread >= 0"}
	}
	if lc.NewUserMaxTenure < 0 {
		return ValidationError{"lifecycle.new_user_max_tenure", "must be >= 0"}
	}
	for field, v := range map[string]float64{
		"lifecycle.non_user_max_usage": lc.NonUserMaxUsage,
		"lifecycle.stopper_min_churn":  lc.StopperMinChurn,
		"lifecycle.stopper_max_usage":  lc.StopperMaxUsage,
		"opportunity.upsell_max_churn": cat.Opportunity.UpsellMaxChurn,
	} {
		if v < 0 || v > 1 {
			return ValidationError{field, "must be in [0, 1]"}
		}
	}
	if lc.DropperRatio <= 0 || lc.DropperRatio >= 1 {
		return ValidationError{"lifecycle.dropper_ratio", "must be in (0, 1)"}
	}
	if lc.GrowerRatio <= 1 {
		return ValidationError{"lifecycle.grower_ratio", "must be > 1"}
	}

	for _, s := range contracts.AllStrategies() {
		if err := validatePool(s, cat.Offers.Pool(s)); err != nil {
			return err
		}
	}

	return nil
}

func validatePool(s contracts.Strategy, pool []string) error {
	field := "offers." + s.Code()
	if len(pool) != PoolSize {
		return ValidationError{field, fmt.Sprintf("must contain exactly %d templates, got %d", PoolSize, len(pool))}
	}

	seen := make(map[string]bool, len(pool))
	for _, tmpl := range pool {
		if strings.TrimSpace(tmpl) == "" {
			return ValidationError{field, "templates must not be empty"}
		}
		if seen[tmpl] {
			return ValidationError{field, fmt.Sprintf("duplicate template %q", tmpl)}
		}
		seen[tmpl] = true
	}
	return nil
}
