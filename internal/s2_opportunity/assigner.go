package s2_opportunity

import (
	"fmt"

	"github.com/niyax/cvm/backend/internal/catalog"
	"github.com/niyax/cvm/backend/internal/contracts"
)

// autoType in a selection keeps every base strategy
const autoType = "auto"

// validByStage lists the strategies a stage may be filtered to
var validByStage = map[contracts.LifecycleStage][]contracts.Strategy{
	contracts.StageGrower:  {contracts.StrategyNoAction},
	contracts.StageNewUser: {contracts.StrategyNoAction},
	contracts.StageDropper: {contracts.StrategyRetain, contracts.StrategyNoAction},
	contracts.StageStopper: {contracts.StrategyRevive, contracts.StrategyNoAction},
	contracts.StageStable:  {contracts.StrategyUpsell, contracts.StrategyNoAction},
	contracts.StageNonUser: {contracts.StrategyCrossSell, contracts.StrategyNoAction},
}

// Assigner maps classified subscribers to one opportunity per selected LOB
type Assigner struct {
	rules catalog.Opportunity
}

// NewAssigner creates an assigner over the catalog thresholds
func NewAssigner(rules catalog.Opportunity) *Assigner {
	return &Assigner{rules: rules}
}

// BaseStrategy maps a lifecycle stage to its default strategy
func (a *Assigner) BaseStrategy(stage contracts.LifecycleStage, churnRisk float64) contracts.Strategy {
	switch stage {
	case contracts.StageDropper:
		return contracts.StrategyRetain
	case contracts.StageStopper:
		return contracts.StrategyRevive
	case contracts.StageNonUser:
		return contracts.StrategyCrossSell
	case contracts.StageStable:
		if churnRisk < a.rules.UpsellMaxChurn {
			return contracts.StrategyUpsell
		}
		return contracts.StrategyNoAction
	default:
		return contracts.StrategyNoAction
	}
}

// ApplyTypeFilter narrows base to the user's selected opportunity types.
// An empty selection or one containing Auto keeps base; base survives if
// selected; otherwise the first selected type valid for the stage wins,
// and No Action when none is.
func ApplyTypeFilter(base contracts.Strategy, selected []string, stage contracts.LifecycleStage) contracts.Strategy {
	if len(selected) == 0 {
		return base
	}

	allowed := make([]string, 0, len(selected))
	for _, s := range selected {
		key := contracts.NormalizeKey(s)
		if key == autoType {
			return base
		}
		allowed = append(allowed, key)
	}

	for _, key := range allowed {
		if key == base.Code() {
			return base
		}
	}

	for _, key := range allowed {
		for _, valid := range validByStage[stage] {
			if key == valid.Code() {
				return valid
			}
		}
	}
	return contracts.StrategyNoAction
}

// Reason renders the human-readable explanation for a strategy
func Reason(s contracts.Strategy, rec contracts.Subscriber, lob contracts.LOB) string {
	l := lob.Lower()
	switch s {
	case contracts.StrategyRetain:
		return fmt.Sprintf("High churn risk (%.1f%%) in %s. Recommend loyalty offer to prevent revenue loss.", rec.ChurnRisk*100, l)
	case contracts.StrategyRevive:
		return fmt.Sprintf("Inactive %s user with %.0f months tenure. Target with win-back campaign.", l, rec.TenureMonths)
	case contracts.StrategyUpsell:
		return fmt.Sprintf("Stable %s user (ARPU $%.2f). Opportunity to upgrade plan for increased revenue.", l, rec.ARPU)
	case contracts.StrategyCrossSell:
		return fmt.Sprintf("Non-user in %s. Cross-sell opportunity to activate this service line.", l)
	default:
		return fmt.Sprintf("No immediate action required for %s.", l)
	}
}

// Assign produces len(classified) × len(lobs) opportunities, subscriber-major.
// The strategy does not depend on the LOB; only code and reason do.
// ⭐ SSOT: S2 기회 할당
func (a *Assigner) Assign(classified []contracts.Classified, lobs []contracts.LOB, types []string) []contracts.Opportunity {
	out := make([]contracts.Opportunity, 0, len(classified)*len(lobs))
	for _, c := range classified {
		strategy := ApplyTypeFilter(a.BaseStrategy(c.Stage, c.ChurnRisk), types, c.Stage)
		for _, lob := range lobs {
			out = append(out, contracts.Opportunity{
				SubscriberID: c.ID,
				Stage:        c.Stage,
				LOB:          lob,
				Strategy:     strategy,
				Code:         contracts.OpportunityCode(strategy, lob),
				Reason:       Reason(strategy, c.Subscriber, lob),
			})
		}
	}
	return out
}

// ToTable renders the step output: id, lifecycle_stage, lob, opportunity, reason
func ToTable(opps []contracts.Opportunity) *contracts.Table {
	out := contracts.NewTable(
		contracts.ColID,
		contracts.ColLifecycleStage,
		contracts.ColLOB,
		contracts.ColOpportunity,
		contracts.ColReason,
	)
	for _, o := range opps {
		out.Rows = append(out.Rows, []string{o.SubscriberID, o.Stage.String(), string(o.LOB), o.Code, o.Reason})
	}
	return out
}

// Summary counts opportunities per strategy code
func Summary(opps []contracts.Opportunity) map[string]int {
	counts := make(map[string]int)
	for _, o := range opps {
		counts[o.Strategy.Code()]++
	}
	return counts
}
