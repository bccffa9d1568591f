package contracts

import "strings"

// Strategy is the marketing action assigned per (subscriber, LOB)
type Strategy string

const (
	StrategyNoAction  Strategy = "No Action"
	StrategyRetain    Strategy = "Retain"
	StrategyRevive    Strategy = "Revive"
	StrategyUpsell    Strategy = "Upsell"
	StrategyCrossSell Strategy = "Cross-sell"
)

// String returns the display label
func (s Strategy) String() string {
	return string(s)
}

// Code returns the compact form used inside opportunity codes
func (s Strategy) Code() string {
	switch s {
	case StrategyRetain:
		return "retain"
	case StrategyRevive:
		return "revive"
	case StrategyUpsell:
		return "upsell"
	case StrategyCrossSell:
		return "crosssell"
	default:
		return "noaction"
	}
}

// AllStrategies returns every strategy
func AllStrategies() []Strategy {
	return []Strategy{
		StrategyNoAction,
		StrategyRetain,
		StrategyRevive,
		StrategyUpsell,
		StrategyCrossSell,
	}
}

// ParseStrategy maps any spelling that normalizes to a strategy code
// ("Cross-sell", "cross sell", "crosssell") to the strategy
func ParseStrategy(s string) (Strategy, bool) {
	key := NormalizeKey(s)
	for _, st := range AllStrategies() {
		if st.Code() == key {
			return st, true
		}
	}
	return "", false
}

// OpportunityCode builds "{strategy-code}_{lob-lower}"
func OpportunityCode(s Strategy, lob LOB) string {
	return s.Code() + "_" + lob.Lower()
}

// StrategyFromOpportunity recovers the strategy from a stored opportunity
// code by substring match; anything unrecognized is No Action
func StrategyFromOpportunity(code string) Strategy {
	c := strings.ReplaceAll(strings.ToLower(code), "_", "")
	switch {
	case strings.Contains(c, "upsell"):
		return StrategyUpsell
	case strings.Contains(c, "retain"):
		return StrategyRetain
	case strings.Contains(c, "revive"):
		return StrategyRevive
	case strings.Contains(c, "crosssell"):
		return StrategyCrossSell
	default:
		return StrategyNoAction
	}
}
