package contracts

import "strings"

// LifecycleStage is the categorical subscriber state derived from
// usage trend, tenure and churn risk
type LifecycleStage string

const (
	StageNewUser LifecycleStage = "New User"
	StageNonUser LifecycleStage = "Non-user"
	StageStopper LifecycleStage = "Stopper"
	StageDropper LifecycleStage = "Dropper"
	StageGrower  LifecycleStage = "Grower"
	StageStable  LifecycleStage = "Stable"
)

// String returns the stage label
func (s LifecycleStage) String() string {
	return string(s)
}

// Key returns the normalized lookup key (lowercase, no spaces or hyphens)
func (s LifecycleStage) Key() string {
	return NormalizeKey(string(s))
}

// AllLifecycleStages returns every stage in classification precedence order
func AllLifecycleStages() []LifecycleStage {
	return []LifecycleStage{
		StageNewUser,
		StageNonUser,
		StageStopper,
		StageDropper,
		StageGrower,
		StageStable,
	}
}

// ParseLifecycleStage accepts any spelling that normalizes to a known stage
func ParseLifecycleStage(s string) (LifecycleStage, bool) {
	key := NormalizeKey(s)
	for _, stage := range AllLifecycleStages() {
		if stage.Key() == key {
			return stage, true
		}
	}
	return "", false
}

// NormalizeKey lowercases s and strips spaces, hyphens and underscores.
// "Cross-sell", "cross sell" and "crosssell" all map to "crosssell".
func NormalizeKey(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.NewReplacer(" ", "", "-", "", "_", "").Replace(s)
}
