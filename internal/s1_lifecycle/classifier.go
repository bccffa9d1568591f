package s1_lifecycle

import (
	"github.com/niyax/cvm/backend/internal/catalog"
	"github.com/niyax/cvm/backend/internal/contracts"
	"github.com/niyax/cvm/backend/internal/oracle"
)

// Classifier assigns a lifecycle stage to every subscriber
type Classifier struct {
	rules catalog.Lifecycle
}

// NewClassifier creates a classifier over the catalog thresholds
func NewClassifier(rules catalog.Lifecycle) *Classifier {
	return &Classifier{rules: rules}
}

// Classify derives usage, previous activity and stage for each record.
// Normalization maxima are taken over the given batch, so the result is
// recomputed from scratch on every call and never reuses stored stages.
// ⭐ SSOT: S1 생애주기 분류
func (c *Classifier) Classify(records []contracts.Subscriber) []contracts.Classified {
	maxData, maxVoice, maxVAS := columnMax(records)
	w := c.rules.UsageWeights

	out := make([]contracts.Classified, len(records))
	for i, rec := range records {
		usage := w.Data*ratio(rec.DataMB30d, maxData) +
			w.Voice*ratio(rec.VoiceMin30d, maxVoice) +
			w.VAS*ratio(rec.VASSpend30d, maxVAS)
		prev := usage * (c.rules.PrevActivity.Base + c.rules.PrevActivity.Spread*oracle.Hash01(rec.ID, "prev"))

		out[i] = contracts.Classified{
			Subscriber:   rec,
			Usage:        usage,
			PrevActivity: prev,
			Stage:        c.stage(rec, usage, prev),
		}
	}
	return out
}

// stage applies the rules in precedence order; the first match wins
func (c *Classifier) stage(rec contracts.Subscriber, usage, prev float64) contracts.LifecycleStage {
	r := c.rules
	switch {
	case rec.TenureMonths <= r.NewUserMaxTenure:
		return contracts.StageNewUser
	case usage <= r.NonUserMaxUsage:
		return contracts.StageNonUser
	case rec.ChurnRisk >= r.StopperMinChurn && usage <= r.StopperMaxUsage:
		return contracts.StageStopper
	case usage <= prev*r.DropperRatio:
		return contracts.StageDropper
	case usage >= prev*r.GrowerRatio:
		return contracts.StageGrower
	default:
		return contracts.StageStable
	}
}

// ToTable renders the step output: id, lifecycle_stage
func ToTable(classified []contracts.Classified) *contracts.Table {
	out := contracts.NewTable(contracts.ColID, contracts.ColLifecycleStage)
	for _, c := range classified {
		out.Rows = append(out.Rows, []string{c.ID, c.Stage.String()})
	}
	return out
}

// Summary counts subscribers per stage
func Summary(classified []contracts.Classified) map[contracts.LifecycleStage]int {
	counts := make(map[contracts.LifecycleStage]int)
	for _, c := range classified {
		counts[c.Stage]++
	}
	return counts
}

func columnMax(records []contracts.Subscriber) (data, voice, vas float64) {
	for i, r := range records {
		if i == 0 || r.DataMB30d > data {
			data = r.DataMB30d
		}
		if i == 0 || r.VoiceMin30d > voice {
			voice = r.VoiceMin30d
		}
		if i == 0 || r.VASSpend30d > vas {
			vas = r.VASSpend30d
		}
	}
	return data, voice, vas
}

// ratio divides by the column max; a zero max yields 0
func ratio(v, max float64) float64 {
	if max == 0 {
		return 0
	}
	return v / max
}
