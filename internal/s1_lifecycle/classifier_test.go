package s1_lifecycle

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/niyax/cvm/backend/internal/catalog"
	"github.com/niyax/cvm/backend/internal/contracts"
	"github.com/niyax/cvm/backend/internal/oracle"
)

func newClassifier() *Classifier {
	return NewClassifier(catalog.Default().Lifecycle)
}

// anchor sets every column max to 100
var anchor = contracts.Subscriber{
	ID: "ANCHOR", TenureMonths: 24, DataMB30d: 100, VoiceMin30d: 100, VASSpend30d: 100, ChurnRisk: 0.1,
}

func classifyWithAnchor(t *testing.T, rec contracts.Subscriber) contracts.Classified {
	t.Helper()
	out := newClassifier().Classify([]contracts.Subscriber{anchor, rec})
	require.Len(t, out, 2)
	return out[1]
}

func TestClassify_Precedence(t *testing.T) {
	tests := []struct {
		name string
		rec  contracts.Subscriber
		want contracts.LifecycleStage
	}{
		{
			name: "new user beats non-user",
			rec:  contracts.Subscriber{ID: "N1", TenureMonths: 2, ChurnRisk: 0.9},
			want: contracts.StageNewUser,
		},
		{
			name: "non-user at threshold",
			rec:  contracts.Subscriber{ID: "N2", TenureMonths: 12, DataMB30d: 16, ChurnRisk: 0.9},
			want: contracts.StageNonUser,
		},
		{
			name: "stopper",
			rec:  contracts.Subscriber{ID: "S1", TenureMonths: 12, DataMB30d: 30, ChurnRisk: 0.7},
			want: contracts.StageStopper,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifyWithAnchor(t, tt.rec)
			assert.Equal(t, tt.want, got.Stage)
		})
	}
}

func TestClassify_UsageScore(t *testing.T) {
	got := classifyWithAnchor(t, contracts.Subscriber{
		ID: "U1", TenureMonths: 12, DataMB30d: 50, VoiceMin30d: 20, VASSpend30d: 10,
	})

	assert.InDelta(t, 0.5*0.5+0.35*0.2+0.15*0.1, got.Usage, 1e-12)
	assert.InDelta(t, got.Usage*(0.7+0.9*oracle.Hash01("U1", "prev")), got.PrevActivity, 1e-12)
}

func TestClassify_TrendStages(t *testing.T) {
	// with usage above every absolute threshold, only the hash-derived
	// previous activity decides Dropper / Grower / Stable
	for i := 0; i < 200; i++ {
		id := fmt.Sprintf("T%03d", i)
		got := classifyWithAnchor(t, contracts.Subscriber{
			ID: id, TenureMonths: 12, DataMB30d: 80, VoiceMin30d: 80, VASSpend30d: 80, ChurnRisk: 0.1,
		})

		prev := got.Usage * (0.7 + 0.9*oracle.Hash01(id, "prev"))
		var want contracts.LifecycleStage
		switch {
		case got.Usage <= prev*0.8:
			want = contracts.StageDropper
		case got.Usage >= prev*1.15:
			want = contracts.StageGrower
		default:
			want = contracts.StageStable
		}
		assert.Equal(t, want, got.Stage, id)
	}
}

func TestClassify_ZeroMax(t *testing.T) {
	recs := []contracts.Subscriber{
		{ID: "Z1", TenureMonths: 12},
		{ID: "Z2", TenureMonths: 12},
	}

	out := newClassifier().Classify(recs)
	for _, c := range out {
		assert.Equal(t, 0.0, c.Usage)
		assert.Equal(t, contracts.StageNonUser, c.Stage)
	}
}

func TestClassify_Idempotent(t *testing.T) {
	recs := []contracts.Subscriber{
		anchor,
		{ID: "A", TenureMonths: 30, DataMB30d: 40, VoiceMin30d: 90, ChurnRisk: 0.3},
		{ID: "B", TenureMonths: 1},
	}

	c := newClassifier()
	assert.Equal(t, c.Classify(recs), c.Classify(recs))
}

func TestClassify_Empty(t *testing.T) {
	out := newClassifier().Classify(nil)
	assert.Empty(t, out)
	assert.Equal(t, 0, ToTable(out).Len())
}

func TestToTableAndSummary(t *testing.T) {
	classified := []contracts.Classified{
		{Subscriber: contracts.Subscriber{ID: "A"}, Stage: contracts.StageStable},
		{Subscriber: contracts.Subscriber{ID: "B"}, Stage: contracts.StageNewUser},
		{Subscriber: contracts.Subscriber{ID: "C"}, Stage: contracts.StageStable},
	}

	tbl := ToTable(classified)
	assert.Equal(t, []string{"id", "lifecycle_stage"}, tbl.Columns)
	assert.Equal(t, []string{"B", "New User"}, tbl.Rows[1])

	summary := Summary(classified)
	assert.Equal(t, 2, summary[contracts.StageStable])
	assert.Equal(t, 1, summary[contracts.StageNewUser])
}
