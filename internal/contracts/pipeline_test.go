package contracts

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStep_Prerequisite(t *testing.T) {
	tests := []struct {
		step   Step
		want   Step
		wantOK bool
	}{
		{StepLifecycle, "", false},
		{StepOpportunity, StepLifecycle, true},
		{StepOffers, StepOpportunity, true},
		{StepLaunch, StepOffers, true},
	}

	for _, tt := range tests {
		t.Run(tt.step.String(), func(t *testing.T) {
			got, ok := tt.step.Prerequisite()
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStep_Downstream(t *testing.T) {
	assert.Equal(t, []Step{StepOpportunity, StepOffers, StepLaunch}, StepLifecycle.Downstream())
	assert.Equal(t, []Step{StepLaunch}, StepOffers.Downstream())
	assert.Empty(t, StepLaunch.Downstream())
}

func TestParseStep(t *testing.T) {
	step, ok := ParseStep("  Offers ")
	assert.True(t, ok)
	assert.Equal(t, StepOffers, step)

	_, ok = ParseStep("review")
	assert.False(t, ok)
}

func TestMessage(t *testing.T) {
	err := fmt.Errorf("%w: Run Lifecycle step first.", ErrPrecondition)
	assert.ErrorIs(t, err, ErrPrecondition)
	assert.Equal(t, "Run Lifecycle step first.", Message(err))
	assert.Equal(t, "plain", Message(fmt.Errorf("plain")))
	assert.Equal(t, "", Message(nil))
}
