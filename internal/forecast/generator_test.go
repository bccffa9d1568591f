package forecast

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/niyax/cvm/backend/pkg/logger"
	"github.com/niyax/cvm/backend/pkg/redis"
)

var fixedNow = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

func newTestGenerator() *Generator {
	return NewGeneratorWithClock(func() time.Time { return fixedNow })
}

func TestGenerate_Deterministic(t *testing.T) {
	g := newTestGenerator()

	a := g.Generate("s1", "DATA,VOICE", 1000)
	b := g.Generate("s1", "DATA,VOICE", 1000)
	assert.Equal(t, a, b)

	c := g.Generate("s1", "DATA", 1000)
	assert.NotEqual(t, a.Series.Revenue6M, c.Series.Revenue6M)
}

func TestGenerate_Shape(t *testing.T) {
	f := newTestGenerator().Generate("s1", "", 0)

	assert.True(t, f.Simulated)
	assert.Equal(t, "s1", f.SessionID)
	assert.Len(t, f.Series.Months6, 6)
	assert.Len(t, f.Series.Revenue6M, 6)
	assert.Len(t, f.Series.Margin6M, 6)
	assert.Len(t, f.Series.Churn6Pct, 6)

	for i := 0; i < 6; i++ {
		assert.GreaterOrEqual(t, f.Series.Revenue6M[i], 10.0)
		assert.GreaterOrEqual(t, f.Series.Margin6M[i], 0.0)
		assert.GreaterOrEqual(t, f.Series.Churn6Pct[i], 0.6)
		assert.LessOrEqual(t, f.Series.Churn6Pct[i], 9.0)
	}

	assert.InDelta(t, sum(f.Series.Revenue6M), f.KPIs.RevenueTotalM, 0.051)
	assert.InDelta(t, sum(f.Series.Churn6Pct)/6, f.KPIs.ChurnAvgPct, 0.0051)
}

func TestGenerate_Uplifts(t *testing.T) {
	f := newTestGenerator().Generate("s9", "VAS", 200)

	assert.GreaterOrEqual(t, f.KPIs.RevUpliftPct, 1.5)
	assert.LessOrEqual(t, f.KPIs.RevUpliftPct, 7.5)
	assert.GreaterOrEqual(t, f.KPIs.MarginUpliftPct, 0.8)
	assert.LessOrEqual(t, f.KPIs.MarginUpliftPct, 4.8)
	assert.GreaterOrEqual(t, f.KPIs.ChurnReductionPct, 0.6)
	assert.LessOrEqual(t, f.KPIs.ChurnReductionPct, 4.1)
}

func TestGenerate_SizeFactor(t *testing.T) {
	g := newTestGenerator()

	// rows beyond the clip bounds change nothing
	assert.Equal(t, g.Generate("s1", "", 1), g.Generate("s1", "", 35000))
	assert.Equal(t, g.Generate("s1", "", 250000), g.Generate("s1", "", 900000))

	// rows 0 is treated as 50000
	assert.Equal(t, g.Generate("s1", "", 0), g.Generate("s1", "", 50000))
}

func TestMonthLabels(t *testing.T) {
	assert.Equal(t, []string{"Oct", "Nov", "Dec", "Jan", "Feb", "Mar"}, MonthLabels(fixedNow))
	assert.Equal(t, []string{"Jul", "Aug", "Sep", "Oct", "Nov", "Dec"},
		MonthLabels(time.Date(2026, 12, 31, 23, 0, 0, 0, time.UTC)))
}

func TestService_Cached(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewFromAddr(mr.Addr())
	defer client.Close()

	svc := NewService(newTestGenerator(), redis.NewCache(client, "cvm"), time.Minute, logger.Nop())
	ctx := context.Background()

	first, err := svc.Forecast(ctx, "s1", "DATA", 100)
	require.NoError(t, err)
	assert.True(t, mr.Exists("cvm:cache:forecast:s1|DATA"))

	second, err := svc.Forecast(ctx, "s1", "DATA", 100)
	require.NoError(t, err)
	assert.Equal(t, first.KPIs, second.KPIs)
	assert.Equal(t, first.Series, second.Series)
}

func TestService_CacheDownFallsBack(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewFromAddr(mr.Addr())
	defer client.Close()
	mr.Close()

	svc := NewService(newTestGenerator(), redis.NewCache(client, "cvm"), time.Minute, logger.Nop())

	got, err := svc.Forecast(context.Background(), "s1", "DATA", 100)
	require.NoError(t, err)
	assert.Equal(t, newTestGenerator().Generate("s1", "DATA", 100), got)
}

func TestService_NoCache(t *testing.T) {
	svc := NewService(newTestGenerator(), nil, time.Minute, logger.Nop())

	got, err := svc.Forecast(context.Background(), "s1", "", 10)
	require.NoError(t, err)
	assert.True(t, got.Simulated)
}
