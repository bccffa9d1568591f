package s0_ingest

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/niyax/cvm/backend/internal/contracts"
)

func mustParse(t *testing.T, csv string) *contracts.Table {
	t.Helper()
	tbl, err := ParseCSV(strings.NewReader(csv))
	require.NoError(t, err)
	return tbl
}

func TestParseCSV(t *testing.T) {
	tbl := mustParse(t, "id,arpu,extra\nC1,12.5\nC2,8,x,overflow\n\n")

	assert.Equal(t, []string{"id", "arpu", "extra"}, tbl.Columns)
	assert.Equal(t, 2, tbl.Len())
	assert.Equal(t, []string{"C1", "12.5", ""}, tbl.Rows[0])
	assert.Equal(t, []string{"C2", "8", "x"}, tbl.Rows[1])
}

func TestParseCSV_Empty(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"no bytes", ""},
		{"header only", "id,arpu\n"},
		{"blank rows", "id,arpu\n,\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCSV(strings.NewReader(tt.input))
			require.Error(t, err)
			assert.ErrorIs(t, err, contracts.ErrValidation)
			assert.Equal(t, "CSV is empty", contracts.Message(err))
		})
	}
}

func TestNormalize_Defaults(t *testing.T) {
	raw := mustParse(t, "msisdn,arpu\nC1,20\nC2,abc\n")

	records, err := Normalize(raw)
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "C1", records[0].ID)
	assert.Equal(t, 6.0, records[0].TenureMonths)
	assert.Equal(t, 20.0, records[0].ARPU)
	assert.Equal(t, 0.0, records[0].DataMB30d)
	assert.Equal(t, 0.0, records[0].VoiceMin30d)
	assert.Equal(t, 0.2, records[0].ChurnRisk)
	assert.Equal(t, DeriveVASSpend("C1", 20), records[0].VASSpend30d)

	assert.Equal(t, 10.0, records[1].ARPU, "non-numeric falls back to default")
	assert.Equal(t, DeriveVASSpend("C2", 10), records[1].VASSpend30d)
}

func TestNormalize_NonFinite(t *testing.T) {
	raw := mustParse(t, "id,churn_risk,data_mb_30d\nC1,NaN,Inf\n")

	records, err := Normalize(raw)
	require.NoError(t, err)
	assert.Equal(t, 0.2, records[0].ChurnRisk)
	assert.Equal(t, 0.0, records[0].DataMB30d)
}

func TestNormalize_VASPresentButInvalid(t *testing.T) {
	raw := mustParse(t, "id,arpu,vas_spend_30d\nC1,40,n/a\nC2,40,3.5\n")

	records, err := Normalize(raw)
	require.NoError(t, err)
	assert.Equal(t, 0.0, records[0].VASSpend30d)
	assert.Equal(t, 3.5, records[1].VASSpend30d)
}

func TestDeriveVASSpend(t *testing.T) {
	v := DeriveVASSpend("C1", 40)
	assert.GreaterOrEqual(t, v, 0.0)
	assert.LessOrEqual(t, v, 10.0)
	assert.Equal(t, v, DeriveVASSpend("C1", 40))

	// two decimals
	assert.InDelta(t, v*100, float64(int64(v*100+0.5)), 1e-6)
}

func TestNormalize_NoColumns(t *testing.T) {
	_, err := Normalize(&contracts.Table{})
	assert.ErrorIs(t, err, contracts.ErrValidation)
}

func TestNormalizeTable(t *testing.T) {
	raw := mustParse(t, "msisdn,arpu,region\nC1,oops,north\n")
	before := raw.Clone()

	out, err := NormalizeTable(raw)
	require.NoError(t, err)

	assert.Equal(t, before, raw, "caller table must not be mutated")
	assert.Equal(t, []string{
		"id", "arpu", "region",
		"tenure_months", "data_mb_30d", "voice_min_30d", "churn_risk", "vas_spend_30d",
	}, out.Columns)
	assert.Equal(t, "C1", out.Value(0, "id"))
	assert.Equal(t, "10", out.Value(0, "arpu"))
	assert.Equal(t, "north", out.Value(0, "region"))
	assert.Equal(t, "6", out.Value(0, "tenure_months"))
	assert.Equal(t, "0.2", out.Value(0, "churn_risk"))
	assert.True(t, out.HasColumns(contracts.CanonicalColumns()...))
}

func TestNormalizeTable_KeepsExistingID(t *testing.T) {
	raw := mustParse(t, "name,id\nAlice,C9\n")

	out, err := NormalizeTable(raw)
	require.NoError(t, err)
	assert.Equal(t, "name", out.Columns[0])
	assert.Equal(t, "C9", out.Value(0, "id"))
}

func TestSample(t *testing.T) {
	raw := contracts.NewTable("id")
	for i := 0; i < 50; i++ {
		raw.Append([]string{FormatNumber(float64(i))})
	}

	assert.Same(t, raw, Sample(raw, 50, 123), "at cap the input is returned")

	first := Sample(raw, 10, 123)
	second := Sample(raw, 10, 123)
	assert.Equal(t, 10, first.Len())
	assert.Equal(t, first, second)

	seen := map[string]bool{}
	for _, r := range first.Rows {
		assert.False(t, seen[r[0]], "sample rows must be distinct")
		seen[r[0]] = true
	}
}

func TestCheck(t *testing.T) {
	raw := mustParse(t, "id,arpu,churn_risk\nC1,10,0.5\nC2,x,0.1\n")

	report := Check(raw)
	assert.Equal(t, 2, report.Rows)
	assert.Equal(t, 3, report.Columns)
	assert.Equal(t, 0.5, report.Coverage["arpu"])
	assert.Equal(t, 1.0, report.Coverage["churn_risk"])
	assert.ElementsMatch(t, []string{"tenure_months", "data_mb_30d", "voice_min_30d", "vas_spend_30d"}, report.Missing)
	assert.InDelta(t, 1.5/6, report.Score, 1e-9)
}

func TestNormalize_FirstColumnBecomesID(t *testing.T) {
	raw := mustParse(t, "tenure_months,arpu\n1,20\n")

	recs, err := Normalize(raw)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "1", recs[0].ID)
	assert.Equal(t, contracts.DefaultTenureMonths, recs[0].TenureMonths, "renamed column no longer feeds its field")
	assert.Equal(t, 20.0, recs[0].ARPU)

	out, err := NormalizeTable(raw)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"id", "arpu",
		"tenure_months", "data_mb_30d", "voice_min_30d", "churn_risk", "vas_spend_30d",
	}, out.Columns)
	assert.True(t, out.HasColumns(contracts.CanonicalColumns()...))
	assert.Equal(t, "1", out.Value(0, "id"))
	assert.Equal(t, "6", out.Value(0, "tenure_months"))

	report := Check(raw)
	assert.Contains(t, report.Missing, "tenure_months")
}

func TestNormalize_TableRoundTrip(t *testing.T) {
	raw := mustParse(t, "msisdn,arpu,data_mb_30d\nC1,12.5,300\nC2,bad,\n")

	direct, err := Normalize(raw)
	require.NoError(t, err)

	table, err := NormalizeTable(raw)
	require.NoError(t, err)
	viaTable, err := Normalize(table)
	require.NoError(t, err)

	assert.Equal(t, direct, viaTable)
}
