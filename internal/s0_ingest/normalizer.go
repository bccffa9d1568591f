package s0_ingest

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/niyax/cvm/backend/internal/contracts"
	"github.com/niyax/cvm/backend/internal/oracle"
)

// field describes one numeric subscriber column
type field struct {
	name string
	def  float64
	set  func(s *contracts.Subscriber, v float64)
}

var numericFields = []field{
	{contracts.ColTenureMonths, contracts.DefaultTenureMonths, func(s *contracts.Subscriber, v float64) { s.TenureMonths = v }},
	{contracts.ColARPU, contracts.DefaultARPU, func(s *contracts.Subscriber, v float64) { s.ARPU = v }},
	{contracts.ColDataMB30d, contracts.DefaultDataMB30d, func(s *contracts.Subscriber, v float64) { s.DataMB30d = v }},
	{contracts.ColVoiceMin30d, contracts.DefaultVoiceMin30d, func(s *contracts.Subscriber, v float64) { s.VoiceMin30d = v }},
	{contracts.ColChurnRisk, contracts.DefaultChurnRisk, func(s *contracts.Subscriber, v float64) { s.ChurnRisk = v }},
	{contracts.ColVASSpend30d, contracts.DefaultVASSpend30d, func(s *contracts.Subscriber, v float64) { s.VASSpend30d = v }},
}

// Normalize converts the raw upload into subscriber records.
// raw is never mutated.
// ⭐ SSOT: S0 → S1 레코드 정규화
func Normalize(raw *contracts.Table) ([]contracts.Subscriber, error) {
	if raw == nil || len(raw.Columns) == 0 {
		return nil, fmt.Errorf("%w: table has no columns", contracts.ErrValidation)
	}

	header, idIdx := canonicalHeader(raw)
	hasVAS := indexOf(header, contracts.ColVASSpend30d) >= 0

	records := make([]contracts.Subscriber, len(raw.Rows))
	for i, row := range raw.Rows {
		rec := contracts.Subscriber{ID: row[idIdx]}
		for _, f := range numericFields {
			idx := indexOf(header, f.name)
			if idx < 0 {
				f.set(&rec, f.def)
				continue
			}
			f.set(&rec, parseNumber(row[idx], f.def))
		}
		if !hasVAS {
			rec.VASSpend30d = DeriveVASSpend(rec.ID, rec.ARPU)
		}
		records[i] = rec
	}

	return records, nil
}

// NormalizeTable returns a new table guaranteed to carry the canonical
// columns. The first column is renamed to id when no id column exists;
// missing canonical columns are appended; canonical cells hold the coerced
// numbers; every other column passes through unchanged.
func NormalizeTable(raw *contracts.Table) (*contracts.Table, error) {
	records, err := Normalize(raw)
	if err != nil {
		return nil, err
	}

	header, _ := canonicalHeader(raw)
	columns := append([]string(nil), header...)
	for _, f := range numericFields {
		if indexOf(header, f.name) < 0 {
			columns = append(columns, f.name)
		}
	}

	out := contracts.NewTable(columns...)
	for i, rec := range records {
		row := make([]string, len(columns))
		copy(row, raw.Rows[i])
		values := map[string]float64{
			contracts.ColTenureMonths: rec.TenureMonths,
			contracts.ColARPU:         rec.ARPU,
			contracts.ColDataMB30d:    rec.DataMB30d,
			contracts.ColVoiceMin30d:  rec.VoiceMin30d,
			contracts.ColChurnRisk:    rec.ChurnRisk,
			contracts.ColVASSpend30d:  rec.VASSpend30d,
		}
		for j, col := range columns {
			if v, ok := values[col]; ok {
				row[j] = FormatNumber(v)
			}
		}
		out.Rows = append(out.Rows, row)
	}

	return out, nil
}

// DeriveVASSpend is the deterministic stand-in for a missing vas_spend_30d column
func DeriveVASSpend(id string, arpu float64) float64 {
	return math.Round(arpu*oracle.Hash01(id, "vas")*0.25*100) / 100
}

// FormatNumber renders a float with the shortest exact representation
func FormatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// parseNumber coerces a cell, falling back to def for blank,
// non-numeric or non-finite input
func parseNumber(s string, def float64) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return def
	}
	return v
}

// canonicalHeader returns the header as normalization sees it: without an
// id column the first column is renamed to id and no longer counts as the
// field it was named after
func canonicalHeader(t *contracts.Table) ([]string, int) {
	header := append([]string(nil), t.Columns...)
	if idx := indexOf(header, contracts.ColID); idx >= 0 {
		return header, idx
	}
	if len(header) == 0 {
		return header, -1
	}
	header[0] = contracts.ColID
	return header, 0
}

func indexOf(columns []string, name string) int {
	for i, c := range columns {
		if c == name {
			return i
		}
	}
	return -1
}
