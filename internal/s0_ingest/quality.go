package s0_ingest

import (
	"math"
	"strconv"
	"strings"

	"github.com/niyax/cvm/backend/internal/contracts"
)

// QualityReport summarizes how much of an upload was usable as-is.
// Coverage is the share of rows whose cell parsed as a finite number;
// a missing column has coverage 0 and is listed in Missing.
type QualityReport struct {
	Rows     int                `json:"rows"`
	Columns  int                `json:"columns"`
	Coverage map[string]float64 `json:"coverage"`
	Missing  []string           `json:"missing,omitempty"`
	Score    float64            `json:"score"`
}

// Check measures numeric coverage of the canonical subscriber columns.
// It reports, it never rejects: coercion to defaults happens in Normalize.
func Check(raw *contracts.Table) *QualityReport {
	report := &QualityReport{
		Rows:     raw.Len(),
		Columns:  len(raw.Columns),
		Coverage: make(map[string]float64, len(numericFields)),
	}

	header, _ := canonicalHeader(raw)
	total := 0.0
	for _, f := range numericFields {
		idx := indexOf(header, f.name)
		if idx < 0 {
			report.Coverage[f.name] = 0
			report.Missing = append(report.Missing, f.name)
			continue
		}

		valid := 0
		for _, row := range raw.Rows {
			if isFinite(row[idx]) {
				valid++
			}
		}
		cov := 0.0
		if report.Rows > 0 {
			cov = float64(valid) / float64(report.Rows)
		}
		report.Coverage[f.name] = cov
		total += cov
	}

	report.Score = total / float64(len(numericFields))
	return report
}

func isFinite(s string) bool {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return err == nil && !math.IsNaN(v) && !math.IsInf(v, 0)
}
