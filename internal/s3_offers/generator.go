package s3_offers

import (
	"fmt"
	"sort"

	"github.com/niyax/cvm/backend/internal/catalog"
	"github.com/niyax/cvm/backend/internal/contracts"
	"github.com/niyax/cvm/backend/internal/oracle"
)

// Offer count bounds; every pool holds exactly catalog.PoolSize templates
const (
	MinOfferCount     = 1
	MaxOfferCount     = catalog.PoolSize
	DefaultOfferCount = 2
)

// Generator turns the opportunity table into per-subscriber offer rows
type Generator struct {
	offers catalog.Offers
}

// NewGenerator creates a generator over the catalog offer pools
func NewGenerator(offers catalog.Offers) *Generator {
	return &Generator{offers: offers}
}

// Result carries the offers table plus bookkeeping for logs
type Result struct {
	Table   *contracts.Table
	Groups  int
	Skipped int // (subscriber, LOB) pairs with no opportunity row
}

// Pick returns count distinct offers for (id, lob, strategy).
// The pool is shuffled by a generator seeded from hash01(id, lob, strategy),
// so the same inputs always yield the same offers in the same order.
func (g *Generator) Pick(id string, lob contracts.LOB, strategy contracts.Strategy, count int) []string {
	templates := g.offers.Pool(strategy)
	pool := make([]string, len(templates))
	for i, tmpl := range templates {
		pool[i] = catalog.Render(tmpl, lob)
	}

	shuffled := oracle.Shuffled(oracle.NewRand(id, string(lob), strategy.String()), pool)
	return shuffled[:ClampCount(count)]
}

// ClampCount bounds n to [MinOfferCount, MaxOfferCount]
func ClampCount(n int) int {
	if n < MinOfferCount {
		return MinOfferCount
	}
	if n > MaxOfferCount {
		return MaxOfferCount
	}
	return n
}

// NormalizeCounts normalizes keys ("Cross-sell" → "crosssell") and clamps values
func NormalizeCounts(counts map[string]int) map[string]int {
	out := make(map[string]int, len(counts))
	for k, v := range counts {
		out[contracts.NormalizeKey(k)] = ClampCount(v)
	}
	return out
}

type groupKey struct {
	id    string
	stage string
}

// Generate builds one row per unique (id, lifecycle_stage) group, ordered by
// id then stage. For every selected LOB with an opportunity row the output
// carries opportunity_{lob} and {lob}_offer1..count, where count depends on
// the strategy recovered from the opportunity code. LOBs missing for a
// subscriber are skipped for that row only.
// ⭐ SSOT: S3 오퍼 생성
func (g *Generator) Generate(opps *contracts.Table, lobs []contracts.LOB, counts map[string]int, defaultCount int) (*Result, error) {
	required := []string{contracts.ColID, contracts.ColLifecycleStage, contracts.ColLOB, contracts.ColOpportunity}
	if opps == nil || !opps.HasColumns(required...) {
		return nil, fmt.Errorf("%w: opportunity table is missing required columns", contracts.ErrValidation)
	}

	defaultCount = ClampCount(defaultCount)
	normalized := NormalizeCounts(counts)

	idIdx := opps.Column(contracts.ColID)
	stageIdx := opps.Column(contracts.ColLifecycleStage)
	lobIdx := opps.Column(contracts.ColLOB)
	oppIdx := opps.Column(contracts.ColOpportunity)

	// first opportunity per (group, lob)
	groups := make(map[groupKey]map[string]string)
	for _, row := range opps.Rows {
		key := groupKey{id: row[idIdx], stage: row[stageIdx]}
		byLOB, ok := groups[key]
		if !ok {
			byLOB = make(map[string]string)
			groups[key] = byLOB
		}
		if _, seen := byLOB[row[lobIdx]]; !seen {
			byLOB[row[lobIdx]] = row[oppIdx]
		}
	}

	if len(groups) == 0 {
		return &Result{Table: emptyTable(lobs, defaultCount)}, nil
	}

	keys := make([]groupKey, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].id != keys[j].id {
			return keys[i].id < keys[j].id
		}
		return keys[i].stage < keys[j].stage
	})

	res := &Result{Groups: len(keys)}
	columns := []string{contracts.ColID, contracts.ColLifecycleStage}
	known := map[string]bool{contracts.ColID: true, contracts.ColLifecycleStage: true}
	rows := make([]map[string]string, 0, len(keys))

	for _, key := range keys {
		row := map[string]string{
			contracts.ColID:             key.id,
			contracts.ColLifecycleStage: key.stage,
		}
		for _, lob := range lobs {
			code, ok := groups[key][string(lob)]
			if !ok {
				res.Skipped++
				continue
			}

			strategy := contracts.StrategyFromOpportunity(code)
			count, ok := normalized[strategy.Code()]
			if !ok {
				count = defaultCount
			}

			oppCol := OpportunityColumn(lob)
			row[oppCol] = code
			if !known[oppCol] {
				known[oppCol] = true
				columns = append(columns, oppCol)
			}
			for i, offer := range g.Pick(key.id, lob, strategy, count) {
				col := OfferColumn(lob, i+1)
				row[col] = offer
				if !known[col] {
					known[col] = true
					columns = append(columns, col)
				}
			}
		}
		rows = append(rows, row)
	}

	out := contracts.NewTable(columns...)
	for _, r := range rows {
		cells := make([]string, len(columns))
		for i, c := range columns {
			cells[i] = r[c]
		}
		out.Rows = append(out.Rows, cells)
	}
	res.Table = out
	return res, nil
}

// OpportunityColumn names the per-LOB opportunity column
func OpportunityColumn(lob contracts.LOB) string {
	return "opportunity_" + lob.Lower()
}

// OfferColumn names the n-th (1-based) offer column of a LOB
func OfferColumn(lob contracts.LOB, n int) string {
	return fmt.Sprintf("%s_offer%d", lob.Lower(), n)
}

func emptyTable(lobs []contracts.LOB, count int) *contracts.Table {
	columns := []string{contracts.ColID, contracts.ColLifecycleStage}
	for _, lob := range lobs {
		columns = append(columns, OpportunityColumn(lob))
		for i := 1; i <= count; i++ {
			columns = append(columns, OfferColumn(lob, i))
		}
	}
	return contracts.NewTable(columns...)
}
