package s0_ingest

import (
	"math/rand"

	"github.com/niyax/cvm/backend/internal/contracts"
)

// Sample caps the number of rows fed into a step.
// At or below maxRows the input is returned as is; above it, a seeded
// permutation picks exactly maxRows rows, identical across runs.
func Sample(raw *contracts.Table, maxRows int, seed int64) *contracts.Table {
	if raw.Len() <= maxRows {
		return raw
	}

	rng := rand.New(rand.NewSource(seed))
	perm := rng.Perm(raw.Len())[:maxRows]

	out := contracts.NewTable(raw.Columns...)
	out.Rows = make([][]string, 0, maxRows)
	for _, idx := range perm {
		out.Rows = append(out.Rows, append([]string(nil), raw.Rows[idx]...))
	}
	return out
}
