package s0_ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/niyax/cvm/backend/internal/contracts"
)

// ParseCSV reads a header row followed by records.
// Ragged rows are padded or truncated to the header width.
func ParseCSV(r io.Reader) (*contracts.Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: CSV is empty", contracts.ErrValidation)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: cannot parse CSV: %v", contracts.ErrValidation, err)
	}

	for i, h := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}

	table := contracts.NewTable(header...)
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: cannot parse CSV: %v", contracts.ErrValidation, err)
		}
		if isBlank(record) {
			continue
		}
		table.Append(record)
	}

	if table.Len() == 0 {
		return nil, fmt.Errorf("%w: CSV is empty", contracts.ErrValidation)
	}

	return table, nil
}

func isBlank(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
