package s4_launch

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/niyax/cvm/backend/internal/audit"
	"github.com/niyax/cvm/backend/internal/contracts"
	"github.com/niyax/cvm/backend/pkg/logger"
)

// Exporter freezes the offers table and writes it as the campaign file
type Exporter struct {
	dir         string
	recorder    audit.Recorder
	catalogHash string
	log         *logger.Logger
	now         func() time.Time
}

// NewExporter creates an exporter writing into dir
func NewExporter(dir string, recorder audit.Recorder, catalogHash string, log *logger.Logger) *Exporter {
	if recorder == nil {
		recorder = audit.NopRecorder{}
	}
	return &Exporter{
		dir:         dir,
		recorder:    recorder,
		catalogHash: catalogHash,
		log:         log,
		now:         time.Now,
	}
}

// Result is the frozen launch artifact
type Result struct {
	Table *contracts.Table
	Path  string
}

// OutputPath returns {dir}/output_{session}.csv
func (e *Exporter) OutputPath(sessionID string) string {
	return filepath.Join(e.dir, fmt.Sprintf("output_%s.csv", sessionID))
}

// Export snapshots offers, writes it to the output path and records the launch.
// The snapshot is independent of later edits to the offers table.
// Audit failures are logged and do not fail the launch.
// ⭐ SSOT: S4 캠페인 파일 생성
func (e *Exporter) Export(ctx context.Context, sess *contracts.Session, offers *contracts.Table) (*Result, error) {
	if offers == nil {
		return nil, fmt.Errorf("%w: offers table is missing", contracts.ErrPrecondition)
	}

	snapshot := offers.Clone()
	path := e.OutputPath(sess.ID)

	if err := writeCSV(path, snapshot); err != nil {
		return nil, fmt.Errorf("%w: write launch file: %v", contracts.ErrInternal, err)
	}

	rec := audit.LaunchRecord{
		SessionID:   sess.ID,
		FileName:    sess.FileName,
		Rows:        snapshot.Len(),
		Columns:     snapshot.Columns,
		OutputPath:  path,
		CatalogHash: e.catalogHash,
		LaunchedAt:  e.now(),
	}
	if err := e.recorder.RecordLaunch(ctx, rec); err != nil {
		e.log.WithSession(sess.ID).WithError(err).Warn("Failed to record launch")
	}

	return &Result{Table: snapshot, Path: path}, nil
}

// writeCSV writes through a temp file and renames it into place;
// path never holds a partial export
func writeCSV(path string, table *contracts.Table) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".output-*.csv")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := WriteCSV(tmp, table); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// WriteCSV encodes a table with its header row
func WriteCSV(w io.Writer, table *contracts.Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(table.Columns); err != nil {
		return err
	}
	if err := cw.WriteAll(table.Rows); err != nil {
		return err
	}
	return cw.Error()
}
