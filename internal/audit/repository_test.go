package audit

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type execCall struct {
	sql  string
	args []any
}

type fakeDB struct {
	calls []execCall
	err   error
}

func (f *fakeDB) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.calls = append(f.calls, execCall{sql: sql, args: args})
	return pgconn.NewCommandTag("INSERT 0 1"), f.err
}

func (f *fakeDB) Query(context.Context, string, ...any) (pgx.Rows, error) {
	return nil, errors.New("not supported")
}

func TestRecordLaunch(t *testing.T) {
	db := &fakeDB{}
	repo := NewRepository(db)
	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	err := repo.RecordLaunch(context.Background(), LaunchRecord{
		SessionID:   "s1",
		FileName:    "base.csv",
		Rows:        3,
		Columns:     []string{"id", "lifecycle_stage"},
		OutputPath:  "runtime/output_s1.csv",
		CatalogHash: "abc",
		LaunchedAt:  at,
	})
	require.NoError(t, err)
	require.Len(t, db.calls, 1)

	args := db.calls[0].args
	assert.Contains(t, db.calls[0].sql, "INSERT INTO audit.launches")
	assert.Equal(t, "s1", args[0])
	assert.Equal(t, 3, args[2])

	var cols []string
	require.NoError(t, json.Unmarshal(args[3].([]byte), &cols))
	assert.Equal(t, []string{"id", "lifecycle_stage"}, cols)
	assert.Equal(t, at, args[6])
}

func TestRecordPublish_Error(t *testing.T) {
	db := &fakeDB{err: errors.New("connection reset")}
	repo := NewRepository(db)

	err := repo.RecordPublish(context.Background(), PublishRecord{SessionID: "s1", Ref: "PUB-s1-00001"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to record publish")
	assert.Contains(t, db.calls[0].sql, "INSERT INTO audit.publishes")
}

func TestEnsureSchema(t *testing.T) {
	db := &fakeDB{}
	require.NoError(t, NewRepository(db).EnsureSchema(context.Background()))
	assert.Contains(t, db.calls[0].sql, "CREATE TABLE IF NOT EXISTS audit.launches")
}

func TestNopRecorder(t *testing.T) {
	var r Recorder = NopRecorder{}
	assert.NoError(t, r.RecordLaunch(context.Background(), LaunchRecord{}))
	assert.NoError(t, r.RecordPublish(context.Background(), PublishRecord{}))
}

func TestRepository_Integration(t *testing.T) {
	url := os.Getenv("TEST_DATABASE_URL")
	if testing.Short() || url == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping integration test")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, url)
	require.NoError(t, err)
	defer pool.Close()

	repo := NewRepository(pool)
	require.NoError(t, repo.EnsureSchema(ctx))

	sid := "it-" + time.Now().Format("150405.000000")
	rec := LaunchRecord{
		SessionID:   sid,
		FileName:    "it.csv",
		Rows:        2,
		Columns:     []string{"id"},
		OutputPath:  "runtime/output_" + sid + ".csv",
		CatalogHash: "h",
		LaunchedAt:  time.Now().UTC().Truncate(time.Microsecond),
	}
	require.NoError(t, repo.RecordLaunch(ctx, rec))

	got, err := repo.ListLaunches(ctx, sid, 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, rec.Columns, got[0].Columns)
	assert.True(t, rec.LaunchedAt.Equal(got[0].LaunchedAt))
}
