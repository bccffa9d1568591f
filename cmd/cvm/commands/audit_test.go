package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/niyax/cvm/backend/internal/audit"
)

type fakeLister struct {
	records   []audit.LaunchRecord
	gotID     string
	gotLimit  int
	callCount int
}

func (f *fakeLister) ListLaunches(ctx context.Context, sessionID string, limit int) ([]audit.LaunchRecord, error) {
	f.callCount++
	f.gotID, f.gotLimit = sessionID, limit
	return f.records, nil
}

func sampleLaunches() []audit.LaunchRecord {
	return []audit.LaunchRecord{{
		SessionID:   "s1",
		FileName:    "base.csv",
		Rows:        3,
		Columns:     []string{"id", "offer"},
		OutputPath:  "/tmp/output_s1.csv",
		CatalogHash: "0123456789abcdef",
		LaunchedAt:  time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC),
	}}
}

func TestListLaunches(t *testing.T) {
	tests := []struct {
		name      string
		sessionID string
		limit     int
		wantErr   bool
	}{
		{"lists", "s1", 5, false},
		{"missing session", "", 5, true},
		{"zero limit", "s1", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &fakeLister{records: sampleLaunches()}
			got, err := listLaunches(context.Background(), repo, tt.sessionID, tt.limit)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Zero(t, repo.callCount)
				return
			}
			require.NoError(t, err)
			assert.Len(t, got, 1)
			assert.Equal(t, "s1", repo.gotID)
			assert.Equal(t, 5, repo.gotLimit)
		})
	}
}

func TestWriteLaunches_Text(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeLaunches(&buf, sampleLaunches(), "text"))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "LAUNCHED"))
	assert.Contains(t, lines[1], "2024-03-01T09:30:00Z")
	assert.Contains(t, lines[1], "0123456789ab")
	assert.NotContains(t, lines[1], "0123456789abc")
	assert.Contains(t, lines[1], "base.csv")
}

func TestWriteLaunches_JSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeLaunches(&buf, sampleLaunches(), "json"))

	var got []audit.LaunchRecord
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, 3, got[0].Rows)
	assert.Equal(t, []string{"id", "offer"}, got[0].Columns)
}

func TestWriteLaunches_EmptyAndUnknownFormat(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeLaunches(&buf, nil, "text"))
	assert.Equal(t, "No launches recorded\n", buf.String())

	assert.Error(t, writeLaunches(&buf, nil, "xml"))
}

func TestOpenAuditDB_Disabled(t *testing.T) {
	_, err := openAuditDB(context.Background(), testConfig(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
}
