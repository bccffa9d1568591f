package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/niyax/cvm/backend/internal/audit"
	"github.com/niyax/cvm/backend/pkg/config"
	"github.com/niyax/cvm/backend/pkg/database"
)

// auditCmd lists the recorded launches of a session
var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "List the launch audit trail of a session",
	Long: `Read the launches recorded for a session from the audit database.
Requires DATABASE_URL.

Example:
  go run ./cmd/cvm audit --session 3f2a...
  go run ./cmd/cvm audit --session 3f2a... --limit 5 --output json`,
	RunE: runAudit,
}

var (
	auditSession string
	auditLimit   int
	auditOutput  string
)

func init() {
	rootCmd.AddCommand(auditCmd)

	auditCmd.Flags().StringVar(&auditSession, "session", "", "session id")
	auditCmd.Flags().IntVar(&auditLimit, "limit", 20, "maximum launches to list")
	auditCmd.Flags().StringVar(&auditOutput, "output", "text", "output format (text, json)")
	_ = auditCmd.MarkFlagRequired("session")
}

// launchLister is the read side of the audit repository
type launchLister interface {
	ListLaunches(ctx context.Context, sessionID string, limit int) ([]audit.LaunchRecord, error)
}

func runAudit(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx := cmd.Context()
	db, err := openAuditDB(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	log.WithSession(auditSession).Debug("Listing launches")

	records, err := listLaunches(ctx, audit.NewRepository(db.Pool), auditSession, auditLimit)
	if err != nil {
		return err
	}
	return writeLaunches(cmd.OutOrStdout(), records, auditOutput)
}

// openAuditDB connects to the audit database
func openAuditDB(ctx context.Context, cfg *config.Config) (*database.DB, error) {
	if !cfg.Database.Enabled() {
		return nil, fmt.Errorf("audit trail is disabled: DATABASE_URL is not set")
	}
	db, err := database.New(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	return db, nil
}

func listLaunches(ctx context.Context, repo launchLister, sessionID string, limit int) ([]audit.LaunchRecord, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("--session is required")
	}
	if limit <= 0 {
		return nil, fmt.Errorf("--limit must be positive, got %d", limit)
	}
	return repo.ListLaunches(ctx, sessionID, limit)
}

func writeLaunches(w io.Writer, records []audit.LaunchRecord, output string) error {
	switch output {
	case "json":
		data, err := json.MarshalIndent(records, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	case "text":
	default:
		return fmt.Errorf("unknown output format %q (text, json)", output)
	}

	if len(records) == 0 {
		_, err := fmt.Fprintln(w, "No launches recorded")
		return err
	}

	widths := []int{20, 8, 16, 28}
	fmt.Fprintln(w, formatRow([]string{"LAUNCHED", "ROWS", "CATALOG", "FILE"}, widths))
	for _, rec := range records {
		hash := rec.CatalogHash
		if len(hash) > 12 {
			hash = hash[:12]
		}
		fmt.Fprintln(w, formatRow([]string{
			rec.LaunchedAt.UTC().Format(time.RFC3339),
			strconv.Itoa(rec.Rows),
			hash,
			rec.FileName,
		}, widths))
	}
	return nil
}
