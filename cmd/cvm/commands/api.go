package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/niyax/cvm/backend/internal/api"
	"github.com/niyax/cvm/backend/internal/api/handlers"
	"github.com/niyax/cvm/backend/internal/scheduler"
	"github.com/niyax/cvm/backend/internal/scheduler/jobs"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Start the HTTP API server",
	Long: `Start the REST API server and the session snapshot scheduler.

Endpoints:
  GET  /health                        - Health check
  POST /api/upload                    - Upload a subscriber CSV (multipart "file")
  POST /api/run_step                  - Run lifecycle | opportunity | offers | launch
  GET  /api/preview/{session_id}      - Preview a step output (?step=&n=)
  GET  /api/download/{session_id}     - Download the launch export
  GET  /api/impact_forecast           - Simulated impact forecast (?session_id=&lobs=)
  POST /api/publish                   - Queue a campaign publish
  GET  /ws/sessions/{session_id}      - Step event stream (websocket)

Example:
  go run ./cmd/cvm api
  go run ./cmd/cvm api --port 9090`,
	RunE: runAPIServer,
}

var (
	apiPort string
)

func init() {
	rootCmd.AddCommand(apiCmd)

	apiCmd.Flags().StringVar(&apiPort, "port", "", "API server port (default $PORT)")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if apiPort != "" {
		cfg.Port = apiPort
	}

	log.WithFields(map[string]interface{}{
		"port": cfg.Port,
		"env":  cfg.Env,
	}).Info("Initializing API server")

	a, err := buildApp(cmd.Context(), cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	sched := scheduler.New(log)
	if err := sched.AddJob(jobs.NewSessionSnapshotJob(a.store, cfg.SnapshotSchedule, log)); err != nil {
		return fmt.Errorf("register snapshot job: %w", err)
	}
	sched.Start()
	defer sched.Stop()

	limiter := rate.NewLimiter(rate.Limit(cfg.RateLimit.RPS), cfg.RateLimit.Burst)
	var dbCheck handlers.DBChecker
	if a.db != nil {
		dbCheck = a.db
	}
	router := api.NewRouter(api.NewHandlers(a.pipeline, a.hub, dbCheck, log), limiter, log)
	server := api.New(cfg, log, router)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	PrintDoubleSeparator()
	fmt.Printf("  CVM API running on http://localhost:%s\n", cfg.Port)
	PrintSeparator()
	PrintKeyValue("Sessions", cfg.Session.Backend, 10)
	PrintKeyValue("Catalog", a.catalogHash[:12], 10)
	PrintKeyValue("Runtime", cfg.Pipeline.RuntimeDir, 10)
	PrintDoubleSeparator()
	fmt.Println("Press Ctrl+C to stop")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case <-quit:
	}

	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Info("Server stopped")
	return nil
}
