package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/niyax/cvm/backend/internal/audit"
	"github.com/niyax/cvm/backend/internal/contracts"
	"github.com/niyax/cvm/backend/internal/forecast"
	"github.com/niyax/cvm/backend/internal/oracle"
	"github.com/niyax/cvm/backend/internal/realtime"
	"github.com/niyax/cvm/backend/internal/s0_ingest"
	"github.com/niyax/cvm/backend/internal/s4_launch"
	"github.com/niyax/cvm/backend/internal/session"
	"github.com/niyax/cvm/backend/pkg/logger"
	"github.com/niyax/cvm/backend/pkg/redis"
)

// Orchestrator runs the four-step pipeline against stored sessions
// ⭐ SSOT: 파이프라인 조율은 여기서만
type Orchestrator struct {
	store     session.Store
	steps     *Steps
	exporter  *s4_launch.Exporter
	forecasts *forecast.Service
	recorder  audit.Recorder
	events    realtime.Publisher
	limiter   *redis.RateLimiter

	stepDelay time.Duration
	logger    *logger.Logger
	now       func() time.Time
}

// NewOrchestrator creates a new orchestrator.
// recorder, events and limiter may be nil.
func NewOrchestrator(
	store session.Store,
	steps *Steps,
	exporter *s4_launch.Exporter,
	forecasts *forecast.Service,
	recorder audit.Recorder,
	events realtime.Publisher,
	limiter *redis.RateLimiter,
	stepDelay time.Duration,
	logger *logger.Logger,
) *Orchestrator {
	if recorder == nil {
		recorder = audit.NopRecorder{}
	}
	if events == nil {
		events = realtime.NopPublisher{}
	}
	return &Orchestrator{
		store:     store,
		steps:     steps,
		exporter:  exporter,
		forecasts: forecasts,
		recorder:  recorder,
		events:    events,
		limiter:   limiter,
		stepDelay: stepDelay,
		logger:    logger,
		now:       time.Now,
	}
}

func (o *Orchestrator) timestamp() string {
	return o.now().Format(TimestampLayout)
}

// Upload parses a CSV upload and creates a session around it
func (o *Orchestrator) Upload(ctx context.Context, fileName string, r io.Reader) (*UploadResult, error) {
	if !strings.HasSuffix(strings.ToLower(fileName), ".csv") {
		return nil, fmt.Errorf("%w: Only CSV files accepted", contracts.ErrValidation)
	}

	raw, err := s0_ingest.ParseCSV(r)
	if err != nil {
		return nil, err
	}

	sess := contracts.NewSession(session.NewID(), fileName, raw, o.now())
	if err := o.store.Create(ctx, sess); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	report := s0_ingest.Check(raw)
	o.logger.WithSession(sess.ID).WithFields(map[string]interface{}{
		"file_name":     fileName,
		"rows":          sess.RawRows,
		"cols":          sess.RawCols,
		"quality_score": report.Score,
		"missing":       report.Missing,
	}).Info("Session created")

	return &UploadResult{
		SessionID: sess.ID,
		FileName:  fileName,
		Rows:      sess.RawRows,
		Cols:      sess.RawCols,
		Quality:   report,
		Timestamp: o.timestamp(),
	}, nil
}

// RunStep computes one step and commits it atomically.
// On any error the session is left exactly as it was.
func (o *Orchestrator) RunStep(ctx context.Context, req StepRequest) (*contracts.StepResult, error) {
	sess, err := o.store.Get(ctx, req.SessionID)
	if err != nil {
		return nil, err
	}

	step, ok := contracts.ParseStep(req.Step)
	if !ok {
		return nil, fmt.Errorf("%w: Invalid step.", contracts.ErrValidation)
	}
	if err := checkPrerequisite(sess, step); err != nil {
		return nil, err
	}

	log := o.logger.WithSession(sess.ID).WithField("step", step)
	start := o.now()
	o.events.Publish(realtime.StepEvent{SessionID: sess.ID, Step: step, Type: realtime.EventStarted, Timestamp: start})
	log.Info("Running step")

	out, err := o.runStep(ctx, sess, step, req)
	if err == nil {
		_, err = o.store.Update(ctx, sess.ID, func(s *contracts.Session) error {
			return commit(s, step, out)
		})
		if err != nil && out.OutputPath != "" {
			// the export never became visible; drop it
			if rmErr := os.Remove(out.OutputPath); rmErr != nil && !os.IsNotExist(rmErr) {
				log.WithError(rmErr).Warn("Failed to remove uncommitted export")
			}
		}
	}

	duration := o.now().Sub(start)
	if err != nil {
		o.events.Publish(realtime.StepEvent{
			SessionID: sess.ID, Step: step, Type: realtime.EventFailed,
			Error: contracts.Message(err), Timestamp: o.now(),
		})
		if isClientError(err) {
			log.WithError(err).Warn("Step rejected")
		} else {
			log.WithError(err).Error("Step failed")
		}
		return nil, err
	}

	rows := out.Table.Len()
	o.events.Publish(realtime.StepEvent{
		SessionID: sess.ID, Step: step, Type: realtime.EventCompleted,
		Rows: rows, DurationMS: duration.Milliseconds(), Timestamp: o.now(),
	})
	log.WithFields(map[string]interface{}{
		"rows":        rows,
		"columns":     len(out.Table.Columns),
		"summary":     out.Summary,
		"duration_ms": duration.Milliseconds(),
	}).Info("Step completed")

	return &contracts.StepResult{
		OK:         true,
		Step:       step,
		SessionID:  sess.ID,
		Rows:       rows,
		DurationMS: duration.Milliseconds(),
		Timestamp:  o.timestamp(),
	}, nil
}

func (o *Orchestrator) runStep(ctx context.Context, sess *contracts.Session, step contracts.Step, req StepRequest) (*StepOutput, error) {
	if err := o.wait(ctx); err != nil {
		return nil, err
	}

	switch step {
	case contracts.StepLifecycle:
		return o.steps.Lifecycle(sess)
	case contracts.StepOpportunity:
		return o.steps.Opportunity(sess, req)
	case contracts.StepOffers:
		return o.steps.Offers(sess, req)
	case contracts.StepLaunch:
		res, err := o.exporter.Export(ctx, sess, sess.Steps[contracts.StepOffers])
		if err != nil {
			return nil, err
		}
		return &StepOutput{Table: res.Table, OutputPath: res.Path}, nil
	default:
		return nil, fmt.Errorf("%w: Invalid step.", contracts.ErrValidation)
	}
}

// wait simulates processing latency; it returns early if ctx is done
func (o *Orchestrator) wait(ctx context.Context) error {
	if o.stepDelay <= 0 {
		return nil
	}
	timer := time.NewTimer(o.stepDelay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Preview returns up to n rows of a computed step output.
// n is clamped to [1, 50]; non-finite numeric cells are blanked.
func (o *Orchestrator) Preview(ctx context.Context, sessionID, stepName string, n int) (*PreviewResult, error) {
	sess, err := o.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(stepName) == "" {
		stepName = string(contracts.StepLifecycle)
	}
	step, ok := contracts.ParseStep(stepName)
	table := sess.Steps[step]
	if !ok || table == nil {
		return nil, fmt.Errorf("%w: Step '%s' not available yet. Available steps: [%s]. Run the step first.",
			contracts.ErrValidation, strings.ToLower(strings.TrimSpace(stepName)), strings.Join(availableSteps(sess), ", "))
	}

	if n < 1 {
		n = 1
	}
	if n > MaxPreviewRows {
		n = MaxPreviewRows
	}

	head := table.Head(n)
	rows := make([]map[string]string, 0, head.Len())
	for _, r := range head.Rows {
		rec := make(map[string]string, len(head.Columns))
		for i, col := range head.Columns {
			rec[col] = cleanCell(r[i])
		}
		rows = append(rows, rec)
	}

	return &PreviewResult{
		Step:      step,
		Columns:   head.Columns,
		Rows:      rows,
		Timestamp: o.timestamp(),
	}, nil
}

func availableSteps(sess *contracts.Session) []string {
	out := make([]string, 0, len(sess.Steps))
	for _, s := range contracts.AllSteps() {
		if sess.Steps[s] != nil {
			out = append(out, "'"+s.String()+"'")
		}
	}
	return out
}

// cleanCell blanks NaN and infinities
func cleanCell(v string) string {
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err == nil && (math.IsNaN(f) || math.IsInf(f, 0)) {
		return ""
	}
	return v
}

// Download returns the path of the launch export
func (o *Orchestrator) Download(ctx context.Context, sessionID string) (string, error) {
	sess, err := o.store.Get(ctx, sessionID)
	if err != nil {
		return "", err
	}
	if !sess.Done(contracts.StepLaunch) {
		return "", fmt.Errorf("%w: Run Review & Launch first (Launch action).", contracts.ErrPrecondition)
	}
	if sess.OutputPath == "" {
		return "", fmt.Errorf("%w: Output not found.", contracts.ErrNotFound)
	}
	if _, err := os.Stat(sess.OutputPath); err != nil {
		return "", fmt.Errorf("%w: Output not found.", contracts.ErrNotFound)
	}
	return sess.OutputPath, nil
}

// DownloadName is the attachment file name for a path
func DownloadName(path string) string {
	return filepath.Base(path)
}

// Forecast returns the simulated impact forecast of a session
func (o *Orchestrator) Forecast(ctx context.Context, sessionID, lobs string) (*forecast.Forecast, error) {
	sess, err := o.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return o.forecasts.Forecast(ctx, sess.ID, strings.TrimSpace(lobs), sess.RawRows)
}

// Publish acknowledges a publish request with a deterministic reference id
func (o *Orchestrator) Publish(ctx context.Context, req PublishRequest) (*PublishResult, error) {
	if _, err := o.store.Get(ctx, req.SessionID); err != nil {
		return nil, err
	}

	if o.limiter != nil {
		allowed, _, err := o.limiter.Allow(ctx, redis.PublishRateLimit(req.SessionID))
		if err != nil {
			o.logger.WithSession(req.SessionID).WithError(err).Warn("Publish rate limiter unavailable")
		} else if !allowed {
			return nil, fmt.Errorf("%w: Too many publish requests for this session.", contracts.ErrRateLimited)
		}
	}

	if req.Target == "" {
		req.Target = DefaultPublishTarget
	}
	if req.Mode == "" {
		req.Mode = DefaultPublishMode
	}

	res := &PublishResult{
		OK:          true,
		Status:      PublishStatusQueued,
		ReferenceID: PublishRef(req.SessionID, req.Target),
		Target:      req.Target,
		Mode:        req.Mode,
		EndpointURL: req.EndpointURL,
		Timestamp:   o.timestamp(),
	}

	if err := o.recorder.RecordPublish(ctx, audit.PublishRecord{
		SessionID:   req.SessionID,
		Target:      res.Target,
		Mode:        res.Mode,
		Ref:         res.ReferenceID,
		Status:      res.Status,
		PublishedAt: o.now(),
	}); err != nil {
		o.logger.WithSession(req.SessionID).WithError(err).Warn("Failed to record publish")
	}

	o.logger.WithSession(req.SessionID).WithFields(map[string]interface{}{
		"target": res.Target,
		"ref":    res.ReferenceID,
	}).Info("Publish queued")

	return res, nil
}

// PublishRef is PUB-{session}-{5 digits of hash01(session, target)}
func PublishRef(sessionID, target string) string {
	return fmt.Sprintf("PUB-%s-%05d", sessionID, int(oracle.Hash01(sessionID, target)*100000))
}

// Session returns a snapshot of a stored session
func (o *Orchestrator) Session(ctx context.Context, sessionID string) (*contracts.Session, error) {
	return o.store.Get(ctx, sessionID)
}

// SessionCount reports the number of live sessions
func (o *Orchestrator) SessionCount(ctx context.Context) (int, error) {
	return o.store.Count(ctx)
}

func isClientError(err error) bool {
	return errors.Is(err, contracts.ErrNotFound) ||
		errors.Is(err, contracts.ErrPrecondition) ||
		errors.Is(err, contracts.ErrValidation) ||
		errors.Is(err, contracts.ErrRateLimited) ||
		errors.Is(err, context.Canceled)
}
