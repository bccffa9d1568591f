package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/niyax/cvm/backend/internal/contracts"
	"github.com/niyax/cvm/backend/internal/pipeline"
)

// runCmd runs the whole pipeline over a local CSV
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run all four steps over a CSV file",
	Long: `Run lifecycle, opportunity, offers and launch over a local CSV
with an in-memory session store and no step delay.

Example:
  go run ./cmd/cvm run --input base.csv
  go run ./cmd/cvm run --input base.csv --lobs DATA,VOICE --types Upsell,Retain
  go run ./cmd/cvm run --input base.csv --counts Upsell=3,Retain=1 --out campaign.csv`,
	RunE: runPipeline,
}

var (
	runInput      string
	runLOBs       []string
	runTypes      []string
	runCounts     []string
	runOfferCount int
	runOut        string
)

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVar(&runInput, "input", "", "subscriber CSV file (required)")
	runCmd.Flags().StringSliceVar(&runLOBs, "lobs", nil, "lines of business (default DATA,VOICE,VAS)")
	runCmd.Flags().StringSliceVar(&runTypes, "types", []string{"Auto"}, "opportunity types")
	runCmd.Flags().StringSliceVar(&runCounts, "counts", nil, "offers per opportunity type, e.g. Upsell=3")
	runCmd.Flags().IntVar(&runOfferCount, "offer-count", 0, "offers for types without an explicit count (1-3)")
	runCmd.Flags().StringVar(&runOut, "out", "", "copy the export to this path")
	_ = runCmd.MarkFlagRequired("input")
}

func runPipeline(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// offline: nothing shared, nothing slowed down
	cfg.Session.Backend = "memory"
	cfg.Redis.Enabled = false
	cfg.Database.URL = ""
	cfg.Pipeline.StepDelay = 0

	counts, err := parseCounts(runCounts)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	a, err := buildApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	f, err := os.Open(runInput)
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}
	defer f.Close()

	start := time.Now()
	up, err := a.pipeline.Upload(ctx, runInput, f)
	if err != nil {
		return fmt.Errorf("upload: %s", contracts.Message(err))
	}

	PrintDoubleSeparator()
	fmt.Printf("  CVM pipeline run\n")
	PrintSeparator()
	PrintKeyValue("Input", runInput, 10)
	PrintKeyValue("Session", up.SessionID, 10)
	PrintKeyValue("Rows", strconv.Itoa(up.Rows), 10)
	PrintKeyValue("Columns", strconv.Itoa(up.Cols), 10)
	PrintKeyValue("Quality", fmt.Sprintf("%.2f", up.Quality.Score), 10)
	PrintSeparator()

	req := pipeline.StepRequest{
		SessionID:         up.SessionID,
		LOBs:              runLOBs,
		OpportunityTypes:  runTypes,
		OfferCountsPerOpp: counts,
	}
	if cmd.Flags().Changed("offer-count") {
		req.OfferCount = &runOfferCount
	}

	steps := contracts.AllSteps()
	for i, step := range steps {
		req.Step = step.String()
		res, err := a.pipeline.RunStep(ctx, req)
		if err != nil {
			return fmt.Errorf("%s: %s", step, contracts.Message(err))
		}
		PrintProgress(step.Title(), fmt.Sprintf("%d rows in %dms", res.Rows, res.DurationMS), i+1, len(steps))
	}

	sess, err := a.pipeline.Session(ctx, up.SessionID)
	if err != nil {
		return err
	}

	fmt.Println()
	printDistribution("Lifecycle stage", sess.Steps[contracts.StepLifecycle], contracts.ColLifecycleStage)
	fmt.Println()
	printDistribution("Opportunity", sess.Steps[contracts.StepOpportunity], contracts.ColOpportunity)

	path, err := a.pipeline.Download(ctx, up.SessionID)
	if err != nil {
		return fmt.Errorf("download: %s", contracts.Message(err))
	}
	if runOut != "" {
		if err := copyFile(path, runOut); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
		path = runOut
	}

	PrintSuccess(fmt.Sprintf("Campaign written to %s in %.2fs", path, time.Since(start).Seconds()))
	return nil
}

// parseCounts reads "Type=N" pairs
func parseCounts(pairs []string) (map[string]int, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	out := make(map[string]int, len(pairs))
	for _, p := range pairs {
		key, value, ok := strings.Cut(p, "=")
		if !ok || strings.TrimSpace(key) == "" {
			return nil, fmt.Errorf("invalid count %q (expected Type=N)", p)
		}
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return nil, fmt.Errorf("invalid count %q: %w", p, err)
		}
		out[strings.TrimSpace(key)] = n
	}
	return out, nil
}

// printDistribution prints value counts of one column, most frequent first
func printDistribution(title string, table *contracts.Table, column string) {
	if table == nil {
		return
	}
	idx := table.Column(column)
	if idx < 0 {
		return
	}

	counts := make(map[string]int)
	for _, row := range table.Rows {
		counts[row[idx]]++
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if counts[keys[i]] != counts[keys[j]] {
			return counts[keys[i]] > counts[keys[j]]
		}
		return keys[i] < keys[j]
	})

	widths := []int{24, 8}
	PrintTableHeader([]string{title, "Count"}, widths)
	for _, k := range keys {
		PrintTableRow([]string{k, strconv.Itoa(counts[k])}, widths)
	}
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
