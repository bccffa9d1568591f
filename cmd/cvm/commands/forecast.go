package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/niyax/cvm/backend/internal/forecast"
)

// forecastCmd prints the simulated impact forecast for a session key
var forecastCmd = &cobra.Command{
	Use:   "forecast",
	Short: "Print the simulated impact forecast",
	Long: `Print the deterministic, simulated six-month impact forecast.
The same session id, LOB string and row count always produce the
same numbers.

Example:
  go run ./cmd/cvm forecast --session demo --rows 120000 --lobs DATA,VOICE`,
	RunE: runForecast,
}

var (
	forecastSession string
	forecastRows    int
	forecastLOBs    string
	forecastJSON    bool
)

func init() {
	rootCmd.AddCommand(forecastCmd)

	forecastCmd.Flags().StringVar(&forecastSession, "session", "", "session id (required)")
	forecastCmd.Flags().IntVar(&forecastRows, "rows", 0, "subscriber base size (0 = 50000)")
	forecastCmd.Flags().StringVar(&forecastLOBs, "lobs", "", "LOB selection string")
	forecastCmd.Flags().BoolVar(&forecastJSON, "json", false, "print raw JSON")
	_ = forecastCmd.MarkFlagRequired("session")
}

func runForecast(cmd *cobra.Command, args []string) error {
	f := forecast.NewGenerator().Generate(forecastSession, strings.TrimSpace(forecastLOBs), forecastRows)

	if forecastJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(f)
	}

	PrintDoubleSeparator()
	fmt.Printf("  Impact forecast (simulated)\n")
	PrintSeparator()
	PrintKeyValue("Session", f.SessionID, 18)
	PrintKeyValue("Revenue (M)", fmt.Sprintf("%.1f", f.KPIs.RevenueTotalM), 18)
	PrintKeyValue("Margin (M)", fmt.Sprintf("%.1f", f.KPIs.MarginTotalM), 18)
	PrintKeyValue("Churn avg (%)", fmt.Sprintf("%.2f", f.KPIs.ChurnAvgPct), 18)
	PrintKeyValue("Revenue uplift", fmt.Sprintf("+%.1f%%", f.KPIs.RevUpliftPct), 18)
	PrintKeyValue("Margin uplift", fmt.Sprintf("+%.1f%%", f.KPIs.MarginUpliftPct), 18)
	PrintKeyValue("Churn reduction", fmt.Sprintf("-%.1f%%", f.KPIs.ChurnReductionPct), 18)
	fmt.Println()

	widths := []int{6, 12, 12, 10}
	PrintTableHeader([]string{"Month", "Revenue M", "Margin M", "Churn %"}, widths)
	for i, m := range f.Series.Months6 {
		PrintTableRow([]string{
			m,
			fmt.Sprintf("%.1f", f.Series.Revenue6M[i]),
			fmt.Sprintf("%.1f", f.Series.Margin6M[i]),
			fmt.Sprintf("%.2f", f.Series.Churn6Pct[i]),
		}, widths)
	}
	return nil
}
