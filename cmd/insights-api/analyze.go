package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/kylemck03/PANW-take-home/backend/internal/config"
	"github.com/kylemck03/PANW-take-home/backend/internal/models"
	"github.com/spf13/cobra"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <user-id>",
	Short: "Run a full analysis for one user",
	Long: `Fetch the user's recent health history, run every analyzer once and print
a summary. Results are persisted exactly as the API would persist them.`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

var (
	analyzeDays int
	analyzeJSON bool
)

func init() {
	analyzeCmd.Flags().IntVarP(&analyzeDays, "days", "d", 0, "Analysis window in days (defaults to analysis.default_days)")
	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false, "Print the full analysis bundle as JSON")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	days := analyzeDays
	if days == 0 {
		days = cfg.Analysis.DefaultDays
	}
	if days < cfg.Analysis.MinDays || days > cfg.Analysis.MaxDays {
		return fmt.Errorf("--days must be between %d and %d", cfg.Analysis.MinDays, cfg.Analysis.MaxDays)
	}

	log := newLogger(cfg)
	a, err := newApp(cmd.Context(), cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	bundle, err := a.analysis.RunFullAnalysis(cmd.Context(), args[0], days)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if analyzeJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(bundle)
	}

	printBundle(out, bundle)
	return nil
}

// printBundle writes a human readable recap of an analysis run
func printBundle(w io.Writer, b *models.AnalysisBundle) {
	cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()

	fmt.Fprintf(w, "\n%s\n", cyan("=== Health Analysis ==="))
	fmt.Fprintf(w, "User:     %s\n", b.UserID)
	fmt.Fprintf(w, "Window:   %d days (%d with data, %s to %s)\n",
		b.WindowDays, b.DaysAnalyzed, b.DataRange.Start, b.DataRange.End)
	fmt.Fprintf(w, "Duration: %dms\n\n", b.ExecutionTimeMS)

	fmt.Fprintf(w, "%s\n", yellow("Correlations:"))
	shown := 0
	for _, c := range b.Correlations {
		if !c.Significant || shown == 5 {
			continue
		}
		fmt.Fprintf(w, "  %-24s %-24s r=%+.2f p=%.3f (%s)\n",
			c.MetricA, c.MetricB, c.Coefficient, c.PValue, c.Strength)
		shown++
	}
	if shown == 0 {
		fmt.Fprintln(w, "  none significant")
	}

	fmt.Fprintf(w, "\n%s\n", yellow("Anomalies:"))
	if len(b.Anomalies.Anomalies) == 0 {
		fmt.Fprintln(w, "  none")
	}
	for _, an := range b.Anomalies.Anomalies {
		sev := string(an.Severity)
		if an.Severity == models.SeverityHigh {
			sev = red(sev)
		}
		fmt.Fprintf(w, "  %s  %-24s %.1f (z=%+.1f) %s\n", an.Date, an.Metric, an.Value, an.ZScore, sev)
	}

	fmt.Fprintf(w, "\n%s\n", yellow("Trends:"))
	for _, t := range b.Trends {
		dir := string(t.Direction)
		switch t.Direction {
		case models.TrendIncreasing:
			dir = green(dir)
		case models.TrendDecreasing:
			dir = red(dir)
		}
		fmt.Fprintf(w, "  %-24s %s (%+.1f%%)\n", t.Metric, dir, t.PercentChange)
	}

	fmt.Fprintf(w, "\n%s\n", yellow("Patterns:"))
	for _, p := range b.Patterns {
		mark := "✗"
		if p.Detected {
			mark = green("✓")
		}
		fmt.Fprintf(w, "  %s %s\n", mark, p.Narrative)
	}

	if len(b.Failures) > 0 {
		fmt.Fprintf(w, "\n%s\n", red("Failed analyzers:"))
		for _, f := range b.Failures {
			fmt.Fprintf(w, "  %s: %s\n", f.Analyzer, f.Error)
		}
	}
	fmt.Fprintln(w)
}
