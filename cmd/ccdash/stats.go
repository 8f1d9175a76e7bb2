package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/ccdash-io/ccdash/internal/engine"
	"github.com/spf13/cobra"
)

// newStatsCommand builds the "ccdash stats" subcommand: a one-shot,
// non-interactive Metrics snapshot, exercising the facade's Compute
// synchronously instead of entering the bubbletea dashboard.
func newStatsCommand() *cobra.Command {
	var (
		windowHours int
		asJSON      bool
		strict      bool
		configPath  string
	)

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print a one-shot usage metrics snapshot and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := engine.LoadEngineConfig(configPath)
			if err != nil {
				return err
			}
			if strict {
				cfg.StrictUnknownModels = true
			}

			e := engine.NewEngine(cfg)
			defer e.Close()

			end := time.Now().UTC()
			start := end.Add(-time.Duration(windowHours) * time.Hour)

			metrics, err := e.Compute(context.Background(), start, end)
			if err != nil {
				return fmt.Errorf("computing metrics: %w", err)
			}

			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(metrics)
			}

			printStatsTable(metrics)
			return nil
		},
	}

	cmd.Flags().IntVar(&windowHours, "window", 24, "lookback window in hours")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the snapshot as JSON instead of a table")
	cmd.Flags().BoolVar(&strict, "strict-models", false, "fail on unrecognized model identifiers instead of falling back to sonnet rates")
	cmd.Flags().StringVar(&configPath, "config", engine.DefaultConfigPath(), "path to an optional ccdash config.yaml")

	return cmd
}

func printStatsTable(m *engine.Metrics) {
	fmt.Printf("Cost usage:       $%.2f\n", m.CostUsage)
	fmt.Printf("Token usage:      %d\n", m.TokenUsage)
	fmt.Printf("Messages usage:   %d\n", m.MessagesUsage)
	fmt.Printf("Time to reset:    %s\n", m.TimeToReset.Round(time.Second))
	fmt.Printf("Limit resets at:  %s\n", m.LimitResetsAt.Format(time.RFC3339))
	if m.Burn.Available {
		fmt.Printf("Burn rate:        %.1f tok/min, $%.2f/hr\n", m.Burn.TokensPerMinute, m.Burn.CostPerHour)
	} else {
		fmt.Println("Burn rate:        (not enough recent activity)")
	}
	if m.TokensWillRunOut != nil {
		fmt.Printf("Predicted exhaustion: %s\n", m.TokensWillRunOut.Format(time.RFC3339))
	}
	fmt.Printf("P90 limits:       tokens=%.0f cost=$%.2f messages=%.0f\n", m.P90.TokenLimit, m.P90.CostLimit, m.P90.MessageLimit)
	fmt.Printf("Blocks:           %d\n", len(m.Blocks))

	if len(m.ModelDistribution) > 0 {
		fmt.Println()
		fmt.Println("By model:")
		for model, ms := range m.ModelDistribution {
			pctToken := 0.0
			if ms.PercentToken != nil {
				pctToken = *ms.PercentToken
			}
			fmt.Printf("  %-30s %10d tokens (%.1f%%)  $%.2f\n", model, ms.Tokens.Usage(), pctToken, ms.CostUSD)
		}
	}

	if m.Stats.FilesSkipped+m.Stats.LinesSkipped+m.Stats.DuplicatesSkipped > 0 {
		fmt.Println()
		fmt.Printf("Skipped: %d files, %d lines, %d duplicates\n", m.Stats.FilesSkipped, m.Stats.LinesSkipped, m.Stats.DuplicatesSkipped)
	}
}
