package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"modelarena/internal/compare"
	"modelarena/internal/gateway/app"
)

var (
	compareModels    []string
	compareMaxTokens int
	compareJSON      bool
)

var compareCmd = &cobra.Command{
	Use:   "compare [prompt]",
	Short: "Run one comparison without starting the server",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runCompare,
}

func init() {
	compareCmd.Flags().StringSliceVarP(&compareModels, "model", "m", nil, "Model id to query (repeat up to 3 times)")
	compareCmd.Flags().IntVar(&compareMaxTokens, "max-tokens", compare.DefaultMaxTokens, "Maximum tokens to generate per model")
	compareCmd.Flags().BoolVar(&compareJSON, "json", false, "Print the raw results as JSON")
	_ = compareCmd.MarkFlagRequired("model")
}

func runCompare(cmd *cobra.Command, args []string) error {
	prompt := strings.TrimSpace(strings.Join(args, " "))
	if prompt == "" {
		return fmt.Errorf("prompt must not be empty")
	}
	if len(compareModels) > 3 {
		return fmt.Errorf("at most 3 models can be compared, got %d", len(compareModels))
	}
	if compareMaxTokens < 1 || compareMaxTokens > 4096 {
		return fmt.Errorf("--max-tokens must be between 1 and 4096")
	}

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	a, err := app.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize app: %w", err)
	}

	_, invalid := a.Catalog().Partition(compareModels)
	if len(invalid) > 0 {
		return fmt.Errorf("invalid model IDs: %s", strings.Join(invalid, ", "))
	}

	out := a.Orchestrator().Compare(ctx, compare.Request{
		Prompt:    prompt,
		ModelIDs:  compareModels,
		MaxTokens: compareMaxTokens,
	})
	if compareJSON {
		raw, err := sonic.ConfigStd.MarshalIndent(out.Results, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(os.Stdout, string(raw))
		return err
	}
	printComparison(os.Stdout, out)
	return nil
}

func printComparison(w io.Writer, c compare.Comparison) {
	for _, r := range c.Results {
		fmt.Fprintf(w, "== %s (%s) ==\n", r.ModelName, r.ModelID)
		if r.Status != compare.StatusSuccess {
			fmt.Fprintf(w, "error: %s\n\n", r.Error)
			continue
		}
		fmt.Fprintf(w, "%s\n", strings.TrimRight(r.Output, "\n"))
		elapsed := time.Duration(r.Metrics.ResponseTime * float64(time.Second)).Round(time.Millisecond)
		fmt.Fprintf(w, "-- %s tokens in %s (%s tok/s)\n\n",
			humanize.Comma(int64(r.Metrics.TokenCount)),
			elapsed,
			humanize.FtoaWithDigits(r.Metrics.TokensPerSecond, 2),
		)
	}
	fmt.Fprintf(w, "%d succeeded, %d failed\n", c.SuccessCount, c.ErrorCount)
}
