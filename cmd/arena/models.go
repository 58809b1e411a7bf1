package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"modelarena/internal/catalog"
)

var modelsKind string

var modelsCmd = &cobra.Command{
	Use:     "models",
	Aliases: []string{"ls"},
	Short:   "List catalog entries",
	RunE:    runModels,
}

func init() {
	modelsCmd.Flags().StringVar(&modelsKind, "type", "", "Only show live or static entries")
}

func runModels(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	kinds := catalog.Kinds()
	if modelsKind != "" {
		k, ok := catalog.ParseKind(modelsKind)
		if !ok {
			return fmt.Errorf("unknown --type %q: want live or static", modelsKind)
		}
		kinds = []catalog.Kind{k}
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cat, err := catalog.Open(ctx, cfg.CatalogPath, cfg.S3)
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}
	return printModels(os.Stdout, cat, kinds)
}

func printModels(out io.Writer, cat *catalog.Catalog, kinds []catalog.Kind) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tTYPE\tPROVIDER\tCONTEXT\tDETAIL")
	for _, k := range kinds {
		for _, d := range cat.Filter(k, catalog.MaxLimit, 0) {
			b := d.Common()
			ctxLen := "-"
			if b.ContextLength > 0 {
				ctxLen = humanize.Comma(int64(b.ContextLength))
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", b.ID, b.Name, d.Kind(), b.Provider, ctxLen, detail(d))
		}
	}
	return w.Flush()
}

func detail(d catalog.Descriptor) string {
	return catalog.Visit(d,
		func(m catalog.LiveModel) string { return string(m.Backend) + ":" + m.Upstream },
		func(s catalog.StaticBenchmark) string {
			parts := make([]string, 0, len(s.Scores))
			for name, v := range s.Scores {
				if v == nil {
					parts = append(parts, name+"=n/a")
					continue
				}
				parts = append(parts, name+"="+humanize.FtoaWithDigits(*v, 1))
			}
			sort.Strings(parts)
			return strings.Join(parts, " ")
		},
	)
}
