package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/maubernardi/analisipolitiche/internal/analysis"
	"github.com/maubernardi/analisipolitiche/internal/cli"
	"github.com/maubernardi/analisipolitiche/internal/config"
	"github.com/maubernardi/analisipolitiche/internal/loader"
	"github.com/maubernardi/analisipolitiche/internal/model"
	"github.com/maubernardi/analisipolitiche/internal/reader"
)

// pipelineResult is one full run: ingestion, classification, aggregation.
type pipelineResult struct {
	engine    *analysis.Engine
	cfg       config.Snapshot
	valid     []model.ValidRow
	discarded []model.DiscardedRow
	tables    []*model.Table
}

// runPipeline executes the pipeline on one workbook with the current
// configuration, stepping a progress bar through the aggregations.
func runPipeline(ctx context.Context, path string, showProgress bool) (*pipelineResult, error) {
	raw, err := reader.File(ctx, path)
	if err != nil {
		return nil, err
	}

	cfg := config.LoadSnapshot()
	valid, discarded := loader.Load(raw, cfg)
	engine := analysis.New(valid, cfg)

	res := &pipelineResult{
		engine:    engine,
		cfg:       cfg,
		valid:     valid,
		discarded: discarded,
	}

	var bar *progressbar.ProgressBar
	if showProgress {
		bar = progressbar.NewOptions(len(engine.Tables()),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionEnableColorCodes(true),
			progressbar.OptionShowCount(),
			progressbar.OptionSetWidth(40),
			progressbar.OptionSetDescription("[cyan][bold]Computing aggregations...[reset]"),
			progressbar.OptionOnCompletion(func() {
				fmt.Fprintln(os.Stderr)
			}),
		)
	}

	for _, tbl := range engine.Tables() {
		res.tables = append(res.tables, tbl)
		if bar != nil {
			_ = bar.Add(1)
		}
	}

	return res, nil
}

func analyzeCmd() *cobra.Command {
	var top int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "analyze <file.xlsx>",
		Short: "Classify a workbook and print the aggregations",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := runPipeline(cmd.Context(), args[0], !asJSON)
			if err != nil {
				return err
			}

			if asJSON {
				return printJSON(res, top)
			}

			printSummary(res)
			if top > 0 {
				fmt.Println(cli.FormatTitle(fmt.Sprintf("Top %d beneficiaries", top)))
				fmt.Println(cli.RenderTable(res.engine.TopPersons(top)))
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&top, "top", 10, "how many beneficiaries to list (0 disables)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "dump every table as JSON")

	return cmd
}

func printSummary(res *pipelineResult) {
	stats := loader.Summarize(res.valid)

	var b strings.Builder
	fmt.Fprintf(&b, "Valid rows      %d\n", stats.Rows)
	fmt.Fprintf(&b, "Beneficiaries   %d\n", stats.Beneficiaries)
	fmt.Fprintf(&b, "Operators       %d\n", stats.Operators)
	if !stats.First.IsZero() {
		fmt.Fprintf(&b, "Period          %s - %s\n",
			stats.First.Format("02/01/2006"), stats.Last.Format("02/01/2006"))
	}
	fmt.Fprintf(&b, "Total revenue   € %.2f\n", res.engine.TotalRevenue())
	fmt.Fprintf(&b, "Discarded rows  %d", len(res.discarded))

	for _, rc := range loader.DiscardSummary(res.discarded) {
		b.WriteString("\n")
		b.WriteString(cli.SubtleStyle.Render(fmt.Sprintf("  %d × %s", rc.Count, rc.Reason)))
	}

	fmt.Println(cli.RenderBox("Analysis", b.String()))
}

func printJSON(res *pipelineResult, top int) error {
	type tableJSON struct {
		Name    string   `json:"name"`
		Columns []string `json:"columns"`
		Rows    [][]any  `json:"rows"`
	}

	tables := res.tables
	if top > 0 {
		tables = append(tables, res.engine.TopPersons(top))
	}

	out := make([]tableJSON, 0, len(tables))
	for _, tbl := range tables {
		rows := tbl.Rows
		if rows == nil {
			rows = [][]any{}
		}
		out = append(out, tableJSON{Name: tbl.Name, Columns: tbl.Columns, Rows: rows})
	}

	stats := loader.Summarize(res.valid)
	payload := map[string]any{
		"valid":           stats.Rows,
		"beneficiaries":   stats.Beneficiaries,
		"operators":       stats.Operators,
		"total_revenue":   res.engine.TotalRevenue(),
		"discarded":       len(res.discarded),
		"discard_summary": loader.DiscardSummary(res.discarded),
		"tables":          out,
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(payload)
}
