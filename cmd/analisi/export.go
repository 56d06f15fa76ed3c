package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/maubernardi/analisipolitiche/internal/cli"
	"github.com/maubernardi/analisipolitiche/internal/config"
	"github.com/maubernardi/analisipolitiche/internal/exporter"
	"github.com/maubernardi/analisipolitiche/internal/sheets"
)

func exportCmd() *cobra.Command {
	var output string
	var toSheets bool

	cmd := &cobra.Command{
		Use:   "export <file.xlsx>",
		Short: "Classify a workbook and write the styled report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := runPipeline(cmd.Context(), args[0], true)
			if err != nil {
				return err
			}

			data, err := exporter.Export(res.engine, res.valid, res.discarded, res.cfg)
			if err != nil {
				return fmt.Errorf("building workbook: %w", err)
			}

			if output == "" {
				output = fmt.Sprintf("%s_%s.xlsx", config.OutputPrefix(), time.Now().Format("20060102_150405"))
			}
			if err := os.WriteFile(output, data, 0o644); err != nil {
				return fmt.Errorf("writing %s: %w", output, err)
			}
			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Report written to %s", output)))

			if toSheets {
				if err := exportToSheets(cmd, res); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output path (default: <prefix>_<timestamp>.xlsx)")
	cmd.Flags().BoolVar(&toSheets, "sheets", false, "also push the tables to Google Sheets")

	return cmd
}

func exportToSheets(cmd *cobra.Command, res *pipelineResult) error {
	sheetsCfg, err := config.LoadSheetsConfig()
	if err != nil {
		return fmt.Errorf("sheets configuration: %w", err)
	}

	writer, err := sheets.NewWriter(cmd.Context(), *sheetsCfg, slog.Default())
	if err != nil {
		return fmt.Errorf("connecting to Google Sheets: %w", err)
	}

	if err := writer.Write(cmd.Context(), res.tables); err != nil {
		return fmt.Errorf("writing to Google Sheets: %w", err)
	}
	fmt.Println(cli.FormatSuccess("Tables pushed to Google Sheets"))
	return nil
}
