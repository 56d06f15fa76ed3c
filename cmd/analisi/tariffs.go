package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/maubernardi/analisipolitiche/internal/cli"
	"github.com/maubernardi/analisipolitiche/internal/config"
	"github.com/maubernardi/analisipolitiche/internal/model"
)

func tariffsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tariffs",
		Short: "Manage the tariff table",
	}

	cmd.AddCommand(tariffsListCmd())
	cmd.AddCommand(tariffsSetCmd())
	cmd.AddCommand(tariffsRemoveCmd())
	cmd.AddCommand(tariffsResetCmd())

	return cmd
}

func tariffsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List tariff codes and their rates",
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg := config.LoadSnapshot()

			tbl := model.NewTable("Tariffs", "Code", "Rate")
			for _, code := range cfg.Codes() {
				tbl.AppendRow(code, cfg.Rate(code))
			}
			fmt.Println(cli.RenderTable(tbl))
			return nil
		},
	}
}

func tariffsSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <code> <rate>",
		Short: "Add or update a tariff",
		Args:  cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			code, err := normalizeCode(args[0])
			if err != nil {
				return err
			}

			rate, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return fmt.Errorf("invalid rate %q: %w", args[1], err)
			}
			if rate < 0 {
				return fmt.Errorf("rate cannot be negative: %s", args[1])
			}

			tariffs := config.LoadSnapshot().Tariffs
			tariffs[code] = rate
			if err := config.SaveTariffs(tariffs); err != nil {
				return fmt.Errorf("saving tariffs: %w", err)
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Tariff %s set to € %.2f", code, rate)))
			return nil
		},
	}
}

func tariffsRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <code>",
		Short: "Remove a tariff",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			code, err := normalizeCode(args[0])
			if err != nil {
				return err
			}

			tariffs := config.LoadSnapshot().Tariffs
			if _, ok := tariffs[code]; !ok {
				return fmt.Errorf("unknown tariff code: %s", code)
			}
			delete(tariffs, code)
			if err := config.SaveTariffs(tariffs); err != nil {
				return fmt.Errorf("saving tariffs: %w", err)
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Tariff %s removed", code)))
			return nil
		},
	}
}

func tariffsResetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Restore the default tariff table",
		RunE: func(_ *cobra.Command, _ []string) error {
			if err := config.SaveTariffs(config.DefaultTariffs()); err != nil {
				return fmt.Errorf("saving tariffs: %w", err)
			}
			fmt.Println(cli.FormatSuccess("Tariff table reset to defaults"))
			return nil
		},
	}
}

// normalizeCode upper-cases a tariff code and checks its shape: one letter
// followed by two digits.
func normalizeCode(arg string) (string, error) {
	code := strings.ToUpper(strings.TrimSpace(arg))
	if len(code) != 3 || model.ParseCode(code) != code {
		return "", fmt.Errorf("invalid tariff code %q: expected a letter followed by two digits, like A03", arg)
	}
	return code, nil
}
