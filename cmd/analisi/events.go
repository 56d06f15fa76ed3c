package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/maubernardi/analisipolitiche/internal/cli"
	"github.com/maubernardi/analisipolitiche/internal/config"
)

func eventsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Manage the excluded-event list",
	}

	cmd.AddCommand(eventsListCmd())
	cmd.AddCommand(eventsAddCmd())
	cmd.AddCommand(eventsRemoveCmd())
	cmd.AddCommand(eventsResetCmd())

	return cmd
}

func eventsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the events whose rows are discarded",
		RunE: func(_ *cobra.Command, _ []string) error {
			events := config.LoadSnapshot().ExcludedEvents
			if len(events) == 0 {
				fmt.Println(cli.SubtleStyle.Render("No excluded events configured."))
				return nil
			}
			for i, event := range events {
				fmt.Printf("%2d. %s\n", i+1, event)
			}
			return nil
		},
	}
}

func eventsAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <event>",
		Short: "Add an event to the exclusion list",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			event := strings.TrimSpace(args[0])
			if event == "" {
				return fmt.Errorf("event cannot be empty")
			}

			events := config.LoadSnapshot().ExcludedEvents
			for _, existing := range events {
				if existing == event {
					return fmt.Errorf("event already excluded: %s", event)
				}
			}
			events = append(events, event)
			if err := config.SaveExcludedEvents(events); err != nil {
				return fmt.Errorf("saving excluded events: %w", err)
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Event excluded: %s", event)))
			return nil
		},
	}
}

func eventsRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <event>",
		Short: "Remove an event from the exclusion list",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			event := strings.TrimSpace(args[0])

			events := config.LoadSnapshot().ExcludedEvents
			kept := events[:0]
			for _, existing := range events {
				if existing != event {
					kept = append(kept, existing)
				}
			}
			if len(kept) == len(events) {
				return fmt.Errorf("event not in exclusion list: %s", event)
			}
			if err := config.SaveExcludedEvents(kept); err != nil {
				return fmt.Errorf("saving excluded events: %w", err)
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Event no longer excluded: %s", event)))
			return nil
		},
	}
}

func eventsResetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Restore the default exclusion list",
		RunE: func(_ *cobra.Command, _ []string) error {
			if err := config.SaveExcludedEvents(config.DefaultExcludedEvents()); err != nil {
				return fmt.Errorf("saving excluded events: %w", err)
			}
			fmt.Println(cli.FormatSuccess("Exclusion list reset to defaults"))
			return nil
		},
	}
}
