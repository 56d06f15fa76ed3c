package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/maubernardi/analisipolitiche/internal/server"
)

func serveCmd() *cobra.Command {
	var port int
	var dev bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the analysis pipeline over HTTP",
		RunE: func(cmd *cobra.Command, _ []string) error {
			s := server.New(slog.Default(), dev)
			return s.Run(cmd.Context(), fmt.Sprintf(":%d", port))
		},
	}

	cmd.Flags().IntVar(&port, "port", 8080, "port to listen on")
	cmd.Flags().BoolVar(&dev, "dev", false, "run gin in debug mode")

	return cmd
}
