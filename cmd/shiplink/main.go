package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/shiplink/internal/web"
)

const version = "0.3.0"

var (
	// Path of the config file, shared by every subcommand.
	configPath string
)

func main() {
	// Create root command
	rootCmd := &cobra.Command{
		Use:   "shiplink",
		Short: "Cross-archive linking for historical shipping records",
		Long: `shiplink resolves the scattered records of East India trade voyages:
wreck registers, vessel registries, hull profiles and CLIWOC logbook
tracks, linked by explicit cross-references where the archives carry
them and by fuzzy ship name matching where they do not.`,
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to the configuration file")

	// Add subcommands
	rootCmd.AddCommand(createServeCmd())
	rootCmd.AddCommand(createImportCmd())
	rootCmd.AddCommand(createLinkCmd())
	rootCmd.AddCommand(createAuditCmd())
	rootCmd.AddCommand(createSearchCmd())
	rootCmd.AddCommand(createStatsCmd())
	rootCmd.AddCommand(createConfigCmd())

	// Execute root command
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

// createServeCmd creates the command that runs the HTTP API server
func createServeCmd() *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the linking API over HTTP",
		Run: func(cmd *cobra.Command, args []string) {
			rt, err := openRuntime()
			if err != nil {
				log.Fatalf("Failed to start: %v", err)
			}
			defer rt.Close()

			if listen != "" {
				rt.cfg.Server.Listen = listen
			}

			deps, err := rt.serverDeps(context.Background())
			if err != nil {
				log.Fatalf("Failed to wire server: %v", err)
			}

			server, err := web.NewServer(rt.cfg, deps)
			if err != nil {
				log.Fatalf("Failed to create server: %v", err)
			}

			fmt.Printf("=== shiplink %s ===\n", version)
			fmt.Printf("Store: %s\n", rt.store.Path())
			if rt.cfg.Trail.Enabled {
				fmt.Println("Trail: enabled")
			}
			fmt.Printf("\nStarting web server on http://%s\n", rt.cfg.Server.Listen)

			if err := server.Start(); err != nil {
				log.Fatalf("Server failed: %v", err)
			}
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "Override the configured listen address")
	return cmd
}
