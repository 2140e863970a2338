package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/shiplink/internal/config"
)

// createImportCmd creates the command that loads archive dataset files
// into the store
func createImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import [dir]",
		Short: "Import archive dataset files",
		Long: `Load the JSON dataset files (voyages.json, wrecks.json, vessels.json,
hull_profiles.json, tracks.json, crew.json, ground_truth.json) from a
directory into the store. Files that are absent are skipped.`,
		Args: cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			rt, err := openRuntime()
			if err != nil {
				log.Fatalf("Failed to start: %v", err)
			}
			defer rt.Close()

			registry, err := rt.registry()
			if err != nil {
				log.Fatalf("Failed to load archive registry: %v", err)
			}

			stats, err := rt.store.Import(context.Background(), args[0], registry)
			if err != nil {
				log.Fatalf("Import failed: %v", err)
			}

			fmt.Printf("\n=== Import Summary ===\n")
			fmt.Println(renderTable(
				[]string{"Dataset", "Records"},
				[][]string{
					{"Voyages", strconv.Itoa(stats.Voyages)},
					{"Wrecks", strconv.Itoa(stats.Wrecks)},
					{"Vessels", strconv.Itoa(stats.Vessels)},
					{"Hull profiles", strconv.Itoa(stats.HullProfiles)},
					{"Tracks", strconv.Itoa(stats.Tracks)},
					{"Track points", strconv.Itoa(stats.TrackPoints)},
					{"Crew", strconv.Itoa(stats.Crew)},
					{"Ground truth", strconv.Itoa(stats.GroundTruth)},
				}, 2,
			))

			if len(stats.Missing) > 0 {
				fmt.Printf("\nSkipped (not present): %s\n", strings.Join(stats.Missing, ", "))
			}
		},
	}
}

// createStatsCmd creates the command that shows store record counts
func createStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show store record counts",
		Run: func(cmd *cobra.Command, args []string) {
			rt, err := openRuntime()
			if err != nil {
				log.Fatalf("Failed to start: %v", err)
			}
			defer rt.Close()

			counts, err := rt.store.Counts(context.Background())
			if err != nil {
				log.Fatalf("Failed to count records: %v", err)
			}

			tables := make([]string, 0, len(counts))
			for name := range counts {
				tables = append(tables, name)
			}
			sort.Strings(tables)

			total := 0
			rows := make([][]string, 0, len(tables)+1)
			for _, name := range tables {
				rows = append(rows, []string{name, strconv.Itoa(counts[name])})
				total += counts[name]
			}
			rows = append(rows, []string{"total", strconv.Itoa(total)})

			fmt.Printf("\n=== Store: %s ===\n", rt.store.Path())
			fmt.Println(renderTable([]string{"Table", "Records"}, rows, 2))
		},
	}
}

// createConfigCmd creates the configuration utility commands
func createConfigCmd() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration utilities",
	}
	configCmd.AddCommand(createConfigInitCmd())
	configCmd.AddCommand(createConfigValidateCmd())
	return configCmd
}

// createConfigInitCmd creates the command that writes a sample
// configuration file
func createConfigInitCmd() *cobra.Command {
	var overwrite bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a sample configuration file",
		Long: `Write a commented sample configuration. The file goes to the path
given with --config, or to the default location when none is set.`,
		Run: func(cmd *cobra.Command, args []string) {
			target := configPath
			if target == "" {
				path, err := config.DefaultConfigPath()
				if err != nil {
					log.Fatalf("Failed to resolve config path: %v", err)
				}
				target = path
			} else {
				path, err := config.ExpandPath(target)
				if err != nil {
					log.Fatalf("Failed to resolve config path: %v", err)
				}
				target = path
			}

			if !overwrite {
				if _, err := os.Stat(target); err == nil {
					log.Fatalf("Config file already exists at %s (use --overwrite to replace it)", target)
				}
			}

			if err := config.CreateSample(target); err != nil {
				log.Fatalf("Failed to write sample config: %v", err)
			}
			fmt.Printf("Wrote sample configuration to %s\n", target)
		},
	}

	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Replace an existing file")
	return cmd
}

// createConfigValidateCmd creates the command that checks the
// configuration file
func createConfigValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the configuration file",
		Run: func(cmd *cobra.Command, args []string) {
			cfg, path, exists, err := config.Load(configPath)
			if err != nil {
				log.Fatalf("Configuration invalid: %v", err)
			}

			fmt.Printf("Config file: %s\n", path)
			if !exists {
				fmt.Println("File does not exist; defaults apply")
			}
			fmt.Printf("Store path:  %s\n", cfg.Database.Path)
			fmt.Println("Configuration valid")
		},
	}
}
