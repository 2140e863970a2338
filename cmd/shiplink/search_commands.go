package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/spf13/cobra"

	"github.com/shiplink/internal/archive"
	"github.com/shiplink/internal/crew"
	"github.com/shiplink/internal/geo"
	"github.com/shiplink/internal/index"
)

// createSearchCmd creates the interactive search commands
func createSearchCmd() *cobra.Command {
	searchCmd := &cobra.Command{
		Use:   "search",
		Short: "Search ships, crew and positions",
	}
	searchCmd.AddCommand(createSearchShipsCmd())
	searchCmd.AddCommand(createSearchCrewCmd())
	searchCmd.AddCommand(createSearchNearbyCmd())
	return searchCmd
}

// createSearchShipsCmd creates the command that ranks voyages against
// a ship name
func createSearchShipsCmd() *cobra.Command {
	var date string
	var nationality string

	cmd := &cobra.Command{
		Use:   "ships [name]",
		Short: "Rank voyages against a ship name",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			rt, err := openRuntime()
			if err != nil {
				log.Fatalf("Failed to start: %v", err)
			}
			defer rt.Close()

			voyages, err := rt.store.AllVoyages(context.Background())
			if err != nil {
				log.Fatalf("Failed to load voyages: %v", err)
			}
			ships := index.New(voyages, rt.scorer(), rt.indexOptions())

			results := ships.Lookup(args[0], archive.ParseDateSpan(date, date), nationality)
			if len(results) == 0 {
				fmt.Println("No matches")
				return
			}

			rows := make([][]string, 0, len(results))
			for _, c := range results {
				rows = append(rows, []string{
					c.Ref,
					c.Name,
					string(c.Tier),
					fmt.Sprintf("%.4f", c.Confidence),
				})
			}
			fmt.Println(renderTable(
				[]string{"Ref", "Ship", "Tier", "Confidence"},
				rows, 4,
			))
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "Voyage date context (YYYY-MM-DD)")
	cmd.Flags().StringVar(&nationality, "nationality", "", "Nationality context (NL, UK, PT, ES, SE)")
	return cmd
}

// createSearchCrewCmd creates the command that ranks muster roll
// entries against a person name
func createSearchCrewCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "crew [name]",
		Short: "Rank muster roll entries against a person name",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			rt, err := openRuntime()
			if err != nil {
				log.Fatalf("Failed to start: %v", err)
			}
			defer rt.Close()

			records, err := rt.store.AllCrew(context.Background())
			if err != nil {
				log.Fatalf("Failed to load crew: %v", err)
			}

			matches := crew.NewSearcher(records, rt.crewOptions()).Search(args[0])
			if len(matches) == 0 {
				fmt.Println("No matches")
				return
			}

			rows := make([][]string, 0, len(matches))
			for _, m := range matches {
				rows = append(rows, []string{
					m.Ref,
					m.Name,
					m.Rank,
					m.Origin,
					m.VoyageID,
					fmt.Sprintf("%.4f", m.Score),
				})
			}
			fmt.Println(renderTable(
				[]string{"Ref", "Name", "Rank", "Origin", "Voyage", "Score"},
				rows, 6,
			))
		},
	}
}

// createSearchNearbyCmd creates the command that finds logbook tracks
// near a position
func createSearchNearbyCmd() *cobra.Command {
	var lat, lon, radius float64
	var date string
	var limit int

	cmd := &cobra.Command{
		Use:   "nearby",
		Short: "Find logbook tracks that passed near a position",
		Run: func(cmd *cobra.Command, args []string) {
			rt, err := openRuntime()
			if err != nil {
				log.Fatalf("Failed to start: %v", err)
			}
			defer rt.Close()

			tracks, err := rt.geoTracks(context.Background())
			if err != nil {
				log.Fatalf("Failed to load tracks: %v", err)
			}

			var when time.Time
			if date != "" {
				parsed, ok := archive.ParseDate(date)
				if !ok {
					log.Fatalf("Invalid date %q; use YYYY-MM-DD", date)
				}
				when = parsed
			}

			if radius <= 0 {
				radius = rt.cfg.Search.NearbyRadiusKM
			}

			hits := geo.Nearby(tracks, lat, lon, when, radius, limit)
			if len(hits) == 0 {
				fmt.Println("No tracks in range")
				return
			}

			rows := make([][]string, 0, len(hits))
			for _, h := range hits {
				rows = append(rows, []string{
					h.Ref,
					h.Name,
					fmt.Sprintf("%.1f", h.DistanceKM),
					h.Position.Date.Format("2006-01-02"),
				})
			}
			fmt.Println(renderTable(
				[]string{"Ref", "Ship", "Distance (km)", "Logged"},
				rows, 3,
			))
		},
	}

	cmd.Flags().Float64Var(&lat, "lat", 0, "Latitude in decimal degrees")
	cmd.Flags().Float64Var(&lon, "lon", 0, "Longitude in decimal degrees")
	cmd.Flags().Float64Var(&radius, "radius", 0, "Search radius in km (default from config)")
	cmd.Flags().StringVar(&date, "date", "", "Only positions logged on this day (YYYY-MM-DD)")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of tracks")
	_ = cmd.MarkFlagRequired("lat")
	_ = cmd.MarkFlagRequired("lon")
	return cmd
}
