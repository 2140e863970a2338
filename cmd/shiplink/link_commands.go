package main

import (
	"context"
	"fmt"
	"log"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/shiplink/internal/audit"
)

// createLinkCmd creates the command that assembles the cross-archive
// view of one voyage
func createLinkCmd() *cobra.Command {
	var showTimeline bool

	cmd := &cobra.Command{
		Use:   "link [voyage-id]",
		Short: "Resolve every link for one voyage",
		Long: `Assemble the cross-archive view of a voyage: its wreck record, vessel
registry entry, hull profile and logbook track, with the method and
confidence behind each link.`,
		Args: cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			rt, err := openRuntime()
			if err != nil {
				log.Fatalf("Failed to start: %v", err)
			}
			defer rt.Close()

			ctx := context.Background()
			links, err := rt.orchestrator(ctx)
			if err != nil {
				log.Fatalf("Failed to wire pipeline: %v", err)
			}

			view, events, err := links.Timeline(ctx, args[0])
			if err != nil {
				log.Fatalf("Failed to resolve voyage %s: %v", args[0], err)
			}

			fmt.Printf("\n=== %s ===\n", view.Summary())
			fmt.Printf("Run ID: %s\n\n", view.RunID)

			resolved := view.Links()
			if len(resolved) == 0 {
				fmt.Println("No links resolved")
			} else {
				rows := make([][]string, 0, len(resolved))
				for _, l := range resolved {
					rows = append(rows, []string{
						string(l.Type),
						l.Ref,
						l.Name,
						string(l.Method),
						fmt.Sprintf("%.4f", l.Confidence),
					})
				}
				fmt.Println(renderTable(
					[]string{"Link", "Ref", "Name", "Method", "Confidence"},
					rows, 5,
				))
			}

			if showTimeline {
				fmt.Printf("\n=== Timeline ===\n")
				if len(events) == 0 {
					fmt.Println("No dated events")
					return
				}
				rows := make([][]string, 0, len(events))
				for _, e := range events {
					rows = append(rows, []string{
						e.Date.Format("2006-01-02"),
						e.Type,
						e.Detail,
						e.Source,
					})
				}
				fmt.Println(renderTable(
					[]string{"Date", "Event", "Detail", "Source"},
					rows,
				))
			}
		},
	}

	cmd.Flags().BoolVar(&showTimeline, "timeline", false, "Show the merged chronological timeline")
	return cmd
}

// createAuditCmd creates the command that measures link quality
// against the ground truth set
func createAuditCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "audit",
		Short: "Measure link quality against ground truth",
		Long: `Re-resolve every hand-verified voyage-to-track pair and report
precision, recall and the confidence spread.`,
		Run: func(cmd *cobra.Command, args []string) {
			rt, err := openRuntime()
			if err != nil {
				log.Fatalf("Failed to start: %v", err)
			}
			defer rt.Close()

			ctx := context.Background()
			links, err := rt.orchestrator(ctx)
			if err != nil {
				log.Fatalf("Failed to wire pipeline: %v", err)
			}

			report, err := audit.New(rt.store, links, rt.log).Run(ctx)
			if err != nil {
				log.Fatalf("Audit failed: %v", err)
			}

			fmt.Printf("\n=== Link Audit ===\n")
			fmt.Printf("Run ID: %s\n\n", report.RunID)
			fmt.Println(renderTable(
				[]string{"Metric", "Value"},
				[][]string{
					{"Ground truth pairs", strconv.Itoa(report.GroundTruthCount)},
					{"True positives", strconv.Itoa(report.TruePositives)},
					{"False positives", strconv.Itoa(report.FalsePositives)},
					{"False negatives", strconv.Itoa(report.FalseNegatives)},
					{"Data quality errors", strconv.Itoa(report.DataQualityErrors)},
					{"Precision", fmt.Sprintf("%.4f", report.Precision)},
					{"Recall", fmt.Sprintf("%.4f", report.Recall)},
					{"Mean confidence", fmt.Sprintf("%.4f", report.MeanConfidence)},
					{"Crew coverage", fmt.Sprintf("%.4f", report.CrewCoverage)},
				}, 2,
			))

			if len(report.Histogram) > 0 {
				rows := make([][]string, 0, len(report.Histogram))
				for _, bucket := range []string{"0.9-1.0", "0.7-0.9", "0.5-0.7"} {
					if n, ok := report.Histogram[bucket]; ok {
						rows = append(rows, []string{bucket, strconv.Itoa(n)})
					}
				}
				fmt.Printf("\n=== Confidence Histogram ===\n")
				fmt.Println(renderTable([]string{"Bucket", "Links"}, rows, 2))
			}

			if len(report.Mismatches) > 0 {
				rows := make([][]string, 0, len(report.Mismatches))
				for _, m := range report.Mismatches {
					got := m.Got
					if got == "" {
						got = "(none)"
					}
					rows = append(rows, []string{
						m.VoyageID,
						m.Expected,
						got,
						fmt.Sprintf("%.4f", m.Confidence),
					})
				}
				fmt.Printf("\n=== Mismatches ===\n")
				fmt.Println(renderTable(
					[]string{"Voyage", "Expected", "Got", "Confidence"},
					rows, 4,
				))
			}
		},
	}
}
