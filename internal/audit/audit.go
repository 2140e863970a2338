// Package audit measures track-linking quality against hand-verified
// voyage-to-track pairs and reports precision, recall and confidence
// spread.
package audit

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/google/uuid"

	"github.com/shiplink/internal/archive"
	"github.com/shiplink/internal/link"
	"github.com/shiplink/internal/store"
)

// Resolver is the slice of the orchestrator the auditor exercises.
type Resolver interface {
	ResolveTrack(ctx context.Context, voyage *archive.Record) (*link.Link, error)
}

// Source supplies the verified pairs, the voyages they reference and
// their muster rolls. *store.Store satisfies it.
type Source interface {
	VoyageByID(ctx context.Context, id string) (*archive.Record, error)
	CrewByVoyage(ctx context.Context, voyageID string) ([]*archive.Record, error)
	GroundTruth(ctx context.Context) ([]store.TruthPair, error)
}

// Report is the outcome of one audit run. A pair counts as a true
// positive when resolution lands on the verified track, a false
// positive when it lands elsewhere, and a false negative when nothing
// resolves. Pairs whose voyage id no longer exists are data quality
// errors and stay out of the precision and recall denominators.
// CrewCoverage is the share of examined voyages that carry at least
// one muster roll entry.
type Report struct {
	RunID             string         `json:"run_id"`
	GroundTruthCount  int            `json:"ground_truth_count"`
	TruePositives     int            `json:"true_positives"`
	FalsePositives    int            `json:"false_positives"`
	FalseNegatives    int            `json:"false_negatives"`
	DataQualityErrors int            `json:"data_quality_errors"`
	Precision         float64        `json:"precision"`
	Recall            float64        `json:"recall"`
	MeanConfidence    float64        `json:"mean_confidence"`
	CrewCoverage      float64        `json:"crew_coverage"`
	Histogram         map[string]int `json:"confidence_histogram"`
	Mismatches        []Mismatch     `json:"mismatches,omitempty"`
}

// Mismatch records one pair that did not resolve to its verified track.
type Mismatch struct {
	VoyageID   string  `json:"voyage_id"`
	Expected   string  `json:"expected_track"`
	Got        string  `json:"got_track,omitempty"`
	Confidence float64 `json:"confidence,omitempty"`
}

// Auditor sweeps the ground truth set through the resolver.
type Auditor struct {
	src      Source
	resolver Resolver
	log      *slog.Logger
}

func New(src Source, resolver Resolver, log *slog.Logger) *Auditor {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Auditor{src: src, resolver: resolver, log: log.With("component", "audit")}
}

// Run resolves every verified pair and tallies the outcome. Store and
// resolver failures abort the run; absent records do not.
func (a *Auditor) Run(ctx context.Context) (*Report, error) {
	pairs, err := a.src.GroundTruth(ctx)
	if err != nil {
		return nil, fmt.Errorf("load ground truth: %w", err)
	}

	report := &Report{
		RunID:            uuid.NewString(),
		GroundTruthCount: len(pairs),
		Histogram:        map[string]int{},
	}
	var (
		confidenceSum float64
		withCrew      int
	)

	for _, pair := range pairs {
		voyage, err := a.src.VoyageByID(ctx, pair.VoyageID)
		if err != nil {
			return nil, fmt.Errorf("load voyage %s: %w", pair.VoyageID, err)
		}
		if voyage == nil {
			report.DataQualityErrors++
			a.log.Warn("ground truth references missing voyage", "voyage_id", pair.VoyageID)
			continue
		}

		muster, err := a.src.CrewByVoyage(ctx, pair.VoyageID)
		if err != nil {
			return nil, fmt.Errorf("load crew for %s: %w", pair.VoyageID, err)
		}
		if len(muster) > 0 {
			withCrew++
		}

		resolved, err := a.resolver.ResolveTrack(ctx, voyage)
		if err != nil {
			return nil, fmt.Errorf("resolve track for %s: %w", pair.VoyageID, err)
		}
		if resolved == nil {
			report.FalseNegatives++
			report.Mismatches = append(report.Mismatches, Mismatch{
				VoyageID: pair.VoyageID,
				Expected: pair.TrackID,
			})
			continue
		}

		got := ""
		if resolved.Record != nil {
			got = resolved.Record.ID
		}
		report.Histogram[histogramBucket(resolved.Confidence)]++
		if got == pair.TrackID {
			report.TruePositives++
			confidenceSum += resolved.Confidence
			continue
		}
		report.FalsePositives++
		report.Mismatches = append(report.Mismatches, Mismatch{
			VoyageID:   pair.VoyageID,
			Expected:   pair.TrackID,
			Got:        got,
			Confidence: resolved.Confidence,
		})
	}

	if denom := report.TruePositives + report.FalsePositives; denom > 0 {
		report.Precision = roundTo4(float64(report.TruePositives) / float64(denom))
	}
	if denom := report.TruePositives + report.FalseNegatives; denom > 0 {
		report.Recall = roundTo4(float64(report.TruePositives) / float64(denom))
	}
	if report.TruePositives > 0 {
		report.MeanConfidence = roundTo4(confidenceSum / float64(report.TruePositives))
	}
	if examined := report.GroundTruthCount - report.DataQualityErrors; examined > 0 {
		report.CrewCoverage = roundTo4(float64(withCrew) / float64(examined))
	}

	a.log.Info("audit complete",
		"run_id", report.RunID,
		"pairs", report.GroundTruthCount,
		"precision", report.Precision,
		"recall", report.Recall)
	return report, nil
}

// histogramBucket maps a confidence to its report bucket. Resolved
// links always clear the 0.5 threshold, so three bands suffice.
func histogramBucket(confidence float64) string {
	switch {
	case confidence >= 0.9:
		return "0.9-1.0"
	case confidence >= 0.7:
		return "0.7-0.9"
	default:
		return "0.5-0.7"
	}
}

func roundTo4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
