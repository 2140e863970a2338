package link

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/shiplink/internal/archive"
	"github.com/shiplink/internal/index"
	"github.com/shiplink/internal/match"
)

// ErrUnknownVoyage reports a voyage id with no record behind it.
// Callers that sweep over externally supplied ids (the auditor, the
// web API) treat it as a data problem rather than a system failure.
var ErrUnknownVoyage = errors.New("unknown voyage")

// Stores is the read surface the orchestrator needs. *store.Store
// satisfies it; tests substitute fixtures.
type Stores interface {
	VoyageByID(ctx context.Context, id string) (*archive.Record, error)
	WreckByVoyage(ctx context.Context, voyageID string) (*archive.Record, error)
	VesselByVoyage(ctx context.Context, voyageID string) (*archive.Record, error)
	HullProfileByType(ctx context.Context, shipType string) (*archive.Record, error)
	TrackByCrossRef(ctx context.Context, voyageID string) (*archive.Record, error)
	TrackPoints(ctx context.Context, trackID string) ([]archive.TrackPoint, error)
}

// Recorder receives every resolved link for the persistent trail.
// Optional; a nil recorder disables recording.
type Recorder interface {
	RecordLink(ctx context.Context, runID string, voyage *archive.Record, l *Link) error
}

// Config carries the orchestrator's collaborators. Stores, Index,
// Scorer and Registry are required.
type Config struct {
	Stores   Stores
	Index    *index.Index
	Scorer   *match.Scorer
	Registry *archive.Registry
	Trail    Recorder
	Logger   *slog.Logger
}

// Orchestrator resolves the four link types for a voyage. It holds no
// per-request state and is safe for concurrent use.
type Orchestrator struct {
	stores   Stores
	index    *index.Index
	scorer   *match.Scorer
	registry *archive.Registry
	trail    Recorder
	log      *slog.Logger
}

func New(cfg Config) (*Orchestrator, error) {
	if cfg.Stores == nil {
		return nil, errors.New("link: Stores is required")
	}
	if cfg.Index == nil {
		return nil, errors.New("link: Index is required")
	}
	if cfg.Scorer == nil {
		return nil, errors.New("link: Scorer is required")
	}
	if cfg.Registry == nil {
		return nil, errors.New("link: Registry is required")
	}
	log := cfg.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Orchestrator{
		stores:   cfg.Stores,
		index:    cfg.Index,
		scorer:   cfg.Scorer,
		registry: cfg.Registry,
		trail:    cfg.Trail,
		log:      log.With("component", "link"),
	}, nil
}

// FullView loads the voyage and resolves all four link types. Absent
// counterparts are omitted from the view; only store failures error.
func (o *Orchestrator) FullView(ctx context.Context, voyageID string) (*LinkedView, error) {
	voyage, err := o.stores.VoyageByID(ctx, voyageID)
	if err != nil {
		return nil, fmt.Errorf("load voyage %s: %w", voyageID, err)
	}
	if voyage == nil {
		return nil, fmt.Errorf("voyage %s: %w", voyageID, ErrUnknownVoyage)
	}

	view := &LinkedView{Voyage: voyage, RunID: uuid.NewString()}

	wreck, err := o.resolveWreck(ctx, voyage)
	if err != nil {
		return nil, fmt.Errorf("resolve wreck for %s: %w", voyageID, err)
	}
	view.add(wreck)

	vessel, err := o.resolveVessel(ctx, voyage)
	if err != nil {
		return nil, fmt.Errorf("resolve vessel for %s: %w", voyageID, err)
	}
	view.add(vessel)

	hull, err := o.resolveHull(ctx, voyage)
	if err != nil {
		return nil, fmt.Errorf("resolve hull profile for %s: %w", voyageID, err)
	}
	view.add(hull)

	track, err := o.ResolveTrack(ctx, voyage)
	if err != nil {
		return nil, fmt.Errorf("resolve track for %s: %w", voyageID, err)
	}
	view.add(track)

	o.log.Debug("view assembled",
		"voyage", voyage.Ref(),
		"ship", voyage.Name,
		"links", view.LinksFound(),
		"run_id", view.RunID)

	o.record(ctx, view)
	return view, nil
}

// ResolveTrack links a voyage to a logbook track: by the track's
// recorded cross-reference when one exists, otherwise by fuzzy ship
// name lookup scoped to the archive's nationality. Exported so the
// auditor can test track resolution in isolation.
func (o *Orchestrator) ResolveTrack(ctx context.Context, voyage *archive.Record) (*Link, error) {
	track, err := o.stores.TrackByCrossRef(ctx, voyage.ID)
	if err != nil {
		return nil, err
	}
	if track != nil {
		return &Link{
			Type:       TypeTrack,
			Record:     track,
			Ref:        track.Ref(),
			Name:       track.Name,
			Method:     MethodExact,
			Confidence: 1.0,
		}, nil
	}

	nat := o.registry.Nationality(voyage.Archive)
	if nat == "" {
		nat = voyage.Nationality
	}
	candidates := o.index.Lookup(voyage.Name, voyage.When, nat)
	if len(candidates) == 0 {
		return nil, nil
	}
	best := candidates[0]
	o.log.Debug("fuzzy track match",
		"voyage", voyage.Ref(),
		"track", best.Ref,
		"confidence", best.Confidence,
		"tier", best.Tier)
	return &Link{
		Type:       TypeTrack,
		Record:     best.Record,
		Ref:        best.Ref,
		Name:       best.Name,
		Method:     MethodFuzzy,
		Confidence: best.Confidence,
		Candidate:  &best,
	}, nil
}

func (o *Orchestrator) resolveWreck(ctx context.Context, voyage *archive.Record) (*Link, error) {
	wreck, err := o.stores.WreckByVoyage(ctx, voyage.ID)
	if err != nil || wreck == nil {
		return nil, err
	}
	return &Link{
		Type:       TypeWreck,
		Record:     wreck,
		Ref:        wreck.Ref(),
		Name:       wreck.Name,
		Method:     MethodExact,
		Confidence: 1.0,
	}, nil
}

func (o *Orchestrator) resolveVessel(ctx context.Context, voyage *archive.Record) (*Link, error) {
	vessel, err := o.stores.VesselByVoyage(ctx, voyage.ID)
	if err != nil || vessel == nil {
		return nil, err
	}
	return &Link{
		Type:       TypeVessel,
		Record:     vessel,
		Ref:        vessel.Ref(),
		Name:       vessel.Name,
		Method:     MethodForeignKey,
		Confidence: 1.0,
	}, nil
}

func (o *Orchestrator) resolveHull(ctx context.Context, voyage *archive.Record) (*Link, error) {
	shipType := voyage.StringAttr("ship_type")
	if shipType == "" {
		return nil, nil
	}
	hull, err := o.stores.HullProfileByType(ctx, shipType)
	if err != nil || hull == nil {
		return nil, err
	}
	return &Link{
		Type:       TypeHullProfile,
		Record:     hull,
		Ref:        hull.Ref(),
		Name:       hull.Name,
		Method:     MethodExact,
		Confidence: 1.0,
	}, nil
}

func (o *Orchestrator) record(ctx context.Context, view *LinkedView) {
	if o.trail == nil {
		return
	}
	for _, l := range view.Links() {
		if err := o.trail.RecordLink(ctx, view.RunID, view.Voyage, l); err != nil {
			o.log.Warn("trail record failed",
				"voyage", view.Voyage.Ref(),
				"link_type", l.Type,
				"error", err)
		}
	}
}
