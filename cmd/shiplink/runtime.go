package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/shiplink/internal/archive"
	"github.com/shiplink/internal/audit"
	"github.com/shiplink/internal/config"
	"github.com/shiplink/internal/crew"
	"github.com/shiplink/internal/geo"
	"github.com/shiplink/internal/index"
	"github.com/shiplink/internal/link"
	"github.com/shiplink/internal/logging"
	"github.com/shiplink/internal/match"
	"github.com/shiplink/internal/store"
	"github.com/shiplink/internal/trail"
	"github.com/shiplink/internal/web"
)

// runtime holds the loaded configuration and the open handles shared
// by the subcommands. Close releases them in reverse order.
type runtime struct {
	cfg     *config.Config
	log     *slog.Logger
	store   *store.Store
	trailDB *sql.DB
}

// openRuntime loads the configuration, sets up logging, and opens the
// archive store.
func openRuntime() (*runtime, error) {
	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	logger, err := logging.New(logging.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	if err != nil {
		return nil, err
	}

	st, err := store.Open(cfg.Database.Path)
	if err != nil {
		return nil, err
	}

	return &runtime{cfg: cfg, log: logger, store: st}, nil
}

func (rt *runtime) Close() {
	if rt.trailDB != nil {
		_ = rt.trailDB.Close()
	}
	if rt.store != nil {
		_ = rt.store.Close()
	}
}

func (rt *runtime) scorer() *match.Scorer {
	return match.NewScorer(match.Config{
		Weights: match.Weights{
			Name:        rt.cfg.Matching.NameWeight,
			Date:        rt.cfg.Matching.DateWeight,
			Nationality: rt.cfg.Matching.NationalityWeight,
			Phonetic:    rt.cfg.Matching.PhoneticWeight,
		},
		Threshold:      rt.cfg.Matching.Threshold,
		DateWindowDays: rt.cfg.Matching.DateWindowDays,
		SoundexLength:  rt.cfg.Matching.SoundexLength,
	})
}

func (rt *runtime) indexOptions() index.Options {
	return index.Options{
		MaxResults: rt.cfg.Matching.MaxResults,
		PruneRatio: rt.cfg.Matching.PruneRatio,
	}
}

func (rt *runtime) crewOptions() crew.Options {
	return crew.Options{
		MinScore:   rt.cfg.Search.CrewMinScore,
		MaxResults: rt.cfg.Search.CrewMaxResults,
	}
}

// registry returns the archive registry, honoring a manifest override
// from the configuration.
func (rt *runtime) registry() (*archive.Registry, error) {
	if rt.cfg.Archives.Manifest == "" {
		return archive.DefaultRegistry(), nil
	}
	reg, err := archive.LoadFile(rt.cfg.Archives.Manifest)
	if err != nil {
		return nil, fmt.Errorf("archive manifest: %w", err)
	}
	return reg, nil
}

// orchestrator wires the linking pipeline over the store, with the
// Postgres trail attached when one is configured.
func (rt *runtime) orchestrator(ctx context.Context) (*link.Orchestrator, error) {
	tracks, err := rt.store.AllTracks(ctx)
	if err != nil {
		return nil, fmt.Errorf("load tracks: %w", err)
	}
	registry, err := rt.registry()
	if err != nil {
		return nil, err
	}
	scorer := rt.scorer()

	var recorder link.Recorder
	if rt.cfg.Trail.Enabled {
		db, err := trail.Connect(ctx, rt.cfg.Trail.DSN)
		if err != nil {
			return nil, fmt.Errorf("connect trail: %w", err)
		}
		tr := trail.New(db)
		if err := tr.EnsureSchema(ctx); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("prepare trail schema: %w", err)
		}
		rt.trailDB = db
		recorder = tr
	}

	return link.New(link.Config{
		Stores:   rt.store,
		Index:    index.New(tracks, scorer, rt.indexOptions()),
		Scorer:   scorer,
		Registry: registry,
		Trail:    recorder,
		Logger:   rt.log,
	})
}

// serverDeps assembles everything the HTTP API serves.
func (rt *runtime) serverDeps(ctx context.Context) (web.Deps, error) {
	links, err := rt.orchestrator(ctx)
	if err != nil {
		return web.Deps{}, err
	}
	voyages, err := rt.store.AllVoyages(ctx)
	if err != nil {
		return web.Deps{}, fmt.Errorf("load voyages: %w", err)
	}
	muster, err := rt.store.AllCrew(ctx)
	if err != nil {
		return web.Deps{}, fmt.Errorf("load crew: %w", err)
	}
	tracks, err := rt.geoTracks(ctx)
	if err != nil {
		return web.Deps{}, err
	}

	return web.Deps{
		Store:   rt.store,
		Links:   links,
		Auditor: audit.New(rt.store, links, rt.log),
		Crew:    crew.NewSearcher(muster, rt.crewOptions()),
		Ships:   index.New(voyages, rt.scorer(), rt.indexOptions()),
		Tracks:  tracks,
		Log:     rt.log,
		Version: version,
	}, nil
}

// geoTracks loads every track together with its positions for the
// proximity search.
func (rt *runtime) geoTracks(ctx context.Context) ([]geo.Track, error) {
	records, err := rt.store.AllTracks(ctx)
	if err != nil {
		return nil, fmt.Errorf("load tracks: %w", err)
	}
	tracks := make([]geo.Track, 0, len(records))
	for _, rec := range records {
		points, err := rt.store.TrackPoints(ctx, rec.ID)
		if err != nil {
			return nil, fmt.Errorf("load positions for %s: %w", rec.ID, err)
		}
		tracks = append(tracks, geo.Track{Record: rec, Points: points})
	}
	return tracks, nil
}
