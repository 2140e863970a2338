package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/shiplink/internal/archive"
)

// Dataset file names expected under the import directory. Absent files
// are skipped and reported in ImportStats.Missing.
const (
	voyagesFile      = "voyages.json"
	wrecksFile       = "wrecks.json"
	vesselsFile      = "vessels.json"
	hullProfilesFile = "hull_profiles.json"
	tracksFile       = "tracks.json"
	crewFile         = "crew.json"
	groundTruthFile  = "ground_truth.json"
)

// ImportStats summarizes one import run.
type ImportStats struct {
	Voyages      int      `json:"voyages"`
	Wrecks       int      `json:"wrecks"`
	Vessels      int      `json:"vessels"`
	HullProfiles int      `json:"hull_profiles"`
	Tracks       int      `json:"tracks"`
	TrackPoints  int      `json:"track_points"`
	Crew         int      `json:"crew"`
	GroundTruth  int      `json:"ground_truth"`
	Missing      []string `json:"missing,omitempty"`
}

type voyageRow struct {
	ID              string `json:"id"`
	Archive         string `json:"archive"`
	ShipName        string `json:"ship_name"`
	ShipType        string `json:"ship_type"`
	Nationality     string `json:"nationality"`
	Captain         string `json:"captain"`
	DeparturePort   string `json:"departure_port"`
	DepartureDate   string `json:"departure_date"`
	DestinationPort string `json:"destination_port"`
	ArrivalDate     string `json:"arrival_date"`
	Fate            string `json:"fate"`
	Tonnage         int    `json:"tonnage"`
}

type wreckRow struct {
	ID       string  `json:"id"`
	Archive  string  `json:"archive"`
	VoyageID string  `json:"voyage_id"`
	Name     string  `json:"name"`
	Date     string  `json:"date"`
	Place    string  `json:"place"`
	Cause    string  `json:"cause"`
	Lat      float64 `json:"lat"`
	Lon      float64 `json:"lon"`
}

type vesselRow struct {
	ID          string   `json:"id"`
	Archive     string   `json:"archive"`
	Name        string   `json:"name"`
	Nationality string   `json:"nationality"`
	BuiltYear   int      `json:"built_year"`
	Tonnage     int      `json:"tonnage"`
	Chamber     string   `json:"chamber"`
	VoyageIDs   []string `json:"voyage_ids"`
}

type hullProfileRow struct {
	ID          string  `json:"id"`
	Archive     string  `json:"archive"`
	ShipType    string  `json:"ship_type"`
	Name        string  `json:"name"`
	LengthM     float64 `json:"length_m"`
	BeamM       float64 `json:"beam_m"`
	DraftM      float64 `json:"draft_m"`
	Tonnage     int     `json:"tonnage"`
	CrewTypical int     `json:"crew_typical"`
}

type trackRow struct {
	ID          string `json:"id"`
	Archive     string `json:"archive"`
	ShipName    string `json:"ship_name"`
	Nationality string `json:"nationality"`
	CrossRef    string `json:"cross_ref"`
	DateFrom    string `json:"date_from"`
	DateTo      string `json:"date_to"`
	Positions   []struct {
		Date string  `json:"date"`
		Lat  float64 `json:"lat"`
		Lon  float64 `json:"lon"`
	} `json:"positions"`
}

type crewRow struct {
	ID              string `json:"id"`
	Archive         string `json:"archive"`
	VoyageID        string `json:"voyage_id"`
	Name            string `json:"name"`
	Rank            string `json:"rank"`
	Origin          string `json:"origin"`
	EmbarkationDate string `json:"embarkation_date"`
	MonthlyPay      int    `json:"monthly_pay_guilders"`
}

// Import loads the JSON dataset files from dir inside one transaction.
// Any malformed row aborts the whole run; missing files are tolerated
// so partial datasets can be loaded during development. Rows without
// an explicit nationality get the default for their archive from reg;
// a nil reg selects the embedded registry.
func (s *Store) Import(ctx context.Context, dir string, reg *archive.Registry) (*ImportStats, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin import tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	stats := &ImportStats{}
	if reg == nil {
		reg = archive.DefaultRegistry()
	}

	var voyages []voyageRow
	if ok, err := readDataset(dir, voyagesFile, &voyages); err != nil {
		return nil, err
	} else if !ok {
		stats.Missing = append(stats.Missing, voyagesFile)
	}
	for i, row := range voyages {
		kind, err := archive.ParseKind(row.Archive)
		if err != nil {
			return nil, fmt.Errorf("%s[%d]: %w", voyagesFile, i, err)
		}
		rec := &archive.Record{
			Archive:     kind,
			Type:        archive.TypeVoyage,
			ID:          row.ID,
			Name:        row.ShipName,
			Nationality: defaultNationality(reg, kind, row.Nationality),
			When:        archive.ParseDateSpan(row.DepartureDate, row.ArrivalDate),
			Attrs:       voyageAttrs(row),
		}
		if err := insertVoyage(ctx, tx, rec); err != nil {
			return nil, err
		}
		stats.Voyages++
	}

	var wrecks []wreckRow
	if ok, err := readDataset(dir, wrecksFile, &wrecks); err != nil {
		return nil, err
	} else if !ok {
		stats.Missing = append(stats.Missing, wrecksFile)
	}
	for i, row := range wrecks {
		kind, err := archive.ParseKind(row.Archive)
		if err != nil {
			return nil, fmt.Errorf("%s[%d]: %w", wrecksFile, i, err)
		}
		rec := &archive.Record{
			Archive: kind,
			Type:    archive.TypeWreck,
			ID:      row.ID,
			Name:    row.Name,
			When:    archive.ParseDateSpan(row.Date, ""),
			Attrs:   wreckAttrs(row),
		}
		if err := insertWreck(ctx, tx, rec, row.VoyageID); err != nil {
			return nil, err
		}
		stats.Wrecks++
	}

	var vessels []vesselRow
	if ok, err := readDataset(dir, vesselsFile, &vessels); err != nil {
		return nil, err
	} else if !ok {
		stats.Missing = append(stats.Missing, vesselsFile)
	}
	for i, row := range vessels {
		kind, err := archive.ParseKind(row.Archive)
		if err != nil {
			return nil, fmt.Errorf("%s[%d]: %w", vesselsFile, i, err)
		}
		rec := &archive.Record{
			Archive:     kind,
			Type:        archive.TypeVessel,
			ID:          row.ID,
			Name:        row.Name,
			Nationality: defaultNationality(reg, kind, row.Nationality),
			Attrs:       vesselAttrs(row),
		}
		if err := insertVessel(ctx, tx, rec, row.VoyageIDs); err != nil {
			return nil, err
		}
		stats.Vessels++
	}

	var hulls []hullProfileRow
	if ok, err := readDataset(dir, hullProfilesFile, &hulls); err != nil {
		return nil, err
	} else if !ok {
		stats.Missing = append(stats.Missing, hullProfilesFile)
	}
	for i, row := range hulls {
		kind, err := archive.ParseKind(row.Archive)
		if err != nil {
			return nil, fmt.Errorf("%s[%d]: %w", hullProfilesFile, i, err)
		}
		rec := &archive.Record{
			Archive: kind,
			Type:    archive.TypeHullProfile,
			ID:      row.ID,
			Name:    row.Name,
			Attrs:   hullAttrs(row),
		}
		if err := insertHullProfile(ctx, tx, rec, row.ShipType); err != nil {
			return nil, err
		}
		stats.HullProfiles++
	}

	var tracks []trackRow
	if ok, err := readDataset(dir, tracksFile, &tracks); err != nil {
		return nil, err
	} else if !ok {
		stats.Missing = append(stats.Missing, tracksFile)
	}
	for i, row := range tracks {
		kind, err := archive.ParseKind(row.Archive)
		if err != nil {
			return nil, fmt.Errorf("%s[%d]: %w", tracksFile, i, err)
		}
		rec := &archive.Record{
			Archive:     kind,
			Type:        archive.TypeTrack,
			ID:          row.ID,
			Name:        row.ShipName,
			Nationality: defaultNationality(reg, kind, row.Nationality),
			When:        archive.ParseDateSpan(row.DateFrom, row.DateTo),
		}
		points := make([]archive.TrackPoint, 0, len(row.Positions))
		for _, p := range row.Positions {
			point := archive.TrackPoint{Lat: p.Lat, Lon: p.Lon}
			if t, ok := archive.ParseDate(p.Date); ok {
				point.Date = t
			}
			points = append(points, point)
		}
		if err := insertTrack(ctx, tx, rec, row.CrossRef, points); err != nil {
			return nil, err
		}
		stats.Tracks++
		stats.TrackPoints += len(points)
	}

	var crew []crewRow
	if ok, err := readDataset(dir, crewFile, &crew); err != nil {
		return nil, err
	} else if !ok {
		stats.Missing = append(stats.Missing, crewFile)
	}
	for i, row := range crew {
		kind, err := archive.ParseKind(row.Archive)
		if err != nil {
			return nil, fmt.Errorf("%s[%d]: %w", crewFile, i, err)
		}
		rec := &archive.Record{
			Archive: kind,
			Type:    archive.TypeCrew,
			ID:      row.ID,
			Name:    row.Name,
			Attrs:   crewAttrs(row),
		}
		if err := insertCrew(ctx, tx, rec, row.VoyageID); err != nil {
			return nil, err
		}
		stats.Crew++
	}

	var pairs []TruthPair
	if ok, err := readDataset(dir, groundTruthFile, &pairs); err != nil {
		return nil, err
	} else if !ok {
		stats.Missing = append(stats.Missing, groundTruthFile)
	}
	for _, p := range pairs {
		if err := addGroundTruth(ctx, tx, p.VoyageID, p.TrackID); err != nil {
			return nil, err
		}
		stats.GroundTruth++
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit import: %w", err)
	}
	return stats, nil
}

// readDataset decodes one JSON list file. The boolean reports whether
// the file was present.
func readDataset(dir, name string, out any) (bool, error) {
	raw, err := os.ReadFile(filepath.Join(dir, name))
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read %s: %w", name, err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return false, fmt.Errorf("decode %s: %w", name, err)
	}
	return true, nil
}

func defaultNationality(reg *archive.Registry, kind archive.Kind, explicit string) string {
	if explicit != "" {
		return explicit
	}
	return reg.Nationality(kind)
}

func voyageAttrs(row voyageRow) map[string]any {
	attrs := map[string]any{}
	putString(attrs, "ship_type", row.ShipType)
	putString(attrs, "captain", row.Captain)
	putString(attrs, "departure_port", row.DeparturePort)
	putString(attrs, "destination_port", row.DestinationPort)
	putString(attrs, "fate", row.Fate)
	if row.Tonnage > 0 {
		attrs["tonnage"] = row.Tonnage
	}
	return attrs
}

func wreckAttrs(row wreckRow) map[string]any {
	attrs := map[string]any{}
	putString(attrs, "place", row.Place)
	putString(attrs, "cause", row.Cause)
	if row.Lat != 0 || row.Lon != 0 {
		attrs["lat"] = row.Lat
		attrs["lon"] = row.Lon
	}
	return attrs
}

func vesselAttrs(row vesselRow) map[string]any {
	attrs := map[string]any{}
	putString(attrs, "chamber", row.Chamber)
	if row.BuiltYear > 0 {
		attrs["built_year"] = row.BuiltYear
	}
	if row.Tonnage > 0 {
		attrs["tonnage"] = row.Tonnage
	}
	return attrs
}

func hullAttrs(row hullProfileRow) map[string]any {
	attrs := map[string]any{}
	if row.LengthM > 0 {
		attrs["length_m"] = row.LengthM
	}
	if row.BeamM > 0 {
		attrs["beam_m"] = row.BeamM
	}
	if row.DraftM > 0 {
		attrs["draft_m"] = row.DraftM
	}
	if row.Tonnage > 0 {
		attrs["tonnage"] = row.Tonnage
	}
	if row.CrewTypical > 0 {
		attrs["crew_typical"] = row.CrewTypical
	}
	return attrs
}

func crewAttrs(row crewRow) map[string]any {
	attrs := map[string]any{}
	putString(attrs, "rank", row.Rank)
	putString(attrs, "origin", row.Origin)
	putString(attrs, "embarkation_date", row.EmbarkationDate)
	if row.MonthlyPay > 0 {
		attrs["monthly_pay_guilders"] = row.MonthlyPay
	}
	return attrs
}

func putString(attrs map[string]any, key, value string) {
	if value != "" {
		attrs[key] = value
	}
}
