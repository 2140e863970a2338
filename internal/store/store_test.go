package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shiplink/internal/archive"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "shiplink.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestOpenInitializesSchema(t *testing.T) {
	s := openTestStore(t)
	counts, err := s.Counts(context.Background())
	if err != nil {
		t.Fatalf("Counts: %v", err)
	}
	for _, table := range []string{"voyages", "wrecks", "vessels", "hull_profiles", "tracks", "track_points", "crew", "ground_truth"} {
		n, ok := counts[table]
		if !ok {
			t.Errorf("table %s missing from counts", table)
		}
		if n != 0 {
			t.Errorf("table %s has %d rows, want 0", table, n)
		}
	}
}

func TestVoyageRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	in := &archive.Record{
		Archive:     archive.KindDAS,
		Type:        archive.TypeVoyage,
		ID:          "1001",
		Name:        "Batavia",
		Nationality: "NL",
		When:        archive.ParseDateSpan("1628-10-28", "1629-06-04"),
		Attrs: map[string]any{
			"ship_type": "retourschip",
			"captain":   "Francisco Pelsaert",
			"tonnage":   600,
		},
	}
	if err := s.InsertVoyage(ctx, in); err != nil {
		t.Fatalf("InsertVoyage: %v", err)
	}

	got, err := s.VoyageByID(ctx, "1001")
	if err != nil {
		t.Fatalf("VoyageByID: %v", err)
	}
	if got == nil {
		t.Fatal("voyage not found")
	}
	if got.Name != "Batavia" || got.Archive != archive.KindDAS || got.Nationality != "NL" {
		t.Errorf("got %+v", got)
	}
	if got.Type != archive.TypeVoyage {
		t.Errorf("type = %s, want %s", got.Type, archive.TypeVoyage)
	}
	if got.When.From.Format("2006-01-02") != "1628-10-28" {
		t.Errorf("From = %v", got.When.From)
	}
	if got.When.To.Format("2006-01-02") != "1629-06-04" {
		t.Errorf("To = %v", got.When.To)
	}
	if got.StringAttr("ship_type") != "retourschip" {
		t.Errorf("ship_type = %q", got.StringAttr("ship_type"))
	}
	if got.StringAttr("captain") != "Francisco Pelsaert" {
		t.Errorf("captain = %q", got.StringAttr("captain"))
	}

	missing, err := s.VoyageByID(ctx, "9999")
	if err != nil {
		t.Fatalf("VoyageByID missing: %v", err)
	}
	if missing != nil {
		t.Errorf("got %+v for missing id, want nil", missing)
	}
}

func TestWreckByVoyage(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	wreck := &archive.Record{
		Archive: archive.KindDAS,
		Type:    archive.TypeWreck,
		ID:      "W-12",
		Name:    "Batavia",
		When:    archive.ParseDateSpan("1629-06-04", ""),
		Attrs:   map[string]any{"place": "Morning Reef", "cause": "grounding"},
	}
	if err := s.InsertWreck(ctx, wreck, "1001"); err != nil {
		t.Fatalf("InsertWreck: %v", err)
	}

	got, err := s.WreckByVoyage(ctx, "1001")
	if err != nil {
		t.Fatalf("WreckByVoyage: %v", err)
	}
	if got == nil {
		t.Fatal("wreck not found")
	}
	if got.ID != "W-12" || got.StringAttr("place") != "Morning Reef" {
		t.Errorf("got %+v", got)
	}
	if got.When.From.Format("2006-01-02") != "1629-06-04" {
		t.Errorf("From = %v", got.When.From)
	}

	none, err := s.WreckByVoyage(ctx, "2002")
	if err != nil {
		t.Fatalf("WreckByVoyage none: %v", err)
	}
	if none != nil {
		t.Errorf("got %+v for unwrecked voyage, want nil", none)
	}
}

func TestVesselByVoyageAcrossVoyages(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	vessel := &archive.Record{
		Archive:     archive.KindDAS,
		Type:        archive.TypeVessel,
		ID:          "V-7",
		Name:        "HOLLANDIA",
		Nationality: "NL",
		Attrs:       map[string]any{"built_year": 1740, "chamber": "Amsterdam"},
	}
	if err := s.InsertVessel(ctx, vessel, []string{"2001", "2002"}); err != nil {
		t.Fatalf("InsertVessel: %v", err)
	}

	for _, voyageID := range []string{"2001", "2002"} {
		got, err := s.VesselByVoyage(ctx, voyageID)
		if err != nil {
			t.Fatalf("VesselByVoyage(%s): %v", voyageID, err)
		}
		if got == nil || got.ID != "V-7" {
			t.Errorf("VesselByVoyage(%s) = %+v, want V-7", voyageID, got)
		}
	}

	none, err := s.VesselByVoyage(ctx, "3003")
	if err != nil {
		t.Fatalf("VesselByVoyage none: %v", err)
	}
	if none != nil {
		t.Errorf("got %+v for unrelated voyage, want nil", none)
	}
}

func TestHullProfileByType(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	hull := &archive.Record{
		Archive: archive.KindDAS,
		Type:    archive.TypeHullProfile,
		ID:      "H-3",
		Name:    "Retourschip",
		Attrs:   map[string]any{"length_m": 45.0, "crew_typical": 240},
	}
	if err := s.InsertHullProfile(ctx, hull, "retourschip"); err != nil {
		t.Fatalf("InsertHullProfile: %v", err)
	}

	got, err := s.HullProfileByType(ctx, "retourschip")
	if err != nil {
		t.Fatalf("HullProfileByType: %v", err)
	}
	if got == nil || got.ID != "H-3" {
		t.Fatalf("got %+v, want H-3", got)
	}
	if got.StringAttr("ship_type") != "retourschip" {
		t.Errorf("ship_type = %q", got.StringAttr("ship_type"))
	}

	none, err := s.HullProfileByType(ctx, "fluyt")
	if err != nil {
		t.Fatalf("HullProfileByType none: %v", err)
	}
	if none != nil {
		t.Errorf("got %+v for unknown type, want nil", none)
	}
}

func TestTrackCrossRefAndPoints(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	track := &archive.Record{
		Archive:     archive.KindCLIWOC,
		Type:        archive.TypeTrack,
		ID:          "T-55",
		Name:        "HOLLANDIA",
		Nationality: "NL",
		When:        archive.ParseDateSpan("1742-05-01", "1742-07-10"),
	}
	points := []archive.TrackPoint{
		{Date: mustDate(t, "1742-05-01"), Lat: 51.9, Lon: 4.1},
		{Date: mustDate(t, "1742-05-20"), Lat: 28.2, Lon: -16.6},
		{Date: mustDate(t, "1742-07-02"), Lat: -34.1, Lon: 18.4},
	}
	if err := s.InsertTrack(ctx, track, "2001", points); err != nil {
		t.Fatalf("InsertTrack: %v", err)
	}

	got, err := s.TrackByCrossRef(ctx, "2001")
	if err != nil {
		t.Fatalf("TrackByCrossRef: %v", err)
	}
	if got == nil || got.ID != "T-55" {
		t.Fatalf("got %+v, want T-55", got)
	}
	if got.StringAttr("cross_ref") != "2001" {
		t.Errorf("cross_ref = %q", got.StringAttr("cross_ref"))
	}

	if empty, err := s.TrackByCrossRef(ctx, ""); err != nil || empty != nil {
		t.Errorf("TrackByCrossRef(\"\") = %+v, %v; want nil, nil", empty, err)
	}

	gotPoints, err := s.TrackPoints(ctx, "T-55")
	if err != nil {
		t.Fatalf("TrackPoints: %v", err)
	}
	if len(gotPoints) != 3 {
		t.Fatalf("got %d points, want 3", len(gotPoints))
	}
	for i, p := range gotPoints {
		if !p.Date.Equal(points[i].Date) || p.Lat != points[i].Lat || p.Lon != points[i].Lon {
			t.Errorf("point[%d] = %+v, want %+v", i, p, points[i])
		}
	}

	all, err := s.AllTracks(ctx)
	if err != nil {
		t.Fatalf("AllTracks: %v", err)
	}
	if len(all) != 1 || all[0].ID != "T-55" {
		t.Errorf("AllTracks = %+v", all)
	}
}

func TestCrewByVoyage(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	members := []*archive.Record{
		{
			Archive: archive.KindDAS, Type: archive.TypeCrew, ID: "C-1",
			Name:  "Jan Pietersz",
			Attrs: map[string]any{"rank": "schipper", "origin": "Amsterdam"},
		},
		{
			Archive: archive.KindDAS, Type: archive.TypeCrew, ID: "C-2",
			Name:  "Hendrick Jansz",
			Attrs: map[string]any{"rank": "stuurman", "origin": "Enkhuizen"},
		},
	}
	for _, m := range members {
		if err := s.InsertCrew(ctx, m, "1001"); err != nil {
			t.Fatalf("InsertCrew(%s): %v", m.ID, err)
		}
	}

	got, err := s.CrewByVoyage(ctx, "1001")
	if err != nil {
		t.Fatalf("CrewByVoyage: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d crew, want 2", len(got))
	}
	if got[0].ID != "C-1" || got[0].StringAttr("rank") != "schipper" {
		t.Errorf("crew[0] = %+v", got[0])
	}
	if got[1].StringAttr("voyage_id") != "1001" {
		t.Errorf("voyage_id = %q", got[1].StringAttr("voyage_id"))
	}

	all, err := s.AllCrew(ctx)
	if err != nil {
		t.Fatalf("AllCrew: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("AllCrew returned %d, want 2", len(all))
	}
}

func TestGroundTruthPairs(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.AddGroundTruth(ctx, "2001", "T-55"); err != nil {
		t.Fatalf("AddGroundTruth: %v", err)
	}
	if err := s.AddGroundTruth(ctx, "1001", "T-88"); err != nil {
		t.Fatalf("AddGroundTruth: %v", err)
	}

	pairs, err := s.GroundTruth(ctx)
	if err != nil {
		t.Fatalf("GroundTruth: %v", err)
	}
	want := []TruthPair{{VoyageID: "1001", TrackID: "T-88"}, {VoyageID: "2001", TrackID: "T-55"}}
	if len(pairs) != len(want) {
		t.Fatalf("got %d pairs, want %d", len(pairs), len(want))
	}
	for i := range want {
		if pairs[i] != want[i] {
			t.Errorf("pairs[%d] = %+v, want %+v", i, pairs[i], want[i])
		}
	}
}

func TestImportDatasetDir(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	dir := t.TempDir()

	fixtures := map[string]string{
		voyagesFile: `[
			{"id": "1001", "archive": "das", "ship_name": "Batavia", "ship_type": "retourschip",
			 "captain": "Francisco Pelsaert", "departure_port": "Texel", "departure_date": "1628-10-28",
			 "destination_port": "Batavia", "fate": "wrecked", "tonnage": 600},
			{"id": "S-9", "archive": "soic", "ship_name": "Gotheborg", "departure_date": "1743-03-14",
			 "arrival_date": "1745-09-12", "departure_port": "Gothenburg"}
		]`,
		wrecksFile: `[
			{"id": "W-12", "archive": "das", "voyage_id": "1001", "name": "Batavia",
			 "date": "1629-06-04", "place": "Morning Reef", "cause": "grounding", "lat": -28.49, "lon": 113.79}
		]`,
		vesselsFile: `[
			{"id": "V-7", "archive": "das", "name": "BATAVIA", "built_year": 1628,
			 "tonnage": 600, "chamber": "Amsterdam", "voyage_ids": ["1001"]}
		]`,
		hullProfilesFile: `[
			{"id": "H-3", "archive": "das", "ship_type": "retourschip", "name": "Retourschip",
			 "length_m": 45.0, "beam_m": 10.5, "tonnage": 600, "crew_typical": 240}
		]`,
		tracksFile: `[
			{"id": "T-88", "archive": "cliwoc", "ship_name": "BATAVIA", "nationality": "NL",
			 "cross_ref": "1001", "date_from": "1628-10-28", "date_to": "1629-06-04",
			 "positions": [
				{"date": "1628-11-15", "lat": 44.2, "lon": -9.8},
				{"date": "1629-02-10", "lat": -34.3, "lon": 18.5}
			]}
		]`,
		groundTruthFile: `[{"voyage_id": "1001", "track_id": "T-88"}]`,
	}
	for name, body := range fixtures {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}

	stats, err := s.Import(ctx, dir, nil)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if stats.Voyages != 2 || stats.Wrecks != 1 || stats.Vessels != 1 || stats.HullProfiles != 1 {
		t.Errorf("stats = %+v", stats)
	}
	if stats.Tracks != 1 || stats.TrackPoints != 2 || stats.GroundTruth != 1 {
		t.Errorf("stats = %+v", stats)
	}
	if len(stats.Missing) != 1 || stats.Missing[0] != crewFile {
		t.Errorf("Missing = %v, want [%s]", stats.Missing, crewFile)
	}

	voyage, err := s.VoyageByID(ctx, "1001")
	if err != nil || voyage == nil {
		t.Fatalf("VoyageByID after import: %+v, %v", voyage, err)
	}
	if voyage.Nationality != "NL" {
		t.Errorf("nationality = %q, want registry default NL", voyage.Nationality)
	}
	if voyage.StringAttr("departure_port") != "Texel" {
		t.Errorf("departure_port = %q", voyage.StringAttr("departure_port"))
	}

	soic, err := s.VoyageByID(ctx, "S-9")
	if err != nil || soic == nil {
		t.Fatalf("VoyageByID soic: %+v, %v", soic, err)
	}
	if soic.Nationality != "SE" {
		t.Errorf("soic nationality = %q, want SE", soic.Nationality)
	}

	track, err := s.TrackByCrossRef(ctx, "1001")
	if err != nil || track == nil || track.ID != "T-88" {
		t.Fatalf("TrackByCrossRef after import: %+v, %v", track, err)
	}
}

// A bad row anywhere must roll back the entire run.
func TestImportRollsBackOnBadArchive(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	dir := t.TempDir()

	body := `[
		{"id": "1001", "archive": "das", "ship_name": "Batavia"},
		{"id": "X-1", "archive": "atlantis", "ship_name": "Nonesuch"}
	]`
	if err := os.WriteFile(filepath.Join(dir, voyagesFile), []byte(body), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	if _, err := s.Import(ctx, dir, nil); err == nil {
		t.Fatal("Import accepted unknown archive")
	}

	counts, err := s.Counts(ctx)
	if err != nil {
		t.Fatalf("Counts: %v", err)
	}
	if counts["voyages"] != 0 {
		t.Errorf("voyages = %d after failed import, want 0", counts["voyages"])
	}
}

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	parsed, ok := archive.ParseDate(s)
	if !ok {
		t.Fatalf("bad date fixture %q", s)
	}
	return parsed
}
