package link

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shiplink/internal/archive"
	"github.com/shiplink/internal/index"
	"github.com/shiplink/internal/match"
)

type fakeStores struct {
	voyages map[string]*archive.Record
	wrecks  map[string]*archive.Record
	vessels map[string]*archive.Record
	hulls   map[string]*archive.Record
	tracks  map[string]*archive.Record
	points  map[string][]archive.TrackPoint
}

func (f *fakeStores) VoyageByID(_ context.Context, id string) (*archive.Record, error) {
	return f.voyages[id], nil
}

func (f *fakeStores) WreckByVoyage(_ context.Context, voyageID string) (*archive.Record, error) {
	return f.wrecks[voyageID], nil
}

func (f *fakeStores) VesselByVoyage(_ context.Context, voyageID string) (*archive.Record, error) {
	return f.vessels[voyageID], nil
}

func (f *fakeStores) HullProfileByType(_ context.Context, shipType string) (*archive.Record, error) {
	return f.hulls[shipType], nil
}

func (f *fakeStores) TrackByCrossRef(_ context.Context, voyageID string) (*archive.Record, error) {
	return f.tracks[voyageID], nil
}

func (f *fakeStores) TrackPoints(_ context.Context, trackID string) ([]archive.TrackPoint, error) {
	return f.points[trackID], nil
}

type fakeRecorder struct {
	linkTypes []string
	fail      bool
}

func (r *fakeRecorder) RecordLink(_ context.Context, runID string, _ *archive.Record, l *Link) error {
	if r.fail {
		return errors.New("trail down")
	}
	if runID == "" {
		return errors.New("empty run id")
	}
	r.linkTypes = append(r.linkTypes, string(l.Type))
	return nil
}

func newTestOrchestrator(t *testing.T, st *fakeStores, pool []*archive.Record, trail Recorder) *Orchestrator {
	t.Helper()
	scorer := match.NewScorer(match.DefaultConfig())
	o, err := New(Config{
		Stores:   st,
		Index:    index.New(pool, scorer, index.Options{}),
		Scorer:   scorer,
		Registry: archive.DefaultRegistry(),
		Trail:    trail,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return o
}

func date(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

func TestFullViewResolvesAllLinkTypes(t *testing.T) {
	voyage := &archive.Record{
		Archive: archive.KindDAS, Type: archive.TypeVoyage, ID: "1001",
		Name: "Batavia", Nationality: "NL",
		When:  archive.DateSpan{From: date(1629, 6, 1), To: date(1629, 6, 1)},
		Attrs: map[string]any{"ship_type": "retourschip"},
	}
	st := &fakeStores{
		voyages: map[string]*archive.Record{"1001": voyage},
		wrecks: map[string]*archive.Record{"1001": {
			Archive: archive.KindDAS, Type: archive.TypeWreck, ID: "W-12", Name: "Batavia",
			When:  archive.DateSpan{From: date(1629, 6, 4), To: date(1629, 6, 4)},
			Attrs: map[string]any{"place": "Morning Reef"},
		}},
		vessels: map[string]*archive.Record{"1001": {
			Archive: archive.KindDAS, Type: archive.TypeVessel, ID: "V-7", Name: "BATAVIA",
		}},
		hulls: map[string]*archive.Record{"retourschip": {
			Archive: archive.KindDAS, Type: archive.TypeHullProfile, ID: "H-3", Name: "Retourschip",
		}},
	}
	pool := []*archive.Record{{
		Archive: archive.KindCLIWOC, Type: archive.TypeTrack, ID: "T-88",
		Name: "BATAVIA", Nationality: "NL",
		When: archive.DateSpan{From: date(1629, 5, 1), To: date(1629, 6, 10)},
	}}

	o := newTestOrchestrator(t, st, pool, nil)
	view, err := o.FullView(context.Background(), "1001")
	if err != nil {
		t.Fatalf("FullView: %v", err)
	}

	wantFound := []string{"hull_profile", "track", "vessel", "wreck"}
	got := view.LinksFound()
	if len(got) != len(wantFound) {
		t.Fatalf("LinksFound = %v, want %v", got, wantFound)
	}
	for i := range wantFound {
		if got[i] != wantFound[i] {
			t.Fatalf("LinksFound = %v, want %v", got, wantFound)
		}
	}

	checks := []struct {
		typ    Type
		method Method
		conf   float64
	}{
		{TypeWreck, MethodExact, 1.0},
		{TypeVessel, MethodForeignKey, 1.0},
		{TypeHullProfile, MethodExact, 1.0},
		{TypeTrack, MethodFuzzy, 1.0},
	}
	for _, c := range checks {
		l, ok := view.Link(c.typ)
		if !ok {
			t.Fatalf("link %s missing", c.typ)
		}
		if l.Method != c.method {
			t.Errorf("%s method = %s, want %s", c.typ, l.Method, c.method)
		}
		if l.Confidence != c.conf {
			t.Errorf("%s confidence = %v, want %v", c.typ, l.Confidence, c.conf)
		}
	}
	if view.RunID == "" {
		t.Error("RunID is empty")
	}
	if want := "Voyage 1001: Batavia (4 linked records)"; view.Summary() != want {
		t.Errorf("Summary = %q, want %q", view.Summary(), want)
	}
}

// A voyage whose track carries no recorded cross-reference must still
// link through the fuzzy tier when name, nationality and dates line up.
func TestFullViewFuzzyTrackWithoutCrossRef(t *testing.T) {
	voyage := &archive.Record{
		Archive: archive.KindDAS, Type: archive.TypeVoyage, ID: "1001",
		Name: "Batavia", Nationality: "NL",
		When: archive.DateSpan{From: date(1629, 6, 1), To: date(1629, 6, 1)},
	}
	st := &fakeStores{voyages: map[string]*archive.Record{"1001": voyage}}
	pool := []*archive.Record{{
		Archive: archive.KindCLIWOC, Type: archive.TypeTrack, ID: "T-88",
		Name: "BATAVIA", Nationality: "NL",
		When: archive.DateSpan{From: date(1629, 5, 1), To: date(1629, 6, 10)},
	}}

	o := newTestOrchestrator(t, st, pool, nil)
	view, err := o.FullView(context.Background(), "1001")
	if err != nil {
		t.Fatalf("FullView: %v", err)
	}

	l, ok := view.Link(TypeTrack)
	if !ok {
		t.Fatal("track link missing")
	}
	if l.Method != MethodFuzzy {
		t.Errorf("method = %s, want %s", l.Method, MethodFuzzy)
	}
	if l.Confidence < 0.9 {
		t.Errorf("confidence = %v, want >= 0.9", l.Confidence)
	}
	if l.Ref != "cliwoc:T-88" {
		t.Errorf("ref = %q, want cliwoc:T-88", l.Ref)
	}
	if l.Candidate == nil {
		t.Fatal("fuzzy link has no candidate detail")
	}
	if l.Candidate.Tier != match.TierExact {
		t.Errorf("tier = %s, want %s", l.Candidate.Tier, match.TierExact)
	}
}

// When nothing in the track pool clears the threshold the view simply
// omits the track link; that is a normal outcome, not an error.
func TestFullViewOmitsUnresolvableTrack(t *testing.T) {
	voyage := &archive.Record{
		Archive: archive.KindSOIC, Type: archive.TypeVoyage, ID: "S-9",
		Name: "Gotheborg", Nationality: "SE",
		When: archive.DateSpan{From: date(1745, 9, 12), To: date(1745, 9, 12)},
	}
	st := &fakeStores{voyages: map[string]*archive.Record{"S-9": voyage}}
	pool := []*archive.Record{{
		Archive: archive.KindCLIWOC, Type: archive.TypeTrack, ID: "T-1",
		Name: "HOLLANDIA", Nationality: "NL",
		When: archive.DateSpan{From: date(1742, 1, 1), To: date(1742, 3, 1)},
	}}

	o := newTestOrchestrator(t, st, pool, nil)
	view, err := o.FullView(context.Background(), "S-9")
	if err != nil {
		t.Fatalf("FullView: %v", err)
	}
	if _, ok := view.Link(TypeTrack); ok {
		t.Error("track link resolved, want omitted")
	}
	if len(view.LinksFound()) != 0 {
		t.Errorf("LinksFound = %v, want empty", view.LinksFound())
	}
	if want := "Voyage S-9: Gotheborg (0 linked records)"; view.Summary() != want {
		t.Errorf("Summary = %q, want %q", view.Summary(), want)
	}
}

// A recorded cross-reference wins over fuzzy matching even when the
// track was logged under a different spelling.
func TestResolveTrackPrefersCrossRef(t *testing.T) {
	voyage := &archive.Record{
		Archive: archive.KindDAS, Type: archive.TypeVoyage, ID: "4321",
		Name: "Zeepaert", Nationality: "NL",
		When: archive.DateSpan{From: date(1652, 4, 1), To: date(1652, 4, 1)},
	}
	track := &archive.Record{
		Archive: archive.KindCLIWOC, Type: archive.TypeTrack, ID: "T-9",
		Name: "ZEEPAARD", Nationality: "NL",
	}
	st := &fakeStores{
		voyages: map[string]*archive.Record{"4321": voyage},
		tracks:  map[string]*archive.Record{"4321": track},
	}

	o := newTestOrchestrator(t, st, nil, nil)
	l, err := o.ResolveTrack(context.Background(), voyage)
	if err != nil {
		t.Fatalf("ResolveTrack: %v", err)
	}
	if l == nil {
		t.Fatal("no link resolved")
	}
	if l.Method != MethodExact {
		t.Errorf("method = %s, want %s", l.Method, MethodExact)
	}
	if l.Confidence != 1.0 {
		t.Errorf("confidence = %v, want 1.0", l.Confidence)
	}
	if l.Ref != "cliwoc:T-9" {
		t.Errorf("ref = %q, want cliwoc:T-9", l.Ref)
	}
}

func TestFullViewUnknownVoyage(t *testing.T) {
	o := newTestOrchestrator(t, &fakeStores{}, nil, nil)
	_, err := o.FullView(context.Background(), "nope")
	if err == nil {
		t.Fatal("expected error for unknown voyage")
	}
	if !errors.Is(err, ErrUnknownVoyage) {
		t.Errorf("error = %v, want ErrUnknownVoyage", err)
	}
}

func TestFullViewRecordsTrail(t *testing.T) {
	voyage := &archive.Record{
		Archive: archive.KindDAS, Type: archive.TypeVoyage, ID: "2001",
		Name: "Hollandia", Nationality: "NL",
		When: archive.DateSpan{From: date(1742, 7, 3), To: date(1742, 7, 3)},
	}
	st := &fakeStores{
		voyages: map[string]*archive.Record{"2001": voyage},
		wrecks: map[string]*archive.Record{"2001": {
			Archive: archive.KindDAS, Type: archive.TypeWreck, ID: "W-2", Name: "Hollandia",
		}},
		tracks: map[string]*archive.Record{"2001": {
			Archive: archive.KindCLIWOC, Type: archive.TypeTrack, ID: "T-55", Name: "HOLLANDIA",
		}},
	}

	rec := &fakeRecorder{}
	o := newTestOrchestrator(t, st, nil, rec)
	if _, err := o.FullView(context.Background(), "2001"); err != nil {
		t.Fatalf("FullView: %v", err)
	}
	want := []string{"track", "wreck"}
	if len(rec.linkTypes) != len(want) {
		t.Fatalf("recorded %v, want %v", rec.linkTypes, want)
	}
	for i := range want {
		if rec.linkTypes[i] != want[i] {
			t.Fatalf("recorded %v, want %v", rec.linkTypes, want)
		}
	}
}

// A failing trail must never fail the request.
func TestFullViewToleratesTrailFailure(t *testing.T) {
	voyage := &archive.Record{
		Archive: archive.KindDAS, Type: archive.TypeVoyage, ID: "2001",
		Name: "Hollandia", Nationality: "NL",
	}
	st := &fakeStores{
		voyages: map[string]*archive.Record{"2001": voyage},
		wrecks: map[string]*archive.Record{"2001": {
			Archive: archive.KindDAS, Type: archive.TypeWreck, ID: "W-2", Name: "Hollandia",
		}},
	}

	o := newTestOrchestrator(t, st, nil, &fakeRecorder{fail: true})
	view, err := o.FullView(context.Background(), "2001")
	if err != nil {
		t.Fatalf("FullView: %v", err)
	}
	if _, ok := view.Link(TypeWreck); !ok {
		t.Error("wreck link missing")
	}
}

func TestTimelineOrdersEvents(t *testing.T) {
	voyage := &archive.Record{
		Archive: archive.KindDAS, Type: archive.TypeVoyage, ID: "1001",
		Name: "Batavia", Nationality: "NL",
		When:  archive.DateSpan{From: date(1628, 10, 28), To: date(1628, 10, 28)},
		Attrs: map[string]any{"departure_port": "Texel"},
	}
	st := &fakeStores{
		voyages: map[string]*archive.Record{"1001": voyage},
		wrecks: map[string]*archive.Record{"1001": {
			Archive: archive.KindDAS, Type: archive.TypeWreck, ID: "W-12", Name: "Batavia",
			When:  archive.DateSpan{From: date(1629, 6, 4), To: date(1629, 6, 4)},
			Attrs: map[string]any{"place": "Morning Reef"},
		}},
		tracks: map[string]*archive.Record{"1001": {
			Archive: archive.KindCLIWOC, Type: archive.TypeTrack, ID: "T-55", Name: "BATAVIA",
		}},
		points: map[string][]archive.TrackPoint{"T-55": {
			{Date: date(1629, 5, 10), Lat: -5.25, Lon: 90.5},
			{Date: date(1629, 4, 1), Lat: 34.1, Lon: 18.4},
		}},
	}

	o := newTestOrchestrator(t, st, nil, nil)
	_, events, err := o.Timeline(context.Background(), "1001")
	if err != nil {
		t.Fatalf("Timeline: %v", err)
	}

	wantTypes := []string{EventDeparture, EventPosition, EventPosition, EventLoss}
	if len(events) != len(wantTypes) {
		t.Fatalf("got %d events, want %d: %+v", len(events), len(wantTypes), events)
	}
	for i, want := range wantTypes {
		if events[i].Type != want {
			t.Errorf("event[%d].Type = %s, want %s", i, events[i].Type, want)
		}
	}
	for i := 1; i < len(events); i++ {
		if events[i].Date.Before(events[i-1].Date) {
			t.Errorf("events out of order at %d: %v before %v", i, events[i].Date, events[i-1].Date)
		}
	}
	if events[0].Detail != "departed Texel" {
		t.Errorf("departure detail = %q, want %q", events[0].Detail, "departed Texel")
	}
	if events[1].Detail != "34.10N 18.40E" {
		t.Errorf("position detail = %q, want %q", events[1].Detail, "34.10N 18.40E")
	}
	if events[2].Detail != "5.25S 90.50E" {
		t.Errorf("position detail = %q, want %q", events[2].Detail, "5.25S 90.50E")
	}
	if events[3].Detail != "lost Morning Reef" {
		t.Errorf("loss detail = %q, want %q", events[3].Detail, "lost Morning Reef")
	}
}

func TestNewRequiresCollaborators(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Error("New accepted empty config")
	}
	scorer := match.NewScorer(match.DefaultConfig())
	if _, err := New(Config{Stores: &fakeStores{}, Scorer: scorer, Registry: archive.DefaultRegistry()}); err == nil {
		t.Error("New accepted config without index")
	}
}
