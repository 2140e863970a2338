package handlers

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/shiplink/internal/archive"
	"github.com/shiplink/internal/geo"
	"github.com/shiplink/internal/link"
	"github.com/shiplink/internal/store"
)

// VoyageHandler handles the per-voyage endpoints.
type VoyageHandler struct {
	Store *store.Store
	Links *link.Orchestrator
}

// VoyageSummary is the voyage core returned with every view.
type VoyageSummary struct {
	Ref         string         `json:"ref"`
	Archive     string         `json:"archive"`
	Name        string         `json:"name"`
	Nationality string         `json:"nationality,omitempty"`
	Departure   string         `json:"departure,omitempty"`
	Arrival     string         `json:"arrival,omitempty"`
	Attrs       map[string]any `json:"attrs,omitempty"`
}

// FullViewResponse is the assembled cross-archive view of one voyage.
type FullViewResponse struct {
	Voyage     VoyageSummary      `json:"voyage"`
	RunID      string             `json:"run_id"`
	LinksFound []string           `json:"links_found"`
	Links      []*link.Link       `json:"links"`
	Confidence map[string]float64 `json:"confidence"`
}

// TimelineResponse lists a voyage's events in chronological order.
type TimelineResponse struct {
	Voyage VoyageSummary `json:"voyage"`
	Events []link.Event  `json:"events"`
}

// GetFull returns the linked view of one voyage.
func (h *VoyageHandler) GetFull(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	view, err := h.Links.FullView(r.Context(), id)
	if err != nil {
		writeViewError(w, err)
		return
	}

	writeJSON(w, FullViewResponse{
		Voyage:     voyageSummary(view.Voyage),
		RunID:      view.RunID,
		LinksFound: view.LinksFound(),
		Links:      view.Links(),
		Confidence: view.Confidence(),
	})
}

// GetTimeline returns the merged chronological event list for a voyage.
func (h *VoyageHandler) GetTimeline(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	view, events, err := h.Links.Timeline(r.Context(), id)
	if err != nil {
		writeViewError(w, err)
		return
	}
	if events == nil {
		events = []link.Event{}
	}

	writeJSON(w, TimelineResponse{
		Voyage: voyageSummary(view.Voyage),
		Events: events,
	})
}

// GetTrackGeoJSON returns the linked logbook track as a GeoJSON
// FeatureCollection: the route as a LineString plus the wreck position
// when one is linked.
func (h *VoyageHandler) GetTrackGeoJSON(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	view, err := h.Links.FullView(r.Context(), id)
	if err != nil {
		writeViewError(w, err)
		return
	}
	track, ok := view.Link(link.TypeTrack)
	if !ok {
		http.Error(w, "No track linked to voyage", http.StatusNotFound)
		return
	}

	points, err := h.Store.TrackPoints(r.Context(), track.Record.ID)
	if err != nil {
		http.Error(w, "Store error", http.StatusInternalServerError)
		return
	}

	var features []geo.Feature
	if line := geo.TrackLine(track.Record, points); line != nil {
		features = append(features, *line)
	}
	if wreck, ok := view.Link(link.TypeWreck); ok {
		features = append(features, geo.WreckFeature(wreck.Record))
	}
	writeJSON(w, geo.Collection(features...))
}

func writeViewError(w http.ResponseWriter, err error) {
	if errors.Is(err, link.ErrUnknownVoyage) {
		http.Error(w, "Voyage not found", http.StatusNotFound)
		return
	}
	http.Error(w, "Store error: "+err.Error(), http.StatusInternalServerError)
}

func voyageSummary(rec *archive.Record) VoyageSummary {
	s := VoyageSummary{
		Ref:         rec.Ref(),
		Archive:     string(rec.Archive),
		Name:        rec.Name,
		Nationality: rec.Nationality,
		Attrs:       rec.Attrs,
	}
	if !rec.When.From.IsZero() {
		s.Departure = rec.When.From.Format("2006-01-02")
	}
	if !rec.When.To.IsZero() {
		s.Arrival = rec.When.To.Format("2006-01-02")
	}
	return s
}
