package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/shiplink/internal/archive"
	"github.com/shiplink/internal/crew"
	"github.com/shiplink/internal/geo"
	"github.com/shiplink/internal/index"
	"github.com/shiplink/internal/match"
)

// SearchHandler handles the search endpoints.
type SearchHandler struct {
	Ships          *index.Index
	Crew           *crew.Searcher
	Tracks         []geo.Track
	NearbyRadiusKM float64
}

// SearchShips ranks voyage records against a ship name, with optional
// date and nationality context sharpening the score.
func (h *SearchHandler) SearchShips(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	searchTerm := query.Get("q")
	if searchTerm == "" {
		http.Error(w, "Search term required", http.StatusBadRequest)
		return
	}

	date := query.Get("date")
	when := archive.ParseDateSpan(date, date)

	results := h.Ships.Lookup(searchTerm, when, query.Get("nationality"))
	if results == nil {
		results = []match.Candidate{}
	}
	writeJSON(w, results)
}

// SearchCrew ranks muster-roll entries against a person name.
func (h *SearchHandler) SearchCrew(w http.ResponseWriter, r *http.Request) {
	searchTerm := r.URL.Query().Get("q")
	if searchTerm == "" {
		http.Error(w, "Search term required", http.StatusBadRequest)
		return
	}

	results := h.Crew.Search(searchTerm)
	if results == nil {
		results = []crew.Match{}
	}
	writeJSON(w, results)
}

// SearchNearby finds logbook tracks that passed near a position,
// optionally on a specific day.
func (h *SearchHandler) SearchNearby(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	lat := parseFloatParam(query.Get("lat"))
	lon := parseFloatParam(query.Get("lon"))
	if lat == nil || lon == nil {
		http.Error(w, "lat and lon parameters required", http.StatusBadRequest)
		return
	}

	radius := h.NearbyRadiusKM
	if v := parseFloatParam(query.Get("radius_km")); v != nil {
		radius = *v
	}
	limit := parseIntParam(query.Get("limit"), 0)

	var date time.Time
	if d := query.Get("date"); d != "" {
		t, ok := archive.ParseDate(d)
		if !ok {
			http.Error(w, "Invalid date; use YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		date = t
	}

	hits := geo.Nearby(h.Tracks, *lat, *lon, date, radius, limit)
	if hits == nil {
		hits = []geo.Hit{}
	}
	writeJSON(w, hits)
}

// parseFloatParam parses a string parameter as float64, returns nil if
// empty or invalid.
func parseFloatParam(s string) *float64 {
	if s == "" {
		return nil
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return &f
	}
	return nil
}

// parseIntParam parses a string parameter as int with a default value.
func parseIntParam(s string, defaultVal int) int {
	if s == "" {
		return defaultVal
	}
	if i, err := strconv.Atoi(s); err == nil {
		return i
	}
	return defaultVal
}
