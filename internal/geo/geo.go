// Package geo builds GeoJSON documents from archive records and
// answers proximity queries over logbook track positions.
package geo

import (
	"math"
	"sort"
	"time"

	"github.com/shiplink/internal/archive"
)

// Defaults for Nearby queries.
const (
	DefaultRadiusKM   = 200.0
	DefaultMaxResults = 20
)

const earthRadiusKM = 6371.0

// Geometry is a GeoJSON geometry. Coordinates hold [lon, lat] pairs in
// WGS84: one pair for a Point, a list of pairs for a LineString.
type Geometry struct {
	Type        string `json:"type"`
	Coordinates any    `json:"coordinates"`
}

// Feature is a single GeoJSON feature. Geometry is null for records
// without a recorded position so consumers can plot what they can and
// list the rest.
type Feature struct {
	Type       string         `json:"type"`
	Geometry   *Geometry      `json:"geometry"`
	Properties map[string]any `json:"properties"`
}

// FeatureCollection is the top-level GeoJSON document.
type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}

// Collection wraps features in a FeatureCollection. Features stays
// non-nil so the encoded document always carries an array.
func Collection(features ...Feature) FeatureCollection {
	if features == nil {
		features = []Feature{}
	}
	return FeatureCollection{Type: "FeatureCollection", Features: features}
}

// Point builds a point geometry from a latitude and longitude.
func Point(lat, lon float64) *Geometry {
	return &Geometry{Type: "Point", Coordinates: []float64{lon, lat}}
}

// TrackLine builds a LineString feature for one logbook track. Returns
// nil when the track has fewer than two positions to join.
func TrackLine(rec *archive.Record, points []archive.TrackPoint) *Feature {
	if len(points) < 2 {
		return nil
	}
	coords := make([][]float64, 0, len(points))
	for _, p := range points {
		coords = append(coords, []float64{p.Lon, p.Lat})
	}
	return &Feature{
		Type:     "Feature",
		Geometry: &Geometry{Type: "LineString", Coordinates: coords},
		Properties: map[string]any{
			"ref":         rec.Ref(),
			"ship_name":   rec.Name,
			"point_count": len(coords),
		},
	}
}

// WreckFeature builds a Point feature for a wreck record, with null
// geometry when the archive recorded no position.
func WreckFeature(rec *archive.Record) Feature {
	props := map[string]any{
		"ref":       rec.Ref(),
		"ship_name": rec.Name,
	}
	if place := rec.StringAttr("place"); place != "" {
		props["place"] = place
	}
	if cause := rec.StringAttr("cause"); cause != "" {
		props["cause"] = cause
	}
	if !rec.When.From.IsZero() {
		props["date"] = rec.When.From.Format("2006-01-02")
	}

	var geom *Geometry
	lat, okLat := rec.FloatAttr("lat")
	lon, okLon := rec.FloatAttr("lon")
	if okLat && okLon {
		geom = Point(lat, lon)
	}
	return Feature{Type: "Feature", Geometry: geom, Properties: props}
}

// Haversine returns the great-circle distance in kilometres between
// two positions given in decimal degrees.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := radians(lat2 - lat1)
	dLon := radians(lon2 - lon1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(radians(lat1))*math.Cos(radians(lat2))*math.Sin(dLon/2)*math.Sin(dLon/2)
	return earthRadiusKM * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

// TrackDistance sums the great-circle legs between consecutive points,
// in kilometres.
func TrackDistance(points []archive.TrackPoint) float64 {
	var total float64
	for i := 1; i < len(points); i++ {
		total += Haversine(points[i-1].Lat, points[i-1].Lon, points[i].Lat, points[i].Lon)
	}
	return total
}

// Track pairs a track record with its position reports for proximity
// queries.
type Track struct {
	Record *archive.Record
	Points []archive.TrackPoint
}

// Hit is one track that passed within the search radius.
type Hit struct {
	Record     *archive.Record    `json:"-"`
	Ref        string             `json:"ref"`
	Name       string             `json:"ship_name"`
	DistanceKM float64            `json:"distance_km"`
	Position   archive.TrackPoint `json:"position"`
}

// Nearby finds tracks that passed within radiusKm of a position. When
// date is non-zero only positions logged on that calendar day qualify;
// a zero date searches the whole track. Each track contributes its
// closest qualifying position. Hits come back nearest first, distances
// rounded to a tenth of a kilometre, capped at max. Non-positive
// radius and max fall back to the package defaults.
func Nearby(tracks []Track, lat, lon float64, date time.Time, radiusKm float64, max int) []Hit {
	if radiusKm <= 0 {
		radiusKm = DefaultRadiusKM
	}
	if max <= 0 {
		max = DefaultMaxResults
	}

	var hits []Hit
	for _, tr := range tracks {
		best := -1.0
		var bestPoint archive.TrackPoint
		for _, p := range tr.Points {
			if !date.IsZero() && !sameDay(p.Date, date) {
				continue
			}
			d := Haversine(lat, lon, p.Lat, p.Lon)
			if d > radiusKm {
				continue
			}
			if best < 0 || d < best {
				best = d
				bestPoint = p
			}
		}
		if best < 0 {
			continue
		}
		hits = append(hits, Hit{
			Record:     tr.Record,
			Ref:        tr.Record.Ref(),
			Name:       tr.Record.Name,
			DistanceKM: math.Round(best*10) / 10,
			Position:   bestPoint,
		})
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].DistanceKM != hits[j].DistanceKM {
			return hits[i].DistanceKM < hits[j].DistanceKM
		}
		return hits[i].Ref < hits[j].Ref
	})
	if len(hits) > max {
		hits = hits[:max]
	}
	return hits
}

func sameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
