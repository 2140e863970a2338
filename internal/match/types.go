package match

import (
	"github.com/shiplink/internal/archive"
	"github.com/shiplink/internal/phonetics"
)

// Weights control each signal's contribution to the composite
// confidence. They need not sum to 1; the scorer renormalizes over the
// signals available for a given comparison.
type Weights struct {
	Name        float64 `json:"name"`
	Date        float64 `json:"date"`
	Nationality float64 `json:"nationality"`
	Phonetic    float64 `json:"phonetic"`
}

// DefaultWeights returns the reference weighting. The exact values are
// tuned policy rather than correctness constants and can be overridden
// in configuration.
func DefaultWeights() Weights {
	return Weights{
		Name:        0.50,
		Date:        0.30,
		Nationality: 0.10,
		Phonetic:    0.10,
	}
}

// Config carries the tunable matching parameters.
type Config struct {
	Weights        Weights
	DateWindowDays int     // linear date-decay window
	Threshold      float64 // candidates below this are never surfaced
	SoundexLength  int
}

// DefaultConfig returns the reference configuration: weights
// 0.50/0.30/0.10/0.10, a 180 day decay window, a 0.5 threshold and
// 4-character phonetic codes.
func DefaultConfig() Config {
	return Config{
		Weights:        DefaultWeights(),
		DateWindowDays: 180,
		Threshold:      0.5,
		SoundexLength:  phonetics.DefaultLength,
	}
}

// Tier names the index tier that produced a candidate.
type Tier string

const (
	TierExact    Tier = "exact"
	TierPhonetic Tier = "phonetic"
	TierFuzzy    Tier = "fuzzy"
)

// Query is the probe side of a comparison. The derived name forms are
// computed once so a lookup over many candidates does not repeat them.
type Query struct {
	Name        string
	Normalized  string
	Phonetic    string
	Nationality string
	When        archive.DateSpan
}

// Candidate is one scored (query, candidate) pair: per-signal
// sub-scores plus the composite confidence. Ephemeral; built per lookup
// and never cached across requests.
type Candidate struct {
	Record       *archive.Record `json:"-"`
	Ref          string          `json:"ref"`
	ArchiveTag   string          `json:"archive"`
	Name         string          `json:"name"`
	NameScore    float64         `json:"name_score"`
	DateScore    float64         `json:"date_score"`
	DateKnown    bool            `json:"date_known"`
	NatScore     float64         `json:"nationality_score"`
	PhonScore    float64         `json:"phonetic_score"`
	DateDistance int             `json:"date_distance_days"`
	Tier         Tier            `json:"tier"`
	Confidence   float64         `json:"confidence"`
}
