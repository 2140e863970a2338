package match

import (
	"math"

	"github.com/shiplink/internal/archive"
	"github.com/shiplink/internal/normalize"
	"github.com/shiplink/internal/phonetics"
	"github.com/shiplink/internal/similarity"
)

// Scorer combines name, date, nationality and phonetic agreement into a
// single confidence in [0,1]. Stateless once built; safe for concurrent
// use.
type Scorer struct {
	cfg Config
}

// NewScorer builds a scorer from cfg. Zero-valued fields fall back to
// the defaults, so a partially filled Config is usable.
func NewScorer(cfg Config) *Scorer {
	def := DefaultConfig()
	if cfg.Weights == (Weights{}) {
		cfg.Weights = def.Weights
	}
	if cfg.DateWindowDays <= 0 {
		cfg.DateWindowDays = def.DateWindowDays
	}
	if cfg.Threshold <= 0 {
		cfg.Threshold = def.Threshold
	}
	if cfg.SoundexLength <= 0 {
		cfg.SoundexLength = def.SoundexLength
	}
	return &Scorer{cfg: cfg}
}

// Threshold is the minimum confidence a candidate needs to be surfaced.
func (s *Scorer) Threshold() float64 { return s.cfg.Threshold }

// SoundexLength is the phonetic code length records must be derived
// with to compare against this scorer's queries.
func (s *Scorer) SoundexLength() int { return s.cfg.SoundexLength }

// NewQuery precomputes the derived forms of a probe name so that
// scoring a query against a whole candidate bucket normalizes and
// encodes it only once.
func (s *Scorer) NewQuery(name, nationality string, when archive.DateSpan) Query {
	key := normalize.Key(name)
	return Query{
		Name:        name,
		Normalized:  key,
		Phonetic:    phonetics.CodeN(key, s.cfg.SoundexLength),
		Nationality: nationality,
		When:        when,
	}
}

// Score evaluates one candidate record against the query. The date term
// is dropped and the remaining weights renormalized when either side is
// undated; silently scoring a missing date as zero would punish sparse
// records for having fewer fields rather than worse matches.
func (s *Scorer) Score(q Query, rec *archive.Record) Candidate {
	c := Candidate{
		Record:       rec,
		Ref:          rec.Ref(),
		ArchiveTag:   string(rec.Archive),
		Name:         rec.Name,
		DateDistance: math.MaxInt,
	}

	c.NameScore = similarity.Score(q.Normalized, rec.Normalized)
	if q.Phonetic == rec.Phonetic {
		c.PhonScore = 1.0
	}
	c.NatScore = nationalityScore(q.Nationality, rec.Nationality)

	total := s.cfg.Weights.Name + s.cfg.Weights.Nationality + s.cfg.Weights.Phonetic
	sum := s.cfg.Weights.Name*c.NameScore +
		s.cfg.Weights.Nationality*c.NatScore +
		s.cfg.Weights.Phonetic*c.PhonScore

	if q.When.Known() && rec.When.Known() {
		c.DateKnown = true
		c.DateDistance = q.When.DaysApart(rec.When)
		c.DateScore = dateScore(c.DateDistance, s.cfg.DateWindowDays)
		total += s.cfg.Weights.Date
		sum += s.cfg.Weights.Date * c.DateScore
	}

	if total > 0 {
		c.Confidence = clamp01(sum / total)
	}
	c.Confidence = math.Round(c.Confidence*10000) / 10000
	return c
}

// nationalityScore: exact agreement scores 1, a missing code on either
// side is neutral (0.5), an outright mismatch scores 0.
func nationalityScore(a, b string) float64 {
	if a == "" || b == "" {
		return 0.5
	}
	if a == b {
		return 1.0
	}
	return 0.0
}

// dateScore decays linearly from 1 at zero days to 0 at the window
// boundary. Overlapping spans have distance 0 and score 1.
func dateScore(days, windowDays int) float64 {
	if days <= 0 {
		return 1.0
	}
	if days >= windowDays {
		return 0.0
	}
	return 1.0 - float64(days)/float64(windowDays)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
