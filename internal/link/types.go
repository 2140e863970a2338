// Package link assembles the unified multi-archive view of a voyage:
// exact and foreign-key links against the wreck, vessel and hull
// profile stores, with index-driven fuzzy resolution for tracks.
package link

import (
	"fmt"
	"sort"

	"github.com/shiplink/internal/archive"
	"github.com/shiplink/internal/match"
)

// Type names one linkable relationship of a voyage.
type Type string

const (
	TypeWreck       Type = "wreck"
	TypeVessel      Type = "vessel"
	TypeHullProfile Type = "hull_profile"
	TypeTrack       Type = "track"
)

// Method records how a link was established.
type Method string

const (
	MethodExact      Method = "exact"
	MethodForeignKey Method = "foreign_key"
	MethodFuzzy      Method = "fuzzy"
)

// Link is one resolved relationship. Exact and foreign-key links carry
// confidence 1.0; fuzzy links carry the composite score and keep the
// scored candidate for explainability.
type Link struct {
	Type       Type             `json:"type"`
	Record     *archive.Record  `json:"-"`
	Ref        string           `json:"ref"`
	Name       string           `json:"name"`
	Method     Method           `json:"method"`
	Confidence float64          `json:"confidence"`
	Candidate  *match.Candidate `json:"detail,omitempty"`
}

// LinkedView is the assembled result for one voyage: at most one link
// per type. Built fresh per request, never cached or mutated after
// assembly. A missing link type means nothing resolved, which is a
// normal outcome.
type LinkedView struct {
	Voyage *archive.Record
	RunID  string
	links  map[Type]*Link
}

// Link returns the resolved link of the given type, if any.
func (v *LinkedView) Link(t Type) (*Link, bool) {
	l, ok := v.links[t]
	return l, ok
}

// Links returns every resolved link, ordered by type name for
// reproducible output.
func (v *LinkedView) Links() []*Link {
	out := make([]*Link, 0, len(v.links))
	for _, l := range v.links {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Type < out[j].Type })
	return out
}

// LinksFound lists the names of the link types that resolved, sorted.
func (v *LinkedView) LinksFound() []string {
	out := make([]string, 0, len(v.links))
	for t := range v.links {
		out = append(out, string(t))
	}
	sort.Strings(out)
	return out
}

// Confidence maps each resolved link type to its confidence.
func (v *LinkedView) Confidence() map[string]float64 {
	out := make(map[string]float64, len(v.links))
	for t, l := range v.links {
		out[string(t)] = l.Confidence
	}
	return out
}

// Summary is the one-line description used by the CLI and log output.
func (v *LinkedView) Summary() string {
	return fmt.Sprintf("Voyage %s: %s (%d linked records)", v.Voyage.ID, v.Voyage.Name, len(v.links))
}

func (v *LinkedView) add(l *Link) {
	if l == nil {
		return
	}
	if v.links == nil {
		v.links = make(map[Type]*Link, 4)
	}
	v.links[l.Type] = l
}
