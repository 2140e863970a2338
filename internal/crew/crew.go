// Package crew searches muster rolls by person name. Ship name
// matching has exact spellings to anchor on; crew names were written
// down by whichever clerk was on duty, so ranking leans on
// Jaro-Winkler similarity instead of edit distance.
package crew

import (
	"sort"
	"strings"

	"github.com/antzucaro/matchr"

	"github.com/shiplink/internal/archive"
	"github.com/shiplink/internal/normalize"
)

const (
	// DefaultMinScore keeps clerk-level spelling drift and drops
	// unrelated names.
	DefaultMinScore = 0.75

	DefaultMaxResults = 10
)

// Match is one ranked crew search hit.
type Match struct {
	Record   *archive.Record `json:"-"`
	Ref      string          `json:"ref"`
	Name     string          `json:"name"`
	Rank     string          `json:"rank"`
	Origin   string          `json:"origin"`
	VoyageID string          `json:"voyage_id"`
	Score    float64         `json:"score"`
}

// Options tune a Searcher. Zero values select the defaults.
type Options struct {
	MinScore   float64
	MaxResults int
}

// Searcher ranks crew records against a queried person name. Build
// once over the full muster set; Search is read-only and safe for
// concurrent use.
type Searcher struct {
	opts    Options
	records []*archive.Record
	keys    []string
	tokens  [][]string
}

// NewSearcher precomputes the comparable form of every crew name.
func NewSearcher(records []*archive.Record, opts Options) *Searcher {
	if opts.MinScore <= 0 {
		opts.MinScore = DefaultMinScore
	}
	if opts.MaxResults <= 0 {
		opts.MaxResults = DefaultMaxResults
	}

	s := &Searcher{
		opts:    opts,
		records: make([]*archive.Record, 0, len(records)),
		keys:    make([]string, 0, len(records)),
		tokens:  make([][]string, 0, len(records)),
	}
	for _, rec := range records {
		key := normalize.Person(rec.Name)
		if key == "" {
			continue
		}
		s.records = append(s.records, rec)
		s.keys = append(s.keys, key)
		s.tokens = append(s.tokens, strings.Fields(key))
	}
	return s
}

// Size returns the number of searchable crew records.
func (s *Searcher) Size() int {
	return len(s.records)
}

// Search returns the crew records most similar to name, best first.
// Ties order by name then reference so repeated queries agree.
func (s *Searcher) Search(name string) []Match {
	query := normalize.Person(name)
	if query == "" {
		return nil
	}
	queryTokens := strings.Fields(query)

	var matches []Match
	for i, rec := range s.records {
		score := bestScore(query, queryTokens, s.keys[i], s.tokens[i])
		if score < s.opts.MinScore {
			continue
		}
		matches = append(matches, Match{
			Record:   rec,
			Ref:      rec.Ref(),
			Name:     rec.Name,
			Rank:     rec.StringAttr("rank"),
			Origin:   rec.StringAttr("origin"),
			VoyageID: rec.StringAttr("voyage_id"),
			Score:    score,
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		if matches[i].Name != matches[j].Name {
			return matches[i].Name < matches[j].Name
		}
		return matches[i].Ref < matches[j].Ref
	})
	if len(matches) > s.opts.MaxResults {
		matches = matches[:s.opts.MaxResults]
	}
	return matches
}

// bestScore takes the strongest of three comparisons: the full
// strings, the space-stripped strings, and the best pairwise token
// score. The token pass catches a lone patronymic query against a full
// recorded name.
func bestScore(query string, queryTokens []string, key string, keyTokens []string) float64 {
	score := matchr.JaroWinkler(query, key, false)

	if len(queryTokens) > 1 || len(keyTokens) > 1 {
		joined1 := strings.Join(queryTokens, "")
		joined2 := strings.Join(keyTokens, "")
		if s := matchr.JaroWinkler(joined1, joined2, false); s > score {
			score = s
		}
	}

	for _, qt := range queryTokens {
		for _, kt := range keyTokens {
			if s := matchr.JaroWinkler(qt, kt, false); s > score {
				score = s
			}
		}
	}
	return score
}
