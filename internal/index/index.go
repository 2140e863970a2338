// Package index implements the tiered ship-name index over the track
// candidate pool: an exact bucket on normalized names, a phonetic
// bucket on Soundex codes, and a pruned full scan as the last resort.
package index

import (
	"sort"
	"sync"

	"github.com/shiplink/internal/archive"
	"github.com/shiplink/internal/match"
)

// Options tune retrieval behavior.
type Options struct {
	// MaxResults caps the ranked list returned by Lookup. <= 0 selects
	// the default of 5.
	MaxResults int
	// PruneRatio rejects fallback candidates whose normalized length
	// differs from the query's by more than this fraction of the longer
	// length, before any edit-distance work. <= 0 selects 0.5.
	PruneRatio float64
}

const (
	defaultMaxResults = 5
	defaultPruneRatio = 0.5
)

// Index is built lazily on first lookup and immutable afterwards.
// Concurrent lookups need no locking once the single guarded build has
// run; the build itself is a pure function of the pool, so even a
// hypothetical duplicate build would produce identical structures.
type Index struct {
	scorer *match.Scorer
	opts   Options
	pool   []*archive.Record

	once     sync.Once
	exact    map[string][]*archive.Record
	phonetic map[string][]*archive.Record
	all      []*archive.Record
}

// New wires an index over the candidate pool. The pool is not copied;
// the index derives and caches each record's normalized and phonetic
// forms at build time and must own them from then on.
func New(pool []*archive.Record, scorer *match.Scorer, opts Options) *Index {
	if opts.MaxResults <= 0 {
		opts.MaxResults = defaultMaxResults
	}
	if opts.PruneRatio <= 0 {
		opts.PruneRatio = defaultPruneRatio
	}
	return &Index{scorer: scorer, opts: opts, pool: pool}
}

// Lookup returns ranked candidates for a probe name with optional date
// and nationality context. The result is sorted by confidence
// descending, then smaller date distance, then archive tag, and never
// contains a candidate below the scorer's threshold. An empty result
// means no link, not an error.
func (ix *Index) Lookup(name string, when archive.DateSpan, nationality string) []match.Candidate {
	results, _ := ix.lookupWithStats(name, when, nationality)
	return results
}

// Size reports how many records were indexed.
func (ix *Index) Size() int {
	ix.ensure()
	return len(ix.all)
}

// lookupStats exposes retrieval cost for tests: Comparisons counts
// scored candidates, Pruned counts fallback rejections that skipped
// scoring entirely.
type lookupStats struct {
	Tier        match.Tier
	Comparisons int
	Pruned      int
}

func (ix *Index) lookupWithStats(name string, when archive.DateSpan, nationality string) ([]match.Candidate, lookupStats) {
	ix.ensure()

	var stats lookupStats
	q := ix.scorer.NewQuery(name, nationality, when)
	if q.Normalized == "" {
		return nil, stats
	}

	stats.Tier = match.TierExact
	if results := ix.scoreBucket(q, ix.exact[q.Normalized], match.TierExact, &stats); len(results) > 0 {
		return results, stats
	}

	stats.Tier = match.TierPhonetic
	if results := ix.scoreBucket(q, ix.phonetic[q.Phonetic], match.TierPhonetic, &stats); len(results) > 0 {
		return results, stats
	}

	stats.Tier = match.TierFuzzy
	qlen := len(q.Normalized)
	survivors := make([]*archive.Record, 0, 16)
	for _, rec := range ix.all {
		longer := qlen
		if len(rec.Normalized) > longer {
			longer = len(rec.Normalized)
		}
		diff := qlen - len(rec.Normalized)
		if diff < 0 {
			diff = -diff
		}
		if float64(diff) > ix.opts.PruneRatio*float64(longer) {
			stats.Pruned++
			continue
		}
		survivors = append(survivors, rec)
	}
	return ix.scoreBucket(q, survivors, match.TierFuzzy, &stats), stats
}

// scoreBucket scores every record in the bucket, keeps those clearing
// the confidence threshold, and ranks them deterministically.
func (ix *Index) scoreBucket(q match.Query, bucket []*archive.Record, tier match.Tier, stats *lookupStats) []match.Candidate {
	if len(bucket) == 0 {
		return nil
	}

	seen := make(map[string]bool, len(bucket))
	results := make([]match.Candidate, 0, len(bucket))
	for _, rec := range bucket {
		key := rec.Ref()
		if seen[key] {
			continue
		}
		seen[key] = true

		stats.Comparisons++
		c := ix.scorer.Score(q, rec)
		if c.Confidence < ix.scorer.Threshold() {
			continue
		}
		c.Tier = tier
		results = append(results, c)
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Confidence != results[j].Confidence {
			return results[i].Confidence > results[j].Confidence
		}
		if results[i].DateDistance != results[j].DateDistance {
			return results[i].DateDistance < results[j].DateDistance
		}
		return results[i].ArchiveTag < results[j].ArchiveTag
	})

	if len(results) > ix.opts.MaxResults {
		results = results[:ix.opts.MaxResults]
	}
	return results
}

func (ix *Index) ensure() {
	ix.once.Do(ix.build)
}

// build derives each record's comparison forms and files it into the
// exact and phonetic buckets. Records that normalize to nothing cannot
// match any query and are left out.
func (ix *Index) build() {
	ix.exact = make(map[string][]*archive.Record, len(ix.pool))
	ix.phonetic = make(map[string][]*archive.Record, len(ix.pool))
	ix.all = make([]*archive.Record, 0, len(ix.pool))

	soundexLen := ix.scorer.SoundexLength()
	for _, rec := range ix.pool {
		rec.Derive(soundexLen)
		if rec.Normalized == "" {
			continue
		}
		ix.exact[rec.Normalized] = append(ix.exact[rec.Normalized], rec)
		ix.phonetic[rec.Phonetic] = append(ix.phonetic[rec.Phonetic], rec)
		ix.all = append(ix.all, rec)
	}
}
