package archive

import (
	"time"

	"github.com/shiplink/internal/normalize"
	"github.com/shiplink/internal/phonetics"
)

// Record is one resolvable entity from a source archive. The core
// fields are what the matcher depends on; everything else an archive
// supplies rides along untouched in Attrs.
type Record struct {
	Archive     Kind
	Type        RecordType
	ID          string
	Name        string
	Nationality string
	When        DateSpan

	// Derived from Name, cached by Derive.
	Normalized string
	Phonetic   string

	Attrs map[string]any
}

// Ref is the record's display reference, e.g. "das:1001". Display only;
// routing always uses the Archive tag, never this string.
func (r *Record) Ref() string {
	return string(r.Archive) + ":" + r.ID
}

// Derive fills the cached normalized name and phonetic code. The
// phonetic code is computed over the normalized key so that spelling
// and article variants land in the same bucket. soundexLength <= 0
// selects the standard length.
func (r *Record) Derive(soundexLength int) {
	r.Normalized = normalize.Key(r.Name)
	r.Phonetic = phonetics.CodeN(r.Normalized, soundexLength)
}

// TrackPoint is one dated position report from a logbook track.
// Positions use signed decimal degrees, south and west negative.
type TrackPoint struct {
	Date time.Time `json:"date"`
	Lat  float64   `json:"lat"`
	Lon  float64   `json:"lon"`
}

// Attr reads a single attribute from the bag, tolerating a nil map.
func (r *Record) Attr(key string) (any, bool) {
	if r.Attrs == nil {
		return nil, false
	}
	v, ok := r.Attrs[key]
	return v, ok
}

// StringAttr reads a string attribute, returning "" when absent or not
// a string.
func (r *Record) StringAttr(key string) string {
	v, ok := r.Attr(key)
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

// FloatAttr reads a numeric attribute. JSON decoding produces float64
// for every number, but records built in code may carry int values, so
// both are accepted.
func (r *Record) FloatAttr(key string) (float64, bool) {
	v, ok := r.Attr(key)
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	}
	return 0, false
}
