// Package archive defines the record model shared by every data source:
// an enumerated archive kind, a typed record core with a pass-through
// attribute bag, date spans, and the registry describing each archive.
package archive

import "fmt"

// Kind identifies a source archive. Records carry their kind as an
// explicit tag; nothing routes on the textual shape of an id.
type Kind string

const (
	KindDAS      Kind = "das"      // Dutch Asiatic Shipping voyages
	KindEIC      Kind = "eic"      // English East India Company
	KindCarreira Kind = "carreira" // Portuguese Carreira da India
	KindGalleon  Kind = "galleon"  // Spanish Manila galleon trade
	KindSOIC     Kind = "soic"     // Swedish East India Company
	KindCLIWOC   Kind = "cliwoc"   // CLIWOC daily ship logbook tracks
)

var kinds = []Kind{KindDAS, KindEIC, KindCarreira, KindGalleon, KindSOIC, KindCLIWOC}

// ParseKind validates a textual archive tag.
func ParseKind(s string) (Kind, error) {
	for _, k := range kinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown archive kind %q", s)
}

// Kinds returns all known archive kinds in declaration order.
func Kinds() []Kind {
	out := make([]Kind, len(kinds))
	copy(out, kinds)
	return out
}

// RecordType classifies what a record describes.
type RecordType string

const (
	TypeVoyage      RecordType = "voyage"
	TypeWreck       RecordType = "wreck"
	TypeVessel      RecordType = "vessel"
	TypeHullProfile RecordType = "hull_profile"
	TypeTrack       RecordType = "track"
	TypeCrew        RecordType = "crew"
)
