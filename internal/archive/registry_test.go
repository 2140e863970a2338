package archive

import (
	"strings"
	"testing"
)

func TestDefaultRegistry(t *testing.T) {
	reg := DefaultRegistry()

	wantNationalities := map[Kind]string{
		KindDAS:      "NL",
		KindEIC:      "UK",
		KindCarreira: "PT",
		KindGalleon:  "ES",
		KindSOIC:     "SE",
		KindCLIWOC:   "",
	}

	for kind, want := range wantNationalities {
		if got := reg.Nationality(kind); got != want {
			t.Errorf("Nationality(%s) = %q, want %q", kind, got, want)
		}
	}

	if len(reg.Kinds()) != len(wantNationalities) {
		t.Errorf("Kinds() lists %d archives, want %d", len(reg.Kinds()), len(wantNationalities))
	}

	info, ok := reg.Info(KindDAS)
	if !ok || info.Name == "" {
		t.Errorf("Info(das) = %+v, ok=%v, want populated entry", info, ok)
	}
}

func TestLoadRejectsBadManifests(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"unknown tag", "archives:\n  - tag: hanse\n    name: Hanseatic League\n    nationality: DE\n"},
		{"duplicate tag", "archives:\n  - tag: das\n    name: A\n    nationality: NL\n  - tag: das\n    name: B\n    nationality: NL\n"},
		{"empty manifest", "archives: []\n"},
		{"not yaml", "{{{{"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(strings.NewReader(tt.yaml)); err == nil {
				t.Error("Load accepted a bad manifest")
			}
		})
	}
}

func TestParseKind(t *testing.T) {
	for _, k := range Kinds() {
		got, err := ParseKind(string(k))
		if err != nil || got != k {
			t.Errorf("ParseKind(%q) = %q, %v", k, got, err)
		}
	}
	if _, err := ParseKind("hanse"); err == nil {
		t.Error("ParseKind accepted an unknown tag")
	}
}

func TestRecordDerive(t *testing.T) {
	rec := &Record{
		Archive: KindDAS,
		Type:    TypeVoyage,
		ID:      "1001",
		Name:    "De Batavia",
	}
	rec.Derive(0)

	if rec.Normalized != "BATAVIA" {
		t.Errorf("Normalized = %q, want BATAVIA", rec.Normalized)
	}
	if rec.Phonetic != "B310" {
		t.Errorf("Phonetic = %q, want B310", rec.Phonetic)
	}
	if rec.Ref() != "das:1001" {
		t.Errorf("Ref() = %q, want das:1001", rec.Ref())
	}

	empty := &Record{Name: "   "}
	empty.Derive(0)
	if empty.Normalized != "" {
		t.Errorf("blank name Normalized = %q, want empty", empty.Normalized)
	}
	if empty.Phonetic != "0000" {
		t.Errorf("blank name Phonetic = %q, want sentinel 0000", empty.Phonetic)
	}
}
