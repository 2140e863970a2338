package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestNewRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	log, err := New(Options{Level: "warn", Format: "json", Writer: &buf})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	log.Info("quiet")
	log.Warn("loud")

	out := buf.String()
	if strings.Contains(out, "quiet") {
		t.Errorf("info record emitted at warn level: %s", out)
	}
	if !strings.Contains(out, "loud") {
		t.Errorf("warn record missing: %s", out)
	}
}

func TestJSONFormatUsesShortKeys(t *testing.T) {
	var buf bytes.Buffer
	log, err := New(Options{Level: "info", Format: "json", Writer: &buf})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	log.Info("linked", "voyage", "das:2001")

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("decode record: %v (raw %s)", err, buf.String())
	}
	if _, ok := record["ts"]; !ok {
		t.Errorf("record missing ts key: %v", record)
	}
	if record["level"] != "info" {
		t.Errorf("level = %v, want info", record["level"])
	}
	if record["msg"] != "linked" || record["voyage"] != "das:2001" {
		t.Errorf("record = %v", record)
	}
}

func TestNewDefaultsToConsole(t *testing.T) {
	var buf bytes.Buffer
	log, err := New(Options{Writer: &buf})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	log.Debug("hidden")
	log.Info("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("debug record emitted at default level: %s", out)
	}
	if !strings.Contains(out, "msg=shown") {
		t.Errorf("console record missing: %s", out)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := New(Options{Format: "xml"}); err == nil {
		t.Error("New(xml) = nil error, want failure")
	}
}

func TestDiscardDropsRecords(t *testing.T) {
	log := Discard()
	if log == nil {
		t.Fatal("Discard() = nil")
	}
	log.Error("nothing should explode")
}
