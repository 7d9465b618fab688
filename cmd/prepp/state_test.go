package main

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/benjaminschreck/go-prepp/pkg/prepp"
)

func TestStateRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.cbor")
	values := prepp.Bindings{
		"project": "demo",
		"hosts":   []interface{}{"h1", "h2"},
		"limits":  map[string]interface{}{"cpu": "2"},
	}

	if err := saveState(path, values); err != nil {
		t.Fatal(err)
	}

	loaded, err := loadState(path)
	if err != nil {
		t.Fatal(err)
	}

	if loaded["project"] != "demo" {
		t.Errorf("project = %v", loaded["project"])
	}
	hosts, ok := loaded["hosts"].([]interface{})
	if !ok || len(hosts) != 2 || hosts[1] != "h2" {
		t.Errorf("hosts = %#v", loaded["hosts"])
	}
	limits, ok := loaded["limits"].(map[string]interface{})
	if !ok || limits["cpu"] != "2" {
		t.Errorf("limits = %#v, nested mappings must decode as string maps", loaded["limits"])
	}
}

func TestStateIntegerBindingsStayUsable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.cbor")
	if err := saveState(path, prepp.Bindings{"n": 5, "neg": -3}); err != nil {
		t.Fatal(err)
	}

	loaded, err := loadState(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded["n"] != int64(5) {
		t.Errorf("n = %v (%T), want int64", loaded["n"], loaded["n"])
	}
	if loaded["neg"] != int64(-3) {
		t.Errorf("neg = %v (%T), want int64", loaded["neg"], loaded["neg"])
	}

	// The round-tripped value must still drive numeric interpolation.
	var lines []string
	_, err = prepp.NewWithConfig(prepp.DefaultConfig()).PreprocessSource(
		prepp.NewReaderSource("state.in", strings.NewReader("v=%(n)d\n")),
		loaded, func(line string) { lines = append(lines, line) })
	if err != nil {
		t.Fatal(err)
	}
	if len(lines) != 1 || lines[0] != "v=5" {
		t.Errorf("output = %q, want [v=5]", lines)
	}
}

func TestLoadStateMissing(t *testing.T) {
	if _, err := loadState(filepath.Join(t.TempDir(), "absent.cbor")); err == nil {
		t.Error("loading a missing state file should fail")
	}
}

func TestLoadStateCorrupt(t *testing.T) {
	path := writeFile(t, t.TempDir(), "state.cbor", "not cbor at all")
	if _, err := loadState(path); err == nil {
		t.Error("corrupt state should fail to decode")
	}
}
