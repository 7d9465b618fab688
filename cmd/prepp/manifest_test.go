package main

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadManifest(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "prepp.toml", `
output = "build/out.txt"
log-level = "warn"
max-include-depth = 16

[defines]
project = "demo"
major = 2
`)

	m, err := LoadManifest(dir)
	if err != nil {
		t.Fatal(err)
	}
	if m.Output != "build/out.txt" {
		t.Errorf("Output = %q", m.Output)
	}
	if m.LogLevel != "warn" {
		t.Errorf("LogLevel = %q", m.LogLevel)
	}
	if m.MaxIncludeDepth != 16 {
		t.Errorf("MaxIncludeDepth = %d", m.MaxIncludeDepth)
	}
	if m.Defines["project"] != "demo" {
		t.Errorf("Defines[project] = %v", m.Defines["project"])
	}
	if m.Defines["major"] != int64(2) {
		t.Errorf("Defines[major] = %v (%T)", m.Defines["major"], m.Defines["major"])
	}
	if !filepath.IsAbs(m.Dir) {
		t.Errorf("Dir = %q, want absolute", m.Dir)
	}
}

func TestLoadManifestMissing(t *testing.T) {
	if _, err := LoadManifest(t.TempDir()); err == nil {
		t.Error("missing prepp.toml should fail to load")
	}
}

func TestLoadManifestBadToml(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "prepp.toml", "output = [broken\n")
	if _, err := LoadManifest(dir); err == nil {
		t.Error("invalid TOML should fail to load")
	}
}

func TestFindManifestWalksUp(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "prepp.toml", `output = "found.txt"`)

	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}

	m, err := FindManifest(nested)
	if err != nil {
		t.Fatal(err)
	}
	if m == nil || m.Output != "found.txt" {
		t.Errorf("manifest = %+v, want the one at the tree root", m)
	}
}

func TestFindManifestNone(t *testing.T) {
	// A bare temp dir has no prepp.toml anywhere up to the filesystem
	// root on a clean system; tolerate one if the environment provides
	// it, but a nil result must not be an error.
	m, err := FindManifest(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if m != nil && m.Dir == "" {
		t.Error("a found manifest must carry its directory")
	}
}

func TestLoadDefines(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "site.toml", `
name = "prod"
replicas = 3
hosts = ["h1", "h2"]

[limits]
cpu = "2"
`)

	defines, err := LoadDefines(path)
	if err != nil {
		t.Fatal(err)
	}
	if defines["name"] != "prod" {
		t.Errorf("name = %v", defines["name"])
	}
	if defines["replicas"] != int64(3) {
		t.Errorf("replicas = %v (%T)", defines["replicas"], defines["replicas"])
	}
	hosts, ok := defines["hosts"].([]interface{})
	if !ok || len(hosts) != 2 || hosts[0] != "h1" {
		t.Errorf("hosts = %#v", defines["hosts"])
	}
	limits, ok := defines["limits"].(map[string]interface{})
	if !ok || limits["cpu"] != "2" {
		t.Errorf("limits = %#v", defines["limits"])
	}
}
