package main

import (
	"flag"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "openlr.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
file = " moscow.osm.pbf "
tags = ["primary", "secondary"]
contract = true
candidate_radius = 35.5
geomf = "GeoJSON"
`)
	cfg := defaultConfig()
	if err := loadConfig(path, &cfg); err != nil {
		t.Error(err)
		return
	}
	if cfg.file != "moscow.osm.pbf" {
		t.Errorf("File must be '%s', but got '%s'", "moscow.osm.pbf", cfg.file)
	}
	if !reflect.DeepEqual(cfg.tags, []string{"primary", "secondary"}) {
		t.Errorf("Tags must be [primary secondary], but got %v", cfg.tags)
	}
	if !cfg.contract {
		t.Errorf("Contraction must be enabled")
	}
	if cfg.candidateRadius != 35.5 {
		t.Errorf("Candidate radius must be %f, but got %f", 35.5, cfg.candidateRadius)
	}
	if cfg.geomFormat != "geojson" {
		t.Errorf("Geometry format must be '%s', but got '%s'", "geojson", cfg.geomFormat)
	}
	// Keys missing in file keep defaults
	defaults := defaultConfig()
	if cfg.agent != defaults.agent || cfg.costType != defaults.costType || cfg.maxCandidates != defaults.maxCandidates || cfg.distanceTolerance != defaults.distanceTolerance {
		t.Errorf("Undefined keys must keep default values, but got %+v", cfg)
	}
	if err := loadConfig(filepath.Join(t.TempDir(), "missing.toml"), &cfg); err == nil {
		t.Errorf("Missing config file must be reported")
	}
	if err := loadConfig(writeConfig(t, "tags = "), &cfg); err == nil {
		t.Errorf("Broken config file must be reported")
	}
}

func TestRegisterFlags(t *testing.T) {
	path := writeConfig(t, `
agent = "bike"
tolerance = 20.0
max_candidates = 8
`)
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	cfg, finish := registerFlags(fs)
	if err := fs.Parse([]string{"-config", path, "-tolerance", "42", "-tags", "primary,residential"}); err != nil {
		t.Error(err)
		return
	}
	if err := finish(); err != nil {
		t.Error(err)
		return
	}
	if cfg.agent != "bike" {
		t.Errorf("Agent must be taken from file, but got '%s'", cfg.agent)
	}
	if cfg.maxCandidates != 8 {
		t.Errorf("Max candidates must be taken from file, but got %d", cfg.maxCandidates)
	}
	if cfg.tolerance != 42 {
		t.Errorf("Explicit flag must override file, but got tolerance %f", cfg.tolerance)
	}
	if !reflect.DeepEqual(cfg.tags, []string{"primary", "residential"}) {
		t.Errorf("Tags must be [primary residential], but got %v", cfg.tags)
	}
}

func TestParseCoordinate(t *testing.T) {
	pt, err := parseCoordinate("55.7542, 37.6210")
	if err != nil {
		t.Error(err)
		return
	}
	if pt.Lat != 55.7542 || pt.Lon != 37.6210 {
		t.Errorf("Coordinate must be (55.7542, 37.6210), but got %v", pt)
	}
	for _, str := range []string{"55.7542", "a,b", "1,2,3"} {
		if _, err := parseCoordinate(str); err == nil {
			t.Errorf("Coordinate '%s' must be rejected", str)
		}
	}
}
