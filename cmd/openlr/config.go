package main

import (
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
)

// openlr config.toml key mapping
type fileConfig struct {
	File              string   `toml:"file"`
	Agent             string   `toml:"agent"`
	Tags              []string `toml:"tags"`
	CostType          string   `toml:"cost_type"`
	Contract          bool     `toml:"contract"`
	Tolerance         float64  `toml:"tolerance"`
	CandidateRadius   float64  `toml:"candidate_radius"`
	MaxCandidates     int      `toml:"max_candidates"`
	DistanceTolerance float64  `toml:"distance_tolerance"`
	GeomFormat        string   `toml:"geomf"`
}

type config struct {
	file              string
	agent             string
	tags              []string
	costType          string
	contract          bool
	tolerance         float64
	candidateRadius   float64
	maxCandidates     int
	distanceTolerance float64
	geomFormat        string
	verbose           bool
}

func defaultConfig() config {
	return config{
		file:              "my_graph.osm.pbf",
		agent:             "auto",
		tags:              strings.Split(defaultTags, ","),
		costType:          "meters",
		contract:          false,
		tolerance:         100,
		candidateRadius:   100,
		maxCandidates:     5,
		distanceTolerance: 100,
		geomFormat:        "wkt",
	}
}

// loadConfig overlays keys defined in TOML file on top of cfg
func loadConfig(path string, cfg *config) error {
	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return errors.Wrap(err, "load openlr config")
	}
	if meta.IsDefined("file") {
		cfg.file = strings.TrimSpace(raw.File)
	}
	if meta.IsDefined("agent") {
		cfg.agent = strings.TrimSpace(raw.Agent)
	}
	if meta.IsDefined("tags") {
		cfg.tags = raw.Tags
	}
	if meta.IsDefined("cost_type") {
		cfg.costType = strings.TrimSpace(raw.CostType)
	}
	if meta.IsDefined("contract") {
		cfg.contract = raw.Contract
	}
	if meta.IsDefined("tolerance") {
		cfg.tolerance = raw.Tolerance
	}
	if meta.IsDefined("candidate_radius") {
		cfg.candidateRadius = raw.CandidateRadius
	}
	if meta.IsDefined("max_candidates") {
		cfg.maxCandidates = raw.MaxCandidates
	}
	if meta.IsDefined("distance_tolerance") {
		cfg.distanceTolerance = raw.DistanceTolerance
	}
	if meta.IsDefined("geomf") {
		cfg.geomFormat = strings.ToLower(strings.TrimSpace(raw.GeomFormat))
	}
	return nil
}
