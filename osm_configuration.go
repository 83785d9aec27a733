package openlr

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// OsmConfiguration Allows to filter ways by certain tags from OSM data and tells how edges are weighted
type OsmConfiguration struct {
	EntityName string         `toml:"entity_name"` // Currrently we support 'highway' only
	Tags       []string       `toml:"tags"`
	CostType   string         `toml:"cost_type"`
	VLim       *VelocityLimit `toml:"-"`
}

// VelocityLimit if cost_type = hours or seconds
type VelocityLimit struct {
	Tag     string // "static" or "maxspeed"
	Default float64
}

// DefaultOsmConfiguration returns configuration accepting common car roads weighted by meters
func DefaultOsmConfiguration() *OsmConfiguration {
	return &OsmConfiguration{
		EntityName: "highway",
		Tags: []string{
			"motorway", "motorway_link", "trunk", "trunk_link", "primary", "primary_link",
			"secondary", "secondary_link", "tertiary", "tertiary_link", "residential", "unclassified",
			"living_street", "service",
		},
		CostType: "meters",
	}
}

// CheckTag Checks if incoming tag is represented in configuration. Empty configuration accepts any tag
func (cfg *OsmConfiguration) CheckTag(tag string) bool {
	if len(cfg.Tags) == 0 {
		return true
	}
	for i := range cfg.Tags {
		if cfg.Tags[i] == tag {
			return true
		}
	}
	return false
}

// ParseCostType parses cost type in form 'units[->velocity_tag[->default_velocity]]', e.g. 'seconds->maxspeed->11.11'
func (cfg *OsmConfiguration) ParseCostType(tag string) error {
	paramsTag := strings.Split(tag, "->")

	switch paramsTag[0] {
	case "kilometers", "meters", "hours", "seconds":
		cfg.CostType = paramsTag[0]
	default:
		return errors.Wrapf(ErrInvalidArgument, "first param '%s' bad for tag cost_type", paramsTag[0])
	}
	if cfg.CostType == "kilometers" || cfg.CostType == "meters" {
		cfg.VLim = nil
		return nil
	}
	cfg.VLim = &VelocityLimit{Tag: "static"}
	if len(paramsTag) >= 2 {
		switch paramsTag[1] {
		case "static", "maxspeed":
			cfg.VLim.Tag = paramsTag[1]
		default:
			return errors.Wrapf(ErrInvalidArgument, "second param '%s' bad for tag cost_type", paramsTag[1])
		}
	}
	if len(paramsTag) == 3 {
		value, err := strconv.ParseFloat(paramsTag[2], 64)
		if err != nil {
			return errors.Wrapf(ErrInvalidArgument, "third param '%s' bad for tag cost_type", paramsTag[2])
		}
		if value <= 0 {
			return errors.Wrapf(ErrInvalidArgument, "default velocity must be positive, got %f", value)
		}
		cfg.VLim.Default = value
		return nil
	}
	if cfg.CostType == "hours" {
		cfg.VLim.Default = 40.0 // km/h
	}
	if cfg.CostType == "seconds" {
		cfg.VLim.Default = 11.11 // m/s
	}
	return nil
}

// speed returns velocity for given edge tags in units of cost type (km/h for hours, m/s for seconds)
func (cfg *OsmConfiguration) speed(maxSpeed float64, highwayDefault float64) float64 {
	kmh := -1.0
	if cfg.VLim.Tag == "maxspeed" {
		kmh = maxSpeed
		if kmh <= 0 {
			kmh = highwayDefault
		}
	}
	if kmh <= 0 {
		return cfg.VLim.Default
	}
	if cfg.CostType == "seconds" {
		return kmh / 3.6
	}
	return kmh
}
