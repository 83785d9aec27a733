package openlr

import (
	"regexp"
	"strconv"

	"github.com/paulmach/osm"
	"github.com/pkg/errors"
)

var (
	junctionTypes = map[string]struct{}{
		"circular":   {},
		"roundabout": {},
	}

	negligibleHighwayTags = map[string]struct{}{
		"path":         {},
		"construction": {},
		"proposed":     {},
		"raceway":      {},
		"bridleway":    {},
		"rest_area":    {},
		"su":           {},
		"road":         {},
		"abandoned":    {},
		"planned":      {},
		"trailhead":    {},
		"stairs":       {},
		"dismantled":   {},
		"disused":      {},
		"razed":        {},
		"access":       {},
		"corridor":     {},
		"stop":         {},
	}

	// See ref.: https://wiki.openstreetmap.org/wiki/Tag:oneway%3Dreversible
	onewayReversible = map[string]struct{}{
		"reversible":  {},
		"alternating": {},
	}

	mphRegExp    = regexp.MustCompile(`(\d+\.?\d*) ?mph`)
	numberRegExp = regexp.MustCompile(`^(\d+\.?\d*)`)
)

// parseMaxSpeed returns value of "maxspeed" tag in km/h or -1 when absent or unparsable
func parseMaxSpeed(tags osm.Tags) float64 {
	maxSpeed := tags.Find("maxspeed")
	if maxSpeed == "" {
		return -1
	}
	if match := mphRegExp.FindStringSubmatch(maxSpeed); match != nil {
		value, err := strconv.ParseFloat(match[1], 64)
		if err != nil {
			return -1
		}
		return value * 1.609344
	}
	if match := numberRegExp.FindStringSubmatch(maxSpeed); match != nil {
		value, err := strconv.ParseFloat(match[1], 64)
		if err != nil {
			return -1
		}
		return value
	}
	return -1
}

// AgentProfile is a VehicleProfile built from OSM access and oneway rules of the agent
type AgentProfile struct {
	agent AgentType
	cfg   *OsmConfiguration
}

// NewAgentProfile returns profile for given agent. Nil configuration weights edges by meters
func NewAgentProfile(agent AgentType, cfg *OsmConfiguration) (*AgentProfile, error) {
	if _, ok := agentsAccessExcludeValues[agent]; !ok {
		return nil, errors.Wrapf(ErrInvalidArgument, "agent type %d is not supported", agent)
	}
	if cfg == nil {
		cfg = DefaultOsmConfiguration()
	}
	if (cfg.CostType == "hours" || cfg.CostType == "seconds") && cfg.VLim == nil {
		if err := cfg.ParseCostType(cfg.CostType); err != nil {
			return nil, err
		}
	}
	return &AgentProfile{agent: agent, cfg: cfg}, nil
}

// NewCarProfile returns profile for motor vehicles
func NewCarProfile(cfg *OsmConfiguration) *AgentProfile {
	profile, _ := NewAgentProfile(AGENT_AUTO, cfg)
	return profile
}

// Agent returns agent type of the profile
func (profile *AgentProfile) Agent() AgentType {
	return profile.agent
}

// CanTraverse implements VehicleProfile. Explicit permissions win over restrictions
func (profile *AgentProfile) CanTraverse(tags osm.Tags) bool {
	highway := tags.Find("highway")
	if highway == "" {
		return false
	}
	if _, ok := negligibleHighwayTags[highway]; ok {
		return false
	}
	if accessMatches(tags, agentsAccessIncludeValues[profile.agent]) {
		return true
	}
	return !accessMatches(tags, agentsAccessExcludeValues[profile.agent])
}

// IsOneWay implements VehicleProfile
func (profile *AgentProfile) IsOneWay(tags osm.Tags) *bool {
	if profile.agent == AGENT_WALK {
		return nil
	}
	if profile.agent == AGENT_BIKE && tags.Find("oneway:bicycle") == "no" {
		return nil
	}
	forward, backward := true, false
	onewayText := tags.Find("oneway")
	switch onewayText {
	case "yes", "1", "true":
		return &forward
	case "-1", "reverse":
		return &backward
	case "no", "0", "false":
		return nil
	case "":
		if _, ok := junctionTypes[tags.Find("junction")]; ok {
			return &forward
		}
		return nil
	}
	// Reversible or alternating ways depend on time conditions and are treated as two-way
	return nil
}

// Weight implements VehicleProfile. Units follow cost type of the configuration
func (profile *AgentProfile) Weight(tags osm.Tags, distance float64) float64 {
	switch profile.cfg.CostType {
	case "kilometers":
		return distance / 1000
	case "hours", "seconds":
		highwayDefault := -1.0
		if composition, ok := linkTypeByHighway[getHighwayType(tags.Find("highway"))]; ok {
			highwayDefault = defaultSpeedByLinkType[composition.linkType]
		}
		speed := profile.cfg.speed(parseMaxSpeed(tags), highwayDefault)
		if speed <= 0 {
			return distance
		}
		if profile.cfg.CostType == "hours" {
			return distance / 1000 / speed
		}
		return distance / speed
	}
	return distance
}
