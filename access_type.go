package openlr

import (
	"github.com/paulmach/osm"
)

// AccessType is an OSM key restricting access of agents
type AccessType uint16

const (
	ACCESS_HIGHWAY = AccessType(iota + 1)
	ACCESS_MOTOR_VEHICLE
	ACCESS_MOTORCAR
	ACCESS_OSM_ACCESS
	ACCESS_SERVICE
	ACCESS_BICYCLE
	ACCESS_FOOT
	ACCESS_UNDEFINED = AccessType(0)
)

func (iotaIdx AccessType) String() string {
	return [...]string{"undefined", "highway", "motor_vehicle", "motorcar", "access", "service", "bicycle", "foot"}[iotaIdx]
}

// accessMatches reports whether any access key of tags has a value listed in filters
func accessMatches(tags osm.Tags, filters map[AccessType]map[string]struct{}) bool {
	for accessType, values := range filters {
		value := tags.Find(accessType.String())
		if value == "" {
			continue
		}
		if _, ok := values[value]; ok {
			return true
		}
	}
	return false
}
