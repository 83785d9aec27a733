package openlr

// LinkType is a road category shared by a highway and its ramps
type LinkType uint16

const (
	LINK_MOTORWAY = LinkType(iota + 1)
	LINK_TRUNK
	LINK_PRIMARY
	LINK_SECONDARY
	LINK_TERTIARY
	LINK_RESIDENTIAL
	LINK_LIVING_STREET
	LINK_SERVICE
	LINK_CYCLEWAY
	LINK_FOOTWAY
	LINK_TRACK
	LINK_UNCLASSIFIED
)

func (iotaIdx LinkType) String() string {
	return [...]string{"motorway", "trunk", "primary", "secondary", "tertiary", "residential", "living_street", "service", "cycleway", "footway", "track", "unclassified"}[iotaIdx-1]
}

type linkComposition struct {
	linkType           LinkType
	linkConnectionType LinkConnectionType
}

var (
	// km/h
	defaultSpeedByLinkType = map[LinkType]float64{
		LINK_MOTORWAY:      120,
		LINK_TRUNK:         100,
		LINK_PRIMARY:       80,
		LINK_SECONDARY:     60,
		LINK_TERTIARY:      40,
		LINK_RESIDENTIAL:   30,
		LINK_LIVING_STREET: 10,
		LINK_SERVICE:       30,
		LINK_CYCLEWAY:      5,
		LINK_FOOTWAY:       5,
		LINK_TRACK:         30,
		LINK_UNCLASSIFIED:  30,
	}

	frcByLinkType = map[LinkType]FunctionalRoadClass{
		LINK_MOTORWAY:      FRC_0,
		LINK_TRUNK:         FRC_1,
		LINK_PRIMARY:       FRC_2,
		LINK_SECONDARY:     FRC_3,
		LINK_TERTIARY:      FRC_4,
		LINK_RESIDENTIAL:   FRC_5,
		LINK_UNCLASSIFIED:  FRC_5,
		LINK_LIVING_STREET: FRC_6,
		LINK_SERVICE:       FRC_6,
		LINK_TRACK:         FRC_7,
		LINK_CYCLEWAY:      FRC_7,
		LINK_FOOTWAY:       FRC_7,
	}
)
