package openlr

// FunctionalRoadClass is importance of the road. FRC_0 is the most important one
type FunctionalRoadClass uint8

const (
	FRC_0 = FunctionalRoadClass(iota)
	FRC_1
	FRC_2
	FRC_3
	FRC_4
	FRC_5
	FRC_6
	FRC_7
)

func (iotaIdx FunctionalRoadClass) String() string {
	if iotaIdx > FRC_7 {
		return "undefined"
	}
	return [...]string{"frc0", "frc1", "frc2", "frc3", "frc4", "frc5", "frc6", "frc7"}[iotaIdx]
}

// IsValid reports whether FRC fits 3 bits
func (iotaIdx FunctionalRoadClass) IsValid() bool {
	return iotaIdx <= FRC_7
}

// FormOfWay is physical road type
type FormOfWay uint8

const (
	FOW_UNDEFINED = FormOfWay(iota)
	FOW_MOTORWAY
	FOW_MULTIPLE_CARRIAGEWAY
	FOW_SINGLE_CARRIAGEWAY
	FOW_ROUNDABOUT
	FOW_TRAFFIC_SQUARE
	FOW_SLIPROAD
	FOW_OTHER
)

func (iotaIdx FormOfWay) String() string {
	if iotaIdx > FOW_OTHER {
		return "invalid"
	}
	return [...]string{"undefined", "motorway", "multiple_carriageway", "single_carriageway", "roundabout", "traffic_square", "sliproad", "other"}[iotaIdx]
}

// IsValid reports whether FOW fits 3 bits
func (iotaIdx FormOfWay) IsValid() bool {
	return iotaIdx <= FOW_OTHER
}

// Orientation of point along line relative to the referenced line direction
type Orientation uint8

const (
	ORIENTATION_NONE = Orientation(iota)
	ORIENTATION_FIRST_TO_SECOND
	ORIENTATION_SECOND_TO_FIRST
	ORIENTATION_BOTH
)

func (iotaIdx Orientation) String() string {
	if iotaIdx > ORIENTATION_BOTH {
		return "invalid"
	}
	return [...]string{"no_orientation", "first_to_second", "second_to_first", "both"}[iotaIdx]
}

// SideOfRoad of point along line relative to the referenced line direction
type SideOfRoad uint8

const (
	SIDE_ON_ROAD = SideOfRoad(iota)
	SIDE_RIGHT
	SIDE_LEFT
	SIDE_BOTH
)

func (iotaIdx SideOfRoad) String() string {
	if iotaIdx > SIDE_BOTH {
		return "invalid"
	}
	return [...]string{"on_road_or_unknown", "right", "left", "both"}[iotaIdx]
}
