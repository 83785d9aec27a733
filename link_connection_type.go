package openlr

// LinkConnectionType tells plain roads from ramps connecting two roads
type LinkConnectionType uint16

const (
	// Plain way
	NOT_A_LINK = LinkConnectionType(iota)
	// Connection between two roads
	IS_LINK
)

func (iotaIdx LinkConnectionType) String() string {
	return [...]string{"not_a_link", "is_link"}[iotaIdx]
}
