package openlr

import (
	"context"
	"encoding/base64"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

const (
	defaultCandidateRadius   = 100.0
	defaultMaxCandidates     = 5
	defaultDistanceTolerance = 100.0
)

// locationResolver maps one location type back onto the graph
type locationResolver struct {
	codec   binaryCodec
	resolve func(ctx context.Context, loc Location) (ReferencedLocation, error)
}

// CanResolve reports whether the resolver accepts header flags and size of given record
func (resolver locationResolver) CanResolve(data []byte) bool {
	h, err := decodeHeader(data)
	if err != nil {
		return false
	}
	return resolver.codec.canDecode(h, len(data))
}

// Decoder resolves physical records onto the road network
type Decoder struct {
	engine            *Engine
	mapper            AttributeMapper
	logger            zerolog.Logger
	candidateRadius   float64
	maxCandidates     int
	distanceTolerance float64
	resolvers         []locationResolver
}

// NewDecoder returns decoder working on top of given engine.
// Mapper translates edge tags to FRC/FOW for candidate rating, nil mapper rates every edge as FRC_7/FOW_UNDEFINED
func NewDecoder(engine *Engine, mapper AttributeMapper, options ...func(*Decoder)) *Decoder {
	decoder := &Decoder{
		engine:            engine,
		mapper:            mapper,
		logger:            engine.logger,
		candidateRadius:   defaultCandidateRadius,
		maxCandidates:     defaultMaxCandidates,
		distanceTolerance: defaultDistanceTolerance,
	}
	for _, option := range options {
		option(decoder)
	}
	resolveByType := map[LocationType]func(ctx context.Context, loc Location) (ReferencedLocation, error){
		LOCATION_CIRCLE:           decoder.resolveArea,
		LOCATION_GEO_COORDINATE:   decoder.resolveArea,
		LOCATION_GRID:             decoder.resolveArea,
		LOCATION_LINE:             decoder.resolveLineLocation,
		LOCATION_POINT_ALONG_LINE: decoder.resolvePointAlongLineLocation,
		LOCATION_POLYGON:          decoder.resolveArea,
		LOCATION_RECTANGLE:        decoder.resolveArea,
	}
	// binaryCodecs order is the resolution priority
	decoder.resolvers = make([]locationResolver, 0, len(binaryCodecs))
	for _, codec := range binaryCodecs {
		decoder.resolvers = append(decoder.resolvers, locationResolver{
			codec:   codec,
			resolve: resolveByType[codec.locationType],
		})
	}
	return decoder
}

// WithCandidateRadius sets radius (meters) around location reference points where candidate vertices are searched
func WithCandidateRadius(meters float64) func(*Decoder) {
	return func(decoder *Decoder) {
		decoder.candidateRadius = meters
	}
}

// WithMaxCandidates limits number of candidates kept for each location reference point
func WithMaxCandidates(n int) func(*Decoder) {
	return func(decoder *Decoder) {
		decoder.maxCandidates = n
	}
}

// WithDistanceTolerance sets allowed difference (meters) between route length and decoded distance to next point
func WithDistanceTolerance(meters float64) func(*Decoder) {
	return func(decoder *Decoder) {
		decoder.distanceTolerance = meters
	}
}

// Decode resolves physical record. The first resolver accepting the record decodes it
func (decoder *Decoder) Decode(ctx context.Context, data []byte) (ReferencedLocation, error) {
	for _, resolver := range decoder.resolvers {
		if !resolver.CanResolve(data) {
			continue
		}
		loc, err := resolver.codec.decode(data)
		if err != nil {
			return nil, errors.Wrapf(err, "can't decode %s location", resolver.codec.locationType)
		}
		decoder.logger.Debug().Str("type", resolver.codec.locationType.String()).Int("bytes", len(data)).Msg("resolving location")
		return resolver.resolve(ctx, loc)
	}
	if len(data) == 0 {
		return nil, errors.Wrap(ErrUnrecognizedLocationType, "empty record")
	}
	return nil, errors.Wrapf(ErrUnrecognizedLocationType, "header %08b, %d bytes", data[0], len(data))
}

// DecodeString resolves base64 representation of physical record
func (decoder *Decoder) DecodeString(ctx context.Context, data string) (ReferencedLocation, error) {
	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, errors.Wrapf(ErrMalformedRecord, "can't decode base64: %s", err.Error())
	}
	return decoder.Decode(ctx, raw)
}

// Resolve maps already decoded location object onto the graph
func (decoder *Decoder) Resolve(ctx context.Context, loc Location) (ReferencedLocation, error) {
	switch loc.(type) {
	case *LineLocation:
		return decoder.resolveLineLocation(ctx, loc)
	case *PointAlongLineLocation:
		return decoder.resolvePointAlongLineLocation(ctx, loc)
	case *GeoCoordinateLocation, *CircleLocation, *RectangleLocation, *GridLocation, *PolygonLocation:
		return decoder.resolveArea(ctx, loc)
	}
	return nil, errors.Wrapf(ErrUnrecognizedLocationType, "location %T", loc)
}
