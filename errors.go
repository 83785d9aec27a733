package openlr

import (
	"github.com/pkg/errors"
)

// Codec layer failures. Fatal to the single decode/encode call.
var (
	ErrMalformedRecord   = errors.New("malformed OpenLR record")
	ErrInvalidFieldValue = errors.New("invalid OpenLR field value")
)

// Builder and search layer failures. Fatal to the single build call.
var (
	ErrNoNetworkNearby           = errors.New("no network features found near location")
	ErrProjectionFailed          = errors.New("projection on edge failed")
	ErrPathNotFound              = errors.New("path not found")
	ErrNoValidAnchorFound        = errors.New("no valid anchor vertex found")
	ErrDistanceLimitUnresolvable = errors.New("distance between location reference points exceeds 15000m")
)

// Dispatcher failures.
var (
	ErrUnrecognizedLocationType = errors.New("data cannot be decoded by any registered resolver")
)

// ErrInvalidArgument marks programmer errors: bad argument ranges, inconsistent paths.
var ErrInvalidArgument = errors.New("invalid argument")
