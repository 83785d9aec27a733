package openlr

import (
	"github.com/pkg/errors"
)

const (
	binaryVersion = 3

	headerBitArF1       = 1 << 6
	headerBitPoint      = 1 << 5
	headerBitArF0       = 1 << 4
	headerBitAttributes = 1 << 3
	headerVersionMask   = 0x07
	headerReservedMask  = 0x80
)

// header is the status byte of a physical record:
// RFU | ArF1 | PointFlag | ArF0 | AttributesFlag | Version (3 bits)
type header struct {
	Version       uint8
	HasAttributes bool
	ArF0          bool
	IsPoint       bool
	ArF1          bool
}

func (h header) areaFlag() uint8 {
	flag := uint8(0)
	if h.ArF1 {
		flag |= 2
	}
	if h.ArF0 {
		flag |= 1
	}
	return flag
}

func decodeHeader(data []byte) (header, error) {
	if err := checkLength(data, 0, 1); err != nil {
		return header{}, err
	}
	b := data[0]
	if b&headerReservedMask != 0 {
		return header{}, errors.Wrapf(ErrInvalidFieldValue, "reserved header bit is set: %08b", b)
	}
	h := header{
		Version:       b & headerVersionMask,
		HasAttributes: b&headerBitAttributes != 0,
		ArF0:          b&headerBitArF0 != 0,
		IsPoint:       b&headerBitPoint != 0,
		ArF1:          b&headerBitArF1 != 0,
	}
	if h.Version != binaryVersion {
		return header{}, errors.Wrapf(ErrInvalidFieldValue, "unsupported version %d", h.Version)
	}
	return h, nil
}

func encodeHeader(h header, data []byte) error {
	if err := checkLength(data, 0, 1); err != nil {
		return err
	}
	if h.Version > headerVersionMask {
		return errors.Wrapf(ErrInvalidFieldValue, "version %d does not fit 3 bits", h.Version)
	}
	b := h.Version
	if h.HasAttributes {
		b |= headerBitAttributes
	}
	if h.ArF0 {
		b |= headerBitArF0
	}
	if h.IsPoint {
		b |= headerBitPoint
	}
	if h.ArF1 {
		b |= headerBitArF1
	}
	data[0] = b
	return nil
}
