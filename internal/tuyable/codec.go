package tuyable

import (
	"encoding/binary"
	"fmt"
)

// Datapoint record layout on the wire:
//
//	byte 0    datapoint id
//	byte 1    type tag (raw=0 bool=1 value=2 string=3 enum=4 bitmap=5)
//	bytes 2-3 payload length, big endian
//	bytes 4+  payload
//
// Integer payloads (value, bitmap) are big-endian; devices report them in
// 1, 2 or 4 bytes. Bool and enum payloads are a single byte.
const dpHeaderLen = 4

// dpRecord is one decoded datapoint report.
type dpRecord struct {
	id    uint8
	typ   DataPointType
	value int64
	raw   []byte
}

// encodeDataPoint encodes a single datapoint write.
//
// For raw and string types the payload is taken from raw; for all integer
// types it is derived from value.
func encodeDataPoint(id uint8, typ DataPointType, value int64, raw []byte) ([]byte, error) {
	tag, ok := typ.wireTag()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnencodableType, typ)
	}

	var payload []byte
	switch typ {
	case TypeBool, TypeEnum:
		payload = []byte{byte(value)}
	case TypeValue, TypeBitmap:
		payload = make([]byte, 4)
		binary.BigEndian.PutUint32(payload, uint32(value)) // #nosec G115 -- protocol values are 32-bit
	default: // TypeRaw, TypeString
		payload = raw
	}

	buf := make([]byte, dpHeaderLen+len(payload))
	buf[0] = id
	buf[1] = tag
	binary.BigEndian.PutUint16(buf[2:4], uint16(len(payload))) // #nosec G115 -- bounded by maxPayload check in caller
	copy(buf[dpHeaderLen:], payload)
	return buf, nil
}

// decodeDataPoints parses a notification payload into datapoint records.
//
// Multiple records may be concatenated in one payload. Unknown type tags
// and truncated records abort the parse; anything decoded before the fault
// is discarded so a corrupt frame never applies partially.
func decodeDataPoints(buf []byte) ([]dpRecord, error) {
	var records []dpRecord
	for len(buf) > 0 {
		if len(buf) < dpHeaderLen {
			return nil, fmt.Errorf("%w: %d bytes remaining", ErrTruncatedDataPoint, len(buf))
		}

		id := buf[0]
		typ, ok := typeFromWire(buf[1])
		if !ok {
			return nil, fmt.Errorf("%w: tag 0x%02x for dp %d", ErrUnknownDataPointType, buf[1], id)
		}
		length := int(binary.BigEndian.Uint16(buf[2:4]))
		if len(buf) < dpHeaderLen+length {
			return nil, fmt.Errorf("%w: dp %d declares %d payload bytes, %d available",
				ErrTruncatedDataPoint, id, length, len(buf)-dpHeaderLen)
		}

		payload := buf[dpHeaderLen : dpHeaderLen+length]
		rec := dpRecord{id: id, typ: typ}
		switch typ {
		case TypeBool, TypeEnum, TypeValue, TypeBitmap:
			v, err := decodeInt(payload)
			if err != nil {
				return nil, fmt.Errorf("dp %d: %w", id, err)
			}
			rec.value = v
		default: // TypeRaw, TypeString
			rec.raw = append([]byte(nil), payload...)
		}
		records = append(records, rec)

		buf = buf[dpHeaderLen+length:]
	}
	return records, nil
}

// decodeInt decodes a big-endian integer payload of 1, 2 or 4 bytes.
func decodeInt(payload []byte) (int64, error) {
	switch len(payload) {
	case 1:
		return int64(payload[0]), nil
	case 2:
		return int64(binary.BigEndian.Uint16(payload)), nil
	case 4:
		return int64(int32(binary.BigEndian.Uint32(payload))), nil
	default:
		return 0, fmt.Errorf("%w: integer payload of %d bytes", ErrTruncatedDataPoint, len(payload))
	}
}
