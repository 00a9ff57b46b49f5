package tuyable

// DataPointType identifies the wire encoding of a datapoint value.
//
// The zero value (TypeUnset) means "no type constraint" in mapping tables
// and "type not yet known" on freshly created datapoints. The remaining
// values correspond to the Tuya BLE protocol type tags.
type DataPointType uint8

const (
	// TypeUnset matches any type in lookups and cannot be encoded.
	TypeUnset DataPointType = iota

	// TypeRaw is an opaque byte payload.
	TypeRaw

	// TypeBool is a single-byte boolean.
	TypeBool

	// TypeValue is a 32-bit integer.
	TypeValue

	// TypeString is a UTF-8 string payload.
	TypeString

	// TypeEnum is a single-byte index into a product-defined option list.
	TypeEnum

	// TypeBitmap is an integer interpreted as a bit set.
	TypeBitmap
)

// String returns the lower-case protocol name of the type.
func (t DataPointType) String() string {
	switch t {
	case TypeRaw:
		return "raw"
	case TypeBool:
		return "bool"
	case TypeValue:
		return "value"
	case TypeString:
		return "string"
	case TypeEnum:
		return "enum"
	case TypeBitmap:
		return "bitmap"
	default:
		return "unset"
	}
}

// wireTag returns the Tuya BLE protocol tag for the type.
// TypeUnset has no wire representation.
func (t DataPointType) wireTag() (byte, bool) {
	if t == TypeUnset || t > TypeBitmap {
		return 0, false
	}
	return byte(t - 1), true
}

// typeFromWire converts a protocol type tag to a DataPointType.
func typeFromWire(tag byte) (DataPointType, bool) {
	if tag > 5 {
		return TypeUnset, false
	}
	return DataPointType(tag + 1), true
}

// DeviceInfo carries the identity of a paired device.
//
// Category and ProductID are the Tuya device classification used as lookup
// keys into the entity mapping tables; the remaining fields identify the
// physical device and its pairing material.
type DeviceInfo struct {
	Address   string
	Name      string
	Category  string
	ProductID string
	DeviceID  string
	LocalKey  string
	UUID      string
}
