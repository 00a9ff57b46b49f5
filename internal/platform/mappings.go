package platform

import (
	"github.com/quarrylane/tuya-ble-bridge/internal/tuyable"
)

// Measurement units used across the mapping tables.
const (
	unitCelsius    = "°C"
	unitFahrenheit = "°F"
	unitPercent    = "%"
	unitPPM        = "ppm"
	unitSeconds    = "s"
	unitMinutes    = "min"
)

// categoryMapping holds the entity mappings for one device category:
// per-product lists plus an optional category-wide fallback. A product
// entry fully replaces the fallback, the two are never merged.
type categoryMapping[M any] struct {
	products map[string][]M
	fallback []M
}

// resolveMappings looks up the mapping list for a category/product pair.
//
// Resolution order: exact product entry, then the category fallback, then
// nothing. Unknown categories and products resolve to an empty list, never
// an error; a device without mappings simply registers no entities.
func resolveMappings[M any](table map[string]categoryMapping[M], category, productID string) []M {
	cm, ok := table[category]
	if !ok {
		return nil
	}
	if m, ok := cm.products[productID]; ok {
		return m
	}
	return cm.fallback
}

// includeMapping decides whether a resolved mapping becomes an entity.
// Most mappings always do; those marked RequireReported only register when
// the device has already reported the datapoint (matching the pinned type
// when one is set).
func includeMapping(device *tuyable.Device, requireReported bool, dpID uint8, typ tuyable.DataPointType) bool {
	if !requireReported {
		return true
	}
	return device.DataPoints().HasID(dpID, typ)
}

// availabilityGate restricts an entity to a device state, nil means
// always available.
type availabilityGate func(*tuyable.Device) bool

// Fingerbot products keep their push/switch mode in a datapoint; entities
// specific to one mode are gated on it.
var fingerbotModeDataPoints = map[string]uint8{
	"3yqdo5yt": 2, // CubeTouch 1s
	"xhf790if": 2, // CubeTouch II
	"blliqpsj": 8, // Fingerbot Plus
	"yiihr7zh": 8,
	"ltak7e1p": 8, // Fingerbot
	"y6kttvd6": 8,
	"yrnk7mnn": 8,
}

const (
	fingerbotModePush   = 0
	fingerbotModeSwitch = 1
)

// fingerbotInMode reports whether a fingerbot's mode datapoint holds the
// given value. Non-fingerbot products and unreported mode datapoints pass,
// mirroring the permissive default of the other entity operations.
func fingerbotInMode(device *tuyable.Device, mode int64) bool {
	id, ok := fingerbotModeDataPoints[device.ProductID()]
	if !ok {
		return true
	}
	dp, ok := device.DataPoints().Get(id)
	if !ok {
		return true
	}
	return dp.Value() == mode
}

func fingerbotInPushMode(device *tuyable.Device) bool {
	return fingerbotInMode(device, fingerbotModePush)
}

func fingerbotInSwitchMode(device *tuyable.Device) bool {
	return fingerbotInMode(device, fingerbotModeSwitch)
}
