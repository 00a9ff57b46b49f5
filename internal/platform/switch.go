package platform

import (
	"github.com/quarrylane/tuya-ble-bridge/internal/infrastructure/logging"
	"github.com/quarrylane/tuya-ble-bridge/internal/tuyable"
)

// SwitchMapping binds a bool or bitmap datapoint to a switch entity.
type SwitchMapping struct {
	DataPointID uint8
	Key         string
	Icon        string
	Category    EntityCategory

	// BitmapMask selects one or more bits of a bitmap datapoint. Zero
	// means the datapoint is a plain boolean. Several entities may share
	// one bitmap datapoint with disjoint masks (e.g. the CO2 detector's
	// alarm flags).
	BitmapMask uint64

	DisabledByDefault bool
	RequireReported   bool
	DataPointType     tuyable.DataPointType

	// IsAvailable optionally gates the entity on device state.
	IsAvailable availabilityGate
}

// Switch adapts a bool or bitmap datapoint to a switch entity.
type Switch struct {
	device  *tuyable.Device
	mapping SwitchMapping
	logger  *logging.Logger
}

// NewSwitch creates a switch adapter for one device datapoint.
func NewSwitch(device *tuyable.Device, mapping SwitchMapping, logger *logging.Logger) *Switch {
	return &Switch{
		device:  device,
		mapping: mapping,
		logger:  logger,
	}
}

// Info returns the entity's static metadata.
func (s *Switch) Info() EntityInfo {
	return EntityInfo{
		Key:               s.mapping.Key,
		Icon:              s.mapping.Icon,
		Category:          s.mapping.Category,
		DisabledByDefault: s.mapping.DisabledByDefault,
	}
}

// Available reports whether the entity is currently usable.
func (s *Switch) Available() bool {
	if s.mapping.IsAvailable == nil {
		return true
	}
	return s.mapping.IsAvailable(s.device)
}

// IsOn reads the switch state. An unreported datapoint reads as off.
func (s *Switch) IsOn() bool {
	dp, ok := s.device.DataPoints().Get(s.mapping.DataPointID)
	if !ok {
		return false
	}

	if s.mapping.BitmapMask != 0 &&
		(dp.Type() == tuyable.TypeRaw || dp.Type() == tuyable.TypeBitmap) {
		return uint64(dp.Value())&s.mapping.BitmapMask != 0
	}
	return dp.Value() != 0
}

// SetOn switches the entity on or off, asynchronously.
//
// For masked bitmap entities only the mapping's bits change; sibling
// entities on the same datapoint keep their state.
func (s *Switch) SetOn(on bool) {
	if s.mapping.BitmapMask != 0 {
		dp := s.device.DataPoints().GetOrCreate(
			s.mapping.DataPointID, tuyable.TypeBitmap, 0)

		value := uint64(dp.Value())
		if on {
			value |= s.mapping.BitmapMask
		} else {
			value &^= s.mapping.BitmapMask
		}
		dp.SetValue(int64(value)) // #nosec G115 -- bitmap fits 32 bits on the wire
		return
	}

	var value int64
	if on {
		value = 1
	}
	dp := s.device.DataPoints().GetOrCreate(
		s.mapping.DataPointID, tuyable.TypeBool, value)
	dp.SetValue(value)
}

// SwitchMappings resolves the switch mapping list for a category/product.
func SwitchMappings(category, productID string) []SwitchMapping {
	return resolveMappings(switchMappings, category, productID)
}

func fingerbotSwitchMapping(dpID uint8) SwitchMapping {
	return SwitchMapping{
		DataPointID: dpID,
		Key:         "switch",
		IsAvailable: fingerbotInSwitchMode,
	}
}

func reversePositionsMapping(dpID uint8) SwitchMapping {
	return SwitchMapping{
		DataPointID: dpID,
		Key:         "reverse_positions",
		Icon:        "mdi:arrow-up-down-bold",
		Category:    CategoryConfig,
		IsAvailable: fingerbotInSwitchMode,
	}
}

func valveSwitchMapping(dpID uint8, key string) SwitchMapping {
	return SwitchMapping{
		DataPointID: dpID,
		Key:         key,
		Icon:        "mdi:gesture-tap-box",
		Category:    CategoryConfig,
	}
}

var switchMappings = map[string]categoryMapping[SwitchMapping]{
	"co2bj": {
		products: map[string][]SwitchMapping{
			"59s19z5m": { // CO2 detector
				{
					DataPointID:       11,
					Key:               "carbon_dioxide_severely_exceed_alarm",
					Icon:              "mdi:molecule-co2",
					Category:          CategoryConfig,
					DisabledByDefault: true,
					BitmapMask:        0x01,
				},
				{
					DataPointID:       11,
					Key:               "low_battery_alarm",
					Icon:              "mdi:battery-alert",
					Category:          CategoryConfig,
					DisabledByDefault: true,
					BitmapMask:        0x02,
				},
				{
					DataPointID: 13,
					Key:         "carbon_dioxide_alarm_switch",
					Icon:        "mdi:molecule-co2",
					Category:    CategoryConfig,
				},
			},
		},
	},
	"ms": {
		products: map[string][]SwitchMapping{
			"ludzroix": { // Smart lock
				{
					DataPointID: 47,
					Key:         "lock_motor_state",
				},
			},
		},
	},
	"szjqr": {
		products: map[string][]SwitchMapping{
			"3yqdo5yt": { // CubeTouch 1s
				fingerbotSwitchMapping(1),
				reversePositionsMapping(4),
			},
			"xhf790if": { // CubeTouch II
				fingerbotSwitchMapping(1),
				reversePositionsMapping(4),
			},
			"blliqpsj": { // Fingerbot Plus
				fingerbotSwitchMapping(2),
				reversePositionsMapping(11),
				{
					DataPointID: 17,
					Key:         "manual_control",
					Icon:        "mdi:gesture-tap-box",
					Category:    CategoryConfig,
				},
			},
			"yiihr7zh": {
				fingerbotSwitchMapping(2),
				reversePositionsMapping(11),
				{
					DataPointID: 17,
					Key:         "manual_control",
					Icon:        "mdi:gesture-tap-box",
					Category:    CategoryConfig,
				},
			},
			"ltak7e1p": { // Fingerbot
				fingerbotSwitchMapping(2),
				reversePositionsMapping(11),
			},
			"y6kttvd6": {
				fingerbotSwitchMapping(2),
				reversePositionsMapping(11),
			},
			"yrnk7mnn": {
				fingerbotSwitchMapping(2),
				reversePositionsMapping(11),
			},
		},
	},
	"wsdcg": {
		products: map[string][]SwitchMapping{
			"ojzlzzsw": { // Soil moisture sensor
				{
					DataPointID:       21,
					Key:               "switch",
					Icon:              "mdi:thermometer",
					Category:          CategoryConfig,
					DisabledByDefault: true,
				},
			},
		},
	},
	"sfkzq": {
		products: map[string][]SwitchMapping{
			"1fcnd8xk": { // Water valve
				func() SwitchMapping {
					m := valveSwitchMapping(1, "switch")
					m.DisabledByDefault = true
					return m
				}(),
			},
		},
	},
	"ggq": {
		products: map[string][]SwitchMapping{
			"fdrbxxbg": { // Dual water valve
				valveSwitchMapping(105, "switch_1"),
				valveSwitchMapping(104, "switch_2"),
			},
		},
	},
}
