package platform

import (
	"github.com/quarrylane/tuya-ble-bridge/internal/infrastructure/logging"
	"github.com/quarrylane/tuya-ble-bridge/internal/tuyable"
)

// NumberMode hints how the platform should render a number entity.
type NumberMode string

const (
	// ModeBox renders a numeric input field.
	ModeBox NumberMode = "box"

	// ModeSlider renders a slider.
	ModeSlider NumberMode = "slider"
)

// NumberMapping binds a value datapoint to a number entity.
type NumberMapping struct {
	DataPointID uint8
	Key         string
	Icon        string
	Category    EntityCategory

	Min  float64
	Max  float64
	Step float64
	Unit string
	Mode NumberMode

	// Coefficient scales between entity and wire values:
	// wire = entity × coefficient. Zero means 1.
	Coefficient float64

	DisabledByDefault bool
	RequireReported   bool
	DataPointType     tuyable.DataPointType

	// IsAvailable optionally gates the entity on device state.
	IsAvailable availabilityGate

	// Getter and Setter override the default datapoint access for
	// products that derive the value from elsewhere. A Setter returning
	// true consumes the write.
	Getter func(*tuyable.Device) (float64, bool)
	Setter func(*tuyable.Device, float64) bool
}

func (m *NumberMapping) coefficient() float64 {
	if m.Coefficient == 0 {
		return 1
	}
	return m.Coefficient
}

// Number adapts a value datapoint to a number entity.
type Number struct {
	device  *tuyable.Device
	mapping NumberMapping
	logger  *logging.Logger
}

// NewNumber creates a number adapter for one device datapoint.
func NewNumber(device *tuyable.Device, mapping NumberMapping, logger *logging.Logger) *Number {
	return &Number{
		device:  device,
		mapping: mapping,
		logger:  logger,
	}
}

// Info returns the entity's static metadata.
func (n *Number) Info() EntityInfo {
	return EntityInfo{
		Key:               n.mapping.Key,
		Icon:              n.mapping.Icon,
		Category:          n.mapping.Category,
		DisabledByDefault: n.mapping.DisabledByDefault,
	}
}

// Available reports whether the entity is currently usable.
func (n *Number) Available() bool {
	if n.mapping.IsAvailable == nil {
		return true
	}
	return n.mapping.IsAvailable(n.device)
}

// Min returns the smallest accepted value.
func (n *Number) Min() float64 { return n.mapping.Min }

// Max returns the largest accepted value.
func (n *Number) Max() float64 { return n.mapping.Max }

// Step returns the value granularity.
func (n *Number) Step() float64 { return n.mapping.Step }

// Unit returns the unit of measurement, may be empty.
func (n *Number) Unit() string { return n.mapping.Unit }

// Mode returns the rendering hint.
func (n *Number) Mode() NumberMode {
	if n.mapping.Mode == "" {
		return ModeBox
	}
	return n.mapping.Mode
}

// Value reads the current value, scaled by the mapping's coefficient.
// An unreported datapoint reads as the mapping's minimum.
func (n *Number) Value() float64 {
	if n.mapping.Getter != nil {
		if v, ok := n.mapping.Getter(n.device); ok {
			return v
		}
		return n.mapping.Min
	}

	dp, ok := n.device.DataPoints().Get(n.mapping.DataPointID)
	if !ok {
		return n.mapping.Min
	}
	return float64(dp.Value()) / n.mapping.coefficient()
}

// SetValue writes a new value, asynchronously. Values outside [Min, Max]
// are clamped rather than rejected.
func (n *Number) SetValue(value float64) {
	if value < n.mapping.Min {
		value = n.mapping.Min
	}
	if value > n.mapping.Max {
		value = n.mapping.Max
	}

	if n.mapping.Setter != nil && n.mapping.Setter(n.device, value) {
		return
	}

	wire := int64(value * n.mapping.coefficient())
	dp := n.device.DataPoints().GetOrCreate(
		n.mapping.DataPointID, tuyable.TypeValue, wire)
	dp.SetValue(wire)
}

// NumberMappings resolves the number mapping list for a category/product.
func NumberMappings(category, productID string) []NumberMapping {
	return resolveMappings(numberMappings, category, productID)
}

func holdTimeMapping(dpID uint8) NumberMapping {
	return NumberMapping{
		DataPointID: dpID,
		Key:         "hold_time",
		Icon:        "mdi:timer",
		Category:    CategoryConfig,
		Min:         0,
		Max:         10,
		Step:        1,
		Unit:        unitSeconds,
		IsAvailable: fingerbotInPushMode,
	}
}

func upPositionMapping(dpID uint8, max float64) NumberMapping {
	return NumberMapping{
		DataPointID: dpID,
		Key:         "up_position",
		Icon:        "mdi:arrow-up-bold",
		Category:    CategoryConfig,
		Min:         0,
		Max:         max,
		Step:        1,
		Unit:        unitPercent,
	}
}

func downPositionMapping(dpID uint8, min float64) NumberMapping {
	return NumberMapping{
		DataPointID: dpID,
		Key:         "down_position",
		Icon:        "mdi:arrow-down-bold",
		Category:    CategoryConfig,
		Min:         min,
		Max:         100,
		Step:        1,
		Unit:        unitPercent,
	}
}

func timerMapping(dpID uint8, key string, max float64, unit string) NumberMapping {
	return NumberMapping{
		DataPointID: dpID,
		Key:         key,
		Icon:        "mdi:timer",
		Category:    CategoryConfig,
		Min:         0,
		Max:         max,
		Step:        1,
		Unit:        unit,
	}
}

var numberMappings = map[string]categoryMapping[NumberMapping]{
	"co2bj": {
		products: map[string][]NumberMapping{
			"59s19z5m": { // CO2 detector
				{
					DataPointID: 17,
					Key:         "brightness",
					Icon:        "mdi:brightness-percent",
					Category:    CategoryConfig,
					Min:         0,
					Max:         100,
					Step:        1,
					Unit:        unitPercent,
					Mode:        ModeSlider,
				},
				{
					DataPointID: 26,
					Key:         "carbon_dioxide_alarm_level",
					Icon:        "mdi:molecule-co2",
					Category:    CategoryConfig,
					Min:         400,
					Max:         5000,
					Step:        100,
					Unit:        unitPPM,
				},
			},
		},
	},
	"ms": {
		products: map[string][]NumberMapping{
			"ludzroix": { // Smart lock
				{
					DataPointID: 8,
					Key:         "residual_electricity",
					Category:    CategoryConfig,
					Min:         -1,
					Max:         100,
					Step:        1,
					Unit:        unitPercent,
				},
			},
		},
	},
	"szjqr": {
		products: map[string][]NumberMapping{
			"3yqdo5yt": { // CubeTouch 1s
				holdTimeMapping(3),
				upPositionMapping(5, 100),
				downPositionMapping(6, 0),
			},
			"xhf790if": { // CubeTouch II
				holdTimeMapping(3),
				upPositionMapping(5, 100),
				downPositionMapping(6, 0),
			},
			"blliqpsj": { // Fingerbot Plus
				downPositionMapping(9, 51),
				holdTimeMapping(10),
				upPositionMapping(15, 50),
			},
			"yiihr7zh": {
				downPositionMapping(9, 51),
				holdTimeMapping(10),
				upPositionMapping(15, 50),
			},
			"ltak7e1p": { // Fingerbot
				downPositionMapping(9, 51),
				func() NumberMapping {
					// Firmware reports hold time in tenths of a second.
					m := holdTimeMapping(10)
					m.Step = 0.1
					m.Coefficient = 10
					return m
				}(),
				upPositionMapping(15, 50),
			},
			"y6kttvd6": {
				downPositionMapping(9, 51),
				func() NumberMapping {
					m := holdTimeMapping(10)
					m.Step = 0.1
					m.Coefficient = 10
					return m
				}(),
				upPositionMapping(15, 50),
			},
			"yrnk7mnn": {
				downPositionMapping(9, 51),
				func() NumberMapping {
					m := holdTimeMapping(10)
					m.Step = 0.1
					m.Coefficient = 10
					return m
				}(),
				upPositionMapping(15, 50),
			},
		},
	},
	"wsdcg": {
		products: map[string][]NumberMapping{
			"ojzlzzsw": { // Soil moisture sensor
				{
					DataPointID: 17,
					Key:         "reporting_period",
					Icon:        "mdi:timer",
					Category:    CategoryConfig,
					Min:         1,
					Max:         120,
					Step:        1,
					Unit:        unitMinutes,
				},
			},
		},
	},
	"sfkzq": {
		products: map[string][]NumberMapping{
			"1fcnd8xk": { // Water valve
				timerMapping(11, "countdown", 2592000, unitSeconds),
				timerMapping(9, "time_use", 86400, unitSeconds),
				timerMapping(15, "use_time_one", 86400, unitSeconds),
			},
		},
	},
	"ggq": {
		products: map[string][]NumberMapping{
			"fdrbxxbg": { // Dual water valve
				timerMapping(106, "countdown_1", 1440, unitMinutes),
				timerMapping(103, "countdown_2", 1440, unitMinutes),
				timerMapping(111, "use_time_1", 86400, unitMinutes),
				timerMapping(110, "use_time_2", 86400, unitMinutes),
			},
		},
	},
}
