package platform

import (
	"strconv"

	"github.com/quarrylane/tuya-ble-bridge/internal/infrastructure/logging"
	"github.com/quarrylane/tuya-ble-bridge/internal/tuyable"
)

// SelectMapping binds one enum datapoint to a select entity.
//
// The wire value is the 0-based index into Options; the option strings
// exist only on the bridge side.
type SelectMapping struct {
	DataPointID uint8
	Key         string
	Icon        string
	Category    EntityCategory
	Options     []string

	// DisabledByDefault is forwarded to the discovery catalogue.
	DisabledByDefault bool

	// RequireReported registers the entity only when the device has
	// already reported the datapoint.
	RequireReported bool

	// DataPointType optionally pins the reported datapoint's type for
	// the RequireReported check. TypeUnset accepts any type.
	DataPointType tuyable.DataPointType
}

// Select adapts an enum datapoint to a select entity.
type Select struct {
	device  *tuyable.Device
	mapping SelectMapping
	logger  *logging.Logger
}

// NewSelect creates a select adapter for one device datapoint.
func NewSelect(device *tuyable.Device, mapping SelectMapping, logger *logging.Logger) *Select {
	return &Select{
		device:  device,
		mapping: mapping,
		logger:  logger,
	}
}

// Info returns the entity's static metadata.
func (s *Select) Info() EntityInfo {
	return EntityInfo{
		Key:               s.mapping.Key,
		Icon:              s.mapping.Icon,
		Category:          s.mapping.Category,
		DisabledByDefault: s.mapping.DisabledByDefault,
	}
}

// Available reports whether the entity is currently usable.
func (s *Select) Available() bool {
	return true
}

// Options returns the ordered option list.
func (s *Select) Options() []string {
	return s.mapping.Options
}

// CurrentOption returns the currently selected option.
//
// The second return value is false when the device has not reported the
// datapoint yet ("no selection"). A value outside the option list is
// returned in its decimal string form rather than treated as an error, so
// devices with firmware options the table doesn't know stay readable.
func (s *Select) CurrentOption() (string, bool) {
	dp, ok := s.device.DataPoints().Get(s.mapping.DataPointID)
	if !ok {
		return "", false
	}

	value := dp.Value()
	if value >= 0 && value < int64(len(s.mapping.Options)) {
		return s.mapping.Options[value], true
	}
	return strconv.FormatInt(value, 10), true
}

// SelectOption changes the selected option.
//
// An option not in the list is ignored with a debug log; nothing reaches
// the device. A valid option updates the cached datapoint (creating it as
// enum-typed if needed) and enqueues an asynchronous write. The call
// returns before the write is delivered.
func (s *Select) SelectOption(option string) {
	index := int64(-1)
	for i, o := range s.mapping.Options {
		if o == option {
			index = int64(i)
			break
		}
	}
	if index < 0 {
		s.logger.Debug("ignoring unknown select option",
			"device", s.device.Slug(),
			"entity", s.mapping.Key,
			"option", option,
		)
		return
	}

	dp := s.device.DataPoints().GetOrCreate(s.mapping.DataPointID, tuyable.TypeEnum, index)
	dp.SetValue(index)
}

// SelectMappings resolves the select mapping list for a category/product.
func SelectMappings(category, productID string) []SelectMapping {
	return resolveMappings(selectMappings, category, productID)
}

var fingerbotModeOptions = []string{"push", "switch"}

func temperatureUnitMapping(dpID uint8) SelectMapping {
	return SelectMapping{
		DataPointID: dpID,
		Key:         "temperature_unit",
		Icon:        "mdi:thermometer",
		Category:    CategoryConfig,
		Options:     []string{unitCelsius, unitFahrenheit},
	}
}

func fingerbotModeMapping(dpID uint8) SelectMapping {
	return SelectMapping{
		DataPointID: dpID,
		Key:         "fingerbot_mode",
		Category:    CategoryConfig,
		Options:     fingerbotModeOptions,
	}
}

var selectMappings = map[string]categoryMapping[SelectMapping]{
	"co2bj": {
		products: map[string][]SelectMapping{
			"59s19z5m": { // CO2 detector
				temperatureUnitMapping(101),
			},
		},
	},
	"ms": {
		products: map[string][]SelectMapping{
			"ludzroix": { // Smart lock
				{
					DataPointID: 31,
					Key:         "beep_volume",
					Category:    CategoryConfig,
					Options:     []string{"mute", "low", "normal", "high"},
				},
			},
		},
	},
	"szjqr": {
		products: map[string][]SelectMapping{
			"3yqdo5yt": {fingerbotModeMapping(2)}, // CubeTouch 1s
			"xhf790if": {fingerbotModeMapping(2)}, // CubeTouch II
			"blliqpsj": {fingerbotModeMapping(8)}, // Fingerbot Plus
			"yiihr7zh": {fingerbotModeMapping(8)},
			"ltak7e1p": {fingerbotModeMapping(8)}, // Fingerbot
			"y6kttvd6": {fingerbotModeMapping(8)},
			"yrnk7mnn": {fingerbotModeMapping(8)},
		},
	},
	"wsdcg": {
		products: map[string][]SelectMapping{
			"ojzlzzsw": { // Soil moisture sensor
				func() SelectMapping {
					m := temperatureUnitMapping(9)
					m.DisabledByDefault = true
					return m
				}(),
			},
		},
	},
	"sfkzq": {
		products: map[string][]SelectMapping{
			"1fcnd8xk": { // Water valve
				{
					DataPointID: 10,
					Key:         "weather_delay",
					Icon:        "mdi:weather-cloudy-clock",
					Category:    CategoryConfig,
					Options:     []string{"cancel", "24h", "48h", "72h"},
				},
			},
		},
	},
}
