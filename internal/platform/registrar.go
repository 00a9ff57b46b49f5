package platform

import (
	"github.com/quarrylane/tuya-ble-bridge/internal/infrastructure/logging"
	"github.com/quarrylane/tuya-ble-bridge/internal/tuyable"
)

// Entities builds the entity adapters for one connected device.
//
// Mapping resolution happens once, here; each mapping becomes an adapter
// unless it is marked RequireReported and the device has not reported the
// datapoint (with the pinned type, when one is set). The enumeration is
// one-shot and best-effort: devices without mappings yield an empty slice,
// never an error.
func Entities(device *tuyable.Device, logger *logging.Logger) []Entity {
	category := device.Category()
	productID := device.ProductID()

	var entities []Entity

	for _, m := range SelectMappings(category, productID) {
		if !includeMapping(device, m.RequireReported, m.DataPointID, m.DataPointType) {
			continue
		}
		entities = append(entities, NewSelect(device, m, logger))
	}

	for _, m := range SwitchMappings(category, productID) {
		if !includeMapping(device, m.RequireReported, m.DataPointID, m.DataPointType) {
			continue
		}
		entities = append(entities, NewSwitch(device, m, logger))
	}

	for _, m := range NumberMappings(category, productID) {
		if !includeMapping(device, m.RequireReported, m.DataPointID, m.DataPointType) {
			continue
		}
		entities = append(entities, NewNumber(device, m, logger))
	}

	logger.Debug("resolved device entities",
		"device", device.Slug(),
		"category", category,
		"product_id", productID,
		"entities", len(entities),
	)

	return entities
}
