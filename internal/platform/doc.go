// Package platform exposes Tuya BLE datapoints as home-automation entities
// over MQTT.
//
// Each paired device resolves, once at registration, to a list of entity
// adapters (select, switch, number) driven by static per-product mapping
// tables. Adapters translate between entity semantics (option strings,
// on/off, scaled floats) and the device's raw datapoints.
//
// Architecture:
//
//	mapping tables ──> registrar ──> entity adapters ──> tuyable.Device
//	                                      │
//	                                      ▼
//	                                  publisher
//	                                      │
//	            ┌─────────────────────────┼──────────────────────────┐
//	            ▼                         ▼                          ▼
//	  tuyable/state/{dev}/{key}  tuyable/command/{dev}/{key}  tuyable/discovery/{dev}
//
// State and discovery topics carry retained JSON; command topics carry
// plain-text payloads (the option string, "ON"/"OFF", or a decimal number).
// Commands are permissive: unknown options and malformed payloads are
// logged and dropped, never errored back to the device.
package platform
