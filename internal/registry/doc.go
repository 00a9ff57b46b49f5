// Package registry persists the set of paired Tuya BLE devices.
//
// Each record carries the pairing credentials (device id, local key, uuid)
// alongside the category and product id that drive entity mapping. The
// registry is seeded from the YAML config on startup and survives restarts
// so pairing data is never lost when a device is temporarily removed from
// the config file.
//
// Architecture:
//
//	config.Devices ──> Seed ──> devices table (SQLite)
//	                              │
//	                              ├─> List ──> bridge startup (one Device per row)
//	                              └─> TouchLastSeen <── BLE connect events
//
// The Repository interface abstracts persistence so the bridge and tests
// can swap in mocks; SQLiteRepository is the production implementation.
package registry
