// Package tuyable implements the local driver facade for Tuya BLE devices.
//
// A Tuya BLE device exposes its state as numbered "datapoints": small typed
// cells (bool, integer, enum index, bitmap, string, raw) reported over a
// vendor GATT protocol. This package owns the per-device datapoint cache and
// the write path; the entity platforms (internal/platform/...) read and write
// datapoints through it without knowing anything about BLE.
//
// # Architecture
//
//	┌───────────────────────────────────────────────────────────┐
//	│                         Device                            │
//	│                                                           │
//	│  ┌──────────────┐   ┌──────────────┐   ┌───────────────┐  │
//	│  │  DataPoints  │   │  write queue │   │   Transport   │  │
//	│  │  (cache)     │──▶│  (worker)    │──▶│  (BLE GATT)   │  │
//	│  └──────────────┘   └──────────────┘   └───────────────┘  │
//	│         ▲                                      │          │
//	│         └───────── notifications ◀─────────────┘          │
//	└───────────────────────────────────────────────────────────┘
//
// Reads are synchronous lookups against the cache. Writes are fire-and-forget:
// DataPoint.SetValue enqueues an encoded write and returns immediately; a
// worker goroutine drains the queue to the transport. No ordering guarantee
// exists between a write and a subsequent read observing the new value.
//
// # Thread Safety
//
// Device, DataPoints and DataPoint are safe for concurrent use.
//
// # Scope
//
// Pairing, session crypto and link supervision are out of scope; the bridge
// relies on externally provisioned pairing material and treats transport
// failures as log-and-drop events.
package tuyable
