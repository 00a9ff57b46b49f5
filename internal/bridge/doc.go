// Package bridge orchestrates the lifetime of the Tuya BLE bridge.
//
// It loads the paired-device registry, builds one tuyable.Device per
// record with its resolved entity adapters, keeps BLE connections alive,
// and mirrors datapoint updates onto the MQTT platform surface (plus the
// optional history recorder).
//
// Architecture:
//
//	registry ──> Bridge.Start ──> tuyable.Device (one per pairing)
//	                │                   │
//	                │              OnUpdate fanout
//	                │                   │
//	                ▼                   ▼
//	         connectLoop          publisher.PublishStates
//	      (dial, backoff,         history.RecordDataPoint
//	       availability)
//
// The BLE dialer is an injected function so tests exercise the full
// lifecycle without an adapter.
package bridge
