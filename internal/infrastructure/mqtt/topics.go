package mqtt

import "fmt"

// Topic prefixes for the bridge's MQTT surface.
//
// All entity topics use the flat scheme: tuyable/{kind}/{device}/{key}.
// Device segments are bridge-assigned slugs (derived from the BLE address),
// key segments are entity keys from the mapping tables (e.g. "beep_volume").
const (
	// TopicPrefix is the base for all bridge topics.
	TopicPrefix = "tuyable"

	// TopicPrefixBridge is the base for bridge lifecycle topics.
	TopicPrefixBridge = "tuyable/bridge"
)

// Topics provides builders for the bridge's MQTT topics.
// Using these helpers ensures consistent topic naming across the codebase.
//
//	topics := mqtt.Topics{}
//	stateTopic := topics.EntityState("smart-lock", "beep_volume")
//	// Returns: "tuyable/state/smart-lock/beep_volume"
type Topics struct{}

// EntityState returns the retained state topic for one entity.
//
// Example: tuyable/state/smart-lock/beep_volume
func (Topics) EntityState(device, key string) string {
	return fmt.Sprintf("%s/state/%s/%s", TopicPrefix, device, key)
}

// EntityCommand returns the command topic for one entity.
//
// Example: tuyable/command/smart-lock/beep_volume
func (Topics) EntityCommand(device, key string) string {
	return fmt.Sprintf("%s/command/%s/%s", TopicPrefix, device, key)
}

// DeviceAvailability returns the retained availability topic for a device.
//
// Example: tuyable/availability/smart-lock
func (Topics) DeviceAvailability(device string) string {
	return fmt.Sprintf("%s/availability/%s", TopicPrefix, device)
}

// DeviceDiscovery returns the retained entity catalogue topic for a device.
//
// Example: tuyable/discovery/smart-lock
func (Topics) DeviceDiscovery(device string) string {
	return fmt.Sprintf("%s/discovery/%s", TopicPrefix, device)
}

// BridgeStatus returns the bridge online/offline status topic.
// This is also the LWT topic, so crashes flip it to offline automatically.
//
// Example: tuyable/bridge/status
func (Topics) BridgeStatus() string {
	return fmt.Sprintf("%s/status", TopicPrefixBridge)
}

// AllEntityCommands returns a pattern matching commands for all entities.
//
// Pattern: tuyable/command/+/+
func (Topics) AllEntityCommands() string {
	return fmt.Sprintf("%s/command/+/+", TopicPrefix)
}

// AllEntityStates returns a pattern matching all entity state topics.
//
// Pattern: tuyable/state/+/+
func (Topics) AllEntityStates() string {
	return fmt.Sprintf("%s/state/+/+", TopicPrefix)
}

// AllTopics returns a pattern matching all bridge topics.
// Use with caution - this receives ALL traffic.
//
// Pattern: tuyable/#
func (Topics) AllTopics() string {
	return TopicPrefix + "/#"
}
