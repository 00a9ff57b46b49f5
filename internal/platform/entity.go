package platform

// EntityCategory classifies an entity within the platform UI.
type EntityCategory string

const (
	// CategoryNone marks a primary entity.
	CategoryNone EntityCategory = ""

	// CategoryConfig marks a configuration entity.
	CategoryConfig EntityCategory = "config"

	// CategoryDiagnostic marks a read-mostly diagnostic entity.
	CategoryDiagnostic EntityCategory = "diagnostic"
)

// EntityInfo is the static metadata published in the discovery catalogue.
type EntityInfo struct {
	// Key identifies the entity within its device ("beep_volume").
	// It is the final segment of the entity's MQTT topics.
	Key string

	// Icon is a platform icon hint ("mdi:thermometer"), may be empty.
	Icon string

	// Category classifies the entity, empty for primary entities.
	Category EntityCategory

	// DisabledByDefault hints that the platform should register the
	// entity but leave it disabled until the user opts in.
	DisabledByDefault bool
}

// Entity is the contract every adapter satisfies.
type Entity interface {
	// Info returns the entity's static metadata.
	Info() EntityInfo

	// Available reports whether the entity is currently usable. Some
	// entities are gated on device state (e.g. fingerbot hold time only
	// applies in push mode).
	Available() bool
}
