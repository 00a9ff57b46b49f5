package platform

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/quarrylane/tuya-ble-bridge/internal/infrastructure/logging"
	"github.com/quarrylane/tuya-ble-bridge/internal/infrastructure/mqtt"
)

// MQTTClient is the slice of the MQTT client the publisher needs.
// Satisfied by *mqtt.Client; mocked in tests.
type MQTTClient interface {
	PublishRetained(topic string, payload []byte) error
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
}

// Publisher mirrors entity state onto MQTT and dispatches commands back
// to the adapters.
//
// Thread Safety: all methods are safe for concurrent use; command
// dispatch runs on the MQTT client's handler goroutines.
type Publisher struct {
	topics mqtt.Topics // topic builders carry no state
	mqtt   MQTTClient
	logger *logging.Logger

	mu      sync.RWMutex
	devices map[string]*registeredDevice
}

type registeredDevice struct {
	name     string
	entities map[string]Entity // keyed by entity key
	order    []string          // insertion order for stable discovery output
}

// NewPublisher creates a publisher on a connected MQTT client.
func NewPublisher(client MQTTClient, logger *logging.Logger) *Publisher {
	return &Publisher{
		mqtt:    client,
		logger:  logger.With("component", "publisher"),
		devices: make(map[string]*registeredDevice),
	}
}

// RegisterDevice announces a device's entities: it publishes the retained
// discovery catalogue and initial states, and subscribes to the entities'
// command topics.
//
// Parameters:
//   - slug: Stable device identifier used in topics
//   - name: Human-readable device name for the catalogue
//   - entities: Adapters from Entities()
//
// Returns:
//   - error: If a publish or subscribe fails; earlier steps are not undone
func (p *Publisher) RegisterDevice(slug, name string, entities []Entity) error {
	reg := &registeredDevice{
		name:     name,
		entities: make(map[string]Entity, len(entities)),
	}
	for _, e := range entities {
		key := e.Info().Key
		reg.entities[key] = e
		reg.order = append(reg.order, key)
	}

	p.mu.Lock()
	p.devices[slug] = reg
	p.mu.Unlock()

	if err := p.publishDiscovery(slug, reg); err != nil {
		return err
	}
	if err := p.PublishStates(slug); err != nil {
		return err
	}

	for _, key := range reg.order {
		entity := reg.entities[key]
		topic := p.topics.EntityCommand(slug, key)
		handler := p.commandHandler(slug, entity)
		if err := p.mqtt.Subscribe(topic, 0, handler); err != nil {
			return fmt.Errorf("subscribing to %s: %w", topic, err)
		}
	}

	p.logger.Info("registered device",
		"device", slug,
		"name", name,
		"entities", len(entities),
	)
	return nil
}

// PublishStates republishes the retained state of every entity of one
// device. Called at registration and on every datapoint update.
func (p *Publisher) PublishStates(slug string) error {
	p.mu.RLock()
	reg, ok := p.devices[slug]
	p.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownDevice, slug)
	}

	for _, key := range reg.order {
		if err := p.publishEntityState(slug, reg.entities[key]); err != nil {
			return err
		}
	}
	return nil
}

// PublishAvailability publishes a device's retained online/offline state.
func (p *Publisher) PublishAvailability(slug string, online bool) error {
	payload := "offline"
	if online {
		payload = "online"
	}
	topic := p.topics.DeviceAvailability(slug)
	if err := p.mqtt.PublishRetained(topic, []byte(payload)); err != nil {
		return fmt.Errorf("publishing availability for %s: %w", slug, err)
	}
	return nil
}

// discoveryEntity is one entry of the retained discovery catalogue.
type discoveryEntity struct {
	Key            string   `json:"key"`
	Type           string   `json:"type"`
	Icon           string   `json:"icon,omitempty"`
	Category       string   `json:"category,omitempty"`
	EnabledDefault bool     `json:"enabled_default"`
	Options        []string `json:"options,omitempty"`

	Number *discoveryNumber `json:"number,omitempty"`
}

type discoveryNumber struct {
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
	Step float64 `json:"step"`
	Unit string  `json:"unit,omitempty"`
	Mode string  `json:"mode"`
}

type discoveryPayload struct {
	Device   string            `json:"device"`
	Name     string            `json:"name"`
	Entities []discoveryEntity `json:"entities"`
}

func (p *Publisher) publishDiscovery(slug string, reg *registeredDevice) error {
	catalogue := discoveryPayload{
		Device:   slug,
		Name:     reg.name,
		Entities: make([]discoveryEntity, 0, len(reg.order)),
	}

	for _, key := range reg.order {
		entity := reg.entities[key]
		info := entity.Info()
		entry := discoveryEntity{
			Key:            info.Key,
			Icon:           info.Icon,
			Category:       string(info.Category),
			EnabledDefault: !info.DisabledByDefault,
		}

		switch e := entity.(type) {
		case *Select:
			entry.Type = "select"
			entry.Options = e.Options()
		case *Switch:
			entry.Type = "switch"
		case *Number:
			entry.Type = "number"
			entry.Number = &discoveryNumber{
				Min:  e.Min(),
				Max:  e.Max(),
				Step: e.Step(),
				Unit: e.Unit(),
				Mode: string(e.Mode()),
			}
		default:
			entry.Type = "unknown"
		}

		catalogue.Entities = append(catalogue.Entities, entry)
	}

	payload, err := json.Marshal(catalogue)
	if err != nil {
		return fmt.Errorf("marshalling discovery for %s: %w", slug, err)
	}
	topic := p.topics.DeviceDiscovery(slug)
	if err := p.mqtt.PublishRetained(topic, payload); err != nil {
		return fmt.Errorf("publishing discovery for %s: %w", slug, err)
	}
	return nil
}

// selectState is the retained state payload of a select entity.
type selectState struct {
	Option    *string `json:"option"`
	Available bool    `json:"available"`
}

type switchState struct {
	On        bool `json:"on"`
	Available bool `json:"available"`
}

type numberState struct {
	Value     float64 `json:"value"`
	Available bool    `json:"available"`
}

func (p *Publisher) publishEntityState(slug string, entity Entity) error {
	var state any
	switch e := entity.(type) {
	case *Select:
		s := selectState{Available: e.Available()}
		if option, ok := e.CurrentOption(); ok {
			s.Option = &option
		}
		state = s
	case *Switch:
		state = switchState{On: e.IsOn(), Available: e.Available()}
	case *Number:
		state = numberState{Value: e.Value(), Available: e.Available()}
	default:
		return nil
	}

	payload, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshalling state for %s/%s: %w", slug, entity.Info().Key, err)
	}
	topic := p.topics.EntityState(slug, entity.Info().Key)
	if err := p.mqtt.PublishRetained(topic, payload); err != nil {
		return fmt.Errorf("publishing state for %s/%s: %w", slug, entity.Info().Key, err)
	}
	return nil
}

// commandHandler builds the MQTT handler for one entity's command topic.
//
// Command payloads are plain text: the option string for selects, ON/OFF
// (or true/false, 1/0) for switches, a decimal number for numbers.
// Malformed payloads are reported as errors, which the MQTT client logs;
// nothing reaches the device.
func (p *Publisher) commandHandler(slug string, entity Entity) mqtt.MessageHandler {
	return func(topic string, payload []byte) error {
		command := strings.TrimSpace(string(payload))

		switch e := entity.(type) {
		case *Select:
			// Unknown options are the adapter's silent no-op, not an error.
			e.SelectOption(command)
		case *Switch:
			on, err := parseOnOff(command)
			if err != nil {
				return fmt.Errorf("%s: %w", topic, err)
			}
			e.SetOn(on)
		case *Number:
			value, err := strconv.ParseFloat(command, 64)
			if err != nil {
				return fmt.Errorf("%s: %w: %q", topic, ErrMalformedPayload, command)
			}
			e.SetValue(value)
		default:
			return fmt.Errorf("%s: no command support", topic)
		}

		// Optimistic echo: the cache already reflects the write.
		return p.PublishStates(slug)
	}
}

func parseOnOff(command string) (bool, error) {
	switch strings.ToUpper(command) {
	case "ON", "TRUE", "1":
		return true, nil
	case "OFF", "FALSE", "0":
		return false, nil
	default:
		return false, fmt.Errorf("%w: %q", ErrMalformedPayload, command)
	}
}
