package platform

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/quarrylane/tuya-ble-bridge/internal/infrastructure/mqtt"
	"github.com/quarrylane/tuya-ble-bridge/internal/tuyable"
)

// mockMQTT records retained publishes and subscriptions.
type mockMQTT struct {
	mu        sync.Mutex
	published map[string][]byte
	handlers  map[string]mqtt.MessageHandler
}

func newMockMQTT() *mockMQTT {
	return &mockMQTT{
		published: make(map[string][]byte),
		handlers:  make(map[string]mqtt.MessageHandler),
	}
}

func (m *mockMQTT) PublishRetained(topic string, payload []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.published[topic] = append([]byte(nil), payload...)
	return nil
}

func (m *mockMQTT) Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[topic] = handler
	return nil
}

func (m *mockMQTT) payload(topic string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.published[topic]
	return p, ok
}

func (m *mockMQTT) deliver(t *testing.T, topic string, payload string) error {
	t.Helper()
	m.mu.Lock()
	handler, ok := m.handlers[topic]
	m.mu.Unlock()
	if !ok {
		t.Fatalf("no subscription for %s", topic)
	}
	return handler(topic, []byte(payload))
}

func registerSmartLock(t *testing.T) (*Publisher, *mockMQTT, *tuyable.Device) {
	t.Helper()
	device := testDevice(t, "ms", "ludzroix")
	client := newMockMQTT()
	pub := NewPublisher(client, testLogger())

	entities := Entities(device, testLogger())
	if err := pub.RegisterDevice(device.Slug(), device.Name(), entities); err != nil {
		t.Fatalf("RegisterDevice() error = %v", err)
	}
	return pub, client, device
}

func TestRegisterDevicePublishesDiscovery(t *testing.T) {
	_, client, device := registerSmartLock(t)

	payload, ok := client.payload("tuyable/discovery/" + device.Slug())
	if !ok {
		t.Fatal("no discovery payload published")
	}

	var catalogue discoveryPayload
	if err := json.Unmarshal(payload, &catalogue); err != nil {
		t.Fatalf("unmarshalling discovery: %v", err)
	}
	if catalogue.Device != device.Slug() || catalogue.Name != "Test Device" {
		t.Errorf("catalogue header = %q/%q", catalogue.Device, catalogue.Name)
	}
	if len(catalogue.Entities) != 3 {
		t.Fatalf("catalogue has %d entities, want 3", len(catalogue.Entities))
	}

	byKey := make(map[string]discoveryEntity)
	for _, e := range catalogue.Entities {
		byKey[e.Key] = e
	}

	sel, ok := byKey["beep_volume"]
	if !ok || sel.Type != "select" {
		t.Errorf("beep_volume entry = %+v, want a select", sel)
	}
	if len(sel.Options) != 4 || sel.Options[2] != "normal" {
		t.Errorf("beep_volume options = %v", sel.Options)
	}

	num, ok := byKey["residual_electricity"]
	if !ok || num.Type != "number" || num.Number == nil {
		t.Fatalf("residual_electricity entry = %+v, want a number", num)
	}
	if num.Number.Min != -1 || num.Number.Max != 100 {
		t.Errorf("residual_electricity range = [%v, %v], want [-1, 100]", num.Number.Min, num.Number.Max)
	}
}

func TestRegisterDevicePublishesInitialState(t *testing.T) {
	_, client, device := registerSmartLock(t)

	payload, ok := client.payload("tuyable/state/" + device.Slug() + "/beep_volume")
	if !ok {
		t.Fatal("no state payload published")
	}

	var state selectState
	if err := json.Unmarshal(payload, &state); err != nil {
		t.Fatalf("unmarshalling state: %v", err)
	}
	if state.Option != nil {
		t.Errorf("Option = %q, want null before the device reports", *state.Option)
	}
	if !state.Available {
		t.Error("Available = false")
	}
}

func TestCommandDispatchSelect(t *testing.T) {
	_, client, device := registerSmartLock(t)
	topic := "tuyable/command/" + device.Slug() + "/beep_volume"

	if err := client.deliver(t, topic, "low"); err != nil {
		t.Fatalf("deliver() error = %v", err)
	}

	dp, ok := device.DataPoints().Get(31)
	if !ok || dp.Value() != 1 {
		t.Fatalf("dp 31 = %v (ok=%v), want value 1", dp, ok)
	}

	// The state echo reflects the new cache immediately.
	payload, _ := client.payload("tuyable/state/" + device.Slug() + "/beep_volume")
	var state selectState
	if err := json.Unmarshal(payload, &state); err != nil {
		t.Fatalf("unmarshalling state: %v", err)
	}
	if state.Option == nil || *state.Option != "low" {
		t.Errorf("echoed state = %+v, want option low", state)
	}
}

func TestCommandDispatchUnknownOption(t *testing.T) {
	_, client, device := registerSmartLock(t)
	topic := "tuyable/command/" + device.Slug() + "/beep_volume"

	// Unknown options are dropped silently, not errored.
	if err := client.deliver(t, topic, "loudest"); err != nil {
		t.Fatalf("deliver() error = %v", err)
	}
	if device.DataPoints().Len() != 0 {
		t.Error("unknown option created a datapoint")
	}
}

func TestCommandDispatchSwitch(t *testing.T) {
	_, client, device := registerSmartLock(t)
	topic := "tuyable/command/" + device.Slug() + "/lock_motor_state"

	if err := client.deliver(t, topic, "ON"); err != nil {
		t.Fatalf("deliver() error = %v", err)
	}
	dp, ok := device.DataPoints().Get(47)
	if !ok || dp.Value() != 1 {
		t.Fatalf("dp 47 = %v (ok=%v), want value 1", dp, ok)
	}

	if err := client.deliver(t, topic, "off"); err != nil {
		t.Fatalf("deliver() error = %v", err)
	}
	if dp.Value() != 0 {
		t.Errorf("dp 47 = %d after off, want 0", dp.Value())
	}

	if err := client.deliver(t, topic, "sideways"); !errors.Is(err, ErrMalformedPayload) {
		t.Errorf("deliver() error = %v, want ErrMalformedPayload", err)
	}
}

func TestCommandDispatchNumber(t *testing.T) {
	_, client, device := registerSmartLock(t)
	topic := "tuyable/command/" + device.Slug() + "/residual_electricity"

	if err := client.deliver(t, topic, "42"); err != nil {
		t.Fatalf("deliver() error = %v", err)
	}
	dp, ok := device.DataPoints().Get(8)
	if !ok || dp.Value() != 42 {
		t.Fatalf("dp 8 = %v (ok=%v), want value 42", dp, ok)
	}

	if err := client.deliver(t, topic, "not-a-number"); !errors.Is(err, ErrMalformedPayload) {
		t.Errorf("deliver() error = %v, want ErrMalformedPayload", err)
	}
}

func TestPublishStatesOnUpdate(t *testing.T) {
	pub, client, device := registerSmartLock(t)

	// A device notification then a republish, as the bridge wires OnUpdate.
	reportDataPoint(t, device, 31, tuyable.TypeEnum, 2)
	if err := pub.PublishStates(device.Slug()); err != nil {
		t.Fatalf("PublishStates() error = %v", err)
	}

	payload, _ := client.payload("tuyable/state/" + device.Slug() + "/beep_volume")
	var state selectState
	if err := json.Unmarshal(payload, &state); err != nil {
		t.Fatalf("unmarshalling state: %v", err)
	}
	if state.Option == nil || *state.Option != "normal" {
		t.Errorf("state = %+v, want option normal", state)
	}
}

func TestPublishStatesUnknownDevice(t *testing.T) {
	pub := NewPublisher(newMockMQTT(), testLogger())
	if err := pub.PublishStates("nope"); !errors.Is(err, ErrUnknownDevice) {
		t.Errorf("PublishStates() error = %v, want ErrUnknownDevice", err)
	}
}

func TestPublishAvailability(t *testing.T) {
	pub, client, device := registerSmartLock(t)

	if err := pub.PublishAvailability(device.Slug(), true); err != nil {
		t.Fatalf("PublishAvailability() error = %v", err)
	}
	payload, _ := client.payload("tuyable/availability/" + device.Slug())
	if string(payload) != "online" {
		t.Errorf("availability = %q, want online", payload)
	}

	if err := pub.PublishAvailability(device.Slug(), false); err != nil {
		t.Fatalf("PublishAvailability() error = %v", err)
	}
	payload, _ = client.payload("tuyable/availability/" + device.Slug())
	if string(payload) != "offline" {
		t.Errorf("availability = %q, want offline", payload)
	}
}
