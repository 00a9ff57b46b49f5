package bridge

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/quarrylane/tuya-ble-bridge/internal/infrastructure/logging"
	"github.com/quarrylane/tuya-ble-bridge/internal/platform"
	"github.com/quarrylane/tuya-ble-bridge/internal/registry"
	"github.com/quarrylane/tuya-ble-bridge/internal/tuyable"
)

// Connection retry pacing. BLE devices sleep aggressively, so failed
// dials are normal; the loop backs off to avoid hammering the adapter.
const (
	initialRetryDelay = 5 * time.Second
	maxRetryDelay     = 5 * time.Minute
)

// EntityPublisher is the slice of the platform publisher the bridge uses.
type EntityPublisher interface {
	RegisterDevice(slug, name string, entities []platform.Entity) error
	PublishStates(slug string) error
	PublishAvailability(slug string, online bool) error
}

// HistoryRecorder receives datapoint updates for long-term storage.
// Satisfied by *history.Recorder; nil disables recording.
type HistoryRecorder interface {
	RecordDataPoint(deviceSlug string, dpID uint8, value int64)
	RecordAvailability(deviceSlug string, online bool)
}

// Dialer establishes a BLE transport to one device. The notify callback
// must receive the device's notification payloads for the lifetime of
// the returned transport.
type Dialer func(ctx context.Context, device *registry.PairedDevice, notify func([]byte)) (tuyable.Transport, error)

// Options holds the collaborators for a bridge.
type Options struct {
	Registry  registry.Repository
	Publisher EntityPublisher
	History   HistoryRecorder // optional
	Dialer    Dialer
	Logger    *logging.Logger
}

// Bridge owns the set of connected devices.
//
// Thread Safety: Start and Stop are not safe to call concurrently with
// each other; everything else runs on internal goroutines.
type Bridge struct {
	registry  registry.Repository
	publisher EntityPublisher
	history   HistoryRecorder
	dial      Dialer
	logger    *logging.Logger

	mu      sync.Mutex
	devices map[string]*tuyable.Device

	wg sync.WaitGroup
}

// New creates a bridge. Call Start to bring devices up.
func New(opts Options) (*Bridge, error) {
	if opts.Registry == nil {
		return nil, fmt.Errorf("registry is required")
	}
	if opts.Publisher == nil {
		return nil, fmt.Errorf("publisher is required")
	}
	if opts.Dialer == nil {
		return nil, fmt.Errorf("dialer is required")
	}
	if opts.Logger == nil {
		opts.Logger = logging.Default()
	}

	return &Bridge{
		registry:  opts.Registry,
		publisher: opts.Publisher,
		history:   opts.History,
		dial:      opts.Dialer,
		logger:    opts.Logger.With("component", "bridge"),
		devices:   make(map[string]*tuyable.Device),
	}, nil
}

// Start loads the paired-device registry, registers every device's
// entities with the platform, and starts one connection supervisor per
// device. It returns once registration is done; connections are
// established in the background.
func (b *Bridge) Start(ctx context.Context) error {
	paired, err := b.registry.List(ctx)
	if err != nil {
		return fmt.Errorf("loading paired devices: %w", err)
	}

	for i := range paired {
		record := paired[i]
		if err := b.startDevice(ctx, record); err != nil {
			return err
		}
	}

	b.logger.Info("bridge started", "devices", len(paired))
	return nil
}

// startDevice registers one device and launches its connection loop.
func (b *Bridge) startDevice(ctx context.Context, record registry.PairedDevice) error {
	device := tuyable.NewDevice(tuyable.DeviceInfo{
		Address:   record.Address,
		Name:      record.Name,
		Category:  record.Category,
		ProductID: record.ProductID,
	})
	device.SetLogger(b.logger.With("device", device.Slug()))

	slug := device.Slug()

	entities := platform.Entities(device, b.logger)
	if err := b.publisher.RegisterDevice(slug, record.Name, entities); err != nil {
		device.Stop()
		return fmt.Errorf("registering %s: %w", slug, err)
	}

	device.OnUpdate(func(dp *tuyable.DataPoint) {
		if err := b.publisher.PublishStates(slug); err != nil {
			b.logger.Warn("failed to publish states", "device", slug, "error", err)
		}
		if b.history != nil {
			b.history.RecordDataPoint(slug, dp.ID(), dp.Value())
		}
	})

	b.mu.Lock()
	b.devices[slug] = device
	b.mu.Unlock()

	// Devices start offline until the first successful dial.
	if err := b.publisher.PublishAvailability(slug, false); err != nil {
		b.logger.Warn("failed to publish availability", "device", slug, "error", err)
	}

	b.wg.Add(1)
	go b.connectLoop(ctx, record, device)

	return nil
}

// connectLoop keeps one device's BLE transport alive until ctx ends.
func (b *Bridge) connectLoop(ctx context.Context, record registry.PairedDevice, device *tuyable.Device) {
	defer b.wg.Done()

	slug := device.Slug()
	delay := initialRetryDelay

	for {
		transport, err := b.dial(ctx, &record, device.HandleNotification)
		if err != nil {
			b.logger.Debug("dial failed",
				"device", slug,
				"error", err,
				"retry_in", delay,
			)
			select {
			case <-ctx.Done():
				return
			case <-time.After(delay):
			}
			delay = min(delay*2, maxRetryDelay)
			continue
		}
		delay = initialRetryDelay

		device.SetTransport(transport)
		b.markOnline(ctx, slug, record.Address)

		// The transport owns link supervision; we only learn about a
		// dead link when the context ends. Reconnect-on-failure beyond
		// this belongs to the BLE layer.
		<-ctx.Done()
		device.SetTransport(nil)
		if err := transport.Close(); err != nil {
			b.logger.Warn("error closing transport", "device", slug, "error", err)
		}
		b.markOffline(slug)
		return
	}
}

func (b *Bridge) markOnline(ctx context.Context, slug, address string) {
	b.logger.Info("device connected", "device", slug)

	if err := b.publisher.PublishAvailability(slug, true); err != nil {
		b.logger.Warn("failed to publish availability", "device", slug, "error", err)
	}
	if b.history != nil {
		b.history.RecordAvailability(slug, true)
	}
	if err := b.registry.TouchLastSeen(ctx, address, time.Now()); err != nil {
		b.logger.Warn("failed to record last seen", "device", slug, "error", err)
	}
}

func (b *Bridge) markOffline(slug string) {
	if err := b.publisher.PublishAvailability(slug, false); err != nil {
		b.logger.Warn("failed to publish availability", "device", slug, "error", err)
	}
	if b.history != nil {
		b.history.RecordAvailability(slug, false)
	}
}

// Stop waits for the connection loops to finish and releases all devices.
// Call after cancelling the context passed to Start.
func (b *Bridge) Stop() {
	b.wg.Wait()

	b.mu.Lock()
	devices := b.devices
	b.devices = make(map[string]*tuyable.Device)
	b.mu.Unlock()

	for _, device := range devices {
		device.Stop()
	}

	b.logger.Info("bridge stopped")
}

// Device returns a started device by slug, for diagnostics.
func (b *Bridge) Device(slug string) (*tuyable.Device, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	d, ok := b.devices[slug]
	return d, ok
}
