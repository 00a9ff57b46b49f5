package tuyable

import (
	"strings"
	"sync"
)

// writeQueueSize bounds the number of pending datapoint writes per device.
// Writes are fire-and-forget; when the queue is full the write is dropped
// with a warning rather than blocking the caller.
const writeQueueSize = 16

// Logger is the interface for optional driver logging.
// Compatible with logging.Logger.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Transport delivers encoded frames to the device and is expected to feed
// notification payloads back via Device.HandleNotification.
type Transport interface {
	// Write sends one encoded frame to the device's write characteristic.
	Write(frame []byte) error

	// Close tears down the connection.
	Close() error
}

// Device is the local representation of one paired Tuya BLE device.
//
// It owns the datapoint cache and a single-writer send queue. Entity
// adapters hold a *Device and interact with it only through DataPoints().
type Device struct {
	info DeviceInfo
	slug string

	datapoints *DataPoints

	transport   Transport
	transportMu sync.RWMutex

	writes   chan *DataPoint
	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	listeners  []func(*DataPoint)
	listenerMu sync.RWMutex

	logger   Logger
	loggerMu sync.RWMutex
}

// NewDevice creates a device from its pairing record and starts the write
// worker. Call Stop() to release it.
func NewDevice(info DeviceInfo) *Device {
	d := &Device{
		info:   info,
		slug:   slugify(info.Address),
		writes: make(chan *DataPoint, writeQueueSize),
		done:   make(chan struct{}),
	}
	d.datapoints = newDataPoints(d)

	d.wg.Add(1)
	go d.writeLoop()

	return d
}

// slugify derives a stable MQTT-safe identifier from a BLE address.
// "DC:23:4D:11:22:33" becomes "dc234d112233".
func slugify(address string) string {
	return strings.ToLower(strings.ReplaceAll(address, ":", ""))
}

// Address returns the device's BLE address.
func (d *Device) Address() string { return d.info.Address }

// Name returns the configured human-readable name.
func (d *Device) Name() string { return d.info.Name }

// Category returns the Tuya device category (e.g. "ms", "szjqr").
func (d *Device) Category() string { return d.info.Category }

// ProductID returns the Tuya product identifier (e.g. "ludzroix").
func (d *Device) ProductID() string { return d.info.ProductID }

// Slug returns the stable identifier used in MQTT topics.
func (d *Device) Slug() string { return d.slug }

// Info returns the device's pairing record.
func (d *Device) Info() DeviceInfo { return d.info }

// DataPoints returns the device's datapoint store.
func (d *Device) DataPoints() *DataPoints { return d.datapoints }

// SetLogger sets a logger for write and notification diagnostics.
func (d *Device) SetLogger(logger Logger) {
	d.loggerMu.Lock()
	d.logger = logger
	d.loggerMu.Unlock()
}

func (d *Device) getLogger() Logger {
	d.loggerMu.RLock()
	defer d.loggerMu.RUnlock()
	return d.logger
}

// SetTransport attaches a connected transport. Pending and future writes
// are delivered to it. Passing nil detaches the current transport.
func (d *Device) SetTransport(t Transport) {
	d.transportMu.Lock()
	d.transport = t
	d.transportMu.Unlock()
}

func (d *Device) getTransport() Transport {
	d.transportMu.RLock()
	defer d.transportMu.RUnlock()
	return d.transport
}

// Connected reports whether a transport is currently attached.
func (d *Device) Connected() bool {
	return d.getTransport() != nil
}

// OnUpdate registers a listener invoked for every datapoint changed by a
// device notification. Listeners run on the notification goroutine and
// must not block.
func (d *Device) OnUpdate(fn func(*DataPoint)) {
	d.listenerMu.Lock()
	d.listeners = append(d.listeners, fn)
	d.listenerMu.Unlock()
}

// HandleNotification decodes a notification payload and applies the
// contained datapoint reports to the cache, fanning out to listeners.
//
// Malformed payloads are logged and dropped; nothing is applied partially.
func (d *Device) HandleNotification(payload []byte) {
	records, err := decodeDataPoints(payload)
	if err != nil {
		if log := d.getLogger(); log != nil {
			log.Warn("dropping malformed notification",
				"device", d.slug,
				"error", err,
			)
		}
		return
	}

	for _, rec := range records {
		dp := d.datapoints.apply(rec)
		d.notifyListeners(dp)
	}
}

func (d *Device) notifyListeners(dp *DataPoint) {
	d.listenerMu.RLock()
	listeners := d.listeners
	d.listenerMu.RUnlock()

	for _, fn := range listeners {
		fn(dp)
	}
}

// enqueueWrite schedules a datapoint write. Never blocks: when the queue is
// full the write is dropped and a warning logged.
func (d *Device) enqueueWrite(dp *DataPoint) {
	select {
	case d.writes <- dp:
	default:
		if log := d.getLogger(); log != nil {
			log.Warn("write queue full, dropping datapoint write",
				"device", d.slug,
				"dp", dp.ID(),
			)
		}
	}
}

// writeLoop drains the write queue to the transport.
func (d *Device) writeLoop() {
	defer d.wg.Done()

	for {
		select {
		case <-d.done:
			return
		case dp := <-d.writes:
			d.sendDataPoint(dp)
		}
	}
}

// sendDataPoint encodes and transmits one datapoint write.
func (d *Device) sendDataPoint(dp *DataPoint) {
	log := d.getLogger()

	transport := d.getTransport()
	if transport == nil {
		if log != nil {
			log.Debug("no transport attached, dropping datapoint write",
				"device", d.slug,
				"dp", dp.ID(),
			)
		}
		return
	}

	dp.mu.RLock()
	value := dp.value
	raw := dp.raw
	dp.mu.RUnlock()

	frame, err := encodeDataPoint(dp.id, dp.typ, value, raw)
	if err != nil {
		if log != nil {
			log.Error("failed to encode datapoint write",
				"device", d.slug,
				"dp", dp.ID(),
				"error", err,
			)
		}
		return
	}

	if err := transport.Write(frame); err != nil {
		if log != nil {
			log.Warn("datapoint write failed",
				"device", d.slug,
				"dp", dp.ID(),
				"error", err,
			)
		}
	}
}

// Stop shuts down the write worker and closes the transport if attached.
// Safe to call multiple times.
func (d *Device) Stop() {
	d.stopOnce.Do(func() {
		close(d.done)
	})
	d.wg.Wait()

	if t := d.getTransport(); t != nil {
		if err := t.Close(); err != nil {
			if log := d.getLogger(); log != nil {
				log.Warn("error closing transport", "device", d.slug, "error", err)
			}
		}
		d.SetTransport(nil)
	}
}
