package tuyable

import (
	"fmt"
	"sync"
	"time"

	"tinygo.org/x/bluetooth"
)

// Tuya BLE GATT identifiers. Every Tuya BLE device exposes a single vendor
// service with one write and one notify characteristic.
const (
	ServiceID    = "00001910-0000-1000-8000-00805f9b34fb"
	WriteCharID  = "00002b11-0000-1000-8000-00805f9b34fb"
	NotifyCharID = "00002b10-0000-1000-8000-00805f9b34fb"
)

var (
	tuyaService    = must(bluetooth.ParseUUID(ServiceID))
	tuyaWriteChar  = must(bluetooth.ParseUUID(WriteCharID))
	tuyaNotifyChar = must(bluetooth.ParseUUID(NotifyCharID))
)

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

// DialOptions configures a BLE connection attempt.
type DialOptions struct {
	// ScanTimeout bounds the scan phase. Zero means 30 seconds.
	ScanTimeout time.Duration

	// ConnectTimeout bounds the connection phase once the device is
	// found. Zero uses the adapter default.
	ConnectTimeout time.Duration

	// Notify receives raw payloads from the device's notify characteristic.
	// Typically Device.HandleNotification.
	Notify func([]byte)
}

// BLETransport is a connected Tuya BLE GATT link.
//
// Thread Safety: Write may be called from one goroutine at a time (the
// device write worker); Close is safe to call concurrently with Write.
type BLETransport struct {
	dev    bluetooth.Device
	write  bluetooth.DeviceCharacteristic
	notify bluetooth.DeviceCharacteristic

	closeOnce sync.Once
	closeErr  error
}

// Dial scans for the given address, connects, resolves the Tuya vendor
// service and enables notifications.
//
// Parameters:
//   - adapter: Enabled BLE adapter (typically bluetooth.DefaultAdapter)
//   - address: BLE address of the paired device ("DC:23:4D:11:22:33")
//   - opts: Scan timeout and notification sink
//
// Returns:
//   - *BLETransport: Connected transport ready for writes
//   - error: ErrDeviceNotFound if the scan times out, or a wrapped
//     connection/discovery error
func Dial(adapter *bluetooth.Adapter, address string, opts DialOptions) (*BLETransport, error) {
	var target bluetooth.Address
	if err := target.UnmarshalText([]byte(address)); err != nil {
		return nil, fmt.Errorf("parsing address %q: %w", address, err)
	}

	scanTimeout := opts.ScanTimeout
	if scanTimeout == 0 {
		scanTimeout = 30 * time.Second
	}

	var (
		dev        bluetooth.Device
		found      bool
		connectErr error
	)
	timer := time.AfterFunc(scanTimeout, func() {
		adapter.StopScan() //nolint:errcheck // Best effort scan teardown on timeout
	})
	params := bluetooth.ConnectionParams{}
	if opts.ConnectTimeout > 0 {
		params.ConnectionTimeout = bluetooth.NewDuration(opts.ConnectTimeout)
	}
	err := adapter.Scan(func(adapter *bluetooth.Adapter, result bluetooth.ScanResult) {
		if result.Address != target {
			return
		}
		found = true
		dev, connectErr = adapter.Connect(result.Address, params)
		adapter.StopScan() //nolint:errcheck // Scan is done either way
	})
	timer.Stop()
	if err != nil {
		return nil, fmt.Errorf("scanning for %s: %w", address, err)
	}
	if !found {
		return nil, fmt.Errorf("%w: %s after %v", ErrDeviceNotFound, address, scanTimeout)
	}
	if connectErr != nil {
		return nil, fmt.Errorf("connecting to %s: %w", address, connectErr)
	}

	writeChar, err := deviceCharacteristic(&dev, tuyaService, tuyaWriteChar)
	if err != nil {
		dev.Disconnect() //nolint:errcheck // Best effort cleanup on error path
		return nil, err
	}
	notifyChar, err := deviceCharacteristic(&dev, tuyaService, tuyaNotifyChar)
	if err != nil {
		dev.Disconnect() //nolint:errcheck // Best effort cleanup on error path
		return nil, err
	}

	if opts.Notify != nil {
		if err := notifyChar.EnableNotifications(opts.Notify); err != nil {
			dev.Disconnect() //nolint:errcheck // Best effort cleanup on error path
			return nil, fmt.Errorf("enabling notifications for %s: %w", address, err)
		}
	}

	return &BLETransport{
		dev:    dev,
		write:  writeChar,
		notify: notifyChar,
	}, nil
}

// deviceCharacteristic resolves one characteristic of one service.
func deviceCharacteristic(dev *bluetooth.Device, srvID, charID bluetooth.UUID) (bluetooth.DeviceCharacteristic, error) {
	srv, err := dev.DiscoverServices([]bluetooth.UUID{srvID})
	if err != nil {
		return bluetooth.DeviceCharacteristic{}, fmt.Errorf("discovering service %s: %w", srvID, err)
	}
	for _, s := range srv {
		chars, err := s.DiscoverCharacteristics([]bluetooth.UUID{charID})
		if err != nil {
			return bluetooth.DeviceCharacteristic{}, fmt.Errorf("discovering characteristic %s: %w", charID, err)
		}
		if len(chars) == 0 {
			break
		}
		return chars[0], nil
	}
	return bluetooth.DeviceCharacteristic{}, fmt.Errorf("%w: %s/%s", ErrCharacteristicNotFound, srvID, charID)
}

// Write sends one encoded frame to the device's write characteristic.
func (t *BLETransport) Write(frame []byte) error {
	if _, err := t.write.WriteWithoutResponse(frame); err != nil {
		return fmt.Errorf("writing frame: %w", err)
	}
	return nil
}

// Close disables notifications and disconnects.
func (t *BLETransport) Close() error {
	t.closeOnce.Do(func() {
		t.notify.EnableNotifications(nil) //nolint:errcheck // Disconnect below supersedes
		t.closeErr = t.dev.Disconnect()
	})
	return t.closeErr
}
