package platform

import (
	"bytes"
	"testing"
	"time"

	"github.com/quarrylane/tuya-ble-bridge/internal/tuyable"
)

func TestSwitchMappings_KnownProducts(t *testing.T) {
	tests := []struct {
		category  string
		productID string
		wantKeys  []string
	}{
		{"co2bj", "59s19z5m", []string{
			"carbon_dioxide_severely_exceed_alarm",
			"low_battery_alarm",
			"carbon_dioxide_alarm_switch",
		}},
		{"ms", "ludzroix", []string{"lock_motor_state"}},
		{"szjqr", "3yqdo5yt", []string{"switch", "reverse_positions"}},
		{"szjqr", "blliqpsj", []string{"switch", "reverse_positions", "manual_control"}},
		{"szjqr", "ltak7e1p", []string{"switch", "reverse_positions"}},
		{"wsdcg", "ojzlzzsw", []string{"switch"}},
		{"sfkzq", "1fcnd8xk", []string{"switch"}},
		{"ggq", "fdrbxxbg", []string{"switch_1", "switch_2"}},
	}

	for _, tt := range tests {
		t.Run(tt.category+"/"+tt.productID, func(t *testing.T) {
			mappings := SwitchMappings(tt.category, tt.productID)
			if len(mappings) != len(tt.wantKeys) {
				t.Fatalf("got %d mappings, want %d", len(mappings), len(tt.wantKeys))
			}
			for i, m := range mappings {
				if m.Key != tt.wantKeys[i] {
					t.Errorf("mapping %d key = %q, want %q", i, m.Key, tt.wantKeys[i])
				}
			}
		})
	}
}

func TestSwitchIsOn(t *testing.T) {
	mapping := SwitchMappings("ms", "ludzroix")[0] // lock_motor_state, dp 47

	t.Run("unreported reads off", func(t *testing.T) {
		device := testDevice(t, "ms", "ludzroix")
		sw := NewSwitch(device, mapping, testLogger())
		if sw.IsOn() {
			t.Error("IsOn() = true for unreported datapoint")
		}
	})

	t.Run("bool value", func(t *testing.T) {
		device := testDevice(t, "ms", "ludzroix")
		reportDataPoint(t, device, 47, tuyable.TypeBool, 1)
		sw := NewSwitch(device, mapping, testLogger())
		if !sw.IsOn() {
			t.Error("IsOn() = false, want true")
		}
	})
}

func TestSwitchBitmapMask(t *testing.T) {
	// CO2 detector: dp 11 carries two alarm flags behind masks 0x01, 0x02.
	mappings := SwitchMappings("co2bj", "59s19z5m")
	severe, battery := mappings[0], mappings[1]

	device := testDevice(t, "co2bj", "59s19z5m")
	reportDataPoint(t, device, 11, tuyable.TypeBitmap, 0x02)

	severeSwitch := NewSwitch(device, severe, testLogger())
	batterySwitch := NewSwitch(device, battery, testLogger())

	if severeSwitch.IsOn() {
		t.Error("severe alarm IsOn() = true, want false for bitmap 0x02")
	}
	if !batterySwitch.IsOn() {
		t.Error("battery alarm IsOn() = false, want true for bitmap 0x02")
	}
}

func TestSwitchSetOnBitmapPreservesSiblings(t *testing.T) {
	mappings := SwitchMappings("co2bj", "59s19z5m")
	severe := mappings[0] // mask 0x01

	device := testDevice(t, "co2bj", "59s19z5m")
	transport := &captureTransport{}
	device.SetTransport(transport)
	reportDataPoint(t, device, 11, tuyable.TypeBitmap, 0x02)

	sw := NewSwitch(device, severe, testLogger())
	sw.SetOn(true)

	// Sibling bit 0x02 must survive: new bitmap is 0x03.
	want := []byte{11, 5, 0, 4, 0, 0, 0, 0x03}
	if got := transport.waitForFrame(t); !bytes.Equal(got, want) {
		t.Errorf("written frame = %v, want %v", got, want)
	}

	sw.SetOn(false)
	waitForValue(t, device, 11, 0x02)
}

func TestSwitchSetOnBool(t *testing.T) {
	device := testDevice(t, "ms", "ludzroix")
	transport := &captureTransport{}
	device.SetTransport(transport)

	sw := NewSwitch(device, SwitchMappings("ms", "ludzroix")[0], testLogger())
	sw.SetOn(true)

	want := []byte{47, 1, 0, 1, 1}
	if got := transport.waitForFrame(t); !bytes.Equal(got, want) {
		t.Errorf("written frame = %v, want %v", got, want)
	}
}

func TestFingerbotSwitchAvailability(t *testing.T) {
	mapping := SwitchMappings("szjqr", "ltak7e1p")[0] // fingerbot switch, mode dp 8

	t.Run("available with unreported mode", func(t *testing.T) {
		device := testDevice(t, "szjqr", "ltak7e1p")
		sw := NewSwitch(device, mapping, testLogger())
		if !sw.Available() {
			t.Error("Available() = false with unreported mode datapoint")
		}
	})

	t.Run("available in switch mode", func(t *testing.T) {
		device := testDevice(t, "szjqr", "ltak7e1p")
		reportDataPoint(t, device, 8, tuyable.TypeEnum, 1)
		sw := NewSwitch(device, mapping, testLogger())
		if !sw.Available() {
			t.Error("Available() = false in switch mode")
		}
	})

	t.Run("unavailable in push mode", func(t *testing.T) {
		device := testDevice(t, "szjqr", "ltak7e1p")
		reportDataPoint(t, device, 8, tuyable.TypeEnum, 0)
		sw := NewSwitch(device, mapping, testLogger())
		if sw.Available() {
			t.Error("Available() = true in push mode")
		}
	})
}

// waitForValue polls until the datapoint holds the wanted value.
func waitForValue(t *testing.T, d *tuyable.Device, id uint8, want int64) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if dp, ok := d.DataPoints().Get(id); ok && dp.Value() == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	dp, _ := d.DataPoints().Get(id)
	t.Fatalf("dp %d = %v, want %d", id, dp, want)
}
