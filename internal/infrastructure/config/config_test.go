package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return configPath
}

func TestLoad_ValidConfig(t *testing.T) {
	content := `
bridge:
  id: "test-bridge"
database:
  path: "/tmp/test.db"
  wal_mode: true
  busy_timeout: 5
mqtt:
  broker:
    host: "localhost"
    port: 1883
    client_id: "test-client"
  qos: 1
devices:
  - address: "DC:23:4D:11:22:33"
    name: "Smart Lock"
    category: "ms"
    product_id: "ludzroix"
`
	cfg, err := Load(writeConfig(t, content))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Bridge.ID != "test-bridge" {
		t.Errorf("Bridge.ID = %q, want %q", cfg.Bridge.ID, "test-bridge")
	}
	if cfg.Database.Path != "/tmp/test.db" {
		t.Errorf("Database.Path = %q, want %q", cfg.Database.Path, "/tmp/test.db")
	}
	if cfg.MQTT.Broker.Host != "localhost" {
		t.Errorf("MQTT.Broker.Host = %q, want %q", cfg.MQTT.Broker.Host, "localhost")
	}
	if len(cfg.Devices) != 1 {
		t.Fatalf("len(Devices) = %d, want 1", len(cfg.Devices))
	}
	if cfg.Devices[0].Category != "ms" || cfg.Devices[0].ProductID != "ludzroix" {
		t.Errorf("Devices[0] = %+v, want category ms product ludzroix", cfg.Devices[0])
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("Load() expected error for missing file, got nil")
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "bridge:\n  id: b1\n"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.MQTT.Broker.Port != 1883 {
		t.Errorf("default MQTT port = %d, want 1883", cfg.MQTT.Broker.Port)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("default logging level = %q, want info", cfg.Logging.Level)
	}
	if cfg.Bluetooth.ScanTimeout != 30 {
		t.Errorf("default scan timeout = %d, want 30", cfg.Bluetooth.ScanTimeout)
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("TUYABLE_MQTT_HOST", "broker.example.com")

	cfg, err := Load(writeConfig(t, "mqtt:\n  broker:\n    host: ignored\n"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.MQTT.Broker.Host != "broker.example.com" {
		t.Errorf("MQTT.Broker.Host = %q, want env override", cfg.MQTT.Broker.Host)
	}
}

func TestValidate_DeviceErrors(t *testing.T) {
	tests := []struct {
		name    string
		devices []DeviceConfig
		wantErr string
	}{
		{
			name:    "missing address",
			devices: []DeviceConfig{{Category: "ms", ProductID: "ludzroix"}},
			wantErr: "address is required",
		},
		{
			name: "missing category",
			devices: []DeviceConfig{
				{Address: "DC:23:4D:11:22:33", ProductID: "ludzroix"},
			},
			wantErr: "category is required",
		},
		{
			name: "duplicate address",
			devices: []DeviceConfig{
				{Address: "DC:23:4D:11:22:33", Category: "ms", ProductID: "ludzroix"},
				{Address: "DC:23:4D:11:22:33", Category: "ms", ProductID: "ludzroix"},
			},
			wantErr: "is duplicated",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			cfg.Devices = tt.devices
			err := cfg.Validate()
			if err == nil {
				t.Fatal("Validate() expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidate_InvalidQoS(t *testing.T) {
	cfg := defaultConfig()
	cfg.MQTT.QoS = 3
	if err := cfg.Validate(); err == nil {
		t.Error("Validate() expected error for QoS 3, got nil")
	}
}
