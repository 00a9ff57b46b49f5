package registry

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/quarrylane/tuya-ble-bridge/internal/infrastructure/database"
)

// testRepository opens a throwaway SQLite store for one test.
func testRepository(t *testing.T) *SQLiteRepository {
	t.Helper()

	db, err := database.Open(database.Config{
		Path:        filepath.Join(t.TempDir(), "bridge.db"),
		WALMode:     true,
		BusyTimeout: 5,
	})
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	repo, err := NewSQLiteRepository(context.Background(), db.DB)
	if err != nil {
		t.Fatalf("creating repository: %v", err)
	}
	return repo
}

func testDevice() *PairedDevice {
	return &PairedDevice{
		Address:   "DC:23:4D:11:22:33",
		Name:      "Bedroom Lock",
		Category:  "ms",
		ProductID: "ludzroix",
		DeviceID:  "bf4d8a",
		LocalKey:  "1234567890abcdef",
		UUID:      "uuid-abc",
	}
}

func TestUpsertAndGet(t *testing.T) {
	repo := testRepository(t)
	ctx := context.Background()

	if err := repo.Upsert(ctx, testDevice()); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	got, err := repo.Get(ctx, "DC:23:4D:11:22:33")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Name != "Bedroom Lock" {
		t.Errorf("Name = %q, want %q", got.Name, "Bedroom Lock")
	}
	if got.Category != "ms" || got.ProductID != "ludzroix" {
		t.Errorf("Category/ProductID = %q/%q, want ms/ludzroix", got.Category, got.ProductID)
	}
	if got.LocalKey != "1234567890abcdef" {
		t.Errorf("LocalKey = %q, want %q", got.LocalKey, "1234567890abcdef")
	}
	if got.CreatedAt.IsZero() || got.UpdatedAt.IsZero() {
		t.Error("timestamps not set on insert")
	}
	if !got.LastSeen.IsZero() {
		t.Errorf("LastSeen = %v, want zero for a fresh record", got.LastSeen)
	}
}

func TestGetIsCaseInsensitive(t *testing.T) {
	repo := testRepository(t)
	ctx := context.Background()

	if err := repo.Upsert(ctx, testDevice()); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	if _, err := repo.Get(ctx, "dc:23:4d:11:22:33"); err != nil {
		t.Errorf("Get() with lowercase address error = %v", err)
	}
}

func TestGetNotFound(t *testing.T) {
	repo := testRepository(t)

	_, err := repo.Get(context.Background(), "AA:BB:CC:DD:EE:FF")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() error = %v, want ErrNotFound", err)
	}
}

func TestUpsertUpdatesExisting(t *testing.T) {
	repo := testRepository(t)
	ctx := context.Background()

	if err := repo.Upsert(ctx, testDevice()); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	first, err := repo.Get(ctx, "DC:23:4D:11:22:33")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}

	updated := testDevice()
	updated.Name = "Front Door Lock"
	updated.LocalKey = "fedcba0987654321"
	if err := repo.Upsert(ctx, updated); err != nil {
		t.Fatalf("second Upsert() error = %v", err)
	}

	got, err := repo.Get(ctx, "DC:23:4D:11:22:33")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Name != "Front Door Lock" {
		t.Errorf("Name = %q, want updated name", got.Name)
	}
	if got.LocalKey != "fedcba0987654321" {
		t.Errorf("LocalKey = %q, want updated key", got.LocalKey)
	}
	if !got.CreatedAt.Equal(first.CreatedAt) {
		t.Errorf("CreatedAt changed on update: %v -> %v", first.CreatedAt, got.CreatedAt)
	}

	devices, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(devices) != 1 {
		t.Errorf("List() returned %d devices, want 1", len(devices))
	}
}

func TestUpsertValidation(t *testing.T) {
	repo := testRepository(t)

	tests := []struct {
		name   string
		mutate func(*PairedDevice)
	}{
		{"missing address", func(d *PairedDevice) { d.Address = "" }},
		{"missing category", func(d *PairedDevice) { d.Category = "" }},
		{"missing product id", func(d *PairedDevice) { d.ProductID = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := testDevice()
			tt.mutate(d)
			err := repo.Upsert(context.Background(), d)
			if !errors.Is(err, ErrInvalidRecord) {
				t.Errorf("Upsert() error = %v, want ErrInvalidRecord", err)
			}
		})
	}
}

func TestList(t *testing.T) {
	repo := testRepository(t)
	ctx := context.Background()

	second := testDevice()
	second.Address = "AA:BB:CC:DD:EE:FF"
	second.Name = "CO2 Sensor"
	second.Category = "co2bj"
	second.ProductID = "59s19z5m"

	if err := repo.Upsert(ctx, testDevice()); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	if err := repo.Upsert(ctx, second); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	devices, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(devices) != 2 {
		t.Fatalf("List() returned %d devices, want 2", len(devices))
	}
	// Ordered by name: "Bedroom Lock" before "CO2 Sensor".
	if devices[0].Name != "Bedroom Lock" || devices[1].Name != "CO2 Sensor" {
		t.Errorf("List() order = [%q, %q], want name order", devices[0].Name, devices[1].Name)
	}
}

func TestDelete(t *testing.T) {
	repo := testRepository(t)
	ctx := context.Background()

	if err := repo.Upsert(ctx, testDevice()); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	if err := repo.Delete(ctx, "DC:23:4D:11:22:33"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := repo.Get(ctx, "DC:23:4D:11:22:33"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() after delete error = %v, want ErrNotFound", err)
	}
	if err := repo.Delete(ctx, "DC:23:4D:11:22:33"); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Delete() error = %v, want ErrNotFound", err)
	}
}

func TestTouchLastSeen(t *testing.T) {
	repo := testRepository(t)
	ctx := context.Background()

	if err := repo.Upsert(ctx, testDevice()); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	seen := time.Date(2026, 8, 25, 10, 30, 0, 0, time.UTC)
	if err := repo.TouchLastSeen(ctx, "DC:23:4D:11:22:33", seen); err != nil {
		t.Fatalf("TouchLastSeen() error = %v", err)
	}

	got, err := repo.Get(ctx, "DC:23:4D:11:22:33")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !got.LastSeen.Equal(seen) {
		t.Errorf("LastSeen = %v, want %v", got.LastSeen, seen)
	}

	if err := repo.TouchLastSeen(ctx, "00:00:00:00:00:00", seen); !errors.Is(err, ErrNotFound) {
		t.Errorf("TouchLastSeen() on unknown device error = %v, want ErrNotFound", err)
	}
}

func TestSeed(t *testing.T) {
	repo := testRepository(t)
	ctx := context.Background()

	// Pre-existing record with recorded pairing history.
	existing := testDevice()
	if err := repo.Upsert(ctx, existing); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	seen := time.Date(2026, 8, 20, 9, 0, 0, 0, time.UTC)
	if err := repo.TouchLastSeen(ctx, existing.Address, seen); err != nil {
		t.Fatalf("TouchLastSeen() error = %v", err)
	}

	fresh := testDevice()
	fresh.Address = "AA:BB:CC:DD:EE:FF"
	fresh.Name = "Soil Sensor"
	fresh.Category = "zwjcy"
	fresh.ProductID = "gvygg3m8"

	if err := Seed(ctx, repo, []PairedDevice{*testDevice(), *fresh}); err != nil {
		t.Fatalf("Seed() error = %v", err)
	}

	devices, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(devices) != 2 {
		t.Fatalf("List() returned %d devices, want 2", len(devices))
	}

	// Re-seeding must not wipe pairing history.
	got, err := repo.Get(ctx, existing.Address)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !got.LastSeen.Equal(seen) {
		t.Errorf("LastSeen = %v after seed, want %v preserved", got.LastSeen, seen)
	}
}
