package registry

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// PairedDevice is one persisted pairing record.
type PairedDevice struct {
	// Address is the BLE MAC address, the registry's primary key.
	Address string

	// Name is the human-readable name shown in entity metadata.
	Name string

	// Category is the Tuya device category ("ms", "szjqr", ...).
	Category string

	// ProductID is the Tuya product identifier ("ludzroix", ...).
	ProductID string

	// DeviceID, LocalKey and UUID are the cloud pairing credentials used
	// for the session key exchange.
	DeviceID string
	LocalKey string
	UUID     string

	// LastSeen is the last successful BLE connection, zero if never.
	LastSeen time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Validate checks the record has the fields every pairing needs.
func (p *PairedDevice) Validate() error {
	if p.Address == "" {
		return fmt.Errorf("%w: address is required", ErrInvalidRecord)
	}
	if p.Category == "" {
		return fmt.Errorf("%w: category is required for %s", ErrInvalidRecord, p.Address)
	}
	if p.ProductID == "" {
		return fmt.Errorf("%w: product_id is required for %s", ErrInvalidRecord, p.Address)
	}
	return nil
}

// Repository defines the interface for pairing persistence.
// This abstraction allows mock implementations in tests.
type Repository interface {
	// Get retrieves a pairing record by BLE address.
	// Returns ErrNotFound if no record exists.
	Get(ctx context.Context, address string) (*PairedDevice, error)

	// List retrieves all pairing records ordered by name.
	List(ctx context.Context) ([]PairedDevice, error)

	// Upsert inserts or updates a pairing record. On update the original
	// created_at is preserved.
	Upsert(ctx context.Context, device *PairedDevice) error

	// Delete removes a pairing record.
	// Returns ErrNotFound if no record exists.
	Delete(ctx context.Context, address string) error

	// TouchLastSeen records a successful BLE connection.
	TouchLastSeen(ctx context.Context, address string, at time.Time) error
}

// SQLiteRepository implements Repository on the bridge's SQLite store.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a repository on an open SQLite connection
// and ensures the schema exists.
func NewSQLiteRepository(ctx context.Context, db *sql.DB) (*SQLiteRepository, error) {
	r := &SQLiteRepository{db: db}
	if err := r.migrate(ctx); err != nil {
		return nil, err
	}
	return r, nil
}

// migrate creates the devices table. The schema is small enough that an
// idempotent CREATE TABLE beats a migration framework.
func (r *SQLiteRepository) migrate(ctx context.Context) error {
	const schema = `
		CREATE TABLE IF NOT EXISTS devices (
			address    TEXT PRIMARY KEY,
			name       TEXT NOT NULL DEFAULT '',
			category   TEXT NOT NULL,
			product_id TEXT NOT NULL,
			device_id  TEXT NOT NULL DEFAULT '',
			local_key  TEXT NOT NULL DEFAULT '',
			uuid       TEXT NOT NULL DEFAULT '',
			last_seen  TEXT,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`

	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("creating devices table: %w", err)
	}
	return nil
}

// Get retrieves a pairing record by BLE address.
func (r *SQLiteRepository) Get(ctx context.Context, address string) (*PairedDevice, error) {
	const query = `
		SELECT address, name, category, product_id, device_id, local_key, uuid,
			last_seen, created_at, updated_at
		FROM devices
		WHERE address = ?`

	device, err := scanPairedDevice(r.db.QueryRowContext(ctx, query, normaliseAddress(address)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, address)
		}
		return nil, fmt.Errorf("querying device by address: %w", err)
	}
	return device, nil
}

// List retrieves all pairing records ordered by name.
func (r *SQLiteRepository) List(ctx context.Context) ([]PairedDevice, error) {
	const query = `
		SELECT address, name, category, product_id, device_id, local_key, uuid,
			last_seen, created_at, updated_at
		FROM devices
		ORDER BY name, address`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying devices: %w", err)
	}
	defer rows.Close()

	var devices []PairedDevice
	for rows.Next() {
		device, err := scanPairedDevice(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning device: %w", err)
		}
		devices = append(devices, *device)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating devices: %w", err)
	}
	return devices, nil
}

// Upsert inserts or updates a pairing record.
func (r *SQLiteRepository) Upsert(ctx context.Context, device *PairedDevice) error {
	if err := device.Validate(); err != nil {
		return err
	}

	now := time.Now().UTC()
	const query = `
		INSERT INTO devices (
			address, name, category, product_id, device_id, local_key, uuid,
			last_seen, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(address) DO UPDATE SET
			name = excluded.name,
			category = excluded.category,
			product_id = excluded.product_id,
			device_id = excluded.device_id,
			local_key = excluded.local_key,
			uuid = excluded.uuid,
			updated_at = excluded.updated_at`

	_, err := r.db.ExecContext(ctx, query,
		normaliseAddress(device.Address),
		device.Name,
		device.Category,
		device.ProductID,
		device.DeviceID,
		device.LocalKey,
		device.UUID,
		nullableTime(device.LastSeen),
		now.Format(time.RFC3339),
		now.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("upserting device: %w", err)
	}
	return nil
}

// Delete removes a pairing record.
func (r *SQLiteRepository) Delete(ctx context.Context, address string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM devices WHERE address = ?", normaliseAddress(address))
	if err != nil {
		return fmt.Errorf("deleting device: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, address)
	}
	return nil
}

// TouchLastSeen records a successful BLE connection.
func (r *SQLiteRepository) TouchLastSeen(ctx context.Context, address string, at time.Time) error {
	const query = `
		UPDATE devices
		SET last_seen = ?, updated_at = ?
		WHERE address = ?`

	result, err := r.db.ExecContext(ctx, query,
		at.UTC().Format(time.RFC3339),
		time.Now().UTC().Format(time.RFC3339),
		normaliseAddress(address),
	)
	if err != nil {
		return fmt.Errorf("updating last seen: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, address)
	}
	return nil
}

// rowScanner is satisfied by both sql.Row and sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanPairedDevice(scanner rowScanner) (*PairedDevice, error) {
	var (
		d        PairedDevice
		lastSeen sql.NullString
		created  string
		updated  string
	)

	err := scanner.Scan(
		&d.Address,
		&d.Name,
		&d.Category,
		&d.ProductID,
		&d.DeviceID,
		&d.LocalKey,
		&d.UUID,
		&lastSeen,
		&created,
		&updated,
	)
	if err != nil {
		return nil, err
	}

	if lastSeen.Valid {
		t, err := time.Parse(time.RFC3339, lastSeen.String)
		if err != nil {
			return nil, fmt.Errorf("parsing last_seen: %w", err)
		}
		d.LastSeen = t
	}
	if d.CreatedAt, err = time.Parse(time.RFC3339, created); err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	if d.UpdatedAt, err = time.Parse(time.RFC3339, updated); err != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", err)
	}
	return &d, nil
}

// normaliseAddress makes address comparison case-insensitive. BLE stacks
// disagree about the case of MAC addresses.
func normaliseAddress(address string) string {
	return strings.ToUpper(strings.TrimSpace(address))
}

// nullableTime converts a possibly-zero time into a nullable column value.
func nullableTime(t time.Time) sql.NullString {
	if t.IsZero() {
		return sql.NullString{}
	}
	return sql.NullString{String: t.UTC().Format(time.RFC3339), Valid: true}
}
