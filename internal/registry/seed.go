package registry

import (
	"context"
	"fmt"
)

// Seed upserts the configured devices into the registry. Records already
// present keep their created_at and last_seen; credentials and metadata
// are refreshed from the config. Devices present in the registry but
// absent from the config are kept, so removing a line from config.yaml
// never discards pairing data.
func Seed(ctx context.Context, repo Repository, devices []PairedDevice) error {
	for i := range devices {
		if err := repo.Upsert(ctx, &devices[i]); err != nil {
			return fmt.Errorf("seeding device %s: %w", devices[i].Address, err)
		}
	}
	return nil
}
