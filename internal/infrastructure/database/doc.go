// Package database provides SQLite connectivity for the Tuya BLE bridge.
//
// The bridge keeps a small local store: the paired-device registry. SQLite
// is a good fit because the data is tiny, single-writer, and must survive
// restarts without an external service.
//
// # Configuration
//
//	database:
//	  path: "./data/tuyable.db"
//	  wal_mode: true
//	  busy_timeout: 5
//
// # Usage
//
//	db, err := database.Open(database.Config{Path: cfg.Database.Path, WALMode: true, BusyTimeout: 5})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer db.Close()
//
// Schema ownership lives with the consuming package (see internal/registry),
// which bootstraps its own table on startup.
package database
