// Package database provides SQLite connectivity for the iotinator master.
//
// The master keeps its agent registry in memory; SQLite only stores the
// audit trail of registry events. This package opens the database with
// WAL mode and a busy timeout, and applies the embedded schema migrations.
//
// Usage:
//
//	db, err := database.Open(database.Config{
//	    Path:        cfg.Database.Path,
//	    WALMode:     cfg.Database.WALMode,
//	    BusyTimeout: cfg.Database.BusyTimeout,
//	})
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx); err != nil {
//	    return err
//	}
package database
