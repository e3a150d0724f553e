// Package database provides SQLite connectivity for the lightsd history
// store.
//
// This package manages:
//   - Database connection with WAL mode so status API reads don't block writes
//   - Forward-only schema migrations read from an fs.FS
//   - Connection pooling and lifecycle management
//
// Usage:
//
//	db, err := database.Open(database.Config{Path: cfg.History.Path, WALMode: true})
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx, migrations.FS); err != nil {
//	    return err
//	}
package database
