// Package database provides SQLite connectivity for SmartHouse Core.
//
// This package manages:
//   - The connection pool shared by all request handlers
//   - Embedded, versioned schema migrations
//   - Health checks and pool statistics
//
// Every connection enforces foreign keys, so a room must reference an
// existing house and a device an existing room. Write transactions take the
// lock immediately (_txlock=immediate) and wait up to BusyTimeout for it.
//
// The pool is bounded by Config.MaxOpenConns. A caller blocks until a
// connection frees up or its context is done; the API layer gives each
// request a deadline so exhaustion surfaces as an error instead of a hang.
//
// Usage:
//
//	db, err := database.Open(database.Config{
//	    Path:         cfg.Database.Path,
//	    WALMode:      cfg.Database.WALMode,
//	    BusyTimeout:  cfg.Database.BusyTimeout,
//	    MaxOpenConns: cfg.Database.MaxOpenConns,
//	})
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx); err != nil {
//	    return err
//	}
//
// Migration files are named YYYYMMDD_HHMMSS_description.{up,down}.sql and
// are embedded by the top-level migrations package.
package database
