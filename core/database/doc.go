// Package database handles database connections and schema inspection.
//
// It provides a wrapper around GORM (Go Object Relational Mapping) to configure
// MySQL, PostgreSQL or SQLite connections based on the application's configuration.
//
// # Connect
//
// Connect opens the configured driver, applies pool settings and pings the
// database within the configured timeout.
//
// # Schema Inspection
//
// GetTableColumns lists a table's columns for each supported dialect. The
// discovery feature uses it to verify that the providers table carries the
// columns markers need.
//
// # Usage
//
//	db, err := database.Connect(cfg.Database)
//	if err != nil {
//	    log.Fatal("Database connection failed", err)
//	}
//
//	columns, err := database.GetTableColumns(db, "providers")
package database
