package sqlite

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// DB wraps the sql.DB handle for the presence database.
type DB struct {
	*sql.DB
}

// NewDB opens (creating if necessary) the sqlite database at path and runs
// any pending migrations from migrationsDir.
func NewDB(path, migrationsDir string) (*DB, error) {
	handle, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db := &DB{handle}
	if err := db.MigrateUp(migrationsDir); err != nil {
		handle.Close()
		return nil, err
	}

	return db, nil
}
