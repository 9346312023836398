package dbtest

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"

	"github.com/the-dev-tools/dev-tools/packages/formtree/internal/migrations"
)

// GetTestDB opens a private in-memory database with the form tree schema
// applied.
func GetTestDB(ctx context.Context) (*sql.DB, error) {
	// Generate unique database name for this test to ensure isolation
	uniqueName := ulid.Make().String()
	connStr := fmt.Sprintf("file:testdb_%s?mode=memory&cache=shared&_pragma=foreign_keys(1)", uniqueName)

	db, err := sql.Open("sqlite", connStr)
	if err != nil {
		return nil, err
	}
	// a shared-cache memory database serialises writers anyway; one
	// connection keeps SQLITE_LOCKED out of concurrent tests
	db.SetMaxOpenConns(1)

	if err := migrations.Run(ctx, db, migrations.Config{}); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}
