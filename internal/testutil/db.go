package testutil

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/jengzang/geolife-backend-go/internal/database"
)

// OpenDB opens a fresh SQLite database with the schema applied
func OpenDB(t testing.TB) *sql.DB {
	t.Helper()
	conn, err := database.Open(database.Config{Path: filepath.Join(t.TempDir(), "geolife.db")})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { conn.Close() })

	if err := database.CreateSchema(context.Background(), conn); err != nil {
		t.Fatal(err)
	}
	return conn
}
