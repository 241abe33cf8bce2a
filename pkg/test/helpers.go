package test

import (
	"context"
	"log"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"todostore/internal/adapter/database/sqlite"
)

// InitTestDB opens a fresh in-memory database with the schema applied.
func InitTestDB() *sqlite.DB {
	db, err := sqlite.NewDB(sqlite.MemoryDSN(uuid.NewString()), zerolog.Nop())

	if err != nil {
		log.Fatal(err)
	}

	return db
}

// TeardownTestDB empties the todo table and closes the database.
func TeardownTestDB(t *testing.T, db *sqlite.DB) {
	t.Helper()

	if db == nil {
		return
	}

	if _, err := db.ExecContext(context.Background(), "DELETE FROM todo"); err != nil {
		t.Fatalf("Failed to clean todo table: %v", err)
	}

	db.Close()
}
