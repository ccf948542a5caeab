package shared

import (
	"database/sql"
	"testing"
)

func memoryDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create database: %v", err)
	}
	ConfigureDatabase(db, 1, 1)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestMigrationRunner(t *testing.T) {
	t.Run("loadMigrations", func(t *testing.T) {
		migrations, err := loadMigrations()
		if err != nil {
			t.Fatalf("failed to load migrations: %v", err)
		}

		if len(migrations) == 0 {
			t.Fatal("expected at least one migration")
		}
		if migrations[0].Name != "create_kv_store" {
			t.Errorf("expected first migration create_kv_store, got %q", migrations[0].Name)
		}

		for i := 1; i < len(migrations); i++ {
			if migrations[i].Version <= migrations[i-1].Version {
				t.Errorf("migrations not sorted: version %d comes after %d", migrations[i].Version, migrations[i-1].Version)
			}
		}
	})

	t.Run("RunMigrations And Rollback", func(t *testing.T) {
		db := memoryDB(t)

		if err := RunMigrations(db); err != nil {
			t.Fatalf("failed to run migrations: %v", err)
		}

		if _, err := db.Exec("INSERT INTO kv_store (key, value) VALUES ('auth_token', 'x')"); err != nil {
			t.Errorf("kv_store table should exist after migrations: %v", err)
		}

		if err := RollbackMigration(db); err != nil {
			t.Fatalf("failed to rollback migration: %v", err)
		}

		if _, err := db.Exec("SELECT 1 FROM kv_store LIMIT 1"); err == nil {
			t.Error("kv_store table should be gone after rollback")
		}

		if err := RollbackMigration(db); err == nil {
			t.Error("expected error rolling back with nothing applied")
		}
	})

	t.Run("Idempotent Migrations", func(t *testing.T) {
		db := memoryDB(t)

		for range 2 {
			if err := RunMigrations(db); err != nil {
				t.Fatalf("failed to run migrations: %v", err)
			}
		}

		var count int
		if err := db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count); err != nil {
			t.Fatalf("failed to query schema_migrations: %v", err)
		}

		migrations, _ := loadMigrations()
		if count != len(migrations) {
			t.Errorf("expected %d migrations to be applied, got %d", len(migrations), count)
		}
	})

	t.Run("stripComments", func(t *testing.T) {
		got := stripComments("-- header\n  CREATE TABLE t (a INT) -- trailing\n\n")
		if got != "CREATE TABLE t (a INT)" {
			t.Errorf("unexpected statement %q", got)
		}
	})
}

func TestOpenStore(t *testing.T) {
	t.Run("Empty Path", func(t *testing.T) {
		if _, err := OpenStore(DatabaseConfig{}); err == nil {
			t.Error("expected error for empty path")
		}
	})

	t.Run("Migrates On Open", func(t *testing.T) {
		db, err := OpenStore(DatabaseConfig{Path: ":memory:", MaxOpenConns: 1, MaxIdleConns: 1})
		if err != nil {
			t.Fatalf("OpenStore failed: %v", err)
		}
		defer db.Close()

		if _, err := db.Exec("SELECT 1 FROM kv_store LIMIT 1"); err != nil {
			t.Errorf("kv_store should exist: %v", err)
		}
	})
	t.Run("Memory Store Keeps Values", func(t *testing.T) {
		db, err := OpenMemoryStore()
		if err != nil {
			t.Fatalf("OpenMemoryStore failed: %v", err)
		}
		defer db.Close()

		if _, err := db.Exec("INSERT INTO kv_store (key, value) VALUES ('token', 'abc')"); err != nil {
			t.Fatalf("insert failed: %v", err)
		}
		var value string
		if err := db.QueryRow("SELECT value FROM kv_store WHERE key = 'token'").Scan(&value); err != nil || value != "abc" {
			t.Errorf("expected abc, got %q (%v)", value, err)
		}
	})
}
