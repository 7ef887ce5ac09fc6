package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/danilompg/sitescope-backend/pkg/migrate"
)

func TestMigrationsDirIsValid(t *testing.T) {
	if err := migrate.ValidateDir("migrations"); err != nil {
		t.Fatalf("validate migrations dir: %v", err)
	}
}

func TestSubscriptionsMigrationContainsConstraints(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*_create_subscriptions.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no subscriptions migration file found")
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	content := string(data)

	checks := []string{
		"CREATE TABLE subscriptions",
		"REFERENCES users (id) ON DELETE CASCADE",
		"CHECK (status IN ('active', 'inactive', 'past_due'))",
		"CREATE UNIQUE INDEX idx_subscriptions_stripe_subscription_id",
		"DROP TABLE subscriptions",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestCreateSQLMigrationWritesTemplate(t *testing.T) {
	dir := t.TempDir()
	path, err := migrate.CreateSQLMigration(dir, "Add Widget Table")
	if err != nil {
		t.Fatalf("create migration: %v", err)
	}

	base := filepath.Base(path)
	if !strings.HasSuffix(base, "_add_widget_table.sql") {
		t.Fatalf("unexpected filename %q", base)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read migration: %v", err)
	}
	if !strings.Contains(string(data), "-- +goose Up") || !strings.Contains(string(data), "-- +goose Down") {
		t.Fatalf("template missing goose headers:\n%s", data)
	}

	if err := migrate.ValidateDir(dir); err != nil {
		t.Fatalf("validate generated dir: %v", err)
	}
}
