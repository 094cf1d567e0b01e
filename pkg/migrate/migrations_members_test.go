package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rinksidehq/rinkside-backend/pkg/migrate"
)

func TestMembersMigrationContainsConstraints(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*_create_organization_members.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no organization_members migration file found")
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	content := string(data)

	checks := []string{
		"CREATE TABLE IF NOT EXISTS organization_members",
		"FOREIGN KEY (organization_id) REFERENCES organizations(id) ON DELETE CASCADE",
		"ON organization_members (organization_id, lower(email))",
		"WHERE deleted_at IS NULL AND email IS NOT NULL",
		"CHECK (joined_at IS NULL OR joined_at >= created_at)",
		"DROP TABLE IF EXISTS organization_members",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestValidateMigrationsDir(t *testing.T) {
	if err := migrate.ValidateDir("migrations"); err != nil {
		t.Fatalf("migrations dir invalid: %v", err)
	}
}

func TestCreateSQLMigration(t *testing.T) {
	dir := t.TempDir()
	path, err := migrate.CreateSQLMigration(dir, "Add Seat Audit!")
	if err != nil {
		t.Fatalf("create migration: %v", err)
	}
	base := filepath.Base(path)
	if !strings.HasSuffix(base, "_add_seat_audit.sql") {
		t.Fatalf("unexpected filename %s", base)
	}
	if err := migrate.ValidateDir(dir); err != nil {
		t.Fatalf("generated migration failed validation: %v", err)
	}
}
