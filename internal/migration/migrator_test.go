package migration

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appconfig "github.com/paperpilot/paperpilot/config"
)

func TestParseDatabaseType(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected DatabaseType
		wantErr  bool
	}{
		{"postgres", "postgres", DatabaseTypePostgres, false},
		{"postgresql", "postgresql", DatabaseTypePostgres, false},
		{"pg", "pg", DatabaseTypePostgres, false},
		{"mysql", "mysql", DatabaseTypeMySQL, false},
		{"mariadb", "mariadb", DatabaseTypeMySQL, false},
		{"uppercase", "POSTGRES", DatabaseTypePostgres, false},
		{"sqlite is orm-managed", "sqlite", "", true},
		{"invalid", "invalid", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := ParseDatabaseType(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.expected, result)
			}
		})
	}
}

func TestBuildDatabaseURL(t *testing.T) {
	pg := BuildDatabaseURL(DatabaseTypePostgres, "db", 5432, "paperpilot", "pp", "s3cret", "disable")
	assert.Equal(t, "postgres://pp:s3cret@db:5432/paperpilot?sslmode=disable", pg)

	pgDefaultSSL := BuildDatabaseURL(DatabaseTypePostgres, "db", 5432, "paperpilot", "pp", "s3cret", "")
	assert.Contains(t, pgDefaultSSL, "sslmode=require")

	my := BuildDatabaseURL(DatabaseTypeMySQL, "db", 3306, "paperpilot", "pp", "s3cret", "")
	assert.Equal(t, "pp:s3cret@tcp(db:3306)/paperpilot?parseTime=true&multiStatements=true", my)

	assert.Empty(t, BuildDatabaseURL(DatabaseType("oracle"), "", 0, "", "", "", ""))
}

func TestAvailableMigrations(t *testing.T) {
	for _, dbType := range []DatabaseType{DatabaseTypePostgres, DatabaseTypeMySQL} {
		t.Run(string(dbType), func(t *testing.T) {
			migrations, err := availableMigrations(dbType)
			require.NoError(t, err)
			require.NotEmpty(t, migrations)

			assert.Equal(t, uint(1), migrations[0].version)
			assert.Equal(t, "create_projects", migrations[0].name)

			// Versions are unique and sorted.
			for i := 1; i < len(migrations); i++ {
				assert.Greater(t, migrations[i].version, migrations[i-1].version)
			}
		})
	}
}

func TestMigrationSource_Unsupported(t *testing.T) {
	_, _, err := migrationSource(DatabaseType("sqlite"))
	assert.Error(t, err)
}

func TestNewMigrator_Validation(t *testing.T) {
	_, err := NewMigrator(nil)
	assert.Error(t, err)

	_, err = NewMigrator(&Config{DatabaseType: DatabaseTypePostgres})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database URL is required")
}

func TestNewMigratorFromDatabaseConfig_RejectsSQLite(t *testing.T) {
	_, err := NewMigratorFromDatabaseConfig(appconfig.DatabaseConfig{Driver: "sqlite", Name: "test.db"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid database type")
}

func TestNewMigratorFromURL_InvalidType(t *testing.T) {
	_, err := NewMigratorFromURL("oracle", "oracle://x")
	assert.Error(t, err)
}

// stubMigrator lets the CLI be tested without a database.
type stubMigrator struct {
	version  uint
	statuses []MigrationStatus
	upCalled bool
}

func (s *stubMigrator) Up(context.Context) error            { s.upCalled = true; return nil }
func (s *stubMigrator) Down(context.Context) error          { return nil }
func (s *stubMigrator) DownAll(context.Context) error       { return nil }
func (s *stubMigrator) Steps(context.Context, int) error    { return nil }
func (s *stubMigrator) Goto(context.Context, uint) error    { return nil }
func (s *stubMigrator) Force(context.Context, int) error    { return nil }
func (s *stubMigrator) Close() error                        { return nil }
func (s *stubMigrator) Version(context.Context) (uint, bool, error) {
	return s.version, false, nil
}
func (s *stubMigrator) Status(context.Context) ([]MigrationStatus, error) {
	return s.statuses, nil
}
func (s *stubMigrator) Info(context.Context) (*MigrationInfo, error) {
	applied := 0
	for _, st := range s.statuses {
		if st.Applied {
			applied++
		}
	}
	return &MigrationInfo{
		CurrentVersion:    s.version,
		TotalMigrations:   len(s.statuses),
		AppliedMigrations: applied,
		PendingMigrations: len(s.statuses) - applied,
	}, nil
}

func TestCLI_RunUp(t *testing.T) {
	stub := &stubMigrator{version: 1}
	cli := NewCLI(stub)
	var buf bytes.Buffer
	cli.SetOutput(&buf)

	require.NoError(t, cli.RunUp(context.Background()))
	assert.True(t, stub.upCalled)
	assert.Contains(t, buf.String(), "Current version: 1")
}

func TestCLI_RunStatus(t *testing.T) {
	stub := &stubMigrator{
		version: 1,
		statuses: []MigrationStatus{
			{Version: 1, Name: "create_projects", Applied: true},
			{Version: 2, Name: "add_indexes", Applied: false},
		},
	}
	cli := NewCLI(stub)
	var buf bytes.Buffer
	cli.SetOutput(&buf)

	require.NoError(t, cli.RunStatus(context.Background()))
	out := buf.String()
	assert.Contains(t, out, "create_projects")
	assert.Contains(t, out, "applied")
	assert.Contains(t, out, "pending")
	assert.Contains(t, out, "Total: 2, Applied: 1, Pending: 1")
}

func TestCLI_RunVersion_NoneApplied(t *testing.T) {
	cli := NewCLI(&stubMigrator{version: 0})
	var buf bytes.Buffer
	cli.SetOutput(&buf)

	require.NoError(t, cli.RunVersion(context.Background()))
	assert.Contains(t, buf.String(), "No migrations applied yet")
}
