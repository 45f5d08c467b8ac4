package migration

import (
	"fmt"

	appconfig "github.com/paperpilot/paperpilot/config"
)

// NewMigratorFromDatabaseConfig builds a migrator from the server's
// database section. Only postgres and mysql reach this path; sqlite
// deployments auto-migrate through the ORM at startup.
func NewMigratorFromDatabaseConfig(dbCfg appconfig.DatabaseConfig) (*DefaultMigrator, error) {
	dbType, err := ParseDatabaseType(dbCfg.Driver)
	if err != nil {
		return nil, fmt.Errorf("invalid database type: %w", err)
	}

	sslMode := ""
	if dbType == DatabaseTypePostgres {
		sslMode = dbCfg.SSLMode
	}
	dbURL := BuildDatabaseURL(dbType, dbCfg.Host, dbCfg.Port, dbCfg.Name, dbCfg.User, dbCfg.Password, sslMode)

	return NewMigrator(&Config{
		DatabaseType: dbType,
		DatabaseURL:  dbURL,
		TableName:    "schema_migrations",
	})
}

// NewMigratorFromURL builds a migrator from an explicit connection URL,
// bypassing the config file. Used by the migrate command's --db-url flag.
func NewMigratorFromURL(dbType, dbURL string) (*DefaultMigrator, error) {
	dt, err := ParseDatabaseType(dbType)
	if err != nil {
		return nil, err
	}

	return NewMigrator(&Config{
		DatabaseType: dt,
		DatabaseURL:  dbURL,
		TableName:    "schema_migrations",
	})
}
