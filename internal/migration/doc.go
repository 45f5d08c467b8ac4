/*
Package migration manages versioned database schema changes for the
server databases (PostgreSQL and MySQL), built on golang-migrate.

# Overview

SQL migration files are embedded per dialect through embed.FS and
applied by the golang-migrate engine. The package supports forward
migration, rollback, stepping, jumping to a version and forcing the
version marker. SQLite deployments are excluded on purpose: their
schema is handled by the ORM's auto-migration at store startup.

# Types

  - Migrator: the operation set (Up/Down/DownAll/Steps/Goto/Force/
    Version/Status/Info/Close).
  - DefaultMigrator: the golang-migrate backed implementation.
  - Config: database type, connection URL, bookkeeping table and lock
    timeout.
  - CLI: terminal-facing wrapper with formatted output.

Factory helpers (NewMigratorFromDatabaseConfig, NewMigratorFromURL)
build migrators from the application configuration or a raw URL.
*/
package migration
