// internal/database/migrate.go
//
// Idempotent schema bootstrap.
//
// Context
// -------
// Pursuit owns four tables.  `instance` holds at most one row (the fixed
// id "singleton"); `job` and `connection` reference it; `update_entry`
// references either parent kind through a discriminator column.  The
// updates table is named `update_entry` because `update` is a reserved
// word in MySQL.
//
// Foreign keys are intentionally *not* declared: registration replaces
// the instance row without cascading to children, and a DB-level
// constraint would forbid exactly that documented behavior.
package database

import "github.com/jmoiron/sqlx"

var schema = []string{
	`CREATE TABLE IF NOT EXISTS instance (
	    id          VARCHAR(32)  NOT NULL PRIMARY KEY,
	    name        VARCHAR(255) NOT NULL,
	    email       VARCHAR(255) NOT NULL,
	    secret_hash CHAR(64)     NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS job (
	    id               CHAR(36)     NOT NULL PRIMARY KEY,
	    instance_id      VARCHAR(32)  NOT NULL,
	    date_applied     VARCHAR(10)  NOT NULL,
	    role             VARCHAR(255) NOT NULL,
	    description      TEXT         NULL,
	    job_type         VARCHAR(64)  NOT NULL,
	    source           VARCHAR(255) NOT NULL,
	    link             VARCHAR(512) NULL,
	    company          VARCHAR(255) NOT NULL,
	    contact_name     VARCHAR(255) NULL,
	    contact_email    VARCHAR(255) NULL,
	    contact_mobile   VARCHAR(64)  NULL,
	    status           VARCHAR(64)  NOT NULL,
	    last_update_date VARCHAR(10)  NULL,
	    KEY idx_job_instance (instance_id)
	)`,
	`CREATE TABLE IF NOT EXISTS connection (
	    id                   CHAR(36)     NOT NULL PRIMARY KEY,
	    instance_id          VARCHAR(32)  NOT NULL,
	    date_requested       VARCHAR(10)  NOT NULL,
	    company              VARCHAR(255) NOT NULL,
	    contact_name         VARCHAR(255) NULL,
	    contact_linkedin_url VARCHAR(512) NULL,
	    contact_mobile       VARCHAR(64)  NULL,
	    status               VARCHAR(64)  NOT NULL,
	    last_update_date     VARCHAR(10)  NULL,
	    KEY idx_connection_instance (instance_id)
	)`,
	`CREATE TABLE IF NOT EXISTS update_entry (
	    id          CHAR(36)    NOT NULL PRIMARY KEY,
	    parent_kind VARCHAR(16) NOT NULL,
	    parent_id   CHAR(36)    NOT NULL,
	    date        VARCHAR(10) NOT NULL,
	    description TEXT        NOT NULL,
	    KEY idx_update_parent (parent_id)
	)`,
}

// Migrate executes the DDL statements in order.  Every statement is
// CREATE TABLE IF NOT EXISTS, so running it on every boot is safe.
func Migrate(db *sqlx.DB) error {
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}
