package server

import (
	"github.com/BurntSushi/migration"
	"github.com/cyclopcam/dbh"
	"github.com/cyclopcam/logs"
	"gorm.io/gorm"
)

// Open or create the DB
func openDB(log logs.Log, config dbh.DBConfig) (*gorm.DB, error) {
	log.Infof("Opening site DB (%v)", config.LogSafeDescription())
	return dbh.OpenDB(log, config, Migrations(log), 0)
}

func Migrations(log logs.Log) []migration.Migrator {
	migs := []migration.Migrator{}
	idx := 0

	migs = append(migs, dbh.MakeMigrationFromSQL(log, &idx,
		`
		CREATE TABLE user(
			id INTEGER PRIMARY KEY,
			login TEXT NOT NULL,
			display_name TEXT,
			external_id TEXT,
			avatar_url TEXT,
			track_editor BOOLEAN NOT NULL DEFAULT FALSE,
			track_moderator BOOLEAN NOT NULL DEFAULT FALSE,
			track_admin BOOLEAN NOT NULL DEFAULT FALSE,
			created_at INT NOT NULL
		);
		CREATE UNIQUE INDEX idx_user_login ON user (login);

		CREATE TABLE session(
			key BLOB PRIMARY KEY,
			created_at INT NOT NULL,
			expires_at INT,
			identity TEXT,
			access_token TEXT,
			refresh_token TEXT
		);
		CREATE INDEX idx_session_expires_at ON session (expires_at);
	`))

	migs = append(migs, dbh.MakeMigrationFromSQL(log, &idx,
		`
		CREATE TABLE snapshot(
			id INTEGER PRIMARY KEY,
			server TEXT NOT NULL,
			faction TEXT NOT NULL,
			material TEXT NOT NULL,
			current INT NOT NULL,
			required INT NOT NULL,
			updated_at INT NOT NULL
		);
		CREATE INDEX idx_snapshot_server_updated_at ON snapshot (server, updated_at);
		CREATE INDEX idx_snapshot_key ON snapshot (server, faction, material, updated_at);
	`))

	return migs
}
