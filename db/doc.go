// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db opens the datastore and applies the schema.

# Opening

Open selects the driver from the database type, pings, and migrates:

	conn, err := db.Open(ctx, cfg.DatabaseType, cfg.DatabaseURL)
	if err != nil {
		log.Fatal(err)
	}

SQLite URLs get the foreign_keys, busy_timeout and WAL pragmas and
_time_format=sqlite added unless the URL already sets them; other query
parameters are kept. Postgres URLs are passed to lib/pq unchanged.

# Migrations

The schema lives in db/migrations as goose SQL files embedded into the
binary. Migrate is idempotent.

# Tables

  - poll: poll metadata and lifecycle flag
  - poll_option: ordered options, keyed by (poll_id, option_index)
  - vote: one row per (poll_id, voter_wallet)

	poll 1──* poll_option
	poll 1──* vote

Foreign keys use ON DELETE CASCADE. UNIQUE(poll_id, voter_wallet) on vote
is the only cross-request serialization point; IsUniqueViolation
recognizes its failure in both drivers.
*/
package db
