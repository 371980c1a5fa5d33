package database

import (
	"context"
	"database/sql"
	"fmt"
)

// schema creates the tables the scheduler reads and writes.  The movies
// table belongs to the catalog; it is created here only so a fresh
// database can serve listings.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS movies (
		id           VARCHAR(64)  NOT NULL PRIMARY KEY,
		title        VARCHAR(255) NOT NULL,
		genre        VARCHAR(128) NOT NULL DEFAULT '',
		duration_min INT UNSIGNED NOT NULL DEFAULT 0,
		poster_url   VARCHAR(512) NOT NULL DEFAULT '',
		release_date DATE NULL
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS showtimes (
		id          BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		movie_id    VARCHAR(64)  NOT NULL,
		theater     VARCHAR(255) NOT NULL,
		range_start DATETIME(3)  NOT NULL,
		range_end   DATETIME(3)  NOT NULL,
		created_at  DATETIME(3)  NOT NULL DEFAULT CURRENT_TIMESTAMP(3),
		updated_at  DATETIME(3)  NOT NULL DEFAULT CURRENT_TIMESTAMP(3),
		KEY idx_showtimes_movie (movie_id),
		CONSTRAINT chk_showtimes_range CHECK (range_end >= range_start)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// Migrate applies the schema.  Every statement is idempotent.
func Migrate(ctx context.Context, db *sql.DB) error {
	for i, q := range schema {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("migrate step %d: %w", i+1, err)
		}
	}
	return nil
}
