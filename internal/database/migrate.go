package database

import (
	"context"
	"fmt"
	"strings"
)

// schema is written once with dialect tokens:
//   {{PK}}  auto-increment primary key column type
//   {{TS}}  timestamp column type
var schema = []string{
	`CREATE TABLE IF NOT EXISTS theaters (
		id          {{PK}},
		name        VARCHAR(120) NOT NULL,
		location    VARCHAR(255) NOT NULL DEFAULT '',
		created_at  {{TS}} NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE (name)
	)`,
	`CREATE TABLE IF NOT EXISTS seat_types (
		id           {{PK}},
		theater_id   BIGINT NOT NULL,
		name         VARCHAR(60) NOT NULL,
		description  VARCHAR(255) NOT NULL DEFAULT '',
		price_cents  BIGINT NOT NULL CHECK (price_cents >= 0),
		UNIQUE (theater_id, name),
		FOREIGN KEY (theater_id) REFERENCES theaters(id)
	)`,
	`CREATE TABLE IF NOT EXISTS sections (
		id             {{PK}},
		theater_id     BIGINT NOT NULL,
		name           VARCHAR(60) NOT NULL,
		description    VARCHAR(255) NOT NULL DEFAULT '',
		seat_type_id   BIGINT NOT NULL,
		rows_count     INT NOT NULL CHECK (rows_count > 0),
		seats_per_row  INT NOT NULL CHECK (seats_per_row > 0),
		is_active      BOOLEAN NOT NULL DEFAULT TRUE,
		UNIQUE (theater_id, name),
		FOREIGN KEY (theater_id) REFERENCES theaters(id),
		FOREIGN KEY (seat_type_id) REFERENCES seat_types(id)
	)`,
	`CREATE TABLE IF NOT EXISTS seats (
		id            {{PK}},
		theater_id    BIGINT NOT NULL,
		section_id    BIGINT NOT NULL,
		seat_code     VARCHAR(80) NOT NULL,
		row_no        INT NOT NULL,
		seat_no       INT NOT NULL,
		seat_type_id  BIGINT NOT NULL,
		status        VARCHAR(16) NOT NULL DEFAULT 'AVAILABLE',
		is_active     BOOLEAN NOT NULL DEFAULT TRUE,
		UNIQUE (theater_id, seat_code),
		FOREIGN KEY (section_id) REFERENCES sections(id),
		FOREIGN KEY (seat_type_id) REFERENCES seat_types(id)
	)`,
	`CREATE TABLE IF NOT EXISTS bookings (
		id                 {{PK}},
		seat_id            BIGINT NOT NULL,
		customer_name      VARCHAR(120) NOT NULL,
		customer_email     VARCHAR(255) NOT NULL DEFAULT '',
		customer_phone     VARCHAR(40) NOT NULL DEFAULT '',
		booking_time       {{TS}} NOT NULL,
		total_price_cents  BIGINT NOT NULL,
		status             VARCHAR(16) NOT NULL DEFAULT 'CONFIRMED',
		FOREIGN KEY (seat_id) REFERENCES seats(id)
	)`,
	`CREATE TABLE IF NOT EXISTS theater_configs (
		theater_id    BIGINT NOT NULL,
		config_key    VARCHAR(80) NOT NULL,
		config_value  VARCHAR(255) NOT NULL,
		PRIMARY KEY (theater_id, config_key),
		FOREIGN KEY (theater_id) REFERENCES theaters(id)
	)`,
}

// secondary indexes; MySQL creates FK indexes on its own and has no
// CREATE INDEX IF NOT EXISTS, so these only run elsewhere.
var indexes = []string{
	`CREATE INDEX IF NOT EXISTS idx_seats_section ON seats(section_id, row_no, seat_no)`,
	`CREATE INDEX IF NOT EXISTS idx_bookings_seat ON bookings(seat_id, status)`,
	`CREATE INDEX IF NOT EXISTS idx_bookings_email ON bookings(customer_email)`,
}

func (d Dialect) replacer() *strings.Replacer {
	switch d {
	case Postgres:
		return strings.NewReplacer("{{PK}}", "BIGSERIAL PRIMARY KEY", "{{TS}}", "TIMESTAMP")
	case SQLite:
		return strings.NewReplacer("{{PK}}", "INTEGER PRIMARY KEY AUTOINCREMENT", "{{TS}}", "DATETIME")
	default:
		return strings.NewReplacer("{{PK}}", "BIGINT AUTO_INCREMENT PRIMARY KEY", "{{TS}}", "DATETIME")
	}
}

// Migrate creates the tables the repositories depend on. It is idempotent.
func Migrate(ctx context.Context, db *DB) error {
	r := db.Dialect.replacer()
	stmts := make([]string, 0, len(schema)+len(indexes))
	for _, s := range schema {
		stmts = append(stmts, r.Replace(s))
	}
	if db.Dialect != MySQL {
		stmts = append(stmts, indexes...)
	}
	for i, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}
