package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

// Open connects to MySQL and verifies the connection.
func Open(user, pass, host, port, name string) (*sql.DB, error) {
	auth := user
	if pass != "" {
		auth = fmt.Sprintf("%s:%s", user, pass)
	}
	// parseTime=true -> DATETIME -> time.Time | loc=UTC keeps times consistent
	dsn := fmt.Sprintf("%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=true&loc=UTC",
		auth, host, port, name)

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}
	return db, nil
}

// schema holds the DDL for every table, in dependency order.  Bookings
// carry no foreign key to identities on purpose: identities may be
// purged while their past bookings remain as immutable records.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS identities (
		id              BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		email           VARCHAR(255)    NOT NULL,
		password_hash   VARCHAR(100)    NOT NULL,
		full_name       VARCHAR(255)    NOT NULL,
		is_verified     TINYINT(1)      NOT NULL DEFAULT 0,
		otp_code        CHAR(6)         NULL,
		otp_expires_at  DATETIME        NULL,
		created_at      DATETIME        NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at      DATETIME        NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		PRIMARY KEY (id),
		UNIQUE KEY uq_identities_email (email)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS hotels (
		id           BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		name         VARCHAR(255)    NOT NULL,
		city         VARCHAR(100)    NOT NULL,
		description  TEXT            NOT NULL,
		nightly_rate BIGINT          NOT NULL,
		created_at   DATETIME        NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (id),
		KEY idx_hotels_city (city)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS bookings (
		id               BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		hotel_id         BIGINT UNSIGNED NOT NULL,
		identity_id      BIGINT UNSIGNED NOT NULL,
		check_in         DATETIME        NOT NULL,
		check_out        DATETIME        NOT NULL,
		guests           INT             NOT NULL,
		total_amount     BIGINT          NOT NULL,
		contact_name     VARCHAR(255)    NOT NULL,
		contact_email    VARCHAR(255)    NOT NULL,
		authorization_id VARCHAR(100)    NOT NULL,
		created_at       DATETIME        NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (id),
		KEY idx_bookings_identity (identity_id),
		KEY idx_bookings_hotel (hotel_id),
		CONSTRAINT fk_bookings_hotel FOREIGN KEY (hotel_id) REFERENCES hotels (id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// EnsureSchema creates any missing tables.  Statements are idempotent,
// so running it on every start is safe.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
