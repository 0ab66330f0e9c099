package postgres

import (
	"database/sql"
	"fmt"
	"log"

	"ticket-office/config"

	_ "github.com/lib/pq"
)

func NewPostgresDB(cfg *config.DatabaseConfig) (*sql.DB, error) {
	connStr := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode,
	)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Println("Successfully connected to PostgreSQL")
	return db, nil
}

func RunMigrations(db *sql.DB) error {
	// Read migration files and execute them
	// This is a simplified version - you might want to use a proper migration tool
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id SERIAL PRIMARY KEY,
			email VARCHAR(255) UNIQUE,
			password_hash VARCHAR(255),
			role VARCHAR(20),
			name VARCHAR(255),
			external_account_id VARCHAR(255) UNIQUE,
			account_verified BOOLEAN NOT NULL DEFAULT FALSE,
			login_fail_count INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS events (
			id SERIAL PRIMARY KEY,
			title VARCHAR(255) NOT NULL,
			cent_price BIGINT NOT NULL,
			currency_code VARCHAR(3) NOT NULL,
			time TIMESTAMP NOT NULL,
			number_of_tickets INTEGER NOT NULL,
			organizer_id INTEGER NOT NULL REFERENCES users(id),
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS resale_allocations (
			event_id INTEGER NOT NULL REFERENCES events(id) ON DELETE CASCADE,
			seller_id INTEGER NOT NULL REFERENCES users(id),
			number_of_tickets INTEGER NOT NULL,
			PRIMARY KEY (event_id, seller_id)
		)`,

		`CREATE TABLE IF NOT EXISTS buyers (
			id SERIAL PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			phone VARCHAR(32) NOT NULL,
			email VARCHAR(255) NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS sold_tickets (
			id SERIAL PRIMARY KEY,
			event_id INTEGER NOT NULL REFERENCES events(id),
			buyer_id INTEGER NOT NULL REFERENCES buyers(id) ON DELETE RESTRICT,
			seller_id INTEGER NOT NULL REFERENCES users(id)
		)`,

		// Indexes
		`CREATE INDEX IF NOT EXISTS idx_sold_tickets_seller_id ON sold_tickets(seller_id)`,
		`CREATE INDEX IF NOT EXISTS idx_sold_tickets_event_id ON sold_tickets(event_id)`,
		`CREATE INDEX IF NOT EXISTS idx_sold_tickets_buyer_id ON sold_tickets(buyer_id)`,
		`CREATE INDEX IF NOT EXISTS idx_events_organizer_id ON events(organizer_id)`,
		`CREATE INDEX IF NOT EXISTS idx_resale_allocations_seller_id ON resale_allocations(seller_id)`,
	}

	for _, migration := range migrations {
		if _, err := db.Exec(migration); err != nil {
			return fmt.Errorf("failed to execute migration: %v", err)
		}
	}

	log.Println("Database migrations completed successfully")
	return nil
}
