package database

import (
	"database/sql"
	"fmt"
	"log"

	"github.com/Ditronics-Tz/Smart-Acess-Web-sub000/config"
	_ "github.com/lib/pq"
)

// PostgreSQLStore is the raw-SQL connection used for schema primitives the
// ORM migration does not manage, i.e. native Postgres enum types.
type PostgreSQLStore struct {
	db *sql.DB
}

func Start() (*PostgreSQLStore, error) {
	getEnv, err := config.Get()

	if err != nil {
		return nil, err
	}

	connectStr := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		getEnv.DB_HOST, getEnv.DB_PORT, getEnv.DB_USER_NAME, getEnv.DB_PASSWORD, getEnv.DB_NAME, getEnv.DB_SSL_MODE)

	db, err := sql.Open("postgres", connectStr)
	if err != nil {
		fmt.Println("Unable to Start PostgresSQL Databse.")
		return nil, err
	}

	log.Println("Successfully connected to PostgresSQL Database.")
	return &PostgreSQLStore{
		db: db,
	}, nil
}

func (s *PostgreSQLStore) Init() error {
	log.Println("Initializing PostgresSQL Database.", "Initializing Enums")
	return s.InitEnums()
}

// InitEnums creates the native enum types the models reference. Safe to run
// repeatedly.
func (s *PostgreSQLStore) InitEnums() error {
	query := `
		DO $$
		BEGIN
			IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'location_types') THEN
				CREATE TYPE location_types AS ENUM ('campus', 'building', 'floor', 'room', 'gate', 'area');
			END IF;
		END $$;

		DO $$
		BEGIN
			IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'gate_directions') THEN
				CREATE TYPE gate_directions AS ENUM ('entry', 'exit', 'bidirectional');
			END IF;
		END $$;

		DO $$
		BEGIN
			IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'gate_statuses') THEN
				CREATE TYPE gate_statuses AS ENUM ('active', 'inactive', 'maintenance', 'error');
			END IF;
		END $$;

		DO $$
		BEGIN
			IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'subject_types') THEN
				CREATE TYPE subject_types AS ENUM ('student', 'staff');
			END IF;
		END $$;

		DO $$
		BEGIN
			IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'user_roles') THEN
				CREATE TYPE user_roles AS ENUM ('admin', 'operator');
			END IF;
		END $$;
	`

	if _, err := s.db.Exec(query); err != nil {
		log.Println("Error initializing enums:", err)
		return err
	}
	return nil
}

// Close closes the database connection
func (s *PostgreSQLStore) Close() error {
	return s.db.Close()
}

// HealthCheck verifies the database connection is alive
func (s *PostgreSQLStore) HealthCheck() error {
	return s.db.Ping()
}

// GetDB returns the raw *sql.DB
func (s *PostgreSQLStore) GetDB() interface{} {
	return s.db
}
