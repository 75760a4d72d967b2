package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// LoadENV loads the environment variables from .env unless GO_ENV says
// the process is running in a managed environment
func LoadENV() error {
	goEnv := os.Getenv("GO_ENV")

	if goEnv == "" || goEnv == "development" {
		err := godotenv.Load()
		if err != nil {
			return err
		}
	}

	return nil
}

type EnviornmentVariable struct {
	// All variables
	GO_ENV       string
	DB_USER_NAME string
	DB_PASSWORD  string
	DB_NAME      string
	DB_HOST      string
	DB_PORT      string
	DB_SSL_MODE  string
	PORT         int
	// JWT Configuration
	JWT_SECRET string
	JWT_ISSUER string
	// Redis Configuration
	REDIS_URL string
	// Object storage for card photos (any S3-compatible endpoint)
	STORAGE_BUCKET     string
	STORAGE_REGION     string
	STORAGE_ENDPOINT   string
	STORAGE_ACCESS_KEY string
	STORAGE_SECRET_KEY string
}

func Get() (*EnviornmentVariable, error) {

	port, err := strconv.Atoi(os.Getenv("PORT"))
	if err != nil {
		port = 8080
	}

	// Database defaults
	dbHost := os.Getenv("DB_HOST")
	if dbHost == "" {
		dbHost = "localhost"
	}

	dbPort := os.Getenv("DB_PORT")
	if dbPort == "" {
		dbPort = "5432"
	}

	envVariables := &EnviornmentVariable{
		GO_ENV:       os.Getenv("GO_ENV"),
		DB_USER_NAME: os.Getenv("DB_USER_NAME"),
		DB_PASSWORD:  os.Getenv("DB_PASSWORD"),
		DB_NAME:      os.Getenv("DB_NAME"),
		DB_HOST:      dbHost,
		DB_PORT:      dbPort,
		DB_SSL_MODE:  os.Getenv("DB_SSL_MODE"),
		PORT:         port,
		// JWT
		JWT_SECRET: os.Getenv("JWT_SECRET"),
		JWT_ISSUER: os.Getenv("JWT_ISSUER"),
		// Redis
		REDIS_URL: os.Getenv("REDIS_URL"),
		// Object storage
		STORAGE_BUCKET:     os.Getenv("STORAGE_BUCKET"),
		STORAGE_REGION:     os.Getenv("STORAGE_REGION"),
		STORAGE_ENDPOINT:   os.Getenv("STORAGE_ENDPOINT"),
		STORAGE_ACCESS_KEY: os.Getenv("STORAGE_ACCESS_KEY"),
		STORAGE_SECRET_KEY: os.Getenv("STORAGE_SECRET_KEY"),
	}

	return envVariables, nil
}
