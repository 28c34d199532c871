// Command migrate runs the database schema migration and exits.
package main

import (
	"strconv"

	"github.com/joho/godotenv"

	"github.com/climateview/mapgen/internal/config"
	"github.com/climateview/mapgen/internal/db"
	"github.com/climateview/mapgen/internal/logger"
)

func main() {
	_ = godotenv.Load()
	logger.Initialize()

	port, err := strconv.Atoi(config.GetEnv("DB_PORT", "5432"))
	if err != nil {
		logger.Fatalf("Invalid DB_PORT: %v", err)
	}

	_, err = db.New(db.Options{
		Host:     config.GetEnv("DB_HOST", db.DefaultHost),
		Port:     port,
		User:     config.GetEnv("DB_USER", db.DefaultUser),
		Password: config.GetEnv("DB_PASSWORD", db.DefaultPassword),
		DBName:   config.GetEnv("DB_NAME", db.DefaultDBName),
	})
	if err != nil {
		logger.Fatalf("Migration failed: %v", err)
	}

	logger.Info("Migration complete")
}
