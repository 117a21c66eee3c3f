package database

import (
	"fmt"

	"sneaker-catalog/pkg/config"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func PostgresDSN(cfg config.DatabaseConfig) string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s TimeZone=UTC",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DbName, cfg.SSLMode)
}

func postgresDialector(cfg config.DatabaseConfig) gorm.Dialector {
	return postgres.Open(PostgresDSN(cfg))
}
