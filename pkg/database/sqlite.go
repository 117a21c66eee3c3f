package database

import (
	"sneaker-catalog/pkg/config"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

// sqlite 用于本地开发和测试, dbname 为文件路径或 :memory:
func sqliteDialector(cfg config.DatabaseConfig) gorm.Dialector {
	return sqlite.Open(cfg.DbName)
}
