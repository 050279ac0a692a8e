package db

import (
	"fmt"

	"github.com/wome-online/server/config"
	dbmysql "github.com/wome-online/server/db/mysql"
	dbsqlite "github.com/wome-online/server/db/sqlite"
	"gorm.io/gorm"
)

const (
	ModeSQLite = "sqlite"
	ModeMemory = "memory"
	ModeMySQL  = "mysql"
)

// Open returns a *gorm.DB for the configured database mode.
func Open(cfg config.DatabaseConfig) (*gorm.DB, error) {
	switch cfg.Mode {
	case ModeSQLite:
		return dbsqlite.Open(cfg.SQLitePath)
	case ModeMemory:
		return dbsqlite.OpenMemory()
	case ModeMySQL:
		return dbmysql.Open(dbmysql.Config{
			DSN:         cfg.MySQLDSN,
			MaxOpen:     cfg.MySQLMaxOpen,
			MaxIdle:     cfg.MySQLMaxIdle,
			ConnMaxLife: cfg.MySQLMaxLife,
		})
	default:
		return nil, fmt.Errorf("db: unknown mode %q", cfg.Mode)
	}
}
