package db

import (
	"fmt"

	"github.com/kasuganosora/vaultctl/config"
	dbmysql "github.com/kasuganosora/vaultctl/db/mysql"
	dbsqlite "github.com/kasuganosora/vaultctl/db/sqlite"
	"gorm.io/gorm"
)

const (
	ModeMemory = "memory" // throwaway sqlite database, used by tests and --no-db runs
	ModeSQLite = "sqlite"
	ModeMySQL  = "mysql"
)

// Open returns a *gorm.DB for the configured database mode.
func Open(cfg config.DatabaseConfig) (*gorm.DB, error) {
	switch cfg.Mode {
	case ModeMemory:
		return dbsqlite.OpenMemory()
	case ModeSQLite:
		return dbsqlite.Open(cfg.SQLitePath)
	case ModeMySQL:
		if cfg.MySQLDSN == "" {
			return nil, fmt.Errorf("db: mysql mode requires database.mysql_dsn")
		}
		return dbmysql.Open(cfg.MySQLDSN, cfg.MySQLMaxOpen, cfg.MySQLMaxIdle, cfg.MySQLMaxLife)
	default:
		return nil, fmt.Errorf("db: unknown mode %q", cfg.Mode)
	}
}
