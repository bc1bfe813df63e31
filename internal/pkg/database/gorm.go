package database

import (
	"Parley/internal/api/config"
	"Parley/internal/pkg/logger"
	"errors"
	"fmt"
	log "log/slog"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var ErrUnsupportedDriver = errors.New("unsupported database driver")

// Dialector 按驱动名选择方言，sqlite 为本地开发默认
func Dialector(driver, dsn string) (gorm.Dialector, error) {
	switch driver {
	case "mysql":
		return mysql.Open(dsn), nil
	case "postgres":
		return postgres.Open(dsn), nil
	case "sqlite", "":
		return sqlite.Open(dsn), nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedDriver, driver)
}

// NewGormDB 打开连接并配置连接池
func NewGormDB(cfg *config.DBConfig) (*gorm.DB, error) {
	dialector, err := Dialector(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:      logger.NewGormLogger(),
		PrepareStmt: cfg.Driver != "sqlite" && cfg.Driver != "",
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", dialector.Name(), err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get underlying DB: %w", err)
	}
	maxOpen := cfg.MaxOpen
	if dialector.Name() == "sqlite" {
		// sqlite 单写者
		maxOpen = 1
	}
	idle := cfg.MaxIdle
	if maxOpen > 0 && idle > maxOpen {
		idle = maxOpen
	}
	sqlDB.SetMaxOpenConns(maxOpen)
	sqlDB.SetMaxIdleConns(idle)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.MaxLifetime) * time.Minute)

	if err = sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping %s: %w", dialector.Name(), err)
	}

	log.Info("Database connected", "driver", dialector.Name(), "max_open", maxOpen)
	return db, nil
}
