package database

import (
	"fmt"
	"log"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"inspection-portal/internal/config"
	"inspection-portal/internal/models"
)

type GormDB struct {
	db *gorm.DB
}

// Open connects to the database selected by cfg.Type. Connection settings fall
// back to DB_* environment variables and then to development defaults.
func Open(cfg config.DatabaseConfig, logLevel string) (*GormDB, error) {
	dialector, err := dialectorFor(cfg)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(parseLogLevel(logLevel)),
		TranslateError: true,
		NowFunc: func() time.Time {
			return time.Now().Local()
		},
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	if err := sqlDB.Ping(); err != nil {
		return nil, err
	}

	if cfg.Type == "sqlite" {
		// SQLite allows a single writer
		sqlDB.SetMaxOpenConns(1)
	}

	return &GormDB{db: db}, nil
}

func dialectorFor(cfg config.DatabaseConfig) (gorm.Dialector, error) {
	switch cfg.Type {
	case "", "mysql":
		c := cfg.MySQL
		dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
			config.GetEnvOrConfig(c.User, "DB_USER", "inspection_user"),
			config.GetEnvOrConfig(c.Password, "DB_PASSWORD", "inspection_pass"),
			config.GetEnvOrConfig(c.Host, "DB_HOST", "mysql"),
			config.GetEnvOrConfig(portString(c.Port), "DB_PORT", "3306"),
			config.GetEnvOrConfig(c.Database, "DB_NAME", "inspection_db"),
		)
		return mysql.Open(dsn), nil
	case "postgres":
		return postgres.Open(PostgresDSN(cfg.Postgres)), nil
	case "sqlite":
		return sqlite.Open(config.GetEnvOrConfig(cfg.SQLite.Path, "DB_PATH", "inspection.db")), nil
	default:
		return nil, fmt.Errorf("unsupported database type %q", cfg.Type)
	}
}

// PostgresDSN builds a keyword/value connection string
func PostgresDSN(c config.PostgresConfig) string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		config.GetEnvOrConfig(c.Host, "DB_HOST", "db"),
		config.GetEnvOrConfig(portString(c.Port), "DB_PORT", "5432"),
		config.GetEnvOrConfig(c.User, "DB_USER", "inspection_user"),
		config.GetEnvOrConfig(c.Password, "DB_PASSWORD", "inspection_pass"),
		config.GetEnvOrConfig(c.Database, "DB_NAME", "inspection_db"),
		config.GetEnvOrConfig(c.SSLMode, "DB_SSLMODE", "disable"),
	)
}

func portString(port int) string {
	if port > 0 {
		return fmt.Sprintf("%d", port)
	}
	return ""
}

func parseLogLevel(level string) logger.LogLevel {
	switch level {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info":
		return logger.Info
	default:
		return logger.Warn
	}
}

// NewGormDBFromDB creates a GormDB wrapper from an existing gorm.DB instance
func NewGormDBFromDB(db *gorm.DB) *GormDB {
	return &GormDB{db: db}
}

// DB returns the underlying gorm.DB instance
func (gdb *GormDB) DB() *gorm.DB {
	return gdb.db
}

func (gdb *GormDB) Close() error {
	sqlDB, err := gdb.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// InitSchema creates tables using GORM AutoMigrate
func (gdb *GormDB) InitSchema() error {
	if err := gdb.db.AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	log.Printf("[Database] schema migrated tables=%d", len(models.All()))
	return nil
}

// Store returns the repository set backed by this connection
func (gdb *GormDB) Store() *GormStore {
	return NewGormStore(gdb.db)
}
