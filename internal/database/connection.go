package database

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"sitepulse/internal/config"
	"sitepulse/internal/domain"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

var (
	db *gorm.DB
)

const (
	maxOpenConns    = 25
	maxIdleConns    = 5
	connMaxLifetime = 5 * time.Minute
	connMaxIdleTime = 10 * time.Minute
	pingTimeout     = 5 * time.Second
)

// Init opens the configured database into the package-level handle used by
// the binaries.
func Init() error {
	conn, err := Open(&config.Get().Database)
	if err != nil {
		return err
	}
	db = conn
	return nil
}

// Open connects to the database described by cfg, configures the pool,
// checks the connection and migrates every interaction model.
func Open(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	var dialector gorm.Dialector

	if cfg.IsPostgres() {
		log.Println("[DB] Connecting to PostgreSQL database...")
		dialector = postgres.Open(cfg.GetPostgresDSN())
	} else {
		log.Println("[DB] Connecting to SQLite database...")
		dbPath := cfg.GetSQLitePath()
		sqlDB, err := sql.Open("sqlite", dbPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open SQLite database: %w", err)
		}
		dialector = sqlite.Dialector{
			DriverName: "sqlite",
			DSN:        dbPath,
			Conn:       sqlDB,
		}
	}

	// SQL text may carry visitor data, so GORM never logs queries.
	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	}

	conn, err := gorm.Open(dialector, gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := conn.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	if cfg.IsPostgres() {
		sqlDB.SetMaxOpenConns(maxOpenConns)
		sqlDB.SetMaxIdleConns(maxIdleConns)
		sqlDB.SetConnMaxLifetime(connMaxLifetime)
		sqlDB.SetConnMaxIdleTime(connMaxIdleTime)
		log.Printf("[DB] Connection pool configured: maxOpen=%d, maxIdle=%d", maxOpenConns, maxIdleConns)
	} else {
		// SQLite allows one writer; a single connection serializes access
		// instead of surfacing SQLITE_BUSY to callers.
		sqlDB.SetMaxOpenConns(1)
	}

	if err := ping(sqlDB); err != nil {
		return nil, fmt.Errorf("database connection test failed: %w", err)
	}

	log.Println("[DB] Running database migrations...")
	if err := conn.AutoMigrate(domain.AllModels()...); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	log.Println("[DB] Database connected and migrated successfully")
	return conn, nil
}

func ping(sqlDB *sql.DB) error {
	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("ping failed: %w", err)
	}
	return nil
}

// GetDB returns the database instance
func GetDB() *gorm.DB {
	if db == nil {
		log.Fatal("Database not initialized. Call database.Init() first.")
	}
	return db
}

// HealthCheck pings the given connection
func HealthCheck(conn *gorm.DB) error {
	sqlDB, err := conn.DB()
	if err != nil {
		return err
	}
	return ping(sqlDB)
}

// GetStats returns database connection statistics
func GetStats(conn *gorm.DB) (*sql.DBStats, error) {
	sqlDB, err := conn.DB()
	if err != nil {
		return nil, err
	}
	stats := sqlDB.Stats()
	return &stats, nil
}

// Close releases the underlying connection pool
func Close(conn *gorm.DB) error {
	sqlDB, err := conn.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
