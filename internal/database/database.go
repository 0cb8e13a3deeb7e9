package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/mysqldialect"

	"github.com/lanekit/auth-service/internal/configs"
)

type Database struct {
	DB     *bun.DB
	config *configs.Config
	sqlDB  *sql.DB
}

// Connect opens the MySQL pool and wraps it with bun. The m2m join model
// has to be registered before any query touches the Roles relation.
func Connect(cfg *configs.Config) (*Database, error) {
	sqlDB, err := initDatabase(cfg)
	if err != nil {
		return nil, err
	}

	db := bun.NewDB(sqlDB, mysqldialect.New())
	db.RegisterModel((*UserRole)(nil))

	if cfg.DB.Migrate {
		if err := CreateSchema(context.Background(), db); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("🛠️ Database migration failed: %w", err)
		}
	}

	return &Database{
		DB:     db,
		config: cfg,
		sqlDB:  sqlDB,
	}, nil
}

func (db *Database) Close() error {
	if db.DB == nil {
		return nil
	}

	if err := db.DB.Close(); err != nil {
		return fmt.Errorf("failed to close database connection: %w", err)
	}
	return nil
}

func initDatabase(cfg *configs.Config) (*sql.DB, error) {
	sqlDB, err := sql.Open("mysql", cfg.MySQLDSN())
	if err != nil {
		return nil, fmt.Errorf("❌ Failed to open database connection: %w", err)
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("⚙️ Database ping failed: %w", err)
	}

	return sqlDB, nil
}

func (db *Database) HealthCheck(ctx context.Context) error {
	if db.sqlDB == nil {
		return fmt.Errorf("sql.DB is not initialized")
	}
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
	}
	return db.sqlDB.PingContext(ctx)
}
