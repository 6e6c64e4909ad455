package database

import (
	"context"
	"database/sql"
	"fmt"

	"bouquet-recommender/internal/infrastructure/config"

	_ "github.com/lib/pq"
)

// PostgresClient 包裝花卉目錄的資料庫連線
type PostgresClient struct {
	DB *sql.DB
}

// NewPostgres 建立 PostgreSQL 連線池
func NewPostgres(cfg config.DatabaseConfig) (*PostgresClient, error) {
	db, err := sql.Open("postgres", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxConnections)
	db.SetMaxIdleConns(cfg.MaxIdle)
	db.SetConnMaxLifetime(cfg.ConnMaxLife)
	db.SetConnMaxIdleTime(cfg.ConnMaxLife)

	return &PostgresClient{DB: db}, nil
}

// NewFromDB 以既有的 *sql.DB 建立客戶端（測試用 sqlmock）
func NewFromDB(db *sql.DB) *PostgresClient {
	return &PostgresClient{DB: db}
}

// Ping 測試資料庫連線
func (c *PostgresClient) Ping(ctx context.Context) error {
	return c.DB.PingContext(ctx)
}

// Close 關閉資料庫連線
func (c *PostgresClient) Close() error {
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}

// Query 執行返回多行的查詢
func (c *PostgresClient) Query(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	return c.DB.QueryContext(ctx, query, args...)
}

// QueryRow 執行最多返回一行的查詢
func (c *PostgresClient) QueryRow(ctx context.Context, query string, args ...interface{}) *sql.Row {
	return c.DB.QueryRowContext(ctx, query, args...)
}
