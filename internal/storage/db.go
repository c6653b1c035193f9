package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cspnonce/internal/core"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
)

// Параметры пула подключений.
const (
	maxOpenConns    = 25
	maxIdleConns    = 25
	connMaxLifetime = 5 * time.Minute
	connectTimeout  = 5 * time.Second
)

// NewDB открывает пул MySQL по DSN, проверяет подключение и применяет миграции.
func NewDB(ctx context.Context, dsn string) (*sqlx.DB, error) {
	cfg, err := normalizeDSN(dsn)
	if err != nil {
		return nil, err
	}

	db, err := sqlx.ConnectContext(ctx, "mysql", cfg.FormatDSN())
	if err != nil {
		core.LogError("ошибка подключения к MySQL", map[string]interface{}{
			"error": err.Error(),
			"dsn":   sanitizedDSN(cfg),
		})
		return nil, fmt.Errorf("storage: подключение к MySQL: %w", err)
	}

	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)
	db.SetConnMaxLifetime(connMaxLifetime)

	if err := Migrate(ctx, db); err != nil {
		if cerr := db.Close(); cerr != nil {
			core.LogError("ошибка закрытия MySQL пула после неуспешной миграции", map[string]interface{}{
				"error": cerr.Error(),
			})
		}
		return nil, err
	}

	core.LogInfo("MySQL подключение успешно", map[string]interface{}{
		"addr":     cfg.Addr,
		"database": cfg.DBName,
		"max_open": maxOpenConns,
		"max_idle": maxIdleConns,
	})
	return db, nil
}

// Close закрывает пул при graceful shutdown.
func Close(db *sqlx.DB) error {
	if db == nil {
		return nil
	}
	if err := db.Close(); err != nil {
		core.LogError("ошибка закрытия MySQL пула", map[string]interface{}{
			"error": err.Error(),
		})
		return err
	}
	core.LogInfo("MySQL пул закрыт", nil)
	return nil
}

// normalizeDSN разбирает DSN и дополняет его безопасными значениями по умолчанию.
// Явно заданные в DSN таймауты не перезаписываются.
func normalizeDSN(dsn string) (*mysql.Config, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("storage: неверный DB_DSN: %w", err)
	}
	cfg.ParseTime = true
	cfg.InterpolateParams = true
	cfg.MultiStatements = false
	if cfg.Timeout == 0 {
		cfg.Timeout = connectTimeout
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = 5 * time.Second
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = 10 * time.Second
	}
	if !strings.Contains(dsn, "charset=") {
		if err := cfg.Apply(mysql.Charset("utf8mb4", "")); err != nil {
			return nil, fmt.Errorf("storage: charset: %w", err)
		}
	}
	return cfg, nil
}

// sanitizedDSN — DSN без пароля, для логов (OWASP A09).
func sanitizedDSN(cfg *mysql.Config) string {
	c := cfg.Clone()
	if c.Passwd != "" {
		c.Passwd = "***"
	}
	return c.FormatDSN()
}
