package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog"
	"storyhub/internal/config"
	"storyhub/internal/database/migrations"
)

type MethodsDB interface {
	CloseDB() error
	RunMigrations(ctx context.Context) error
	HealthCheck(ctx context.Context) error
}

type DB struct {
	*sqlx.DB
	log zerolog.Logger
}

// gooseUp is replaced in tests.
var gooseUp = func(ctx context.Context, db *sql.DB, dir string) error {
	return goose.UpContext(ctx, db, dir)
}

func DSN(cfg config.DB) string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.DbHOST,
		cfg.DbPORT,
		cfg.DbUSER,
		cfg.DbPASSWORD,
		cfg.DbNAME,
		cfg.DbSSLMODE,
	)
}

func ConnectDB(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*DB, error) {
	log.Info().Str("host", cfg.DB.DbHOST).Str("dbname", cfg.DB.DbNAME).Msg("Подключаемся к БД")

	db, err := sqlx.ConnectContext(ctx, "postgres", DSN(cfg.DB))
	if err != nil {
		return nil, fmt.Errorf("не удалось подключиться к БД: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	dbStruct := &DB{DB: db, log: log}

	if err := dbStruct.RunMigrations(ctx); err != nil {
		db.Close()
		return nil, err
	}

	if err := dbStruct.HealthCheck(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("проверка БД не пройдена: %w", err)
	}

	log.Info().Msg("Успешное подключение к PostgreSQL")
	return dbStruct, nil
}

func (db *DB) CloseDB() error {
	return db.DB.Close()
}

// RunMigrations applies the embedded goose migrations.
func (db *DB) RunMigrations(ctx context.Context) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("ошибка настройки миграций: %w", err)
	}

	db.log.Info().Msg("Применяем миграции")

	if err := gooseUp(ctx, db.DB.DB, "."); err != nil {
		return fmt.Errorf("ошибка при выполнении миграций: %w", err)
	}

	db.log.Info().Msg("Миграции успешно применены")
	return nil
}

func (db *DB) HealthCheck(ctx context.Context) error {
	if db == nil || db.DB == nil {
		return fmt.Errorf("подключение к БД не инициализировано")
	}

	return db.PingContext(ctx)
}
