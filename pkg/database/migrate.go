package database

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const (
	// migrationsTable 独立的版本表，与同库其他服务的迁移互不干扰
	migrationsTable = "ditton_schema_migrations"
	// migrationStatementTimeout 单条迁移语句超时（建索引前须等待长事务结束）
	migrationStatementTimeout = 2 * time.Minute
)

// ErrDirtyMigration 上次迁移中途失败，需人工修复后 force 版本
var ErrDirtyMigration = errors.New("数据库迁移处于 dirty 状态")

// RunMigrations 应用所有未执行的迁移
// dirty 状态下拒绝启动，避免在半完成的 schema 上继续运行
func RunMigrations(db *sql.DB, logger *zap.Logger) error {
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("加载迁移文件失败: %w", err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{
		MigrationsTable:  migrationsTable,
		StatementTimeout: migrationStatementTimeout,
	})
	if err != nil {
		return fmt.Errorf("创建迁移驱动失败: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return fmt.Errorf("初始化迁移实例失败: %w", err)
	}

	from, dirty, err := currentVersion(m)
	if err != nil {
		return err
	}
	if dirty {
		return fmt.Errorf("%w: version %d", ErrDirtyMigration, from)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("执行迁移失败: %w", err)
	}

	to, _, err := currentVersion(m)
	if err != nil {
		return err
	}
	if to == from {
		logger.Info("数据库 schema 已是最新", zap.Uint("version", to))
	} else {
		logger.Info("数据库迁移完成", zap.Uint("from", from), zap.Uint("to", to))
	}
	return nil
}

// currentVersion 空库返回 0
func currentVersion(m *migrate.Migrate) (uint, bool, error) {
	v, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("读取迁移版本失败: %w", err)
	}
	return v, dirty, nil
}
