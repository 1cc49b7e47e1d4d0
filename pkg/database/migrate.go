package database

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// 独立的版本表，避免与同库其他服务冲突
const migrationsTable = "biddit_schema_migrations"

// ErrDirtySchema 上次迁移中途失败，需人工修复后 force 版本
var ErrDirtySchema = errors.New("数据库迁移处于 dirty 状态")

// Migrator 嵌入式 SQL 迁移
type Migrator struct {
	m      *migrate.Migrate
	logger *zap.Logger
}

// NewMigrator 基于已有连接创建迁移器
func NewMigrator(db *sql.DB, logger *zap.Logger) (*Migrator, error) {
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("加载迁移文件失败: %w", err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{MigrationsTable: migrationsTable})
	if err != nil {
		return nil, fmt.Errorf("创建迁移驱动失败: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return nil, fmt.Errorf("初始化迁移实例失败: %w", err)
	}

	return &Migrator{m: m, logger: logger}, nil
}

// Up 应用全部未执行的迁移；dirty 状态下拒绝执行
func (g *Migrator) Up() error {
	if err := g.checkDirty(); err != nil {
		return err
	}
	if err := g.m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("执行迁移失败: %w", err)
	}
	g.logVersion("数据库迁移完成")
	return nil
}

// Steps 前进（n>0）或回退（n<0）n 个版本
func (g *Migrator) Steps(n int) error {
	if n == 0 {
		return nil
	}
	if err := g.checkDirty(); err != nil {
		return err
	}
	if err := g.m.Steps(n); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("迁移 %d 步失败: %w", n, err)
	}
	g.logVersion("数据库迁移完成")
	return nil
}

// Force 将版本表强制设为 version 并清除 dirty 标记（不执行 SQL）
func (g *Migrator) Force(version int) error {
	if err := g.m.Force(version); err != nil {
		return fmt.Errorf("强制设置迁移版本失败: %w", err)
	}
	g.logVersion("迁移版本已强制设置")
	return nil
}

// Version 当前版本；尚未迁移时 version=0
func (g *Migrator) Version() (uint, bool, error) {
	version, dirty, err := g.m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return version, dirty, err
}

func (g *Migrator) checkDirty() error {
	version, dirty, err := g.Version()
	if err != nil {
		return fmt.Errorf("读取迁移版本失败: %w", err)
	}
	if dirty {
		return fmt.Errorf("%w: version=%d", ErrDirtySchema, version)
	}
	return nil
}

func (g *Migrator) logVersion(msg string) {
	version, dirty, err := g.Version()
	if err != nil {
		g.logger.Warn("读取迁移版本失败", zap.Error(err))
		return
	}
	g.logger.Info(msg, zap.Uint("version", version), zap.Bool("dirty", dirty))
}

// RunMigrations 启动时执行全部迁移
func RunMigrations(db *sql.DB, logger *zap.Logger) error {
	m, err := NewMigrator(db, logger)
	if err != nil {
		return err
	}
	return m.Up()
}
