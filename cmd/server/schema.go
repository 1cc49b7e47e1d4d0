package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/studentenschaft/Biddit2-sub002/config"
	"github.com/studentenschaft/Biddit2-sub002/pkg/database"
	applogger "github.com/studentenschaft/Biddit2-sub002/pkg/logger"
)

// migrateCmd 手动维护数据库结构（serve 启动时会自动 up）
func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "数据库结构迁移",
	}

	up := &cobra.Command{
		Use:   "up",
		Short: "应用全部未执行的迁移",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMigrator(cmd, func(m *database.Migrator) error { return m.Up() })
		},
	}

	down := &cobra.Command{
		Use:   "down",
		Short: "回退迁移",
		RunE: func(cmd *cobra.Command, _ []string) error {
			steps, _ := cmd.Flags().GetInt("steps")
			if steps < 1 {
				return fmt.Errorf("--steps 必须大于 0")
			}
			return withMigrator(cmd, func(m *database.Migrator) error { return m.Steps(-steps) })
		},
	}
	down.Flags().Int("steps", 1, "回退的版本数")

	force := &cobra.Command{
		Use:   "force",
		Short: "修复 dirty 状态：强制设置版本号（不执行 SQL）",
		RunE: func(cmd *cobra.Command, _ []string) error {
			version, _ := cmd.Flags().GetInt("version")
			return withMigrator(cmd, func(m *database.Migrator) error { return m.Force(version) })
		},
	}
	force.Flags().Int("version", 0, "目标版本号")
	_ = force.MarkFlagRequired("version")

	version := &cobra.Command{
		Use:   "version",
		Short: "查看当前迁移版本",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMigrator(cmd, func(m *database.Migrator) error {
				v, dirty, err := m.Version()
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "version=%d dirty=%v\n", v, dirty)
				return nil
			})
		},
	}

	cmd.AddCommand(up, down, force, version)
	return cmd
}

// withMigrator 仅建立连接，不自动执行迁移（dirty 状态下 bootstrap 会失败）
func withMigrator(cmd *cobra.Command, fn func(m *database.Migrator) error) error {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return fmt.Errorf("加载配置失败: %w", err)
	}
	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		return fmt.Errorf("初始化日志失败: %w", err)
	}
	defer logger.Sync()

	db, err := database.NewDB(&cfg.Database, cfg.Log.Level, logger)
	if err != nil {
		return fmt.Errorf("数据库连接失败: %w", err)
	}
	defer closeDB(db)

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("获取底层 sql.DB 失败: %w", err)
	}
	m, err := database.NewMigrator(sqlDB, logger)
	if err != nil {
		return err
	}
	return fn(m)
}
