package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/studentenschaft/Biddit2-sub002/config"
	"github.com/studentenschaft/Biddit2-sub002/pkg/database"
	applogger "github.com/studentenschaft/Biddit2-sub002/pkg/logger"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "biddit",
		Short:        "Biddit 选课同步服务",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringP("config", "c", "", "配置文件路径（默认查找 ./config/config.yaml）")

	serve := serveCmd()
	root.AddCommand(serve, migrateCmd(), migrateLegacyCmd())

	// 不带子命令时默认启动服务
	root.RunE = serve.RunE

	return root
}

// bootstrap 加载配置、初始化日志并连接数据库（含迁移）
func bootstrap(cmd *cobra.Command) (*config.Config, *zap.Logger, *gorm.DB, error) {
	path, _ := cmd.Flags().GetString("config")

	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("加载配置失败: %w", err)
	}

	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("初始化日志失败: %w", err)
	}

	db, err := database.NewDB(&cfg.Database, cfg.Log.Level, logger)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("数据库连接失败: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("获取底层 sql.DB 失败: %w", err)
	}
	if err := database.RunMigrations(sqlDB, logger); err != nil {
		return nil, nil, nil, fmt.Errorf("数据库迁移失败: %w", err)
	}

	return cfg, logger, db, nil
}

func closeDB(db *gorm.DB) {
	if sqlDB, _ := db.DB(); sqlDB != nil {
		sqlDB.Close()
	}
}
