package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/studentenschaft/Biddit2-sub002/internal/repository"
	"github.com/studentenschaft/Biddit2-sub002/internal/service"
)

func migrateLegacyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate-legacy",
		Short: "导入旧版本地存储导出的选课数据",
		RunE:  runMigrateLegacy,
	}
	f := cmd.Flags()
	f.String("file", "", "旧版选课 JSON 文件路径（- 表示标准输入）")
	f.String("user", "", "目标用户（身份提供方用户 ID 或内部 UUID）")

	_ = cmd.MarkFlagRequired("file")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}

func runMigrateLegacy(cmd *cobra.Command, _ []string) error {
	_, logger, db, err := bootstrap(cmd)
	if err != nil {
		return err
	}
	defer logger.Sync()
	defer closeDB(db)

	file, _ := cmd.Flags().GetString("file")
	user, _ := cmd.Flags().GetString("user")

	in := os.Stdin
	if file != "-" {
		f, err := os.Open(file)
		if err != nil {
			return fmt.Errorf("打开文件失败: %w", err)
		}
		defer f.Close()
		in = f
	}

	repo := repository.NewRepository(db)
	migration := service.NewMigrationService(repo, logger)

	report, err := migration.MigrateLegacySelections(cmd.Context(), user, in)
	if err != nil {
		logger.Error("旧版选课迁移失败", zap.String("user", user), zap.Error(err))
		return err
	}

	logger.Info("旧版选课迁移完成",
		zap.String("user_id", report.UserID),
		zap.Int("inserted", len(report.Inserted)),
		zap.Int("skipped", len(report.Skipped)),
		zap.Int("invalid", len(report.Invalid)),
	)

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}
