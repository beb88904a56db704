package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/d60-Lab/yatube/config"
	"github.com/d60-Lab/yatube/pkg/database"
	"github.com/d60-Lab/yatube/pkg/logger"
)

var configDir string

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "yatube",
		Short:         "Yatube blogging platform",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configDir, "config", "./config", "directory containing config.yaml")

	root.AddCommand(
		newServeCommand(),
		newMigrateCommand(),
		newGroupCommand(),
		newSeedCommand(),
		newCacheCommand(),
		newSessionsCommand(),
		newBenchCommand(),
	)
	return root
}

func main() {
	if err := newRootCommand().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// loadConfig 读取配置并初始化全局 logger
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadFrom(configDir)
	if err != nil {
		return nil, err
	}
	if err := logger.Init(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format}); err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	return cfg, nil
}

// openDB 打开数据库并迁移，返回的 close 需要 defer
func openDB(cfg *config.Config) (*gorm.DB, func(), error) {
	db, err := database.InitDB(cfg)
	if err != nil {
		return nil, nil, err
	}
	if err := database.Migrate(db); err != nil {
		_ = database.Close(db)
		return nil, nil, err
	}
	return db, func() { _ = database.Close(db) }, nil
}
