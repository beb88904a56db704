package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/d60-Lab/yatube/internal/server"
)

func newCacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the page cache",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Drop every cached page (redis only; the memory cache lives in the server process)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if !cfg.Redis.Enabled {
				return fmt.Errorf("redis.enabled is false, nothing to clear")
			}
			store, closeStore, err := server.NewPageCache(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer func() { _ = closeStore(cmd.Context()) }()
			if err := store.Clear(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "page cache cleared")
			return nil
		},
	})
	return cmd
}
