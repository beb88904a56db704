package main

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/d60-Lab/yatube/internal/forms"
	"github.com/d60-Lab/yatube/internal/repository"
	"github.com/d60-Lab/yatube/internal/service"
)

// 分组只能由管理员通过 CLI 创建
func newGroupCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "group",
		Short: "Manage post groups",
	}
	cmd.AddCommand(newGroupCreateCommand(), newGroupListCommand())
	return cmd
}

func newGroupCreateCommand() *cobra.Command {
	var form forms.GroupForm
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a group",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			db, closeDB, err := openDB(cfg)
			if err != nil {
				return err
			}
			defer closeDB()

			g, errs, err := service.NewGroupService(repository.NewGroupRepository(db)).Create(cmd.Context(), form)
			if err != nil {
				return err
			}
			if errs.Any() {
				return formError(errs)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created group %d %s\n", g.ID, g.Slug)
			return nil
		},
	}
	cmd.Flags().StringVar(&form.Title, "title", "", "group title")
	cmd.Flags().StringVar(&form.Slug, "slug", "", "unique url slug")
	cmd.Flags().StringVar(&form.Description, "description", "", "group description")
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("slug")
	return cmd
}

func newGroupListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List groups",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			db, closeDB, err := openDB(cfg)
			if err != nil {
				return err
			}
			defer closeDB()

			groups, err := service.NewGroupService(repository.NewGroupRepository(db)).List(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, g := range groups {
				fmt.Fprintf(out, "%d\t%s\t%s\n", g.ID, g.Slug, g.Title)
			}
			return nil
		},
	}
}

func formError(errs forms.Errors) error {
	fields := make([]string, 0, len(errs))
	for f := range errs {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	msgs := make([]string, 0, len(fields))
	for _, f := range fields {
		msgs = append(msgs, f+": "+errs[f])
	}
	return errors.New(strings.Join(msgs, "; "))
}
