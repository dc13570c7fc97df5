package main

import (
	"fmt"
	"strconv"

	"testdesk/internal/report"

	"github.com/spf13/cobra"
)

func newProjectsCmd() *cobra.Command {
	var create string

	cmd := &cobra.Command{
		Use:   "projects",
		Short: "List projects, or create one with --create",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := openContainer(cmd.Context(), nil)
			if err != nil {
				return err
			}
			defer c.Shutdown(cmd.Context())

			if cmd.Flags().Changed("create") {
				project, created, err := c.CatalogService.CreateProject(cmd.Context(), create)
				if err != nil {
					return err
				}
				if created {
					fmt.Fprintf(cmd.OutOrStdout(), "Created project #%d %s\n", project.ID, project.Name)
				} else {
					fmt.Fprintf(cmd.OutOrStdout(), "Project #%d %s already exists\n", project.ID, project.Name)
				}
				return nil
			}

			projects, err := c.CatalogService.ListProjects(cmd.Context())
			if err != nil {
				return err
			}
			rows := make([][]string, len(projects))
			for i, p := range projects {
				rows[i] = []string{strconv.FormatInt(p.ID, 10), p.Name, p.Remarks}
			}
			return report.WriteTable(cmd.OutOrStdout(), []string{"ID", "プロジェクト", "備考"}, rows)
		},
	}

	cmd.Flags().StringVar(&create, "create", "", "Create a project with this name")
	return cmd
}

func newScenariosCmd() *cobra.Command {
	var projectID int64

	cmd := &cobra.Command{
		Use:   "scenarios",
		Short: "List the imported test items of a project",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := openContainer(cmd.Context(), nil)
			if err != nil {
				return err
			}
			defer c.Shutdown(cmd.Context())

			scenarioRows, err := c.CatalogService.ListScenarioRows(cmd.Context(), projectID)
			if err != nil {
				return err
			}
			rows := make([][]string, len(scenarioRows))
			for i, r := range scenarioRows {
				rows[i] = []string{strconv.FormatInt(r.ItemID, 10), r.ScreenName, r.ScenarioName, r.ItemName, r.Priority, r.Tester, r.Result}
			}
			return report.WriteTable(cmd.OutOrStdout(),
				[]string{"ID", "画面", "シナリオ", "項目", "優先度", "担当者", "結果"}, rows)
		},
	}

	cmd.Flags().Int64Var(&projectID, "project-id", 0, "Project to list")
	_ = cmd.MarkFlagRequired("project-id")
	return cmd
}

func newHistoryCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent import runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := openContainer(cmd.Context(), nil)
			if err != nil {
				return err
			}
			defer c.Shutdown(cmd.Context())

			runs, err := c.CatalogService.ImportHistory(cmd.Context(), limit)
			if err != nil {
				return err
			}
			rows := make([][]string, len(runs))
			for i, r := range runs {
				rows[i] = []string{
					r.StartedAt.Local().Format("2006-01-02 15:04:05"),
					r.FileName,
					strconv.FormatInt(r.ProjectID, 10),
					strconv.Itoa(r.Created),
					strconv.Itoa(r.Overwritten),
					strconv.Itoa(r.Kept),
					strconv.Itoa(r.Failed),
					r.Error,
				}
			}
			return report.WriteTable(cmd.OutOrStdout(),
				[]string{"開始", "ファイル", "プロジェクト", "新規", "上書き", "維持", "失敗", "エラー"}, rows)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Number of runs to show")
	return cmd
}
