package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"testdesk/app"
	"testdesk/internal/config"
	"testdesk/internal/report"
	"testdesk/models"

	"github.com/spf13/cobra"
)

func newImportCmd() *cobra.Command {
	var (
		projectID   int64
		projectName string
		keep        bool
		perSheet    bool
		format      string
		output      string
	)

	cmd := &cobra.Command{
		Use:   "import <workbook.xlsx>",
		Short: "Import the scenarios of a workbook into a project",
		Long: `Extract every scenario block of the workbook and write it into the
target project. Existing scenarios with the same name are replaced unless
--keep is given.

Example: testdesk import login.xlsx --project-name 販売管理 --format markdown`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := report.ParseFormat(format)
			if err != nil {
				return err
			}
			target := models.ImportTarget{ProjectID: projectID, NewProjectName: projectName}
			if err := target.Validate(); err != nil {
				return fmt.Errorf("choose the target with --project-id or --project-name: %w", err)
			}

			c, err := openContainer(cmd.Context(), func(cfg *config.Config) {
				if perSheet {
					cfg.Import.CommitPerSheet = true
				}
			})
			if err != nil {
				return err
			}
			defer c.Shutdown(cmd.Context())

			path := args[0]
			result, err := c.ImportService.Import(cmd.Context(), app.ImportRequest{
				Path:      path,
				FileName:  filepath.Base(path),
				Target:    target,
				Overwrite: !keep,
			})
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if output != "" {
				file, err := os.Create(output)
				if err != nil {
					return err
				}
				defer file.Close()
				w = file
			}
			if err := report.Render(w, f, filepath.Base(path), result.Outcomes); err != nil {
				return err
			}
			if output != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "Report written to %s\n", output)
			}
			if result.Failed() {
				return fmt.Errorf("import finished with failures (run %s)", result.RunID)
			}
			return nil
		},
	}

	cmd.Flags().Int64Var(&projectID, "project-id", 0, "Import into the existing project with this id")
	cmd.Flags().StringVar(&projectName, "project-name", "", "Import into the project with this name, creating it if needed")
	cmd.Flags().BoolVar(&keep, "keep", false, "Keep existing scenarios instead of overwriting them")
	cmd.Flags().BoolVar(&perSheet, "per-sheet", false, "Commit each sheet separately")
	cmd.Flags().StringVar(&format, "format", string(report.FormatTable), "Report format: table|markdown|html|json")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write the report to a file")
	cmd.MarkFlagsMutuallyExclusive("project-id", "project-name")
	return cmd
}

func newImportCSVCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import-csv <hierarchy.csv>",
		Short: "Create projects, screens and test cases from a project,screen,case CSV",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := openContainer(cmd.Context(), nil)
			if err != nil {
				return err
			}
			defer c.Shutdown(cmd.Context())

			result, err := c.CSVImportService.Import(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d rows read, %d skipped: %d projects, %d screens, %d test cases created\n",
				result.Rows, result.Skipped, result.Projects, result.Screens, result.TestCases)
			return nil
		},
	}
}

func newExtractCmd() *cobra.Command {
	var pretty bool

	cmd := &cobra.Command{
		Use:   "extract <workbook.xlsx>",
		Short: "Print the scenario blocks of a workbook as JSON without importing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := loadContainer(nil)
			if err != nil {
				return err
			}
			sheets, err := c.Extractor.ExtractFile(c.Reader, args[0])
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), sheets, pretty)
		},
	}

	cmd.Flags().BoolVar(&pretty, "pretty", false, "Indent the JSON output")
	return cmd
}

func writeJSON(w io.Writer, v interface{}, pretty bool) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if pretty {
		enc.SetIndent("", strings.Repeat(" ", 2))
	}
	return enc.Encode(v)
}
