package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/unicover/unicover-lms/internal/client"
)

func newCoursesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "courses",
		Short: "Browse courses",
	}
	list := &cobra.Command{
		Use:   "list",
		Short: "List courses",
		RunE: func(cmd *cobra.Command, args []string) error {
			status, _ := cmd.Flags().GetString("status")
			lang, _ := cmd.Flags().GetString("lang")
			cs, err := newClient(cmd).ListCourses(cmd.Context(), client.CourseFilter{Status: status, Language: lang})
			if err != nil {
				return fmt.Errorf("list courses: %w", err)
			}
			out := cmd.OutOrStdout()
			if len(cs) == 0 {
				fmt.Fprintln(out, "No courses found.")
				return nil
			}
			fmt.Fprintf(out, "%-6s  %-4s  %-14s  %-8s  %s\n", "ID", "Lang", "Status", "Format", "Title")
			fmt.Fprintln(out, strings.Repeat("─", 60))
			for _, c := range cs {
				fmt.Fprintf(out, "%-6d  %-4s  %-14s  %-8s  %s\n", c.ID, c.Language, c.Status, c.Format, c.Title)
			}
			return nil
		},
	}
	list.Flags().String("status", "", "Filter by status (in_development, draft, published)")
	list.Flags().String("lang", "", "Filter by language (ru, kz, en)")
	cmd.AddCommand(list)
	return cmd
}
