package cli

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/unicover/unicover-lms/internal/client"
)

func newTestsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tests",
		Short: "Manage tests and their questions",
	}
	cmd.AddCommand(newTestsListCmd(), newTestsPullCmd(), newTestsPushCmd(), newTestsDeleteCmd())
	return cmd
}

func newTestsListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tests",
		RunE: func(cmd *cobra.Command, args []string) error {
			lang, _ := cmd.Flags().GetString("lang")
			search, _ := cmd.Flags().GetString("search")
			ts, err := newClient(cmd).ListTests(cmd.Context(), client.TestFilter{Language: lang, Search: search, PageSize: 200})
			if err != nil {
				return fmt.Errorf("list tests: %w", err)
			}
			out := cmd.OutOrStdout()
			if len(ts) == 0 {
				fmt.Fprintln(out, "No tests found.")
				return nil
			}
			fmt.Fprintf(out, "%-6s  %-4s  %-9s  %-6s  %s\n", "ID", "Lang", "Questions", "Active", "Title")
			fmt.Fprintln(out, strings.Repeat("─", 60))
			for _, t := range ts {
				fmt.Fprintf(out, "%-6d  %-4s  %-9d  %-6v  %s\n", t.ID, t.Language, t.QuestionsCount, t.IsActive, t.Title)
			}
			return nil
		},
	}
	cmd.Flags().String("lang", "", "Filter by language (ru, kz, en)")
	cmd.Flags().String("search", "", "Filter by title")
	return cmd
}

func newTestsPullCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pull <id>",
		Short: "Download a test in the editor format as YAML",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			t, err := newClient(cmd).GetTest(cmd.Context(), id)
			if err != nil {
				return fmt.Errorf("get test %d: %w", id, err)
			}
			path, _ := cmd.Flags().GetString("output")
			if path == "" || path == "-" {
				return writeYAML(cmd.OutOrStdout(), t)
			}
			f, err := os.Create(path)
			if err != nil {
				return err
			}
			if err := writeYAML(f, t); err != nil {
				_ = f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote test %d (%d questions) to %s\n", t.ID, len(t.Questions), path)
			return nil
		},
	}
	cmd.Flags().StringP("output", "o", "", "Write to file instead of stdout")
	return cmd
}

func newTestsPushCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "push",
		Short: "Create or update a test from a YAML file",
		Long: "Create or update a test from a YAML file in the editor format. A file without an id " +
			"creates a new test. Questions with a q- id or no id are created.",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _ := cmd.Flags().GetString("file")
			t, err := readTestFile(path)
			if err != nil {
				return err
			}
			saved, rep, err := newClient(cmd).SaveTest(cmd.Context(), t)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Test %d %q: %s\n", saved.ID, saved.Title, rep)
			for _, f := range rep.Failures {
				fmt.Fprintf(out, "  %v\n", f)
			}
			if !rep.OK() {
				return fmt.Errorf("%d question(s) failed", len(rep.Failures))
			}
			return nil
		},
	}
	cmd.Flags().StringP("file", "f", "", "Test file (YAML)")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func newTestsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a test with its questions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := newClient(cmd).DeleteTest(cmd.Context(), id); err != nil {
				return fmt.Errorf("delete test %d: %w", id, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted test %d\n", id)
			return nil
		},
	}
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid ID %q", s)
	}
	return id, nil
}

func writeYAML(w io.Writer, t client.UITest) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(t); err != nil {
		return err
	}
	return enc.Close()
}

func readTestFile(path string) (client.UITest, error) {
	f, err := os.Open(path)
	if err != nil {
		return client.UITest{}, err
	}
	defer f.Close()
	t := client.NewUITest()
	if err := yaml.NewDecoder(f).Decode(&t); err != nil {
		return client.UITest{}, fmt.Errorf("%s: %w", path, err)
	}
	if strings.TrimSpace(t.Title) == "" {
		return client.UITest{}, fmt.Errorf("%s: title is required", path)
	}
	return t, nil
}
