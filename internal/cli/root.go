// Package cli implements unicoverctl, the admin command line for the test
// bank and course catalog.
package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/unicover/unicover-lms/internal/client"
)

const (
	envServer = "UNICOVER_SERVER"
	envToken  = "UNICOVER_TOKEN"
)

// NewRootCmd builds the command tree. Output goes to cmd.OutOrStdout so
// tests can capture it.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "unicoverctl",
		Short:         "Admin CLI for the Unicover LMS",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().String("server", "", "Backend base URL (overrides "+envServer+")")
	root.PersistentFlags().String("token", "", "Bearer token (overrides "+envToken+")")

	root.AddCommand(newLoginCmd())
	root.AddCommand(newTestsCmd())
	root.AddCommand(newCoursesCmd())
	return root
}

func Execute() error {
	return NewRootCmd().Execute()
}

// newClient resolves --server/--token, falling back to the environment and
// then to a local server.
func newClient(cmd *cobra.Command) *client.Client {
	server, _ := cmd.Flags().GetString("server")
	if server == "" {
		server = os.Getenv(envServer)
	}
	if server == "" {
		server = "http://localhost:8080"
	}
	token, _ := cmd.Flags().GetString("token")
	if token == "" {
		token = os.Getenv(envToken)
	}
	return client.New(server, token)
}
