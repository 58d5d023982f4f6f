// Package app implements the main application commands.
package app

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "backoffice-api",
	Short: "backoffice-api is the identity and authorization backend",
	Long: `backoffice-api is the identity and authorization backend of the
platform. It manages users, sessions, services, permissions and
permission groups, and issues signed access tokens carrying the
encoded permission set of a user for one service.`,
	Args: cobra.OnlyValidArgs,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
