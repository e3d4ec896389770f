package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/skillcred/skillcred/internal/cli/commands"
	"github.com/skillcred/skillcred/internal/logger"
)

var version = "dev" // Will be set during build

// NewRootCmd builds the command tree. opts are passed to every subcommand.
func NewRootCmd(opts ...commands.Option) *cobra.Command {
	g := &commands.Globals{}
	var verbose bool

	rootCmd := &cobra.Command{
		Use:   "skillcred",
		Short: "SkillCred - applicant profiles from the terminal",
		Long: `SkillCred CLI - Sign in, link GitHub and complete your applicant profile.

The CLI talks to the same backend as the SkillCred web app and keeps your
session token in the system keyring.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose {
				logger.Init("debug", "console")
			}
		},
	}

	rootCmd.PersistentFlags().StringVar(&g.BackendURL, "backend", "", "Backend URL (or set SKILLCRED_BACKEND_URL)")
	rootCmd.PersistentFlags().StringVar(&g.WebURL, "web", "", "Web app URL used in printed links (or set SKILLCRED_WEB_URL)")
	rootCmd.PersistentFlags().BoolVar(&g.Dark, "dark", false, "Use the dark color palette")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log debug output")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "skillcred version %s\n", version)
		},
	})

	rootCmd.AddCommand(commands.NewSignupCmd(g, opts...))
	rootCmd.AddCommand(commands.NewLoginCmd(g, opts...))
	rootCmd.AddCommand(commands.NewLogoutCmd(g, opts...))
	rootCmd.AddCommand(commands.NewWhoamiCmd(g, opts...))
	rootCmd.AddCommand(commands.NewGitHubCmd(g, opts...))
	rootCmd.AddCommand(commands.NewProfileCmd(g, opts...))
	rootCmd.AddCommand(commands.NewOpenCmd(g, opts...))
	rootCmd.AddCommand(commands.NewConfigCmd(g, opts...))

	return rootCmd
}

// Execute runs the root command
func Execute() error {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}
