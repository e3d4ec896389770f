package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewWhoamiCmd creates the whoami command
func NewWhoamiCmd(g *Globals, opts ...Option) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show who the stored session belongs to",
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := newRuntime(g, opts...)
			if err != nil {
				return err
			}

			ctx, cancel := withTimeout(cmd.Context())
			defer cancel()

			s := r.session().Mount(ctx)
			if !s.IsAuthenticated {
				r.info("Not logged in.")
				r.hint("Run 'skillcred login' or 'skillcred github url' to sign in.")
				return nil
			}

			r.success("Logged in")
			r.info("  Email:   %s", s.Email)
			r.info("  User ID: %s", s.UserID)
			return nil
		},
	}
}

// NewLogoutCmd creates the logout command
func NewLogoutCmd(g *Globals, opts ...Option) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session token",
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := newRuntime(g, opts...)
			if err != nil {
				return err
			}

			if err := r.session().Logout(); err != nil {
				return fmt.Errorf("failed to remove authentication token: %w", err)
			}
			r.success("Logged out")
			return nil
		},
	}
}
