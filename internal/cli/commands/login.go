package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/skillcred/skillcred/internal/oauthflow"
	"github.com/skillcred/skillcred/internal/session"
)

const (
	msgLoginSuccess  = "Login successful!"
	msgSignupSuccess = "Signup successful!"
)

// NewLoginCmd creates the login command
func NewLoginCmd(g *Globals, opts ...Option) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in to SkillCred with email and password",
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := newRuntime(g, opts...)
			if err != nil {
				return err
			}
			return runLogin(cmd.Context(), r, email, password)
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Email address (or set "+envEmail+")")
	cmd.Flags().StringVar(&password, "password", "", "Password (or set "+envPassword+", will prompt if not provided)")

	return cmd
}

func runLogin(ctx context.Context, r *runtime, email, password string) error {
	email, password, err := resolveCredentials(r.out, email, password)
	if err != nil {
		return err
	}

	r.hint("Logging in to %s...", r.client.BaseURL())

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	resp, err := r.client.Login(ctx, email, password)
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	id := session.Identity{Email: resp.Email, UserID: resp.UserID}
	if id.Email == "" {
		id.Email = email
	}
	if err := r.session().Login(id, resp.AuthToken); err != nil {
		return fmt.Errorf("failed to save authentication token: %w", err)
	}

	r.success(msgLoginSuccess)
	printIdentity(r, id)
	return nil
}

// NewSignupCmd creates the signup command
func NewSignupCmd(g *Globals, opts ...Option) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:     "signup",
		Aliases: []string{"get-started"},
		Short:   "Create a SkillCred account",
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := newRuntime(g, opts...)
			if err != nil {
				return err
			}
			return runSignup(cmd.Context(), r, email, password)
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Email address (or set "+envEmail+")")
	cmd.Flags().StringVar(&password, "password", "", "Password (or set "+envPassword+", will prompt if not provided)")

	return cmd
}

func runSignup(ctx context.Context, r *runtime, email, password string) error {
	email, password, err := resolveCredentials(r.out, email, password)
	if err != nil {
		return err
	}

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	resp, err := r.client.Signup(ctx, email, password)
	if err != nil {
		return fmt.Errorf("signup failed: %w", err)
	}

	user := resp.User()
	id := session.Identity{Email: user.Email, UserID: user.UserID}
	if id.Email == "" {
		id.Email = email
	}
	if err := r.session().Login(id, resp.AuthToken); err != nil {
		return fmt.Errorf("failed to save authentication token: %w", err)
	}

	message := resp.Message
	if message == "" {
		message = msgSignupSuccess
	}
	r.success("%s", message)
	printIdentity(r, id)
	return nil
}

func printIdentity(r *runtime, id session.Identity) {
	if id.UserID != "" {
		r.info("  User: %s (%s)", id.Email, id.UserID)
	} else {
		r.info("  User: %s", id.Email)
	}
	r.hint("Continue at %s", r.webLink(oauthflow.Destination(id.UserID)))
}
