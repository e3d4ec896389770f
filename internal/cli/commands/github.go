package commands

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/caarlos0/env/v11"
	"github.com/oklog/ulid/v2"
	"github.com/spf13/cobra"

	"github.com/skillcred/skillcred/internal/config"
	"github.com/skillcred/skillcred/internal/logger"
	"github.com/skillcred/skillcred/internal/oauthflow"
)

const callbackPath = "/auth/callback/github"

// NewGitHubCmd creates the github command group
func NewGitHubCmd(g *Globals, opts ...Option) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "github",
		Short: "Sign in with GitHub",
	}

	cmd.AddCommand(newGitHubURLCmd(g, opts...))
	cmd.AddCommand(newGitHubCompleteCmd(g, opts...))
	return cmd
}

func newGitHubURLCmd(g *Globals, opts ...Option) *cobra.Command {
	var open bool

	cmd := &cobra.Command{
		Use:   "url",
		Short: "Print the GitHub authorization URL",
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := newRuntime(g, opts...)
			if err != nil {
				return err
			}
			return runGitHubURL(r, open)
		},
	}

	cmd.Flags().BoolVar(&open, "open", false, "Open the URL in the browser")
	return cmd
}

func runGitHubURL(r *runtime, open bool) error {
	gh, err := env.ParseAs[config.GitHubConfig]()
	if err != nil {
		return fmt.Errorf("failed to read GitHub settings: %w", err)
	}
	if gh.RedirectURL == "" {
		gh.RedirectURL = r.webLink(callbackPath)
	}

	authURL, _, err := oauthflow.AuthURL(gh, ulid.Make().String())
	if err != nil {
		return err
	}

	fmt.Fprintln(r.out, authURL)
	if !open {
		return nil
	}
	if err := r.openURL(authURL); err != nil {
		r.hint("Could not open the browser (%v). Visit the URL above.", err)
	}
	return nil
}

func newGitHubCompleteCmd(g *Globals, opts ...Option) *cobra.Command {
	var countdown int
	var open bool

	cmd := &cobra.Command{
		Use:   "complete <callback-url>",
		Short: "Finish a GitHub sign-in from the URL GitHub redirected to",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := newRuntime(g, opts...)
			if err != nil {
				return err
			}
			return runGitHubComplete(cmd.Context(), r, args[0], countdown, open)
		},
	}

	cmd.Flags().IntVar(&countdown, "countdown", oauthflow.DefaultCountdown, "Seconds to wait before continuing")
	cmd.Flags().BoolVar(&open, "open", true, "Open the next page in the browser")
	return cmd
}

func runGitHubComplete(ctx context.Context, r *runtime, rawURL string, countdown int, open bool) error {
	callback, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid callback URL: %w", err)
	}

	navigated := make(chan string, 1)
	flowOpts := []oauthflow.Option{
		oauthflow.WithCountdown(countdown),
		oauthflow.WithLogger(logger.Component("oauth")),
		oauthflow.WithNavigator(func(dest string) { navigated <- dest }),
	}
	flowOpts = append(flowOpts, r.flowOpts...)

	flow := oauthflow.New(r.client, r.session(), flowOpts...)
	defer flow.Close()

	r.hint(oauthflow.MsgProcessing)
	snap := flow.Start(ctx, callback.Query())
	if snap.State == oauthflow.StateError {
		r.failure("%s", snap.Message)
		return errors.New("GitHub sign-in failed")
	}
	r.success("%s", snap.Message)

	updates, unsubscribe := flow.Subscribe()
	defer unsubscribe()

	last := -1
	for {
		select {
		case s, ok := <-updates:
			if !ok {
				return finishGitHub(r, flow, navigated, open)
			}
			if s.State == oauthflow.StateSuccess && s.Countdown != last {
				last = s.Countdown
				r.hint("Redirecting in %d %s...", s.Countdown, seconds(s.Countdown))
			}
		case <-ctx.Done():
			flow.Close()
			return ctx.Err()
		}
	}
}

func finishGitHub(r *runtime, flow *oauthflow.Flow, navigated <-chan string, open bool) error {
	flow.Close()

	select {
	case dest := <-navigated:
		link := r.webLink(dest)
		r.info("Continue at %s", link)
		if open {
			if err := r.openURL(link); err != nil {
				r.hint("Could not open the browser (%v).", err)
			}
		}
	default:
	}
	return nil
}

func seconds(n int) string {
	if n == 1 {
		return "second"
	}
	return "seconds"
}
