package commands

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/cobra"

	"github.com/skillcred/skillcred/internal/apiclient"
)

const maxPictureBytes = 5 << 20

// NewProfileCmd creates the profile command group
func NewProfileCmd(g *Globals, opts ...Option) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Manage your applicant profile",
	}

	cmd.AddCommand(newProfileCompleteCmd(g, opts...))
	return cmd
}

func newProfileCompleteCmd(g *Globals, opts ...Option) *cobra.Command {
	var form apiclient.ProfileForm
	var picture string

	cmd := &cobra.Command{
		Use:   "complete",
		Short: "Fill in your applicant profile",
		Example: `  skillcred profile complete --first-name Krishna --last-name Sharma \
    --city Pune --country India --picture ./me.png`,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := newRuntime(g, opts...)
			if err != nil {
				return err
			}
			return runProfileComplete(cmd.Context(), r, form, picture)
		},
	}

	cmd.Flags().StringVar(&form.FirstName, "first-name", "", "First name (required)")
	cmd.Flags().StringVar(&form.LastName, "last-name", "", "Last name (required)")
	cmd.Flags().StringVar(&form.Bio, "bio", "", "Short bio")
	cmd.Flags().StringVar(&form.LinkedInURL, "linkedin", "", "LinkedIn profile URL")
	cmd.Flags().StringVar(&form.College, "college", "", "College")
	cmd.Flags().StringVar(&form.City, "city", "", "City")
	cmd.Flags().StringVar(&form.Country, "country", "", "Country")
	cmd.Flags().StringVar(&picture, "picture", "", "Path to a profile picture")

	return cmd
}

func runProfileComplete(ctx context.Context, r *runtime, form apiclient.ProfileForm, picture string) error {
	form.Trim()
	if err := apiclient.ValidateProfile(validator.New(), form); err != nil {
		return fmt.Errorf("invalid profile: %s", apiclient.ValidationMessage(err))
	}

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	sess := r.session()
	s, err := sess.Verify(ctx)
	if err != nil {
		return fmt.Errorf("not logged in, run 'skillcred login' first: %w", err)
	}

	if picture != "" {
		upload, closeFn, err := openPicture(picture)
		if err != nil {
			return err
		}
		defer closeFn()
		form.Picture = upload
	}

	resp, err := r.client.WithTokenSource(sess).CompleteProfile(ctx, form)
	if err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}

	message := "Profile saved!"
	if m, ok := resp["message"].(string); ok && m != "" {
		message = m
	}
	r.success("%s", message)
	r.hint("View it at %s", r.webLink("/applicant/"+s.UserID))
	return nil
}

func openPicture(path string) (*apiclient.FileUpload, func(), error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read picture: %w", err)
	}
	if info.IsDir() {
		return nil, nil, fmt.Errorf("picture %s is a directory", path)
	}
	if info.Size() > maxPictureBytes {
		return nil, nil, fmt.Errorf("profile picture must be at most 5 MB")
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open picture: %w", err)
	}

	upload := &apiclient.FileUpload{
		Filename:    filepath.Base(path),
		ContentType: mime.TypeByExtension(filepath.Ext(path)),
		Content:     f,
	}
	return upload, func() { f.Close() }, nil
}
