package commands

import (
	"fmt"
	"os/exec"
	goruntime "runtime"

	"github.com/spf13/cobra"
)

// NewOpenCmd creates the open command
func NewOpenCmd(g *Globals, opts ...Option) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "open [path]",
		Short: "Open the SkillCred web app in the browser",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := newRuntime(g, opts...)
			if err != nil {
				return err
			}

			path := "/"
			if len(args) == 1 {
				path = args[0]
			}
			return runOpen(r, path)
		},
	}

	return cmd
}

func runOpen(r *runtime, path string) error {
	if path == "" || path[0] != '/' {
		path = "/" + path
	}
	link := r.webLink(path)

	r.info("Opening %s", link)
	if err := r.openURL(link); err != nil {
		return fmt.Errorf("failed to open browser: %w\nPlease visit: %s", err, link)
	}
	return nil
}

// openBrowser opens the URL in the default browser
func openBrowser(url string) error {
	var cmd *exec.Cmd

	switch goruntime.GOOS {
	case "linux":
		cmd = exec.Command("xdg-open", url)
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		return fmt.Errorf("unsupported platform: %s", goruntime.GOOS)
	}

	return cmd.Start()
}
