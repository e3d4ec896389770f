package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/skillcred/skillcred/internal/cli/userconfig"
)

// NewConfigCmd creates the config command group
func NewConfigCmd(g *Globals, opts ...Option) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change CLI settings",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the current settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			r := baseRuntime(g, opts...)

			cfg, err := userconfig.Load()
			if err != nil {
				return err
			}
			path, err := userconfig.GetConfigPath()
			if err != nil {
				return err
			}

			r.hint("# %s", path)
			r.info("backend_url:     %s", cfg.Backend())
			r.info("web_url:         %s", cfg.Web())
			mode := cfg.CredentialMode
			if mode == "" {
				mode = "bearer"
			}
			r.info("credential_mode: %s", mode)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:       "set <key> <value>",
		Short:     "Change one setting",
		Args:      cobra.ExactArgs(2),
		ValidArgs: userconfig.Keys,
		RunE: func(cmd *cobra.Command, args []string) error {
			r := baseRuntime(g, opts...)

			cfg, err := userconfig.Load()
			if err != nil {
				return err
			}
			if err := cfg.Set(args[0], args[1]); err != nil {
				return err
			}
			if err := userconfig.Save(cfg); err != nil {
				return fmt.Errorf("failed to save config: %w", err)
			}

			r.success("Set %s to %s", args[0], args[1])
			return nil
		},
	})

	return cmd
}
