package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config <key> [value]",
		Short: "Get or set user.name, user.email or core.default_branch",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo()
			if err != nil {
				return err
			}
			cfg, err := r.ReadConfig()
			if err != nil {
				return err
			}

			var field *string
			switch args[0] {
			case "user.name":
				field = &cfg.User.Name
			case "user.email":
				field = &cfg.User.Email
			case "core.default_branch":
				field = &cfg.Core.DefaultBranch
			default:
				return fmt.Errorf("unknown config key %q", args[0])
			}

			if len(args) == 1 {
				fmt.Fprintln(cmd.OutOrStdout(), *field)
				return nil
			}
			value := strings.TrimSpace(args[1])
			if strings.ContainsAny(value, "\r\n<>") {
				return fmt.Errorf("invalid value for %s", args[0])
			}
			*field = value
			return r.WriteConfig(cfg)
		},
	}
}
