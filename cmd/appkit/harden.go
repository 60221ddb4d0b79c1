package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/selfhostd/appkit/pkg/config"
	"github.com/selfhostd/appkit/pkg/permissions"
)

func newHardenCmd(opts *cliOptions) *cobra.Command {
	var owner, group string

	hardenCmd := &cobra.Command{
		Use:   "harden <dir>",
		Short: MsgHardenShort,
		Long: `Apply the standard permission scheme to an app directory: files 0640,
directories and executables 0750, everything owned by the given owner
and group. Symlinks are left untouched.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.dryRun {
				fmt.Fprintln(cmd.OutOrStdout(), MsgDryRunNotice)
				return nil
			}
			if owner == "" {
				cfg, err := config.Load()
				if err != nil {
					return err
				}
				owner = cfg.DefaultOwner()
			}
			if group == "" {
				group = owner
			}
			if err := permissions.Harden(opts.fs, args[0], owner, group); err != nil {
				return err
			}
			opts.printer.Success("Permissions hardened on " + args[0])
			return nil
		},
	}
	hardenCmd.Flags().StringVar(&owner, "owner", "", "Owner to apply (defaults to the configured owner)")
	hardenCmd.Flags().StringVar(&group, "group", "", "Group to apply (defaults to the owner)")

	return hardenCmd
}

func newSecureRemoveCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "secure-remove <path>",
		Short: MsgSecureRmShort,
		Long: `Remove a path recursively after safety checks: the path must be
absolute, normalized and outside the system directories the platform
depends on. A missing path is not an error.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.dryRun {
				fmt.Fprintln(cmd.OutOrStdout(), MsgDryRunNotice)
				return nil
			}
			return permissions.SecureRemove(opts.fs, args[0])
		},
	}
}
