package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/selfhostd/appkit/pkg/apt"
	"github.com/selfhostd/appkit/pkg/execr"
)

func newAptCmd(opts *cliOptions) *cobra.Command {
	aptCmd := &cobra.Command{
		Use:   "apt",
		Short: MsgAptShort,
	}

	installCmd := &cobra.Command{
		Use:   "install <pkg>...",
		Short: "Install packages and record them as the app's dependencies",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := opts.requireApp()
			if err != nil {
				return err
			}
			if opts.dryRun {
				fmt.Fprintln(cmd.OutOrStdout(), MsgDryRunNotice)
				return nil
			}
			if err := apt.Install(cmd.Context(), execr.New(), args...); err != nil {
				return err
			}
			return apt.SetAppDependencies(opts.store(), app, args)
		},
	}

	removeCmd := &cobra.Command{
		Use:   "remove [pkg]...",
		Short: "Purge packages, defaulting to the app's recorded dependencies",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := opts.requireApp()
			if err != nil {
				return err
			}

			pkgs := args
			if len(pkgs) == 0 {
				recorded, err := apt.AppDependencies(opts.store(), app)
				if err != nil {
					return err
				}
				pkgs = recorded
			}
			if len(pkgs) == 0 {
				opts.printer.Info("No dependencies recorded for " + app)
				return nil
			}
			if opts.dryRun {
				fmt.Fprintln(cmd.OutOrStdout(), MsgDryRunNotice)
				return nil
			}

			if err := apt.Remove(cmd.Context(), execr.New(), pkgs...); err != nil {
				return err
			}
			return apt.SetAppDependencies(opts.store(), app, nil)
		},
	}

	aptCmd.AddCommand(installCmd, removeCmd)
	return aptCmd
}
