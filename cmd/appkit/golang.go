package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/selfhostd/appkit/pkg/config"
	apperrors "github.com/selfhostd/appkit/pkg/errors"
	"github.com/selfhostd/appkit/pkg/execr"
	"github.com/selfhostd/appkit/pkg/goruntime"
	"github.com/selfhostd/appkit/pkg/lifecycle"
)

func newGoCmd(opts *cliOptions) *cobra.Command {
	goCmd := &cobra.Command{
		Use:   "go",
		Short: MsgGoShort,
	}

	newManager := func() (*goruntime.Manager, error) {
		cfg, err := config.Load()
		if err != nil {
			return nil, err
		}
		return goruntime.NewManager(goruntime.Options{
			Root:       opts.paths.RuntimeManagerRoot(),
			ProfileDir: opts.paths.ProfileDir(),
			Repo:       cfg.RuntimeRepo(),
			PluginRepo: cfg.RuntimePluginRepo(),
			Runner:     execr.New(),
			Store:      opts.store(),
			FS:         opts.fs,
		}), nil
	}

	var spec string
	installCmd := &cobra.Command{
		Use:   "install",
		Short: "Install a Go toolchain for the app and record it in its settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := opts.requireApp()
			if err != nil {
				return err
			}
			if opts.dryRun {
				fmt.Fprintln(cmd.OutOrStdout(), MsgDryRunNotice)
				return nil
			}
			manager, err := newManager()
			if err != nil {
				return err
			}

			_, priorErr := opts.store().Get(app, goruntime.SettingGoVersion)
			if priorErr != nil && !apperrors.IsErrorCode(priorErr, apperrors.ErrSettingNotFound) {
				return priorErr
			}
			hadToolchain := priorErr == nil

			return lifecycle.Run(func(g *lifecycle.Guard) error {
				// A failed first install must not leave the app pinned to
				// a toolchain it never got. A failed upgrade keeps the
				// previous pin and the toolchain it points at.
				if !hadToolchain {
					g.Defer("remove toolchain", func() error {
						return manager.Remove(cmd.Context(), app)
					})
				}
				version, err := manager.Install(cmd.Context(), app, spec)
				if err != nil {
					return err
				}
				opts.printer.Success("Go " + version + " installed for " + app)
				fmt.Fprintln(cmd.OutOrStdout(), manager.GoBin(version))
				return nil
			})
		},
	}
	installCmd.Flags().StringVar(&spec, "version", "", "Version spec to install, e.g. 1.22 or 1.22.1")
	_ = installCmd.MarkFlagRequired("version")

	removeCmd := &cobra.Command{
		Use:   "remove",
		Short: "Forget the app's Go toolchain and garbage-collect unused versions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := opts.requireApp()
			if err != nil {
				return err
			}
			if opts.dryRun {
				fmt.Fprintln(cmd.OutOrStdout(), MsgDryRunNotice)
				return nil
			}
			manager, err := newManager()
			if err != nil {
				return err
			}
			return manager.Remove(cmd.Context(), app)
		},
	}

	cleanupCmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Garbage-collect Go toolchains no app references anymore",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.dryRun {
				fmt.Fprintln(cmd.OutOrStdout(), MsgDryRunNotice)
				return nil
			}
			manager, err := newManager()
			if err != nil {
				return err
			}
			return manager.Cleanup(cmd.Context())
		},
	}

	goCmd.AddCommand(installCmd, removeCmd, cleanupCmd)
	return goCmd
}
