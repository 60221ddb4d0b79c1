package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

func newSettingCmd(opts *cliOptions) *cobra.Command {
	settingCmd := &cobra.Command{
		Use:   "setting",
		Short: MsgSettingShort,
	}

	getCmd := &cobra.Command{
		Use:   "get <key>",
		Short: "Print the value of an app setting",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := opts.requireApp()
			if err != nil {
				return err
			}
			value, err := opts.store().Get(app, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), value)
			return nil
		},
	}

	setCmd := &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set an app setting",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := opts.requireApp()
			if err != nil {
				return err
			}
			if opts.dryRun {
				fmt.Fprintln(cmd.OutOrStdout(), MsgDryRunNotice)
				return nil
			}
			return opts.store().Set(app, args[0], args[1])
		},
	}

	deleteCmd := &cobra.Command{
		Use:   "delete <key>",
		Short: "Delete an app setting",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := opts.requireApp()
			if err != nil {
				return err
			}
			if opts.dryRun {
				fmt.Fprintln(cmd.OutOrStdout(), MsgDryRunNotice)
				return nil
			}
			return opts.store().Delete(app, args[0])
		},
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List all settings of an app",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := opts.requireApp()
			if err != nil {
				return err
			}
			values, err := opts.store().GetAll(app)
			if err != nil {
				return err
			}
			keys := make([]string, 0, len(values))
			for key := range values {
				keys = append(keys, key)
			}
			sort.Strings(keys)
			for _, key := range keys {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", key, values[key])
			}
			return nil
		},
	}

	settingCmd.AddCommand(getCmd, setCmd, deleteCmd, listCmd)
	return settingCmd
}
