package main

import (
	"fmt"

	"github.com/spf13/cobra"

	appversion "github.com/selfhostd/appkit/internal/version"
	"github.com/selfhostd/appkit/pkg/manifest"
	"github.com/selfhostd/appkit/pkg/versions"
)

// SettingCurrentVersion is the setting recording the version an app is
// currently installed at, written by the platform on install and upgrade.
const SettingCurrentVersion = "current_version"

func newVersionCmd(opts *cliOptions) *cobra.Command {
	versionCmd := &cobra.Command{
		Use:   "version",
		Short: MsgVersionShort,
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "appkit version %s\n", appversion.Version)
			fmt.Fprintf(cmd.OutOrStdout(), "  commit: %s\n", appversion.Commit)
			fmt.Fprintf(cmd.OutOrStdout(), "  built:  %s\n", appversion.Date)
		},
	}

	compareCmd := &cobra.Command{
		Use:   "compare <a> <op> <b>",
		Short: "Compare two versions with a dpkg operator (lt le eq ne ge gt)",
		Long: `Compare two versions using Debian policy ordering. Exits 0 when the
comparison holds, 1 when it does not and 2 on malformed input, so scripts
can use it the way they use dpkg --compare-versions.`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, op, b := args[0], args[1], args[2]
			if err := versions.Validate(a); err != nil {
				return &exitError{code: 2, err: err}
			}
			if err := versions.Validate(b); err != nil {
				return &exitError{code: 2, err: err}
			}
			ok, err := versions.Satisfies(a, op, b)
			if err != nil {
				return &exitError{code: 2, err: err}
			}
			if !ok {
				return &exitError{code: 1}
			}
			return nil
		},
	}

	var against string
	checkCmd := &cobra.Command{
		Use:   "check <op>",
		Short: "Compare the app's current version against a packaged manifest",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := opts.requireApp()
			if err != nil {
				return err
			}
			current, err := opts.store().Get(app, SettingCurrentVersion)
			if err != nil {
				return err
			}
			m, err := manifest.Load(opts.fs, against)
			if err != nil {
				return err
			}
			ok, err := versions.CompareAgainstManifest(current, m, args[0])
			if err != nil {
				return &exitError{code: 2, err: err}
			}
			if !ok {
				return &exitError{code: 1}
			}
			return nil
		},
	}
	checkCmd.Flags().StringVar(&against, "against", ".", "Directory holding the manifest to compare against")

	versionCmd.AddCommand(compareCmd, checkCmd)
	return versionCmd
}
