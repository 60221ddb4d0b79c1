package main

import (
	"fmt"

	"github.com/spf13/cobra"

	apperrors "github.com/selfhostd/appkit/pkg/errors"
	"github.com/selfhostd/appkit/pkg/manifest"
)

func newManifestCmd(opts *cliOptions) *cobra.Command {
	var dir string

	manifestCmd := &cobra.Command{
		Use:   "manifest",
		Short: MsgManifestShort,
	}
	manifestCmd.PersistentFlags().StringVar(&dir, "dir", ".", "Directory holding the manifest")

	getCmd := &cobra.Command{
		Use:   "get <dot.path>",
		Short: "Print a manifest field by dotted path",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := manifest.Load(opts.fs, dir)
			if err != nil {
				return err
			}
			value, ok := m.Get(args[0])
			if !ok {
				return apperrors.Newf(apperrors.ErrManifestInvalid,
					"manifest has no field %q", args[0])
			}
			fmt.Fprintln(cmd.OutOrStdout(), value)
			return nil
		},
	}

	var upstream, iteration bool
	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the packaged version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := manifest.Load(opts.fs, dir)
			if err != nil {
				return err
			}
			switch {
			case upstream && iteration:
				return apperrors.New(apperrors.ErrInvalidInput,
					"--upstream and --iteration are mutually exclusive")
			case upstream:
				fmt.Fprintln(cmd.OutOrStdout(), m.UpstreamVersion())
			case iteration:
				fmt.Fprintln(cmd.OutOrStdout(), m.PackagingIteration())
			default:
				fmt.Fprintln(cmd.OutOrStdout(), m.Version())
			}
			return nil
		},
	}
	versionCmd.Flags().BoolVar(&upstream, "upstream", false, "Print only the upstream version")
	versionCmd.Flags().BoolVar(&iteration, "iteration", false, "Print only the packaging iteration")

	manifestCmd.AddCommand(getCmd, versionCmd)
	return manifestCmd
}
