package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/cobra/doc"

	"github.com/selfhostd/appkit/internal/version"
	apperrors "github.com/selfhostd/appkit/pkg/errors"
	"github.com/selfhostd/appkit/pkg/filesystem"
	"github.com/selfhostd/appkit/pkg/logging"
	"github.com/selfhostd/appkit/pkg/paths"
	"github.com/selfhostd/appkit/pkg/settings"
	"github.com/selfhostd/appkit/pkg/ui"
)

// cliOptions holds the global flags and the shared collaborators the
// subcommands pull their dependencies from
type cliOptions struct {
	verbosity int
	dryRun    bool
	app       string

	fs      filesystem.FS
	paths   *paths.Paths
	printer *ui.Printer
}

func (o *cliOptions) store() *settings.Store {
	return settings.NewStore(o.fs, o.paths.SettingsRoot())
}

// requireApp resolves the target app id, --app beating $YNH_APP_ID
func (o *cliOptions) requireApp() (string, error) {
	if o.app != "" {
		return o.app, nil
	}
	if app := os.Getenv(settings.EnvAppID); app != "" {
		return app, nil
	}
	return "", apperrors.New(apperrors.ErrInvalidInput,
		"no app given: pass --app or set "+settings.EnvAppID)
}

// NewRootCmd creates and returns the root command
func NewRootCmd() *cobra.Command {
	opts := &cliOptions{
		fs:      filesystem.NewOS(),
		paths:   paths.New(),
		printer: ui.New(),
	}

	rootCmd := &cobra.Command{
		Use:     "appkit",
		Short:   MsgRootShort,
		Long:    MsgRootLong,
		Version: version.Version,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Setup logging based on verbosity
			logging.SetupLogger(opts.verbosity)
			log.Debug().Str("command", cmd.Name()).Msg("Command started")
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			_ = cmd.Help()
			return fmt.Errorf("no command specified")
		},
		SilenceUsage:      true,
		SilenceErrors:     true,
		DisableAutoGenTag: true,
	}

	// Global flags
	rootCmd.PersistentFlags().CountVarP(&opts.verbosity, "verbose", "v", MsgFlagVerbose)
	rootCmd.PersistentFlags().BoolVar(&opts.dryRun, "dry-run", false, MsgFlagDryRun)
	rootCmd.PersistentFlags().StringVar(&opts.app, "app", "", MsgFlagApp)

	rootCmd.AddCommand(newSettingCmd(opts))
	rootCmd.AddCommand(newManifestCmd(opts))
	rootCmd.AddCommand(newVersionCmd(opts))
	rootCmd.AddCommand(newMySQLCmd(opts))
	rootCmd.AddCommand(newGoCmd(opts))
	rootCmd.AddCommand(newAptCmd(opts))
	rootCmd.AddCommand(newHardenCmd(opts))
	rootCmd.AddCommand(newSecureRemoveCmd(opts))
	rootCmd.AddCommand(newCompletionCmd())
	rootCmd.AddCommand(newManCmd(rootCmd))

	return rootCmd
}

func newCompletionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion script",
		Long: `To load completions:

Bash:
  $ source <(appkit completion bash)
  # To load completions for each session, execute once:
  $ appkit completion bash > /etc/bash_completion.d/appkit

Zsh:
  $ appkit completion zsh > "${fpath[1]}/_appkit"

Fish:
  $ appkit completion fish | source
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		Run: func(cmd *cobra.Command, args []string) {
			switch args[0] {
			case "bash":
				if err := cmd.Root().GenBashCompletion(cmd.OutOrStdout()); err != nil {
					log.Error().Err(err).Msg("Failed to generate bash completion")
				}
			case "zsh":
				if err := cmd.Root().GenZshCompletion(cmd.OutOrStdout()); err != nil {
					log.Error().Err(err).Msg("Failed to generate zsh completion")
				}
			case "fish":
				if err := cmd.Root().GenFishCompletion(cmd.OutOrStdout(), true); err != nil {
					log.Error().Err(err).Msg("Failed to generate fish completion")
				}
			case "powershell":
				if err := cmd.Root().GenPowerShellCompletionWithDesc(cmd.OutOrStdout()); err != nil {
					log.Error().Err(err).Msg("Failed to generate powershell completion")
				}
			}
		},
	}
}

func newManCmd(rootCmd *cobra.Command) *cobra.Command {
	return &cobra.Command{
		Use:   "man",
		Short: "Generate man page",
		Long:  `Generate man page for appkit`,
		RunE: func(cmd *cobra.Command, args []string) error {
			header := &doc.GenManHeader{
				Title:   "APPKIT",
				Section: "1",
			}
			return doc.GenManTree(rootCmd, header, "/tmp")
		},
	}
}
