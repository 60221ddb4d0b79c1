package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/selfhostd/appkit/pkg/config"
	"github.com/selfhostd/appkit/pkg/execr"
	"github.com/selfhostd/appkit/pkg/lifecycle"
	"github.com/selfhostd/appkit/pkg/mysql"
)

func newMySQLCmd(opts *cliOptions) *cobra.Command {
	mysqlCmd := &cobra.Command{
		Use:   "mysql",
		Short: MsgMySQLShort,
	}

	provisionCmd := &cobra.Command{
		Use:   "provision",
		Short: "Create a database and user for the app, recording credentials in its settings",
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

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			db, err := mysql.Connect(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()

			store := opts.store()
			return lifecycle.Run(func(g *lifecycle.Guard) error {
				preexisting, err := mysql.Provisioned(cmd.Context(), db, store, app)
				if err != nil {
					return err
				}
				// Only state this run creates may be torn down on
				// failure; a database that predates it keeps its data.
				if !preexisting {
					g.Defer("deprovision database", func() error {
						return mysql.Deprovision(cmd.Context(), db, store, app)
					})
				}
				if err := mysql.Provision(cmd.Context(), db, store, app); err != nil {
					return err
				}
				opts.printer.Success("Database provisioned for " + app)
				return nil
			})
		},
	}

	deprovisionCmd := &cobra.Command{
		Use:   "deprovision",
		Short: "Drop the app's database and user and clear its settings",
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

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			db, err := mysql.Connect(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()

			return mysql.Deprovision(cmd.Context(), db, opts.store(), app)
		},
	}

	var dumpOut string
	dumpCmd := &cobra.Command{
		Use:   "dump",
		Short: "Dump the app's database as SQL",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, database, err := resolveDatabase(opts)
			if err != nil {
				return err
			}
			if opts.dryRun {
				fmt.Fprintln(cmd.OutOrStdout(), MsgDryRunNotice)
				return nil
			}
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if dumpOut != "" {
				f, err := os.Create(dumpOut)
				if err != nil {
					return err
				}
				defer func() { _ = f.Close() }()
				out = f
			}
			if err := mysql.Dump(cmd.Context(), execr.New(), cfg, database, out); err != nil {
				return err
			}
			opts.printer.Success("Database dumped for " + app)
			return nil
		},
	}
	dumpCmd.Flags().StringVarP(&dumpOut, "output", "o", "", "Write the dump to a file instead of stdout")

	var restoreIn string
	restoreCmd := &cobra.Command{
		Use:   "restore",
		Short: "Restore the app's database from SQL on stdin",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, database, err := resolveDatabase(opts)
			if err != nil {
				return err
			}
			if opts.dryRun {
				fmt.Fprintln(cmd.OutOrStdout(), MsgDryRunNotice)
				return nil
			}
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			in := cmd.InOrStdin()
			if restoreIn != "" {
				f, err := os.Open(restoreIn)
				if err != nil {
					return err
				}
				defer func() { _ = f.Close() }()
				in = f
			}
			if err := mysql.Restore(cmd.Context(), execr.New(), cfg, database, in); err != nil {
				return err
			}
			opts.printer.Success("Database restored for " + app)
			return nil
		},
	}
	restoreCmd.Flags().StringVarP(&restoreIn, "input", "i", "", "Read the dump from a file instead of stdin")

	mysqlCmd.AddCommand(provisionCmd, deprovisionCmd, dumpCmd, restoreCmd)
	return mysqlCmd
}

// resolveDatabase returns the app and its provisioned database name,
// falling back to the sanitized app name when no setting was recorded
func resolveDatabase(opts *cliOptions) (string, string, error) {
	app, err := opts.requireApp()
	if err != nil {
		return "", "", err
	}
	database, err := opts.store().Get(app, mysql.SettingDBName)
	if err != nil {
		database = mysql.SanitizeAppName(app)
	}
	return app, database, nil
}
