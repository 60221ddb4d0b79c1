package mysql

import (
	"context"
	"crypto/rand"
	"io"
	"math/big"
	"strings"

	"github.com/selfhostd/appkit/pkg/config"
	apperrors "github.com/selfhostd/appkit/pkg/errors"
	"github.com/selfhostd/appkit/pkg/execr"
	"github.com/selfhostd/appkit/pkg/logging"
)

const passwordLength = 24

const passwordAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// GeneratePassword returns a random alphanumeric password
func GeneratePassword() (string, error) {
	var b strings.Builder
	max := big.NewInt(int64(len(passwordAlphabet)))
	for i := 0; i < passwordLength; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", apperrors.Wrap(err, apperrors.ErrInternal, "cannot generate password")
		}
		b.WriteByte(passwordAlphabet[n.Int64()])
	}
	return b.String(), nil
}

// SanitizeAppName turns an app id into a legal database identifier
func SanitizeAppName(app string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(app) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		case r == '-' || r == '.':
			b.WriteRune('_')
		}
	}
	return b.String()
}

// Provisioned reports whether an app already has database state: stored
// credentials or an existing database user. Install scripts consult this
// before arming a failure cleanup, so a database that predates the run
// is never dropped by it.
func Provisioned(ctx context.Context, db Execer, store SettingsWriter, app string) (bool, error) {
	if _, err := store.Get(app, SettingDBName); err == nil {
		return true, nil
	} else if !apperrors.IsErrorCode(err, apperrors.ErrSettingNotFound) {
		return false, err
	}

	name := SanitizeAppName(app)
	if err := ValidateName(name); err != nil {
		return false, err
	}
	return UserExists(ctx, db, name)
}

// Provision creates the database, user and grant for an app and records
// the credentials in its settings. It is idempotent: an existing
// database is reused and a stored password is kept.
func Provision(ctx context.Context, db Execer, store SettingsWriter, app string) error {
	logger := logging.GetLogger("mysql")

	name := SanitizeAppName(app)
	if err := ValidateName(name); err != nil {
		return err
	}

	hadStored := true
	password, err := store.Get(app, SettingDBPwd)
	if err != nil {
		if !apperrors.IsErrorCode(err, apperrors.ErrSettingNotFound) {
			return err
		}
		hadStored = false
		password, err = GeneratePassword()
		if err != nil {
			return err
		}
	}

	userExists, err := UserExists(ctx, db, name)
	if err != nil {
		return err
	}
	switch {
	case !userExists:
		if err := CreateUser(ctx, db, name, password); err != nil {
			return err
		}
	case !hadStored:
		// User survived but the credentials did not; re-key so the
		// stored password and the account agree again.
		if err := SetUserPassword(ctx, db, name, password); err != nil {
			return err
		}
	default:
		logger.Debug().Str("user", name).Msg("Database user already exists")
	}

	if err := CreateDatabase(ctx, db, name); err != nil {
		return err
	}
	if err := Grant(ctx, db, name, name); err != nil {
		return err
	}

	if err := store.Set(app, SettingDBName, name); err != nil {
		return err
	}
	if err := store.Set(app, SettingDBUser, name); err != nil {
		return err
	}
	if err := store.Set(app, SettingDBPwd, password); err != nil {
		return err
	}

	logger.Info().Str("app", app).Str("database", name).Msg("Database provisioned")
	return nil
}

// Deprovision drops an app's database and user and clears the stored
// credentials. Missing pieces are skipped, so remove scripts can run
// after partial installs.
func Deprovision(ctx context.Context, db Execer, store SettingsWriter, app string) error {
	logger := logging.GetLogger("mysql")

	name, err := store.Get(app, SettingDBName)
	if err != nil {
		if apperrors.IsErrorCode(err, apperrors.ErrSettingNotFound) {
			name = SanitizeAppName(app)
		} else {
			return err
		}
	}

	if err := DropDatabase(ctx, db, name); err != nil {
		return err
	}
	if err := DropUser(ctx, db, name); err != nil {
		return err
	}

	for _, key := range []string{SettingDBName, SettingDBUser, SettingDBPwd} {
		if err := store.Delete(app, key); err != nil {
			return err
		}
	}

	logger.Info().Str("app", app).Str("database", name).Msg("Database deprovisioned")
	return nil
}

// Dump streams a logical backup of one database to w via mysqldump
func Dump(ctx context.Context, runner execr.Runner, cfg *config.Config, database string, w io.Writer) error {
	if err := ValidateName(database); err != nil {
		return err
	}
	_, err := runner.Run(ctx, execr.Cmd{
		Name: "mysqldump",
		Args: []string{
			"--user=" + cfg.MySQLAdminUser(),
			"--socket=" + cfg.MySQLSocket(),
			"--single-transaction",
			"--routines",
			"--quick",
			database,
		},
		Stdout: w,
	})
	if err != nil {
		return apperrors.Wrapf(err, apperrors.ErrDatabaseQuery, "mysqldump of %s failed", database)
	}
	return nil
}

// Restore feeds a logical backup from r into one database via the
// mysql client
func Restore(ctx context.Context, runner execr.Runner, cfg *config.Config, database string, r io.Reader) error {
	if err := ValidateName(database); err != nil {
		return err
	}
	_, err := runner.Run(ctx, execr.Cmd{
		Name: "mysql",
		Args: []string{
			"--user=" + cfg.MySQLAdminUser(),
			"--socket=" + cfg.MySQLSocket(),
			database,
		},
		Stdin: r,
	})
	if err != nil {
		return apperrors.Wrapf(err, apperrors.ErrDatabaseQuery, "restore of %s failed", database)
	}
	return nil
}
