// Package mysql provisions MySQL/MariaDB databases for apps: one
// database and one user per app, credentials persisted in the app's
// settings. DDL runs over a direct admin connection; dumps and restores
// shell out to the client tools, which own the dump format.
package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog"

	"github.com/selfhostd/appkit/pkg/config"
	apperrors "github.com/selfhostd/appkit/pkg/errors"
	"github.com/selfhostd/appkit/pkg/logging"
)

// Setting keys written by Provision
const (
	SettingDBName = "db_name"
	SettingDBUser = "db_user"
	SettingDBPwd  = "db_pwd"
)

// identifierPattern is the shape of database and user names we are
// willing to interpolate into DDL, which cannot be parameterized.
var identifierPattern = regexp.MustCompile(`^[0-9a-z_]+$`)

// Execer is the slice of database/sql used by the provisioning logic
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// SettingsWriter is the slice of the settings store provisioning needs
type SettingsWriter interface {
	Get(app, key string) (string, error)
	Set(app, key, value string) error
	Delete(app, key string) error
}

// DB wraps an admin connection to the database server
type DB struct {
	*sql.DB
	logger zerolog.Logger
}

// Connect opens and pings an admin connection using unix socket auth
func Connect(cfg *config.Config) (*DB, error) {
	dsn := AdminDSN(cfg)
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrDatabaseConnect, "failed to open database")
	}

	// provisioning is short-lived; keep the pool minimal
	db.SetMaxOpenConns(2)
	db.SetConnMaxLifetime(time.Minute)

	if err := db.Ping(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrDatabaseConnect, "failed to ping database")
	}

	return &DB{DB: db, logger: logging.GetLogger("mysql")}, nil
}

// AdminDSN builds the DSN for the administrative connection
func AdminDSN(cfg *config.Config) string {
	user := cfg.MySQLAdminUser()
	if pwd := cfg.MySQLAdminPassword(); pwd != "" {
		return fmt.Sprintf("%s:%s@unix(%s)/", user, pwd, cfg.MySQLSocket())
	}
	return fmt.Sprintf("%s@unix(%s)/", user, cfg.MySQLSocket())
}

// ValidateName checks a database or user identifier
func ValidateName(name string) error {
	if !identifierPattern.MatchString(name) {
		return apperrors.Newf(apperrors.ErrDatabaseName,
			"invalid database identifier %q, want lowercase [0-9a-z_]", name)
	}
	return nil
}

// UserExists reports whether a database user exists
func UserExists(ctx context.Context, db Execer, name string) (bool, error) {
	var count int
	err := db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM mysql.user WHERE user = ?", name).Scan(&count)
	if err != nil {
		return false, apperrors.Wrap(err, apperrors.ErrDatabaseQuery, "cannot check user existence")
	}
	return count > 0, nil
}

// DatabaseExists reports whether a database exists
func DatabaseExists(ctx context.Context, db Execer, name string) (bool, error) {
	var count int
	err := db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM information_schema.schemata WHERE schema_name = ?", name).Scan(&count)
	if err != nil {
		return false, apperrors.Wrap(err, apperrors.ErrDatabaseQuery, "cannot check database existence")
	}
	return count > 0, nil
}

// passwordPattern restricts passwords to characters safe to embed in
// the CREATE USER statement, which not every server version accepts in
// prepared form. GeneratePassword only emits this alphabet.
var passwordPattern = regexp.MustCompile(`^[0-9A-Za-z]+$`)

// CreateUser creates a database user reachable from localhost
func CreateUser(ctx context.Context, db Execer, name, password string) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	if !passwordPattern.MatchString(password) {
		return apperrors.New(apperrors.ErrInvalidInput, "password must be non-empty alphanumeric")
	}
	_, err := db.ExecContext(ctx,
		fmt.Sprintf("CREATE USER '%s'@'localhost' IDENTIFIED BY '%s'", name, password))
	if err != nil {
		return apperrors.Wrapf(err, apperrors.ErrDatabaseQuery, "cannot create user %s", name)
	}
	return nil
}

// SetUserPassword re-keys an existing database user
func SetUserPassword(ctx context.Context, db Execer, name, password string) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	if !passwordPattern.MatchString(password) {
		return apperrors.New(apperrors.ErrInvalidInput, "password must be non-empty alphanumeric")
	}
	_, err := db.ExecContext(ctx,
		fmt.Sprintf("ALTER USER '%s'@'localhost' IDENTIFIED BY '%s'", name, password))
	if err != nil {
		return apperrors.Wrapf(err, apperrors.ErrDatabaseQuery, "cannot set password for %s", name)
	}
	return nil
}

// DropUser removes a database user if present
func DropUser(ctx context.Context, db Execer, name string) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	_, err := db.ExecContext(ctx, fmt.Sprintf("DROP USER IF EXISTS '%s'@'localhost'", name))
	if err != nil {
		return apperrors.Wrapf(err, apperrors.ErrDatabaseQuery, "cannot drop user %s", name)
	}
	return nil
}

// CreateDatabase creates a database with the platform default charset
func CreateDatabase(ctx context.Context, db Execer, name string) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	_, err := db.ExecContext(ctx, fmt.Sprintf(
		"CREATE DATABASE IF NOT EXISTS `%s` CHARACTER SET utf8mb4 COLLATE utf8mb4_unicode_ci", name))
	if err != nil {
		return apperrors.Wrapf(err, apperrors.ErrDatabaseQuery, "cannot create database %s", name)
	}
	return nil
}

// DropDatabase removes a database if present
func DropDatabase(ctx context.Context, db Execer, name string) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	_, err := db.ExecContext(ctx, fmt.Sprintf("DROP DATABASE IF EXISTS `%s`", name))
	if err != nil {
		return apperrors.Wrapf(err, apperrors.ErrDatabaseQuery, "cannot drop database %s", name)
	}
	return nil
}

// Grant gives a user full access to one database
func Grant(ctx context.Context, db Execer, database, user string) error {
	if err := ValidateName(database); err != nil {
		return err
	}
	if err := ValidateName(user); err != nil {
		return err
	}
	if _, err := db.ExecContext(ctx, fmt.Sprintf(
		"GRANT ALL PRIVILEGES ON `%s`.* TO '%s'@'localhost'", database, user)); err != nil {
		return apperrors.Wrapf(err, apperrors.ErrDatabaseQuery, "cannot grant on %s to %s", database, user)
	}
	if _, err := db.ExecContext(ctx, "FLUSH PRIVILEGES"); err != nil {
		return apperrors.Wrap(err, apperrors.ErrDatabaseQuery, "cannot flush privileges")
	}
	return nil
}
