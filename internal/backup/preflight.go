package backup

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
	"gopkg.in/ini.v1"

	"github.com/xenago/ls-updater/internal/config"
	"github.com/xenago/ls-updater/internal/messages"
)

// preflightTimeout bounds the connectivity check.
const preflightTimeout = 15 * time.Second

// Preflight opens and pings the configured database using the credentials
// from the MySQL defaults file. It runs before the service is stopped so
// bad credentials or an unreachable server abort the run while everything
// is still untouched; mysqldump itself would only fail after Stop.
func Preflight(ctx context.Context, db config.Database) error {
	user, password, err := readDefaultsFile(db.DefaultsFile)
	if err != nil {
		return err
	}

	cfg := mysql.NewConfig()
	cfg.User = user
	cfg.Passwd = password
	cfg.Net = "tcp"
	cfg.Addr = fmt.Sprintf("%s:%d", db.Server, db.Port)
	cfg.DBName = db.Name
	cfg.Timeout = preflightTimeout

	conn, err := sql.Open("mysql", cfg.FormatDSN())
	if err != nil {
		return fmt.Errorf(messages.BackupPreflightOpenFmt, err)
	}
	defer func() { _ = conn.Close() }()

	ctx, cancel := context.WithTimeout(ctx, preflightTimeout)
	defer cancel()
	if err := conn.PingContext(ctx); err != nil {
		return fmt.Errorf(messages.BackupPreflightPingFmt, db.Server, db.Port, db.Name, err)
	}
	return nil
}

// readDefaultsFile extracts the client credentials from a MySQL option
// file, the same file handed to mysqldump via --defaults-extra-file.
func readDefaultsFile(path string) (string, string, error) {
	file, err := ini.Load(path)
	if err != nil {
		return "", "", fmt.Errorf(messages.BackupDefaultsFileFmt, path, err)
	}
	section := file.Section("client")
	user := section.Key("user").String()
	if user == "" {
		return "", "", fmt.Errorf(messages.BackupDefaultsFileNoUserFmt, path)
	}
	return user, section.Key("password").String(), nil
}
