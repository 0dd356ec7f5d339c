// Package backup produces the pre-upgrade safety artifacts: a database
// dump and a zip archive of the current install tree. Both land under a
// per-run directory outside the install tree, named from the run's start
// timestamp and the version transition, so successive runs never collide
// and the install step can never overwrite them.
//
// A successful subprocess launch is not proof of a successful backup:
// both operations verify their artifact exists and is non-empty before
// reporting success.
package backup

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mholt/archives"
	"go.uber.org/zap"

	"github.com/xenago/ls-updater/internal/config"
	"github.com/xenago/ls-updater/internal/execx"
	"github.com/xenago/ls-updater/internal/lsversion"
	"github.com/xenago/ls-updater/internal/messages"
)

// dirStamp formats the run start time for artifact directory names.
const dirStamp = "20060102T150405"

// Kind distinguishes the two artifact types.
type Kind string

const (
	KindDatabase   Kind = "database"
	KindFilesystem Kind = "filesystem"
)

// Artifact records a completed backup output on disk. Artifacts are never
// consumed by later stages; they exist for manual recovery and are left in
// place when the process exits.
type Artifact struct {
	Kind      Kind
	Location  string
	CreatedAt time.Time
}

// Manager creates the per-run backup artifacts.
type Manager struct {
	Database    config.Database
	InstallPath string
	// Dir is the per-run artifact directory, derived from the run start
	// time and the version transition via RunDir.
	Dir    string
	Runner execx.Runner
	Logger *zap.Logger

	now func() time.Time
}

// RunDir returns the artifact directory for one run: a timestamped,
// transition-named directory under backupsRoot.
func RunDir(backupsRoot string, start time.Time, current lsversion.Code, target lsversion.Code) string {
	name := fmt.Sprintf("%s_%s_to_%s", start.Format(dirStamp), current.String(), target.String())
	return filepath.Join(backupsRoot, name)
}

// NewManager returns a Manager writing artifacts into dir.
func NewManager(db config.Database, installPath string, dir string, runner execx.Runner, logger *zap.Logger) *Manager {
	return &Manager{
		Database:    db,
		InstallPath: installPath,
		Dir:         dir,
		Runner:      runner,
		Logger:      logger,
		now:         time.Now,
	}
}

// DumpDatabase runs mysqldump against the configured server and verifies
// the resulting dump file is non-empty. A dump that already exists at the
// target path is a failure, not something to overwrite.
func (m *Manager) DumpDatabase(ctx context.Context) (Artifact, error) {
	dest := filepath.Join(m.Dir, m.Database.Name+".sql")
	if _, err := os.Lstat(dest); err == nil {
		return Artifact{}, fmt.Errorf(messages.BackupDumpExistsFmt, dest)
	}
	if err := os.MkdirAll(m.Dir, 0o755); err != nil {
		return Artifact{}, fmt.Errorf(messages.BackupCreateDirFmt, m.Dir, err)
	}

	m.Logger.Info(messages.BackupDumpStarting, zap.String("database", m.Database.Name), zap.String("dest", dest))
	_, err := m.Runner.Run(ctx, "mysqldump",
		"--defaults-extra-file="+m.Database.DefaultsFile,
		"-h", m.Database.Server,
		"-P", fmt.Sprintf("%d", m.Database.Port),
		m.Database.Name,
		"--result-file="+dest,
	)
	if err != nil {
		return Artifact{}, fmt.Errorf(messages.BackupDumpFailedFmt, m.Database.Name, err)
	}
	if err := requireNonEmpty(dest, messages.BackupDumpEmptyFmt); err != nil {
		return Artifact{}, err
	}
	return Artifact{Kind: KindDatabase, Location: dest, CreatedAt: m.now()}, nil
}

// ArchiveInstallTree zips the entire current install tree before any file
// under it is modified or deleted.
func (m *Manager) ArchiveInstallTree(ctx context.Context) (Artifact, error) {
	dest := filepath.Join(m.Dir, "files_backup.zip")
	if _, err := os.Lstat(dest); err == nil {
		return Artifact{}, fmt.Errorf(messages.BackupArchiveExistsFmt, dest)
	}
	if err := os.MkdirAll(m.Dir, 0o755); err != nil {
		return Artifact{}, fmt.Errorf(messages.BackupCreateDirFmt, m.Dir, err)
	}

	m.Logger.Info(messages.BackupArchiveStarting, zap.String("source", m.InstallPath), zap.String("dest", dest))
	files, err := archives.FilesFromDisk(ctx, nil, map[string]string{
		m.InstallPath: "",
	})
	if err != nil {
		return Artifact{}, fmt.Errorf(messages.BackupArchiveCollectFmt, m.InstallPath, err)
	}
	out, err := os.Create(dest)
	if err != nil {
		return Artifact{}, fmt.Errorf(messages.BackupArchiveCreateFmt, dest, err)
	}
	format := archives.Zip{}
	if err := format.Archive(ctx, out, files); err != nil {
		_ = out.Close()
		_ = os.Remove(dest)
		return Artifact{}, fmt.Errorf(messages.BackupArchiveWriteFmt, dest, err)
	}
	if err := out.Close(); err != nil {
		return Artifact{}, fmt.Errorf(messages.BackupArchiveWriteFmt, dest, err)
	}
	if err := requireNonEmpty(dest, messages.BackupArchiveEmptyFmt); err != nil {
		return Artifact{}, err
	}
	return Artifact{Kind: KindFilesystem, Location: dest, CreatedAt: m.now()}, nil
}

// requireNonEmpty rejects a missing or zero-length artifact.
func requireNonEmpty(path string, emptyFmt string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf(messages.BackupArtifactMissingFmt, path, err)
	}
	if info.Size() == 0 {
		_ = os.Remove(path)
		return fmt.Errorf(emptyFmt, path)
	}
	return nil
}
