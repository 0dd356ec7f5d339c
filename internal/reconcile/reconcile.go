// Package reconcile swaps the application files of an install tree for a
// new release while keeping user data intact. It captures every manifest
// path into a holding area, replaces the tree, restores the captured
// content over the new release (preserved content wins), and finally
// normalizes ownership and permissions across the whole tree.
//
// The replace step is the one genuinely destructive operation in an
// upgrade; its callers must guarantee backups exist before invoking it.
package reconcile

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/xenago/ls-updater/internal/lsversion"
	"github.com/xenago/ls-updater/internal/messages"
)

// Engine performs the preserve/install/restore/ownership sequence for one
// upgrade run. All paths are absolute; Current selects version-conditional
// manifest rules.
type Engine struct {
	InstallPath string
	// ReleaseRoot is the staged new release tree that replaces the
	// install tree.
	ReleaseRoot string
	// HoldingDir is where preserved content is parked between Preserve
	// and Restore. It lives outside the install tree and is not cleaned
	// up afterwards: after a failed Restore it is the operator's copy.
	HoldingDir string
	Manifest   Manifest
	Current    lsversion.Code
	Owner      string
	Mode       os.FileMode
	Sys        System
	Logger     *zap.Logger
}

// SnapshotEntry records one captured manifest path.
type SnapshotEntry struct {
	// RelPath is the path relative to the install root.
	RelPath string
	// HoldingPath is the absolute location of the captured copy.
	HoldingPath string
}

// Snapshot records what Preserve captured, in manifest order.
type Snapshot struct {
	Entries []SnapshotEntry
}

// Preserve copies every active manifest path from the install tree into
// the holding area, keeping relative structure. Manifest paths absent from
// the install are skipped; any single copy failure aborts with the path
// that failed, because partial preservation must not look like success.
func (e *Engine) Preserve() (Snapshot, error) {
	var snap Snapshot
	for _, rel := range e.Manifest.Active(e.Current) {
		src := filepath.Join(e.InstallPath, filepath.FromSlash(rel))
		info, err := e.Sys.Lstat(src)
		if errors.Is(err, fs.ErrNotExist) {
			e.Logger.Info(messages.ReconcileSkipAbsent, zap.String("path", rel))
			continue
		}
		if err != nil {
			return Snapshot{}, fmt.Errorf(messages.ReconcilePreserveFmt, rel, err)
		}
		dest := filepath.Join(e.HoldingDir, filepath.FromSlash(rel))
		if err := e.Sys.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			return Snapshot{}, fmt.Errorf(messages.ReconcilePreserveFmt, rel, err)
		}
		if err := e.copyPath(src, dest, info); err != nil {
			return Snapshot{}, fmt.Errorf(messages.ReconcilePreserveFmt, rel, err)
		}
		e.Logger.Info(messages.ReconcilePreserved, zap.String("path", rel))
		snap.Entries = append(snap.Entries, SnapshotEntry{RelPath: rel, HoldingPath: dest})
	}
	return snap, nil
}

// Install replaces the install tree with the staged release tree. This is
// the destructive step: the old tree is removed entirely and the release
// is moved (or, across filesystems, copied) into its place.
func (e *Engine) Install() error {
	if _, err := e.Sys.Lstat(e.ReleaseRoot); err != nil {
		return fmt.Errorf(messages.ReconcileReleaseMissingFmt, e.ReleaseRoot, err)
	}
	if err := e.Sys.RemoveAll(e.InstallPath); err != nil {
		return fmt.Errorf(messages.ReconcileRemoveOldFmt, e.InstallPath, err)
	}
	if err := e.Sys.Rename(e.ReleaseRoot, e.InstallPath); err == nil {
		return nil
	}
	// Rename fails across filesystems; fall back to a recursive copy.
	info, err := e.Sys.Lstat(e.ReleaseRoot)
	if err != nil {
		return fmt.Errorf(messages.ReconcilePlaceNewFmt, e.InstallPath, err)
	}
	if err := e.copyPath(e.ReleaseRoot, e.InstallPath, info); err != nil {
		return fmt.Errorf(messages.ReconcilePlaceNewFmt, e.InstallPath, err)
	}
	if err := e.Sys.RemoveAll(e.ReleaseRoot); err != nil {
		return fmt.Errorf(messages.ReconcileCleanStagingFmt, e.ReleaseRoot, err)
	}
	return nil
}

// Restore copies each captured entry back to its original relative
// location. Whatever the new release shipped at a preserved path is
// removed first: preserved content wins over new defaults.
func (e *Engine) Restore(snap Snapshot) error {
	for _, entry := range snap.Entries {
		dest := filepath.Join(e.InstallPath, filepath.FromSlash(entry.RelPath))
		info, err := e.Sys.Lstat(entry.HoldingPath)
		if err != nil {
			return fmt.Errorf(messages.ReconcileRestoreFmt, entry.RelPath, err)
		}
		if err := e.Sys.RemoveAll(dest); err != nil {
			return fmt.Errorf(messages.ReconcileRestoreFmt, entry.RelPath, err)
		}
		if err := e.Sys.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			return fmt.Errorf(messages.ReconcileRestoreFmt, entry.RelPath, err)
		}
		if err := e.copyPath(entry.HoldingPath, dest, info); err != nil {
			return fmt.Errorf(messages.ReconcileRestoreFmt, entry.RelPath, err)
		}
		e.Logger.Info(messages.ReconcileRestored, zap.String("path", entry.RelPath))
	}
	return nil
}

// copyPath copies src to dest: files by content with mode, symlinks as
// symlinks (never dereferenced), directories recursively.
func (e *Engine) copyPath(src string, dest string, info os.FileInfo) error {
	switch {
	case info.Mode()&os.ModeSymlink != 0:
		target, err := e.Sys.Readlink(src)
		if err != nil {
			return err
		}
		return e.Sys.Symlink(target, dest)
	case info.IsDir():
		return e.copyDir(src, dest)
	default:
		return e.Sys.CopyFile(src, dest, info.Mode().Perm())
	}
}

// copyDir recursively copies a directory tree.
func (e *Engine) copyDir(src string, dest string) error {
	return e.Sys.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dest, rel)
		info, err := d.Info()
		if err != nil {
			return err
		}
		if d.IsDir() {
			return e.Sys.MkdirAll(target, info.Mode().Perm())
		}
		return e.copyPath(path, target, info)
	})
}
