// Package fetch downloads a release package and extracts it into a
// staging directory, so the destructive stages of an upgrade start with
// the complete new release tree already on disk.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mholt/archives"
	"go.uber.org/zap"

	"github.com/xenago/ls-updater/internal/catalog"
	"github.com/xenago/ls-updater/internal/messages"
)

// Fetcher stages release packages under DownloadsDir.
type Fetcher struct {
	DownloadsDir string
	Client       *http.Client
	Logger       *zap.Logger
}

// New returns a Fetcher writing under downloadsDir.
func New(downloadsDir string, logger *zap.Logger) *Fetcher {
	return &Fetcher{
		DownloadsDir: downloadsDir,
		Client:       &http.Client{Timeout: 15 * time.Minute},
		Logger:       logger,
	}
}

// Download retrieves the release package, replacing any stale copy from a
// previous run, and returns the path to the downloaded zip. The download
// lands in a temp file first and is renamed into place only when complete,
// so an interrupted transfer never masquerades as a finished package.
func (f *Fetcher) Download(ctx context.Context, rel catalog.Release) (string, error) {
	if err := os.MkdirAll(f.DownloadsDir, 0o755); err != nil {
		return "", fmt.Errorf(messages.FetchCreateDirFmt, f.DownloadsDir, err)
	}
	dest := filepath.Join(f.DownloadsDir, rel.Code.String()+".zip")
	if _, err := os.Lstat(dest); err == nil {
		f.Logger.Info(messages.FetchRemovingStale, zap.String("path", dest))
		if err := os.Remove(dest); err != nil {
			return "", fmt.Errorf(messages.FetchRemoveStaleFmt, dest, err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rel.URL, nil)
	if err != nil {
		return "", fmt.Errorf(messages.FetchCreateRequestFmt, rel.URL, err)
	}
	resp, err := f.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf(messages.FetchDownloadFmt, rel.URL, err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf(messages.FetchDownloadStatusFmt, rel.URL, resp.Status)
	}

	tmp, err := os.CreateTemp(f.DownloadsDir, ".download-*")
	if err != nil {
		return "", fmt.Errorf(messages.FetchCreateTempFmt, err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	written, err := io.Copy(tmp, resp.Body)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return "", fmt.Errorf(messages.FetchWriteFmt, dest, err)
	}
	if written == 0 {
		return "", fmt.Errorf(messages.FetchEmptyDownloadFmt, rel.URL)
	}
	if err := os.Rename(tmpName, dest); err != nil {
		return "", fmt.Errorf(messages.FetchMoveFmt, dest, err)
	}
	f.Logger.Info(messages.FetchDownloaded, zap.String("path", dest), zap.Int64("bytes", written))
	return dest, nil
}

// Extract unpacks the release zip into a staging directory named after the
// release code, replacing any leftover staging tree from a previous run.
// It returns the root of the extracted release tree: the single top-level
// directory inside the archive when there is one, otherwise the staging
// directory itself.
func (f *Fetcher) Extract(ctx context.Context, rel catalog.Release, zipPath string) (string, error) {
	stagingDir := filepath.Join(f.DownloadsDir, rel.Code.String())
	if _, err := os.Lstat(stagingDir); err == nil {
		f.Logger.Info(messages.FetchRemovingStaleStaging, zap.String("path", stagingDir))
		if err := os.RemoveAll(stagingDir); err != nil {
			return "", fmt.Errorf(messages.FetchRemoveStaleFmt, stagingDir, err)
		}
	}
	if err := os.MkdirAll(stagingDir, 0o755); err != nil {
		return "", fmt.Errorf(messages.FetchCreateDirFmt, stagingDir, err)
	}

	archive, err := os.Open(zipPath)
	if err != nil {
		return "", fmt.Errorf(messages.FetchOpenArchiveFmt, zipPath, err)
	}
	defer func() { _ = archive.Close() }()

	format := archives.Zip{}
	err = format.Extract(ctx, archive, func(ctx context.Context, info archives.FileInfo) error {
		return writeEntry(stagingDir, info)
	})
	if err != nil {
		return "", fmt.Errorf(messages.FetchExtractFmt, zipPath, err)
	}
	return releaseRoot(stagingDir)
}

// writeEntry materializes one archive entry under stagingDir, rejecting
// entries that would escape it.
func writeEntry(stagingDir string, info archives.FileInfo) error {
	rel := filepath.FromSlash(info.NameInArchive)
	if rel == "" {
		return nil
	}
	if strings.Contains(rel, "..") {
		return fmt.Errorf(messages.FetchUnsafeEntryFmt, info.NameInArchive)
	}
	dest := filepath.Join(stagingDir, rel)

	switch {
	case info.IsDir():
		return os.MkdirAll(dest, 0o755)
	case info.LinkTarget != "":
		if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			return err
		}
		return os.Symlink(info.LinkTarget, dest)
	default:
		if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			return err
		}
		src, err := info.Open()
		if err != nil {
			return err
		}
		defer func() { _ = src.Close() }()
		out, err := os.OpenFile(dest, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, info.Mode().Perm())
		if err != nil {
			return err
		}
		if _, err := io.Copy(out, src); err != nil {
			_ = out.Close()
			return err
		}
		return out.Close()
	}
}

// releaseRoot locates the extracted release tree. LimeSurvey packages
// wrap everything in a single "limesurvey" directory.
func releaseRoot(stagingDir string) (string, error) {
	entries, err := os.ReadDir(stagingDir)
	if err != nil {
		return "", fmt.Errorf(messages.FetchReadStagingFmt, stagingDir, err)
	}
	if len(entries) == 0 {
		return "", fmt.Errorf(messages.FetchEmptyArchiveFmt, stagingDir)
	}
	if len(entries) == 1 && entries[0].IsDir() {
		return filepath.Join(stagingDir, entries[0].Name()), nil
	}
	return stagingDir, nil
}
