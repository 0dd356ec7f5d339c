package upgrade

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xenago/ls-updater/internal/catalog"
	"github.com/xenago/ls-updater/internal/lsversion"
)

func writeVersionPHP(t *testing.T, install string, version string, build string) {
	t.Helper()
	dir := filepath.Join(install, "application", "config")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	content := "<?php\n$config['versionnumber'] = '" + version + "';\n$config['buildnumber'] = '" + build + "';\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "version.php"), []byte(content), 0o644))
}

func release(t *testing.T, code string, branch string) catalog.Release {
	t.Helper()
	c, err := lsversion.Parse(code)
	require.NoError(t, err)
	return catalog.Release{Code: c, Branch: branch, URL: "https://example.org/limesurvey" + code + ".zip"}
}

func TestResolve(t *testing.T) {
	install := t.TempDir()
	writeVersionPHP(t, install, "3.20.1", "191105")

	var downloaded catalog.Release
	r := &ReleaseResolver{
		Branch:      "lts",
		InstallPath: install,
		Releases: func(context.Context) ([]catalog.Release, error) {
			return []catalog.Release{
				release(t, "3.22.0+200101", "lts"),
				release(t, "5.0.0+210510", "unstable"),
			}, nil
		},
		Download: func(_ context.Context, rel catalog.Release) (string, error) {
			downloaded = rel
			return "/downloads/limesurvey", nil
		},
		Logger: zap.NewNop(),
	}

	plan, err := r.Resolve(context.Background())
	require.NoError(t, err)
	require.Equal(t, "3.20.1+191105", plan.Current.String())
	require.Equal(t, "3.22.0+200101", plan.Target.Code.String())
	require.Equal(t, "/downloads/limesurvey", plan.ReleaseRoot)
	require.Equal(t, plan.Target, downloaded)
}

func TestResolveUpToDate(t *testing.T) {
	install := t.TempDir()
	writeVersionPHP(t, install, "3.22.0", "200101")

	r := &ReleaseResolver{
		Branch:      "lts",
		InstallPath: install,
		Releases: func(context.Context) ([]catalog.Release, error) {
			return []catalog.Release{release(t, "3.22.0+200101", "lts")}, nil
		},
		Download: func(context.Context, catalog.Release) (string, error) {
			t.Fatal("download must not run when already up to date")
			return "", nil
		},
		Logger: zap.NewNop(),
	}

	_, err := r.Resolve(context.Background())
	require.ErrorIs(t, err, ErrUpToDate)
}

func TestResolveNewerThanBranch(t *testing.T) {
	// An install ahead of the branch target (a downgrade situation) also
	// counts as up to date; the tool never downgrades.
	install := t.TempDir()
	writeVersionPHP(t, install, "3.23.0", "200301")

	r := &ReleaseResolver{
		Branch:      "lts",
		InstallPath: install,
		Releases: func(context.Context) ([]catalog.Release, error) {
			return []catalog.Release{release(t, "3.22.0+200101", "lts")}, nil
		},
		Download: func(context.Context, catalog.Release) (string, error) {
			t.Fatal("download must not run for a would-be downgrade")
			return "", nil
		},
		Logger: zap.NewNop(),
	}

	_, err := r.Resolve(context.Background())
	require.ErrorIs(t, err, ErrUpToDate)
}

func TestResolveMissingInstallVersion(t *testing.T) {
	r := &ReleaseResolver{
		Branch:      "lts",
		InstallPath: t.TempDir(),
		Releases: func(context.Context) ([]catalog.Release, error) {
			t.Fatal("releases must not be fetched when the install is unreadable")
			return nil, nil
		},
		Logger: zap.NewNop(),
	}
	_, err := r.Resolve(context.Background())
	require.Error(t, err)
}

func TestResolveNoBranchRelease(t *testing.T) {
	install := t.TempDir()
	writeVersionPHP(t, install, "3.20.1", "191105")

	r := &ReleaseResolver{
		Branch:      "lts",
		InstallPath: install,
		Releases: func(context.Context) ([]catalog.Release, error) {
			return []catalog.Release{release(t, "5.0.0+210510", "unstable")}, nil
		},
		Logger: zap.NewNop(),
	}
	_, err := r.Resolve(context.Background())
	require.ErrorIs(t, err, catalog.ErrNoRelease)
}

func TestResolveDownloadFailure(t *testing.T) {
	install := t.TempDir()
	writeVersionPHP(t, install, "3.20.1", "191105")

	r := &ReleaseResolver{
		Branch:      "lts",
		InstallPath: install,
		Releases: func(context.Context) ([]catalog.Release, error) {
			return []catalog.Release{release(t, "3.22.0+200101", "lts")}, nil
		},
		Download: func(context.Context, catalog.Release) (string, error) {
			return "", errors.New("connection reset")
		},
		Logger: zap.NewNop(),
	}
	_, err := r.Resolve(context.Background())
	require.Error(t, err)
}
