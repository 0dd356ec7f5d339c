package upgrade

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/xenago/ls-updater/internal/catalog"
	"github.com/xenago/ls-updater/internal/lsversion"
	"github.com/xenago/ls-updater/internal/messages"
)

// ReleaseResolver is the production Resolver: it reads the installed
// version, selects the newest release on the configured branch, and stages
// the release package on disk. Everything it does is non-destructive.
type ReleaseResolver struct {
	Branch      string
	InstallPath string
	// Releases lists the available releases, typically by fetching and
	// parsing the downloads page.
	Releases func(ctx context.Context) ([]catalog.Release, error)
	// Download retrieves and extracts the target release, returning the
	// root of the staged release tree.
	Download func(ctx context.Context, rel catalog.Release) (string, error)
	Logger   *zap.Logger
}

// Resolve produces the run plan, or ErrUpToDate when the installed
// version is already at (or past) the branch target.
func (r *ReleaseResolver) Resolve(ctx context.Context) (*Plan, error) {
	current, err := lsversion.ReadInstalled(r.InstallPath)
	if err != nil {
		return nil, err
	}
	r.Logger.Info(messages.ResolveCurrentVersion, zap.String("version", current.String()))

	releases, err := r.Releases(ctx)
	if err != nil {
		return nil, err
	}
	target, err := catalog.SelectTarget(releases, r.Branch)
	if err != nil {
		return nil, err
	}
	r.Logger.Info(messages.ResolveTargetVersion,
		zap.String("branch", r.Branch),
		zap.String("version", target.Code.String()))

	if target.Code.Compare(current) <= 0 {
		return nil, fmt.Errorf("%w: installed %s, branch %s offers %s",
			ErrUpToDate, current.String(), r.Branch, target.Code.String())
	}

	root, err := r.Download(ctx, target)
	if err != nil {
		return nil, err
	}
	return &Plan{Current: current, Target: target, ReleaseRoot: root}, nil
}
