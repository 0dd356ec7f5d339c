package upgrade

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xenago/ls-updater/internal/backup"
	"github.com/xenago/ls-updater/internal/catalog"
	"github.com/xenago/ls-updater/internal/lsversion"
	"github.com/xenago/ls-updater/internal/reconcile"
)

type fakeResolver struct {
	plan *Plan
	err  error
}

func (r *fakeResolver) Resolve(context.Context) (*Plan, error) {
	return r.plan, r.err
}

type fakeService struct {
	stops, starts int
	stopErr       error
	startErr      error
}

func (s *fakeService) Stop(context.Context) error {
	s.stops++
	return s.stopErr
}

func (s *fakeService) Start(context.Context) error {
	s.starts++
	return s.startErr
}

type fakeBackups struct {
	dumps, archives int
	dumpErr         error
	archiveErr      error
}

func (b *fakeBackups) DumpDatabase(context.Context) (backup.Artifact, error) {
	b.dumps++
	if b.dumpErr != nil {
		return backup.Artifact{}, b.dumpErr
	}
	return backup.Artifact{Kind: backup.KindDatabase, Location: "/backups/run/limesurvey.sql"}, nil
}

func (b *fakeBackups) ArchiveInstallTree(context.Context) (backup.Artifact, error) {
	b.archives++
	if b.archiveErr != nil {
		return backup.Artifact{}, b.archiveErr
	}
	return backup.Artifact{Kind: backup.KindFilesystem, Location: "/backups/run/files_backup.zip"}, nil
}

type fakeReconciler struct {
	preserves, installs, restores, ownerships int

	preserveErr  error
	installErr   error
	restoreErr   error
	ownershipErr error
}

func (r *fakeReconciler) Preserve() (reconcile.Snapshot, error) {
	r.preserves++
	return reconcile.Snapshot{}, r.preserveErr
}

func (r *fakeReconciler) Install() error {
	r.installs++
	return r.installErr
}

func (r *fakeReconciler) Restore(reconcile.Snapshot) error {
	r.restores++
	return r.restoreErr
}

func (r *fakeReconciler) ApplyOwnership() error {
	r.ownerships++
	return r.ownershipErr
}

type harness struct {
	resolver   *fakeResolver
	service    *fakeService
	backups    *fakeBackups
	reconciler *fakeReconciler
	orch       *Orchestrator
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	current, err := lsversion.Parse("3.20.1+191105")
	require.NoError(t, err)
	target, err := lsversion.Parse("3.22.0+200101")
	require.NoError(t, err)

	h := &harness{
		resolver: &fakeResolver{plan: &Plan{
			Current:     current,
			Target:      catalog.Release{Code: target, Branch: "lts", URL: "https://example.org/limesurvey3.22.0+200101.zip"},
			ReleaseRoot: "/downloads/limesurvey",
		}},
		service:    &fakeService{},
		backups:    &fakeBackups{},
		reconciler: &fakeReconciler{},
	}
	h.orch = &Orchestrator{
		Resolver:      h.resolver,
		Service:       h.service,
		BackupsFor:    func(*Plan) (BackupManager, error) { return h.backups, nil },
		ReconcilerFor: func(*Plan) (Reconciler, error) { return h.reconciler, nil },
		Logger:        zap.NewNop(),
	}
	return h
}

func stagesOf(report *Report) []string {
	var names []string
	for _, res := range report.Stages {
		names = append(names, res.Stage.String())
	}
	return names
}

func TestRunSuccess(t *testing.T) {
	h := newHarness(t)
	report := h.orch.Run(context.Background())

	// Every stage runs exactly once, in order, with none skipped.
	require.Equal(t,
		[]string{"resolve", "stop", "backup", "install", "reconcile", "permissions", "start"},
		stagesOf(report))
	require.Equal(t, StageDone, report.Final)
	require.Equal(t, StageStart, report.LastCompleted)
	require.NoError(t, report.Err)
	require.Equal(t, ExitOK, report.ExitCode())
	require.Len(t, report.Artifacts, 2)

	require.Equal(t, 1, h.service.stops)
	require.Equal(t, 1, h.service.starts)
	require.Equal(t, 1, h.backups.dumps)
	require.Equal(t, 1, h.backups.archives)
	require.Equal(t, 1, h.reconciler.preserves)
	require.Equal(t, 1, h.reconciler.installs)
	require.Equal(t, 1, h.reconciler.restores)
	require.Equal(t, 1, h.reconciler.ownerships)
}

func TestRunUpToDate(t *testing.T) {
	h := newHarness(t)
	h.resolver.plan = nil
	h.resolver.err = ErrUpToDate

	report := h.orch.Run(context.Background())
	require.True(t, report.UpToDate)
	require.Equal(t, StageDone, report.Final)
	require.Equal(t, ExitOK, report.ExitCode())
	require.Zero(t, h.service.stops, "up to date must not touch the service")
}

func TestRunResolveFailure(t *testing.T) {
	h := newHarness(t)
	h.resolver.plan = nil
	h.resolver.err = errors.New("downloads page unreachable")

	report := h.orch.Run(context.Background())
	require.Equal(t, StageAborted, report.Final)
	require.Equal(t, StageResolve, report.FailedStage)
	require.Equal(t, ExitPreflight, report.ExitCode())
	require.Zero(t, h.service.stops)
}

func TestRunPreflightFailureAbortsBeforeStop(t *testing.T) {
	h := newHarness(t)
	h.orch.Preflight = func(context.Context) error { return errors.New("access denied for user") }

	report := h.orch.Run(context.Background())
	require.Equal(t, StageResolve, report.FailedStage)
	require.Equal(t, ExitPreflight, report.ExitCode())
	require.Zero(t, h.service.stops)
	require.Zero(t, h.backups.dumps)
}

func TestRunStopFailureIsSafeAbort(t *testing.T) {
	h := newHarness(t)
	h.service.stopErr = errors.New("unit not found")

	report := h.orch.Run(context.Background())
	require.Equal(t, StageAborted, report.Final)
	require.Equal(t, StageStop, report.FailedStage)
	require.Equal(t, StageResolve, report.LastCompleted)
	require.Equal(t, ExitAbortSafe, report.ExitCode())
	require.Zero(t, h.backups.dumps)
	require.Zero(t, h.reconciler.installs)
}

func TestRunDumpFailureSkipsArchive(t *testing.T) {
	h := newHarness(t)
	h.backups.dumpErr = errors.New("mysqldump exit status 2")

	report := h.orch.Run(context.Background())
	require.Equal(t, StageBackup, report.FailedStage)
	require.Equal(t, ExitAbortSafe, report.ExitCode())
	require.Zero(t, h.backups.archives)
	require.Empty(t, report.Artifacts)
}

func TestRunArchiveFailurePreventsAllFileWork(t *testing.T) {
	h := newHarness(t)
	h.backups.archiveErr = errors.New("zip write failed")

	report := h.orch.Run(context.Background())
	require.Equal(t, StageAborted, report.Final)
	require.Equal(t, StageBackup, report.FailedStage)
	require.Equal(t, StageStop, report.LastCompleted)
	require.Equal(t, ExitAbortSafe, report.ExitCode())
	// A failed backup must prevent the preserve step too, not just the
	// tree replacement.
	require.Zero(t, h.reconciler.preserves)
	require.Zero(t, h.reconciler.installs)
	// The dump completed and stays reported for the operator.
	require.Len(t, report.Artifacts, 1)
	require.Equal(t, backup.KindDatabase, report.Artifacts[0].Kind)
}

func TestRunInstallFailureNeedsManualRecovery(t *testing.T) {
	h := newHarness(t)
	h.reconciler.installErr = errors.New("rename failed")

	report := h.orch.Run(context.Background())
	require.Equal(t, StageInstall, report.FailedStage)
	require.Equal(t, StageBackup, report.LastCompleted)
	require.Equal(t, ExitAbortManual, report.ExitCode())
	require.Zero(t, h.service.starts, "service stays stopped after a destructive failure")
}

func TestRunRestoreFailureNeedsManualRecovery(t *testing.T) {
	h := newHarness(t)
	h.reconciler.restoreErr = errors.New("copy failed")

	report := h.orch.Run(context.Background())
	require.Equal(t, StageReconcile, report.FailedStage)
	require.Equal(t, ExitAbortManual, report.ExitCode())
	require.Zero(t, h.service.starts)
}

func TestRunPermissionsFailureIsWarningAndStillStarts(t *testing.T) {
	h := newHarness(t)
	h.reconciler.ownershipErr = errors.New("chown not permitted")

	report := h.orch.Run(context.Background())
	require.Equal(t, StageDone, report.Final)
	require.Equal(t, ExitOK, report.ExitCode())
	require.Equal(t, 1, h.service.starts)

	var warned bool
	for _, res := range report.Stages {
		if res.Stage == StagePermissions {
			require.True(t, res.Warning)
			require.Error(t, res.Err)
			warned = true
		}
	}
	require.True(t, warned)
}

func TestRunStartFailureNeedsManualRecovery(t *testing.T) {
	h := newHarness(t)
	h.service.startErr = errors.New("failed to start apache2")

	report := h.orch.Run(context.Background())
	require.Equal(t, StageAborted, report.Final)
	require.Equal(t, StageStart, report.FailedStage)
	require.Equal(t, StagePermissions, report.LastCompleted)
	require.Equal(t, ExitAbortManual, report.ExitCode())
}

func TestRunObserveSeesEveryStage(t *testing.T) {
	h := newHarness(t)
	var seen []string
	h.orch.Observe = func(res StageResult) { seen = append(seen, res.Stage.String()) }

	_ = h.orch.Run(context.Background())
	require.Equal(t,
		[]string{"resolve", "stop", "backup", "install", "reconcile", "permissions", "start"},
		seen)
}
