// Package upgrade sequences an upgrade run as an explicit state machine.
// Stages advance strictly forward (resolve, stop, backup, install,
// reconcile, permissions, start) and any fatal failure moves straight to
// aborted. There is no automatic rollback: the intentionally chosen safe
// failure state after a destructive-stage failure is a stopped service
// plus complete backups, never an auto-restart into a broken install.
//
// Every collaborator is an interface so the machine can be driven and
// asserted on without touching a real service, database, or filesystem.
package upgrade

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/xenago/ls-updater/internal/backup"
	"github.com/xenago/ls-updater/internal/catalog"
	"github.com/xenago/ls-updater/internal/lsversion"
	"github.com/xenago/ls-updater/internal/messages"
	"github.com/xenago/ls-updater/internal/reconcile"
)

// ErrUpToDate is returned by a Resolver when the installed version already
// matches (or exceeds) the branch target. The run ends successfully
// without mutating anything.
var ErrUpToDate = errors.New("install is already up to date")

// Exit codes distinguishing how a run ended; the two abort codes separate
// "nothing destructive happened" from "manual recovery needed".
const (
	ExitOK          = 0
	ExitPreflight   = 1
	ExitAbortSafe   = 2
	ExitAbortManual = 3
)

// Plan is the outcome of the resolve stage: where the install is, where it
// is going, and where the staged release tree waits.
type Plan struct {
	Current     lsversion.Code
	Target      catalog.Release
	ReleaseRoot string
}

// Resolver selects the target release and stages its contents.
type Resolver interface {
	Resolve(ctx context.Context) (*Plan, error)
}

// ServiceController stops and starts the managed service.
type ServiceController interface {
	Stop(ctx context.Context) error
	Start(ctx context.Context) error
}

// BackupManager produces the pre-install safety artifacts.
type BackupManager interface {
	DumpDatabase(ctx context.Context) (backup.Artifact, error)
	ArchiveInstallTree(ctx context.Context) (backup.Artifact, error)
}

// Reconciler swaps application files while preserving user data.
type Reconciler interface {
	Preserve() (reconcile.Snapshot, error)
	Install() error
	Restore(reconcile.Snapshot) error
	ApplyOwnership() error
}

// StageResult records the outcome of one attempted stage.
type StageResult struct {
	Stage Stage
	Err   error
	// Warning marks a non-fatal failure (permissions) that did not abort
	// the run.
	Warning bool
}

// Report is the complete outcome of a run, inspectable by tests and
// rendered for the operator by the CLI.
type Report struct {
	Stages        []StageResult
	Final         Stage
	LastCompleted Stage
	FailedStage   Stage
	Err           error
	UpToDate      bool
	Plan          *Plan
	Artifacts     []backup.Artifact
}

// ExitCode maps the run outcome onto the process exit contract.
func (r *Report) ExitCode() int {
	if r.Final == StageDone {
		return ExitOK
	}
	switch {
	case r.FailedStage == StageResolve:
		return ExitPreflight
	case r.FailedStage.destructive():
		return ExitAbortManual
	default:
		return ExitAbortSafe
	}
}

// Orchestrator wires the collaborators into the stage sequence. The
// backup manager and reconciler depend on the resolved plan (artifact
// names and the staged release tree), so they are built through factories
// after the resolve stage succeeds.
type Orchestrator struct {
	Resolver      Resolver
	Service       ServiceController
	BackupsFor    func(plan *Plan) (BackupManager, error)
	ReconcilerFor func(plan *Plan) (Reconciler, error)
	// Preflight, when set, runs at the end of the resolve stage; its
	// failure aborts before anything is mutated.
	Preflight func(ctx context.Context) error
	Logger    *zap.Logger
	// Observe, when set, is called after every stage attempt.
	Observe func(res StageResult)
}

// Run executes the state machine to completion. It never returns an error
// directly; the Report carries the outcome, the failed stage, and the
// artifact paths available for manual recovery.
func (o *Orchestrator) Run(ctx context.Context) *Report {
	report := &Report{Final: StageAborted, LastCompleted: -1}

	// Resolve: select the target, stage its files, verify reachability.
	// Nothing is mutated; failure here is a pure pre-flight failure.
	plan, err := o.Resolver.Resolve(ctx)
	if errors.Is(err, ErrUpToDate) {
		o.record(report, StageResult{Stage: StageResolve})
		report.LastCompleted = StageResolve
		report.Final = StageDone
		report.UpToDate = true
		return report
	}
	if err == nil && o.Preflight != nil {
		err = o.Preflight(ctx)
	}
	if o.fail(report, StageResolve, err) {
		return report
	}
	report.Plan = plan
	o.complete(report, StageResolve)

	// Stop: the service must not be writing during the backups.
	if o.fail(report, StageStop, o.Service.Stop(ctx)) {
		return report
	}
	o.complete(report, StageStop)

	// Backup: both artifacts must exist and verify before any file under
	// the install tree may change.
	backups, err := o.BackupsFor(plan)
	if err == nil {
		err = o.runBackups(ctx, report, backups)
	}
	if o.fail(report, StageBackup, err) {
		return report
	}
	o.complete(report, StageBackup)

	rec, err := o.ReconcilerFor(plan)
	if o.fail(report, StageInstall, err) {
		return report
	}

	// Install: capture preserved paths, then replace the tree. The
	// preserve half runs inside this stage so that a backup failure can
	// never be followed by any preserve or install work.
	snapshot, err := rec.Preserve()
	if err == nil {
		err = rec.Install()
	}
	if o.fail(report, StageInstall, err) {
		return report
	}
	o.complete(report, StageInstall)

	// Reconcile: put the preserved content back over the new release.
	if o.fail(report, StageReconcile, rec.Restore(snapshot)) {
		return report
	}
	o.complete(report, StageReconcile)

	// Permissions: a mismatch should not leave the service down, so a
	// failure here is a named warning and Start is still attempted.
	if err := rec.ApplyOwnership(); err != nil {
		o.Logger.Warn(messages.UpgradePermissionsWarning, zap.Error(err))
		o.record(report, StageResult{Stage: StagePermissions, Err: err, Warning: true})
	} else {
		o.record(report, StageResult{Stage: StagePermissions})
	}
	report.LastCompleted = StagePermissions

	// Start: failure is reported as requiring manual service start; the
	// file-level work is already done and is not rolled back.
	if o.fail(report, StageStart, o.Service.Start(ctx)) {
		return report
	}
	o.complete(report, StageStart)

	report.Final = StageDone
	return report
}

// runBackups produces the database dump and filesystem archive, recording
// each artifact as it completes.
func (o *Orchestrator) runBackups(ctx context.Context, report *Report, backups BackupManager) error {
	dump, err := backups.DumpDatabase(ctx)
	if err != nil {
		return err
	}
	report.Artifacts = append(report.Artifacts, dump)
	archive, err := backups.ArchiveInstallTree(ctx)
	if err != nil {
		return err
	}
	report.Artifacts = append(report.Artifacts, archive)
	return nil
}

// fail records a fatal stage failure and moves the machine to aborted.
func (o *Orchestrator) fail(report *Report, stage Stage, err error) bool {
	if err == nil {
		return false
	}
	o.Logger.Error(messages.UpgradeStageFailed, zap.Stringer("stage", stage), zap.Error(err))
	o.record(report, StageResult{Stage: stage, Err: err})
	report.FailedStage = stage
	report.Err = fmt.Errorf(messages.UpgradeStageFailedFmt, stage, err)
	report.Final = StageAborted
	return true
}

// complete records a successful stage and advances the position.
func (o *Orchestrator) complete(report *Report, stage Stage) {
	o.Logger.Info(messages.UpgradeStageComplete, zap.Stringer("stage", stage))
	o.record(report, StageResult{Stage: stage})
	report.LastCompleted = stage
}

func (o *Orchestrator) record(report *Report, res StageResult) {
	report.Stages = append(report.Stages, res)
	if o.Observe != nil {
		o.Observe(res)
	}
}
