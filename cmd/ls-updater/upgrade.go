package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xenago/ls-updater/internal/backup"
	"github.com/xenago/ls-updater/internal/catalog"
	"github.com/xenago/ls-updater/internal/config"
	"github.com/xenago/ls-updater/internal/execx"
	"github.com/xenago/ls-updater/internal/fetch"
	"github.com/xenago/ls-updater/internal/lockfile"
	"github.com/xenago/ls-updater/internal/logging"
	"github.com/xenago/ls-updater/internal/messages"
	"github.com/xenago/ls-updater/internal/reconcile"
	"github.com/xenago/ls-updater/internal/service"
	"github.com/xenago/ls-updater/internal/terminal"
	"github.com/xenago/ls-updater/internal/upgrade"
)

// lockFileName sits next to the backup directory so every run against the
// same working directory contends on the same lock.
const lockFileName = ".ls-updater.lock"

var isTerminal = terminal.IsInteractive

func newUpgradeCmd(opts *rootOptions) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   messages.UpgradeUse,
		Short: messages.UpgradeShort,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return err
			}
			logger, closeLog, err := logging.New(logging.Options{
				Stdout: cfg.Logging.Stdout,
				Syslog: cfg.Logging.Syslog,
				File:   cfg.Logging.File,
			})
			if err != nil {
				return err
			}
			defer closeLog()

			if !yes {
				if !isTerminal() {
					return errors.New(messages.UpgradeRequiresTerminal)
				}
				prompt := fmt.Sprintf(messages.UpgradeConfirmFmt, cfg.Service.Name, cfg.Install.Path)
				confirmed, err := promptYesNo(cmd.InOrStdin(), cmd.OutOrStdout(), prompt, false)
				if err != nil {
					return err
				}
				if !confirmed {
					return errors.New(messages.UpgradeCancelled)
				}
			}

			out := cmd.OutOrStdout()
			var report *upgrade.Report
			lockPath := filepath.Join(filepath.Dir(cfg.Paths.Backups), lockFileName)
			err = lockfile.WithLock(lockPath, func() error {
				orch, err := newOrchestrator(cfg, logger, stagePrinter(out))
				if err != nil {
					return err
				}
				report = orch.Run(cmd.Context())
				return nil
			})
			if err != nil {
				return err
			}

			renderSummary(out, report)
			if code := report.ExitCode(); code != upgrade.ExitOK {
				return &ExitCodeError{Code: code, Err: report.Err}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, messages.UpgradeFlagYes)
	return cmd
}

// newOrchestrator wires the production collaborators for one run.
func newOrchestrator(cfg *config.Config, logger *zap.Logger, observe func(upgrade.StageResult)) (*upgrade.Orchestrator, error) {
	runner := execx.SystemRunner{}
	controller, err := service.ForInitSystem(cfg.Service.InitSystem, cfg.Service.Name, runner)
	if err != nil {
		return nil, err
	}
	mode, err := cfg.Mode()
	if err != nil {
		return nil, err
	}
	fetcher := fetch.New(cfg.Paths.Downloads, logger)
	resolver := &upgrade.ReleaseResolver{
		Branch:      cfg.Branch,
		InstallPath: cfg.Install.Path,
		Releases: func(ctx context.Context) ([]catalog.Release, error) {
			page, err := catalog.Fetch(ctx, catalog.DownloadsURL)
			if err != nil {
				return nil, err
			}
			return catalog.Parse(page, logger)
		},
		Download: func(ctx context.Context, rel catalog.Release) (string, error) {
			zipPath, err := fetcher.Download(ctx, rel)
			if err != nil {
				return "", err
			}
			return fetcher.Extract(ctx, rel, zipPath)
		},
		Logger: logger,
	}

	start := time.Now()
	runDir := func(plan *upgrade.Plan) string {
		return backup.RunDir(cfg.Paths.Backups, start, plan.Current, plan.Target.Code)
	}
	return &upgrade.Orchestrator{
		Resolver: resolver,
		Service:  controller,
		Preflight: func(ctx context.Context) error {
			return backup.Preflight(ctx, cfg.Database)
		},
		BackupsFor: func(plan *upgrade.Plan) (upgrade.BackupManager, error) {
			return backup.NewManager(cfg.Database, cfg.Install.Path, runDir(plan), runner, logger), nil
		},
		ReconcilerFor: func(plan *upgrade.Plan) (upgrade.Reconciler, error) {
			return &reconcile.Engine{
				InstallPath: cfg.Install.Path,
				ReleaseRoot: plan.ReleaseRoot,
				HoldingDir:  filepath.Join(runDir(plan), "preserved"),
				Manifest:    reconcile.DefaultManifest(),
				Current:     plan.Current,
				Owner:       cfg.Install.Owner,
				Mode:        mode,
				Sys:         reconcile.RealSystem{},
				Logger:      logger,
			}, nil
		},
		Logger:  logger,
		Observe: observe,
	}, nil
}

// stagePrinter renders one line per attempted stage.
func stagePrinter(out io.Writer) func(upgrade.StageResult) {
	return func(res upgrade.StageResult) {
		switch {
		case res.Err == nil:
			_, _ = color.New(color.FgGreen).Fprintf(out, messages.UpgradeStageOKFmt, res.Stage)
		case res.Warning:
			_, _ = color.New(color.FgYellow).Fprintf(out, messages.UpgradeStageWarnFmt, res.Stage, res.Err)
		default:
			_, _ = color.New(color.FgRed).Fprintf(out, messages.UpgradeStageFailFmt, res.Stage, res.Err)
		}
	}
}

// renderSummary explains the final state and, on abort, what the operator
// has to work with.
func renderSummary(out io.Writer, report *upgrade.Report) {
	if report.Final == upgrade.StageDone {
		if report.UpToDate {
			_, _ = fmt.Fprintln(out, messages.UpgradeUpToDate)
			return
		}
		_, _ = color.New(color.FgGreen).Fprintf(out, messages.UpgradeDoneFmt, report.Plan.Target.Code.String())
		return
	}

	last := "none"
	if report.LastCompleted >= 0 {
		last = report.LastCompleted.String()
	}
	_, _ = color.New(color.FgRed).Fprintf(out, messages.UpgradeAbortedFmt, report.FailedStage, last)
	for _, artifact := range report.Artifacts {
		_, _ = fmt.Fprintf(out, messages.UpgradeArtifactFmt, artifact.Kind, artifact.Location)
	}
	if report.ExitCode() == upgrade.ExitAbortManual {
		_, _ = color.New(color.FgRed).Fprintln(out, messages.UpgradeManualRecovery)
	} else {
		_, _ = fmt.Fprintln(out, messages.UpgradeSafeAbort)
	}
}
