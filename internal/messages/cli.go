// Package messages centralizes every user-visible string so wording is
// reviewed in one place and commands stay free of literals.
package messages

// CLI messages.
const (
	RootUse    = "ls-updater"
	RootShort  = "LimeSurvey update assistant"
	RootLong   = "ls-updater upgrades a LimeSurvey install in place: it stops the web server,\nbacks up the database and application files, installs the selected release,\nrestores user data, repairs ownership, and starts the server again."
	RootFlagConfig = "path to the config file"

	VersionTemplate  = "{{.Version}}\n"
	VersionCommitFmt = "commit %s"
	VersionBuildFmt  = "built %s"
	VersionFullFmt   = "%s (%s)"

	UpgradeUse              = "upgrade"
	UpgradeShort            = "Upgrade the install to the newest release on the configured branch"
	UpgradeFlagYes          = "skip the confirmation prompt"
	UpgradeRequiresTerminal = "upgrade requires an interactive terminal; pass --yes to run unattended"
	UpgradeConfirmFmt       = "This will stop %s and replace the files under %s. Continue?"
	UpgradeCancelled        = "upgrade cancelled"
	UpgradeStageOKFmt       = "  ok   %s\n"
	UpgradeStageWarnFmt     = "  warn %s: %v\n"
	UpgradeStageFailFmt     = "  fail %s: %v\n"
	UpgradeUpToDate         = "Already up to date; nothing to do."
	UpgradeDoneFmt          = "Upgrade to %s complete. Check your LimeSurvey install now.\n"
	UpgradeAbortedFmt       = "Upgrade aborted during %s (last completed stage: %s).\n"
	UpgradeArtifactFmt      = "  %s backup: %s\n"
	UpgradeSafeAbort        = "No application files were modified. The service may need a manual start."
	UpgradeManualRecovery   = "Application files were already modified; manual recovery from the backups above is required. The service was left stopped."

	CheckUse         = "check"
	CheckShort       = "Show the installed version and the release an upgrade would select"
	CheckCurrentFmt  = "Installed: %s\n"
	CheckReleaseFmt  = "  %-8s %s\n"
	CheckNoTargetFmt = "no release available for branch %q; verify the branch setting"
	CheckUpToDateFmt = "Already at the newest %s release.\n"
	CheckTargetFmt   = "Upgrade target for %s: %s\n"

	StatusUse   = "status"
	StatusShort = "Show the web server service status"

	PromptYesDefaultFmt = "%s [Y/n]: "
	PromptNoDefaultFmt  = "%s [y/N]: "
)
