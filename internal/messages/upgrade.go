package messages

// Orchestrator messages.
const (
	UpgradeStageComplete      = "stage complete"
	UpgradeStageFailed        = "stage failed"
	UpgradeStageFailedFmt     = "stage %s failed: %w"
	UpgradePermissionsWarning = "permission normalization failed; attempting service start anyway"
	ResolveCurrentVersion     = "detected installed version"
	ResolveTargetVersion      = "selected target release"
)
