package upgrade

// Stage identifies one step of the upgrade state machine. The orchestrator
// is always at exactly one stage; transitions are strictly forward and
// never skip.
type Stage int

const (
	StageResolve Stage = iota
	StageStop
	StageBackup
	StageInstall
	StageReconcile
	StagePermissions
	StageStart
	StageDone
	StageAborted
)

var stageNames = map[Stage]string{
	StageResolve:     "resolve",
	StageStop:        "stop",
	StageBackup:      "backup",
	StageInstall:     "install",
	StageReconcile:   "reconcile",
	StagePermissions: "permissions",
	StageStart:       "start",
	StageDone:        "done",
	StageAborted:     "aborted",
}

func (s Stage) String() string {
	if name, ok := stageNames[s]; ok {
		return name
	}
	return "unknown"
}

// destructive reports whether a failure at this stage leaves the install
// tree (or the running service's relationship to it) already modified, so
// the operator must recover manually.
func (s Stage) destructive() bool {
	switch s {
	case StageInstall, StageReconcile, StagePermissions, StageStart:
		return true
	default:
		return false
	}
}
