package messages

// Run lock messages.
const (
	LockOpenFmt = "open lock %s: %v"
	LockFmt     = "lock %s: %v"
	LockHeldFmt = "another ls-updater run holds %s (waited %s)"
)
