package messages

// Service controller messages.
const (
	ServiceCommandFailedOutputFmt = "%s %s: command %q failed (exit %d): %s"
	ServiceCommandFailedFmt       = "%s %s: command %q failed (exit %d): %v"
	ServiceUnknownInitSystemFmt   = "unknown init system %q"
	ServiceNameRequired           = "service name is required"
	ServiceRunnerRequired         = "command runner is required"
)
