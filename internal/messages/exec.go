package messages

// Process execution messages.
const (
	ExecCommandFailedOutputFmt = "command %q failed (exit %d): %s"
	ExecCommandFailedFmt       = "command %q failed (exit %d): %v"
	ExecTimeoutFmt             = "timed out after %s: %w"
)
