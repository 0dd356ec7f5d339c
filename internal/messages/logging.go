package messages

// Logger setup messages.
const (
	LogSyslogFmt   = "connect to syslog: %v"
	LogFileDirFmt  = "create log directory for %s: %v"
	LogFileOpenFmt = "open log file %s: %v"
)
