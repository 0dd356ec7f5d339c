package messages

// Config loading and validation messages.
const (
	ConfigReadFmt               = "read config %s: %w"
	ConfigInvalidTOMLFmt        = "parse config %s: %w"
	ConfigUnrecognizedKeysFmt   = "config %s has unrecognized keys: %v"
	ConfigExpandPathFmt         = "expand path %s: %v"
	ConfigFieldRequiredFmt      = "config %s: %s is required"
	ConfigBranchInvalidFmt      = "config %s: branch %q is not one of %s"
	ConfigPortInvalidFmt        = "config %s: database.port %d is out of range"
	ConfigInitSystemInvalidFmt  = "config %s: web_server.init_system %q is not a supported init system"
	ConfigOwnerInvalidFmt       = "config %s: install.owner %q: %v"
	ConfigOwnerFormat           = "expected user:group"
	ConfigPermissionsInvalidFmt = "config %s: install.octal_permissions %q: %v"
	ConfigPermissionsRangeFmt   = "octal mask %s exceeds 7777"
	ConfigInstallPathMissingFmt = "config %s: install.path %s does not exist: %v"
	ConfigInstallPathNotDirFmt  = "config %s: install.path %s is not a directory"
	ConfigInstallPathAccessFmt  = "config %s: install.path %s is not writable and traversable: %v"
)
