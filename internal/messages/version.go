package messages

// Release code parsing messages.
const (
	VersionEmpty             = "empty release code"
	VersionInvalidFmt        = "invalid release code %q: %v"
	VersionPHPMissingVersion = "versionnumber not found in version.php"
	VersionPHPMissingBuild   = "buildnumber not found in version.php"
	VersionReadInstalledFmt  = "read installed version %s: %w"
	VersionParseInstalledFmt = "parse installed version %s: %w"
)
