package messages

// Backup manager messages.
const (
	BackupCreateDirFmt       = "create backup directory %s: %v"
	BackupDumpExistsFmt      = "database dump already exists at %s; refusing to overwrite"
	BackupDumpStarting       = "backing up database"
	BackupDumpFailedFmt      = "dump database %s: %w"
	BackupDumpEmptyFmt       = "database dump %s is empty"
	BackupArchiveExistsFmt   = "filesystem backup already exists at %s; refusing to overwrite"
	BackupArchiveStarting    = "archiving install tree"
	BackupArchiveCollectFmt  = "collect files under %s: %v"
	BackupArchiveCreateFmt   = "create archive %s: %v"
	BackupArchiveWriteFmt    = "write archive %s: %v"
	BackupArchiveEmptyFmt    = "filesystem archive %s is empty"
	BackupArtifactMissingFmt = "backup artifact %s was not created: %v"

	BackupPreflightOpenFmt      = "open database connection: %v"
	BackupPreflightPingFmt      = "ping database %s:%d/%s: %v"
	BackupDefaultsFileFmt       = "parse MySQL defaults file %s: %v"
	BackupDefaultsFileNoUserFmt = "MySQL defaults file %s has no [client] user"
)
