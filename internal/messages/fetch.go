package messages

// Release download and staging messages.
const (
	FetchCreateDirFmt         = "create directory %s: %v"
	FetchRemovingStale        = "removing stale download"
	FetchRemovingStaleStaging = "removing stale staging directory"
	FetchRemoveStaleFmt       = "remove stale %s: %v"
	FetchCreateRequestFmt     = "create download request for %s: %v"
	FetchDownloadFmt          = "download %s: %v"
	FetchDownloadStatusFmt    = "download %s: unexpected status %s"
	FetchCreateTempFmt        = "create temp file: %v"
	FetchWriteFmt             = "write download %s: %v"
	FetchEmptyDownloadFmt     = "download %s: response body was empty"
	FetchMoveFmt              = "move download into place at %s: %v"
	FetchDownloaded           = "downloaded release package"
	FetchOpenArchiveFmt       = "open release archive %s: %v"
	FetchExtractFmt           = "extract release archive %s: %v"
	FetchUnsafeEntryFmt       = "archive entry %q escapes the staging directory"
	FetchReadStagingFmt       = "read staging directory %s: %v"
	FetchEmptyArchiveFmt      = "release archive extracted nothing into %s"
)
