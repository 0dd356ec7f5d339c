package messages

// Release catalog messages.
const (
	CatalogCreateRequestFmt = "create releases request: %v"
	CatalogFetchFmt         = "fetch releases page %s: %v"
	CatalogFetchStatusFmt   = "fetch releases page %s: unexpected status %s"
	CatalogReadBodyFmt      = "read releases page %s: %v"
	CatalogParsePageFmt     = "parse releases page: %v"
	CatalogNoReleases       = "no releases found on page"
	CatalogRowMissingHref   = "release row has no href; skipping"
	CatalogRowUnknownBranch = "release URL matches no known branch; skipping"
	CatalogRowBadVersion    = "release URL has unparseable version; skipping"
)
