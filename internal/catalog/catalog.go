// Package catalog turns the LimeSurvey downloads page into an ordered set
// of release descriptors and selects the upgrade target for a branch.
// Parsing is deterministic: the same page content always yields the same
// releases in the same order. Malformed rows are logged and skipped; only
// an unusable page as a whole is an error.
package catalog

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/xenago/ls-updater/internal/lsversion"
	"github.com/xenago/ls-updater/internal/messages"
)

// DownloadsURL is the community releases page this tool scrapes.
const DownloadsURL = "https://community.limesurvey.org/downloads/"

// ErrNoRelease indicates no release on the page matched the requested
// branch. Callers must treat this as fatal before any mutation occurs.
var ErrNoRelease = errors.New("no release matches the configured branch")

var (
	httpClient      = &http.Client{Timeout: 30 * time.Second}
	retryDelay      = 250 * time.Millisecond
	fetchRetryCount = 1
)

// Release describes one downloadable build listed on the page.
type Release struct {
	Code   lsversion.Code
	Branch string
	URL    string
}

// Fetch retrieves the downloads page, retrying once on transient failures.
func Fetch(ctx context.Context, pageURL string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= fetchRetryCount; attempt++ {
		if attempt > 0 {
			time.Sleep(retryDelay)
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
		if err != nil {
			return nil, fmt.Errorf(messages.CatalogCreateRequestFmt, err)
		}
		req.Header.Set("User-Agent", "ls-updater")

		resp, err := httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf(messages.CatalogFetchFmt, pageURL, err)
			continue
		}
		if resp.StatusCode != http.StatusOK {
			_ = resp.Body.Close()
			lastErr = fmt.Errorf(messages.CatalogFetchStatusFmt, pageURL, resp.Status)
			continue
		}
		body, err := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf(messages.CatalogReadBodyFmt, pageURL, err)
			continue
		}
		return body, nil
	}
	return nil, lastErr
}

// Parse extracts the releases from the page content, preserving page
// order. Rows whose URL or version cannot be understood are logged via
// logger and skipped.
func Parse(page []byte, logger *zap.Logger) ([]Release, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return nil, fmt.Errorf(messages.CatalogParsePageFmt, err)
	}
	var releases []Release
	doc.Find("a.release-button").Each(func(_ int, sel *goquery.Selection) {
		url, ok := sel.Attr("href")
		if !ok || url == "" {
			logger.Warn(messages.CatalogRowMissingHref)
			return
		}
		branch, ok := branchFromURL(url)
		if !ok {
			logger.Warn(messages.CatalogRowUnknownBranch, zap.String("url", url))
			return
		}
		code, err := codeFromURL(url)
		if err != nil {
			logger.Warn(messages.CatalogRowBadVersion, zap.String("url", url), zap.Error(err))
			return
		}
		releases = append(releases, Release{Code: code, Branch: branch, URL: url})
	})
	if len(releases) == 0 {
		return nil, fmt.Errorf(messages.CatalogNoReleases)
	}
	return releases, nil
}

// branchFromURL maps the download URL path to a release branch. The page
// files LTS builds under "lts", current stable under "latest-stable", and
// development builds under "unstable-releases".
func branchFromURL(url string) (string, bool) {
	switch {
	case strings.Contains(url, "lts"):
		return "lts", true
	case strings.Contains(url, "latest-stable"):
		return "unstable", true
	case strings.Contains(url, "unstable-releases"):
		return "dev", true
	default:
		return "", false
	}
}

// codeFromURL extracts the release code from a download URL such as
// .../limesurvey3.22.0+191105.zip.
func codeFromURL(url string) (lsversion.Code, error) {
	name := url
	if i := strings.LastIndexByte(name, '/'); i >= 0 {
		name = name[i+1:]
	}
	name = strings.TrimSuffix(name, ".zip")
	if i := strings.LastIndex(name, "limesurvey"); i >= 0 {
		name = name[i+len("limesurvey"):]
	}
	return lsversion.Parse(name)
}

// SelectTarget returns the highest-versioned release on the requested
// branch. Scanning is stable, so equal inputs always select the same
// release.
func SelectTarget(releases []Release, branch string) (Release, error) {
	var best Release
	found := false
	for _, rel := range releases {
		if rel.Branch != branch {
			continue
		}
		if !found || rel.Code.Compare(best.Code) > 0 {
			best = rel
			found = true
		}
	}
	if !found {
		return Release{}, fmt.Errorf("%w: %s", ErrNoRelease, branch)
	}
	return best, nil
}
