// Package lsversion parses and compares LimeSurvey release codes.
// A release code pairs an application version with a build number,
// e.g. "3.22.0+191105". The version segment follows semantic versioning
// and may carry a pre-release tag such as "-RC4"; the build segment is a
// date-derived integer that only breaks ties between equal versions.
package lsversion

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	goversion "github.com/hashicorp/go-version"

	"github.com/xenago/ls-updater/internal/messages"
)

// VersionPHPPath is the file under the install root that records the
// installed version and build number.
const VersionPHPPath = "application/config/version.php"

// Code identifies one release by version and build number.
type Code struct {
	Version *goversion.Version
	Build   string
}

// Parse parses a release code such as "3.22.0+191105" or "5.0.0-RC4".
// The build segment is optional.
func Parse(s string) (Code, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Code{}, fmt.Errorf(messages.VersionEmpty)
	}
	ver := s
	build := ""
	if i := strings.IndexByte(s, '+'); i >= 0 {
		ver, build = s[:i], s[i+1:]
	}
	parsed, err := goversion.NewVersion(ver)
	if err != nil {
		return Code{}, fmt.Errorf(messages.VersionInvalidFmt, s, err)
	}
	return Code{Version: parsed, Build: build}, nil
}

// String renders the code in the same form Parse accepts.
func (c Code) String() string {
	if c.Version == nil {
		return ""
	}
	if c.Build == "" {
		return c.Version.Original()
	}
	return c.Version.Original() + "+" + c.Build
}

// Compare orders two codes: by semantic version first, then by build
// number (numeric when both builds are integers, lexical otherwise).
func (c Code) Compare(other Code) int {
	if cmp := c.Version.Compare(other.Version); cmp != 0 {
		return cmp
	}
	if c.Build == other.Build {
		return 0
	}
	a, aErr := strconv.Atoi(c.Build)
	b, bErr := strconv.Atoi(other.Build)
	if aErr == nil && bErr == nil {
		switch {
		case a < b:
			return -1
		case a > b:
			return 1
		default:
			return 0
		}
	}
	return strings.Compare(c.Build, other.Build)
}

// Major returns the major version component.
func (c Code) Major() int {
	return c.Version.Segments()[0]
}

var (
	versionNumberRe = regexp.MustCompile(`\$config\['versionnumber'\]\s*=\s*'([^']+)'`)
	buildNumberRe   = regexp.MustCompile(`\$config\['buildnumber'\]\s*=\s*'?([0-9]+)'?`)
)

// FromVersionPHP extracts the installed release code from the contents of
// application/config/version.php.
func FromVersionPHP(data []byte) (Code, error) {
	vm := versionNumberRe.FindSubmatch(data)
	if vm == nil {
		return Code{}, fmt.Errorf(messages.VersionPHPMissingVersion)
	}
	bm := buildNumberRe.FindSubmatch(data)
	if bm == nil {
		return Code{}, fmt.Errorf(messages.VersionPHPMissingBuild)
	}
	return Parse(string(vm[1]) + "+" + string(bm[1]))
}

// ReadInstalled reads the installed release code from the install tree.
func ReadInstalled(installPath string) (Code, error) {
	path := filepath.Join(installPath, filepath.FromSlash(VersionPHPPath))
	data, err := os.ReadFile(path)
	if err != nil {
		return Code{}, fmt.Errorf(messages.VersionReadInstalledFmt, path, err)
	}
	code, err := FromVersionPHP(data)
	if err != nil {
		return Code{}, fmt.Errorf(messages.VersionParseInstalledFmt, path, err)
	}
	return code, nil
}
