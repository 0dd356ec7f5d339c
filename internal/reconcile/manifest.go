package reconcile

import (
	"github.com/xenago/ls-updater/internal/lsversion"
)

// Rule names one path, relative to the install root, that must survive the
// release swap because it holds instance data rather than application code.
type Rule struct {
	// Path is slash-separated and relative to the install root. It may
	// name a file, a directory (captured recursively), or a symlink.
	Path string
	// Majors restricts the rule to installs whose current major version is
	// listed. Empty means the rule always applies.
	Majors []int
}

// Manifest is the ordered set of preservation rules for a run. It is
// built once and read-only during execution.
type Manifest []Rule

// DefaultManifest returns the paths that hold user and instance data in a
// LimeSurvey install: uploaded content, the local configuration, and (on
// 4.x and 5.x, which are the only lines that ship it) the security
// settings file. Everything else under the install root is replaceable
// application code.
func DefaultManifest() Manifest {
	return Manifest{
		{Path: "upload"},
		{Path: "application/config/config.php"},
		{Path: "application/config/security.php", Majors: []int{4, 5}},
	}
}

// Active returns the relative paths whose rules apply to the current
// version, preserving manifest order.
func (m Manifest) Active(current lsversion.Code) []string {
	var paths []string
	major := current.Major()
	for _, rule := range m {
		if len(rule.Majors) == 0 {
			paths = append(paths, rule.Path)
			continue
		}
		for _, allowed := range rule.Majors {
			if major == allowed {
				paths = append(paths, rule.Path)
				break
			}
		}
	}
	return paths
}
