package reconcile

import (
	"fmt"
	"io/fs"
	"os"
	"os/user"
	"strconv"

	"github.com/xenago/ls-updater/internal/config"
	"github.com/xenago/ls-updater/internal/messages"
)

// ParseOwner resolves a user:group spec to numeric ids. Either side may
// already be numeric.
func ParseOwner(spec string) (int, int, error) {
	userName, groupName, err := config.SplitOwner(spec)
	if err != nil {
		return 0, 0, err
	}
	uid, err := lookupUID(userName)
	if err != nil {
		return 0, 0, fmt.Errorf(messages.ReconcileLookupUserFmt, userName, err)
	}
	gid, err := lookupGID(groupName)
	if err != nil {
		return 0, 0, fmt.Errorf(messages.ReconcileLookupGroupFmt, groupName, err)
	}
	return uid, gid, nil
}

func lookupUID(name string) (int, error) {
	if id, err := strconv.Atoi(name); err == nil {
		return id, nil
	}
	u, err := user.Lookup(name)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(u.Uid)
}

func lookupGID(name string) (int, error) {
	if id, err := strconv.Atoi(name); err == nil {
		return id, nil
	}
	g, err := user.LookupGroup(name)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(g.Gid)
}

// ApplyOwnership walks the entire install tree setting the configured
// owner on every entry and the configured mode on every non-symlink. It
// runs as the final file-level step so no intermediate state leaves files
// owned by the invoking identity.
func (e *Engine) ApplyOwnership() error {
	uid, gid, err := ParseOwner(e.Owner)
	if err != nil {
		return err
	}
	return e.Sys.WalkDir(e.InstallPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf(messages.ReconcileOwnershipWalkFmt, path, err)
		}
		if err := e.Sys.Lchown(path, uid, gid); err != nil {
			return fmt.Errorf(messages.ReconcileChownFmt, path, err)
		}
		if d.Type()&os.ModeSymlink != 0 {
			return nil
		}
		if err := e.Sys.Chmod(path, e.Mode); err != nil {
			return fmt.Errorf(messages.ReconcileChmodFmt, path, err)
		}
		return nil
	})
}
