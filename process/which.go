package process

import (
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sys/unix"
)

// LookupFunc resolves an executable name against a search path. An empty
// path means the PATH of the current environment.
type LookupFunc func(name, path string) (string, bool)

// Which is the default LookupFunc. A name containing a slash is checked
// directly; any other name is searched in each directory of path, in order.
func Which(name, path string) (string, bool) {
	if name == "" {
		return "", false
	}
	if strings.Contains(name, "/") {
		if isExecutable(name) {
			return name, true
		}
		return "", false
	}
	if path == "" {
		path = os.Getenv("PATH")
	}
	for _, dir := range filepath.SplitList(path) {
		if dir == "" {
			dir = "."
		}
		candidate := filepath.Join(dir, name)
		if isExecutable(candidate) {
			return candidate, true
		}
	}
	return "", false
}

func isExecutable(p string) bool {
	fi, err := os.Stat(p)
	if err != nil || !fi.Mode().IsRegular() {
		return false
	}
	return unix.Access(p, unix.X_OK) == nil
}
