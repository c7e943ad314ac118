package assets

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"

	"assetopt/internal/classify"
	"assetopt/internal/services"
)

// Discover returns the slash-separated names under root matching any include
// pattern and no exclude pattern, sorted. Only supported extensions are
// returned.
func Discover(root string, includes, excludes []string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "assets", "discover", "assets directory unavailable", err)
	}
	if !info.IsDir() {
		return nil, services.Wrap(services.ErrConfiguration, "assets", "discover",
			fmt.Sprintf("%s is not a directory", root), nil)
	}

	fsys := os.DirFS(root)
	seen := make(map[string]struct{})
	names := make([]string, 0)
	for _, pattern := range includes {
		matches, err := doublestar.Glob(fsys, pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, services.Wrap(services.ErrConfiguration, "assets", "discover",
				fmt.Sprintf("invalid pattern %q", pattern), err)
		}
		for _, name := range matches {
			if _, ok := seen[name]; ok {
				continue
			}
			if !classify.Supported(name) || isExcluded(name, excludes) {
				continue
			}
			seen[name] = struct{}{}
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

func isExcluded(name string, excludes []string) bool {
	for _, ex := range excludes {
		if ok, _ := doublestar.Match(ex, name); ok {
			return true
		}
	}
	return false
}

// Path joins a discovered name back onto root.
func Path(root, name string) string {
	return filepath.Join(root, filepath.FromSlash(name))
}
