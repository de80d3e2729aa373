package archive

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bitrise-io/go-utils/v2/log"
	"github.com/bmatcuk/doublestar/v4"
	"github.com/klauspost/compress/zip"
)

// ListArchives expands the provided glob patterns and partitions the results
// into readable zip files and wrong paths (missing files, directories, or
// files that are not zip archives). Patterns without wildcards are treated as
// literal paths so that a typo shows up as a wrong path instead of silently
// matching nothing.
func ListArchives(globs []string, logger log.Logger) (archives []string, wrongPaths []string) {
	var candidates []string
	for _, pattern := range globs {
		pattern = expandTilde(pattern)
		if !strings.ContainsAny(pattern, "*?[{") {
			candidates = append(candidates, pattern)
			continue
		}

		base, rest := doublestar.SplitPattern(filepath.ToSlash(pattern))
		matches, err := doublestar.Glob(os.DirFS(base), rest, doublestar.WithNoFollow())
		if err != nil {
			logger.Warnf("Error in archive pattern '%s': %s", pattern, err)
			wrongPaths = append(wrongPaths, pattern)
			continue
		}
		if len(matches) == 0 {
			logger.Warnf("No match for archive pattern: %s", pattern)
			continue
		}
		for _, match := range matches {
			candidates = append(candidates, filepath.Join(base, match))
		}
	}

	sort.Strings(candidates)
	for _, path := range candidates {
		if isZipFile(path) {
			archives = append(archives, path)
		} else {
			wrongPaths = append(wrongPaths, path)
		}
	}
	return archives, wrongPaths
}

// expandTilde resolves a leading ~ to the home directory. Single-quoted
// patterns like '~/flickr/*.zip' reach us unexpanded by the shell.
func expandTilde(pattern string) string {
	if pattern != "~" && !strings.HasPrefix(pattern, "~/") {
		return pattern
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return pattern
	}
	return filepath.Join(home, strings.TrimPrefix(pattern, "~"))
}

func isZipFile(path string) bool {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return false
	}
	r, err := zip.OpenReader(path)
	if err != nil {
		return false
	}
	_ = r.Close()
	return true
}
