package naming

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
)

var taggedPattern = regexp.MustCompile(`(?i)s(\d{1,2})e(\d{1,3})(?:v(\d+))?`)

// ParseTagged extracts (season, episode, version) from a canonical SxxExx
// token inside a filename. A tag without a version suffix is version 1.
func ParseTagged(name string) (season, episode, version int, ok bool) {
	m := taggedPattern.FindStringSubmatch(name)
	if m == nil {
		return 0, 0, 0, false
	}
	season, _ = strconv.Atoi(m[1])
	episode, _ = strconv.Atoi(m[2])
	version = 1
	if m[3] != "" {
		version, _ = strconv.Atoi(m[3])
	}
	return season, episode, version, true
}

// MaxExistingVersion scans destDir for files tagged with the given (season,
// episode) pair and returns the highest version present, or 0 when the pair
// is absent. A missing destination directory counts as empty.
func MaxExistingVersion(destDir string, season, episode int) (int, error) {
	entries, err := os.ReadDir(destDir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("scan destination %s: %w", destDir, err)
	}
	max := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		s, e, v, ok := ParseTagged(entry.Name())
		if !ok || s != season || e != episode {
			continue
		}
		if v > max {
			max = v
		}
	}
	return max, nil
}

// SupersededFiles lists files in destDir tagged with (season, episode) whose
// version is strictly below the given version; these are deleted after a
// successful commit of the newer version.
func SupersededFiles(destDir string, season, episode, below int) ([]string, error) {
	entries, err := os.ReadDir(destDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan destination %s: %w", destDir, err)
	}
	var stale []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		s, e, v, ok := ParseTagged(entry.Name())
		if !ok || s != season || e != episode {
			continue
		}
		if v < below {
			stale = append(stale, entry.Name())
		}
	}
	return stale, nil
}
