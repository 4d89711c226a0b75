// Package seeds loads and cleans the seed username list that drives a
// collection run.
package seeds

import (
	"fmt"
	"os"
	"regexp"
	"strings"
)

var wellFormedPattern = regexp.MustCompile(`^[A-Za-z0-9._]+$`)

// IsWellFormed reports whether a username sticks to the basic TikTok handle
// character set. Load keeps malformed entries regardless; extraction fails
// loudly for them instead of this layer guessing.
func IsWellFormed(username string) bool {
	return wellFormedPattern.MatchString(username)
}

// Load reads one username per line from path. Blank lines and #-comments
// are skipped, surrounding whitespace and one leading @ are stripped, and
// duplicates are removed case-insensitively keeping first-seen order.
func Load(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file %s: %w", path, err)
	}

	seen := make(map[string]bool)
	users := make([]string, 0, 16)
	for _, line := range strings.Split(string(data), "\n") {
		u := strings.TrimSpace(line)
		if u == "" || strings.HasPrefix(u, "#") {
			continue
		}
		u = strings.TrimPrefix(u, "@")
		key := strings.ToLower(u)
		if seen[key] {
			continue
		}
		seen[key] = true
		users = append(users, u)
	}
	return users, nil
}
