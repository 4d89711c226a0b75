// Package runstore persists run artifacts: atomic file writes, artifact
// naming, and a lock that keeps two collectors out of one output directory.
package runstore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

const artifactPrefix = "tiktok_seed_users_"

func Mkdir(path string) error {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("create directory %s: %w", path, err)
	}
	return nil
}

// WriteBytes writes data to path atomically via a temp file and rename, so a
// crash mid-write never leaves a truncated artifact behind.
func WriteBytes(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create parent for %s: %w", path, err)
	}

	tmp, err := os.CreateTemp(dir, ".ttmc-tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file for %s: %w", path, err)
	}
	tmpPath := tmp.Name()
	cleanup := func() {
		_ = os.Remove(tmpPath)
	}

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("write temp file for %s: %w", path, err)
	}
	if err := tmp.Chmod(0o644); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("chmod temp file for %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("close temp file for %s: %w", path, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		cleanup()
		return fmt.Errorf("atomic rename for %s: %w", path, err)
	}
	return nil
}

func WriteJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal JSON for %s: %w", path, err)
	}
	data = append(data, '\n')
	return WriteBytes(path, data)
}

func ReadJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read file %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parse JSON %s: %w", path, err)
	}
	return nil
}

// ArtifactPath returns the timestamped artifact location for a run started
// at t. The timestamp keeps one file per run with no overwrites.
func ArtifactPath(outDir string, t time.Time) string {
	name := fmt.Sprintf("%s%s.json", artifactPrefix, t.UTC().Format("20060102_150405"))
	return filepath.Join(outDir, name)
}

// CheckpointPath is the sibling partial-progress file for an artifact; same
// schema, rewritten after every identifier and removed once the final
// artifact lands.
func CheckpointPath(artifactPath string) string {
	return artifactPath + ".partial.json"
}

// ListArtifacts returns full paths of run artifacts in outDir, sorted by
// name (and therefore by run timestamp).
func ListArtifacts(outDir string) ([]string, error) {
	entries, err := os.ReadDir(outDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("read output directory %s: %w", outDir, err)
	}

	paths := make([]string, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, artifactPrefix) || !strings.HasSuffix(name, ".json") {
			continue
		}
		if strings.HasSuffix(name, ".partial.json") {
			continue
		}
		paths = append(paths, filepath.Join(outDir, name))
	}
	sort.Strings(paths)
	return paths, nil
}

func LatestArtifact(outDir string) (string, error) {
	paths, err := ListArtifacts(outDir)
	if err != nil {
		return "", err
	}
	if len(paths) == 0 {
		return "", fmt.Errorf("no run artifacts found in %s", outDir)
	}
	return paths[len(paths)-1], nil
}
