package runstore

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	collectLockDirName   = ".collect.lock"
	collectLockOwnerFile = "owner.json"
)

type CollectLock struct {
	lockDir string
}

type collectLockOwner struct {
	PID       int    `json:"pid"`
	CreatedAt string `json:"created_at"`
	Hostname  string `json:"hostname,omitempty"`
	SeedFile  string `json:"seed_file,omitempty"`
}

// AcquireCollectLock claims an output directory for one collection run over
// seedFile. Lock is a directory so acquisition is a single atomic mkdir; the
// owner record tells a blocked second run which seed list is in flight.
func AcquireCollectLock(outDir, seedFile string) (CollectLock, error) {
	target := strings.TrimSpace(outDir)
	if target == "" {
		return CollectLock{}, fmt.Errorf("output directory is required")
	}

	lockDir := filepath.Join(target, collectLockDirName)
	if err := os.Mkdir(lockDir, 0o755); err != nil {
		if os.IsExist(err) {
			ownerPath := filepath.Join(lockDir, collectLockOwnerFile)
			var owner collectLockOwner
			if readErr := ReadJSON(ownerPath, &owner); readErr == nil && owner.PID > 0 && owner.CreatedAt != "" {
				return CollectLock{}, fmt.Errorf(
					"output directory is locked: %s (pid=%d created_at=%s host=%s seed=%s)",
					target, owner.PID, owner.CreatedAt, owner.Hostname, owner.SeedFile,
				)
			}
			return CollectLock{}, fmt.Errorf("output directory is locked: %s", target)
		}
		return CollectLock{}, fmt.Errorf("acquire collect lock for %s: %w", target, err)
	}

	owner := collectLockOwner{
		PID:       os.Getpid(),
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
		Hostname:  hostnameOrUnknown(),
		SeedFile:  strings.TrimSpace(seedFile),
	}
	ownerPath := filepath.Join(lockDir, collectLockOwnerFile)
	if err := WriteJSON(ownerPath, owner); err != nil {
		_ = os.Remove(lockDir)
		return CollectLock{}, fmt.Errorf("write collect lock owner for %s: %w", target, err)
	}

	return CollectLock{lockDir: lockDir}, nil
}

func (l CollectLock) Release() error {
	if strings.TrimSpace(l.lockDir) == "" {
		return nil
	}
	_ = os.Remove(filepath.Join(l.lockDir, collectLockOwnerFile))
	if err := os.Remove(l.lockDir); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("release collect lock %s: %w", l.lockDir, err)
	}
	return nil
}

func hostnameOrUnknown() string {
	host, err := os.Hostname()
	if err != nil {
		return "unknown"
	}
	host = strings.TrimSpace(host)
	if host == "" {
		return "unknown"
	}
	return host
}
