package runstore

import (
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestWriteReadJSONRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "out.json")
	in := map[string]any{"hello": "world"}
	if err := WriteJSON(path, in); err != nil {
		t.Fatalf("write: %v", err)
	}
	var out map[string]any
	if err := ReadJSON(path, &out); err != nil {
		t.Fatalf("read: %v", err)
	}
	if out["hello"] != "world" {
		t.Fatalf("round trip mismatch: %v", out)
	}
}

func TestArtifactPathFormat(t *testing.T) {
	ts := time.Date(2026, 2, 1, 13, 4, 5, 0, time.UTC)
	got := ArtifactPath("outputs", ts)
	want := filepath.Join("outputs", "tiktok_seed_users_20260201_130405.json")
	if got != want {
		t.Fatalf("artifact path = %q, want %q", got, want)
	}
	if !strings.HasSuffix(CheckpointPath(got), ".partial.json") {
		t.Fatalf("checkpoint path = %q", CheckpointPath(got))
	}
}

func TestListArtifactsSkipsPartialsAndStrangers(t *testing.T) {
	dir := t.TempDir()
	a1 := ArtifactPath(dir, time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC))
	a2 := ArtifactPath(dir, time.Date(2026, 2, 2, 0, 0, 0, 0, time.UTC))
	for _, p := range []string{a2, a1, CheckpointPath(a2), filepath.Join(dir, "notes.json")} {
		if err := WriteJSON(p, map[string]any{}); err != nil {
			t.Fatal(err)
		}
	}

	paths, err := ListArtifacts(dir)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(paths) != 2 || paths[0] != a1 || paths[1] != a2 {
		t.Fatalf("paths = %v", paths)
	}

	latest, err := LatestArtifact(dir)
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if latest != a2 {
		t.Fatalf("latest = %q, want %q", latest, a2)
	}
}

func TestListArtifactsMissingDir(t *testing.T) {
	paths, err := ListArtifacts(filepath.Join(t.TempDir(), "missing"))
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(paths) != 0 {
		t.Fatalf("paths = %v", paths)
	}
}
