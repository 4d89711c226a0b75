package collect

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"tiktok-meta-collector/internal/model"
	"tiktok-meta-collector/internal/runstore"
)

func installFakeYTDLP(t *testing.T, script string) {
	t.Helper()
	bin := filepath.Join(t.TempDir(), "bin")
	if err := os.MkdirAll(bin, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(bin, "yt-dlp"), []byte(script), 0o755); err != nil {
		t.Fatal(err)
	}
	// prepend: the fake scripts still need the system shell utilities
	t.Setenv("PATH", bin+":"+os.Getenv("PATH"))
}

func writeSeeds(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "seeds.txt")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func fixtureJSON(t *testing.T, entryCount int) string {
	t.Helper()
	entries := make([]map[string]any, entryCount)
	for i := range entries {
		entries[i] = map[string]any{"id": fmt.Sprintf("v%d", i), "title": "clip"}
	}
	data, err := json.Marshal(map[string]any{"uploader": "Someone", "entries": entries})
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "flat.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func noPacing(o Options) Options {
	o.SleepSec = 0
	o.JitterSec = 0
	o.Sleep = func(time.Duration) {}
	o.Rand = func() float64 { return 0 }
	o.Stdout = &bytes.Buffer{}
	return o
}

func TestRunHappyPath(t *testing.T) {
	fixture := fixtureJSON(t, 25)
	installFakeYTDLP(t, "#!/bin/sh\ncat \"$YTDLP_FIXTURE\"\n")
	t.Setenv("YTDLP_FIXTURE", fixture)

	seedPath := writeSeeds(t, "alice\n#comment\n\n@bob\nalice\n")
	outDir := filepath.Join(t.TempDir(), "outputs")

	var progress bytes.Buffer
	opts := noPacing(Options{
		SeedPath:  seedPath,
		OutDir:    outDir,
		MaxVideos: 20,
		Timeout:   10 * time.Second,
	})
	opts.Stdout = &progress

	res, err := Run(opts)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.Status != model.RunStatusCompleted {
		t.Fatalf("status = %q", res.Status)
	}
	if res.UserCountRequested != 2 || res.UserCountSucceeded != 2 || res.UserCountFailed != 0 {
		t.Fatalf("counts = %+v", res)
	}

	var artifact model.RunArtifact
	if err := runstore.ReadJSON(res.ArtifactPath, &artifact); err != nil {
		t.Fatalf("read artifact: %v", err)
	}
	if len(artifact.Results) != 2 || len(artifact.Errors) != 0 {
		t.Fatalf("artifact results=%d errors=%d", len(artifact.Results), len(artifact.Errors))
	}
	if artifact.Results[0].Profile.Username != "alice" || artifact.Results[1].Profile.Username != "bob" {
		t.Fatalf("usernames = %q, %q", artifact.Results[0].Profile.Username, artifact.Results[1].Profile.Username)
	}
	// 25 upstream entries, ceiling of 20
	if len(artifact.Results[0].Videos) != 20 {
		t.Fatalf("videos = %d, want 20", len(artifact.Results[0].Videos))
	}
	if artifact.UserCountSucceeded+artifact.UserCountFailed != artifact.UserCountRequested {
		t.Fatalf("count invariant broken: %+v", artifact)
	}

	if !strings.Contains(progress.String(), "[1/2] alice") || !strings.Contains(progress.String(), "OK (20 videos)") {
		t.Fatalf("progress output:\n%s", progress.String())
	}

	// checkpoint is cleaned up once the final artifact lands
	if _, err := os.Stat(runstore.CheckpointPath(res.ArtifactPath)); !os.IsNotExist(err) {
		t.Fatalf("checkpoint still present: %v", err)
	}
}

func TestRunRecordsFailureAndContinues(t *testing.T) {
	script := `#!/bin/sh
case "$*" in
  *carol*) echo 'ERROR: blocked' >&2; exit 1 ;;
  *) echo '{"entries":[]}' ;;
esac
`
	installFakeYTDLP(t, script)
	seedPath := writeSeeds(t, "carol\ndave\n")
	outDir := filepath.Join(t.TempDir(), "outputs")

	res, err := Run(noPacing(Options{
		SeedPath:  seedPath,
		OutDir:    outDir,
		MaxVideos: 5,
		Timeout:   10 * time.Second,
	}))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.Status != model.RunStatusCompleted {
		t.Fatalf("status = %q", res.Status)
	}
	if res.UserCountSucceeded != 1 || res.UserCountFailed != 1 {
		t.Fatalf("counts = %+v", res)
	}

	var artifact model.RunArtifact
	if err := runstore.ReadJSON(res.ArtifactPath, &artifact); err != nil {
		t.Fatal(err)
	}
	if len(artifact.Errors) != 1 {
		t.Fatalf("errors = %d", len(artifact.Errors))
	}
	rec := artifact.Errors[0]
	if rec.Username != "carol" || rec.Returncode != 1 || !strings.Contains(rec.Error, "blocked") {
		t.Fatalf("error record = %+v", rec)
	}
	if rec.ProfileURL != "https://www.tiktok.com/@carol" {
		t.Fatalf("profile_url = %q", rec.ProfileURL)
	}
}

func TestRunTimeoutClassification(t *testing.T) {
	script := `#!/bin/sh
case "$*" in
  *carol*) sleep 5 ;;
  *) echo '{"entries":[]}' ;;
esac
`
	installFakeYTDLP(t, script)
	seedPath := writeSeeds(t, "carol\ndave\n")

	res, err := Run(noPacing(Options{
		SeedPath:  seedPath,
		OutDir:    filepath.Join(t.TempDir(), "outputs"),
		MaxVideos: 5,
		Timeout:   150 * time.Millisecond,
	}))
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	var artifact model.RunArtifact
	if err := runstore.ReadJSON(res.ArtifactPath, &artifact); err != nil {
		t.Fatal(err)
	}
	if len(artifact.Errors) != 1 || len(artifact.Results) != 1 {
		t.Fatalf("errors=%d results=%d", len(artifact.Errors), len(artifact.Results))
	}
	rec := artifact.Errors[0]
	if rec.Username != "carol" || rec.Error != "timeout" || rec.Returncode != 124 {
		t.Fatalf("error record = %+v", rec)
	}
	// dave still ran after carol timed out
	if artifact.Results[0].Profile.Username != "dave" {
		t.Fatalf("continuation broken: %+v", artifact.Results[0].Profile)
	}
}

func TestRunFailFastAborts(t *testing.T) {
	installFakeYTDLP(t, "#!/bin/sh\necho 'ERROR: blocked' >&2\nexit 1\n")
	seedPath := writeSeeds(t, "alice\nbob\ncarol\n")

	res, err := Run(noPacing(Options{
		SeedPath:  seedPath,
		OutDir:    filepath.Join(t.TempDir(), "outputs"),
		MaxVideos: 5,
		Timeout:   10 * time.Second,
		FailFast:  true,
	}))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.Status != model.RunStatusAborted {
		t.Fatalf("status = %q", res.Status)
	}
	if res.UserCountFailed != 1 || res.UserCountSucceeded != 0 {
		t.Fatalf("counts = %+v", res)
	}

	var artifact model.RunArtifact
	if err := runstore.ReadJSON(res.ArtifactPath, &artifact); err != nil {
		t.Fatal(err)
	}
	// aborted early: strictly fewer outcomes than requested
	if artifact.UserCountRequested != 3 || len(artifact.Errors) != 1 || len(artifact.Results) != 0 {
		t.Fatalf("artifact = %+v", artifact)
	}
}

func TestRunZeroSeedsWritesEmptyArtifact(t *testing.T) {
	seedPath := writeSeeds(t, "# only a comment\n\n")
	outDir := filepath.Join(t.TempDir(), "outputs")

	res, err := Run(noPacing(Options{
		SeedPath:  seedPath,
		OutDir:    outDir,
		MaxVideos: 5,
	}))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.Status != model.RunStatusCompleted {
		t.Fatalf("status = %q", res.Status)
	}

	var artifact model.RunArtifact
	if err := runstore.ReadJSON(res.ArtifactPath, &artifact); err != nil {
		t.Fatal(err)
	}
	if artifact.UserCountRequested != 0 || len(artifact.Results) != 0 || len(artifact.Errors) != 0 {
		t.Fatalf("artifact = %+v", artifact)
	}
}

func TestRunMissingSeedFileIsFatal(t *testing.T) {
	_, err := Run(noPacing(Options{
		SeedPath: filepath.Join(t.TempDir(), "missing.txt"),
		OutDir:   filepath.Join(t.TempDir(), "outputs"),
	}))
	if err == nil {
		t.Fatal("expected configuration error for missing seed file")
	}
}

func TestRunAppliesPolitenessDelayAfterEveryUser(t *testing.T) {
	installFakeYTDLP(t, "#!/bin/sh\necho '{\"entries\":[]}'\n")
	seedPath := writeSeeds(t, "alice\nbob\n")

	var sleeps []time.Duration
	opts := noPacing(Options{
		SeedPath:  seedPath,
		OutDir:    filepath.Join(t.TempDir(), "outputs"),
		MaxVideos: 5,
		Timeout:   10 * time.Second,
	})
	opts.SleepSec = 2.0
	opts.JitterSec = 1.0
	opts.Rand = func() float64 { return 0.5 }
	opts.Sleep = func(d time.Duration) { sleeps = append(sleeps, d) }

	if _, err := Run(opts); err != nil {
		t.Fatalf("run: %v", err)
	}
	// delay fires after the last identifier too
	if len(sleeps) != 2 {
		t.Fatalf("sleep count = %d, want 2", len(sleeps))
	}
	want := 2500 * time.Millisecond
	for _, d := range sleeps {
		if d != want {
			t.Fatalf("delay = %v, want %v", d, want)
		}
	}
}
