package ytdlp

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
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

func TestProfileURL(t *testing.T) {
	if got := ProfileURL("alice"); got != "https://www.tiktok.com/@alice" {
		t.Fatalf("unexpected profile URL: %q", got)
	}
}

func TestBuildArgs(t *testing.T) {
	got := buildArgs(InvokeOptions{URL: "https://www.tiktok.com/@alice", MaxVideos: 20})
	want := []string{"-J", "--flat-playlist", "--playlist-end", "20", "https://www.tiktok.com/@alice"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("args = %v, want %v", got, want)
	}

	got = buildArgs(InvokeOptions{URL: "u", MaxVideos: 5, UserAgent: "Mozilla/5.0"})
	want = []string{"-J", "--flat-playlist", "--playlist-end", "5", "--user-agent", "Mozilla/5.0", "u"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("args with user agent = %v, want %v", got, want)
	}
}

func TestInvokeSuccess(t *testing.T) {
	installFakeYTDLP(t, "#!/bin/sh\necho '{\"uploader\":\"Alice\",\"entries\":[{\"id\":\"v1\"}]}'\n")
	o := Invoke(InvokeOptions{URL: ProfileURL("alice"), MaxVideos: 10, Timeout: 10 * time.Second})
	if !o.OK() {
		t.Fatalf("expected success, got err=%q code=%d", o.Err, o.Returncode)
	}
	if o.Raw["uploader"] != "Alice" {
		t.Fatalf("payload not passed through: %v", o.Raw)
	}
}

func TestInvokeFakeScriptCanCallSystemTools(t *testing.T) {
	fixture := filepath.Join(t.TempDir(), "flat.json")
	if err := os.WriteFile(fixture, []byte(`{"uploader":"Alice","entries":[]}`), 0o644); err != nil {
		t.Fatal(err)
	}
	// the fake delegates to cat, which must stay resolvable on PATH
	installFakeYTDLP(t, "#!/bin/sh\ncat \"$YTDLP_FIXTURE\"\n")
	t.Setenv("YTDLP_FIXTURE", fixture)

	o := Invoke(InvokeOptions{URL: "u", MaxVideos: 1, Timeout: 10 * time.Second})
	if !o.OK() {
		t.Fatalf("expected success, got err=%q code=%d", o.Err, o.Returncode)
	}
	if o.Raw["uploader"] != "Alice" {
		t.Fatalf("payload not passed through: %v", o.Raw)
	}
}

func TestInvokeNonZeroExitUsesStderrTail(t *testing.T) {
	installFakeYTDLP(t, "#!/bin/sh\necho 'ERROR: Unable to download webpage' >&2\nexit 3\n")
	o := Invoke(InvokeOptions{URL: "u", MaxVideos: 1, Timeout: 10 * time.Second})
	if o.OK() {
		t.Fatal("expected failure")
	}
	if o.Returncode != 3 {
		t.Fatalf("returncode = %d, want 3", o.Returncode)
	}
	if !strings.Contains(o.Err, "Unable to download webpage") {
		t.Fatalf("reason = %q", o.Err)
	}
}

func TestInvokeNonZeroExitEmptyStderr(t *testing.T) {
	installFakeYTDLP(t, "#!/bin/sh\nexit 5\n")
	o := Invoke(InvokeOptions{URL: "u", MaxVideos: 1, Timeout: 10 * time.Second})
	if o.Err != "yt-dlp failed" || o.Returncode != 5 {
		t.Fatalf("got err=%q code=%d", o.Err, o.Returncode)
	}
}

func TestInvokeUnparsableOutput(t *testing.T) {
	installFakeYTDLP(t, "#!/bin/sh\necho 'not json at all'\n")
	o := Invoke(InvokeOptions{URL: "u", MaxVideos: 1, Timeout: 10 * time.Second})
	if o.Err != "failed to parse yt-dlp JSON output" || o.Returncode != 2 {
		t.Fatalf("got err=%q code=%d", o.Err, o.Returncode)
	}
}

func TestInvokeBinaryMissing(t *testing.T) {
	t.Setenv("PATH", t.TempDir())
	o := Invoke(InvokeOptions{URL: "u", MaxVideos: 1, Timeout: 10 * time.Second})
	if o.Returncode != 127 {
		t.Fatalf("returncode = %d, want 127", o.Returncode)
	}
	if !strings.Contains(o.Err, "yt-dlp not found") {
		t.Fatalf("reason = %q", o.Err)
	}
}

func TestInvokeTimeout(t *testing.T) {
	installFakeYTDLP(t, "#!/bin/sh\nsleep 5\n")
	o := Invoke(InvokeOptions{URL: "u", MaxVideos: 1, Timeout: 100 * time.Millisecond})
	if o.Err != "timeout" || o.Returncode != 124 {
		t.Fatalf("got err=%q code=%d", o.Err, o.Returncode)
	}
}

func TestInvokeStderrTailTruncation(t *testing.T) {
	script := "#!/bin/sh\ni=0\nwhile [ $i -lt 300 ]; do echo 'ERROR: repeated diagnostic line' >&2; i=$((i+1)); done\nexit 1\n"
	installFakeYTDLP(t, script)
	o := Invoke(InvokeOptions{URL: "u", MaxVideos: 1, Timeout: 10 * time.Second})
	if o.Returncode != 1 {
		t.Fatalf("returncode = %d, want 1", o.Returncode)
	}
	if len(o.Err) > 2000 {
		t.Fatalf("reason not truncated: %d chars", len(o.Err))
	}
}
