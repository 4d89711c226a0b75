// Package ytdlp invokes yt-dlp as a metadata source. One call, one
// subprocess, one tagged outcome; retry policy (if any) belongs to callers.
package ytdlp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultTimeout = 120 * time.Second

	// stderr tail kept on failure, to bound artifact size
	maxStderrTail = 2000
)

type InvokeOptions struct {
	URL       string
	MaxVideos int
	UserAgent string
	Timeout   time.Duration
}

// Outcome is the tagged result of one invocation: either Raw is set and Err
// is empty, or Err holds a short human-readable reason and Returncode a
// classified code (124 timeout, 127 missing binary, 2 unparsable output,
// 1 spawn failure, otherwise yt-dlp's own exit code).
type Outcome struct {
	Raw        map[string]any
	Err        string
	Returncode int
}

func (o Outcome) OK() bool {
	return o.Err == "" && o.Raw != nil
}

type DependencyReport struct {
	YTDLPFound bool   `json:"yt_dlp_found"`
	YTDLPPath  string `json:"yt_dlp_path,omitempty"`
}

func DependencyStatus() DependencyReport {
	report := DependencyReport{}
	if path, err := exec.LookPath("yt-dlp"); err == nil {
		report.YTDLPFound = true
		report.YTDLPPath = path
	}
	return report
}

func ProfileURL(username string) string {
	return "https://www.tiktok.com/@" + username
}

func buildArgs(opts InvokeOptions) []string {
	// -J: dump a single JSON document to stdout
	// --flat-playlist: list-level metadata only, no per-item deep fetch
	args := []string{
		"-J",
		"--flat-playlist",
		"--playlist-end", strconv.Itoa(opts.MaxVideos),
	}
	if strings.TrimSpace(opts.UserAgent) != "" {
		args = append(args, "--user-agent", opts.UserAgent)
	}
	return append(args, opts.URL)
}

// Invoke runs one bounded yt-dlp extraction and classifies the result. It
// never returns a Go error: every failure mode degrades to an Outcome.
func Invoke(opts InvokeOptions) Outcome {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "yt-dlp", buildArgs(opts)...)
	var stdout, stderrBuf bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderrBuf

	err := cmd.Run()

	if ctx.Err() == context.DeadlineExceeded {
		return Outcome{Err: "timeout", Returncode: 124}
	}
	if err != nil {
		var exitErr *exec.ExitError
		switch {
		case errors.Is(err, exec.ErrNotFound):
			return Outcome{
				Err:        "yt-dlp not found. Install with: pip install yt-dlp",
				Returncode: 127,
			}
		case errors.As(err, &exitErr):
			reason := strings.TrimSpace(stderrBuf.String())
			if len(reason) > maxStderrTail {
				reason = reason[len(reason)-maxStderrTail:]
			}
			if reason == "" {
				reason = "yt-dlp failed"
			}
			return Outcome{Err: reason, Returncode: exitErr.ExitCode()}
		default:
			return Outcome{Err: fmt.Sprintf("exception: %v", err), Returncode: 1}
		}
	}

	var raw map[string]any
	if jsonErr := json.Unmarshal(stdout.Bytes(), &raw); jsonErr != nil || raw == nil {
		return Outcome{Err: "failed to parse yt-dlp JSON output", Returncode: 2}
	}
	return Outcome{Raw: raw, Returncode: 0}
}
