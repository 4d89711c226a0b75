// Package collect sequences one collection run: seed usernames in, one JSON
// run artifact out.
package collect

import (
	"fmt"
	"io"
	"math/rand"
	"os"
	"time"

	"tiktok-meta-collector/internal/model"
	"tiktok-meta-collector/internal/normalize"
	"tiktok-meta-collector/internal/runstore"
	"tiktok-meta-collector/internal/seeds"
	"tiktok-meta-collector/internal/ytdlp"
)

type Options struct {
	SeedPath  string
	OutDir    string
	MaxVideos int
	SleepSec  float64
	JitterSec float64
	Timeout   time.Duration
	UserAgent string
	FailFast  bool

	// Stdout/Sleep/Rand/Now default to the real thing; tests inject them to
	// run without pacing delays.
	Stdout io.Writer
	Sleep  func(time.Duration)
	Rand   func() float64
	Now    func() time.Time
}

type Result struct {
	Status             string `json:"status"`
	ArtifactPath       string `json:"artifact_path"`
	SeedFile           string `json:"seed_file"`
	UserCountRequested int    `json:"user_count_requested"`
	UserCountSucceeded int    `json:"user_count_succeeded"`
	UserCountFailed    int    `json:"user_count_failed"`
}

func (o Options) withDefaults() Options {
	if o.Stdout == nil {
		o.Stdout = os.Stdout
	}
	if o.Sleep == nil {
		o.Sleep = time.Sleep
	}
	if o.Rand == nil {
		o.Rand = rand.Float64
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// Run executes one sequential collection pass. Per-identifier extraction
// failures become ErrorRecords and the run keeps going (unless FailFast);
// only configuration-level problems return an error.
func Run(opts Options) (Result, error) {
	opts = opts.withDefaults()
	out := opts.Stdout
	nowISO := func() string {
		return opts.Now().UTC().Format(time.RFC3339)
	}

	users, err := seeds.Load(opts.SeedPath)
	if err != nil {
		return Result{}, err
	}

	if err := runstore.Mkdir(opts.OutDir); err != nil {
		return Result{}, err
	}
	lock, err := runstore.AcquireCollectLock(opts.OutDir, opts.SeedPath)
	if err != nil {
		return Result{}, err
	}
	defer func() {
		_ = lock.Release()
	}()

	status := model.RunStatusPending
	runStartedAt := nowISO()
	artifactPath := runstore.ArtifactPath(opts.OutDir, opts.Now())
	checkpointPath := runstore.CheckpointPath(artifactPath)

	total := len(users)
	results := make([]model.UserResult, 0, total)
	errorsAcc := make([]model.ErrorRecord, 0)

	artifact := func() model.RunArtifact {
		return model.RunArtifact{
			RunStartedAt:       runStartedAt,
			RunFinishedAt:      nowISO(),
			SeedFile:           opts.SeedPath,
			RequestedMaxVideos: opts.MaxVideos,
			UserCountRequested: total,
			UserCountSucceeded: len(results),
			UserCountFailed:    len(errorsAcc),
			Results:            results,
			Errors:             errorsAcc,
		}
	}

	if total == 0 {
		fmt.Fprintln(out, "No usernames found in seed file.")
		_ = model.TransitionRunStatus(&status, model.RunStatusCompleted)
		if err := runstore.WriteJSON(artifactPath, artifact()); err != nil {
			return Result{}, err
		}
		return Result{
			Status:       status,
			ArtifactPath: artifactPath,
			SeedFile:     opts.SeedPath,
		}, nil
	}

	_ = model.TransitionRunStatus(&status, model.RunStatusRunning)
	fmt.Fprintf(out, "Seed users: %d | max_videos=%d\n", total, opts.MaxVideos)
	fmt.Fprintf(out, "Starting...\n\n")

	for i, username := range users {
		profileURL := ytdlp.ProfileURL(username)
		fmt.Fprintf(out, "[%d/%d] %s … ", i+1, total, username)

		outcome := ytdlp.Invoke(ytdlp.InvokeOptions{
			URL:       profileURL,
			MaxVideos: opts.MaxVideos,
			UserAgent: opts.UserAgent,
			Timeout:   opts.Timeout,
		})

		aborted := false
		if !outcome.OK() {
			fmt.Fprintln(out, "ERROR")
			reason := outcome.Err
			if reason == "" {
				reason = "unknown error"
			}
			errorsAcc = append(errorsAcc, model.ErrorRecord{
				Username:   username,
				ProfileURL: profileURL,
				ScrapedAt:  nowISO(),
				Error:      reason,
				Returncode: outcome.Returncode,
			})
			aborted = opts.FailFast
		} else {
			result := normalize.User(username, outcome.Raw, opts.MaxVideos, profileURL)
			results = append(results, result)
			fmt.Fprintf(out, "OK (%d videos)\n", len(result.Videos))
		}

		// crash recovery: at most one identifier of progress is lost
		if err := runstore.WriteJSON(checkpointPath, artifact()); err != nil {
			return Result{}, err
		}

		if aborted {
			break
		}

		// politeness delay, applied after every identifier including the
		// last; pacing reduces the odds of upstream defensive blocking
		delay := opts.SleepSec + opts.Rand()*opts.JitterSec
		if delay > 0 {
			opts.Sleep(time.Duration(delay * float64(time.Second)))
		}
	}

	final := model.RunStatusCompleted
	if opts.FailFast && len(errorsAcc) > 0 {
		final = model.RunStatusAborted
	}
	_ = model.TransitionRunStatus(&status, final)

	if err := runstore.WriteJSON(artifactPath, artifact()); err != nil {
		return Result{}, err
	}
	_ = os.Remove(checkpointPath)

	fmt.Fprintf(out, "\nDone. Wrote: %s\n", artifactPath)
	if len(errorsAcc) > 0 {
		fmt.Fprintf(out, "Failures: %d (common causes: rate limiting, bot detection, region blocks)\n", len(errorsAcc))
	}

	return Result{
		Status:             status,
		ArtifactPath:       artifactPath,
		SeedFile:           opts.SeedPath,
		UserCountRequested: total,
		UserCountSucceeded: len(results),
		UserCountFailed:    len(errorsAcc),
	}, nil
}
