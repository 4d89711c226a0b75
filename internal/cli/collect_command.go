package cli

import (
	"errors"
	"flag"
	"strings"

	"tiktok-meta-collector/internal/collect"
	"tiktok-meta-collector/internal/config"
)

func runCollect(args []string) error {
	fs := flag.NewFlagSet("collect", flag.ContinueOnError)
	configPath := fs.String("config", config.DefaultPath, "collector config path")
	seed := fs.String("seed", "", "path to seed usernames file (one per line)")
	outDir := fs.String("out", "", "output directory for run artifacts")
	maxVideos := fs.Int("max-videos", config.DefaultMaxVideos, "number of most recent videos to collect per user")
	sleepSec := fs.Float64("sleep", config.DefaultSleepSec, "base sleep seconds between users")
	jitterSec := fs.Float64("jitter", config.DefaultJitterSec, "random jitter seconds added to sleep")
	timeoutSec := fs.Int("timeout", config.DefaultTimeoutSec, "yt-dlp subprocess timeout in seconds per user")
	userAgent := fs.String("user-agent", "", "optional custom User-Agent string")
	failFast := fs.Bool("fail-fast", false, "stop on first error")
	jsonOut := fs.Bool("json", false, "print JSON output")

	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(strings.TrimSpace(*configPath))
	if err != nil {
		return err
	}

	// explicit flags win over the config file
	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	if set["max-videos"] {
		cfg.MaxVideos = *maxVideos
	}
	if set["sleep"] {
		cfg.SleepSec = *sleepSec
	}
	if set["jitter"] {
		cfg.JitterSec = *jitterSec
	}
	if set["timeout"] {
		cfg.TimeoutSec = *timeoutSec
	}
	if set["user-agent"] {
		cfg.UserAgent = *userAgent
	}
	if set["fail-fast"] {
		cfg.FailFast = *failFast
	}

	seedPath := firstNonEmpty(strings.TrimSpace(*seed), cfg.Seed)
	if seedPath == "" {
		fs.Usage()
		return errors.New("--seed is required (or set seed in collector.yaml)")
	}

	result, err := collect.Run(collect.Options{
		SeedPath:  seedPath,
		OutDir:    firstNonEmpty(strings.TrimSpace(*outDir), cfg.OutDir),
		MaxVideos: cfg.MaxVideos,
		SleepSec:  cfg.SleepSec,
		JitterSec: cfg.JitterSec,
		Timeout:   cfg.Timeout(),
		UserAgent: cfg.UserAgent,
		FailFast:  cfg.FailFast,
	})
	if err != nil {
		return err
	}

	if *jsonOut {
		return printJSON(result)
	}
	return nil
}
