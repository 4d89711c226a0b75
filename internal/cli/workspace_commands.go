package cli

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"tiktok-meta-collector/internal/config"
	"tiktok-meta-collector/internal/runstore"
	"tiktok-meta-collector/internal/ytdlp"
)

type doctorCheck struct {
	Name    string `json:"name"`
	OK      bool   `json:"ok"`
	Message string `json:"message"`
}

type doctorResult struct {
	OK     bool          `json:"ok"`
	Checks []doctorCheck `json:"checks"`
}

func runDoctorChecks(configPath, outDir string) doctorResult {
	checks := make([]doctorCheck, 0, 3)

	dep := ytdlp.DependencyStatus()
	msg := "yt-dlp not found on PATH (install with: pip install yt-dlp)"
	if dep.YTDLPFound {
		msg = "found " + dep.YTDLPPath
	}
	checks = append(checks, doctorCheck{Name: "dependency:yt-dlp", OK: dep.YTDLPFound, Message: msg})

	_, cfgErr := config.Load(configPath)
	cfgCheck := doctorCheck{Name: "config:" + configPath, OK: cfgErr == nil, Message: "parses"}
	if cfgErr != nil {
		cfgCheck.Message = cfgErr.Error()
	}
	checks = append(checks, cfgCheck)

	outCheck := doctorCheck{Name: "output:" + outDir, OK: true, Message: "writable"}
	if err := runstore.Mkdir(outDir); err != nil {
		outCheck.OK = false
		outCheck.Message = err.Error()
	} else {
		probe := filepath.Join(outDir, ".doctor-probe")
		if err := os.WriteFile(probe, []byte("ok\n"), 0o644); err != nil {
			outCheck.OK = false
			outCheck.Message = err.Error()
		} else {
			_ = os.Remove(probe)
		}
	}
	checks = append(checks, outCheck)

	ok := true
	for _, c := range checks {
		ok = ok && c.OK
	}
	return doctorResult{OK: ok, Checks: checks}
}

func printDoctorResult(res doctorResult) {
	for _, c := range res.Checks {
		state := "ok"
		if !c.OK {
			state = "FAIL"
		}
		fmt.Printf("%-24s %-4s %s\n", c.Name, state, c.Message)
	}
}

func runDoctor(args []string) error {
	fs := flag.NewFlagSet("doctor", flag.ContinueOnError)
	configPath := fs.String("config", config.DefaultPath, "collector config path")
	outDir := fs.String("out", "", "output directory to check (defaults to configured out_dir)")
	jsonOut := fs.Bool("json", false, "print JSON output")
	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, _ := config.Load(strings.TrimSpace(*configPath))
	target := firstNonEmpty(strings.TrimSpace(*outDir), cfg.OutDir, config.DefaultOutDir)

	res := runDoctorChecks(strings.TrimSpace(*configPath), target)
	if *jsonOut {
		return printJSON(res)
	}
	printDoctorResult(res)
	if !res.OK {
		return fmt.Errorf("doctor found problems")
	}
	return nil
}

func runInit(args []string) error {
	fs := flag.NewFlagSet("init", flag.ContinueOnError)
	configPath := fs.String("config", config.DefaultPath, "collector config path")
	jsonOut := fs.Bool("json", false, "print JSON output")
	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}

	path := strings.TrimSpace(*configPath)
	created := false
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := config.Save(path, config.Default()); err != nil {
			return err
		}
		created = true
	} else if err != nil {
		return fmt.Errorf("stat config %s: %w", path, err)
	}

	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	res := runDoctorChecks(path, cfg.OutDir)

	if *jsonOut {
		return printJSON(struct {
			ConfigPath    string       `json:"config_path"`
			CreatedConfig bool         `json:"created_config"`
			Doctor        doctorResult `json:"doctor"`
		}{path, created, res})
	}

	if created {
		fmt.Printf("created %s with defaults\n", path)
	} else {
		fmt.Printf("config %s already present\n", path)
	}
	printDoctorResult(res)
	if !res.OK {
		return fmt.Errorf("doctor found problems")
	}
	return nil
}

func runSettings(args []string) error {
	fs := flag.NewFlagSet("settings", flag.ContinueOnError)
	configPath := fs.String("config", config.DefaultPath, "collector config path")
	seed := fs.String("seed", "", "default seed file")
	outDir := fs.String("out", "", "default output directory")
	maxVideos := fs.Int("max-videos", 0, "default videos per user")
	sleepSec := fs.Float64("sleep", -1, "default base sleep seconds")
	jitterSec := fs.Float64("jitter", -1, "default jitter seconds")
	timeoutSec := fs.Int("timeout", 0, "default per-user timeout seconds")
	userAgent := fs.String("user-agent", "", "default User-Agent string")
	failFast := fs.Bool("fail-fast", false, "default fail-fast behavior")
	jsonOut := fs.Bool("json", false, "print JSON output")
	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}

	path := strings.TrimSpace(*configPath)
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}

	changed := false
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "seed":
			cfg.Seed = strings.TrimSpace(*seed)
			changed = true
		case "out":
			cfg.OutDir = strings.TrimSpace(*outDir)
			changed = true
		case "max-videos":
			cfg.MaxVideos = *maxVideos
			changed = true
		case "sleep":
			cfg.SleepSec = *sleepSec
			changed = true
		case "jitter":
			cfg.JitterSec = *jitterSec
			changed = true
		case "timeout":
			cfg.TimeoutSec = *timeoutSec
			changed = true
		case "user-agent":
			cfg.UserAgent = *userAgent
			changed = true
		case "fail-fast":
			cfg.FailFast = *failFast
			changed = true
		}
	})

	if changed {
		if err := config.Save(path, cfg); err != nil {
			return err
		}
		cfg, err = config.Load(path)
		if err != nil {
			return err
		}
	}

	if *jsonOut {
		return printJSON(cfg)
	}
	fmt.Printf("config: %s\n", path)
	fmt.Printf("seed: %s\n", firstNonEmpty(cfg.Seed, "(unset)"))
	fmt.Printf("out_dir: %s\n", cfg.OutDir)
	fmt.Printf("max_videos: %d\n", cfg.MaxVideos)
	fmt.Printf("sleep_sec: %g\n", cfg.SleepSec)
	fmt.Printf("jitter_sec: %g\n", cfg.JitterSec)
	fmt.Printf("timeout_sec: %d\n", cfg.TimeoutSec)
	fmt.Printf("user_agent: %s\n", firstNonEmpty(cfg.UserAgent, "(default)"))
	fmt.Printf("fail_fast: %v\n", cfg.FailFast)
	return nil
}
