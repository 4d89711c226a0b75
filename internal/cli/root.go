package cli

import "fmt"

func Run(args []string) error {
	if len(args) == 0 {
		printRootUsage()
		return nil
	}

	switch args[0] {
	case "collect":
		return runCollect(args[1:])
	case "export-users":
		return runExportUsers(args[1:])
	case "export-videos":
		return runExportVideos(args[1:])
	case "seeds":
		return runSeeds(args[1:])
	case "init":
		return runInit(args[1:])
	case "doctor":
		return runDoctor(args[1:])
	case "settings":
		return runSettings(args[1:])
	case "help", "-h", "--help":
		printRootUsage()
		return nil
	default:
		printRootUsage()
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func printRootUsage() {
	fmt.Println("tiktok-meta-collector: seed-driven TikTok metadata collector (yt-dlp, metadata only)")
	fmt.Println()
	fmt.Println("Quick Start:")
	fmt.Println("  tiktok-meta-collector init")
	fmt.Println("  tiktok-meta-collector collect --seed seeds/2026-02-01/usernames.txt")
	fmt.Println("  tiktok-meta-collector export-users --latest --out csv/")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  collect        run one collection pass over a seed username file")
	fmt.Println("  export-users   project a run artifact into users.csv + user_videos.csv")
	fmt.Println("  export-videos  flatten enriched per-video JSON into videos_enriched.csv")
	fmt.Println("  seeds          interactive seed-list manager (browse/add/delete)")
	fmt.Println("  init           write default collector.yaml + run preflight checks")
	fmt.Println("  doctor         run dependency and workspace preflight checks")
	fmt.Println("  settings       show or update persisted collect defaults")
	fmt.Println()
	fmt.Println("Notes:")
	fmt.Println("  - Use --json on commands for machine-readable output")
	fmt.Println("  - Increase --sleep/--jitter if runs hit repeated ERRORs: that usually")
	fmt.Println("    means upstream rate limiting or bot detection, not a local fault")
}
