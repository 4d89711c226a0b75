package cli

import (
	"errors"
	"flag"
	"fmt"
	"strings"

	"tiktok-meta-collector/internal/export"
	"tiktok-meta-collector/internal/runstore"
)

func runExportUsers(args []string) error {
	fs := flag.NewFlagSet("export-users", flag.ContinueOnError)
	in := fs.String("in", "", "input run artifact JSON file")
	latest := fs.Bool("latest", false, "use the latest artifact in --runs-dir instead of --in")
	runsDir := fs.String("runs-dir", "outputs", "artifact directory searched with --latest")
	outDir := fs.String("out", "", "output directory for CSVs")
	jsonOut := fs.Bool("json", false, "print JSON output")

	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}

	artifactPath := strings.TrimSpace(*in)
	if artifactPath == "" {
		if !*latest {
			fs.Usage()
			return errors.New("--in is required (or use --latest)")
		}
		resolved, err := runstore.LatestArtifact(strings.TrimSpace(*runsDir))
		if err != nil {
			return err
		}
		artifactPath = resolved
	}
	if strings.TrimSpace(*outDir) == "" {
		fs.Usage()
		return errors.New("--out is required")
	}

	result, err := export.WriteUserTables(export.UserTablesOptions{
		ArtifactPath: artifactPath,
		OutDir:       strings.TrimSpace(*outDir),
	})
	if err != nil {
		return err
	}

	if *jsonOut {
		return printJSON(result)
	}
	fmt.Printf("Wrote %s (rows=%d)\n", result.UsersCSV, result.UserRows)
	fmt.Printf("Wrote %s (rows=%d)\n", result.VideosCSV, result.VideoRows)
	return nil
}

func runExportVideos(args []string) error {
	fs := flag.NewFlagSet("export-videos", flag.ContinueOnError)
	in := fs.String("in", "", "input enriched JSON file or directory of JSONs")
	out := fs.String("out", "", "output CSV path")
	jsonOut := fs.Bool("json", false, "print JSON output")

	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}

	if strings.TrimSpace(*in) == "" || strings.TrimSpace(*out) == "" {
		fs.Usage()
		return errors.New("--in and --out are required")
	}

	result, err := export.WriteEnrichedVideos(export.EnrichedVideosOptions{
		InputPath: strings.TrimSpace(*in),
		OutCSV:    strings.TrimSpace(*out),
	})
	if err != nil {
		return err
	}

	if *jsonOut {
		return printJSON(result)
	}
	fmt.Printf("Wrote %s (rows=%d)\n", result.OutCSV, result.Rows)
	return nil
}
