// Package export projects run artifacts into tabular form for downstream
// analytics. Projections read artifacts as generic JSON and tolerate any
// missing optional field by emitting an empty cell.
package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"tiktok-meta-collector/internal/runstore"
)

var usersHeader = []string{
	"run_started_at", "run_finished_at", "seed_file", "requested_max_videos",
	"user_count_requested", "user_count_succeeded", "user_count_failed",
	"scraped_at", "source", "requested_max_videos_user",
	"username", "profile_url", "webpage_url", "extractor", "extractor_key",
	"uploader", "uploader_id", "channel", "channel_id", "description",
	"error", "returncode",
}

var userVideosHeader = []string{
	"run_started_at", "run_finished_at", "seed_file", "requested_max_videos",
	"user_count_requested", "user_count_succeeded", "user_count_failed",
	"user_scraped_at", "user_source", "username", "profile_url",
	"video_id", "url", "title", "caption", "timestamp", "upload_date",
	"duration_sec", "uploader", "uploader_id",
	"view_count", "like_count", "comment_count", "repost_count", "hashtags",
}

type UserTablesOptions struct {
	ArtifactPath string
	OutDir       string
}

type UserTablesResult struct {
	UsersCSV  string `json:"users_csv"`
	UserRows  int    `json:"user_rows"`
	VideosCSV string `json:"videos_csv"`
	VideoRows int    `json:"video_rows"`
}

// WriteUserTables projects one run artifact into users.csv (one row per
// user, failed users included) and user_videos.csv (one row per video with
// user columns attached, joined by username).
func WriteUserTables(opts UserTablesOptions) (UserTablesResult, error) {
	var data map[string]any
	if err := runstore.ReadJSON(opts.ArtifactPath, &data); err != nil {
		return UserTablesResult{}, err
	}
	if err := runstore.Mkdir(opts.OutDir); err != nil {
		return UserTablesResult{}, err
	}

	runMeta := []string{
		cell(data["run_started_at"]),
		cell(data["run_finished_at"]),
		cell(data["seed_file"]),
		cell(data["requested_max_videos"]),
		cell(data["user_count_requested"]),
		cell(data["user_count_succeeded"]),
		cell(data["user_count_failed"]),
	}

	userRows := make([][]string, 0)
	videoRows := make([][]string, 0)

	appendResult := func(r map[string]any) {
		profile := asMap(r["profile"])
		username := cell(profile["username"])
		if username == "" {
			username = cell(r["username"])
		}
		scrapedAt := cell(r["scraped_at"])
		source := cell(r["source"])
		profileURL := cell(profile["profile_url"])
		if profileURL == "" {
			profileURL = cell(r["profile_url"])
		}

		row := append(append([]string{}, runMeta...),
			scrapedAt,
			source,
			cell(r["requested_max_videos"]),
			username,
			profileURL,
			cell(profile["webpage_url"]),
			cell(profile["extractor"]),
			cell(profile["extractor_key"]),
			cell(profile["uploader"]),
			cell(profile["uploader_id"]),
			cell(profile["channel"]),
			cell(profile["channel_id"]),
			cell(profile["description"]),
			cell(r["error"]),
			cell(r["returncode"]),
		)
		userRows = append(userRows, row)

		videos, _ := r["videos"].([]any)
		for _, v := range videos {
			video, ok := v.(map[string]any)
			if !ok {
				continue
			}
			videoRows = append(videoRows, append(append([]string{}, runMeta...),
				scrapedAt,
				source,
				username,
				profileURL,
				cell(video["video_id"]),
				cell(video["url"]),
				cell(video["title"]),
				cell(video["caption"]),
				cell(video["timestamp"]),
				cell(video["upload_date"]),
				cell(video["duration_sec"]),
				cell(video["uploader"]),
				cell(video["uploader_id"]),
				cell(video["view_count"]),
				cell(video["like_count"]),
				cell(video["comment_count"]),
				cell(video["repost_count"]),
				joinTags(video["hashtags"]),
			))
		}
	}

	results, _ := data["results"].([]any)
	for _, r := range results {
		if m, ok := r.(map[string]any); ok {
			appendResult(m)
		}
	}
	// failed users appear in the users table with error/returncode filled
	errorRecords, _ := data["errors"].([]any)
	for _, r := range errorRecords {
		if m, ok := r.(map[string]any); ok {
			appendResult(m)
		}
	}

	usersCSV := filepath.Join(opts.OutDir, "users.csv")
	if err := writeCSV(usersCSV, usersHeader, userRows); err != nil {
		return UserTablesResult{}, err
	}
	videosCSV := filepath.Join(opts.OutDir, "user_videos.csv")
	if err := writeCSV(videosCSV, userVideosHeader, videoRows); err != nil {
		return UserTablesResult{}, err
	}

	return UserTablesResult{
		UsersCSV:  usersCSV,
		UserRows:  len(userRows),
		VideosCSV: videosCSV,
		VideoRows: len(videoRows),
	}, nil
}

func writeCSV(path string, header []string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		_ = f.Close()
		return fmt.Errorf("write header %s: %w", path, err)
	}
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			_ = f.Close()
			return fmt.Errorf("write row %s: %w", path, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		_ = f.Close()
		return fmt.Errorf("flush %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}

func asMap(v any) map[string]any {
	if m, ok := v.(map[string]any); ok {
		return m
	}
	return map[string]any{}
}

// cell renders a JSON value as a CSV cell; nulls become empty cells.
func cell(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprint(t)
	}
}

func joinTags(v any) string {
	tags, ok := v.([]any)
	if !ok {
		return ""
	}
	parts := make([]string, 0, len(tags))
	for _, t := range tags {
		if s, ok := t.(string); ok {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, ",")
}
