package export

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"tiktok-meta-collector/internal/runstore"
)

// Columns for the enriched per-video projection. The yt_dlp.formats list is
// deliberately not flattened (it is huge); only a best-format summary and a
// preferred thumbnail survive the projection.
var enrichedHeader = []string{
	"run_started_at", "source_input", "video_count_requested",
	"video_count_succeeded", "video_count_failed", "attempted_comments",
	"skipped_existing", "source_file",
	"video_id", "url", "username", "scraped_at",
	"yt_id", "title", "description", "timestamp", "duration",
	"view_count", "like_count", "comment_count", "repost_count", "save_count",
	"channel", "channel_id", "uploader", "uploader_id", "uploader_url", "channel_url",
	"track", "album", "artists",
	"best_format_id", "best_ext", "best_vcodec", "best_acodec",
	"best_width", "best_height", "best_tbr", "best_filesize",
	"thumb_id", "thumb_url",
	"webpage_url", "original_url", "extractor", "extractor_key",
}

type EnrichedVideosOptions struct {
	// InputPath is a single enriched JSON file or a directory of them.
	InputPath string
	OutCSV    string
}

type EnrichedVideosResult struct {
	OutCSV string `json:"out_csv"`
	Rows   int    `json:"rows"`
}

// WriteEnrichedVideos flattens per-video enriched JSON into one CSV row per
// video. Both batch ({results: [...]}) and single-record shapes are
// accepted; unrecognized documents are skipped.
func WriteEnrichedVideos(opts EnrichedVideosOptions) (EnrichedVideosResult, error) {
	inputs, err := enumerateInputs(opts.InputPath)
	if err != nil {
		return EnrichedVideosResult{}, err
	}

	rows := make([][]string, 0)
	for _, path := range inputs {
		var data any
		if err := runstore.ReadJSON(path, &data); err != nil {
			return EnrichedVideosResult{}, err
		}
		doc, ok := data.(map[string]any)
		if !ok {
			continue
		}

		if results, ok := doc["results"].([]any); ok {
			runMeta := batchRunMeta(doc)
			for _, item := range results {
				if m, ok := item.(map[string]any); ok {
					rows = append(rows, enrichedRow(m, runMeta))
				}
			}
			continue
		}
		rows = append(rows, enrichedRow(doc, singleRunMeta(path)))
	}

	if err := runstore.Mkdir(filepath.Dir(opts.OutCSV)); err != nil {
		return EnrichedVideosResult{}, err
	}
	if err := writeCSV(opts.OutCSV, enrichedHeader, rows); err != nil {
		return EnrichedVideosResult{}, err
	}
	return EnrichedVideosResult{OutCSV: opts.OutCSV, Rows: len(rows)}, nil
}

func enumerateInputs(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat input %s: %w", path, err)
	}
	if !info.IsDir() {
		return []string{path}, nil
	}

	inputs := make([]string, 0)
	walkErr := filepath.Walk(path, func(p string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !fi.IsDir() && strings.HasSuffix(p, ".json") {
			inputs = append(inputs, p)
		}
		return nil
	})
	if walkErr != nil {
		return nil, fmt.Errorf("walk input %s: %w", path, walkErr)
	}
	sort.Strings(inputs)
	return inputs, nil
}

// batch and single inputs carry different run metadata; both shapes project
// onto the same header with the unused columns left empty.
func batchRunMeta(doc map[string]any) []string {
	return []string{
		cell(doc["run_started_at"]),
		cell(doc["source_input"]),
		cell(doc["video_count_requested"]),
		cell(doc["video_count_succeeded"]),
		cell(doc["video_count_failed"]),
		cell(doc["attempted_comments"]),
		cell(doc["skipped_existing"]),
		"", // source_file
	}
}

func singleRunMeta(path string) []string {
	return []string{"", "", "", "", "", "", "", path}
}

func enrichedRow(item map[string]any, runMeta []string) []string {
	yt := asMap(item["yt_dlp"])

	videoID := cell(item["video_id"])
	if videoID == "" {
		videoID = cell(yt["id"])
	}
	url := firstCell(item["url"], yt["webpage_url"], yt["original_url"])
	username := firstCell(item["username"], yt["uploader"])

	best := pickBestFormat(yt["formats"])
	thumbID, thumbURL := firstThumbnail(yt["thumbnails"])

	return append(append([]string{}, runMeta...),
		videoID,
		url,
		username,
		cell(item["scraped_at"]),
		cell(yt["id"]),
		cell(yt["title"]),
		cell(yt["description"]),
		cell(yt["timestamp"]),
		cell(yt["duration"]),
		cell(yt["view_count"]),
		cell(yt["like_count"]),
		cell(yt["comment_count"]),
		cell(yt["repost_count"]),
		cell(yt["save_count"]),
		cell(yt["channel"]),
		cell(yt["channel_id"]),
		cell(yt["uploader"]),
		cell(yt["uploader_id"]),
		cell(yt["uploader_url"]),
		cell(yt["channel_url"]),
		cell(yt["track"]),
		cell(yt["album"]),
		joinArtists(yt["artists"]),
		cell(best["format_id"]),
		cell(best["ext"]),
		cell(best["vcodec"]),
		cell(best["acodec"]),
		cell(best["width"]),
		cell(best["height"]),
		cell(best["tbr"]),
		firstCell(best["filesize"], best["filesize_approx"]),
		thumbID,
		thumbURL,
		cell(yt["webpage_url"]),
		cell(yt["original_url"]),
		cell(yt["extractor"]),
		cell(yt["extractor_key"]),
	)
}

type formatScore struct {
	height   float64
	tbr      float64
	filesize float64
}

func (s formatScore) less(other formatScore) bool {
	if s.height != other.height {
		return s.height < other.height
	}
	if s.tbr != other.tbr {
		return s.tbr < other.tbr
	}
	return s.filesize < other.filesize
}

// pickBestFormat chooses a best-format summary: highest height, then
// bitrate, then filesize.
func pickBestFormat(v any) map[string]any {
	formats, ok := v.([]any)
	if !ok || len(formats) == 0 {
		return map[string]any{}
	}

	var best map[string]any
	bestScore := formatScore{height: -1, tbr: -1, filesize: -1}
	for _, f := range formats {
		fmtMap, ok := f.(map[string]any)
		if !ok {
			continue
		}
		score := formatScore{
			height:   num(fmtMap["height"]),
			tbr:      num(fmtMap["tbr"]),
			filesize: num(firstNonNil(fmtMap["filesize"], fmtMap["filesize_approx"])),
		}
		if bestScore.less(score) {
			bestScore = score
			best = fmtMap
		}
	}
	if best == nil {
		return map[string]any{}
	}
	return best
}

// firstThumbnail prefers the cover/originCover/dynamicCover thumbnail, else
// the first one, without flattening the whole list.
func firstThumbnail(v any) (string, string) {
	thumbs, ok := v.([]any)
	if !ok || len(thumbs) == 0 {
		return "", ""
	}

	byID := make(map[string]map[string]any)
	for _, t := range thumbs {
		if m, ok := t.(map[string]any); ok {
			byID[cell(m["id"])] = m
		}
	}
	for _, id := range []string{"cover", "originCover", "dynamicCover"} {
		if m, ok := byID[id]; ok {
			return cell(m["id"]), cell(m["url"])
		}
	}
	if m, ok := thumbs[0].(map[string]any); ok {
		return cell(m["id"]), cell(m["url"])
	}
	return "", ""
}

func joinArtists(v any) string {
	artists, ok := v.([]any)
	if !ok {
		return ""
	}
	parts := make([]string, 0, len(artists))
	for _, a := range artists {
		if s, ok := a.(string); ok {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, ",")
}

func num(v any) float64 {
	if f, ok := v.(float64); ok {
		return f
	}
	return 0
}

func firstNonNil(vals ...any) any {
	for _, v := range vals {
		if v != nil {
			return v
		}
	}
	return nil
}

func firstCell(vals ...any) string {
	for _, v := range vals {
		if s := cell(v); s != "" {
			return s
		}
	}
	return ""
}
