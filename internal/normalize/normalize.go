// Package normalize maps yt-dlp's loosely-typed payloads onto the stable
// output schema. yt-dlp's field set is not guaranteed stable across
// extractor versions or even across users, so every field access goes
// through a null-safe coercion that absorbs missing or oddly-typed values
// instead of erroring.
package normalize

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"tiktok-meta-collector/internal/model"
)

const Source = "yt-dlp"

var hashtagPattern = regexp.MustCompile(`#([A-Za-z0-9_]+)`)

func nowISO() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// safeStr stringifies and trims v, returning nil for missing or empty
// values.
func safeStr(v any) *string {
	if v == nil {
		return nil
	}
	var s string
	switch t := v.(type) {
	case string:
		s = t
	case float64:
		s = strconv.FormatFloat(t, 'f', -1, 64)
	default:
		s = fmt.Sprint(t)
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// safeInt coerces v to an integer, returning nil on any conversion failure.
func safeInt(v any) *int64 {
	switch t := v.(type) {
	case nil:
		return nil
	case float64:
		n := int64(t)
		return &n
	case int:
		n := int64(t)
		return &n
	case int64:
		return &t
	case bool:
		var n int64
		if t {
			n = 1
		}
		return &n
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(t), 10, 64)
		if err != nil {
			return nil
		}
		return &n
	default:
		return nil
	}
}

// Hashtags extracts #tags from a caption: ASCII letters/digits/underscore,
// lower-cased, deduplicated preserving first-seen order.
func Hashtags(caption string) []string {
	tags := []string{}
	seen := make(map[string]bool)
	for _, m := range hashtagPattern.FindAllStringSubmatch(caption, -1) {
		tag := strings.ToLower(m[1])
		if seen[tag] {
			continue
		}
		seen[tag] = true
		tags = append(tags, tag)
	}
	return tags
}

// Profile maps profile-level payload fields onto the stable profile record.
func Profile(username string, raw map[string]any, profileURL string) model.NormalizedProfile {
	webpageURL := safeStr(raw["webpage_url"])
	if webpageURL == nil {
		webpageURL = safeStr(raw["original_url"])
	}
	return model.NormalizedProfile{
		Username:     username,
		ProfileURL:   profileURL,
		Uploader:     safeStr(raw["uploader"]),
		UploaderID:   safeStr(raw["uploader_id"]),
		Channel:      safeStr(raw["channel"]),
		ChannelID:    safeStr(raw["channel_id"]),
		Description:  safeStr(raw["description"]),
		WebpageURL:   webpageURL,
		Extractor:    safeStr(raw["extractor"]),
		ExtractorKey: safeStr(raw["extractor_key"]),
	}
}

// Video normalizes a single flat-playlist entry. Caption falls back from
// description to title; uploader falls back uploader -> uploader_id -> the
// run's seed username.
func Video(entry map[string]any, fallbackUsername string) model.NormalizedVideo {
	title := safeStr(entry["title"])
	description := safeStr(entry["description"])

	caption := description
	if caption == nil {
		caption = title
	}

	uploader := safeStr(entry["uploader"])
	if uploader == nil {
		uploader = safeStr(entry["uploader_id"])
	}
	if uploader == nil {
		uploader = safeStr(fallbackUsername)
	}

	url := safeStr(entry["url"])
	if url == nil {
		url = safeStr(entry["webpage_url"])
	}

	hashtags := []string{}
	if caption != nil {
		hashtags = Hashtags(*caption)
	}

	return model.NormalizedVideo{
		VideoID:      safeStr(entry["id"]),
		URL:          url,
		WebpageURL:   safeStr(entry["webpage_url"]),
		Title:        title,
		Caption:      caption,
		Hashtags:     hashtags,
		Timestamp:    safeInt(entry["timestamp"]),
		UploadDate:   safeStr(entry["upload_date"]),
		DurationSec:  safeInt(entry["duration"]),
		Uploader:     uploader,
		UploaderID:   safeStr(entry["uploader_id"]),
		ViewCount:    safeInt(entry["view_count"]),
		LikeCount:    safeInt(entry["like_count"]),
		CommentCount: safeInt(entry["comment_count"]),
		RepostCount:  safeInt(entry["repost_count"]),
	}
}

// User builds the full per-user result from a raw payload: profile plus the
// first maxVideos entries. Entries that are not JSON objects are dropped
// silently; the truncation window is applied before that filter, matching
// upstream order.
func User(username string, raw map[string]any, maxVideos int, profileURL string) model.UserResult {
	entries, _ := raw["entries"].([]any)
	limit := maxVideos
	if limit < 0 {
		limit = 0
	}
	if limit > len(entries) {
		limit = len(entries)
	}

	videos := make([]model.NormalizedVideo, 0, limit)
	for _, e := range entries[:limit] {
		if entry, ok := e.(map[string]any); ok {
			videos = append(videos, Video(entry, username))
		}
	}

	return model.UserResult{
		ScrapedAt:          nowISO(),
		Source:             Source,
		RequestedMaxVideos: maxVideos,
		Profile:            Profile(username, raw, profileURL),
		Videos:             videos,
	}
}
