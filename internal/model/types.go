package model

// NormalizedProfile is the stable profile-level record for one collected
// user. Everything besides Username/ProfileURL is best-effort: yt-dlp's
// profile fields vary by extractor version, so nullable fields stay explicit
// JSON nulls rather than zero values.
type NormalizedProfile struct {
	Username     string  `json:"username"`
	ProfileURL   string  `json:"profile_url"`
	Uploader     *string `json:"uploader"`
	UploaderID   *string `json:"uploader_id"`
	Channel      *string `json:"channel"`
	ChannelID    *string `json:"channel_id"`
	Description  *string `json:"description"`
	WebpageURL   *string `json:"webpage_url"`
	Extractor    *string `json:"extractor"`
	ExtractorKey *string `json:"extractor_key"`
}

// NormalizedVideo is the stable per-video record. With --flat-playlist most
// engagement stats may be missing upstream; they serialize as null.
type NormalizedVideo struct {
	VideoID      *string  `json:"video_id"`
	URL          *string  `json:"url"`
	WebpageURL   *string  `json:"webpage_url"`
	Title        *string  `json:"title"`
	Caption      *string  `json:"caption"`
	Hashtags     []string `json:"hashtags"`
	Timestamp    *int64   `json:"timestamp"`
	UploadDate   *string  `json:"upload_date"`
	DurationSec  *int64   `json:"duration_sec"`
	Uploader     *string  `json:"uploader"`
	UploaderID   *string  `json:"uploader_id"`
	ViewCount    *int64   `json:"view_count"`
	LikeCount    *int64   `json:"like_count"`
	CommentCount *int64   `json:"comment_count"`
	RepostCount  *int64   `json:"repost_count"`
}

// UserResult is one successful collection for one username.
type UserResult struct {
	ScrapedAt          string            `json:"scraped_at"`
	Source             string            `json:"source"`
	RequestedMaxVideos int               `json:"requested_max_videos"`
	Profile            NormalizedProfile `json:"profile"`
	Videos             []NormalizedVideo `json:"videos"`
}

// ErrorRecord is emitted instead of a UserResult when extraction fails.
type ErrorRecord struct {
	Username   string `json:"username"`
	ProfileURL string `json:"profile_url"`
	ScrapedAt  string `json:"scraped_at"`
	Error      string `json:"error"`
	Returncode int    `json:"returncode"`
}

// RunArtifact is the single append-only JSON record of one collection run.
type RunArtifact struct {
	RunStartedAt       string        `json:"run_started_at"`
	RunFinishedAt      string        `json:"run_finished_at"`
	SeedFile           string        `json:"seed_file"`
	RequestedMaxVideos int           `json:"requested_max_videos"`
	UserCountRequested int           `json:"user_count_requested"`
	UserCountSucceeded int           `json:"user_count_succeeded"`
	UserCountFailed    int           `json:"user_count_failed"`
	Results            []UserResult  `json:"results"`
	Errors             []ErrorRecord `json:"errors"`
}
