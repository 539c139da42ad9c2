package types

// VideoStats holds the public counters fetched for one candidate video.
// It is evaluated once against the virality thresholds and discarded.
type VideoStats struct {
	Views    uint64 `json:"views"`
	Likes    uint64 `json:"likes"`
	Comments uint64 `json:"comments"`
}

// VideoMetadata is the descriptive record carried from discovery to
// publish and persisted as the ledger marker for a candidate.
type VideoMetadata struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
}

// CredentialKind tags the auth material handed to the download step.
type CredentialKind int

const (
	CredentialNone CredentialKind = iota
	CredentialCookieFile
	CredentialBrowserCookies
	CredentialVisitorToken
)

// Credential is resolved once per download from config, in order of
// preference: cookie file, browser cookies, visitor token, none.
type Credential struct {
	Kind        CredentialKind
	CookieFile  string // CredentialCookieFile
	Browser     string // CredentialBrowserCookies
	VisitorData string // CredentialVisitorToken
}

// Stage identifies an orchestrator phase. Transitions are
// single-direction; a failed run records the stage that aborted it.
type Stage string

const (
	StageIdle                Stage = "idle"
	StageRetrieving          Stage = "retrieving"
	StageEditing             Stage = "editing"
	StagePublishingYouTube   Stage = "publishing_youtube"
	StagePublishingInstagram Stage = "publishing_instagram"
	StageArchiving           Stage = "archiving"
	StageArchived            Stage = "archived"
	StageFailed              Stage = "failed"
)

// RunState tracks one candidate through the pipeline. Temporary file
// paths it owns are handed to the archive step on success; on failure
// they are abandoned where they are.
type RunState struct {
	RunID       string         `json:"run_id"`
	VideoID     string         `json:"video_id"`
	Stage       Stage          `json:"stage"`
	FailedStage Stage          `json:"failed_stage,omitempty"`
	StartedAt   string         `json:"started_at"`
	CompletedAt string         `json:"completed_at,omitempty"`
	Metadata    *VideoMetadata `json:"metadata,omitempty"`

	DownloadedFile string `json:"downloaded_file,omitempty"`
	EditedFile     string `json:"edited_file,omitempty"`
	ArchivedFile   string `json:"archived_file,omitempty"`

	YouTubeID   string `json:"youtube_id,omitempty"`
	YouTubeURL  string `json:"youtube_url,omitempty"`
	PublishAt   string `json:"publish_at,omitempty"`
	InstagramID string `json:"instagram_id,omitempty"`

	Error string `json:"error,omitempty"`
}
