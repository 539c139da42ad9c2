package config

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Discovery Discovery `yaml:"discovery"`
	Virality  Virality  `yaml:"virality"`
	Download  Download  `yaml:"download"`
	Edit      Edit      `yaml:"edit"`
	Upload    Upload    `yaml:"upload"`
	Schedule  Schedule  `yaml:"schedule"`
	Instagram Instagram `yaml:"instagram"`
	Paths     Paths     `yaml:"paths"`
	Pipeline  Pipeline  `yaml:"pipeline"`
}

type Discovery struct {
	FeedURL       string `yaml:"feed_url"`
	MaxAttempts   int    `yaml:"max_attempts"`
	PageSettleSec int    `yaml:"page_settle_sec"`
	WindowWidth   int    `yaml:"window_width"`
	WindowHeight  int    `yaml:"window_height"`
}

type Virality struct {
	MinViews    uint64 `yaml:"min_views"`
	MinLikes    uint64 `yaml:"min_likes"`
	MinComments uint64 `yaml:"min_comments"`
}

type Download struct {
	CookiesFile       string `yaml:"cookies_file"`
	UseBrowserCookies bool   `yaml:"use_browser_cookies"`
	Browser           string `yaml:"browser"`
	VisitorData       string `yaml:"visitor_data"`
}

type Edit struct {
	TemplatesDir    string  `yaml:"templates_dir"`
	VoicesDir       string  `yaml:"voices_dir"`
	MainScale       float64 `yaml:"main_scale"`
	OverlayHeight   float64 `yaml:"overlay_height_frac"`
	OverlayDelaySec float64 `yaml:"overlay_delay_sec"`
	OverlayFadeSec  float64 `yaml:"overlay_fade_sec"`
	OverlayOpacity  float64 `yaml:"overlay_opacity"`
}

type Upload struct {
	CategoryID        string `yaml:"category_id"`
	DefaultLanguage   string `yaml:"default_language"`
	NotifySubscribers bool   `yaml:"notify_subscribers"`
	MadeForKids       bool   `yaml:"made_for_kids"`
}

type Schedule struct {
	SlotsUTC  []int  `yaml:"slots_utc"`
	StateFile string `yaml:"state_file"`
}

type Instagram struct {
	CredentialsFile string `yaml:"credentials_file"`
}

type Paths struct {
	Downloads string `yaml:"downloads"`
	Shorts    string `yaml:"shorts"`
}

type Pipeline struct {
	PauseSec int `yaml:"pause_sec"`
}

// Load reads config.yaml, fills in defaults and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Discovery.FeedURL == "" {
		c.Discovery.FeedURL = "https://www.youtube.com/shorts/"
	}
	if c.Discovery.MaxAttempts == 0 {
		c.Discovery.MaxAttempts = 50
	}
	if c.Discovery.PageSettleSec == 0 {
		c.Discovery.PageSettleSec = 5
	}
	if c.Discovery.WindowWidth == 0 {
		c.Discovery.WindowWidth = 1920
	}
	if c.Discovery.WindowHeight == 0 {
		c.Discovery.WindowHeight = 1080
	}
	if c.Virality.MinViews == 0 {
		c.Virality.MinViews = 1_000_000
	}
	if c.Virality.MinLikes == 0 {
		c.Virality.MinLikes = 150_000
	}
	if c.Virality.MinComments == 0 {
		c.Virality.MinComments = 5_000
	}
	if c.Download.Browser == "" {
		c.Download.Browser = "chrome"
	}
	if c.Edit.TemplatesDir == "" {
		c.Edit.TemplatesDir = "templates/feedbacks"
	}
	if c.Edit.VoicesDir == "" {
		c.Edit.VoicesDir = "voices"
	}
	if c.Edit.MainScale == 0 {
		c.Edit.MainScale = 0.9
	}
	if c.Edit.OverlayHeight == 0 {
		c.Edit.OverlayHeight = 0.2
	}
	if c.Edit.OverlayDelaySec == 0 {
		c.Edit.OverlayDelaySec = 1.0
	}
	if c.Edit.OverlayFadeSec == 0 {
		c.Edit.OverlayFadeSec = 0.5
	}
	if c.Edit.OverlayOpacity == 0 {
		c.Edit.OverlayOpacity = 0.9
	}
	if c.Upload.CategoryID == "" {
		c.Upload.CategoryID = "22"
	}
	if c.Upload.DefaultLanguage == "" {
		c.Upload.DefaultLanguage = "en"
	}
	if len(c.Schedule.SlotsUTC) == 0 {
		c.Schedule.SlotsUTC = []int{10, 18}
	}
	if c.Schedule.StateFile == "" {
		c.Schedule.StateFile = "youtube_schedule.json"
	}
	if c.Instagram.CredentialsFile == "" {
		c.Instagram.CredentialsFile = "instagram_credentials.json"
	}
	if c.Paths.Downloads == "" {
		c.Paths.Downloads = "downloads"
	}
	if c.Paths.Shorts == "" {
		c.Paths.Shorts = "shorts"
	}
	if c.Pipeline.PauseSec == 0 {
		c.Pipeline.PauseSec = 5
	}
	sort.Ints(c.Schedule.SlotsUTC)
}

func (c *Config) validate() error {
	for _, h := range c.Schedule.SlotsUTC {
		if h < 0 || h > 23 {
			return fmt.Errorf("schedule: slot hour %d out of range", h)
		}
	}
	if c.Discovery.MaxAttempts < 1 {
		return fmt.Errorf("discovery: max_attempts must be positive")
	}
	return nil
}
