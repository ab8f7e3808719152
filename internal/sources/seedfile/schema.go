package seedfile

// Config represents the top-level structure of the seed file.
type Config struct {
	Campaigns []CampaignSpec `yaml:"campaigns"`
}

// CampaignSpec describes one campaign with its endpoints and links.
type CampaignSpec struct {
	ID                string         `yaml:"id"`
	Name              string         `yaml:"name"`
	RotationStrategy  string         `yaml:"rotation_strategy,omitempty"`
	AutoCheckEnabled  bool           `yaml:"auto_check_enabled,omitempty"`
	AutoCheckInterval string         `yaml:"auto_check_interval,omitempty"` // Go duration, ex: "5m"
	Endpoints         []EndpointSpec `yaml:"endpoints"`
	Links             []LinkSpec     `yaml:"links"`
}

type EndpointSpec struct {
	ID       string `yaml:"id"`
	URL      string `yaml:"url"`
	Priority int    `yaml:"priority,omitempty"`
	Active   *bool  `yaml:"active,omitempty"` // defaults to true
}

type LinkSpec struct {
	ID          string `yaml:"id"`
	Slug        string `yaml:"slug"`
	FallbackURL string `yaml:"fallback_url,omitempty"`
}
