package lodging

import "time"

// Config is read with the AGODA prefix, e.g. AGODA_BASE_URL.
type Config struct {
	BaseURL        string        `split_words:"true"`
	SearchPath     string        `split_words:"true"`
	SiteID         string        `envconfig:"SITE_ID"`
	APIKey         string        `envconfig:"API_KEY"`
	Currency       string        `split_words:"true" default:"USD"`
	Language       string        `split_words:"true" default:"en-us"`
	MaxResult      int           `split_words:"true" default:"3"`
	SortBy         string        `split_words:"true" default:"PriceAsc"`
	MinReviewScore float64       `split_words:"true" default:"0"`
	MinStarRating  float64       `split_words:"true" default:"0"`
	Timeout        time.Duration `split_words:"true" default:"20s"`
	MaxAttempts    int           `split_words:"true" default:"3"`
	BaseDelay      time.Duration `split_words:"true" default:"1s"`
	MaxDelay       time.Duration `split_words:"true" default:"8s"`
	RateWindow     time.Duration `split_words:"true" default:"1s"`
	RateBurst      int           `split_words:"true" default:"1"`
	FallbackOrder  []string      `split_words:"true" default:"widen_price,drop_filters,relax_price,minimal"`
	CacheTTL       time.Duration `envconfig:"CACHE_TTL" default:"10m"`
	CacheSize      int           `split_words:"true" default:"256"`
	CityMapPath    string        `split_words:"true" default:"city_mapping.csv"`
}

// Configured reports whether the upstream endpoint and credentials are set.
func (c Config) Configured() bool {
	return c.BaseURL != "" && c.APIKey != ""
}

func (c Config) withDefaults() Config {
	if c.Currency == "" {
		c.Currency = "USD"
	}
	if c.Language == "" {
		c.Language = "en-us"
	}
	if c.MaxResult <= 0 {
		c.MaxResult = 3
	}
	if c.SortBy == "" {
		c.SortBy = "PriceAsc"
	}
	if c.Timeout <= 0 {
		c.Timeout = 20 * time.Second
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 3
	}
	if c.BaseDelay <= 0 {
		c.BaseDelay = time.Second
	}
	if c.MaxDelay < c.BaseDelay {
		c.MaxDelay = c.BaseDelay
	}
	if c.FallbackOrder == nil {
		c.FallbackOrder = DefaultFallbackOrder()
	}
	return c
}
