package llm

import (
	"fmt"
	"strings"
	"time"

	contractx "github.com/tanpawarit/Chative-Trip-Planner/agent/contract"
	statex "github.com/tanpawarit/Chative-Trip-Planner/agent/state"
	openrouterx "github.com/tanpawarit/Chative-Trip-Planner/pkg/openrouter"
)

// Config is read with the OPENROUTER prefix. Per-agent models and
// temperatures override the defaults; a negative temperature means "unset".
type Config struct {
	BaseURL            string        `envconfig:"BASE_URL" split_words:"true" default:"https://openrouter.ai/api/v1"`
	APIKey             string        `envconfig:"API_KEY" split_words:"true"`
	Model              string        `envconfig:"MODEL" split_words:"true"`
	MaxCompletionToken int           `envconfig:"MAX_COMPLETION_TOKEN" split_words:"true" default:"2000"`
	Temperature        float32       `envconfig:"TEMPERATURE" split_words:"true" default:"0.5"`
	Timeout            time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"60s"`
	SiteURL            string        `envconfig:"SITE_URL" split_words:"true"`
	SiteName           string        `envconfig:"SITE_NAME" split_words:"true"`

	PreferencesModel       string  `split_words:"true"`
	ResearchModel          string  `split_words:"true"`
	ItineraryModel         string  `split_words:"true"`
	BookingModel           string  `split_words:"true"`
	SummaryModel           string  `split_words:"true"`
	PreferencesTemperature float32 `split_words:"true" default:"-1"`
	ResearchTemperature    float32 `split_words:"true" default:"-1"`
	ItineraryTemperature   float32 `split_words:"true" default:"-1"`
	BookingTemperature     float32 `split_words:"true" default:"-1"`
	SummaryTemperature     float32 `split_words:"true" default:"-1"`
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.APIKey) == "" {
		return fmt.Errorf("%w: openrouter api key is required", contractx.ErrValidation)
	}
	if strings.TrimSpace(c.Model) == "" {
		return fmt.Errorf("%w: default model is required", contractx.ErrValidation)
	}
	return nil
}

func (c Config) override(agent statex.AgentName) (string, float32) {
	switch agent {
	case statex.AgentUserPreferences:
		return c.PreferencesModel, c.PreferencesTemperature
	case statex.AgentDestinationResearch:
		return c.ResearchModel, c.ResearchTemperature
	case statex.AgentItinerary:
		return c.ItineraryModel, c.ItineraryTemperature
	case statex.AgentBooking:
		return c.BookingModel, c.BookingTemperature
	case statex.AgentSummary:
		return c.SummaryModel, c.SummaryTemperature
	default:
		return "", -1
	}
}

// OpenRouterFor resolves the chat model settings of one agent.
func (c Config) OpenRouterFor(agent statex.AgentName) openrouterx.Config {
	modelName := strings.TrimSpace(c.Model)
	temp := c.Temperature

	if m, t := c.override(agent); strings.TrimSpace(m) != "" || t >= 0 {
		if v := strings.TrimSpace(m); v != "" {
			modelName = v
		}
		if t >= 0 {
			temp = t
		}
	}

	maxCompletionToken := c.MaxCompletionToken
	return openrouterx.Config{
		BaseURL:            strings.TrimSpace(c.BaseURL),
		APIKey:             strings.TrimSpace(c.APIKey),
		Model:              modelName,
		MaxCompletionToken: &maxCompletionToken,
		Temperature:        temp,
		Timeout:            c.Timeout,
		SiteURL:            strings.TrimSpace(c.SiteURL),
		SiteName:           strings.TrimSpace(c.SiteName),
	}
}
