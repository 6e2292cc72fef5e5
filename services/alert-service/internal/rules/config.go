// Package rules implements the alert evaluators: flight timing, weather severity, news
// relevance and document expiry. Keyword sets and time windows come from a Config that
// can be tuned with a YAML file and hot-reloaded.
package rules

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Window is an inclusive range of time-until-departure.
type Window struct {
	Min time.Duration `yaml:"min"`
	Max time.Duration `yaml:"max"`
}

// Contains reports whether Min <= d <= Max.
func (w Window) Contains(d time.Duration) bool {
	return d >= w.Min && d <= w.Max
}

// FlightRules tunes the flight timing evaluator.
type FlightRules struct {
	CheckIn   Window `yaml:"checkin"`
	Departure Window `yaml:"departure"`
	GateWatch Window `yaml:"gate_watch"`
}

// WeatherRules tunes the weather severity evaluator.
type WeatherRules struct {
	Severe       []string `yaml:"severe"`
	Moderate     []string `yaml:"moderate"`
	ForecastDays int      `yaml:"forecast_days"`
}

// NewsRules tunes the news relevance evaluator.
type NewsRules struct {
	AdvisoryKeywords []string `yaml:"advisory_keywords"`
	TopArticles      int      `yaml:"top_articles"`
	DaysBack         int      `yaml:"days_back"`
	MessageTitleLen  int      `yaml:"message_title_len"`
}

// DocumentRules tunes the document expiry evaluator.
type DocumentRules struct {
	FilenameKeyword        string  `yaml:"filename_keyword"`
	ExpiryHorizonDays      int     `yaml:"expiry_horizon_days"`
	PlaceholderProbability float64 `yaml:"placeholder_probability"`
}

// Config is the complete tunable rule set.
type Config struct {
	Flight    FlightRules   `yaml:"flight"`
	Weather   WeatherRules  `yaml:"weather"`
	News      NewsRules     `yaml:"news"`
	Documents DocumentRules `yaml:"documents"`
}

// Default returns the built-in rule set.
func Default() *Config {
	return &Config{
		Flight: FlightRules{
			CheckIn:   Window{Min: 22 * time.Hour, Max: 24 * time.Hour},
			Departure: Window{Min: 2 * time.Hour, Max: 3 * time.Hour},
			GateWatch: Window{Min: 0, Max: 6 * time.Hour},
		},
		Weather: WeatherRules{
			Severe:       []string{"storm", "hurricane", "blizzard", "flood"},
			Moderate:     []string{"heavy rain", "heavy snow", "fog"},
			ForecastDays: 5,
		},
		News: NewsRules{
			AdvisoryKeywords: []string{
				"travel advisory", "border closure", "flight cancellation",
				"embassy", "security alert", "strike", "protest",
				"visa requirement", "entry restriction",
			},
			TopArticles:     3,
			DaysBack:        7,
			MessageTitleLen: 100,
		},
		Documents: DocumentRules{
			FilenameKeyword:        "passport",
			ExpiryHorizonDays:      180,
			PlaceholderProbability: 0.2,
		},
	}
}

// Load reads a YAML rules file. Fields the file omits keep their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML rules on top of the defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse rules: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the rule set is usable.
func (c *Config) Validate() error {
	for name, w := range map[string]Window{
		"flight.checkin":    c.Flight.CheckIn,
		"flight.departure":  c.Flight.Departure,
		"flight.gate_watch": c.Flight.GateWatch,
	} {
		if w.Min < 0 || w.Max < w.Min {
			return fmt.Errorf("%s window is invalid: min=%s max=%s", name, w.Min, w.Max)
		}
	}
	if len(c.Weather.Severe) == 0 {
		return fmt.Errorf("weather.severe must not be empty")
	}
	if c.Weather.ForecastDays < 1 {
		return fmt.Errorf("weather.forecast_days must be at least 1")
	}
	if len(c.News.AdvisoryKeywords) == 0 {
		return fmt.Errorf("news.advisory_keywords must not be empty")
	}
	if c.News.TopArticles < 1 {
		return fmt.Errorf("news.top_articles must be at least 1")
	}
	if c.News.DaysBack < 1 {
		return fmt.Errorf("news.days_back must be at least 1")
	}
	if c.News.MessageTitleLen < 1 {
		return fmt.Errorf("news.message_title_len must be at least 1")
	}
	if c.Documents.FilenameKeyword == "" {
		return fmt.Errorf("documents.filename_keyword is required")
	}
	if c.Documents.ExpiryHorizonDays < 0 {
		return fmt.Errorf("documents.expiry_horizon_days must not be negative")
	}
	if p := c.Documents.PlaceholderProbability; p < 0 || p > 1 {
		return fmt.Errorf("documents.placeholder_probability must be within [0,1], got %v", p)
	}
	return nil
}
