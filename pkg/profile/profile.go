package profile

import (
	"bytes"
	"errors"
	"io"
	"os"
	"time"

	"github.com/leyiUPM/emotion/pkg/stats"
	"github.com/m-mizutani/goerr/v2"
	"gopkg.in/yaml.v3"
)

var ErrInvalidProfile = goerr.New("invalid profile")

const (
	MinTopK = 1
	MaxTopK = 20
)

// Profile holds the dashboard defaults
type Profile struct {
	Threshold         float64       `yaml:"threshold"`
	TopK              int           `yaml:"top_k"`
	TopEmotions       int           `yaml:"top_emotions"`
	DistributionLimit int           `yaml:"distribution_limit"`
	TrendWindow       int           `yaml:"trend_window"`
	ExploreLimit      int           `yaml:"explore_limit"`
	HealthInterval    time.Duration `yaml:"health_interval"`
}

func Default() *Profile {
	return &Profile{
		Threshold:         0.5,
		TopK:              5,
		TopEmotions:       stats.DefaultTopEmotions,
		DistributionLimit: stats.DefaultDistributionLimit,
		TrendWindow:       stats.DefaultTrendWindow,
		ExploreLimit:      20,
		HealthInterval:    30 * time.Second,
	}
}

// Load reads a YAML profile from path. Fields missing from the file keep their default
// value. An empty path returns Default().
func Load(path string) (*Profile, error) {
	p := Default()
	if path == "" {
		return p, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read profile", goerr.V("path", path))
	}

	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(p); err != nil && !errors.Is(err, io.EOF) {
		return nil, goerr.Wrap(ErrInvalidProfile, "failed to parse profile",
			goerr.V("path", path), goerr.V("error", err.Error()))
	}

	if err := p.Validate(); err != nil {
		return nil, goerr.Wrap(err, "profile validation failed", goerr.V("path", path))
	}
	return p, nil
}

func (p *Profile) Validate() error {
	if p.Threshold < 0 || p.Threshold > 1 {
		return goerr.Wrap(ErrInvalidProfile, "threshold must be between 0 and 1", goerr.V("threshold", p.Threshold))
	}
	if p.TopK < MinTopK || p.TopK > MaxTopK {
		return goerr.Wrap(ErrInvalidProfile, "top_k must be between 1 and 20", goerr.V("top_k", p.TopK))
	}

	positive := map[string]int{
		"top_emotions":       p.TopEmotions,
		"distribution_limit": p.DistributionLimit,
		"trend_window":       p.TrendWindow,
		"explore_limit":      p.ExploreLimit,
	}
	for name, v := range positive {
		if v <= 0 {
			return goerr.Wrap(ErrInvalidProfile, "value must be positive", goerr.V("field", name), goerr.V("value", v))
		}
	}

	if p.HealthInterval < time.Second {
		return goerr.Wrap(ErrInvalidProfile, "health_interval must be at least 1s", goerr.V("health_interval", p.HealthInterval))
	}
	return nil
}

// SummaryOptions returns the aggregation sizes of the profile
func (p *Profile) SummaryOptions() stats.SummaryOptions {
	return stats.SummaryOptions{
		TopEmotions:       p.TopEmotions,
		DistributionLimit: p.DistributionLimit,
		TrendWindow:       p.TrendWindow,
	}
}
