package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/jaychengg/antig/internal/feed"
	"github.com/jaychengg/antig/internal/risk"
	"github.com/jaychengg/antig/internal/sanity"
)

type Root struct {
	Source   string            `yaml:"source"` // cache key source label
	LogLevel string            `yaml:"log_level"`
	Feed     feed.ClientConfig `yaml:"feed"`
	Sanity   sanity.Config     `yaml:"sanity"`
	Risk     risk.GateConfig   `yaml:"risk"`
}

func Load(path string) (Root, error) {
	var c Root
	b, err := os.ReadFile(path)
	if err != nil {
		return c, err
	}
	if err := yaml.Unmarshal(b, &c); err != nil {
		return c, err
	}

	if c.Source == "" {
		c.Source = "finazon"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Sanity.DefaultCeiling == 0 {
		c.Sanity.DefaultCeiling = 5000
	}
	if c.Sanity.Ceilings == nil {
		c.Sanity.Ceilings = map[string]float64{
			"equity": 5000,
			"crypto": 500000,
		}
	}

	return c, nil
}
