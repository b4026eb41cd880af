package config

import (
	"fmt"
	"os"

	"vrlounge/internal/pricing"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// PricesConfig is the root of prices.yaml.
type PricesConfig struct {
	Policy   string             `yaml:"policy"`
	Hostess  float64            `yaml:"hostess"`
	Hourly   map[string]float64 `yaml:"hourly"`
	Birthday map[int]float64    `yaml:"birthday"` // hour of party -> price
}

// LoadPrices loads and validates the price table. The table version is derived
// from the file contents so report caches follow edits.
func LoadPrices(path string) (*pricing.Table, error) {
	if path == "" {
		path = "configs/prices.yaml"
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read prices config: %w", err)
	}
	return ParsePrices(data)
}

// ParsePrices decodes a prices.yaml document.
func ParsePrices(data []byte) (*pricing.Table, error) {
	var cfg PricesConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse prices config: %w", err)
	}

	table := cfg.Table()
	table.Version = uuid.NewSHA1(uuid.NameSpaceOID, data).String()

	if err := table.Validate(); err != nil {
		return nil, fmt.Errorf("validate prices config: %w", err)
	}
	return table, nil
}

// Table converts the file layout into a price table.
func (c *PricesConfig) Table() *pricing.Table {
	t := &pricing.Table{
		Hostess:  c.Hostess,
		Hourly:   make(map[string]float64, len(c.Hourly)),
		Birthday: make(map[int]float64, len(c.Birthday)),
		Policy:   pricing.Policy(c.Policy),
	}
	for k, v := range c.Hourly {
		t.Hourly[k] = v
	}
	for h, v := range c.Birthday {
		t.Birthday[h] = v
	}
	if t.Policy == "" {
		t.Policy = pricing.Lenient
	}
	return t
}
