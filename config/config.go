// Copyright 2024 The Beacon Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package config loads pipeline configuration from YAML and the
// environment and builds a ready-to-use Runtime from it.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	beacon "github.com/diagio/beacon"
	"github.com/diagio/beacon/batcher"
	"github.com/diagio/beacon/target/file"
	"github.com/diagio/beacon/target/otlp"
	"github.com/diagio/beacon/target/term"
)

// Duration is a time.Duration that unmarshals from YAML strings like
// "250ms".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("config: bad duration %q: %w", s, err)
	}
	*d = Duration(v)
	return nil
}

// Config is the YAML document root.
type Config struct {
	Service string         `yaml:"service"`
	Filter  FilterConfig   `yaml:"filter"`
	Batch   BatchConfig    `yaml:"batch"`
	Targets []TargetConfig `yaml:"targets"`
}

// FilterConfig restricts which events enter the pipeline.
type FilterConfig struct {
	MinLevel string `yaml:"min_level"`
	Module   string `yaml:"module"`
}

// BatchConfig maps onto batcher.Config.
type BatchConfig struct {
	Size            int         `yaml:"size"`
	FlushInterval   Duration    `yaml:"flush_interval"`
	MaxRetries      int         `yaml:"max_retries"`
	RetryBase       Duration    `yaml:"retry_base"`
	RetryMax        Duration    `yaml:"retry_max"`
	RetryMultiplier float64     `yaml:"retry_multiplier"`
	DeliveryTimeout Duration    `yaml:"delivery_timeout"`
	ShutdownTimeout Duration    `yaml:"shutdown_timeout"`
	Queue           QueueConfig `yaml:"queue"`
}

// QueueConfig selects the admission policy: unbounded, drop_newest,
// drop_oldest, or block, with a capacity for the bounded ones.
type QueueConfig struct {
	Policy   string `yaml:"policy"`
	Capacity int    `yaml:"capacity"`
}

// TargetConfig describes one sink.
type TargetConfig struct {
	Type string `yaml:"type"` // term, file, or otlp

	// file
	Path string `yaml:"path"`

	// term
	Color *bool `yaml:"color"`

	// otlp
	Endpoint        string            `yaml:"endpoint"`
	Transport       string            `yaml:"transport"`
	Insecure        bool              `yaml:"insecure"`
	Headers         map[string]string `yaml:"headers"`
	RawTemplateBody bool              `yaml:"raw_template_body"`
}

// Load reads and parses a YAML config file, then applies environment
// overrides.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	cfg.applyEnv()
	return cfg, nil
}

// applyEnv layers well-known environment variables over the file:
// BEACON_MIN_LEVEL and OTEL_EXPORTER_OTLP_ENDPOINT.
func (c *Config) applyEnv() {
	if v := os.Getenv("BEACON_MIN_LEVEL"); v != "" {
		c.Filter.MinLevel = v
	}
	if v := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"); v != "" {
		for i := range c.Targets {
			if c.Targets[i].Type == "otlp" && c.Targets[i].Endpoint == "" {
				c.Targets[i].Endpoint = v
			}
		}
	}
}

func (c QueueConfig) policy() (batcher.Policy, error) {
	switch c.Policy {
	case "", "unbounded":
		return batcher.Unbounded(), nil
	case "drop_newest", "drop_oldest", "block":
		if c.Capacity <= 0 {
			return batcher.Policy{}, fmt.Errorf("config: queue policy %q needs a positive capacity", c.Policy)
		}
	default:
		return batcher.Policy{}, fmt.Errorf("config: unknown queue policy %q", c.Policy)
	}
	switch c.Policy {
	case "drop_newest":
		return batcher.DropNewest(c.Capacity), nil
	case "drop_oldest":
		return batcher.DropOldest(c.Capacity), nil
	default:
		return batcher.Block(c.Capacity), nil
	}
}

func (c BatchConfig) batcherConfig() (batcher.Config, error) {
	queue, err := c.Queue.policy()
	if err != nil {
		return batcher.Config{}, err
	}
	return batcher.Config{
		BatchSize:       c.Size,
		FlushInterval:   time.Duration(c.FlushInterval),
		MaxRetries:      c.MaxRetries,
		RetryBase:       time.Duration(c.RetryBase),
		RetryMax:        time.Duration(c.RetryMax),
		RetryMultiplier: c.RetryMultiplier,
		DeliveryTimeout: time.Duration(c.DeliveryTimeout),
		ShutdownTimeout: time.Duration(c.ShutdownTimeout),
		Queue:           queue,
	}, nil
}

func (c TargetConfig) target(service string) (beacon.Target, error) {
	switch c.Type {
	case "term":
		var opts []term.Option
		if c.Color != nil {
			opts = append(opts, term.WithColor(*c.Color))
		}
		return term.New(opts...), nil
	case "file":
		return file.New(c.Path)
	case "otlp":
		return otlp.New(otlp.Config{
			Endpoint:        c.Endpoint,
			Transport:       otlp.Transport(c.Transport),
			Insecure:        c.Insecure,
			Headers:         c.Headers,
			ServiceName:     service,
			RawTemplateBody: c.RawTemplateBody,
		})
	}
	return nil, fmt.Errorf("config: unknown target type %q", c.Type)
}

func (c FilterConfig) filter() (beacon.Filter, error) {
	var filters []beacon.Filter
	if c.MinLevel != "" {
		l, err := beacon.ParseLevel(c.MinLevel)
		if err != nil {
			return nil, fmt.Errorf("config: %w", err)
		}
		filters = append(filters, beacon.MinLevel(l))
	}
	if c.Module != "" {
		filters = append(filters, beacon.ModulePrefix(c.Module))
	}
	switch len(filters) {
	case 0:
		return nil, nil
	case 1:
		return filters[0], nil
	default:
		return beacon.AllOf(filters...), nil
	}
}

// Build constructs a Runtime with one batcher per configured target.
func (c Config) Build() (*beacon.Runtime, error) {
	filter, err := c.Filter.filter()
	if err != nil {
		return nil, err
	}
	bcfg, err := c.Batch.batcherConfig()
	if err != nil {
		return nil, err
	}
	var opts []beacon.Option
	if filter != nil {
		opts = append(opts, beacon.WithFilter(filter))
	}
	for _, tc := range c.Targets {
		t, err := tc.target(c.Service)
		if err != nil {
			return nil, err
		}
		opts = append(opts, beacon.WithPipeline(batcher.New(t, bcfg)))
	}
	return beacon.New(opts...), nil
}
