package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// fileConfig is the YAML form of the command-line flags. Attribute lists use the same
// "key" or "key=value" syntax as -include and -exclude.
type fileConfig struct {
	Modules       []string `yaml:"modules"`
	URLs          []string `yaml:"urls"`
	Suites        []string `yaml:"suites"`
	Include       []string `yaml:"include"`
	Exclude       []string `yaml:"exclude"`
	Run           []string `yaml:"run"`
	Skip          []string `yaml:"skip"`
	MaxConcurrent *int     `yaml:"maxConcurrent"`
	TimeLimit     string   `yaml:"timeLimit"`
	Seed          *int64   `yaml:"seed"`
	XML           string   `yaml:"xml"`
	Table         *bool    `yaml:"table"`
	Verbose       *bool    `yaml:"verbose"`
	VeryVerbose   *bool    `yaml:"veryVerbose"`
	MetricsAddr   string   `yaml:"metricsAddr"`
}

func loadConfig(path string) (fileConfig, error) {
	var config fileConfig
	data, err := os.ReadFile(path)
	if err != nil {
		return config, fmt.Errorf("unable to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &config); err != nil {
		return config, fmt.Errorf("invalid config file %s: %w", path, err)
	}
	return config, nil
}

// applyTo copies config values into params for every flag not named in explicit.
func (f fileConfig) applyTo(params *commandParams, explicit map[string]bool) error {
	if !explicit["module"] {
		params.modules = append(params.modules, f.Modules...)
	}
	if !explicit["url"] {
		params.urls = append(params.urls, f.URLs...)
	}
	if !explicit["suite"] {
		params.suites = append(params.suites, f.Suites...)
	}
	if !explicit["include"] {
		for _, spec := range f.Include {
			if err := params.include.Set(spec); err != nil {
				return fmt.Errorf("config include: %w", err)
			}
		}
	}
	if !explicit["exclude"] {
		for _, spec := range f.Exclude {
			if err := params.exclude.Set(spec); err != nil {
				return fmt.Errorf("config exclude: %w", err)
			}
		}
	}
	if !explicit["run"] {
		for _, p := range f.Run {
			if err := params.names.MustMatch.Set(p); err != nil {
				return fmt.Errorf("config run: %w", err)
			}
		}
	}
	if !explicit["skip"] {
		for _, p := range f.Skip {
			if err := params.names.MustNotMatch.Set(p); err != nil {
				return fmt.Errorf("config skip: %w", err)
			}
		}
	}
	if f.MaxConcurrent != nil && !explicit["max-concurrent"] {
		if *f.MaxConcurrent < 0 {
			return errors.New("config maxConcurrent cannot be negative")
		}
		params.maxConcurrent = *f.MaxConcurrent
	}
	if f.TimeLimit != "" && !explicit["time-limit"] {
		d, err := time.ParseDuration(f.TimeLimit)
		if err != nil {
			return fmt.Errorf("config timeLimit: %w", err)
		}
		params.timeLimit = d
	}
	if f.Seed != nil && !explicit["seed"] {
		params.seed = *f.Seed
	}
	if f.XML != "" && !explicit["xml"] {
		params.xmlFile = f.XML
	}
	if f.Table != nil && !explicit["table"] {
		params.table = *f.Table
	}
	if f.Verbose != nil && !explicit["verbose"] {
		params.verbose = *f.Verbose
	}
	if f.VeryVerbose != nil && !explicit["very-verbose"] {
		params.veryVerbose = *f.VeryVerbose
	}
	if f.MetricsAddr != "" && !explicit["metrics-addr"] {
		params.metricsAddr = f.MetricsAddr
	}
	return nil
}
