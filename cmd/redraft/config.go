package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/hazyhaar/redraft/imagegen"
	"github.com/hazyhaar/redraft/imaging"
	"github.com/hazyhaar/redraft/rephrase"
	"github.com/hazyhaar/redraft/rewrite"
)

// appConfig is the redraft.yaml schema. Every section feeds one package's
// Config; missing fields keep package defaults.
type appConfig struct {
	// Workspace is the directory image references resolve against.
	Workspace string `yaml:"workspace"`

	// Listen is the serve address (serve command only).
	Listen string `yaml:"listen"`

	Rewrite  rewrite.Config  `yaml:"rewrite"`
	Rephrase rephrase.Config `yaml:"rephrase"`
	ImageGen imagegen.Config `yaml:"imagegen"`
	Imaging  imaging.Config  `yaml:"imaging"`
}

// loadConfig reads the YAML config file, if any, and applies environment
// fallbacks. With no file, deployment defaults apply.
func loadConfig(path string) (*appConfig, error) {
	cfg := &appConfig{
		Workspace: ".",
		Listen:    ":8086",
		Rewrite:   rewrite.DefaultConfig(),
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	applyEnv(cfg)
	return cfg, nil
}

// applyEnv fills credentials and endpoints from the environment when the
// config file left them empty.
func applyEnv(cfg *appConfig) {
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		if cfg.Rephrase.APIKey == "" {
			cfg.Rephrase.APIKey = key
		}
		if cfg.ImageGen.APIKey == "" {
			cfg.ImageGen.APIKey = key
		}
	}
	if ep := os.Getenv("REDRAFT_REPHRASE_ENDPOINT"); ep != "" && cfg.Rephrase.Endpoint == "" {
		cfg.Rephrase.Endpoint = ep
	}
	if ep := os.Getenv("REDRAFT_IMAGEGEN_ENDPOINT"); ep != "" && cfg.ImageGen.Endpoint == "" {
		cfg.ImageGen.Endpoint = ep
	}
}
