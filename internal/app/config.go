package app

import "errors"

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	DatasetPaths  []string // dataset descriptor files or directories
	RecipesPath   string   // hcl recipe libraries
	ModulesPath   string   // hcl operation manifests
	CalibsPath    string   // yaml calibration index, optional
	OverridesPath string   // yaml user parameter overrides, optional

	Recipe        string // empty selects the library default
	SkipCompleted bool
	BestEffort    bool

	LogFormat       string
	LogLevel        string
	HealthcheckPort int
}

func NewConfig(cfg Config) (*Config, error) {
	if len(cfg.DatasetPaths) == 0 {
		return nil, errors.New("at least one dataset path is required")
	}
	if cfg.RecipesPath == "" {
		return nil, errors.New("RecipesPath is a required configuration field and cannot be empty")
	}

	return &cfg, nil
}
