package txidxcli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tailscale/hujson"
)

// Config holds all configuration options for the txidx CLI. Values are
// resolved in order: built-in defaults, then a project config file, then
// command-line flags.
type Config struct {
	DBPath  string `json:"db_path"`
	Network string `json:"network"`

	EffectiveCwd string `json:"-"`
	DBPathAbs    string `json:"-"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{DBPath: "txidx.db", Network: "regtest"}
}

// ConfigFileName is the default project config file name.
const ConfigFileName = ".txidx.json"

// LoadConfigInput holds the inputs for LoadConfig.
type LoadConfigInput struct {
	WorkDirOverride string // -C/--cwd flag value; if empty, os.Getwd() is used
	ConfigPath      string // -c/--config flag value
	DBPathOverride  string // --db-path flag value; empty means no override
	NetworkOverride string // --network flag value; empty means no override
}

// LoadConfig loads configuration with the following precedence (highest
// wins): 1. Defaults, 2. Project config file (.txidx.json or an explicit
// --config path), 3. CLI flag overrides.
func LoadConfig(input LoadConfigInput) (Config, error) {
	workDir := input.WorkDirOverride
	if workDir == "" {
		var err error

		workDir, err = os.Getwd()
		if err != nil {
			return Config{}, fmt.Errorf("cannot get working directory: %w", err)
		}
	}

	cfg := DefaultConfig()

	fileCfg, err := loadProjectConfig(workDir, input.ConfigPath)
	if err != nil {
		return Config{}, err
	}

	cfg = mergeConfig(cfg, fileCfg)

	if input.DBPathOverride != "" {
		cfg.DBPath = input.DBPathOverride
	}

	if input.NetworkOverride != "" {
		cfg.Network = input.NetworkOverride
	}

	if cfg.DBPath == "" {
		return Config{}, ErrDBPathEmpty
	}

	cfg.EffectiveCwd = workDir

	if filepath.IsAbs(cfg.DBPath) {
		cfg.DBPathAbs = cfg.DBPath
	} else {
		cfg.DBPathAbs = filepath.Join(workDir, cfg.DBPath)
	}

	return cfg, nil
}

func loadProjectConfig(workDir, configPath string) (Config, error) {
	var cfgFile string

	var mustExist bool

	if configPath != "" {
		cfgFile = configPath
		if !filepath.IsAbs(cfgFile) {
			cfgFile = filepath.Join(workDir, cfgFile)
		}

		mustExist = true

		if _, statErr := os.Stat(cfgFile); statErr != nil {
			return Config{}, fmt.Errorf("%w: %s", ErrConfigFileNotFound, configPath)
		}
	} else {
		cfgFile = filepath.Join(workDir, ConfigFileName)
		mustExist = false
	}

	data, err := os.ReadFile(cfgFile)
	if err != nil {
		if os.IsNotExist(err) && !mustExist {
			return Config{}, nil
		}

		return Config{}, fmt.Errorf("%w: %s", ErrConfigFileRead, cfgFile)
	}

	cfg, err := parseConfig(data)
	if err != nil {
		return Config{}, fmt.Errorf("%w %s: %w", ErrConfigInvalid, cfgFile, err)
	}

	return cfg, nil
}

func parseConfig(data []byte) (Config, error) {
	standardized, err := hujson.Standardize(data)
	if err != nil {
		return Config{}, fmt.Errorf("invalid JSONC: %w", err)
	}

	var cfg Config

	if err := json.Unmarshal(standardized, &cfg); err != nil {
		return Config{}, fmt.Errorf("invalid JSON: %w", err)
	}

	return cfg, nil
}

func mergeConfig(base, overlay Config) Config {
	if overlay.DBPath != "" {
		base.DBPath = overlay.DBPath
	}

	if overlay.Network != "" {
		base.Network = overlay.Network
	}

	return base
}
