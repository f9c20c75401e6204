// Package config provides configuration loading for policymesh.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/viper"
)

// InitViper initializes Viper with the configuration file and
// environment variables, adapted from the teacher's InitViper
// (internal/config/loader.go): same search-standard-locations and
// explicit-extension logic, renamed to policymesh's file/env names.
func InitViper(configFile string) {
	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else if found := findConfigFile(); found != "" {
		viper.SetConfigFile(found)
	} else {
		viper.SetConfigName("policymesh")
		viper.SetConfigType("yaml")
	}

	// Environment variable support: POLICYMESH_EVALUATION_MAX_CONDITION_DEPTH
	viper.SetEnvPrefix("POLICYMESH")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	bindNestedEnvKeys()
}

// findConfigFile searches standard locations for a policymesh config
// file with an explicit YAML extension, preventing Viper from matching
// the policymeshctl binary itself in the current directory.
func findConfigFile() string {
	home, _ := os.UserHomeDir()
	paths := []string{
		".",
		filepath.Join(home, ".policymesh"),
	}
	if runtime.GOOS == "windows" {
		if pd := os.Getenv("ProgramData"); pd != "" {
			paths = append(paths, filepath.Join(pd, "policymesh"))
		}
	} else {
		paths = append(paths, "/etc/policymesh")
	}
	return findConfigFileInPaths(paths)
}

func findConfigFileInPaths(paths []string) string {
	for _, dir := range paths {
		for _, ext := range []string{".yaml", ".yml"} {
			path := filepath.Join(dir, "policymesh"+ext)
			if _, err := os.Stat(path); err == nil {
				return path
			}
		}
	}
	return ""
}

// bindNestedEnvKeys binds config keys for environment variable
// overrides, mirroring the teacher's bindNestedEnvKeys.
func bindNestedEnvKeys() {
	_ = viper.BindEnv("evaluation.conflict_resolution")
	_ = viper.BindEnv("evaluation.max_condition_depth")
	_ = viper.BindEnv("evaluation.default_deadline_ms")

	_ = viper.BindEnv("cache.subject_facts_ttl")
	_ = viper.BindEnv("cache.resource_facts_ttl")
	_ = viper.BindEnv("cache.compiled_policy_ttl")

	_ = viper.BindEnv("decision_log.enabled")
	_ = viper.BindEnv("decision_log.backend")
	_ = viper.BindEnv("decision_log.dir")
	_ = viper.BindEnv("decision_log.deny_only")
	_ = viper.BindEnv("decision_log.batch_size")
	_ = viper.BindEnv("decision_log.flush_interval")

	_ = viper.BindEnv("store.backend")
	_ = viper.BindEnv("cli.output_format")
	_ = viper.BindEnv("dev_mode")
}

// LoadConfig reads the configuration file, applies environment
// overrides, sets defaults, and returns the validated EngineConfig.
func LoadConfig() (*EngineConfig, error) {
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg EngineConfig
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.SetDefaults()
	cfg.SetDevDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// LoadConfigRaw reads configuration and applies defaults without
// validating, for callers that still need to apply CLI flag overrides
// (e.g. --dev) before validation.
func LoadConfigRaw() (*EngineConfig, error) {
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg EngineConfig
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.SetDefaults()
	return &cfg, nil
}

// ConfigFileUsed returns the path to the loaded config file, or empty
// if none was found (env-vars-only mode).
func ConfigFileUsed() string {
	return viper.ConfigFileUsed()
}
