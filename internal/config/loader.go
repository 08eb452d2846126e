package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	configName = ".git-anger"
	configType = "yaml"

	// envPrefix matches the ANGER_ prefix used by the server deployment.
	envPrefix       = "ANGER"
	envKeySeparator = "_"
)

// Binding ties a config key to a command-line flag. The flag wins over file,
// environment and defaults only when it was set explicitly.
type Binding struct {
	Key  string
	Flag *pflag.Flag
}

// LoadConfig loads configuration from file, env vars, flags and defaults.
// If configPath is non-empty, it is used as the explicit config file path.
// Otherwise, the config file is searched in CWD and $HOME.
// Missing config file is not an error; defaults are used.
func LoadConfig(configPath string, bindings ...Binding) (*Config, error) {
	viperCfg := viper.New()

	applyDefaults(viperCfg)

	viperCfg.SetConfigType(configType)
	viperCfg.SetEnvPrefix(envPrefix)
	viperCfg.SetEnvKeyReplacer(strings.NewReplacer(".", envKeySeparator))
	viperCfg.AutomaticEnv()

	for _, b := range bindings {
		if b.Flag == nil {
			continue
		}

		err := viperCfg.BindPFlag(b.Key, b.Flag)
		if err != nil {
			return nil, fmt.Errorf("bind flag %s: %w", b.Flag.Name, err)
		}
	}

	if configPath != "" {
		viperCfg.SetConfigFile(configPath)
	} else {
		viperCfg.SetConfigName(configName)
		viperCfg.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viperCfg.AddConfigPath(home)
		}
	}

	readErr := viperCfg.ReadInConfig()
	if readErr != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(readErr, &notFound) {
			return nil, fmt.Errorf("read config: %w", readErr)
		}
	}

	var cfg Config

	unmarshalErr := viperCfg.Unmarshal(&cfg)
	if unmarshalErr != nil {
		return nil, fmt.Errorf("unmarshal config: %w", unmarshalErr)
	}

	validateErr := cfg.Validate()
	if validateErr != nil {
		return nil, fmt.Errorf("validate config: %w", validateErr)
	}

	return &cfg, nil
}

func applyDefaults(viperCfg *viper.Viper) {
	viperCfg.SetDefault("scan.workers", DefaultScanWorkers)
	viperCfg.SetDefault("scan.first_parent", DefaultScanFirstParent)
	viperCfg.SetDefault("scan.since", DefaultScanSince)
	viperCfg.SetDefault("scan.limit", DefaultScanLimit)
	viperCfg.SetDefault("scan.reverse", DefaultScanReverse)
	viperCfg.SetDefault("scan.words_file", DefaultScanWordsFile)

	viperCfg.SetDefault("output.format", DefaultOutputFormat)
	viperCfg.SetDefault("output.sort", DefaultOutputSort)
	viperCfg.SetDefault("output.pad", DefaultOutputPad)
	viperCfg.SetDefault("output.no_color", DefaultOutputNoColor)

	viperCfg.SetDefault("logging.level", DefaultLoggingLevel)
	viperCfg.SetDefault("logging.json", DefaultLoggingJSON)

	viperCfg.SetDefault("telemetry.otlp_endpoint", DefaultTelemetryOTLPEndpoint)
	viperCfg.SetDefault("telemetry.otlp_insecure", DefaultTelemetryOTLPInsecure)
	viperCfg.SetDefault("telemetry.otlp_headers", DefaultTelemetryOTLPHeaders)
	viperCfg.SetDefault("telemetry.sample_ratio", DefaultTelemetrySampleRatio)
	viperCfg.SetDefault("telemetry.environment", DefaultTelemetryEnvironment)

	viperCfg.SetDefault("server.host", DefaultServerHost)
	viperCfg.SetDefault("server.port", DefaultServerPort)
	viperCfg.SetDefault("server.path", DefaultServerPath)
	viperCfg.SetDefault("server.name", DefaultServerName)
	viperCfg.SetDefault("server.admin", DefaultServerAdmin)
	viperCfg.SetDefault("server.root", DefaultServerRoot)
}
