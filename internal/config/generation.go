package config

import (
	"errors"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// GenerationConfig tunes the content generation request.
type GenerationConfig struct {
	Model       string  `mapstructure:"model"`
	Temperature float64 `mapstructure:"temperature"`
	MaxTokens   int     `mapstructure:"maxTokens"`
	TopK        int     `mapstructure:"topK"`
	TopP        float64 `mapstructure:"topP"`
}

func DefaultGenerationConfig(cfg Config) GenerationConfig {
	return GenerationConfig{
		Model:       cfg.AI.Model,
		Temperature: cfg.AI.Temperature,
		MaxTokens:   cfg.AI.MaxTokens,
		TopK:        40,
		TopP:        0.8,
	}
}

type GenerationConfigHolder struct {
	current atomic.Value // holds GenerationConfig
}

// NewStaticGenerationConfigHolder returns a holder that never reloads.
func NewStaticGenerationConfigHolder(cfg GenerationConfig) *GenerationConfigHolder {
	holder := &GenerationConfigHolder{}
	holder.current.Store(cfg)
	return holder
}

// NewGenerationConfigHolder reads generation.yml when present and watches it for changes.
func NewGenerationConfigHolder(cfg Config, log *zap.Logger) (*GenerationConfigHolder, error) {
	log = log.Named("config.generation")
	v := viper.New()

	v.SetConfigName("generation")
	v.SetConfigType("yml")
	v.AddConfigPath("/var/lib/breakeven/config")
	v.AddConfigPath("/etc/breakeven")
	v.AddConfigPath(".")

	v.SetEnvPrefix("BREAKEVEN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultGenerationConfig(cfg)
	v.SetDefault("generation.model", defaults.Model)
	v.SetDefault("generation.temperature", defaults.Temperature)
	v.SetDefault("generation.maxTokens", defaults.MaxTokens)
	v.SetDefault("generation.topK", defaults.TopK)
	v.SetDefault("generation.topP", defaults.TopP)

	watch := true
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		watch = false
	}

	var current GenerationConfig
	if err := v.UnmarshalKey("generation", &current); err != nil {
		return nil, err
	}
	if err := validateGenerationConfig(current); err != nil {
		return nil, err
	}

	holder := NewStaticGenerationConfigHolder(current)
	if !watch {
		return holder, nil
	}

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated GenerationConfig
		if err := v.UnmarshalKey("generation", &updated); err != nil {
			log.Warn("reload failed", zap.Error(err))
			return
		}
		if err := validateGenerationConfig(updated); err != nil {
			log.Warn("invalid config ignored", zap.Error(err))
			return
		}
		holder.current.Store(updated)
		log.Info("reloaded", zap.String("file", e.Name))
	})

	return holder, nil
}

func (h *GenerationConfigHolder) Get() GenerationConfig {
	return h.current.Load().(GenerationConfig)
}

func validateGenerationConfig(cfg GenerationConfig) error {
	if strings.TrimSpace(cfg.Model) == "" {
		return errors.New("generation.model cannot be empty")
	}
	if cfg.Temperature < 0 || cfg.Temperature > 2 {
		return errors.New("generation.temperature must be within [0, 2]")
	}
	if cfg.MaxTokens <= 0 {
		return errors.New("generation.maxTokens must be positive")
	}
	if cfg.TopP < 0 || cfg.TopP > 1 {
		return errors.New("generation.topP must be within [0, 1]")
	}
	return nil
}
