package config

import (
	"fmt"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

type HTTPConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type DatasetConfig struct {
	Root          string
	Recursive     bool
	CreateMissing bool
}

type ThumbnailConfig struct {
	MaxWidth  int
	MaxHeight int
	CacheSize int
}

type ScanConfig struct {
	AutoRescan bool
	Schedule   string
}

type ManifestConfig struct {
	DefaultPath string
}

type AppConfig struct {
	Environment      string
	HTTP             HTTPConfig
	Dataset          DatasetConfig
	Thumbnail        ThumbnailConfig
	Scan             ScanConfig
	Manifest         ManifestConfig
	AllowCORSOrigins []string
}

func Load() (*AppConfig, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("../config")

	v.SetEnvPrefix("COMFYPROMPT")
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	var cfg AppConfig
	if err := v.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")

	v.SetDefault("http.host", "0.0.0.0")
	v.SetDefault("http.port", 8085)
	v.SetDefault("http.readtimeout", "10s")
	v.SetDefault("http.writetimeout", "15s")
	v.SetDefault("http.idletimeout", "60s")

	v.SetDefault("dataset.root", "./dataset")
	v.SetDefault("dataset.recursive", true)
	v.SetDefault("dataset.createmissing", true)

	v.SetDefault("thumbnail.maxwidth", 150)
	v.SetDefault("thumbnail.maxheight", 150)
	v.SetDefault("thumbnail.cachesize", 4096)

	v.SetDefault("scan.autorescan", false)
	v.SetDefault("scan.schedule", "0 */10 * * * *")

	v.SetDefault("manifest.defaultpath", "./dataset.jsonl")
}
