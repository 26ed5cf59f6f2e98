package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/jordank1977/mimirr/internal/core/model"
)

// Config carries everything the binary needs. It also implements the
// core.SettingsStore port: Library() reads viper live, so pointing the
// service at a different manager doesn't need a restart when the config
// file is re-read.
type Config struct {
	Port   string
	DBPath string

	LibraryTimeout time.Duration
	LibraryRetry   int
	LibraryRPS     int

	PollInterval time.Duration
	BookListTTL  time.Duration
}

// Load reads config.yaml from the working directory (optional) and the
// MIMIRR_* environment, e.g. MIMIRR_LIBRARY_URL, MIMIRR_LIBRARY_APIKEY.
func Load() (*Config, error) {
	viper.SetDefault("port", "8080")
	viper.SetDefault("db.path", "./mimirr.db")
	viper.SetDefault("library.url", "")
	viper.SetDefault("library.apikey", "")
	viper.SetDefault("library.timeout", 10*time.Second)
	viper.SetDefault("library.retry", 1)
	viper.SetDefault("library.rps", 5)
	viper.SetDefault("poll.interval", time.Duration(0))
	viper.SetDefault("cache.booklist_ttl", 5*time.Minute)

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.SetEnvPrefix("mimirr")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	return &Config{
		Port:           viper.GetString("port"),
		DBPath:         viper.GetString("db.path"),
		LibraryTimeout: viper.GetDuration("library.timeout"),
		LibraryRetry:   viper.GetInt("library.retry"),
		LibraryRPS:     viper.GetInt("library.rps"),
		PollInterval:   viper.GetDuration("poll.interval"),
		BookListTTL:    viper.GetDuration("cache.booklist_ttl"),
	}, nil
}

func (c *Config) Library() model.LibrarySettings {
	return model.LibrarySettings{
		BaseURL: viper.GetString("library.url"),
		APIKey:  viper.GetString("library.apikey"),
	}
}
