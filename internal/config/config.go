package config

import (
	"flag"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env      string        `yaml:"env" env:"ENV" env-default:"local"`
	API      APIConfig     `yaml:"api"`
	Keystore KeystoreConf  `yaml:"keystore"`
	Session  SessionConfig `yaml:"session"`
	Metrics  MetricsConfig `yaml:"metrics"`
}

type APIConfig struct {
	BaseURL string        `yaml:"base_url" env:"API_BASE_URL" env-required:"true"`
	Timeout time.Duration `yaml:"timeout" env-default:"10s"`
}

type KeystoreConf struct {
	// Path of the file holding the persisted token pair. Defaults to a
	// dotfile in the user home directory when empty.
	Path string `yaml:"path" env:"KEYSTORE_PATH"`
}

type SessionConfig struct {
	// ExpirySkew is subtracted from a token's real expiry so a refresh
	// happens slightly before the backend would start rejecting it.
	ExpirySkew        time.Duration `yaml:"expiry_skew" env-default:"30s"`
	LowStockThreshold int           `yaml:"low_stock_threshold" env-default:"5"`
}

type MetricsConfig struct {
	// Debug dumps the process metrics to stderr after the command finishes.
	Debug bool `yaml:"debug" env:"METRICS_DEBUG" env-default:"false"`
}

func MustLoad() *Config {
	path := fetchConfigPath()
	if path == "" {
		panic("config path is empty")
	}

	return MustLoadPath(path)
}

func MustLoadPath(configPath string) *Config {
	// check if file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		panic("config file does not exist: " + configPath)
	}

	var cfg Config

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		panic("cannot read config: " + err.Error())
	}

	return &cfg
}

func fetchConfigPath() string {
	var res string

	// --config="path/to/config.yaml"
	flag.StringVar(&res, "config", "", "path to config file")
	flag.Parse()

	if res == "" {
		res = os.Getenv("CONFIG_PATH")
	}

	return res
}
