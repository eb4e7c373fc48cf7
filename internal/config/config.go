package config

import (
	"errors"

	"github.com/spf13/viper"
)

type Config struct {
	Server  ServerConfig
	Worker  WorkerConfig
	Fetch   FetchConfig
	S3      S3Config
	History HistoryConfig
	Logger  Logger
}

type ServerConfig struct {
	AppVersion     string
	Port           string
	Mode           string
	StaticDir      string
	AllowedOrigins []string
}

type WorkerConfig struct {
	WorkerCount    int
	QueueSize      int
	MaxCPUUsage    float64
	JobTimeoutMins int
	WorkDir        string
}

type FetchConfig struct {
	Binary  string
	Retries int
}

type S3Config struct {
	Endpoint          string
	Region            string
	AccessKey         string
	SecretKey         string
	OutputBucket      string
	URLExpiryMins     int
	UploadPartSizeMB  int64
	UploadConcurrency int
}

type HistoryConfig struct {
	Limit int
}

type Logger struct {
	Development       bool
	DisableCaller     bool
	DisableStacktrace bool
	Encoding          string
	Level             string
}

func LoadConfig(filename string) (*viper.Viper, error) {
	v := viper.New()
	v.SetConfigFile(filename)
	v.AddConfigPath(".")
	v.AutomaticEnv()
	if err := v.ReadInConfig(); err != nil {
		var configFileNotFound viper.ConfigFileNotFoundError
		if errors.Is(err, configFileNotFound) {
			return nil, errors.New("config file not found")
		}
		return nil, err
	}
	return v, nil
}

func ParseConfig(v *viper.Viper) (*Config, error) {
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, err
	}
	return &c, nil
}
