package config

type Config interface {
	EnvConfig
}

type EnvConfig interface {
	GetBaseURL() string
	GetAPIPrefix() string
	GetRequestTimeout() string
	GetRefreshTimeout() string
	GetSessionFile() string
	GetEnv() string
}

type mainConfig struct {
	EnvVars
}

func New() Config {
	return mainConfig{}
}
