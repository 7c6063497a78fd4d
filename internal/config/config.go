package config

type Config interface {
	EnvConfig
	BackendConfig
	ProviderConfig
	StorageConfig
}

type EnvConfig interface {
	GetAppName() string
	GetEnv() string
	GetLocale() string
}

type BackendConfig interface {
	GetAPIBaseURL() string
}

type ProviderConfig interface {
	GetProviderAppKey() string
	GetProviderSecret() string
	GetProviderIssuer() string
	GetRedirectURL() string
	GetCallbackListenAddr() string
}

type StorageConfig interface {
	GetDataFolder() string
	GetStorePassphrase() string
}

type mainConfig struct {
	EnvVars
	Backend
	Provider
}

func New() Config {
	return mainConfig{}
}
