package config

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// fileValues mirrors the optional YAML configuration file. Any value left
// empty falls back to the environment-variable configuration.
type fileValues struct {
	AppName    string `yaml:"app_name"`
	Locale     string `yaml:"locale"`
	APIBaseURL string `yaml:"api_base_url"`
	DataFolder string `yaml:"data_folder"`
	Provider   struct {
		AppKey     string `yaml:"app_key"`
		Secret     string `yaml:"secret"`
		Issuer     string `yaml:"issuer"`
		Redirect   string `yaml:"redirect_url"`
		ListenAddr string `yaml:"listen_addr"`
	} `yaml:"provider"`
}

type fileConfig struct {
	mainConfig
	v fileValues
}

var _ Config = fileConfig{}

// Load reads the YAML configuration file at path and overlays it on top of
// the environment configuration. An empty path returns the plain
// environment configuration.
func Load(path string) (Config, error) {
	if path == "" {
		return New(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "[config.Load] read config file")
	}
	var v fileValues
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, errors.Wrap(err, "[config.Load] parse config file")
	}
	return fileConfig{v: v}, nil
}

func (c fileConfig) GetAppName() string {
	return firstOf(c.v.AppName, c.mainConfig.GetAppName())
}

func (c fileConfig) GetLocale() string {
	return firstOf(c.v.Locale, c.mainConfig.GetLocale())
}

func (c fileConfig) GetAPIBaseURL() string {
	return firstOf(c.v.APIBaseURL, c.mainConfig.GetAPIBaseURL())
}

func (c fileConfig) GetDataFolder() string {
	return firstOf(c.v.DataFolder, c.mainConfig.GetDataFolder())
}

func (c fileConfig) GetProviderAppKey() string {
	return firstOf(c.v.Provider.AppKey, c.mainConfig.GetProviderAppKey())
}

func (c fileConfig) GetProviderSecret() string {
	return firstOf(c.v.Provider.Secret, c.mainConfig.GetProviderSecret())
}

func (c fileConfig) GetProviderIssuer() string {
	return firstOf(c.v.Provider.Issuer, c.mainConfig.GetProviderIssuer())
}

func (c fileConfig) GetRedirectURL() string {
	return firstOf(c.v.Provider.Redirect, c.mainConfig.GetRedirectURL())
}

func (c fileConfig) GetCallbackListenAddr() string {
	return firstOf(c.v.Provider.ListenAddr, c.mainConfig.GetCallbackListenAddr())
}

func firstOf(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
