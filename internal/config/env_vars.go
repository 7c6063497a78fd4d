package config

import "os"

const (
	appNameVar    = "APP_NAME"
	folderEnvVar  = "FOLDER"
	localeEnvVar  = "LOCALE"
	apiBaseURLVar = "API_BASE_URL"
)

type EnvVars struct{}

var _ EnvConfig = EnvVars{}
var _ StorageConfig = EnvVars{}

func (EnvVars) GetAppName() string {
	return GetEnv(appNameVar, "Petmily")
}

func (EnvVars) GetEnv() string {
	env := os.Getenv("ENV")
	if env == "" {
		return "DEV"
	}
	return env
}

// GetLocale selects the message catalogue used for user-facing API errors.
func (EnvVars) GetLocale() string {
	return GetEnv(localeEnvVar, "ko")
}

func (EnvVars) GetDataFolder() string {
	return GetEnv(folderEnvVar, "./data")
}

// GetStorePassphrase enables at-rest encryption of the durable credential
// file when non-empty.
func (EnvVars) GetStorePassphrase() string {
	return GetEnv("STORE_PASSPHRASE", "")
}

type Backend struct{}

var _ BackendConfig = Backend{}

// GetAPIBaseURL returns the base URL of the Petmily REST backend
// (e.g. "https://api.petmily.app")
func (Backend) GetAPIBaseURL() string {
	return GetEnv(apiBaseURLVar, "http://localhost:8080")
}

type Provider struct{}

var _ ProviderConfig = Provider{}

func (Provider) GetProviderAppKey() string {
	return GetEnv("KAKAO_APP_KEY", "")
}

func (Provider) GetProviderSecret() string {
	return GetEnv("KAKAO_APP_SECRET", "")
}

// GetProviderIssuer returns an OIDC issuer URL for discovery. When empty,
// the fixed Kakao OAuth2 endpoints are used instead.
func (Provider) GetProviderIssuer() string {
	return GetEnv("KAKAO_ISSUER", "")
}

func (Provider) GetRedirectURL() string {
	return GetEnv("OAUTH_REDIRECT_URL", "http://localhost:3000/oauth2/redirect")
}

func (Provider) GetCallbackListenAddr() string {
	return GetEnv("CALLBACK_ADDR", "localhost:3000")
}

func GetEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}
