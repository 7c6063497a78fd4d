package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/petmily/petmily-go/internal/config"
)

func TestDefaults(t *testing.T) {
	cfg := config.New()

	assert.Equal(t, "Petmily", cfg.GetAppName())
	assert.Equal(t, "DEV", cfg.GetEnv())
	assert.Equal(t, "ko", cfg.GetLocale())
	assert.Equal(t, "./data", cfg.GetDataFolder())
	assert.Equal(t, "http://localhost:8080", cfg.GetAPIBaseURL())
	assert.Equal(t, "http://localhost:3000/oauth2/redirect", cfg.GetRedirectURL())
	assert.Equal(t, "localhost:3000", cfg.GetCallbackListenAddr())
	assert.Empty(t, cfg.GetProviderAppKey())
	assert.Empty(t, cfg.GetStorePassphrase())
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("APP_NAME", "PetmilyTest")
	t.Setenv("LOCALE", "en")
	t.Setenv("API_BASE_URL", "https://api.petmily.app")
	t.Setenv("KAKAO_APP_KEY", "env-key")

	cfg := config.New()
	assert.Equal(t, "PetmilyTest", cfg.GetAppName())
	assert.Equal(t, "en", cfg.GetLocale())
	assert.Equal(t, "https://api.petmily.app", cfg.GetAPIBaseURL())
	assert.Equal(t, "env-key", cfg.GetProviderAppKey())
}

func TestLoadEmptyPathReturnsEnvConfig(t *testing.T) {
	t.Setenv("LOCALE", "en")

	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, "en", cfg.GetLocale())
}

func TestLoadFileOverlaysEnv(t *testing.T) {
	t.Setenv("API_BASE_URL", "https://env.petmily.app")
	t.Setenv("KAKAO_APP_KEY", "env-key")

	path := filepath.Join(t.TempDir(), "petmily.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
locale: en
provider:
  app_key: file-key
`), 0o600))

	cfg, err := config.Load(path)
	require.NoError(t, err)

	// File values win, missing file values fall back to the environment.
	assert.Equal(t, "en", cfg.GetLocale())
	assert.Equal(t, "file-key", cfg.GetProviderAppKey())
	assert.Equal(t, "https://env.petmily.app", cfg.GetAPIBaseURL())
	assert.Equal(t, "Petmily", cfg.GetAppName())
}

func TestLoadMissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestLoadMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "petmily.yaml")
	require.NoError(t, os.WriteFile(path, []byte("locale: [broken"), 0o600))

	_, err := config.Load(path)
	require.Error(t, err)
}
