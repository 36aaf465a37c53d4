package bootstrap

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yigit/crms/internal/config"
	"github.com/yigit/crms/internal/pkg/filestorage"
)

func TestConfigPath(t *testing.T) {
	t.Setenv("CRMS_CONFIG", "")
	assert.Equal(t, filepath.Join("configs", "config.yaml"), ConfigPath())

	t.Setenv("CRMS_CONFIG", "/etc/crms/config.yaml")
	assert.Equal(t, "/etc/crms/config.yaml", ConfigPath())
}

func TestSwaggerHost(t *testing.T) {
	assert.Equal(t, "localhost:8080", swaggerHost("http://localhost:8080"))
	assert.Equal(t, "crms.example.edu", swaggerHost("https://crms.example.edu/"))
	assert.Equal(t, "", swaggerHost(""))
}

func TestNewReportStorageLocal(t *testing.T) {
	cfg := &config.Config{}
	cfg.Storage.Driver = "local"
	cfg.Storage.LocalPath = t.TempDir()

	store, err := NewReportStorage(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	assert.IsType(t, &filestorage.LocalStorage{}, store)
}
