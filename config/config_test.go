package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.Database.Mode)
	assert.Equal(t, 15*time.Second, cfg.API.Timeout)
	assert.Equal(t, 0.15, cfg.Grading.PopularityWeight)
	assert.Equal(t, 30*time.Second, cfg.Farming.Interval)
	assert.Equal(t, 6*time.Hour, cfg.Cache.FetchTTL)
	assert.Empty(t, cfg.Metrics.Textfile)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `
api:
  membership_id: "4611686018400000000"
  rate_limit_rps: 2
grading:
  wishlist: ./voltron.txt
  popularity_weight: 0.1
database:
  mode: mysql
  mysql_dsn: "user:pass@tcp(localhost:3306)/vault"
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "4611686018400000000", cfg.API.MembershipID)
	assert.Equal(t, 2.0, cfg.API.RateLimitRPS)
	assert.Equal(t, "./voltron.txt", cfg.Grading.Wishlist)
	assert.Equal(t, 0.1, cfg.Grading.PopularityWeight)
	assert.Equal(t, "mysql", cfg.Database.Mode)
	// untouched keys keep defaults
	assert.Equal(t, 5, cfg.API.RateLimitBurst)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("VAULTCTL_API_API_KEY", "from-env")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.API.APIKey)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
