package app

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"product-catalog-api/internal/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()

	dir := t.TempDir()
	return &config.Config{
		ServerPort:       "0",
		RequestTimeout:   time.Second,
		JWTSecret:        "test-secret",
		JWTAccessTTL:     time.Hour,
		BcryptCost:       4,
		UniqueUsernames:  true,
		ProductsFile:     filepath.Join(dir, "data", "products.json"),
		SeedTimeout:      time.Second,
		AuditLogFile:     filepath.Join(dir, "state", "audit.log"),
		CORSOrigins:      []string{"*"},
		RateLimitRPM:     100,
		AuthRateLimitRPM: 10,
		LogFormat:        "pretty",
	}
}

func TestNewSeedsEmptyCatalog(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[{"id":1,"title":"Backpack","price":109.95,"rating":{"rate":3.9,"count":120}}]`))
	}))
	t.Cleanup(upstream.Close)

	cfg := testConfig(t)
	cfg.ProductsSeedURL = upstream.URL

	application, err := New(cfg)
	require.NoError(t, err)
	require.NotNil(t, application.Handler())

	raw, err := os.ReadFile(cfg.ProductsFile)
	require.NoError(t, err)
	require.Contains(t, string(raw), "Backpack")
}

func TestNewSurvivesSeedFailure(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	t.Cleanup(upstream.Close)

	cfg := testConfig(t)
	cfg.ProductsSeedURL = upstream.URL

	_, err := New(cfg)
	require.NoError(t, err)

	raw, err := os.ReadFile(cfg.ProductsFile)
	require.NoError(t, err)
	require.Equal(t, "[]", string(raw))
}

func TestNewRejectsCorruptCatalog(t *testing.T) {
	cfg := testConfig(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(cfg.ProductsFile), 0o755))
	require.NoError(t, os.WriteFile(cfg.ProductsFile, []byte("{oops"), 0o644))

	_, err := New(cfg)
	require.ErrorContains(t, err, "failed to load products")
}
