package router

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"product-catalog-api/internal/config"
	"product-catalog-api/internal/event"
	"product-catalog-api/internal/handler"
	"product-catalog-api/internal/middleware"
	"product-catalog-api/internal/repository"
	"product-catalog-api/internal/service"
	"product-catalog-api/internal/storage"
	"product-catalog-api/internal/websocket"
)

const seedCatalog = `[
  {"id":1,"title":"Backpack","price":109.95,"description":"bag","category":"bags","image":"a.jpg","rating":{"rate":3.9,"count":120}},
  {"id":2,"title":"T-Shirt","price":15,"description":"shirt","category":"clothing","image":"b.jpg","rating":{"rate":4.1,"count":259}},
  {"id":3,"title":"Jacket","price":20,"description":"jacket","category":"clothing","image":"c.jpg","rating":{"rate":4.7,"count":5}}
]`

type testServer struct {
	*httptest.Server
	products *repository.ProductRepository
	file     *storage.JSONFile
	audit    *service.AuditService
}

func newTestServer(t *testing.T, uniqueUsernames bool) *testServer {
	t.Helper()

	dir := t.TempDir()
	productsPath := filepath.Join(dir, "products.json")
	require.NoError(t, os.WriteFile(productsPath, []byte(seedCatalog), 0o644))

	cfg := &config.Config{
		ServerPort:       "8080",
		RequestTimeout:   5 * time.Second,
		JWTSecret:        "test-secret",
		JWTAccessTTL:     time.Hour,
		BcryptCost:       bcrypt.MinCost,
		UniqueUsernames:  uniqueUsernames,
		ProductsFile:     productsPath,
		AuditLogFile:     filepath.Join(dir, "audit.log"),
		CORSOrigins:      []string{"*"},
		RateLimitRPM:     1000,
		AuthRateLimitRPM: 1000,
		LogFormat:        "pretty",
	}

	file, err := storage.NewJSONFile(cfg.ProductsFile)
	require.NoError(t, err)
	products := repository.NewProductRepository(file)
	require.NoError(t, products.Load())

	audit, err := service.NewAuditService(cfg.AuditLogFile)
	require.NoError(t, err)
	tokens, err := service.NewTokenService(cfg.JWTSecret, cfg.JWTAccessTTL)
	require.NoError(t, err)
	authService, err := service.NewAuthService(repository.NewUserRepository(), tokens, audit, service.AuthOptions{
		BcryptCost:      cfg.BcryptCost,
		UniqueUsernames: cfg.UniqueUsernames,
	})
	require.NoError(t, err)

	bus := event.NewBus()
	hub := websocket.NewHub(bus)
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	t.Cleanup(cancel)

	r := New(cfg, middleware.NewAuthMiddleware(authService), Handlers{
		Auth:    handler.NewAuthHandler(authService),
		User:    handler.NewUserHandler(authService),
		Product: handler.NewProductHandler(service.NewProductService(products, audit, bus)),
		Audit:   handler.NewAuditHandler(audit),
		Docs:    handler.NewDocsHandler(),
		Events:  websocket.NewUpgrader(hub, cfg.CORSOrigins),
	})

	server := httptest.NewServer(r)
	t.Cleanup(server.Close)

	return &testServer{Server: server, products: products, file: file, audit: audit}
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (s *testServer) do(t *testing.T, method string, path string, body any, token string) (*http.Response, envelope) {
	t.Helper()

	var reader *bytes.Reader
	switch v := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(v))
	default:
		payload, err := json.Marshal(v)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequest(method, s.URL+path, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })

	var env envelope
	if resp.StatusCode != http.StatusNoContent {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	}
	return resp, env
}

func (s *testServer) register(t *testing.T, username string, password string) *http.Response {
	t.Helper()

	resp, _ := s.do(t, http.MethodPost, "/v1/users/register", map[string]any{
		"name":     username,
		"email":    username + "@example.com",
		"username": username,
		"password": password,
	}, "")
	return resp
}

func (s *testServer) login(t *testing.T, username string, password string) string {
	t.Helper()

	resp, env := s.do(t, http.MethodPost, "/v1/users/login", map[string]string{
		"username": username,
		"password": password,
	}, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var token struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &token))
	require.NotEmpty(t, token.AccessToken)
	return token.AccessToken
}

func (s *testServer) authed(t *testing.T) string {
	t.Helper()

	require.Equal(t, http.StatusCreated, s.register(t, "alice", "secret1").StatusCode)
	return s.login(t, "alice", "secret1")
}

func decodeData[T any](t *testing.T, env envelope) T {
	t.Helper()

	var out T
	require.NoError(t, json.Unmarshal(env.Data, &out))
	return out
}
