package service

import (
	"errors"
	"net/http"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"product-catalog-api/internal/model"
	"product-catalog-api/internal/repository"
	"product-catalog-api/pkg/apierror"
)

func newTestAuthService(t *testing.T, unique bool) (*AuthService, *repository.UserRepository, *AuditService) {
	t.Helper()

	tokens, err := NewTokenService("test-secret", time.Hour)
	require.NoError(t, err)
	audit, err := NewAuditService(filepath.Join(t.TempDir(), "audit.log"))
	require.NoError(t, err)

	users := repository.NewUserRepository()
	auth, err := NewAuthService(users, tokens, audit, AuthOptions{BcryptCost: bcrypt.MinCost, UniqueUsernames: unique})
	require.NoError(t, err)
	return auth, users, audit
}

func requireStatus(t *testing.T, err error, status int) {
	t.Helper()

	var apiErr *apierror.APIError
	require.True(t, errors.As(err, &apiErr), "expected APIError, got %v", err)
	require.Equal(t, status, apiErr.HTTPStatus)
}

func TestAuthServiceRegisterAndLogin(t *testing.T) {
	t.Parallel()

	auth, users, audit := newTestAuthService(t, true)

	user, err := auth.Register(model.RegisterRequest{ID: 1, Name: "Alice", Email: "alice@test.io", Username: "alice", Password: "secret1"}, model.AuditActor{IP: "127.0.0.1"})
	require.NoError(t, err)
	require.Equal(t, model.AuthUser{ID: 1, Name: "Alice", Email: "alice@test.io", Username: "alice"}, user)

	stored, err := users.FindByUsername("alice")
	require.NoError(t, err)
	require.NotEqual(t, "secret1", stored.PasswordHash)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("secret1")))

	t.Run("correct password yields a verifiable token", func(t *testing.T) {
		token, loginErr := auth.Login("alice", "secret1", model.AuditActor{})
		require.NoError(t, loginErr)
		require.NotEmpty(t, token.AccessToken)
		require.Equal(t, "Bearer", token.TokenType)
		require.Equal(t, int64(3600), token.ExpiresIn)

		claims, verifyErr := auth.ValidateToken(token.AccessToken)
		require.NoError(t, verifyErr)
		require.Equal(t, "alice", claims.Username)
	})

	t.Run("wrong password and unknown user fail the same way", func(t *testing.T) {
		_, wrongPassword := auth.Login("alice", "wrong", model.AuditActor{})
		_, unknownUser := auth.Login("mallory", "secret1", model.AuditActor{})

		requireStatus(t, wrongPassword, http.StatusForbidden)
		requireStatus(t, unknownUser, http.StatusForbidden)
		require.Equal(t, wrongPassword.Error(), unknownUser.Error())
		require.ErrorIs(t, wrongPassword, model.ErrInvalidCredentials)
		require.ErrorIs(t, unknownUser, model.ErrInvalidCredentials)
	})

	t.Run("username lookup is case sensitive", func(t *testing.T) {
		_, loginErr := auth.Login("ALICE", "secret1", model.AuditActor{})
		requireStatus(t, loginErr, http.StatusForbidden)
	})

	t.Run("attempts are audited", func(t *testing.T) {
		entries, _, queryErr := audit.Query(model.AuditQuery{Action: "user.login", Status: "failed"})
		require.NoError(t, queryErr)
		require.NotEmpty(t, entries)
	})
}

func TestAuthServiceRegisterValidation(t *testing.T) {
	t.Parallel()

	auth, _, _ := newTestAuthService(t, true)

	_, err := auth.Register(model.RegisterRequest{Username: "alice"}, model.AuditActor{})
	requireStatus(t, err, http.StatusBadRequest)

	_, err = auth.Register(model.RegisterRequest{Password: "secret1"}, model.AuditActor{})
	requireStatus(t, err, http.StatusBadRequest)

	// Any non-empty password is accepted.
	_, err = auth.Register(model.RegisterRequest{Username: "bob", Password: "x"}, model.AuditActor{})
	require.NoError(t, err)
}

func TestAuthServiceDuplicateUsernames(t *testing.T) {
	t.Parallel()

	t.Run("unique mode answers conflict", func(t *testing.T) {
		auth, users, _ := newTestAuthService(t, true)

		_, err := auth.Register(model.RegisterRequest{ID: 1, Username: "alice", Password: "secret1"}, model.AuditActor{})
		require.NoError(t, err)

		_, err = auth.Register(model.RegisterRequest{ID: 2, Username: "alice", Password: "other"}, model.AuditActor{})
		requireStatus(t, err, http.StatusConflict)
		require.ErrorIs(t, err, model.ErrUserAlreadyExists)
		require.Equal(t, 1, users.Count())
	})

	t.Run("lenient mode appends and the first registration keeps working", func(t *testing.T) {
		auth, users, _ := newTestAuthService(t, false)

		_, err := auth.Register(model.RegisterRequest{ID: 1, Username: "alice", Password: "secret1"}, model.AuditActor{})
		require.NoError(t, err)
		_, err = auth.Register(model.RegisterRequest{ID: 2, Username: "alice", Password: "other"}, model.AuditActor{})
		require.NoError(t, err)
		require.Equal(t, 2, users.Count())

		_, err = auth.Login("alice", "secret1", model.AuditActor{})
		require.NoError(t, err)

		_, err = auth.Login("alice", "other", model.AuditActor{})
		requireStatus(t, err, http.StatusForbidden)
	})
}

func TestNewAuthServiceRejectsBadCost(t *testing.T) {
	t.Parallel()

	tokens, err := NewTokenService("test-secret", time.Hour)
	require.NoError(t, err)

	_, err = NewAuthService(repository.NewUserRepository(), tokens, nil, AuthOptions{BcryptCost: 99})
	require.Error(t, err)
}

func TestAuthServiceProfile(t *testing.T) {
	t.Parallel()

	auth, _, _ := newTestAuthService(t, true)

	_, err := auth.Register(model.RegisterRequest{ID: 3, Name: "Carol", Username: "carol", Password: "pw"}, model.AuditActor{})
	require.NoError(t, err)

	profile, err := auth.Profile("carol")
	require.NoError(t, err)
	require.Equal(t, model.AuthUser{ID: 3, Name: "Carol", Username: "carol"}, profile)

	_, err = auth.Profile("nobody")
	requireStatus(t, err, http.StatusNotFound)
	require.ErrorIs(t, err, model.ErrUserNotFound)
}

func TestAuthServiceLongPassword(t *testing.T) {
	t.Parallel()

	auth, _, _ := newTestAuthService(t, true)
	long := strings.Repeat("p", 80)

	_, err := auth.Register(model.RegisterRequest{Username: "bob", Password: long}, model.AuditActor{})
	require.NoError(t, err)

	_, err = auth.Login("bob", long, model.AuditActor{})
	require.NoError(t, err)

	// only the first 72 bytes take part in the comparison
	_, err = auth.Login("bob", strings.Repeat("p", 72)+"different", model.AuditActor{})
	require.NoError(t, err)

	_, err = auth.Login("bob", strings.Repeat("p", 71), model.AuditActor{})
	requireStatus(t, err, http.StatusForbidden)
}
