package service

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"product-catalog-api/internal/model"
	"product-catalog-api/pkg/apierror"
)

const DefaultBcryptCost = 10

// maxPasswordBytes is the bcrypt input window. Longer passwords are truncated
// on both register and login instead of being rejected.
const maxPasswordBytes = 72

type credentialStore interface {
	Create(user model.User) error
	CreateUnique(user model.User) error
	FindByUsername(username string) (model.User, error)
}

type AuthOptions struct {
	BcryptCost int
	// UniqueUsernames rejects a username or email that is already registered.
	UniqueUsernames bool
}

type AuthService struct {
	users  credentialStore
	tokens *TokenService
	audit  *AuditService
	opts   AuthOptions
	// dummyHash keeps a failed lookup as slow as a failed password check.
	dummyHash []byte
}

func NewAuthService(users credentialStore, tokens *TokenService, audit *AuditService, opts AuthOptions) (*AuthService, error) {
	if opts.BcryptCost == 0 {
		opts.BcryptCost = DefaultBcryptCost
	}
	if opts.BcryptCost < bcrypt.MinCost || opts.BcryptCost > bcrypt.MaxCost {
		return nil, fmt.Errorf("bcrypt cost %d out of range", opts.BcryptCost)
	}

	dummy, err := bcrypt.GenerateFromPassword([]byte("not-a-real-password"), opts.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("prepare dummy hash: %w", err)
	}

	return &AuthService{
		users:     users,
		tokens:    tokens,
		audit:     audit,
		opts:      opts,
		dummyHash: dummy,
	}, nil
}

// Register hashes the password and stores the user. Only presence of username and
// password is checked.
func (s *AuthService) Register(req model.RegisterRequest, actor model.AuditActor) (model.AuthUser, error) {
	username := strings.TrimSpace(req.Username)
	if username == "" || req.Password == "" {
		return model.AuthUser{}, apierror.Validation("username and password are required", "")
	}

	hash, err := bcrypt.GenerateFromPassword(passwordBytes(req.Password), s.opts.BcryptCost)
	if err != nil {
		return model.AuthUser{}, fmt.Errorf("hash password: %w", err)
	}

	user := model.User{
		ID:           req.ID,
		Name:         req.Name,
		Email:        strings.TrimSpace(req.Email),
		Username:     username,
		PasswordHash: string(hash),
	}

	if s.opts.UniqueUsernames {
		err = s.users.CreateUnique(user)
	} else {
		err = s.users.Create(user)
	}

	actor.Username = username
	if err != nil {
		s.audit.Log("user.register", actor, "failed", username, nil, nil, err.Error())
		if errors.Is(err, model.ErrUserAlreadyExists) {
			return model.AuthUser{}, apierror.Wrap(err, "ALREADY_EXISTS", "username or email already exists", username, http.StatusConflict)
		}
		return model.AuthUser{}, err
	}

	s.audit.Log("user.register", actor, "success", username, nil, user.Public(), "")
	return user.Public(), nil
}

// Login fails the same way for an unknown user and a wrong password.
func (s *AuthService) Login(username string, password string, actor model.AuditActor) (model.AccessToken, error) {
	actor.Username = username

	user, err := s.users.FindByUsername(username)
	hash := []byte(user.PasswordHash)
	if err != nil {
		hash = s.dummyHash
	}

	if cmpErr := bcrypt.CompareHashAndPassword(hash, passwordBytes(password)); err != nil || cmpErr != nil {
		s.audit.Log("user.login", actor, "failed", username, nil, nil, "invalid credentials")
		return model.AccessToken{}, apierror.Wrap(model.ErrInvalidCredentials, "INVALID_CREDENTIALS", "incorrect username or password", "", http.StatusForbidden)
	}

	token, err := s.tokens.Issue(user.Username)
	if err != nil {
		return model.AccessToken{}, err
	}

	s.audit.Log("user.login", actor, "success", username, nil, nil, "")
	return model.AccessToken{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int64(s.tokens.TTL().Seconds()),
	}, nil
}

// Profile returns the first user registered under username.
func (s *AuthService) Profile(username string) (model.AuthUser, error) {
	user, err := s.users.FindByUsername(username)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			return model.AuthUser{}, apierror.Wrap(err, "NOT_FOUND", "user not found", username, http.StatusNotFound)
		}
		return model.AuthUser{}, err
	}
	return user.Public(), nil
}

func (s *AuthService) ValidateToken(tokenString string) (*model.AuthClaims, error) {
	return s.tokens.Verify(tokenString)
}

func passwordBytes(password string) []byte {
	b := []byte(password)
	return b[:min(len(b), maxPasswordBytes)]
}
