package repository

import (
	"sync"

	"product-catalog-api/internal/model"
)

// UserRepository is the in-memory credential store. Nothing survives a restart.
type UserRepository struct {
	mu    sync.RWMutex
	users []model.User
}

func NewUserRepository() *UserRepository {
	return &UserRepository{}
}

// Create appends the user even when the username is already taken.
func (r *UserRepository) Create(user model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.users = append(r.users, user)
	return nil
}

// CreateUnique rejects a username or email that is already registered.
func (r *UserRepository) CreateUnique(user model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.users {
		if existing.Username == user.Username {
			return model.ErrUserAlreadyExists
		}
		if user.Email != "" && existing.Email == user.Email {
			return model.ErrUserAlreadyExists
		}
	}

	r.users = append(r.users, user)
	return nil
}

// FindByUsername is a case-sensitive exact match; the first registration wins.
func (r *UserRepository) FindByUsername(username string) (model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, user := range r.users {
		if user.Username == username {
			return user, nil
		}
	}
	return model.User{}, model.ErrUserNotFound
}

func (r *UserRepository) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.users)
}
