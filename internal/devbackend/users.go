package devbackend

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// ErrBadCredentials is returned for an unknown email or wrong password.
var ErrBadCredentials = errors.New("incorrect email or password")

// User is a seeded dev account.
type User struct {
	ID           string
	Email        string
	IsSuperuser  bool
	passwordHash []byte
}

// Seed describes an account created at startup.
type Seed struct {
	Email       string
	Password    string
	IsSuperuser bool
}

// UserStore holds dev accounts keyed by lowercase email.
type UserStore struct {
	mu    sync.RWMutex
	byKey map[string]User
	byID  map[string]User
}

// NewUserStore hashes and stores the seeded accounts.
func NewUserStore(seeds ...Seed) (*UserStore, error) {
	s := &UserStore{byKey: map[string]User{}, byID: map[string]User{}}
	for n, seed := range seeds {
		email := strings.ToLower(strings.TrimSpace(seed.Email))
		if email == "" || seed.Password == "" {
			continue
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(seed.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("hash password for %s: %w", email, err)
		}
		u := User{ID: strconv.Itoa(n + 1), Email: email, IsSuperuser: seed.IsSuperuser, passwordHash: hash}
		s.byKey[email] = u
		s.byID[u.ID] = u
	}
	return s, nil
}

// Authenticate checks a password against the stored hash.
func (s *UserStore) Authenticate(email, password string) (User, error) {
	s.mu.RLock()
	u, ok := s.byKey[strings.ToLower(strings.TrimSpace(email))]
	s.mu.RUnlock()
	if !ok {
		return User{}, ErrBadCredentials
	}
	if err := bcrypt.CompareHashAndPassword(u.passwordHash, []byte(password)); err != nil {
		return User{}, ErrBadCredentials
	}
	return u, nil
}

// ByID returns the user with id.
func (s *UserStore) ByID(id string) (User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.byID[id]
	return u, ok
}
