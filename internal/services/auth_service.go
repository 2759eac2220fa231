package services

import (
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/crypto/bcrypt"

	"storefront/internal/domain"
	"storefront/internal/repos"
)

var (
	ErrBadCreds  = errors.New("invalid credentials")
	ErrNoSession = errors.New("no signed in user for session")
	ErrForbidden = errors.New("role not allowed")
)

// AuthService ties users to the sid session cookie.
type AuthService struct {
	Users *repos.UserRepo
}

// Unknown emails and password-less accounts still pay for one bcrypt
// comparison so the response time does not reveal which emails exist.
var dummyHash = sync.OnceValue(func() []byte {
	h, _ := bcrypt.GenerateFromPassword([]byte("storefront-no-such-user"), bcrypt.DefaultCost)
	return h
})

// Login checks the password and binds sid to the user.
func (s *AuthService) Login(sid, email, password string) (*domain.User, error) {
	u, err := s.Users.ByEmail(email)
	if err != nil || u.Hash == "" {
		_ = bcrypt.CompareHashAndPassword(dummyHash(), []byte(password))
		return nil, ErrBadCreds
	}
	if bcrypt.CompareHashAndPassword([]byte(u.Hash), []byte(password)) != nil {
		return nil, ErrBadCreds
	}
	if err := s.Users.BindSession(sid, u.ID); err != nil {
		return nil, fmt.Errorf("bind session: %w", err)
	}
	return u, nil
}

func (s *AuthService) Logout(sid string) error {
	return s.Users.UnbindSession(sid)
}

func (s *AuthService) CurrentUser(sid string) (*domain.User, error) {
	if sid == "" {
		return nil, ErrNoSession
	}
	u, err := s.Users.SessionUser(sid)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoSession
	}
	return u, err
}

// Authorize resolves the session user and checks the role. An empty role
// accepts any signed in user.
func (s *AuthService) Authorize(sid, role string) (*domain.User, error) {
	u, err := s.CurrentUser(sid)
	if err != nil {
		return nil, err
	}
	if role != "" && u.Role != role {
		return u, ErrForbidden
	}
	return u, nil
}
