package services

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"storefront/internal/domain"
	"storefront/internal/repos"
)

var ErrEmailTaken = errors.New("email already registered")

type UserService struct {
	Users *repos.UserRepo
}

type NewUser struct {
	Name      string
	Email     string
	Subdomain string
	Role      string
	Password  string // optional
}

func (s *UserService) List() ([]domain.User, error) { return s.Users.List() }

func (s *UserService) Get(id string) (*domain.User, error) { return s.Users.ByID(id) }

func (s *UserService) Create(in NewUser) (*domain.User, error) {
	if _, err := s.Users.ByEmail(in.Email); err == nil {
		return nil, ErrEmailTaken
	}
	u := &domain.User{
		Email:     strings.ToLower(in.Email),
		Name:      in.Name,
		Role:      in.Role,
		Subdomain: in.Subdomain,
	}
	if u.Role == "" {
		u.Role = domain.RoleUser
	}
	if in.Password != "" {
		h, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		u.Hash = string(h)
	}
	if err := s.Users.Create(u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *UserService) Delete(id string) error { return s.Users.DeleteUserCascade(id) }
