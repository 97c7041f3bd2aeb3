package services

import (
	"errors"

	"servermon/backend/app/jwt"
	"servermon/backend/app/models"
	"servermon/backend/app/repo"
	"servermon/backend/global"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

type UserService struct {
	users  *repo.UserRepository
	signer jwt.Signer
}

func NewUserService(users *repo.UserRepository, signer jwt.Signer) *UserService {
	return &UserService{users: users, signer: signer}
}

func (s *UserService) Login(username, password string) (token, role string, err error) {
	u, err := s.users.FindByUsername(username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", "", ErrInvalidCredentials
		}
		return "", "", err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return "", "", ErrInvalidCredentials
	}
	token, err = s.signer.Sign(u.ID, u.Username, u.Role)
	if err != nil {
		return "", "", err
	}
	return token, u.Role, nil
}

// EnsureAdmin seeds the admin account on first boot.
func (s *UserService) EnsureAdmin(username, password string) error {
	if _, err := s.users.FindByUsername(username); err == nil {
		return nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	global.Logger.Info().Str("username", username).Msg("seeding admin user")
	return s.users.Create(&models.User{Username: username, PasswordHash: string(hash), Role: "admin"})
}
