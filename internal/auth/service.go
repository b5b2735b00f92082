package auth

import (
	"context"
	"encoding/base64"
	"strings"
	"time"

	"workshop-backend/internal/apperr"
	"workshop-backend/internal/database"
	"workshop-backend/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Users reads user records for the token verifier.
type Users struct {
	db *gorm.DB
}

func NewUsers(db *gorm.DB) *Users {
	return &Users{db: db}
}

func (u *Users) FindUser(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := u.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

type Service struct {
	db     *gorm.DB
	secret string
	ttl    time.Duration
}

func NewService(db *gorm.DB, secret string, ttl time.Duration) *Service {
	return &Service{db: db, secret: secret, ttl: ttl}
}

var errBadCredentials = apperr.Unauthenticated("invalid email or password")

// Login exchanges email/password for a bearer token.
func (s *Service) Login(ctx context.Context, email, password string) (string, *models.User, error) {
	email = NormalizeEmail(email)
	if email == "" || password == "" {
		return "", nil, errBadCredentials
	}

	var user models.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if database.IsNotFound(err) {
			return "", nil, errBadCredentials
		}
		return "", nil, apperr.Wrap(err, "user", "login")
	}
	if !user.Registered() {
		return "", nil, errBadCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte(password)); err != nil {
		return "", nil, errBadCredentials
	}

	token, err := IssueToken(s.secret, s.ttl, &user)
	if err != nil {
		return "", nil, apperr.Wrap(err, "token", "issue")
	}
	return token, &user, nil
}

type Registration struct {
	Name     string
	Email    string
	Phone    string
	Password string
}

// Register attaches a credential to a user created by an admin, or creates a
// new customer. A user that already has a credential cannot register again.
func (s *Service) Register(ctx context.Context, r Registration) (*models.User, error) {
	email := NormalizeEmail(r.Email)
	if email == "" || len(r.Password) < 8 {
		return nil, apperr.Validation("email and a password of at least 8 characters are required")
	}

	hash, err := HashPassword(r.Password)
	if err != nil {
		return nil, apperr.Wrap(err, "user", "hash password")
	}

	var user models.User
	err = database.WithTransaction(ctx, s.db, database.DefaultTxOptions(), func(tx *gorm.DB) error {
		err := database.ForUpdate(tx).Where("email = ?", email).First(&user).Error
		switch {
		case err == nil:
			if user.Registered() {
				return apperr.Conflict("user", "%s is already registered", email)
			}
			user.PasswordHash = &hash
			if strings.TrimSpace(r.Phone) != "" {
				user.Phone = strings.TrimSpace(r.Phone)
			}
			return tx.Save(&user).Error
		case database.IsNotFound(err):
			name := strings.TrimSpace(r.Name)
			if name == "" {
				return apperr.Validation("name is required")
			}
			user = models.User{
				Name:         name,
				Email:        email,
				Phone:        strings.TrimSpace(r.Phone),
				Role:         models.RoleCustomer,
				PasswordHash: &hash,
			}
			if err := tx.Create(&user).Error; err != nil {
				if database.IsDuplicate(err) {
					return apperr.Conflict("user", "%s is already registered", email)
				}
				return err
			}
			return nil
		default:
			return err
		}
	})
	if err != nil {
		return nil, apperr.Wrap(err, "user", "register")
	}
	return &user, nil
}

func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func NormalizeEmail(email string) string {
	return strings.TrimSpace(strings.ToLower(email))
}

// ParseBasic decodes an "Authorization: Basic ..." header.
func ParseBasic(header string) (email, password string, ok bool) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "basic") {
		return "", "", false
	}
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(parts[1]))
	if err != nil {
		return "", "", false
	}
	email, password, ok = strings.Cut(string(raw), ":")
	return email, password, ok
}
