// Package admin holds user administration and the read-only reference
// tables.
package admin

import (
	"context"
	"strings"

	"workshop-backend/internal/apperr"
	"workshop-backend/internal/audit"
	"workshop-backend/internal/auth"
	"workshop-backend/internal/database"
	"workshop-backend/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var hundred = decimal.NewFromInt(100)

type UserInput struct {
	Name            string
	Email           string
	Phone           string
	Role            models.Role
	DiscountPercent decimal.Decimal
	// nil creates a user that has to register before logging in
	Password *string
}

type UserUpdate struct {
	Name            *string
	Phone           *string
	Role            *models.Role
	DiscountPercent *decimal.Decimal
}

type UserFilter struct {
	Role   models.Role
	Search string
}

type UserService struct {
	db *gorm.DB
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db}
}

func (s *UserService) List(ctx context.Context, f UserFilter) ([]models.User, error) {
	q := s.db.WithContext(ctx).Model(&models.User{})
	if f.Role != "" {
		q = q.Where("role = ?", f.Role)
	}
	if term := strings.TrimSpace(f.Search); term != "" {
		like := "%" + strings.ToLower(term) + "%"
		q = q.Where("LOWER(name) LIKE ? OR LOWER(email) LIKE ?", like, like)
	}

	var users []models.User
	if err := q.Order("name asc, id asc").Find(&users).Error; err != nil {
		return nil, apperr.Wrap(err, "user", "list")
	}
	return users, nil
}

func (s *UserService) Get(ctx context.Context, id uint) (*models.User, error) {
	var u models.User
	if err := s.db.WithContext(ctx).First(&u, id).Error; err != nil {
		if database.IsNotFound(err) {
			return nil, apperr.NotFound("user", id)
		}
		return nil, apperr.Wrap(err, "user", "get")
	}
	return &u, nil
}

func (s *UserService) Create(ctx context.Context, actor *models.User, in UserInput) (*models.User, error) {
	u := models.User{
		Name:            strings.TrimSpace(in.Name),
		Email:           auth.NormalizeEmail(in.Email),
		Phone:           strings.TrimSpace(in.Phone),
		Role:            in.Role,
		DiscountPercent: in.DiscountPercent.Round(2),
	}
	if u.Name == "" || u.Email == "" {
		return nil, apperr.Validation("name and email are required")
	}
	if !u.Role.Valid() {
		return nil, apperr.Validation("unknown role %q", in.Role)
	}
	if err := checkDiscount(u.DiscountPercent); err != nil {
		return nil, err
	}
	if in.Password != nil {
		if len(*in.Password) < 8 {
			return nil, apperr.Validation("password must be at least 8 characters")
		}
		hash, err := auth.HashPassword(*in.Password)
		if err != nil {
			return nil, apperr.Wrap(err, "user", "hash password")
		}
		u.PasswordHash = &hash
	}

	err := database.WithTransaction(ctx, s.db, database.DefaultTxOptions(), func(tx *gorm.DB) error {
		if err := tx.Create(&u).Error; err != nil {
			if database.IsDuplicate(err) {
				return apperr.Conflict("user", "email %s is already in use", u.Email)
			}
			return apperr.Wrap(err, "user", "create")
		}
		return audit.Write(tx, audit.Entry{
			Actor:       actor,
			EntityType:  "user",
			EntityID:    u.ID,
			Action:      models.AuditActionCreate,
			Description: "user created",
			After:       map[string]any{"email": u.Email, "role": u.Role},
		})
	})
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Update changes profile, role and discount. Credentials are not touched here.
func (s *UserService) Update(ctx context.Context, actor *models.User, id uint, in UserUpdate) (*models.User, error) {
	var u models.User
	err := database.WithTransaction(ctx, s.db, database.DefaultTxOptions(), func(tx *gorm.DB) error {
		if err := database.ForUpdate(tx).First(&u, id).Error; err != nil {
			if database.IsNotFound(err) {
				return apperr.NotFound("user", id)
			}
			return apperr.Wrap(err, "user", "get")
		}
		before := map[string]any{"role": u.Role, "discount_percent": u.DiscountPercent}

		if in.Name != nil {
			name := strings.TrimSpace(*in.Name)
			if name == "" {
				return apperr.Validation("name cannot be empty")
			}
			u.Name = name
		}
		if in.Phone != nil {
			u.Phone = strings.TrimSpace(*in.Phone)
		}
		if in.Role != nil {
			if !in.Role.Valid() {
				return apperr.Validation("unknown role %q", *in.Role)
			}
			if actor != nil && actor.ID == u.ID && *in.Role != u.Role {
				return apperr.Validation("you cannot change your own role")
			}
			u.Role = *in.Role
		}
		if in.DiscountPercent != nil {
			d := in.DiscountPercent.Round(2)
			if err := checkDiscount(d); err != nil {
				return err
			}
			u.DiscountPercent = d
		}

		err := tx.Model(&u).Select("name", "phone", "role", "discount_percent").Updates(&u).Error
		if err != nil {
			return apperr.Wrap(err, "user", "update")
		}
		return audit.Write(tx, audit.Entry{
			Actor:       actor,
			EntityType:  "user",
			EntityID:    u.ID,
			Action:      models.AuditActionUpdate,
			Description: "user updated",
			Before:      before,
			After:       map[string]any{"role": u.Role, "discount_percent": u.DiscountPercent},
		})
	})
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func checkDiscount(d decimal.Decimal) error {
	if d.IsNegative() || d.GreaterThan(hundred) {
		return apperr.Validation("discount_percent must be between 0 and 100")
	}
	return nil
}
