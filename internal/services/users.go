package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/diewo77/go-materiel/auth"
	"github.com/diewo77/go-materiel/gate"
	"github.com/diewo77/go-materiel/internal/models"
	"github.com/diewo77/go-materiel/internal/policy"
	"github.com/diewo77/go-materiel/validation"
	"gorm.io/gorm"
)

type UserInput struct {
	Username string
	Password string
	IsAdmin  bool
}

type UserService struct {
	db   *gorm.DB
	gate *gate.Gate[policy.Principal]
	log  *slog.Logger
}

func (s *UserService) Create(ctx context.Context, p policy.Principal, in UserInput) (*models.User, error) {
	if err := authorize(ctx, s.gate, p, gate.ActionCreate, policy.ResourceUser, nil); err != nil {
		return nil, err
	}
	return s.create(ctx, in)
}

func (s *UserService) create(ctx context.Context, in UserInput) (*models.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	v := validation.Violations{}
	validation.Required("username", in.Username, v)
	validation.Required("password", in.Password, v)
	if err := invalid(v); err != nil {
		return nil, err
	}
	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u := models.User{Username: in.Username, HashedPassword: hash, IsAdmin: in.IsAdmin}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&models.User{}).Where("username = ?", u.Username).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return fmt.Errorf("%w: username %q already registered", ErrConflict, u.Username)
		}
		return tx.Create(&u).Error
	})
	if isUniqueViolation(err) {
		return nil, fmt.Errorf("%w: username %q already registered", ErrConflict, u.Username)
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *UserService) List(ctx context.Context, p policy.Principal) ([]models.User, error) {
	if err := authorize(ctx, s.gate, p, gate.ActionList, policy.ResourceUser, nil); err != nil {
		return nil, err
	}
	var users []models.User
	if err := s.db.WithContext(ctx).Order("username").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// Get returns a user by id without access checks; callers decide who may see whom.
func (s *UserService) Get(ctx context.Context, id uint) (*models.User, error) {
	var u models.User
	if err := s.db.WithContext(ctx).First(&u, id).Error; err != nil {
		return nil, lookupErr(err, "user", id)
	}
	return &u, nil
}

// Delete removes a user. Their materiel and localisations stay, detached;
// their requests stay without a requester; their cart goes with them.
func (s *UserService) Delete(ctx context.Context, p policy.Principal, id uint) error {
	if err := authorize(ctx, s.gate, p, gate.ActionDelete, policy.ResourceUser, nil); err != nil {
		return err
	}
	if id == p.ID {
		return fmt.Errorf("%w: admins cannot delete their own account", ErrInvalidState)
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var u models.User
		if err := tx.First(&u, id).Error; err != nil {
			return lookupErr(err, "user", id)
		}
		materiels := tx.Model(&models.Materiel{}).Where("owner_id = ?", id).Update("owner_id", nil)
		if materiels.Error != nil {
			return materiels.Error
		}
		locs := tx.Model(&models.Localisation{}).Where("owner_id = ?", id).Update("owner_id", nil)
		if locs.Error != nil {
			return locs.Error
		}
		if err := tx.Model(&models.Request{}).Where("user_id = ?", id).Update("user_id", nil).Error; err != nil {
			return err
		}
		cartIDs := tx.Model(&models.Cart{}).Select("id").Where("user_id = ?", id)
		if err := tx.Where("cart_id IN (?)", cartIDs).Delete(&models.CartItem{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", id).Delete(&models.Cart{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(&u).Error; err != nil {
			return err
		}
		s.log.InfoContext(ctx, "user deleted",
			slog.Uint64("user_id", uint64(id)),
			slog.Int64("detached_materiels", materiels.RowsAffected),
			slog.Int64("detached_localisations", locs.RowsAffected),
		)
		return nil
	})
}

// Authenticate checks a username/password pair.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	var u models.User
	err := s.db.WithContext(ctx).Where("username = ?", username).First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, auth.ErrInvalidCredentials
		}
		return nil, err
	}
	if !auth.CheckPassword(u.HashedPassword, password) {
		return nil, auth.ErrInvalidCredentials
	}
	return &u, nil
}

// Resolve loads the current identity of a token subject. It is the
// auth.UserResolver of the HTTP layer.
func (s *UserService) Resolve(ctx context.Context, username string) (auth.Identity, error) {
	var u models.User
	if err := s.db.WithContext(ctx).Where("username = ?", username).First(&u).Error; err != nil {
		return auth.Identity{}, err
	}
	return auth.Identity{UserID: u.ID, Username: u.Username, IsAdmin: u.IsAdmin}, nil
}

// CreateAdmin creates an admin account outside any request, for bootstrap tooling.
func (s *UserService) CreateAdmin(ctx context.Context, username, password string) (*models.User, error) {
	return s.create(ctx, UserInput{Username: username, Password: password, IsAdmin: true})
}

// EnsureAdmin creates the given admin only when no admin exists yet.
func (s *UserService) EnsureAdmin(ctx context.Context, username, password string) (bool, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("is_admin = ?", true).Count(&n).Error; err != nil {
		return false, err
	}
	if n > 0 {
		return false, nil
	}
	if _, err := s.CreateAdmin(ctx, username, password); err != nil {
		return false, err
	}
	return true, nil
}
