package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"comedor-backend/internal/models"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrAdminExists        = errors.New("an admin already exists")
)

// NormalizeUsername is applied on create and on login.
func NormalizeUsername(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Verify checks username and password against the users table.
func Verify(ctx context.Context, db *gorm.DB, username, password string) (*models.User, error) {
	var user models.User
	err := db.WithContext(ctx).Where("username = ?", NormalizeUsername(username)).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return &user, nil
}

// CreateUser hashes password and inserts the user.
func CreateUser(ctx context.Context, db *gorm.DB, name, username, password string, role models.UserRole, companyID *uint) (*models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user := &models.User{
		Name:         strings.TrimSpace(name),
		Username:     NormalizeUsername(username),
		PasswordHash: string(hash),
		Role:         role,
		CompanyID:    companyID,
	}
	if err := db.WithContext(ctx).Create(user).Error; err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

// CreateFirstAdmin creates the bootstrap admin, refusing once one exists.
func CreateFirstAdmin(ctx context.Context, db *gorm.DB, name, username, password string) (*models.User, error) {
	var user *models.User
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.User{}).Where("role = ?", models.RoleAdmin).Count(&count).Error; err != nil {
			return fmt.Errorf("count admins: %w", err)
		}
		if count > 0 {
			return ErrAdminExists
		}
		var err error
		user, err = CreateUser(ctx, tx, name, username, password, models.RoleAdmin, nil)
		return err
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}
