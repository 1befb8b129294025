package database

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// User represents an account that can publish recipes and follow other authors.
type User struct {
	Model
	Username     string `gorm:"uniqueIndex;size:150;not null"`
	Email        string `gorm:"uniqueIndex;size:254;not null"`
	FirstName    string `gorm:"size:150;not null"`
	LastName     string `gorm:"size:150;not null"`
	PasswordHash string `gorm:"not null"`
	IsActive     bool   `gorm:"not null;default:true"`
	IsStaff      bool   `gorm:"not null;default:false"`
	IsSuperuser  bool   `gorm:"not null;default:false"`
}

// IsAdmin reports whether the user may manage content owned by others.
func (u *User) IsAdmin() bool {
	return u != nil && (u.IsStaff || u.IsSuperuser)
}

// CheckPassword compares a plain text password with the stored hash.
func (u *User) CheckPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}

// HashPassword generates a bcrypt hash of the given password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// CreateUser stores a new user. The password is hashed before it is written.
func (c *Client) CreateUser(ctx context.Context, user *User, password string) error {
	hash, err := HashPassword(password)
	if err != nil {
		return err
	}
	user.PasswordHash = hash
	user.IsActive = true
	if err := c.db.WithContext(ctx).Create(user).Error; err != nil {
		if !IsUniqueViolation(err) {
			log.Error("failed to create user", "error", err)
		}
		return err
	}
	return nil
}

func (c *Client) GetUserByID(ctx context.Context, id uint) (*User, error) {
	var user User
	if err := c.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if !IsNotFound(err) {
			log.Error("failed to get user by ID", "error", err)
		}
		return nil, err
	}
	return &user, nil
}

func (c *Client) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	var user User
	if err := c.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if !IsNotFound(err) {
			log.Error("failed to get user by email", "error", err)
		}
		return nil, err
	}
	return &user, nil
}

// UsernameOrEmailTaken reports which of the unique user fields are already in use.
func (c *Client) UsernameOrEmailTaken(ctx context.Context, username, email string) (usernameTaken, emailTaken bool, err error) {
	var users []User
	err = c.db.WithContext(ctx).
		Select("username", "email").
		Where("username = ? OR email = ?", username, email).
		Find(&users).Error
	if err != nil {
		log.Error("failed to check user uniqueness", "error", err)
		return false, false, err
	}
	for _, u := range users {
		if u.Username == username {
			usernameTaken = true
		}
		if u.Email == email {
			emailTaken = true
		}
	}
	return usernameTaken, emailTaken, nil
}

// ListUsers returns a page of users ordered by id together with the total count.
func (c *Client) ListUsers(ctx context.Context, limit, offset int) ([]User, int64, error) {
	var total int64
	if err := c.db.WithContext(ctx).Model(&User{}).Count(&total).Error; err != nil {
		log.Error("failed to count users", "error", err)
		return nil, 0, err
	}

	var users []User
	if err := c.db.WithContext(ctx).Order("id").Limit(limit).Offset(offset).Find(&users).Error; err != nil {
		log.Error("failed to list users", "error", err)
		return nil, 0, err
	}
	return users, total, nil
}

// SetPassword replaces the password hash of a user.
func (c *Client) SetPassword(ctx context.Context, userID uint, password string) error {
	hash, err := HashPassword(password)
	if err != nil {
		return err
	}
	result := c.db.WithContext(ctx).Model(&User{}).Where("id = ?", userID).Update("password_hash", hash)
	if result.Error != nil {
		log.Error("failed to set password", "error", result.Error)
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// SetAdmin grants or revokes the staff and superuser flags of a user.
func (c *Client) SetAdmin(ctx context.Context, userID uint, admin bool) error {
	result := c.db.WithContext(ctx).Model(&User{}).Where("id = ?", userID).
		Updates(map[string]any{"is_staff": admin, "is_superuser": admin})
	if result.Error != nil {
		log.Error("failed to set admin flags", "error", result.Error)
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// SetActive enables or disables an account. Disabled accounts cannot sign in.
func (c *Client) SetActive(ctx context.Context, userID uint, active bool) error {
	result := c.db.WithContext(ctx).Model(&User{}).Where("id = ?", userID).Update("is_active", active)
	if result.Error != nil {
		log.Error("failed to set active flag", "error", result.Error)
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
